package rsaattack

import (
	"math/big"

	"github.com/pkg/errors"
)

// CommonModulus recovers a message encrypted twice under the same modulus
// with coprime exponents.
//
// Args:
//   - n: the shared modulus
//   - e1, c1: first exponent and ciphertext
//   - e2, c2: second exponent and ciphertext
//
// Returns:
//   - A Result with Kind KindPlaintext, m = c1^s * c2^t where s*e1 + t*e2 = 1,
//     or m = 0 when both ciphertexts are 0
//   - ErrExponentsNotCoprime if gcd(e1, e2) != 1
//   - ErrNoInverse if a ciphertext raised to a negative power is not a unit.
//     When that ciphertext shares a proper factor with n the error is a
//     *FactorLeakError
func CommonModulus(n, e1, c1, e2, c2 *big.Int) (*Result, error) {
	if err := requireModulus("n", n); err != nil {
		return nil, err
	}
	if err := requirePositive("e1", e1); err != nil {
		return nil, err
	}
	if err := requirePositive("e2", e2); err != nil {
		return nil, err
	}
	if err := requireResidue("c1", c1, n); err != nil {
		return nil, err
	}
	if err := requireResidue("c2", c2, n); err != nil {
		return nil, err
	}

	s, t := new(big.Int), new(big.Int)
	g := new(big.Int).GCD(s, t, e1, e2)
	if g.Cmp(bigOne) != 0 {
		return nil, errors.Wrapf(ErrExponentsNotCoprime, "gcd(e1, e2) = %s", g.String())
	}

	// 0 encrypts to 0 under every exponent.
	if c1.Sign() == 0 && c2.Sign() == 0 {
		return &Result{
			Attack: "common_modulus",
			Kind:   KindPlaintext,
			Value:  new(big.Int),
		}, nil
	}

	x1, err := signedExp(c1, s, n)
	if err != nil {
		return nil, errors.WithMessage(err, "c1")
	}
	x2, err := signedExp(c2, t, n)
	if err != nil {
		return nil, errors.WithMessage(err, "c2")
	}

	m := x1.Mul(x1, x2)
	m.Mod(m, n)
	return &Result{
		Attack: "common_modulus",
		Kind:   KindPlaintext,
		Value:  m,
	}, nil
}

// signedExp returns c^k mod n for any sign of k, inverting c when k < 0.
func signedExp(c, k, n *big.Int) (*big.Int, error) {
	if k.Sign() >= 0 {
		return new(big.Int).Exp(c, k, n), nil
	}

	inv := new(big.Int).ModInverse(c, n)
	if inv == nil {
		g := new(big.Int).GCD(nil, nil, c, n)
		if g.Cmp(bigOne) > 0 && g.Cmp(n) < 0 {
			return nil, &FactorLeakError{
				Reason:  ErrNoInverse,
				Factors: newFactorPair(g, new(big.Int).Quo(n, g)),
			}
		}
		return nil, errors.Wrap(ErrNoInverse, "ciphertext is not invertible modulo n")
	}
	return inv.Exp(inv, new(big.Int).Neg(k), n), nil
}
