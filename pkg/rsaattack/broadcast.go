package rsaattack

import (
	"context"
	"math/big"
	"strconv"

	"github.com/pkg/errors"
)

// maxRootExponent keeps integer root extraction cheap.
const maxRootExponent = 1 << 16

func rootExponent(e *big.Int) (int, error) {
	if err := requirePositive("e", e); err != nil {
		return 0, err
	}
	if !e.IsInt64() || e.Int64() < 2 || e.Int64() > maxRootExponent {
		return 0, invalidf("e = %s is outside [2, %d]", e.String(), maxRootExponent)
	}
	return int(e.Int64()), nil
}

// HastadBroadcast recovers a message sent unpadded to e recipients that all
// use exponent e. The ciphertexts are combined with the CRT and the e-th
// root of the combination is the message.
//
// Returns:
//   - A Result with Kind KindPlaintext
//   - ErrNoInverse if two moduli are not coprime (a *FactorLeakError)
//   - ErrNoSmallExponent if the combination is not a perfect e-th power
func HastadBroadcast(e *big.Int, moduli, ciphertexts []*big.Int) (*Result, error) {
	k, err := rootExponent(e)
	if err != nil {
		return nil, err
	}
	if len(moduli) != len(ciphertexts) {
		return nil, invalidf("%d moduli but %d ciphertexts", len(moduli), len(ciphertexts))
	}
	if len(moduli) < k {
		return nil, invalidf("need %d ciphertexts for e = %d, got %d", k, k, len(moduli))
	}
	for i := range moduli {
		name := strconv.Itoa(i)
		if err := requireModulus("n"+name, moduli[i]); err != nil {
			return nil, err
		}
		if err := requireResidue("c"+name, ciphertexts[i], moduli[i]); err != nil {
			return nil, err
		}
	}

	combined, err := crt(moduli[:k], ciphertexts[:k])
	if err != nil {
		return nil, err
	}
	m, ok := exactRoot(combined, k)
	if !ok {
		return nil, errors.Wrapf(ErrNoSmallExponent, "CRT combination is not a perfect %d-th power", k)
	}
	return &Result{
		Attack:     "hastad_broadcast",
		Kind:       KindPlaintext,
		Value:      m,
		Iterations: k,
	}, nil
}

// crt returns the x with x = residues[i] mod moduli[i] for every i, reduced
// modulo the product of the moduli.
func crt(moduli, residues []*big.Int) (*big.Int, error) {
	product := big.NewInt(1)
	for _, n := range moduli {
		product.Mul(product, n)
	}

	x := new(big.Int)
	for i, n := range moduli {
		rest := new(big.Int).Quo(product, n)
		inv := new(big.Int).ModInverse(new(big.Int).Mod(rest, n), n)
		if inv == nil {
			g := new(big.Int).GCD(nil, nil, rest, n)
			if g.Cmp(n) == 0 {
				return nil, errors.Wrapf(ErrNoInverse, "modulus %d is repeated", i)
			}
			return nil, &FactorLeakError{
				Reason:  ErrNoInverse,
				Factors: newFactorPair(g, new(big.Int).Quo(n, g)),
			}
		}
		term := new(big.Int).Mul(residues[i], rest)
		term.Mul(term, inv)
		x.Add(x, term)
	}
	return x.Mod(x, product), nil
}

// SmallExponentRoot recovers m from c = m^e mod n when m^e barely wraps n,
// trying c + k*n for k = 0, 1, ..., maxK-1.
func SmallExponentRoot(ctx context.Context, n, e, c *big.Int, maxK int) (*Result, error) {
	if err := requireModulus("n", n); err != nil {
		return nil, err
	}
	k, err := rootExponent(e)
	if err != nil {
		return nil, err
	}
	if err := requireResidue("c", c, n); err != nil {
		return nil, err
	}
	if maxK <= 0 {
		maxK = 1
	}

	x := new(big.Int).Set(c)
	for i := 0; i < maxK; i++ {
		if i%64 == 0 && ctx.Err() != nil {
			return nil, aborted(ctx.Err())
		}
		if m, ok := exactRoot(x, k); ok && new(big.Int).Exp(m, e, n).Cmp(c) == 0 {
			return &Result{
				Attack:     "small_exponent_root",
				Kind:       KindPlaintext,
				Value:      m,
				Iterations: i + 1,
			}, nil
		}
		x.Add(x, n)
	}
	return nil, errors.Wrapf(ErrNoSmallExponent, "no perfect %d-th power in c + k*n for k < %d", k, maxK)
}
