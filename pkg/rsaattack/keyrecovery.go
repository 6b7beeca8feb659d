package rsaattack

import (
	"context"
	"math/big"
	"sort"

	"github.com/cronokirby/saferith"
	"github.com/pkg/errors"
)

// RecoverPrivateKey derives the private exponent from a factorization.
// Either factor may itself be composite; both are split into primes with
// the default SmartFactorStrategy before lambda(n) is computed.
//
// Args:
//   - p, q: the factors of n (p = q is allowed, n = p^2)
//   - e: the public exponent
//
// Returns:
//   - The private key with d = e^-1 mod lambda(n), where lambda(n) is the
//     lcm of lambda over the prime powers dividing n
//   - ErrNoInverse if gcd(e, lambda) != 1
//   - ErrFactorizationExhausted if a composite factor could not be split
func RecoverPrivateKey(p, q, e *big.Int) (*PrivateKey, error) {
	return recoverKey(context.Background(), NewSmartFactorStrategy(), p, q, e)
}

func recoverKey(ctx context.Context, strategy FactorStrategy, p, q, e *big.Int) (*PrivateKey, error) {
	if err := requireModulus("p", p); err != nil {
		return nil, err
	}
	if err := requireModulus("q", q); err != nil {
		return nil, err
	}
	if err := requirePositive("e", e); err != nil {
		return nil, err
	}

	primes, err := primeFactors(ctx, strategy, p, q)
	if err != nil {
		return nil, err
	}
	lambda := carmichael(primes)
	d := new(big.Int).ModInverse(new(big.Int).Mod(e, lambda), lambda)
	if d == nil {
		return nil, errors.Wrapf(ErrNoInverse, "e = %s is not invertible modulo lambda(n)", e.String())
	}

	pair := newFactorPair(p, q)
	return &PrivateKey{
		PublicKey: PublicKey{N: pair.N(), E: new(big.Int).Set(e)},
		D:         d,
		P:         pair.P,
		Q:         pair.Q,
		Primes:    primes,
	}, nil
}

// primeFactors splits every part into primes and returns them in ascending
// order, repeated by multiplicity.
func primeFactors(ctx context.Context, strategy FactorStrategy, parts ...*big.Int) ([]*big.Int, error) {
	var primes []*big.Int
	stack := make([]*big.Int, 0, len(parts))
	for _, part := range parts {
		stack = append(stack, new(big.Int).Set(part))
	}

	for len(stack) > 0 {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for m.Bit(0) == 0 && m.Cmp(bigTwo) > 0 {
			primes = append(primes, big.NewInt(2))
			m.Rsh(m, 1)
		}
		if m.ProbablyPrime(primalityRounds) {
			primes = append(primes, m)
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, aborted(err)
		}
		pair, err := strategy.Factor(ctx, m)
		if err != nil {
			return nil, errors.WithMessagef(err, "splitting %d-bit cofactor", m.BitLen())
		}
		if pair, err = checkSplit(m, pair); err != nil {
			return nil, errors.Wrapf(ErrFactorizationExhausted, "%s: %v", strategy.Name(), err)
		}
		stack = append(stack, pair.P, pair.Q)
	}

	sort.Slice(primes, func(i, j int) bool { return primes[i].Cmp(primes[j]) < 0 })
	return primes, nil
}

// carmichael returns lambda(n) for n the product of primes, which must be
// sorted so that equal primes are adjacent.
func carmichael(primes []*big.Int) *big.Int {
	lambda := big.NewInt(1)
	for i := 0; i < len(primes); {
		p := primes[i]
		k := 1
		for i+k < len(primes) && primes[i+k].Cmp(p) == 0 {
			k++
		}
		i += k

		// lambda(p^k) = p^(k-1) * (p-1), except lambda(2^k) = 2^(k-2) for k >= 3
		var l *big.Int
		if p.Cmp(bigTwo) == 0 {
			shift := k - 1
			if k >= 3 {
				shift = k - 2
			}
			l = new(big.Int).Lsh(bigOne, uint(shift))
		} else {
			l = new(big.Int).Exp(p, big.NewInt(int64(k-1)), nil)
			l.Mul(l, new(big.Int).Sub(p, bigOne))
		}
		lambda = lcm(lambda, l)
	}
	return lambda
}

// Encrypt returns m^e mod n.
func (k *PublicKey) Encrypt(m *big.Int) (*big.Int, error) {
	if err := requireResidue("m", m, k.N); err != nil {
		return nil, err
	}
	return new(big.Int).Exp(m, k.E, k.N), nil
}

// Decrypt returns c^d mod n. When the factors are odd and coprime the
// exponentiation is split over p and q and recombined with the CRT.
func (k *PrivateKey) Decrypt(c *big.Int) (*big.Int, error) {
	if err := requireResidue("c", c, k.N); err != nil {
		return nil, err
	}
	if k.P.Bit(0) == 0 || k.Q.Bit(0) == 0 || new(big.Int).GCD(nil, nil, k.P, k.Q).Cmp(bigOne) != 0 {
		return new(big.Int).Exp(c, k.D, k.N), nil
	}
	return crtExp(c, k.D, k.P, k.Q), nil
}

// crtExp computes x^e mod pq from x^e mod p and x^e mod q.
func crtExp(x, e, p, q *big.Int) *big.Int {
	bits := p.BitLen() + q.BitLen()

	pMod := saferith.ModulusFromNat(new(saferith.Nat).SetBig(p, p.BitLen()))
	qMod := saferith.ModulusFromNat(new(saferith.Nat).SetBig(q, q.BitLen()))
	nMod := saferith.ModulusFromNat(new(saferith.Nat).SetBig(new(big.Int).Mul(p, q), bits))

	xNat := new(saferith.Nat).SetBig(x, bits)
	eNat := new(saferith.Nat).SetBig(e, e.BitLen())
	pNat := new(saferith.Nat).SetBig(p, p.BitLen())
	pInv := new(saferith.Nat).ModInverse(new(saferith.Nat).Mod(pNat, qMod), qMod)

	var xp, xq saferith.Nat
	xp.Exp(new(saferith.Nat).Mod(xNat, pMod), eNat, pMod)
	xq.Exp(new(saferith.Nat).Mod(xNat, qMod), eNat, qMod)

	// r = xp + p * [p^-1 mod q] * (xq - xp) mod n
	r := xq.ModSub(&xq, &xp, nMod)
	r.ModMul(r, pInv, nMod)
	r.ModMul(r, pNat, nMod)
	r.ModAdd(r, &xp, nMod)
	return r.Big()
}

// Verify checks that the key is internally consistent: P*Q = N and a unit
// survives an encrypt/decrypt round trip.
func (k *PrivateKey) Verify() error {
	if k.P.Cmp(bigOne) <= 0 || k.Q.Cmp(bigOne) <= 0 {
		return invalidf("private key has a trivial factor")
	}
	if new(big.Int).Mul(k.P, k.Q).Cmp(k.N) != 0 {
		return invalidf("private key factors do not multiply to n")
	}

	m := big.NewInt(2)
	g := new(big.Int)
	for g.GCD(nil, nil, m, k.N).Cmp(bigOne) != 0 {
		m.Add(m, bigOne)
	}
	c, err := k.Encrypt(m)
	if err != nil {
		return err
	}
	back, err := k.Decrypt(c)
	if err != nil {
		return err
	}
	if back.Cmp(m) != 0 {
		return errors.Wrap(ErrNoInverse, "private exponent does not invert the public exponent")
	}
	return nil
}
