package rsaattack

import (
	"math/big"

	"github.com/pkg/errors"
)

// continuedFraction returns the partial quotients of num/den.
func continuedFraction(num, den *big.Int) []*big.Int {
	a := new(big.Int).Set(num)
	b := new(big.Int).Set(den)
	var quotients []*big.Int
	for b.Sign() != 0 {
		q, r := new(big.Int).QuoRem(a, b, new(big.Int))
		quotients = append(quotients, q)
		a, b = b, r
	}
	return quotients
}

// convergents returns the successive convergents h_i/k_i of the continued
// fraction with the given partial quotients.
func convergents(quotients []*big.Int) (hs, ks []*big.Int) {
	hPrev, h := big.NewInt(0), big.NewInt(1)
	kPrev, k := big.NewInt(1), big.NewInt(0)
	for _, a := range quotients {
		hNext := new(big.Int).Mul(a, h)
		hNext.Add(hNext, hPrev)
		kNext := new(big.Int).Mul(a, k)
		kNext.Add(kNext, kPrev)
		hPrev, h = h, hNext
		kPrev, k = k, kNext
		hs = append(hs, h)
		ks = append(ks, k)
	}
	return hs, ks
}

// wienerCandidate tests the convergent k/d. It returns the factors of n when
// d is the private exponent.
func wienerCandidate(n, e, k, d *big.Int) *FactorPair {
	if k.Sign() == 0 || d.Sign() == 0 {
		return nil
	}

	// phi = (e*d - 1) / k must be exact
	ed1 := new(big.Int).Mul(e, d)
	ed1.Sub(ed1, bigOne)
	phi, rem := new(big.Int).QuoRem(ed1, k, new(big.Int))
	if rem.Sign() != 0 {
		return nil
	}

	// p and q are the roots of x^2 - s*x + n with s = n - phi + 1
	s := new(big.Int).Sub(n, phi)
	s.Add(s, bigOne)
	disc := new(big.Int).Mul(s, s)
	disc.Sub(disc, new(big.Int).Mul(bigFour, n))
	t, ok := isqrtExact(disc)
	if !ok {
		return nil
	}

	p := new(big.Int).Add(s, t)
	q := new(big.Int).Sub(s, t)
	if p.Bit(0) != 0 || q.Sign() <= 0 {
		return nil
	}
	p.Rsh(p, 1)
	q.Rsh(q, 1)
	if p.Cmp(bigOne) <= 0 || q.Cmp(bigOne) <= 0 {
		return nil
	}
	if new(big.Int).Mul(p, q).Cmp(n) != 0 {
		return nil
	}
	return newFactorPair(p, q)
}

// Wiener recovers a small private exponent (d < n^(1/4)/3) from the
// continued fraction expansion of e/n.
//
// Args:
//   - n: the modulus
//   - e: the public exponent
//
// Returns:
//   - A Result with Kind KindPrivateExponent, the factors and the private key
//   - ErrNoSmallExponent if no convergent yields a valid factorization
func Wiener(n, e *big.Int) (*Result, error) {
	if err := requireModulus("n", n); err != nil {
		return nil, err
	}
	if err := requirePositive("e", e); err != nil {
		return nil, err
	}

	hs, ks := convergents(continuedFraction(e, n))
	for i := range hs {
		pair := wienerCandidate(n, e, hs[i], ks[i])
		if pair == nil {
			continue
		}
		d := new(big.Int).Set(ks[i])
		return &Result{
			Attack:  "wiener",
			Kind:    KindPrivateExponent,
			Value:   d,
			Factors: pair,
			PrivateKey: &PrivateKey{
				PublicKey: PublicKey{N: new(big.Int).Set(n), E: new(big.Int).Set(e)},
				D:         new(big.Int).Set(d),
				P:         pair.P,
				Q:         pair.Q,
				Primes:    []*big.Int{pair.P, pair.Q},
			},
			Iterations: i + 1,
		}, nil
	}
	return nil, errors.Wrapf(ErrNoSmallExponent, "%d convergents tried", len(hs))
}
