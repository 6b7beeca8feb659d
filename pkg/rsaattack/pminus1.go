package rsaattack

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// pminus1Block is how many primes are folded into the exponent between GCDs.
const pminus1Block = 32

// PollardP1 is Pollard's p-1 method with base 2. It finds p when p-1 is
// Bound-smooth.
type PollardP1 struct {
	Bound  int
	Logger logrus.FieldLogger
}

// Name returns the name of this strategy.
func (s *PollardP1) Name() string {
	return "pollard_p1"
}

// Factor implements the FactorStrategy interface.
func (s *PollardP1) Factor(ctx context.Context, n *big.Int) (*FactorPair, error) {
	primes := smallPrimes(s.Bound)
	bound := big.NewInt(int64(s.Bound))

	a := big.NewInt(2)
	saved := new(big.Int).Set(a)
	g := new(big.Int)
	am1 := new(big.Int)
	pk := new(big.Int)

	// exponent returns the largest power of p not above the bound.
	exponent := func(p int64) *big.Int {
		base := big.NewInt(p)
		pk.Set(base)
		for next := new(big.Int).Mul(pk, base); next.Cmp(bound) <= 0; next.Mul(pk, base) {
			pk.Set(next)
		}
		return pk
	}

	for start := 0; start < len(primes); start += pminus1Block {
		if ctx.Err() != nil {
			return nil, aborted(ctx.Err())
		}
		end := start + pminus1Block
		if end > len(primes) {
			end = len(primes)
		}

		saved.Set(a)
		for _, p := range primes[start:end] {
			a.Exp(a, exponent(p), n)
		}
		g.GCD(nil, nil, am1.Sub(a, bigOne), n)

		if g.Cmp(n) == 0 {
			// Every factor became smooth inside this block; redo it one prime
			// at a time to separate them.
			a.Set(saved)
			for _, p := range primes[start:end] {
				a.Exp(a, exponent(p), n)
				g.GCD(nil, nil, am1.Sub(a, bigOne), n)
				if g.Cmp(bigOne) > 0 {
					break
				}
			}
		}

		if g.Cmp(bigOne) > 0 && g.Cmp(n) < 0 {
			loggerOr(s.Logger).WithFields(logrus.Fields{
				"primes": end,
				"bound":  s.Bound,
			}).Debug("pollard p-1 found a smooth factor")
			return newFactorPair(g, new(big.Int).Quo(n, g)), nil
		}
		if g.Cmp(n) == 0 {
			break
		}
	}
	return nil, errors.Wrapf(ErrFactorizationExhausted, "pollard p-1: no factor with bound %d", s.Bound)
}
