package rsaattack

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// fermatCheckEvery is how many Fermat steps run between context checks.
const fermatCheckEvery = 1024

// Fermat factors n = a^2 - b^2 = (a+b)(a-b) by walking a upward from
// ceil(sqrt(n)). Its cost grows with |p - q|, so it is bounded by MaxIterations.
type Fermat struct {
	MaxIterations int
	Logger        logrus.FieldLogger
}

// Name returns the name of this strategy.
func (s *Fermat) Name() string {
	return "fermat"
}

// Factor implements the FactorStrategy interface.
func (s *Fermat) Factor(ctx context.Context, n *big.Int) (*FactorPair, error) {
	// n = 2 (mod 4) is never a difference of two squares.
	if n.Bit(0) == 0 && n.Bit(1) == 1 {
		return nil, errors.Wrap(ErrFactorizationExhausted, "fermat: n = 2 mod 4")
	}

	a := ceilSqrt(n)
	b2 := new(big.Int).Mul(a, a)
	b2.Sub(b2, n)
	step := new(big.Int)

	for i := 0; i < s.MaxIterations; i++ {
		if i%fermatCheckEvery == 0 && ctx.Err() != nil {
			return nil, aborted(ctx.Err())
		}

		if b, ok := isqrtExact(b2); ok {
			p := new(big.Int).Add(a, b)
			q := new(big.Int).Sub(a, b)
			if q.Cmp(bigOne) > 0 {
				loggerOr(s.Logger).WithFields(logrus.Fields{
					"iterations": i + 1,
					"gap_bits":   new(big.Int).Sub(p, q).BitLen(),
				}).Debug("fermat found a square")
				return newFactorPair(p, q), nil
			}
		}

		// (a+1)^2 - n = a^2 - n + 2a + 1
		step.Lsh(a, 1)
		step.Add(step, bigOne)
		b2.Add(b2, step)
		a.Add(a, bigOne)
	}
	return nil, errors.Wrapf(ErrFactorizationExhausted, "fermat: no square within %d iterations", s.MaxIterations)
}
