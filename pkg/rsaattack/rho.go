package rsaattack

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// PollardRho is Pollard's Rho with Brent's cycle detection.
//
// The walk x <- x^2 + c (mod n) starts at x = 2 and uses c = 1, 2, ...,
// MaxRetries, so results are deterministic. Differences are multiplied
// together BatchSize at a time before a single GCD, and the hare's lead
// doubles every round.
type PollardRho struct {
	MaxIterations int // Total steps over all restarts
	MaxRetries    int
	BatchSize     int
	Logger        logrus.FieldLogger
}

// Name returns the name of this strategy.
func (s *PollardRho) Name() string {
	return "pollard_rho"
}

// Factor implements the FactorStrategy interface.
func (s *PollardRho) Factor(ctx context.Context, n *big.Int) (*FactorPair, error) {
	if n.Bit(0) == 0 {
		return newFactorPair(bigTwo, new(big.Int).Rsh(n, 1)), nil
	}

	log := loggerOr(s.Logger)
	batch := s.BatchSize
	if batch <= 0 {
		batch = 1
	}

	steps := 0
	for attempt := 1; attempt <= s.MaxRetries; attempt++ {
		c := big.NewInt(int64(attempt))
		g, used, err := s.walk(ctx, n, c, batch, s.MaxIterations-steps)
		steps += used
		if err != nil {
			return nil, err
		}
		if g != nil {
			log.WithFields(logrus.Fields{
				"c":          attempt,
				"iterations": steps,
			}).Debug("pollard rho found a factor")
			return newFactorPair(g, new(big.Int).Quo(n, g)), nil
		}
		if steps >= s.MaxIterations {
			break
		}
		log.WithFields(logrus.Fields{"c": attempt, "iterations": steps}).Debug("pollard rho cycle without factor, restarting")
	}
	return nil, errors.Wrapf(ErrFactorizationExhausted, "pollard rho: no factor after %d steps", steps)
}

// walk runs one Brent walk with constant c. It returns a nontrivial factor,
// or nil when the walk closed its cycle without one or ran out of budget.
func (s *PollardRho) walk(ctx context.Context, n, c *big.Int, batch, budget int) (*big.Int, int, error) {
	f := func(z *big.Int) {
		z.Mul(z, z)
		z.Add(z, c)
		z.Mod(z, n)
	}

	y := big.NewInt(2)
	x := new(big.Int)
	ys := new(big.Int)
	q := big.NewInt(1)
	g := big.NewInt(1)
	diff := new(big.Int)
	used := 0

	for r := 1; g.Cmp(bigOne) == 0; r <<= 1 {
		if used+r > budget {
			return nil, used, nil
		}
		x.Set(y)
		for i := 0; i < r; i++ {
			f(y)
		}
		used += r

		for k := 0; k < r && g.Cmp(bigOne) == 0; k += batch {
			if ctx.Err() != nil {
				return nil, used, aborted(ctx.Err())
			}
			ys.Set(y)
			lim := batch
			if r-k < lim {
				lim = r - k
			}
			for i := 0; i < lim; i++ {
				f(y)
				diff.Sub(x, y)
				q.Mul(q, diff.Abs(diff))
				q.Mod(q, n)
			}
			used += lim
			g.GCD(nil, nil, q, n)
		}
	}

	if g.Cmp(n) == 0 {
		// The batch overshot: replay it one step at a time.
		for i := 0; i < batch; i++ {
			f(ys)
			used++
			g.GCD(nil, nil, diff.Abs(diff.Sub(x, ys)), n)
			if g.Cmp(bigOne) > 0 {
				break
			}
		}
	}

	if g.Cmp(bigOne) == 0 || g.Cmp(n) == 0 {
		return nil, used, nil
	}
	return g, used, nil
}
