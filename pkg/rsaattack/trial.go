package rsaattack

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// TrialDivision divides n by every prime below Bound.
// Cheap, and catches tiny factors that break the two-large-primes assumption.
type TrialDivision struct {
	Bound  int
	Logger logrus.FieldLogger
}

// Name returns the name of this strategy.
func (s *TrialDivision) Name() string {
	return "trial_division"
}

// Factor implements the FactorStrategy interface.
func (s *TrialDivision) Factor(ctx context.Context, n *big.Int) (*FactorPair, error) {
	primes := smallPrimes(s.Bound)
	rem := new(big.Int)
	p := new(big.Int)
	pp := new(big.Int)

	for i, v := range primes {
		if i%1024 == 0 && ctx.Err() != nil {
			return nil, aborted(ctx.Err())
		}
		p.SetInt64(v)
		if pp.Mul(p, p).Cmp(n) > 0 {
			break
		}
		if rem.Mod(n, p).Sign() == 0 {
			q := new(big.Int).Quo(n, p)
			loggerOr(s.Logger).WithField("factor", v).Debug("trial division hit")
			return newFactorPair(p, q), nil
		}
	}
	return nil, errors.Wrapf(ErrFactorizationExhausted, "no factor below %d", s.Bound)
}
