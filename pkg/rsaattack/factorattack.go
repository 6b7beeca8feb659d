package rsaattack

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SimpleFactorization factors n with the default SmartFactorStrategy and
// derives the private key. Errors from either step are returned unchanged.
func SimpleFactorization(ctx context.Context, n, e *big.Int) (*Result, error) {
	return factorAndRecover(ctx, "simple_factorization", NewSmartFactorStrategy(), n, e)
}

// PollardRhoAttack is SimpleFactorization restricted to Pollard's Rho.
func PollardRhoAttack(ctx context.Context, n, e *big.Int) (*Result, error) {
	return factorAndRecover(ctx, "pollard_rho", rhoFromConfig(DefaultFactorConfig(), nil), n, e)
}

// rhoFromConfig builds the standalone Rho strategy from the Rho fields of cfg.
func rhoFromConfig(cfg FactorConfig, logger logrus.FieldLogger) *PollardRho {
	return &PollardRho{
		MaxIterations: cfg.RhoMaxIterations,
		MaxRetries:    cfg.RhoMaxRetries,
		BatchSize:     cfg.RhoBatchSize,
		Logger:        logger,
	}
}

func factorAndRecover(ctx context.Context, attack string, strategy FactorStrategy, n, e *big.Int) (*Result, error) {
	if err := requireModulus("n", n); err != nil {
		return nil, err
	}
	if err := requirePositive("e", e); err != nil {
		return nil, err
	}
	if err := requireComposite(n); err != nil {
		return nil, err
	}

	pair, err := strategy.Factor(ctx, n)
	if err != nil {
		return nil, err
	}
	if pair, err = checkSplit(n, pair); err != nil {
		return nil, errors.Wrapf(ErrFactorizationExhausted, "%s: %v", strategy.Name(), err)
	}
	key, err := recoverKey(ctx, strategy, pair.P, pair.Q, e)
	if err != nil {
		return nil, err
	}

	return &Result{
		Attack:     attack,
		Kind:       KindPrivateExponent,
		Value:      new(big.Int).Set(key.D),
		Factors:    pair,
		PrivateKey: key,
	}, nil
}
