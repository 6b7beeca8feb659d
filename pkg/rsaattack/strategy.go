package rsaattack

import (
	"context"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"
)

// FactorStrategy defines the interface for factorization strategies.
// Implement this interface to plug a custom method into SmartFactorStrategy
// or into a Client.
type FactorStrategy interface {
	// Factor splits n into two factors greater than one.
	// A strategy that gives up returns an error wrapping ErrFactorizationExhausted.
	// The context can be used for cancellation.
	Factor(ctx context.Context, n *big.Int) (*FactorPair, error)

	// Name returns a human-readable name for this strategy.
	Name() string
}

// FactorOracle is an external source of known factorizations, such as a
// factor database. It is raced against the internal engine.
type FactorOracle interface {
	// Lookup returns the factorization of n, or an error when n is unknown.
	Lookup(ctx context.Context, n *big.Int) (*FactorPair, error)

	// Name returns a human-readable name for this oracle.
	Name() string
}

// FactorConfig bounds the work done by the factorization engine.
type FactorConfig struct {
	// TrialDivisionBound tries every prime below this bound (0 disables)
	TrialDivisionBound int

	// FermatMaxIterations limits Fermat's method (0 disables)
	FermatMaxIterations int

	// RhoMaxIterations limits the total polynomial steps of Pollard's Rho
	// across all restarts (0 disables)
	RhoMaxIterations int

	// RhoMaxRetries is the number of polynomials x^2 + c tried, c = 1, 2, ...
	RhoMaxRetries int

	// RhoBatchSize is the number of differences multiplied before each GCD
	RhoBatchSize int

	// PollardP1Bound is the smoothness bound of Pollard's p-1 (0 disables)
	PollardP1Bound int

	// OracleTimeout bounds an external oracle lookup (0 = no extra timeout)
	OracleTimeout time.Duration
}

// DefaultFactorConfig returns a sensible default configuration.
func DefaultFactorConfig() FactorConfig {
	return FactorConfig{
		TrialDivisionBound:  1 << 16,
		FermatMaxIterations: 1 << 20,
		RhoMaxIterations:    1 << 22,
		RhoMaxRetries:       8,
		RhoBatchSize:        128,
		PollardP1Bound:      1 << 16,
		OracleTimeout:       30 * time.Second,
	}
}

// AttackConfig bounds the attacks whose cost grows with their parameters.
type AttackConfig struct {
	// MaxRelatedExponent is the largest e Franklin-Reiter accepts
	MaxRelatedExponent int64

	// BroadcastMaxK limits SmallExponentRoot to c + k*n for k < BroadcastMaxK
	BroadcastMaxK int

	// Workers is the BatchGCD worker count (0 = number of CPUs)
	Workers int
}

// DefaultAttackConfig returns a sensible default configuration.
func DefaultAttackConfig() AttackConfig {
	return AttackConfig{
		MaxRelatedExponent: 65537,
		BroadcastMaxK:      1000,
	}
}

func loggerOr(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return logrus.StandardLogger()
	}
	return l
}
