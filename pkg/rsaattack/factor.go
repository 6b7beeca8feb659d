package rsaattack

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// primalityRounds is the Miller-Rabin round count used to reject prime moduli.
const primalityRounds = 20

// SmartFactorStrategy implements a multi-phase factorization strategy that
// runs the cheap, special-purpose methods first and the general ones last.
// An optional FactorOracle is raced against the whole pipeline.
type SmartFactorStrategy struct {
	Config FactorConfig
	Oracle FactorOracle
	Logger logrus.FieldLogger
}

// NewSmartFactorStrategy creates a new smart factorization strategy with default settings.
func NewSmartFactorStrategy() *SmartFactorStrategy {
	return &SmartFactorStrategy{
		Config: DefaultFactorConfig(),
	}
}

// WithConfig sets the configuration for the strategy.
func (s *SmartFactorStrategy) WithConfig(config FactorConfig) *SmartFactorStrategy {
	s.Config = config
	return s
}

// WithOracle sets an external oracle to race against the internal methods.
func (s *SmartFactorStrategy) WithOracle(oracle FactorOracle) *SmartFactorStrategy {
	s.Oracle = oracle
	return s
}

// WithLogger sets the logger used for phase narration.
func (s *SmartFactorStrategy) WithLogger(logger logrus.FieldLogger) *SmartFactorStrategy {
	s.Logger = logger
	return s
}

// Name returns the name of this strategy.
func (s *SmartFactorStrategy) Name() string {
	return "SmartFactor"
}

// Factor is SmartFactorStrategy with default settings.
func Factor(ctx context.Context, n *big.Int) (*FactorPair, error) {
	return NewSmartFactorStrategy().Factor(ctx, n)
}

// Factor implements the FactorStrategy interface.
func (s *SmartFactorStrategy) Factor(ctx context.Context, n *big.Int) (*FactorPair, error) {
	if err := requireComposite(n); err != nil {
		return nil, err
	}

	if s.Oracle == nil {
		return s.runPhases(ctx, n)
	}
	return s.race(ctx, n)
}

// requireComposite rejects inputs no factorization method can split.
func requireComposite(n *big.Int) error {
	if err := requirePositive("n", n); err != nil {
		return err
	}
	if n.Cmp(bigFour) < 0 {
		return errors.Wrapf(ErrNotComposite, "%s is too small", n.String())
	}
	if n.ProbablyPrime(primalityRounds) {
		return errors.Wrapf(ErrNotComposite, "%d-bit modulus is prime", n.BitLen())
	}
	return nil
}

// phases returns the enabled strategies in the order they are tried.
func (s *SmartFactorStrategy) phases() []FactorStrategy {
	cfg := s.Config
	var out []FactorStrategy
	if cfg.TrialDivisionBound > 0 {
		out = append(out, &TrialDivision{Bound: cfg.TrialDivisionBound, Logger: s.Logger})
	}
	if cfg.FermatMaxIterations > 0 {
		out = append(out, &Fermat{MaxIterations: cfg.FermatMaxIterations, Logger: s.Logger})
	}
	if cfg.RhoMaxIterations > 0 && cfg.RhoMaxRetries > 0 {
		out = append(out, rhoFromConfig(cfg, s.Logger))
	}
	if cfg.PollardP1Bound > 0 {
		out = append(out, &PollardP1{Bound: cfg.PollardP1Bound, Logger: s.Logger})
	}
	return out
}

func (s *SmartFactorStrategy) runPhases(ctx context.Context, n *big.Int) (*FactorPair, error) {
	log := loggerOr(s.Logger).WithField("bits", n.BitLen())
	log.Info("Starting factorization")

	for i, phase := range s.phases() {
		plog := log.WithFields(logrus.Fields{"phase": i + 1, "method": phase.Name()})
		plog.Infof("Phase %d: %s", i+1, phase.Name())

		pair, err := phase.Factor(ctx, n)
		if err == nil {
			plog.WithField("p", pair.P.String()).Info("✓ Found factor")
			return pair, nil
		}
		if ctx.Err() != nil {
			log.Warn("factorization cancelled")
			return nil, aborted(ctx.Err())
		}
		plog.WithError(err).Debug("phase gave up")
	}

	log.Warn("All phases completed, no factor found")
	return nil, errors.Wrapf(ErrFactorizationExhausted, "%d-bit modulus resisted every method", n.BitLen())
}

type factorOutcome struct {
	source string
	pair   *FactorPair
	err    error
}

// race runs the internal phases and the oracle side by side. The first
// success wins and cancels the other. When both fail the engine's error is
// returned, since it carries the budget information.
func (s *SmartFactorStrategy) race(ctx context.Context, n *big.Int) (*FactorPair, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := loggerOr(s.Logger)
	resultChan := make(chan factorOutcome, 2)

	go func() {
		pair, err := s.runPhases(ctx, n)
		resultChan <- factorOutcome{source: "engine", pair: pair, err: err}
	}()

	go func() {
		octx := ctx
		if s.Config.OracleTimeout > 0 {
			var ocancel context.CancelFunc
			octx, ocancel = context.WithTimeout(ctx, s.Config.OracleTimeout)
			defer ocancel()
		}
		pair, err := s.Oracle.Lookup(octx, n)
		if err == nil {
			pair, err = checkSplit(n, pair)
		}
		resultChan <- factorOutcome{source: s.Oracle.Name(), pair: pair, err: err}
	}()

	var engineErr error
	for i := 0; i < 2; i++ {
		out := <-resultChan
		if out.err == nil {
			log.WithField("source", out.source).Info("✓ Factorization won the race")
			return out.pair, nil
		}
		if out.source == "engine" {
			engineErr = out.err
		} else {
			log.WithField("oracle", out.source).WithError(out.err).Debug("oracle lookup failed")
		}
	}
	return nil, engineErr
}

// checkSplit refuses any answer that does not split n into two factors.
// External sources go through it before their answer is used.
func checkSplit(n *big.Int, pair *FactorPair) (*FactorPair, error) {
	if pair == nil || pair.P == nil || pair.Q == nil {
		return nil, errors.New("no factors returned")
	}
	if pair.P.Cmp(bigOne) <= 0 || pair.Q.Cmp(bigOne) <= 0 {
		return nil, errors.New("trivial factor returned")
	}
	if pair.N().Cmp(n) != 0 {
		return nil, errors.New("factors do not multiply to n")
	}
	return newFactorPair(pair.P, pair.Q), nil
}
