package rsaattack

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"
)

func TestFactor_Four(t *testing.T) {
	pair, err := Factor(context.Background(), big.NewInt(4))
	if err != nil {
		t.Fatalf("Factor(4) failed: %v", err)
	}
	if pair.P.Int64() != 2 || pair.Q.Int64() != 2 {
		t.Errorf("Factor(4) = %s, want 2 * 2", pair)
	}
}

func TestFactor_NotComposite(t *testing.T) {
	v := loadVector(t, "common_prime")

	tests := []struct {
		name string
		n    *big.Int
	}{
		{"one", big.NewInt(1)},
		{"two", big.NewInt(2)},
		{"three", big.NewInt(3)},
		{"small_prime", big.NewInt(65537)},
		{"large_prime", v["p"]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Factor(context.Background(), tt.n)
			if !errors.Is(err, ErrNotComposite) {
				t.Errorf("Factor(%s) error = %v, want ErrNotComposite", tt.n, err)
			}
		})
	}
}

func TestFactor_InvalidInput(t *testing.T) {
	for _, n := range []*big.Int{nil, big.NewInt(0), big.NewInt(-15)} {
		_, err := Factor(context.Background(), n)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Factor(%v) error = %v, want ErrInvalidInput", n, err)
		}
	}
}

func TestFactor_SmallFactor(t *testing.T) {
	v := loadVector(t, "common_prime")
	n := new(big.Int).Mul(big.NewInt(65521), v["p"])

	pair, err := Factor(context.Background(), n)
	if err != nil {
		t.Fatalf("Factor failed: %v", err)
	}
	if !samePair(pair, big.NewInt(65521), v["p"]) {
		t.Errorf("Factor = %s, want 65521 * p", pair)
	}
	if pair.P.Cmp(pair.Q) > 0 {
		t.Errorf("factor pair not normalized: %s", pair)
	}
}

func TestFermat_ClosePrimes(t *testing.T) {
	v := loadVector(t, "fermat")

	s := &Fermat{MaxIterations: 16, Logger: quietLogger()}
	pair, err := s.Factor(context.Background(), v["n"])
	if err != nil {
		t.Fatalf("Fermat failed on close primes: %v", err)
	}
	if !samePair(pair, v["p"], v["q"]) {
		t.Errorf("Fermat = %s, want %s * %s", pair, v["p"], v["q"])
	}
}

func TestFermat_TwoModFour(t *testing.T) {
	s := &Fermat{MaxIterations: 1000}
	_, err := s.Factor(context.Background(), big.NewInt(2*7*11))
	if !errors.Is(err, ErrFactorizationExhausted) {
		t.Errorf("error = %v, want ErrFactorizationExhausted", err)
	}
}

func TestPollardRho_SmallSemiprimes(t *testing.T) {
	tests := []struct {
		n, p, q int64
	}{
		{8051, 83, 97},
		{10403, 101, 103},
		{455459, 613, 743},
		{2 * 1000003, 2, 1000003},
	}
	s := rhoFromConfig(DefaultFactorConfig(), quietLogger())
	for _, tt := range tests {
		pair, err := s.Factor(context.Background(), big.NewInt(tt.n))
		if err != nil {
			t.Errorf("rho(%d) failed: %v", tt.n, err)
			continue
		}
		if pair.P.Int64() != tt.p || pair.Q.Int64() != tt.q {
			t.Errorf("rho(%d) = %s, want %d * %d", tt.n, pair, tt.p, tt.q)
		}
	}
}

func TestPollardRho_Deterministic(t *testing.T) {
	v := loadVector(t, "rho")
	s := rhoFromConfig(DefaultFactorConfig(), quietLogger())

	first, err := s.Factor(context.Background(), v["n"])
	if err != nil {
		t.Fatalf("rho failed: %v", err)
	}
	if !samePair(first, v["p"], v["q"]) {
		t.Fatalf("rho = %s, want %s * %s", first, v["p"], v["q"])
	}

	second, err := s.Factor(context.Background(), v["n"])
	if err != nil {
		t.Fatalf("second rho run failed: %v", err)
	}
	if first.P.Cmp(second.P) != 0 || first.Q.Cmp(second.Q) != 0 {
		t.Errorf("rho is not deterministic: %s then %s", first, second)
	}
}

func TestPollardRho_Budget(t *testing.T) {
	v := loadVector(t, "common_modulus")

	s := &PollardRho{MaxIterations: 5000, MaxRetries: 3, BatchSize: 16, Logger: quietLogger()}
	_, err := s.Factor(context.Background(), v["n"])
	if !errors.Is(err, ErrFactorizationExhausted) {
		t.Errorf("error = %v, want ErrFactorizationExhausted", err)
	}
}

func TestPollardP1_SmoothFactor(t *testing.T) {
	v := loadVector(t, "pminus1")

	s := &PollardP1{Bound: 1 << 16, Logger: quietLogger()}
	pair, err := s.Factor(context.Background(), v["n"])
	if err != nil {
		t.Fatalf("p-1 failed: %v", err)
	}
	if !samePair(pair, v["p"], v["q"]) {
		t.Errorf("p-1 = %s, want %s * %s", pair, v["p"], v["q"])
	}
}

func TestSmartFactor_Exhausted(t *testing.T) {
	v := loadVector(t, "common_modulus")

	s := NewSmartFactorStrategy().WithLogger(quietLogger()).WithConfig(FactorConfig{
		TrialDivisionBound:  100,
		FermatMaxIterations: 10,
		RhoMaxIterations:    1000,
		RhoMaxRetries:       2,
		RhoBatchSize:        8,
	})
	_, err := s.Factor(context.Background(), v["n"])
	if !errors.Is(err, ErrFactorizationExhausted) {
		t.Fatalf("error = %v, want ErrFactorizationExhausted", err)
	}
	if errors.Is(err, context.Canceled) {
		t.Errorf("budget exhaustion reported as cancellation: %v", err)
	}
	if ReasonOf(err) != ReasonFactorizationExhausted {
		t.Errorf("ReasonOf = %q", ReasonOf(err))
	}
}

func TestSmartFactor_Cancelled(t *testing.T) {
	v := loadVector(t, "common_modulus")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSmartFactorStrategy().WithLogger(quietLogger())
	_, err := s.Factor(ctx, v["n"])
	if !errors.Is(err, ErrFactorizationExhausted) {
		t.Errorf("error = %v, want ErrFactorizationExhausted", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

type fakeOracle struct {
	pair  *FactorPair
	err   error
	block bool
}

func (o *fakeOracle) Name() string { return "fake" }

func (o *fakeOracle) Lookup(ctx context.Context, n *big.Int) (*FactorPair, error) {
	if o.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return o.pair, o.err
}

func tinyConfig() FactorConfig {
	return FactorConfig{TrialDivisionBound: 100, FermatMaxIterations: 10, OracleTimeout: time.Second}
}

func TestSmartFactor_OracleWins(t *testing.T) {
	v := loadVector(t, "common_modulus")

	oracle := &fakeOracle{pair: &FactorPair{P: v["q"], Q: v["p"]}}
	s := NewSmartFactorStrategy().WithLogger(quietLogger()).WithConfig(tinyConfig()).WithOracle(oracle)

	pair, err := s.Factor(context.Background(), v["n"])
	if err != nil {
		t.Fatalf("Factor with oracle failed: %v", err)
	}
	if pair.P.Cmp(v["p"]) != 0 || pair.Q.Cmp(v["q"]) != 0 {
		t.Errorf("Factor = %s, want normalized %s * %s", pair, v["p"], v["q"])
	}
}

func TestSmartFactor_OracleLies(t *testing.T) {
	v := loadVector(t, "common_modulus")

	oracle := &fakeOracle{pair: &FactorPair{P: big.NewInt(3), Q: v["q"]}}
	s := NewSmartFactorStrategy().WithLogger(quietLogger()).WithConfig(tinyConfig()).WithOracle(oracle)

	_, err := s.Factor(context.Background(), v["n"])
	if !errors.Is(err, ErrFactorizationExhausted) {
		t.Errorf("error = %v, want ErrFactorizationExhausted", err)
	}
}

func TestSmartFactor_EngineBeatsSlowOracle(t *testing.T) {
	v := loadVector(t, "fermat")

	s := NewSmartFactorStrategy().WithLogger(quietLogger()).WithOracle(&fakeOracle{block: true})
	pair, err := s.Factor(context.Background(), v["n"])
	if err != nil {
		t.Fatalf("Factor failed: %v", err)
	}
	if !samePair(pair, v["p"], v["q"]) {
		t.Errorf("Factor = %s", pair)
	}
}
