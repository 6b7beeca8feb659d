package rsaattack

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Client provides a high-level API over the attacks in this package. It
// validates every input before any attack logic runs, checks the context,
// and narrates through a single logger.
type Client struct {
	strategy  FactorStrategy
	config    AttackConfig
	rhoConfig FactorConfig
	logger    logrus.FieldLogger
}

// NewClient creates a new client with default settings.
func NewClient() *Client {
	return &Client{
		strategy:  NewSmartFactorStrategy(),
		config:    DefaultAttackConfig(),
		rhoConfig: DefaultFactorConfig(),
	}
}

// WithStrategy sets a custom factorization strategy for SimpleFactorization
// and Factor.
func (c *Client) WithStrategy(strategy FactorStrategy) *Client {
	c.strategy = strategy
	return c
}

// WithFactorConfig sets the factorization bounds. It applies to the default
// strategy and to the standalone Pollard's Rho attack.
func (c *Client) WithFactorConfig(config FactorConfig) *Client {
	c.rhoConfig = config
	if s, ok := c.strategy.(*SmartFactorStrategy); ok {
		s.WithConfig(config)
	}
	return c
}

// WithConfig sets the attack bounds.
func (c *Client) WithConfig(config AttackConfig) *Client {
	c.config = config
	return c
}

// WithOracle races an external factor oracle against the default strategy.
// It has no effect on a custom strategy.
func (c *Client) WithOracle(oracle FactorOracle) *Client {
	if s, ok := c.strategy.(*SmartFactorStrategy); ok {
		s.WithOracle(oracle)
	}
	return c
}

// WithLogger sets the logger for the client and its default strategy.
func (c *Client) WithLogger(logger logrus.FieldLogger) *Client {
	c.logger = logger
	if s, ok := c.strategy.(*SmartFactorStrategy); ok {
		s.WithLogger(logger)
	}
	return c
}

// run wraps one attack with the context check and logging shared by every
// entry point.
func (c *Client) run(ctx context.Context, attack string, fn func(log logrus.FieldLogger) (*Result, error)) (*Result, error) {
	log := loggerOr(c.logger).WithField("attack", attack)
	if err := ctx.Err(); err != nil {
		return nil, aborted(err)
	}

	log.Info("Starting attack")
	res, err := fn(log)
	if err != nil {
		log.WithField("reason", ReasonOf(err)).WithError(err).Warn("attack failed")
		return nil, err
	}
	log.WithField("kind", res.Kind.String()).Info("✓ Attack succeeded")
	return res, nil
}

// attachPlaintext decrypts ct with the recovered key, if both are present.
func attachPlaintext(res *Result, ct *big.Int) error {
	if ct == nil || res.PrivateKey == nil {
		return nil
	}
	m, err := res.PrivateKey.Decrypt(ct)
	if err != nil {
		return err
	}
	res.Plaintext = m
	return nil
}

func validateCiphertext(key *PublicKey, ct *big.Int) error {
	if ct == nil {
		return nil
	}
	return requireResidue("c", ct, key.N)
}

// Factor splits n with the configured strategy.
func (c *Client) Factor(ctx context.Context, n *big.Int) (*FactorPair, error) {
	if err := requireComposite(n); err != nil {
		return nil, err
	}
	return c.strategy.Factor(ctx, n)
}

// SimpleFactorization factors the modulus and derives the private key.
//
// Args:
//   - ctx: Context for cancellation.
//   - key: The public key to break.
//   - ct: Optional ciphertext to decrypt with the recovered key (may be nil).
//
// Returns:
//   - Result with Kind KindPrivateExponent, error otherwise.
func (c *Client) SimpleFactorization(ctx context.Context, key *PublicKey, ct *big.Int) (*Result, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if err := validateCiphertext(key, ct); err != nil {
		return nil, err
	}
	return c.run(ctx, "simple_factorization", func(logrus.FieldLogger) (*Result, error) {
		res, err := factorAndRecover(ctx, "simple_factorization", c.strategy, key.N, key.E)
		if err != nil {
			return nil, err
		}
		return res, attachPlaintext(res, ct)
	})
}

// PollardRho factors the modulus with Pollard's Rho alone and derives the
// private key.
func (c *Client) PollardRho(ctx context.Context, key *PublicKey, ct *big.Int) (*Result, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if err := validateCiphertext(key, ct); err != nil {
		return nil, err
	}
	return c.run(ctx, "pollard_rho", func(log logrus.FieldLogger) (*Result, error) {
		res, err := factorAndRecover(ctx, "pollard_rho", rhoFromConfig(c.rhoConfig, log), key.N, key.E)
		if err != nil {
			return nil, err
		}
		return res, attachPlaintext(res, ct)
	})
}

// Wiener recovers a small private exponent, then optionally decrypts ct.
func (c *Client) Wiener(ctx context.Context, key *PublicKey, ct *big.Int) (*Result, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if err := validateCiphertext(key, ct); err != nil {
		return nil, err
	}
	return c.run(ctx, "wiener", func(log logrus.FieldLogger) (*Result, error) {
		res, err := Wiener(key.N, key.E)
		if err != nil {
			return nil, err
		}
		log.WithField("convergents", res.Iterations).Debug("private exponent found")
		return res, attachPlaintext(res, ct)
	})
}

// FranklinReiter recovers m1 from two ciphertexts of related messages,
// m2 = rel.A*m1 + rel.B (mod n).
func (c *Client) FranklinReiter(ctx context.Context, key *PublicKey, c1, c2 *big.Int, rel LinearRelation) (*Result, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return c.run(ctx, "franklin_reiter", func(log logrus.FieldLogger) (*Result, error) {
		return franklinReiter(ctx, key.N, key.E, c1, c2, rel, c.config, log)
	})
}

// CommonModulus recovers a message encrypted under two keys that share a
// modulus.
func (c *Client) CommonModulus(ctx context.Context, key1 *PublicKey, c1 *big.Int, key2 *PublicKey, c2 *big.Int) (*Result, error) {
	if err := key1.Validate(); err != nil {
		return nil, errors.WithMessage(err, "first key")
	}
	if err := key2.Validate(); err != nil {
		return nil, errors.WithMessage(err, "second key")
	}
	if key1.N.Cmp(key2.N) != 0 {
		return nil, invalidf("keys do not share a modulus")
	}
	return c.run(ctx, "common_modulus", func(logrus.FieldLogger) (*Result, error) {
		return CommonModulus(key1.N, key1.E, c1, key2.E, c2)
	})
}

// CommonPrimeFactor factors two moduli through their shared prime and
// recovers both private keys.
func (c *Client) CommonPrimeFactor(ctx context.Context, key1, key2 *PublicKey) (*CommonFactorResult, error) {
	if err := key1.Validate(); err != nil {
		return nil, errors.WithMessage(err, "first key")
	}
	if err := key2.Validate(); err != nil {
		return nil, errors.WithMessage(err, "second key")
	}
	if err := ctx.Err(); err != nil {
		return nil, aborted(err)
	}

	log := loggerOr(c.logger).WithField("attack", "common_prime_factor")
	log.Info("Starting attack")
	res, err := CommonPrimeFactorKeys(key1.N, key1.E, key2.N, key2.E)
	if err != nil {
		log.WithField("reason", ReasonOf(err)).WithError(err).Warn("attack failed")
		return nil, err
	}
	log.WithField("shared_bits", res.Shared.BitLen()).Info("✓ Attack succeeded")
	return res, nil
}

// HastadBroadcast recovers a message sent to e recipients with exponent e.
// Every key must carry the same exponent.
func (c *Client) HastadBroadcast(ctx context.Context, keys []*PublicKey, cts []*big.Int) (*Result, error) {
	if len(keys) == 0 {
		return nil, invalidf("no keys")
	}
	moduli := make([]*big.Int, len(keys))
	for i, k := range keys {
		if err := k.Validate(); err != nil {
			return nil, errors.WithMessagef(err, "key %d", i)
		}
		if k.E.Cmp(keys[0].E) != 0 {
			return nil, invalidf("key %d has exponent %s, want %s", i, k.E.String(), keys[0].E.String())
		}
		moduli[i] = k.N
	}
	return c.run(ctx, "hastad_broadcast", func(logrus.FieldLogger) (*Result, error) {
		return HastadBroadcast(keys[0].E, moduli, cts)
	})
}

// SmallExponentRoot recovers an unpadded message whose e-th power barely
// exceeds n.
func (c *Client) SmallExponentRoot(ctx context.Context, key *PublicKey, ct *big.Int) (*Result, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return c.run(ctx, "small_exponent_root", func(logrus.FieldLogger) (*Result, error) {
		return SmallExponentRoot(ctx, key.N, key.E, ct, c.config.BroadcastMaxK)
	})
}

// BatchGCD finds every key that shares a prime with another key.
func (c *Client) BatchGCD(ctx context.Context, keys []*PublicKey) ([]Collision, error) {
	moduli := make([]*big.Int, len(keys))
	for i, k := range keys {
		if err := k.Validate(); err != nil {
			return nil, errors.WithMessagef(err, "key %d", i)
		}
		moduli[i] = k.N
	}
	return BatchGCD(ctx, moduli, c.config.Workers, c.logger)
}
