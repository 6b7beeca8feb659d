// Package rsaattack provides classic cryptanalytic attacks on textbook RSA:
// recovering plaintexts or private keys from public key material and
// ciphertexts when the key or its use is weak.
//
// Covered attacks:
//   - Simple factorization (trial division, Fermat, Pollard's Rho, Pollard p-1)
//   - Pollard's Rho on its own
//   - Wiener's small private exponent attack
//   - Franklin-Reiter related message attack
//   - Common modulus attack
//   - Common prime factor attack, and a pairwise gcd over many moduli
//   - Håstad's broadcast attack and small exponent root extraction
//
// Every attack returns either a *Result or an error wrapping one of the
// sentinel errors (ErrNoSmallExponent, ErrNoSharedFactor, ...). Use errors.Is
// or ReasonOf to tell them apart. An attack that fails after exposing the
// factorization of n returns a *FactorLeakError.
//
// # Quick Start
//
//	import "github.com/mahdiidarabi/rsa-attacks/pkg/rsaattack"
//
//	// Create a client with default settings
//	client := rsaattack.NewClient()
//
//	key := rsaattack.NewPublicKey(n, e)
//	result, err := client.Wiener(ctx, key, ciphertext)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("d = %s, m = %s\n", result.Value, result.Plaintext)
//
// # Customization
//
// Factorization is bounded. Widen or narrow the bounds with a FactorConfig:
//
//	cfg := rsaattack.DefaultFactorConfig()
//	cfg.FermatMaxIterations = 1 << 24
//	cfg.PollardP1Bound = 0 // disable p-1
//
//	client := rsaattack.NewClient().WithFactorConfig(cfg)
//
// Cancellation goes through the context. A factorization stopped by its
// context returns an error that matches both ErrFactorizationExhausted and
// the context error:
//
//	ctx, cancel := context.WithTimeout(ctx, time.Minute)
//	defer cancel()
//	_, err := client.SimpleFactorization(ctx, key, nil)
//	if errors.Is(err, context.DeadlineExceeded) { ... }
//
// # Custom Strategies
//
// Implement the FactorStrategy interface to plug in another factorization
// method:
//
//	type MyStrategy struct{}
//
//	func (s *MyStrategy) Factor(ctx context.Context, n *big.Int) (*rsaattack.FactorPair, error) {
//	    // Your custom factorization
//	}
//
//	func (s *MyStrategy) Name() string {
//	    return "MyCustomStrategy"
//	}
//
//	client := rsaattack.NewClient().WithStrategy(&MyStrategy{})
//
// A FactorOracle (for example a factor database client) can be raced against
// the default strategy with Client.WithOracle.
package rsaattack
