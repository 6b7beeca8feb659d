package rsaattack

import (
	"fmt"
	"math/big"
)

// PublicKey is an RSA public key (n, e).
// This is the core input type used throughout the package.
type PublicKey struct {
	N *big.Int // Modulus
	E *big.Int // Public exponent
}

// NewPublicKey copies n and e into a new PublicKey.
func NewPublicKey(n, e *big.Int) *PublicKey {
	return &PublicKey{N: new(big.Int).Set(n), E: new(big.Int).Set(e)}
}

// Params returns the (n, e) pair. The returned values are copies.
func (k *PublicKey) Params() (n, e *big.Int) {
	return new(big.Int).Set(k.N), new(big.Int).Set(k.E)
}

// FactorPair is a split of a modulus into two factors, P*Q = N.
// Factor pairs produced by this package are normalized so that P <= Q.
type FactorPair struct {
	P *big.Int
	Q *big.Int
}

func newFactorPair(p, q *big.Int) *FactorPair {
	if p.Cmp(q) > 0 {
		p, q = q, p
	}
	return &FactorPair{P: new(big.Int).Set(p), Q: new(big.Int).Set(q)}
}

// N returns P*Q.
func (f *FactorPair) N() *big.Int {
	return new(big.Int).Mul(f.P, f.Q)
}

func (f *FactorPair) String() string {
	return fmt.Sprintf("%s * %s", f.P.String(), f.Q.String())
}

// PrivateKey is a recovered RSA private key.
// D is the inverse of E modulo lcm(P-1, Q-1).
type PrivateKey struct {
	PublicKey
	D *big.Int // Private exponent
	P *big.Int // First factor (P <= Q)
	Q *big.Int // Second factor, composite when n has more than two primes
	// Primes lists every prime factor of N in ascending order, repeated
	// by multiplicity.
	Primes []*big.Int
}

// LinearRelation describes two related plaintexts: m2 = A*m1 + B (mod n).
type LinearRelation struct {
	A *big.Int // Linear coefficient
	B *big.Int // Offset
}

// ValueKind tags what Result.Value holds.
type ValueKind int

const (
	// KindPlaintext means Value is a recovered message.
	KindPlaintext ValueKind = iota
	// KindPrivateExponent means Value is a recovered private exponent d.
	KindPrivateExponent
	// KindFactor means Value is a recovered prime factor.
	KindFactor
)

func (k ValueKind) String() string {
	switch k {
	case KindPlaintext:
		return "plaintext"
	case KindPrivateExponent:
		return "private_exponent"
	case KindFactor:
		return "factor"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a successful attack.
// A failed attack returns a nil Result and a non-nil error instead.
type Result struct {
	Attack     string      // Name of the attack that produced the result
	Kind       ValueKind   // What Value is
	Value      *big.Int    // Recovered plaintext, exponent or factor
	Factors    *FactorPair // Factorization of n, when the attack found one
	PrivateKey *PrivateKey // Recovered key, when the attack derived one
	Plaintext  *big.Int    // Optional decryption of a supplied ciphertext
	Iterations int         // Work counter, attack specific
}

// CommonFactorResult holds the factorizations of two moduli sharing a prime.
type CommonFactorResult struct {
	Shared *big.Int       // The common prime
	First  *FactorPair    // Factorization of the first modulus
	Second *FactorPair    // Factorization of the second modulus
	Keys   [2]*PrivateKey // Filled in only when exponents were supplied
}

// Collision is one compromised modulus found by BatchGCD.
type Collision struct {
	Index   int         // Position of the modulus in the input
	Modulus *big.Int    // The compromised modulus
	Factors *FactorPair // nil when the modulus is duplicated in the input
	Peers   []int       // Indices of the moduli it shares a factor with
}
