package rsaattack

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FranklinReiter recovers m1 from two ciphertexts under the same key whose
// plaintexts satisfy m2 = a*m1 + b (mod n), using the default AttackConfig.
func FranklinReiter(ctx context.Context, n, e, c1, c2, a, b *big.Int) (*Result, error) {
	return franklinReiter(ctx, n, e, c1, c2, LinearRelation{A: a, B: b}, DefaultAttackConfig(), nil)
}

// franklinReiter computes gcd(x^e - c1, (a*x + b)^e - c2) over Z_n. The
// common root is m1. If a leading coefficient turns out to be non-invertible
// the modulus is factored instead, and m1 is decrypted with the derived key.
func franklinReiter(ctx context.Context, n, e, c1, c2 *big.Int, rel LinearRelation, cfg AttackConfig, logger logrus.FieldLogger) (*Result, error) {
	if err := requireModulus("n", n); err != nil {
		return nil, err
	}
	if err := requirePositive("e", e); err != nil {
		return nil, err
	}
	if err := requireResidue("c1", c1, n); err != nil {
		return nil, err
	}
	if err := requireResidue("c2", c2, n); err != nil {
		return nil, err
	}
	if err := requireInteger("a", rel.A); err != nil {
		return nil, err
	}
	if err := requireInteger("b", rel.B); err != nil {
		return nil, err
	}
	if !e.IsInt64() || e.Int64() > cfg.MaxRelatedExponent {
		return nil, invalidf("e = %s is above the related-message limit %d", e.String(), cfg.MaxRelatedExponent)
	}

	log := loggerOr(logger).WithFields(logrus.Fields{"attack": "franklin_reiter", "e": e.Int64()})
	r := ring{n: n}
	a := new(big.Int).Mod(rel.A, n)
	b := new(big.Int).Mod(rel.B, n)
	exp := int(e.Int64())

	f1 := r.monomialMinus(exp, c1)
	f2 := r.linearPowMinus(a, b, exp, c2)

	g, steps, err := r.gcd(ctx, f1, f2)
	if err != nil {
		var lead *leadError
		if errors.As(err, &lead) {
			log.WithField("steps", steps).Info("non-invertible coefficient exposed a factor of n")
			return franklinReiterLeak(n, e, c1, c2, a, b, lead.Divisor, steps)
		}
		return nil, aborted(err)
	}

	if g.degree() != 1 {
		return nil, errors.Wrapf(ErrRelationInvalid, "common divisor has degree %d", g.degree())
	}

	// g = x + g0, so m1 = -g0
	m1 := new(big.Int).Neg(g[0])
	m1.Mod(m1, n)
	if !relationHolds(n, e, c1, c2, a, b, m1) {
		return nil, errors.Wrap(ErrRelationInvalid, "recovered root does not encrypt to both ciphertexts")
	}

	log.WithField("steps", steps).Debug("recovered related message")
	return &Result{
		Attack:     "franklin_reiter",
		Kind:       KindPlaintext,
		Value:      m1,
		Iterations: steps,
	}, nil
}

// franklinReiterLeak turns a factor found during the GCD into a plaintext.
func franklinReiterLeak(n, e, c1, c2, a, b, divisor *big.Int, steps int) (*Result, error) {
	pair := newFactorPair(divisor, new(big.Int).Quo(n, divisor))

	key, err := RecoverPrivateKey(pair.P, pair.Q, e)
	if err != nil {
		return nil, &FactorLeakError{Reason: ErrNonInvertibleCoefficient, Factors: pair}
	}
	m1, err := key.Decrypt(c1)
	if err != nil || !relationHolds(n, e, c1, c2, a, b, m1) {
		return nil, &FactorLeakError{Reason: ErrNonInvertibleCoefficient, Factors: pair}
	}

	return &Result{
		Attack:     "franklin_reiter",
		Kind:       KindPlaintext,
		Value:      m1,
		Factors:    pair,
		PrivateKey: key,
		Iterations: steps,
	}, nil
}

// relationHolds checks m1^e = c1 and (a*m1 + b)^e = c2 modulo n.
func relationHolds(n, e, c1, c2, a, b, m1 *big.Int) bool {
	if new(big.Int).Exp(m1, e, n).Cmp(c1) != 0 {
		return false
	}
	m2 := new(big.Int).Mul(a, m1)
	m2.Add(m2, b)
	m2.Mod(m2, n)
	return new(big.Int).Exp(m2, e, n).Cmp(c2) == 0
}
