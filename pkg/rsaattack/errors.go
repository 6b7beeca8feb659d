package rsaattack

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors. Every failure returned by this package wraps exactly one of
// these, so callers can tell "the attack does not apply" from "the attack ran
// out of budget" with errors.Is or ReasonOf.
var (
	ErrInvalidInput             = errors.New("invalid input")
	ErrNotComposite             = errors.New("modulus is not composite")
	ErrFactorizationExhausted   = errors.New("factorization exhausted")
	ErrNoInverse                = errors.New("no modular inverse")
	ErrNoSmallExponent          = errors.New("no small private exponent")
	ErrNonInvertibleCoefficient = errors.New("non-invertible polynomial coefficient")
	ErrRelationInvalid          = errors.New("linear relation does not hold")
	ErrExponentsNotCoprime      = errors.New("public exponents are not coprime")
	ErrNoSharedFactor           = errors.New("moduli share no prime factor")
)

// Reason is a machine readable failure category.
type Reason string

const (
	ReasonNone                     Reason = ""
	ReasonInvalidInput             Reason = "InvalidInput"
	ReasonNotComposite             Reason = "NotComposite"
	ReasonFactorizationExhausted   Reason = "FactorizationExhausted"
	ReasonNoInverse                Reason = "NoInverse"
	ReasonNoSmallExponent          Reason = "NoSmallExponent"
	ReasonNonInvertibleCoefficient Reason = "NonInvertibleCoefficient"
	ReasonRelationInvalid          Reason = "RelationInvalid"
	ReasonExponentsNotCoprime      Reason = "ExponentsNotCoprime"
	ReasonNoSharedFactor           Reason = "NoSharedFactor"
	ReasonUnknown                  Reason = "Unknown"
)

var reasons = []struct {
	err    error
	reason Reason
}{
	{ErrInvalidInput, ReasonInvalidInput},
	{ErrNotComposite, ReasonNotComposite},
	{ErrFactorizationExhausted, ReasonFactorizationExhausted},
	{ErrNoInverse, ReasonNoInverse},
	{ErrNoSmallExponent, ReasonNoSmallExponent},
	{ErrNonInvertibleCoefficient, ReasonNonInvertibleCoefficient},
	{ErrRelationInvalid, ReasonRelationInvalid},
	{ErrExponentsNotCoprime, ReasonExponentsNotCoprime},
	{ErrNoSharedFactor, ReasonNoSharedFactor},
}

// ReasonOf maps an error returned by this package to its Reason.
// It returns ReasonNone for a nil error and ReasonUnknown for foreign errors.
func ReasonOf(err error) Reason {
	if err == nil {
		return ReasonNone
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return ReasonUnknown
}

// FactorLeakError is returned when an attack fails but, on the way, exposed a
// nontrivial factorization of the modulus.
type FactorLeakError struct {
	Reason  error       // One of the sentinel errors
	Factors *FactorPair // The leaked factorization
}

func (e *FactorLeakError) Error() string {
	return fmt.Sprintf("%v (modulus factored as %s)", e.Reason, e.Factors)
}

// Unwrap lets errors.Is see the sentinel.
func (e *FactorLeakError) Unwrap() error { return e.Reason }

// Cause lets errors.Cause see the sentinel.
func (e *FactorLeakError) Cause() error { return e.Reason }

// abortError reports a factorization stopped by its context.
// It matches both ErrFactorizationExhausted and the context error.
type abortError struct {
	ctxErr error
}

func (e *abortError) Error() string {
	return fmt.Sprintf("%v: %v", ErrFactorizationExhausted, e.ctxErr)
}

func (e *abortError) Is(target error) bool { return target == ErrFactorizationExhausted }

func (e *abortError) Unwrap() error { return e.ctxErr }

func aborted(err error) error {
	return &abortError{ctxErr: err}
}

func invalidf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}
