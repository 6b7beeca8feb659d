package rsaattack

import (
	"math/big"
	"testing"
)

func TestPublicKey_Params(t *testing.T) {
	key := NewPublicKey(big.NewInt(3233), big.NewInt(17))

	n, e := key.Params()
	if n.Int64() != 3233 || e.Int64() != 17 {
		t.Fatalf("Params = (%s, %s)", n, e)
	}

	n.SetInt64(1)
	if key.N.Int64() != 3233 {
		t.Error("Params returned an alias of N")
	}
}

func TestFactorPair_Normalized(t *testing.T) {
	pair := newFactorPair(big.NewInt(61), big.NewInt(53))
	if pair.P.Int64() != 53 || pair.Q.Int64() != 61 {
		t.Errorf("pair = %s, want 53 * 61", pair)
	}
	if pair.N().Int64() != 3233 {
		t.Errorf("N = %s", pair.N())
	}
	if pair.String() != "53 * 61" {
		t.Errorf("String = %q", pair.String())
	}
}

func TestValueKind_String(t *testing.T) {
	tests := map[ValueKind]string{
		KindPlaintext:       "plaintext",
		KindPrivateExponent: "private_exponent",
		KindFactor:          "factor",
		ValueKind(42):       "unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}
