package rsaattack

import (
	"errors"
	"math/big"
	"testing"
)

func TestCommonModulus(t *testing.T) {
	v := loadVector(t, "common_modulus")

	res, err := CommonModulus(v["n"], v["e1"], v["c1"], v["e2"], v["c2"])
	if err != nil {
		t.Fatalf("CommonModulus failed: %v", err)
	}
	if res.Value.Cmp(v["m"]) != 0 {
		t.Errorf("m = %s, want %s", res.Value, v["m"])
	}

	// Argument order must not matter.
	res, err = CommonModulus(v["n"], v["e2"], v["c2"], v["e1"], v["c1"])
	if err != nil {
		t.Fatalf("CommonModulus (swapped) failed: %v", err)
	}
	if res.Value.Cmp(v["m"]) != 0 {
		t.Errorf("swapped: m = %s, want %s", res.Value, v["m"])
	}
}

func TestCommonModulus_NotCoprime(t *testing.T) {
	v := loadVector(t, "common_modulus")

	_, err := CommonModulus(v["n"], big.NewInt(6), v["c1"], big.NewInt(9), v["c2"])
	if !errors.Is(err, ErrExponentsNotCoprime) {
		t.Errorf("error = %v, want ErrExponentsNotCoprime", err)
	}
	if ReasonOf(err) != ReasonExponentsNotCoprime {
		t.Errorf("ReasonOf = %q", ReasonOf(err))
	}
}

func TestCommonModulus_CiphertextSharesFactor(t *testing.T) {
	v := loadVector(t, "common_modulus")
	c1 := new(big.Int).Set(v["p"])
	c2 := new(big.Int).Lsh(v["p"], 1)

	_, err := CommonModulus(v["n"], big.NewInt(3), c1, big.NewInt(5), c2)
	if !errors.Is(err, ErrNoInverse) {
		t.Fatalf("error = %v, want ErrNoInverse", err)
	}
	var leak *FactorLeakError
	if !errors.As(err, &leak) {
		t.Fatalf("error %T does not carry the factors", err)
	}
	if !samePair(leak.Factors, v["p"], v["q"]) {
		t.Errorf("leaked factors = %s", leak.Factors)
	}
}

func TestCommonModulus_ZeroCiphertext(t *testing.T) {
	v := loadVector(t, "common_modulus")

	res, err := CommonModulus(v["n"], big.NewInt(3), big.NewInt(0), big.NewInt(5), big.NewInt(0))
	if err != nil {
		t.Fatalf("CommonModulus failed: %v", err)
	}
	if res.Value.Sign() != 0 {
		t.Errorf("m = %s, want 0", res.Value)
	}
	if res.Kind != KindPlaintext {
		t.Errorf("Kind = %s, want %s", res.Kind, KindPlaintext)
	}

	// Both exponent orders put the negative Bezout coefficient on a zero
	// ciphertext at some point.
	res, err = CommonModulus(v["n"], v["e2"], big.NewInt(0), v["e1"], big.NewInt(0))
	if err != nil {
		t.Fatalf("CommonModulus (swapped) failed: %v", err)
	}
	if res.Value.Sign() != 0 {
		t.Errorf("swapped: m = %s, want 0", res.Value)
	}
}

func TestCommonModulus_Deterministic(t *testing.T) {
	v := loadVector(t, "common_modulus")

	first, err := CommonModulus(v["n"], v["e1"], v["c1"], v["e2"], v["c2"])
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := CommonModulus(v["n"], v["e1"], v["c1"], v["e2"], v["c2"])
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if first.Value.Cmp(second.Value) != 0 {
		t.Errorf("m changed between calls: %s != %s", first.Value, second.Value)
	}
}

func TestCommonModulus_InvalidInput(t *testing.T) {
	v := loadVector(t, "common_modulus")

	tests := []struct {
		name           string
		e1, c1, e2, c2 *big.Int
	}{
		{"c1_too_large", v["e1"], v["n"], v["e2"], v["c2"]},
		{"c2_negative", v["e1"], v["c1"], v["e2"], big.NewInt(-1)},
		{"e1_zero", big.NewInt(0), v["c1"], v["e2"], v["c2"]},
		{"c2_missing", v["e1"], v["c1"], v["e2"], nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CommonModulus(v["n"], tt.e1, tt.c1, tt.e2, tt.c2)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}
