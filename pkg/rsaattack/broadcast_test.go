package rsaattack

import (
	"context"
	"errors"
	"math/big"
	"testing"
)

type hastadVector struct {
	E           string   `json:"e"`
	Moduli      []string `json:"moduli"`
	Ciphertexts []string `json:"ciphertexts"`
	M           string   `json:"m"`
}

func loadHastad(t *testing.T) (e *big.Int, moduli, cts []*big.Int, m *big.Int) {
	t.Helper()
	var v hastadVector
	loadVectors(t, "hastad", &v)
	for i := range v.Moduli {
		moduli = append(moduli, mustInt(t, v.Moduli[i]))
		cts = append(cts, mustInt(t, v.Ciphertexts[i]))
	}
	return mustInt(t, v.E), moduli, cts, mustInt(t, v.M)
}

func TestHastadBroadcast(t *testing.T) {
	e, moduli, cts, m := loadHastad(t)

	res, err := HastadBroadcast(e, moduli, cts)
	if err != nil {
		t.Fatalf("HastadBroadcast failed: %v", err)
	}
	if res.Value.Cmp(m) != 0 {
		t.Errorf("m = %s, want %s", res.Value, m)
	}
}

func TestHastadBroadcast_MismatchedCiphertexts(t *testing.T) {
	e, moduli, cts, _ := loadHastad(t)
	cts[0], cts[1] = cts[1], cts[0]
	if cts[0].Cmp(moduli[0]) >= 0 || cts[1].Cmp(moduli[1]) >= 0 {
		t.Skip("swapped ciphertexts are out of range for their moduli")
	}

	_, err := HastadBroadcast(e, moduli, cts)
	if !errors.Is(err, ErrNoSmallExponent) {
		t.Errorf("error = %v, want ErrNoSmallExponent", err)
	}
}

func TestHastadBroadcast_RepeatedModulus(t *testing.T) {
	e, moduli, cts, _ := loadHastad(t)
	moduli[2] = moduli[0]
	cts[2] = cts[0]

	_, err := HastadBroadcast(e, moduli, cts)
	if !errors.Is(err, ErrNoInverse) {
		t.Errorf("error = %v, want ErrNoInverse", err)
	}
}

func TestHastadBroadcast_TooFewCiphertexts(t *testing.T) {
	e, moduli, cts, _ := loadHastad(t)

	_, err := HastadBroadcast(e, moduli[:2], cts[:2])
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestSmallExponentRoot(t *testing.T) {
	_, moduli, _, _ := loadHastad(t)
	n := moduli[0]
	e := big.NewInt(3)

	// m^3 < n: the ciphertext is the cube itself
	m := big.NewInt(1234567)
	c := new(big.Int).Exp(m, e, n)
	res, err := SmallExponentRoot(context.Background(), n, e, c, 1)
	if err != nil {
		t.Fatalf("SmallExponentRoot failed: %v", err)
	}
	if res.Value.Cmp(m) != 0 || res.Iterations != 1 {
		t.Errorf("got m = %s after %d tries, want %s after 1", res.Value, res.Iterations, m)
	}

	// m^3 just above n: one wrap
	m = new(big.Int).Add(nthRoot(n, 3), bigOne)
	c = new(big.Int).Exp(m, e, n)
	res, err = SmallExponentRoot(context.Background(), n, e, c, 10)
	if err != nil {
		t.Fatalf("SmallExponentRoot (wrapped) failed: %v", err)
	}
	if res.Value.Cmp(m) != 0 || res.Iterations != 2 {
		t.Errorf("got m = %s after %d tries, want %s after 2", res.Value, res.Iterations, m)
	}

	_, err = SmallExponentRoot(context.Background(), n, e, c, 1)
	if !errors.Is(err, ErrNoSmallExponent) {
		t.Errorf("error = %v, want ErrNoSmallExponent", err)
	}
}
