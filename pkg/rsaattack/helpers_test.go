package rsaattack

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// loadVectors reads the named test vector group from testdata/vectors.json.
// Integers are stored as decimal strings.
func loadVectors(t *testing.T, name string, into interface{}) {
	t.Helper()

	data, err := os.ReadFile("testdata/vectors.json")
	if err != nil {
		t.Fatalf("Failed to read test vectors: %v", err)
	}

	var groups map[string]json.RawMessage
	if err := json.Unmarshal(data, &groups); err != nil {
		t.Fatalf("Failed to parse test vectors: %v", err)
	}
	raw, ok := groups[name]
	if !ok {
		t.Fatalf("No test vector group %q", name)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		t.Fatalf("Failed to parse test vector group %q: %v", name, err)
	}
}

// loadVector is loadVectors for groups of plain integers.
func loadVector(t *testing.T, name string) map[string]*big.Int {
	t.Helper()

	var fields map[string]string
	loadVectors(t, name, &fields)
	out := make(map[string]*big.Int, len(fields))
	for k, v := range fields {
		out[k] = mustInt(t, v)
	}
	return out
}

func mustInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("Bad integer in test vectors: %q", s)
	}
	return v
}

// samePair reports whether pair splits n as {a, b} in either order.
func samePair(pair *FactorPair, a, b *big.Int) bool {
	if pair == nil {
		return false
	}
	return (pair.P.Cmp(a) == 0 && pair.Q.Cmp(b) == 0) ||
		(pair.P.Cmp(b) == 0 && pair.Q.Cmp(a) == 0)
}

// quietLogger discards narration in tests.
func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// testContext bounds a test that factors.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)
	return ctx
}
