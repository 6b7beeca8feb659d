package report

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/mahdiidarabi/rsa-attacks/pkg/rsaattack"
)

func attackAtDawn() *big.Int {
	return new(big.Int).SetBytes([]byte("attack at dawn"))
}

func sampleResult() *rsaattack.Result {
	key, err := rsaattack.RecoverPrivateKey(big.NewInt(61), big.NewInt(53), big.NewInt(17))
	if err != nil {
		panic(err)
	}
	return &rsaattack.Result{
		Attack:     "simple_factorization",
		Kind:       rsaattack.KindPrivateExponent,
		Value:      key.D,
		Factors:    &rsaattack.FactorPair{P: key.P, Q: key.Q},
		PrivateKey: key,
		Plaintext:  big.NewInt(65),
		Iterations: 3,
	}
}

func TestNewNumber(t *testing.T) {
	n := NewNumber(attackAtDawn())
	if n.Decimal != "1976620216402300889624482718775150" {
		t.Errorf("Decimal = %s", n.Decimal)
	}
	if n.Hex != "0x61747461636b206174206461776e" {
		t.Errorf("Hex = %s", n.Hex)
	}
	if n.Text != "attack at dawn" {
		t.Errorf("Text = %q", n.Text)
	}

	if got := NewNumber(big.NewInt(3233)).Text; got != "" {
		t.Errorf("binary value rendered as text: %q", got)
	}
	if got := NewNumber(big.NewInt(0)); got.Decimal != "0" || got.Hex != "0x0" || got.Text != "" {
		t.Errorf("zero = %+v", got)
	}
	if NewNumber(nil) != nil {
		t.Error("NewNumber(nil) should be nil")
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"text", "JSON", "cbor"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("ParseFormat accepted yaml")
	}
}

func TestWrite_Text(t *testing.T) {
	res := sampleResult()
	res.Plaintext = attackAtDawn()

	var buf bytes.Buffer
	if err := Write(&buf, FromResult(res), FormatText); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"[+] simple_factorization succeeded",
		"Recovered private_exponent: 413",
		"p: 53",
		"q: 61",
		`Plaintext (text): "attack at dawn"`,
		"Iterations: 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FromResult(sampleResult()), FormatJSON); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["attack"] != "simple_factorization" || decoded["kind"] != "private_exponent" {
		t.Errorf("decoded = %v", decoded)
	}
	key, ok := decoded["private_key"].(map[string]interface{})
	if !ok {
		t.Fatal("private_key missing")
	}
	if d := key["d"].(map[string]interface{}); d["decimal"] != "413" {
		t.Errorf("d = %v", d)
	}
	if _, ok := decoded["collisions"]; ok {
		t.Error("empty collisions should be omitted")
	}
}

func TestWrite_CBOR(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FromResult(sampleResult()), FormatCBOR); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	r, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if r.Attack != "simple_factorization" || r.PrivateKey == nil || r.PrivateKey.D.Decimal != "413" {
		t.Errorf("decoded report = %+v", r)
	}

	if _, err := Decode([]byte{0xff, 0x00}); err == nil {
		t.Error("Decode accepted garbage")
	}
}

func TestWrite_MultiPrimeKey(t *testing.T) {
	key, err := rsaattack.RecoverPrivateKey(big.NewInt(3), big.NewInt(35000105), big.NewInt(65537))
	if err != nil {
		t.Fatalf("RecoverPrivateKey failed: %v", err)
	}
	r := FromResult(&rsaattack.Result{
		Attack:     "simple_factorization",
		Kind:       rsaattack.KindPrivateExponent,
		Value:      key.D,
		Factors:    &rsaattack.FactorPair{P: key.P, Q: key.Q},
		PrivateKey: key,
	})
	if len(r.PrivateKey.Primes) != 4 {
		t.Fatalf("Primes = %+v, want 4 entries", r.PrivateKey.Primes)
	}

	var buf bytes.Buffer
	if err := Write(&buf, r, FormatText); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	for _, want := range []string{"prime 1: 3", "prime 4: 1000003", "d: 310085"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("text output missing %q:\n%s", want, buf.String())
		}
	}

	// Two-prime keys keep the p and q fields only.
	if got := FromResult(sampleResult()).PrivateKey.Primes; got != nil {
		t.Errorf("two-prime key reported primes %+v", got)
	}
}

func TestFromCommonFactor(t *testing.T) {
	res, err := rsaattack.CommonPrimeFactor(big.NewInt(61*53), big.NewInt(61*59))
	if err != nil {
		t.Fatalf("CommonPrimeFactor failed: %v", err)
	}

	r := FromCommonFactor(res)
	if r.Shared.Decimal != "61" || r.Factors == nil || r.Second == nil {
		t.Errorf("report = %+v", r)
	}
	if r.PrivateKey != nil || r.SecondKey != nil {
		t.Error("keys reported without exponents")
	}
}

func TestFromCollisions(t *testing.T) {
	cols := []rsaattack.Collision{
		{Index: 0, Modulus: big.NewInt(3233), Factors: &rsaattack.FactorPair{P: big.NewInt(53), Q: big.NewInt(61)}, Peers: []int{2}},
		{Index: 1, Modulus: big.NewInt(3599), Peers: []int{3}},
	}

	r := FromCollisions(cols)
	if len(r.Collisions) != 2 || r.Collisions[0].Duplicate || !r.Collisions[1].Duplicate {
		t.Fatalf("collisions = %+v", r.Collisions)
	}

	var buf bytes.Buffer
	if err := Write(&buf, r, FormatText); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "#0 shares a factor with [2]") || !strings.Contains(out, "#1 duplicated by [3]") {
		t.Errorf("text output:\n%s", out)
	}
}

func TestFromError(t *testing.T) {
	err := errors.Wrap(rsaattack.ErrNoSmallExponent, "wiener")
	r := FromError("wiener", err)
	if r.Reason != string(rsaattack.ReasonNoSmallExponent) {
		t.Errorf("Reason = %q", r.Reason)
	}

	var buf bytes.Buffer
	if err := Write(&buf, r, FormatText); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "[-] wiener failed") {
		t.Errorf("text output:\n%s", buf.String())
	}
}
