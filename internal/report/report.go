// Package report renders attack results for people and for other programs.
//
// Every integer is shown three ways: decimal, hex and, when the big-endian
// bytes are printable, as text. Recovered plaintexts are usually short
// messages, and the text form makes them readable at a glance.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/mahdiidarabi/rsa-attacks/pkg/rsaattack"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatCBOR:
		return f, nil
	default:
		return "", errors.Errorf("unknown output format: %s", s)
	}
}

// Number is an integer in all of its renderings.
type Number struct {
	Decimal string `json:"decimal" cbor:"decimal"`
	Hex     string `json:"hex" cbor:"hex"`
	Text    string `json:"text,omitempty" cbor:"text,omitempty"`
}

// NewNumber renders z. A nil z yields nil.
func NewNumber(z *big.Int) *Number {
	if z == nil {
		return nil
	}
	n := &Number{Decimal: z.String(), Hex: "0x" + z.Text(16)}
	if z.Sign() > 0 {
		n.Text = printable(z.Bytes())
	}
	return n
}

// printable returns b as a string when it is valid UTF-8 made of printable
// characters, and "" otherwise.
func printable(b []byte) string {
	if len(b) == 0 || !utf8.Valid(b) {
		return ""
	}
	s := string(b)
	for _, r := range s {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return ""
		}
	}
	return s
}

// Key is a recovered private key.
type Key struct {
	N *Number `json:"n" cbor:"n"`
	E *Number `json:"e" cbor:"e"`
	D *Number `json:"d" cbor:"d"`
	P *Number `json:"p" cbor:"p"`
	Q *Number `json:"q" cbor:"q"`
	// Primes is set when n has more than two prime factors.
	Primes []*Number `json:"primes,omitempty" cbor:"primes,omitempty"`
}

// Factors is a split of a modulus.
type Factors struct {
	P *Number `json:"p" cbor:"p"`
	Q *Number `json:"q" cbor:"q"`
}

// Report is the serializable form of any attack outcome. Only the fields
// that apply to the outcome are set.
type Report struct {
	Attack     string      `json:"attack" cbor:"attack"`
	Kind       string      `json:"kind,omitempty" cbor:"kind,omitempty"`
	Value      *Number     `json:"value,omitempty" cbor:"value,omitempty"`
	Factors    *Factors    `json:"factors,omitempty" cbor:"factors,omitempty"`
	PrivateKey *Key        `json:"private_key,omitempty" cbor:"private_key,omitempty"`
	Plaintext  *Number     `json:"plaintext,omitempty" cbor:"plaintext,omitempty"`
	Iterations int         `json:"iterations,omitempty" cbor:"iterations,omitempty"`
	Shared     *Number     `json:"shared_prime,omitempty" cbor:"shared_prime,omitempty"`
	Second     *Factors    `json:"second_factors,omitempty" cbor:"second_factors,omitempty"`
	SecondKey  *Key        `json:"second_private_key,omitempty" cbor:"second_private_key,omitempty"`
	Collisions []Collision `json:"collisions,omitempty" cbor:"collisions,omitempty"`
	Error      string      `json:"error,omitempty" cbor:"error,omitempty"`
	Reason     string      `json:"reason,omitempty" cbor:"reason,omitempty"`
}

// Collision is one compromised modulus of a batch.
type Collision struct {
	Index     int      `json:"index" cbor:"index"`
	Modulus   *Number  `json:"modulus" cbor:"modulus"`
	Factors   *Factors `json:"factors,omitempty" cbor:"factors,omitempty"`
	Peers     []int    `json:"peers" cbor:"peers"`
	Duplicate bool     `json:"duplicate,omitempty" cbor:"duplicate,omitempty"`
}

func newFactors(f *rsaattack.FactorPair) *Factors {
	if f == nil {
		return nil
	}
	return &Factors{P: NewNumber(f.P), Q: NewNumber(f.Q)}
}

func newKey(k *rsaattack.PrivateKey) *Key {
	if k == nil {
		return nil
	}
	key := &Key{
		N: NewNumber(k.N),
		E: NewNumber(k.E),
		D: NewNumber(k.D),
		P: NewNumber(k.P),
		Q: NewNumber(k.Q),
	}
	if len(k.Primes) > 2 {
		for _, p := range k.Primes {
			key.Primes = append(key.Primes, NewNumber(p))
		}
	}
	return key
}

// FromResult converts a single-key attack result.
func FromResult(res *rsaattack.Result) *Report {
	return &Report{
		Attack:     res.Attack,
		Kind:       res.Kind.String(),
		Value:      NewNumber(res.Value),
		Factors:    newFactors(res.Factors),
		PrivateKey: newKey(res.PrivateKey),
		Plaintext:  NewNumber(res.Plaintext),
		Iterations: res.Iterations,
	}
}

// FromCommonFactor converts a common prime factor result.
func FromCommonFactor(res *rsaattack.CommonFactorResult) *Report {
	return &Report{
		Attack:     "common_prime_factor",
		Kind:       rsaattack.KindFactor.String(),
		Value:      NewNumber(res.Shared),
		Shared:     NewNumber(res.Shared),
		Factors:    newFactors(res.First),
		Second:     newFactors(res.Second),
		PrivateKey: newKey(res.Keys[0]),
		SecondKey:  newKey(res.Keys[1]),
	}
}

// FromCollisions converts a batch GCD result.
func FromCollisions(cols []rsaattack.Collision) *Report {
	r := &Report{Attack: "batch_gcd", Collisions: make([]Collision, 0, len(cols))}
	for _, c := range cols {
		r.Collisions = append(r.Collisions, Collision{
			Index:     c.Index,
			Modulus:   NewNumber(c.Modulus),
			Factors:   newFactors(c.Factors),
			Peers:     c.Peers,
			Duplicate: c.Factors == nil,
		})
	}
	return r
}

// FromFactors converts a bare factorization.
func FromFactors(attack string, f *rsaattack.FactorPair) *Report {
	return &Report{Attack: attack, Kind: rsaattack.KindFactor.String(), Value: NewNumber(f.P), Factors: newFactors(f)}
}

// FromError records a failed attack.
func FromError(attack string, err error) *Report {
	return &Report{Attack: attack, Error: err.Error(), Reason: string(rsaattack.ReasonOf(err))}
}

// Write encodes r to w in the given format.
func Write(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(r), "failed to encode JSON")
	case FormatCBOR:
		data, err := cbor.Marshal(r)
		if err != nil {
			return errors.Wrap(err, "failed to encode CBOR")
		}
		_, err = w.Write(data)
		return errors.Wrap(err, "failed to write report")
	case FormatText, "":
		return writeText(w, r)
	default:
		return errors.Errorf("unknown output format: %s", format)
	}
}

// Decode reads back a CBOR report.
func Decode(data []byte) (*Report, error) {
	var r Report
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, "failed to decode CBOR report")
	}
	return &r, nil
}

func writeText(w io.Writer, r *Report) error {
	var b strings.Builder

	if r.Error != "" {
		fmt.Fprintf(&b, "[-] %s failed: %s\n", r.Attack, r.Error)
		if r.Reason != "" {
			fmt.Fprintf(&b, "    Reason: %s\n", r.Reason)
		}
		_, err := io.WriteString(w, b.String())
		return errors.Wrap(err, "failed to write report")
	}

	fmt.Fprintf(&b, "[+] %s succeeded\n", r.Attack)
	if r.Value != nil {
		writeNumber(&b, "Recovered "+r.Kind, r.Value)
	}
	if r.Factors != nil {
		writeNumber(&b, "p", r.Factors.P)
		writeNumber(&b, "q", r.Factors.Q)
	}
	if r.PrivateKey != nil {
		for i, p := range r.PrivateKey.Primes {
			writeNumber(&b, fmt.Sprintf("prime %d", i+1), p)
		}
		writeNumber(&b, "d", r.PrivateKey.D)
	}
	if r.Second != nil {
		writeNumber(&b, "Second p", r.Second.P)
		writeNumber(&b, "Second q", r.Second.Q)
	}
	if r.SecondKey != nil {
		writeNumber(&b, "Second d", r.SecondKey.D)
	}
	if r.Plaintext != nil {
		writeNumber(&b, "Plaintext", r.Plaintext)
	}
	if r.Iterations > 0 {
		fmt.Fprintf(&b, "    Iterations: %d\n", r.Iterations)
	}

	if r.Collisions != nil {
		fmt.Fprintf(&b, "    Compromised moduli: %d\n", len(r.Collisions))
		for _, c := range r.Collisions {
			if c.Duplicate {
				fmt.Fprintf(&b, "    #%d duplicated by %v\n", c.Index, c.Peers)
				continue
			}
			fmt.Fprintf(&b, "    #%d shares a factor with %v\n", c.Index, c.Peers)
			writeNumber(&b, "  p", c.Factors.P)
			writeNumber(&b, "  q", c.Factors.Q)
		}
	}

	_, err := io.WriteString(w, b.String())
	return errors.Wrap(err, "failed to write report")
}

func writeNumber(b *strings.Builder, label string, n *Number) {
	if n == nil {
		return
	}
	fmt.Fprintf(b, "    %s: %s\n", label, n.Decimal)
	fmt.Fprintf(b, "    %s (hex): %s\n", label, n.Hex)
	if n.Text != "" {
		fmt.Fprintf(b, "    %s (text): %q\n", label, n.Text)
	}
}
