package keyload

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"math/big"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/mahdiidarabi/rsa-attacks/pkg/rsaattack"
)

// Params holds the integers of a JSON parameter file, such as
//
//	{"n": "0xca1", "e": 17, "c": "2790", "moduli": ["3233", "3479"]}
//
// Integers may be JSON numbers, decimal strings or 0x-prefixed hex strings.
// Fields holding anything else (labels, comments) are ignored.
type Params struct {
	Values map[string]*big.Int
	Lists  map[string][]*big.Int
}

// Int returns the named integer, or nil.
func (p *Params) Int(name string) *big.Int {
	return p.Values[name]
}

// List returns the named list, or nil.
func (p *Params) List(name string) []*big.Int {
	return p.Lists[name]
}

// Require fails with the names of every missing integer.
func (p *Params) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if p.Values[name] == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("missing parameters: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Names returns the names of all integers, sorted.
func (p *Params) Names() []string {
	names := make([]string, 0, len(p.Values))
	for name := range p.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadParams reads a JSON parameter file.
func LoadParams(path string) (*Params, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read file")
	}
	defer file.Close()
	return ParseParams(file)
}

// ParseParams decodes a JSON parameter object.
func ParseParams(r io.Reader) (*Params, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber() // Preserve large numbers as json.Number instead of float64

	var raw map[string]interface{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse JSON")
	}

	p := &Params{
		Values: make(map[string]*big.Int),
		Lists:  make(map[string][]*big.Int),
	}
	for name, val := range raw {
		switch v := val.(type) {
		case []interface{}:
			list := make([]*big.Int, 0, len(v))
			for i, item := range v {
				z, err := ParseBigInt(item)
				if err != nil {
					return nil, errors.WithMessagef(err, "%s[%d]", name, i)
				}
				list = append(list, z)
			}
			p.Lists[name] = list
		case json.Number:
			z, err := ParseBigInt(v)
			if err != nil {
				return nil, errors.WithMessage(err, name)
			}
			p.Values[name] = z
		case string:
			// Non-numeric strings are labels
			if z, err := ParseBigInt(v); err == nil {
				p.Values[name] = z
			}
		}
	}
	return p, nil
}

// LoadModuli reads a CSV file with a header row and returns one public key
// per record. The modulus column is required; a missing or empty exponent
// column defaults to 65537.
func LoadModuli(path string) ([]*rsaattack.PublicKey, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer file.Close()
	return ParseModuli(file, "n", "e")
}

// ParseModuli is LoadModuli over a reader, with explicit column names.
func ParseModuli(r io.Reader, nCol, eCol string) ([]*rsaattack.PublicKey, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read header")
	}

	nIdx, eIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case nCol:
			nIdx = i
		case eCol:
			eIdx = i
		}
	}
	if nIdx == -1 {
		return nil, errors.Errorf("missing required column: %s", nCol)
	}

	defaultE := big.NewInt(65537)
	var keys []*rsaattack.PublicKey
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read record")
		}

		n, err := ParseBigInt(record[nIdx])
		if err != nil {
			return nil, errors.WithMessagef(err, "line %d: %s", line, nCol)
		}
		e := defaultE
		if eIdx >= 0 && eIdx < len(record) && strings.TrimSpace(record[eIdx]) != "" {
			if e, err = ParseBigInt(record[eIdx]); err != nil {
				return nil, errors.WithMessagef(err, "line %d: %s", line, eCol)
			}
		}
		keys = append(keys, rsaattack.NewPublicKey(n, e))
	}
	return keys, nil
}

// ParseBigInt parses a big integer from a JSON value or a string. Strings are
// decimal unless prefixed with 0x, and may carry a leading minus sign.
func ParseBigInt(val interface{}) (*big.Int, error) {
	switch v := val.(type) {
	case string:
		s := strings.TrimSpace(v)
		neg := strings.HasPrefix(s, "-")
		s = strings.TrimPrefix(s, "-")

		base := 10
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s, base = s[2:], 16
		}
		z, ok := new(big.Int).SetString(s, base)
		if !ok || s == "" {
			return nil, errors.Errorf("invalid number format: %q", v)
		}
		if neg {
			z.Neg(z)
		}
		return z, nil

	case json.Number:
		z, ok := new(big.Int).SetString(string(v), 10)
		if !ok {
			return nil, errors.Errorf("invalid number format: %s", v)
		}
		return z, nil

	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, errors.Errorf("not an integer: %v", v)
		}
		z, _ := new(big.Float).SetFloat64(v).Int(nil)
		return z, nil

	case int64:
		return big.NewInt(v), nil

	case int:
		return big.NewInt(int64(v)), nil

	default:
		return nil, errors.Errorf("unsupported type: %T", val)
	}
}
