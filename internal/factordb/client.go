// Package factordb looks moduli up in the public factor database at
// factordb.com. Client implements rsaattack.FactorOracle, so it can be
// raced against the local factorization engine.
package factordb

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mahdiidarabi/rsa-attacks/internal/keyload"
	"github.com/mahdiidarabi/rsa-attacks/pkg/rsaattack"
)

// DefaultBaseURL is the public factordb endpoint.
const DefaultBaseURL = "http://factordb.com"

// Database status codes.
const (
	StatusFullyFactored     = "FF"
	StatusComposite         = "C"
	StatusCompositeFactored = "CF"
	StatusPrime             = "P"
	StatusProbablePrime     = "PRP"
	StatusUnknown           = "U"
)

// ErrNotFactored is returned when the database holds no complete
// factorization of the queried number.
var ErrNotFactored = errors.New("number not fully factored in factordb")

// Client queries factordb over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// NewClient creates a client for the public database.
func NewClient() *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     logrus.StandardLogger(),
	}
}

// WithBaseURL points the client at another server.
func (c *Client) WithBaseURL(base string) *Client {
	c.BaseURL = base
	return c
}

// WithLogger sets the logger.
func (c *Client) WithLogger(logger logrus.FieldLogger) *Client {
	c.Logger = logger
	return c
}

// Name implements rsaattack.FactorOracle.
func (c *Client) Name() string {
	return "factordb"
}

type response struct {
	Status  string          `json:"status"`
	Factors [][]interface{} `json:"factors"`
}

// Entry is one prime power of a database answer.
type Entry struct {
	Prime    *big.Int
	Exponent int
}

// Query returns the status and the factor list the database stores for n.
func (c *Client) Query(ctx context.Context, n *big.Int) (string, []Entry, error) {
	endpoint := c.BaseURL + "/api?query=" + url.QueryEscape(n.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to build request")
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", nil, errors.Wrap(err, "factordb request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, errors.Errorf("factordb returned %s", resp.Status)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var body response
	if err := decoder.Decode(&body); err != nil {
		return "", nil, errors.Wrap(err, "failed to decode factordb response")
	}

	entries := make([]Entry, 0, len(body.Factors))
	for i, f := range body.Factors {
		if len(f) != 2 {
			return "", nil, errors.Errorf("factor %d: malformed entry", i)
		}
		p, err := keyload.ParseBigInt(f[0])
		if err != nil {
			return "", nil, errors.WithMessagef(err, "factor %d", i)
		}
		k, err := keyload.ParseBigInt(f[1])
		if err != nil || !k.IsInt64() || k.Int64() < 1 {
			return "", nil, errors.Errorf("factor %d: bad exponent %v", i, f[1])
		}
		entries = append(entries, Entry{Prime: p, Exponent: int(k.Int64())})
	}
	return body.Status, entries, nil
}

// Lookup implements rsaattack.FactorOracle. It succeeds only for fully
// factored composites and splits off the smallest stored prime.
func (c *Client) Lookup(ctx context.Context, n *big.Int) (*rsaattack.FactorPair, error) {
	logger := c.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	status, entries, err := c.Query(ctx, n)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{"status": status, "factors": len(entries)}).Debug("factordb answer")

	if status != StatusFullyFactored || len(entries) == 0 {
		return nil, errors.Wrapf(ErrNotFactored, "status %s", status)
	}

	p := entries[0].Prime
	for _, e := range entries[1:] {
		if e.Prime.Cmp(p) < 0 {
			p = e.Prime
		}
	}
	if p.Cmp(big.NewInt(1)) <= 0 {
		return nil, errors.Wrapf(ErrNotFactored, "stored factor %s is trivial", p)
	}
	q, rem := new(big.Int).QuoRem(n, p, new(big.Int))
	if q.Cmp(big.NewInt(1)) <= 0 || rem.Sign() != 0 {
		return nil, errors.Wrapf(ErrNotFactored, "stored factors do not split %s", n)
	}
	return &rsaattack.FactorPair{P: p, Q: q}, nil
}
