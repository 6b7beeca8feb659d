package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mahdiidarabi/rsa-attacks/internal/factordb"
	"github.com/mahdiidarabi/rsa-attacks/internal/keyload"
	"github.com/mahdiidarabi/rsa-attacks/internal/report"
	"github.com/mahdiidarabi/rsa-attacks/pkg/rsaattack"
)

var attacks = []string{
	"factor", "simple", "rho", "wiener", "franklin-reiter", "common-modulus",
	"common-factor", "hastad", "small-root", "batch-gcd",
}

// options holds the parsed command line.
type options struct {
	attack     string
	n, e, c    string
	n2, e2, c2 string
	a, b       string
	keyFile    string
	key2File   string
	paramsFile string
	moduliFile string
	timeout    time.Duration
	useFactDB  bool
	format     string
	workers    int
	maxK       int
	verbose    bool
	quiet      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.attack, "attack", "", "Attack to run: "+strings.Join(attacks, ", "))
	flag.StringVar(&opts.n, "n", "", "Modulus (decimal or 0x-prefixed hex)")
	flag.StringVar(&opts.e, "e", "", "Public exponent (default 65537)")
	flag.StringVar(&opts.c, "c", "", "Ciphertext (first ciphertext for franklin-reiter and common-modulus)")
	flag.StringVar(&opts.n2, "n2", "", "Second modulus (common-factor)")
	flag.StringVar(&opts.e2, "e2", "", "Second public exponent (common-modulus, common-factor)")
	flag.StringVar(&opts.c2, "c2", "", "Second ciphertext (franklin-reiter, common-modulus)")
	flag.StringVar(&opts.a, "a", "", "Linear relation coefficient a (m2 = a*m1 + b)")
	flag.StringVar(&opts.b, "b", "", "Linear relation offset b (m2 = a*m1 + b)")
	flag.StringVar(&opts.keyFile, "key", "", "Public key file (PEM, DER, certificate or OpenSSH)")
	flag.StringVar(&opts.key2File, "key2", "", "Second public key file")
	flag.StringVar(&opts.paramsFile, "params", "", "JSON file with named parameters (n, e, c, c2, a, b, moduli, ciphertexts, ...)")
	flag.StringVar(&opts.moduliFile, "moduli", "", "CSV file with n,e columns (hastad, batch-gcd)")
	flag.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Overall time limit")
	flag.BoolVar(&opts.useFactDB, "factordb", false, "Race factordb.com against the local factorization engine")
	flag.StringVar(&opts.format, "format", "text", "Output format (text, json or cbor)")
	flag.IntVar(&opts.workers, "workers", 0, "Number of parallel workers for batch-gcd (0 = auto-detect based on CPU cores)")
	flag.IntVar(&opts.maxK, "max-k", 0, "Largest k tried by small-root (0 = default)")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.BoolVar(&opts.quiet, "quiet", false, "Only log warnings and errors")
	flag.Parse()

	if opts.attack == "" {
		fmt.Fprintf(os.Stderr, "Error: --attack is required\n")
		flag.Usage()
		os.Exit(1)
	}

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	switch {
	case opts.verbose:
		logger.SetLevel(logrus.DebugLevel)
	case opts.quiet:
		logger.SetLevel(logrus.WarnLevel)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	rep, err := run(ctx, &opts, logger)
	if err != nil {
		rep = report.FromError(opts.attack, err)
	}
	if werr := report.Write(os.Stdout, rep, format); werr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", werr)
		os.Exit(1)
	}
	if err != nil {
		os.Exit(1)
	}
}

func newClient(opts *options, logger logrus.FieldLogger) *rsaattack.Client {
	cfg := rsaattack.DefaultAttackConfig()
	cfg.Workers = opts.workers
	if opts.maxK > 0 {
		cfg.BroadcastMaxK = opts.maxK
	}

	client := rsaattack.NewClient().WithLogger(logger).WithConfig(cfg)
	if opts.useFactDB {
		client = client.WithOracle(factordb.NewClient().WithLogger(logger))
	}
	return client
}

func run(ctx context.Context, opts *options, logger logrus.FieldLogger) (*report.Report, error) {
	in, err := newInputs(opts)
	if err != nil {
		return nil, err
	}
	client := newClient(opts, logger)

	switch opts.attack {
	case "factor":
		n, err := in.require("n", opts.n)
		if err != nil {
			return nil, err
		}
		pair, err := client.Factor(ctx, n)
		if err != nil {
			return nil, err
		}
		return report.FromFactors("factor", pair), nil

	case "simple", "rho", "wiener", "small-root":
		key, err := in.key(1)
		if err != nil {
			return nil, err
		}
		c, err := in.optional("c", opts.c)
		if err != nil {
			return nil, err
		}

		var res *rsaattack.Result
		switch opts.attack {
		case "simple":
			res, err = client.SimpleFactorization(ctx, key, c)
		case "rho":
			res, err = client.PollardRho(ctx, key, c)
		case "wiener":
			res, err = client.Wiener(ctx, key, c)
		default:
			if c == nil {
				return nil, errors.New("small-root needs a ciphertext (-c)")
			}
			res, err = client.SmallExponentRoot(ctx, key, c)
		}
		if err != nil {
			return nil, err
		}
		return report.FromResult(res), nil

	case "franklin-reiter":
		key, err := in.key(1)
		if err != nil {
			return nil, err
		}
		vals, err := in.ints(map[string]string{"c": opts.c, "c2": opts.c2, "a": opts.a, "b": opts.b})
		if err != nil {
			return nil, err
		}
		res, err := client.FranklinReiter(ctx, key, vals["c"], vals["c2"],
			rsaattack.LinearRelation{A: vals["a"], B: vals["b"]})
		if err != nil {
			return nil, err
		}
		return report.FromResult(res), nil

	case "common-modulus":
		key1, err := in.key(1)
		if err != nil {
			return nil, err
		}
		vals, err := in.ints(map[string]string{"c": opts.c, "c2": opts.c2, "e2": opts.e2})
		if err != nil {
			return nil, err
		}
		key2 := rsaattack.NewPublicKey(key1.N, vals["e2"])
		res, err := client.CommonModulus(ctx, key1, vals["c"], key2, vals["c2"])
		if err != nil {
			return nil, err
		}
		return report.FromResult(res), nil

	case "common-factor":
		key1, err := in.key(1)
		if err != nil {
			return nil, err
		}
		key2, err := in.key(2)
		if err != nil {
			return nil, err
		}
		res, err := client.CommonPrimeFactor(ctx, key1, key2)
		if err != nil {
			return nil, err
		}
		return report.FromCommonFactor(res), nil

	case "hastad":
		keys, err := in.keyList()
		if err != nil {
			return nil, err
		}
		cts := in.list("ciphertexts")
		if len(cts) == 0 {
			return nil, errors.New("hastad needs a ciphertexts list in the params file")
		}
		res, err := client.HastadBroadcast(ctx, keys, cts)
		if err != nil {
			return nil, err
		}
		return report.FromResult(res), nil

	case "batch-gcd":
		keys, err := in.keyList()
		if err != nil {
			return nil, err
		}
		cols, err := client.BatchGCD(ctx, keys)
		if err != nil {
			return nil, err
		}
		return report.FromCollisions(cols), nil

	default:
		return nil, errors.Errorf("unknown attack %q (want one of: %s)", opts.attack, strings.Join(attacks, ", "))
	}
}

// inputs resolves parameters from flags first, then from the params file.
type inputs struct {
	opts   *options
	params *keyload.Params
}

func newInputs(opts *options) (*inputs, error) {
	in := &inputs{opts: opts, params: &keyload.Params{}}
	if opts.paramsFile != "" {
		p, err := keyload.LoadParams(opts.paramsFile)
		if err != nil {
			return nil, errors.WithMessage(err, "params")
		}
		in.params = p
	}
	return in, nil
}

// optional returns the flag value, the params file value, or nil.
func (in *inputs) optional(name, flagVal string) (*big.Int, error) {
	if flagVal != "" {
		z, err := keyload.ParseBigInt(flagVal)
		if err != nil {
			return nil, errors.WithMessagef(err, "-%s", name)
		}
		return z, nil
	}
	return in.params.Int(name), nil
}

func (in *inputs) require(name, flagVal string) (*big.Int, error) {
	z, err := in.optional(name, flagVal)
	if err != nil {
		return nil, err
	}
	if z == nil {
		return nil, errors.Errorf("missing parameter %s", name)
	}
	return z, nil
}

func (in *inputs) ints(flags map[string]string) (map[string]*big.Int, error) {
	out := make(map[string]*big.Int, len(flags))
	for name, val := range flags {
		z, err := in.require(name, val)
		if err != nil {
			return nil, err
		}
		out[name] = z
	}
	return out, nil
}

func (in *inputs) list(name string) []*big.Int {
	return in.params.List(name)
}

// key builds the first or second public key from a key file or from n/e.
func (in *inputs) key(which int) (*rsaattack.PublicKey, error) {
	file, nFlag, eFlag, nName, eName := in.opts.keyFile, in.opts.n, in.opts.e, "n", "e"
	if which == 2 {
		file, nFlag, eFlag, nName, eName = in.opts.key2File, in.opts.n2, in.opts.e2, "n2", "e2"
	}
	if file != "" {
		return keyload.LoadPublicKey(file)
	}

	n, err := in.require(nName, nFlag)
	if err != nil {
		return nil, err
	}
	e, err := in.optional(eName, eFlag)
	if err != nil {
		return nil, err
	}
	if e == nil {
		e = big.NewInt(65537)
	}
	return rsaattack.NewPublicKey(n, e), nil
}

// keyList reads the moduli CSV, or the moduli list of the params file with
// the shared exponent e.
func (in *inputs) keyList() ([]*rsaattack.PublicKey, error) {
	if in.opts.moduliFile != "" {
		return keyload.LoadModuli(in.opts.moduliFile)
	}

	moduli := in.list("moduli")
	if len(moduli) == 0 {
		return nil, errors.New("need -moduli or a moduli list in the params file")
	}
	e, err := in.optional("e", in.opts.e)
	if err != nil {
		return nil, err
	}
	if e == nil {
		e = big.NewInt(65537)
	}
	keys := make([]*rsaattack.PublicKey, len(moduli))
	for i, n := range moduli {
		keys[i] = rsaattack.NewPublicKey(n, e)
	}
	return keys, nil
}
