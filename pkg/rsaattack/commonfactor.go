package rsaattack

import (
	"context"
	"math/big"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CommonPrimeFactor factors two moduli that share exactly one prime.
//
// Returns:
//   - The shared prime and both factorizations
//   - ErrNoSharedFactor if gcd(n1, n2) is 1 or equal to one of the moduli
func CommonPrimeFactor(n1, n2 *big.Int) (*CommonFactorResult, error) {
	if err := requireModulus("n1", n1); err != nil {
		return nil, err
	}
	if err := requireModulus("n2", n2); err != nil {
		return nil, err
	}

	g := new(big.Int).GCD(nil, nil, n1, n2)
	if g.Cmp(bigOne) == 0 {
		return nil, errors.Wrap(ErrNoSharedFactor, "moduli are coprime")
	}
	if g.Cmp(n1) == 0 || g.Cmp(n2) == 0 {
		return nil, errors.Wrap(ErrNoSharedFactor, "one modulus divides the other")
	}

	return &CommonFactorResult{
		Shared: g,
		First:  newFactorPair(g, new(big.Int).Quo(n1, g)),
		Second: newFactorPair(g, new(big.Int).Quo(n2, g)),
	}, nil
}

// CommonPrimeFactorKeys is CommonPrimeFactor followed by key recovery for both
// moduli. A key recovery failure fails the whole call.
func CommonPrimeFactorKeys(n1, e1, n2, e2 *big.Int) (*CommonFactorResult, error) {
	res, err := CommonPrimeFactor(n1, n2)
	if err != nil {
		return nil, err
	}
	if err := requirePositive("e1", e1); err != nil {
		return nil, err
	}
	if err := requirePositive("e2", e2); err != nil {
		return nil, err
	}

	k1, err := RecoverPrivateKey(res.First.P, res.First.Q, e1)
	if err != nil {
		return nil, errors.WithMessage(err, "first key")
	}
	k2, err := RecoverPrivateKey(res.Second.P, res.Second.Q, e2)
	if err != nil {
		return nil, errors.WithMessage(err, "second key")
	}
	res.Keys = [2]*PrivateKey{k1, k2}
	return res, nil
}

type gcdHit struct {
	i, j int
	g    *big.Int
}

// BatchGCD takes the gcd of every pair of moduli on a worker pool and returns
// each modulus that shares a factor with another one, ordered by index.
// A modulus that appears twice is reported with nil Factors.
func BatchGCD(ctx context.Context, moduli []*big.Int, numWorkers int, logger logrus.FieldLogger) ([]Collision, error) {
	if len(moduli) < 2 {
		return nil, invalidf("batch gcd needs at least two moduli, got %d", len(moduli))
	}
	for i, n := range moduli {
		if err := requireModulus("moduli["+strconv.Itoa(i)+"]", n); err != nil {
			return nil, err
		}
	}
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	log := loggerOr(logger).WithFields(logrus.Fields{"attack": "batch_gcd", "moduli": len(moduli)})
	log.Info("Starting pairwise gcd")

	testedPairs := int64(0)
	workChan := make(chan int, numWorkers*4)
	var (
		mu   sync.Mutex
		hits []gcdHit
	)

	// Generate work: one row of the upper triangle per item
	go func() {
		defer close(workChan)
		for i := 0; i < len(moduli)-1; i++ {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := new(big.Int)
			for {
				select {
				case <-ctx.Done():
					return
				case i, ok := <-workChan:
					if !ok {
						return
					}
					for j := i + 1; j < len(moduli); j++ {
						g.GCD(nil, nil, moduli[i], moduli[j])
						if pairs := atomic.AddInt64(&testedPairs, 1); pairs%10000 == 0 {
							log.WithField("pairs", pairs).Debug("batch gcd progress")
						}
						if g.Cmp(bigOne) == 0 {
							continue
						}
						mu.Lock()
						hits = append(hits, gcdHit{i: i, j: j, g: new(big.Int).Set(g)})
						mu.Unlock()
					}
				}
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, aborted(err)
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].i != hits[b].i {
			return hits[a].i < hits[b].i
		}
		return hits[a].j < hits[b].j
	})

	byIndex := make(map[int]*Collision)
	record := func(idx, peer int, g *big.Int) {
		c, ok := byIndex[idx]
		if !ok {
			c = &Collision{Index: idx, Modulus: new(big.Int).Set(moduli[idx])}
			byIndex[idx] = c
		}
		c.Peers = append(c.Peers, peer)
		if c.Factors == nil && g.Cmp(moduli[idx]) < 0 {
			c.Factors = newFactorPair(g, new(big.Int).Quo(moduli[idx], g))
		}
	}
	for _, h := range hits {
		record(h.i, h.j, h.g)
		record(h.j, h.i, h.g)
	}

	out := make([]Collision, 0, len(byIndex))
	for _, c := range byIndex {
		sort.Ints(c.Peers)
		out = append(out, *c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Index < out[b].Index })

	log.WithFields(logrus.Fields{
		"pairs":       atomic.LoadInt64(&testedPairs),
		"compromised": len(out),
	}).Info("Pairwise gcd finished")
	return out, nil
}
