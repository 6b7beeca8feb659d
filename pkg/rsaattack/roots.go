package rsaattack

import "math/big"

// A few useful big.Int constants. Never mutate them.
var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
	bigTwo  = big.NewInt(2)
	bigFour = big.NewInt(4)
)

// isqrtExact returns floor(sqrt(x)) and whether x is a perfect square.
// Negative x is never a square.
func isqrtExact(x *big.Int) (*big.Int, bool) {
	if x.Sign() < 0 {
		return nil, false
	}
	r := new(big.Int).Sqrt(x)
	sq := new(big.Int).Mul(r, r)
	return r, sq.Cmp(x) == 0
}

// ceilSqrt returns ceil(sqrt(x)) for x >= 0.
func ceilSqrt(x *big.Int) *big.Int {
	r, exact := isqrtExact(x)
	if !exact {
		r.Add(r, bigOne)
	}
	return r
}

// nthRoot returns floor(x^(1/k)) for x >= 0 and k >= 1, using integer Newton
// iteration started above the root.
func nthRoot(x *big.Int, k int) *big.Int {
	if x.Sign() == 0 || k == 1 {
		return new(big.Int).Set(x)
	}
	if x.Cmp(bigOne) == 0 {
		return big.NewInt(1)
	}

	kBig := big.NewInt(int64(k))
	kMinus1 := big.NewInt(int64(k - 1))

	// 2^ceil(bits/k) >= x^(1/k)
	g := new(big.Int).Lsh(bigOne, uint((x.BitLen()+k-1)/k))
	pow := new(big.Int)
	next := new(big.Int)
	for {
		// next = ((k-1)*g + x / g^(k-1)) / k
		pow.Exp(g, kMinus1, nil)
		next.Quo(x, pow)
		pow.Mul(kMinus1, g)
		next.Add(next, pow)
		next.Quo(next, kBig)
		if next.Cmp(g) >= 0 {
			return g
		}
		g.Set(next)
	}
}

// exactRoot returns the k-th root of x when x is a perfect k-th power.
func exactRoot(x *big.Int, k int) (*big.Int, bool) {
	if x.Sign() < 0 {
		return nil, false
	}
	r := nthRoot(x, k)
	check := new(big.Int).Exp(r, big.NewInt(int64(k)), nil)
	return r, check.Cmp(x) == 0
}

// lcm returns a*b/gcd(a, b) for positive a and b.
func lcm(a, b *big.Int) *big.Int {
	g := new(big.Int).GCD(nil, nil, a, b)
	l := new(big.Int).Quo(a, g)
	return l.Mul(l, b)
}

// absDiff returns |a - b|.
func absDiff(a, b *big.Int) *big.Int {
	d := new(big.Int).Sub(a, b)
	return d.Abs(d)
}

// smallPrimes returns every prime below limit (sieve of Eratosthenes).
func smallPrimes(limit int) []int64 {
	if limit < 3 {
		return nil
	}
	composite := make([]bool, limit)
	primes := make([]int64, 0, limit/8)
	for i := 2; i < limit; i++ {
		if composite[i] {
			continue
		}
		primes = append(primes, int64(i))
		for j := i * i; j < limit; j += i {
			composite[j] = true
		}
	}
	return primes
}
