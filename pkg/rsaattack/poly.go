package rsaattack

import (
	"context"
	"math/big"
)

// poly is a polynomial over Z_n, coefficients from the constant term up.
// The zero polynomial is the empty slice.
type poly []*big.Int

func (p poly) degree() int {
	return len(p) - 1
}

func (p poly) lead() *big.Int {
	return p[len(p)-1]
}

func (p poly) trim() poly {
	for len(p) > 0 && p[len(p)-1].Sign() == 0 {
		p = p[:len(p)-1]
	}
	return p
}

func (p poly) clone() poly {
	out := make(poly, len(p))
	for i, c := range p {
		out[i] = new(big.Int).Set(c)
	}
	return out
}

// leadError reports a leading coefficient that shares the factor Divisor with n.
type leadError struct {
	Divisor *big.Int
}

func (e *leadError) Error() string {
	return "leading coefficient shares a factor with n"
}

// ring does polynomial arithmetic modulo n.
type ring struct {
	n *big.Int
}

// invert returns c^-1 mod n, or a leadError carrying gcd(c, n).
func (r ring) invert(c *big.Int) (*big.Int, error) {
	inv := new(big.Int).ModInverse(c, r.n)
	if inv == nil {
		return nil, &leadError{Divisor: new(big.Int).GCD(nil, nil, c, r.n)}
	}
	return inv, nil
}

// monomialMinus returns x^e - c.
func (r ring) monomialMinus(e int, c *big.Int) poly {
	p := make(poly, e+1)
	for i := range p {
		p[i] = new(big.Int)
	}
	p[0].Neg(c).Mod(p[0], r.n)
	p[e].SetInt64(1)
	return p.trim()
}

// linearPowMinus returns (a*x + b)^e - c, expanded with the binomial theorem.
func (r ring) linearPowMinus(a, b *big.Int, e int, c *big.Int) poly {
	p := make(poly, e+1)

	binom := big.NewInt(1)
	aPow := big.NewInt(1)
	bPows := make([]*big.Int, e+1)
	bPows[0] = big.NewInt(1)
	for i := 1; i <= e; i++ {
		bPows[i] = new(big.Int).Mul(bPows[i-1], b)
		bPows[i].Mod(bPows[i], r.n)
	}

	for k := 0; k <= e; k++ {
		// C(e, k) * a^k * b^(e-k)
		coef := new(big.Int).Mod(binom, r.n)
		coef.Mul(coef, aPow)
		coef.Mul(coef, bPows[e-k])
		p[k] = coef.Mod(coef, r.n)

		binom.Mul(binom, big.NewInt(int64(e-k)))
		binom.Quo(binom, big.NewInt(int64(k+1)))
		aPow.Mul(aPow, a)
		aPow.Mod(aPow, r.n)
	}

	p[0].Sub(p[0], c)
	p[0].Mod(p[0], r.n)
	return p.trim()
}

// rem returns a mod b. b must be nonzero.
func (r ring) rem(a, b poly) (poly, error) {
	inv, err := r.invert(b.lead())
	if err != nil {
		return nil, err
	}

	out := a.clone()
	coef := new(big.Int)
	tmp := new(big.Int)
	for out.degree() >= b.degree() {
		shift := out.degree() - b.degree()
		coef.Mul(out.lead(), inv)
		coef.Mod(coef, r.n)
		for i, bc := range b {
			tmp.Mul(coef, bc)
			out[i+shift].Sub(out[i+shift], tmp)
			out[i+shift].Mod(out[i+shift], r.n)
		}
		out = out.trim()
	}
	return out, nil
}

// monic scales p so that its leading coefficient is one.
func (r ring) monic(p poly) (poly, error) {
	inv, err := r.invert(p.lead())
	if err != nil {
		return nil, err
	}
	out := make(poly, len(p))
	for i, c := range p {
		out[i] = new(big.Int).Mul(c, inv)
		out[i].Mod(out[i], r.n)
	}
	return out, nil
}

// gcd runs the Euclidean algorithm and returns a monic result. The number of
// division steps is returned for reporting.
func (r ring) gcd(ctx context.Context, a, b poly) (poly, int, error) {
	steps := 0
	for len(b) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, steps, err
		}
		m, err := r.rem(a, b)
		if err != nil {
			return nil, steps, err
		}
		a, b = b, m
		steps++
	}
	if len(a) == 0 {
		return a, steps, nil
	}
	g, err := r.monic(a)
	return g, steps, err
}
