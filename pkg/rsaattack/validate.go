package rsaattack

import "math/big"

// requirePositive rejects nil, zero and negative integers.
func requirePositive(name string, v *big.Int) error {
	if v == nil {
		return invalidf("%s is missing", name)
	}
	if v.Sign() <= 0 {
		return invalidf("%s must be positive, got %s", name, v.String())
	}
	return nil
}

// requireModulus rejects moduli that cannot carry an RSA key at all.
func requireModulus(name string, n *big.Int) error {
	if err := requirePositive(name, n); err != nil {
		return err
	}
	if n.Cmp(bigOne) == 0 {
		return invalidf("%s must be greater than 1", name)
	}
	return nil
}

// requireResidue checks 0 <= c < n.
func requireResidue(name string, c, n *big.Int) error {
	if c == nil {
		return invalidf("%s is missing", name)
	}
	if c.Sign() < 0 || c.Cmp(n) >= 0 {
		return invalidf("%s must be in [0, n)", name)
	}
	return nil
}

// requireInteger only rejects missing values; negatives are allowed.
func requireInteger(name string, v *big.Int) error {
	if v == nil {
		return invalidf("%s is missing", name)
	}
	return nil
}

// Validate checks that the key is usable as attack input.
func (k *PublicKey) Validate() error {
	if k == nil {
		return invalidf("public key is missing")
	}
	if err := requireModulus("n", k.N); err != nil {
		return err
	}
	return requirePositive("e", k.E)
}
