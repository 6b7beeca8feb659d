// Package keyload reads RSA public keys and attack parameters from the
// formats they are usually found in: PEM or DER encoded keys, X.509
// certificates, OpenSSH authorized_keys lines, JSON parameter files and CSV
// lists of moduli.
package keyload

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"

	"github.com/mahdiidarabi/rsa-attacks/pkg/rsaattack"
)

// ErrNotRSA is returned for well-formed keys of another algorithm.
var ErrNotRSA = errors.New("not an RSA key")

// ErrUnknownFormat is returned when no supported encoding matches the input.
var ErrUnknownFormat = errors.New("unrecognized key format")

// LoadPublicKey reads a public key from a file. See ParsePublicKey for the
// accepted formats.
func LoadPublicKey(path string) (*rsaattack.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read key file")
	}
	key, err := ParsePublicKey(data)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return key, nil
}

// ParsePublicKey extracts (n, e) from any of:
//   - an OpenSSH "ssh-rsa AAAA..." line
//   - a PEM block: PUBLIC KEY, RSA PUBLIC KEY, CERTIFICATE, RSA PRIVATE KEY or
//     PRIVATE KEY (only the public half is kept)
//   - raw DER in PKIX or PKCS#1 form
func ParsePublicKey(data []byte) (*rsaattack.PublicKey, error) {
	trimmed := bytes.TrimSpace(data)

	if bytes.HasPrefix(trimmed, []byte("ssh-")) {
		return parseAuthorizedKey(trimmed)
	}

	if block, _ := pem.Decode(trimmed); block != nil {
		return parsePEMBlock(block)
	}

	if pub, err := x509.ParsePKIXPublicKey(trimmed); err == nil {
		return fromCrypto(pub)
	}
	if pub, err := x509.ParsePKCS1PublicKey(trimmed); err == nil {
		return fromRSA(pub), nil
	}
	return nil, ErrUnknownFormat
}

func parsePEMBlock(block *pem.Block) (*rsaattack.PublicKey, error) {
	switch block.Type {
	case "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse PKIX public key")
		}
		return fromCrypto(pub)

	case "RSA PUBLIC KEY":
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse PKCS#1 public key")
		}
		return fromRSA(pub), nil

	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse certificate")
		}
		return fromCrypto(cert.PublicKey)

	case "RSA PRIVATE KEY":
		priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse PKCS#1 private key")
		}
		return fromRSA(&priv.PublicKey), nil

	case "PRIVATE KEY":
		priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse PKCS#8 private key")
		}
		rsaPriv, ok := priv.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.Wrapf(ErrNotRSA, "PKCS#8 key is %T", priv)
		}
		return fromRSA(&rsaPriv.PublicKey), nil

	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "PEM block %q", block.Type)
	}
}

func parseAuthorizedKey(line []byte) (*rsaattack.PublicKey, error) {
	pub, _, _, _, err := ssh.ParseAuthorizedKey(line)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse OpenSSH key")
	}
	if pub.Type() != ssh.KeyAlgoRSA {
		return nil, errors.Wrapf(ErrNotRSA, "OpenSSH key type %s", pub.Type())
	}
	cpk, ok := pub.(ssh.CryptoPublicKey)
	if !ok {
		return nil, errors.Wrap(ErrNotRSA, "OpenSSH key exposes no crypto key")
	}
	return fromCrypto(cpk.CryptoPublicKey())
}

func fromCrypto(pub interface{}) (*rsaattack.PublicKey, error) {
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.Wrapf(ErrNotRSA, "key is %T", pub)
	}
	return fromRSA(rsaPub), nil
}

func fromRSA(pub *rsa.PublicKey) *rsaattack.PublicKey {
	return rsaattack.NewPublicKey(pub.N, big.NewInt(int64(pub.E)))
}
