package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/sign"
)

// SystemRandom returns the process-wide secure random source.
// It is safe for concurrent use.
func SystemRandom() io.Reader {
	return rand.Reader
}

func randOrSystem(r io.Reader) io.Reader {
	if r == nil {
		return rand.Reader
	}
	return r
}

// GenerateBoxKeyPair generates a new Curve25519 keypair for sealing.
// A nil random source selects SystemRandom.
//
// Returns:
//   - public and secret keys
//   - error if the random source fails
func GenerateBoxKeyPair(random io.Reader) (*BoxPublicKey, *BoxSecretKey, error) {
	pub, priv, err := box.GenerateKey(randOrSystem(random))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate box keypair: %w", err)
	}
	return (*BoxPublicKey)(pub), (*BoxSecretKey)(priv), nil
}

// GenerateSignKeyPair generates a new Ed25519 keypair for signing.
// A nil random source selects SystemRandom.
func GenerateSignKeyPair(random io.Reader) (*SignPublicKey, *SignSecretKey, error) {
	pub, priv, err := sign.GenerateKey(randOrSystem(random))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate signing keypair: %w", err)
	}
	return (*SignPublicKey)(pub), (*SignSecretKey)(priv), nil
}
