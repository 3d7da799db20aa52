package crypto

import (
	"errors"

	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/sign"
)

var (
	// ErrAuthenticationFailed is returned when a sealed box fails to open.
	ErrAuthenticationFailed = errors.New("authentication failed: ciphertext has been tampered with")

	// ErrBadSignature is returned when a signed message fails to verify.
	ErrBadSignature = errors.New("signature verification failed")
)

// Seal encrypts and authenticates message for the peer and appends the
// result to out. The output is BoxOverhead bytes longer than message.
//
// Security Warning:
//   - NEVER reuse a nonce with the same key pair
func Seal(out, message []byte, nonce *Nonce, peer *BoxPublicKey, own *BoxSecretKey) []byte {
	return box.Seal(out, message, (*[NonceSize]byte)(nonce), (*[32]byte)(peer), (*[32]byte)(own))
}

// Open authenticates and decrypts a sealed box and appends the plaintext to
// out. Nothing is appended when authentication fails.
func Open(out, sealed []byte, nonce *Nonce, peer *BoxPublicKey, own *BoxSecretKey) ([]byte, error) {
	plain, ok := box.Open(out, sealed, (*[NonceSize]byte)(nonce), (*[32]byte)(peer), (*[32]byte)(own))
	if !ok {
		return out, ErrAuthenticationFailed
	}
	return plain, nil
}

// Precompute derives the shared key for a (peer, own) pair so a stream of
// records can be sealed without repeating the Curve25519 exchange.
// The caller must Wipe the returned key.
func Precompute(peer *BoxPublicKey, own *BoxSecretKey) *SharedKey {
	shared := new(SharedKey)
	box.Precompute((*[32]byte)(shared), (*[32]byte)(peer), (*[32]byte)(own))
	return shared
}

// SealShared is Seal using a precomputed shared key.
func SealShared(out, message []byte, nonce *Nonce, shared *SharedKey) []byte {
	return box.SealAfterPrecomputation(out, message, (*[NonceSize]byte)(nonce), (*[32]byte)(shared))
}

// OpenShared is Open using a precomputed shared key.
func OpenShared(out, sealed []byte, nonce *Nonce, shared *SharedKey) ([]byte, error) {
	plain, ok := box.OpenAfterPrecomputation(out, sealed, (*[NonceSize]byte)(nonce), (*[32]byte)(shared))
	if !ok {
		return out, ErrAuthenticationFailed
	}
	return plain, nil
}

// Sign appends the signed form of message (signature followed by message)
// to out. The output is SignatureOverhead bytes longer than message.
func Sign(out, message []byte, key *SignSecretKey) []byte {
	return sign.Sign(out, message, (*[SignSecretKeySize]byte)(key))
}

// OpenSigned verifies a signed message and appends the embedded message to
// out.
func OpenSigned(out, signed []byte, key *SignPublicKey) ([]byte, error) {
	msg, ok := sign.Open(out, signed, (*[SignPublicKeySize]byte)(key))
	if !ok {
		return out, ErrBadSignature
	}
	return msg, nil
}
