// Package crypto is the narrow adapter between packnback and its primitive
// cryptography provider.
//
// This package implements:
//   - Curve25519 box keypairs and XSalsa20-Poly1305 authenticated sealing
//   - Ed25519 signing keypairs and attached signatures
//   - Random 24-byte nonces with little-endian increment
//   - Secure wiping of secret key material
//   - BLAKE3 public key fingerprints
//   - A passphrase-protected keystore (Argon2id + secretbox)
//
// Everything above this package handles keys as fixed-size byte arrays.
// Nothing outside this package imports the nacl packages directly.
package crypto

import (
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/sign"
)

const (
	// BoxPublicKeySize is the size of a Curve25519 public key.
	BoxPublicKeySize = 32
	// BoxSecretKeySize is the size of a Curve25519 secret key.
	BoxSecretKeySize = 32
	// BoxOverhead is the number of bytes a sealed box adds to its message.
	BoxOverhead = box.Overhead
	// NonceSize is the size of an XSalsa20 nonce.
	NonceSize = 24

	// SignPublicKeySize is the size of an Ed25519 public key.
	SignPublicKeySize = 32
	// SignSecretKeySize is the size of an Ed25519 secret key (seed + public key).
	SignSecretKeySize = 64
	// SignatureOverhead is the number of bytes a signature adds to its message.
	SignatureOverhead = sign.Overhead
)

// BoxPublicKey is a Curve25519 public key.
type BoxPublicKey [BoxPublicKeySize]byte

// BoxSecretKey is a Curve25519 secret key.
type BoxSecretKey [BoxSecretKeySize]byte

// SignPublicKey is an Ed25519 public key.
type SignPublicKey [SignPublicKeySize]byte

// SignSecretKey is an Ed25519 secret key.
type SignSecretKey [SignSecretKeySize]byte

// SharedKey is a precomputed box key for one (public, secret) pair.
type SharedKey [32]byte

// Wipe zeroes the secret key.
func (k *BoxSecretKey) Wipe() { Wipe(k[:]) }

// Wipe zeroes the secret key.
func (k *SignSecretKey) Wipe() { Wipe(k[:]) }

// Wipe zeroes the shared key.
func (k *SharedKey) Wipe() { Wipe(k[:]) }
