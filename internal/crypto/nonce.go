package crypto

import (
	"fmt"
	"io"
)

// Nonce is a 24-byte XSalsa20 nonce.
//
// A message starts from a random nonce and advances it by one for every
// record sealed under the same key pair, so no two records of a message
// share a (key, nonce) pair.
type Nonce [NonceSize]byte

// NewNonce returns a nonce filled entirely from the random source.
// A nil random source selects SystemRandom.
func NewNonce(random io.Reader) (Nonce, error) {
	var n Nonce
	if _, err := io.ReadFull(randOrSystem(random), n[:]); err != nil {
		return Nonce{}, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return n, nil
}

// Increment adds one to the nonce, treating it as a little-endian counter.
//
// The carry moves from byte 0 upward and stops at the first byte that did
// not wrap. An all-0xff nonce rolls over to all zeros; a message would need
// 2^192 records to get there.
func (n *Nonce) Increment() {
	for i := range n {
		n[i]++
		if n[i] != 0 {
			return
		}
	}
}
