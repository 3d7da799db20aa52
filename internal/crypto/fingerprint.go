package crypto

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// fingerprintBytes is how much of the digest a fingerprint shows.
const fingerprintBytes = 16

// ComputeFingerprint computes a BLAKE3 fingerprint over a public key set.
// The keys are hashed in the order given.
func ComputeFingerprint(box *BoxPublicKey, sign *SignPublicKey) string {
	h := blake3.New()
	_, _ = h.Write(box[:])
	_, _ = h.Write(sign[:])
	sum := h.Sum(nil)
	return "BLAKE3:" + hex.EncodeToString(sum[:fingerprintBytes])
}
