// Package asymcrypt implements the packnback artifact formats: key bundles,
// public keys, chunked public-key ciphertext and signature envelopes.
//
// Every artifact starts with a 13-byte header:
//
//	magic "asymcrypt" (9 bytes) | version 2 (u16 BE) | type (u16 BE)
//
// A ciphertext body is the sender's ephemeral box public key, a random
// 24-byte nonce, then a sequence of fixed-size records. Each record seals
// a 2-byte big-endian length, up to ChunkSize bytes of plaintext and zero
// padding under the next nonce in sequence. The stream has no end marker:
// a ciphertext ends where its transport ends.
//
// Primitive operations are delegated to internal/crypto.
package asymcrypt
