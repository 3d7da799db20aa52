package crypto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keystoreVersion = 1
	keystoreKDF     = "argon2id"
	saltSize        = 32
	keystoreKeyLen  = 32
)

var (
	// ErrInvalidPassphrase is returned when the passphrase fails to open the keystore
	ErrInvalidPassphrase = errors.New("invalid passphrase or corrupted keystore")

	// ErrNotKeystore is returned when a file is not a keystore envelope
	ErrNotKeystore = errors.New("not a keystore file")
)

// KeystoreParams are the Argon2id cost parameters.
type KeystoreParams struct {
	Time      uint32 `yaml:"time"`       // Number of iterations
	MemoryKiB uint32 `yaml:"memory_kib"` // Memory in KiB
	Threads   uint8  `yaml:"threads"`    // Parallelism factor
}

// DefaultKeystoreParams returns the recommended Argon2id parameters for
// interactive use.
func DefaultKeystoreParams() KeystoreParams {
	return KeystoreParams{Time: 3, MemoryKiB: 64 * 1024, Threads: 4}
}

// KeystoreEntry is a secret sealed under a passphrase, as stored on disk.
type KeystoreEntry struct {
	Version       int    `json:"version"`        // Format version (currently 1)
	KDF           string `json:"kdf"`            // Key derivation function ("argon2id")
	Argon2Time    uint32 `json:"argon2_time"`    // Argon2 time parameter
	Argon2Memory  uint32 `json:"argon2_memory"`  // Argon2 memory in KiB
	Argon2Threads uint8  `json:"argon2_threads"` // Argon2 parallelism
	Salt          []byte `json:"salt"`           // Random salt for KDF
	Nonce         []byte `json:"nonce"`          // Random secretbox nonce
	Ciphertext    []byte `json:"ciphertext"`     // Sealed secret + Poly1305 tag
}

// SealKeystore seals secret under a key derived from passphrase.
func SealKeystore(secret, passphrase []byte, params KeystoreParams, random io.Reader) (*KeystoreEntry, error) {
	random = randOrSystem(random)

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(random, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce, err := NewNonce(random)
	if err != nil {
		return nil, err
	}

	key := deriveKeystoreKey(passphrase, salt, params)
	defer Wipe(key[:])

	return &KeystoreEntry{
		Version:       keystoreVersion,
		KDF:           keystoreKDF,
		Argon2Time:    params.Time,
		Argon2Memory:  params.MemoryKiB,
		Argon2Threads: params.Threads,
		Salt:          salt,
		Nonce:         nonce[:],
		Ciphertext:    secretbox.Seal(nil, secret, (*[NonceSize]byte)(&nonce), key),
	}, nil
}

// OpenKeystore recovers the secret sealed in entry.
// The caller owns the returned slice and should Wipe it when done.
func OpenKeystore(entry *KeystoreEntry, passphrase []byte) ([]byte, error) {
	if entry.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported keystore version: %d", entry.Version)
	}
	if entry.KDF != keystoreKDF {
		return nil, fmt.Errorf("unsupported KDF: %s", entry.KDF)
	}
	if len(entry.Nonce) != NonceSize {
		return nil, fmt.Errorf("keystore nonce must be %d bytes, got %d", NonceSize, len(entry.Nonce))
	}

	params := KeystoreParams{Time: entry.Argon2Time, MemoryKiB: entry.Argon2Memory, Threads: entry.Argon2Threads}
	key := deriveKeystoreKey(passphrase, entry.Salt, params)
	defer Wipe(key[:])

	var nonce [NonceSize]byte
	copy(nonce[:], entry.Nonce)
	secret, ok := secretbox.Open(nil, entry.Ciphertext, &nonce, key)
	if !ok {
		return nil, ErrInvalidPassphrase
	}
	return secret, nil
}

// MarshalKeystore encodes entry as indented JSON.
func MarshalKeystore(entry *KeystoreEntry) ([]byte, error) {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keystore entry: %w", err)
	}
	return data, nil
}

// UnmarshalKeystore decodes a keystore envelope. Data that is not a JSON
// object yields ErrNotKeystore.
func UnmarshalKeystore(data []byte) (*KeystoreEntry, error) {
	if !IsKeystore(data) {
		return nil, ErrNotKeystore
	}
	var entry KeystoreEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keystore entry: %w", err)
	}
	return &entry, nil
}

// IsKeystore reports whether data looks like a keystore envelope rather
// than a raw key artifact.
func IsKeystore(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func deriveKeystoreKey(passphrase, salt []byte, params KeystoreParams) *[keystoreKeyLen]byte {
	derived := argon2.IDKey(passphrase, salt, params.Time, params.MemoryKiB, params.Threads, keystoreKeyLen)
	key := new([keystoreKeyLen]byte)
	copy(key[:], derived)
	Wipe(derived)
	return key
}

// GetDefaultKeystorePath returns the default key directory.
// On Windows: %APPDATA%\packnback\keys
// On Unix: $XDG_DATA_HOME/packnback/keys or ~/.local/share/packnback/keys
func GetDefaultKeystorePath() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "packnback", "keys")
	}
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "packnback", "keys")
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", "packnback", "keys")
}
