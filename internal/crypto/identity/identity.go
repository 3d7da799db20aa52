// Package identity stores key material on disk.
//
// A key file holds either a raw Key artifact or, when a passphrase is
// given, that artifact sealed in a JSON keystore envelope. Public key files
// hold a PublicKey artifact.
package identity

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/constxd/packnback/internal/asymcrypt"
	"github.com/constxd/packnback/internal/crypto"
	"github.com/constxd/packnback/internal/securefile"
)

const (
	KeyExt    = ".key"
	PublicExt = ".pub"
)

// ErrPassphraseRequired is returned when a sealed key file is loaded without a passphrase source.
var ErrPassphraseRequired = errors.New("key file is passphrase protected")

// PassphraseFunc supplies a passphrase on demand. The caller of LoadKey
// wipes the returned slice.
type PassphraseFunc func() ([]byte, error)

// DefaultPaths returns the key and public key paths for name in keysDir.
func DefaultPaths(keysDir, name string) (keyPath, pubPath string) {
	return filepath.Join(keysDir, name+KeyExt), filepath.Join(keysDir, name+PublicExt)
}

// SaveKey writes km to path with owner-only permissions. A non-empty
// passphrase seals the file with params. Existing files are only replaced
// when overwrite is set.
func SaveKey(path string, km *asymcrypt.KeyMaterial, passphrase []byte, params crypto.KeystoreParams, overwrite bool) error {
	var raw bytes.Buffer
	if err := km.Write(&raw); err != nil {
		return fmt.Errorf("failed to serialize key: %w", err)
	}
	defer crypto.Wipe(raw.Bytes())

	data := raw.Bytes()
	if len(passphrase) > 0 {
		entry, err := crypto.SealKeystore(raw.Bytes(), passphrase, params, nil)
		if err != nil {
			return err
		}
		if data, err = crypto.MarshalKeystore(entry); err != nil {
			return err
		}
	}

	return writeFile(path, data, 0o600, overwrite)
}

// SavePublicKey writes pub to path, world-readable.
func SavePublicKey(path string, pub asymcrypt.PublicKeyMaterial, overwrite bool) error {
	var buf bytes.Buffer
	if err := pub.Write(&buf); err != nil {
		return fmt.Errorf("failed to serialize public key: %w", err)
	}
	return writeFile(path, buf.Bytes(), 0o644, overwrite)
}

func writeFile(path string, data []byte, perm os.FileMode, overwrite bool) error {
	if err := securefile.MkdirAllOwnerOnly(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	write := securefile.WriteNew
	if overwrite {
		write = securefile.WriteFileAtomic
	}
	if err := write(path, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LoadKey reads a key file. passphrase is only called for sealed files.
// protected reports whether the file was sealed.
func LoadKey(path string, passphrase PassphraseFunc) (km *asymcrypt.KeyMaterial, protected bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	defer crypto.Wipe(data)

	if !crypto.IsKeystore(data) {
		km, err := asymcrypt.ReadKey(bytes.NewReader(data))
		if err != nil {
			return nil, false, fmt.Errorf("invalid key file %s: %w", path, err)
		}
		return km, false, nil
	}

	if passphrase == nil {
		return nil, true, ErrPassphraseRequired
	}
	entry, err := crypto.UnmarshalKeystore(data)
	if err != nil {
		return nil, true, err
	}
	pass, err := passphrase()
	if err != nil {
		return nil, true, fmt.Errorf("failed to read passphrase: %w", err)
	}
	defer crypto.Wipe(pass)

	secret, err := crypto.OpenKeystore(entry, pass)
	if err != nil {
		return nil, true, err
	}
	defer crypto.Wipe(secret)

	km, err = asymcrypt.ReadKey(bytes.NewReader(secret))
	if err != nil {
		return nil, true, fmt.Errorf("invalid key in %s: %w", path, err)
	}
	return km, true, nil
}

// LoadPublicKey reads a public key file. An unsealed key file is also
// accepted and reduced to its public half.
func LoadPublicKey(path string) (asymcrypt.PublicKeyMaterial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return asymcrypt.PublicKeyMaterial{}, err
	}

	pub, err := asymcrypt.ReadPublicKey(bytes.NewReader(data))
	if errors.Is(err, asymcrypt.ErrUnexpectedDataType) {
		defer crypto.Wipe(data)
		km, kerr := asymcrypt.ReadKey(bytes.NewReader(data))
		if kerr == nil {
			defer km.Wipe()
			return km.PublicKey(), nil
		}
	}
	if err != nil {
		return asymcrypt.PublicKeyMaterial{}, fmt.Errorf("invalid public key file %s: %w", path, err)
	}
	return pub, nil
}
