package asymcrypt

import (
	"fmt"
	"io"

	"github.com/constxd/packnback/internal/crypto"
)

// KeyMaterial is a full identity: a box key pair for encryption and a
// signing key pair. It owns its secret halves; call Wipe when done.
type KeyMaterial struct {
	BoxPublic  crypto.BoxPublicKey
	BoxSecret  crypto.BoxSecretKey
	SignPublic crypto.SignPublicKey
	SignSecret crypto.SignSecretKey
}

// PublicKeyMaterial is the shareable half of a KeyMaterial.
type PublicKeyMaterial struct {
	BoxPublic  crypto.BoxPublicKey
	SignPublic crypto.SignPublicKey
}

// Generate returns fresh key material from the system random source.
// It panics if the system source fails, which leaves nothing safe to do.
func Generate() *KeyMaterial {
	km, err := GenerateFrom(nil)
	if err != nil {
		panic(fmt.Sprintf("asymcrypt: %v", err))
	}
	return km
}

// GenerateFrom returns fresh key material drawn from random.
// A nil random source selects the system source.
func GenerateFrom(random io.Reader) (*KeyMaterial, error) {
	boxPub, boxSec, err := crypto.GenerateBoxKeyPair(random)
	if err != nil {
		return nil, err
	}
	defer boxSec.Wipe()

	signPub, signSec, err := crypto.GenerateSignKeyPair(random)
	if err != nil {
		return nil, err
	}
	defer signSec.Wipe()

	return &KeyMaterial{
		BoxPublic:  *boxPub,
		BoxSecret:  *boxSec,
		SignPublic: *signPub,
		SignSecret: *signSec,
	}, nil
}

// PublicKey returns a copy of the public halves.
func (km *KeyMaterial) PublicKey() PublicKeyMaterial {
	return PublicKeyMaterial{BoxPublic: km.BoxPublic, SignPublic: km.SignPublic}
}

// Fingerprint is shorthand for km.PublicKey().Fingerprint().
func (km *KeyMaterial) Fingerprint() string {
	return km.PublicKey().Fingerprint()
}

// Wipe zeroes both secret keys. It is safe to call more than once.
func (km *KeyMaterial) Wipe() {
	if km == nil {
		return
	}
	km.BoxSecret.Wipe()
	km.SignSecret.Wipe()
}

// Write serializes km as a Key artifact.
func (km *KeyMaterial) Write(w io.Writer) error {
	if err := WriteHeader(w, TypeKey); err != nil {
		return err
	}
	if err := writeField(w, km.BoxPublic[:], "box public key"); err != nil {
		return err
	}
	if err := writeField(w, km.BoxSecret[:], "box secret key"); err != nil {
		return err
	}
	if err := writeField(w, km.SignPublic[:], "sign public key"); err != nil {
		return err
	}
	return writeField(w, km.SignSecret[:], "sign secret key")
}

// ReadKey parses a Key artifact.
func ReadKey(r io.Reader) (*KeyMaterial, error) {
	if err := ExpectHeader(r, TypeKey); err != nil {
		return nil, err
	}
	return readKeyBody(r)
}

func readKeyBody(r io.Reader) (*KeyMaterial, error) {
	km := new(KeyMaterial)
	fields := []struct {
		buf  []byte
		name string
	}{
		{km.BoxPublic[:], "box public key"},
		{km.BoxSecret[:], "box secret key"},
		{km.SignPublic[:], "sign public key"},
		{km.SignSecret[:], "sign secret key"},
	}
	for _, f := range fields {
		if err := readField(r, f.buf, f.name); err != nil {
			km.Wipe()
			return nil, err
		}
	}
	return km, nil
}

// Write serializes p as a PublicKey artifact.
func (p PublicKeyMaterial) Write(w io.Writer) error {
	if err := WriteHeader(w, TypePublicKey); err != nil {
		return err
	}
	if err := writeField(w, p.BoxPublic[:], "box public key"); err != nil {
		return err
	}
	return writeField(w, p.SignPublic[:], "sign public key")
}

// ReadPublicKey parses a PublicKey artifact.
func ReadPublicKey(r io.Reader) (PublicKeyMaterial, error) {
	if err := ExpectHeader(r, TypePublicKey); err != nil {
		return PublicKeyMaterial{}, err
	}
	return readPublicKeyBody(r)
}

func readPublicKeyBody(r io.Reader) (PublicKeyMaterial, error) {
	var p PublicKeyMaterial
	if err := readField(r, p.BoxPublic[:], "box public key"); err != nil {
		return PublicKeyMaterial{}, err
	}
	if err := readField(r, p.SignPublic[:], "sign public key"); err != nil {
		return PublicKeyMaterial{}, err
	}
	return p, nil
}

// Fingerprint identifies p by a BLAKE3 digest of both public keys.
func (p PublicKeyMaterial) Fingerprint() string {
	return crypto.ComputeFingerprint(&p.BoxPublic, &p.SignPublic)
}

// Equal reports whether p and other hold the same keys.
func (p PublicKeyMaterial) Equal(other PublicKeyMaterial) bool {
	return p == other
}
