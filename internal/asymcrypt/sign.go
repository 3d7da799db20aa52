package asymcrypt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/constxd/packnback/internal/crypto"
)

// Sign writes a Signature artifact over message: the signer's public
// signing key followed by the signed message (64-byte signature, then the
// message itself). A nil key fails with ErrInvalidData and writes nothing.
func Sign(w io.Writer, message []byte, key *KeyMaterial, opts ...Option) (err error) {
	o := newOptions(opts)
	op := o.begin("sign")
	defer func() { err = op.finish(err, 0, int64(len(message))) }()

	if err := checkKey(key); err != nil {
		return err
	}
	signed := crypto.Sign(nil, message, &key.SignSecret)

	if err := WriteHeader(w, TypeSignature); err != nil {
		return err
	}
	if err := writeField(w, key.SignPublic[:], "signer public key"); err != nil {
		return err
	}
	return writeField(w, signed, "signature")
}

// Verify checks a Signature artifact read from r against message and the
// expected signer, and returns the length of the signed content.
//
// An envelope naming a different signer fails with ErrSignatureKeyMismatch
// before any cryptographic check. A signature that does not validate, or
// that covers different content, fails with ErrSignatureFailed.
func Verify(message []byte, r io.Reader, signer PublicKeyMaterial, opts ...Option) (n int, err error) {
	o := newOptions(opts)
	op := o.begin("verify")
	defer func() { err = op.finish(err, 0, int64(n)) }()

	if err := ExpectHeader(r, TypeSignature); err != nil {
		return 0, err
	}

	var embedded crypto.SignPublicKey
	if err := readField(r, embedded[:], "signer public key"); err != nil {
		return 0, err
	}
	if embedded != signer.SignPublic {
		return 0, ErrSignatureKeyMismatch
	}

	// One byte past the expected length is enough to notice extra content.
	limit := int64(crypto.SignatureOverhead + len(message) + 1)
	body, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return 0, &IOError{Op: "read signature", Err: err}
	}
	if len(body) < crypto.SignatureOverhead {
		return 0, fmt.Errorf("%w: truncated signature: %w", ErrInvalidData, io.ErrUnexpectedEOF)
	}

	recovered, err := crypto.OpenSigned(nil, body, &embedded)
	if err != nil || !bytes.Equal(recovered, message) {
		o.metrics.RecordAuthFailure("signature")
		return 0, ErrSignatureFailed
	}
	return len(recovered), nil
}

// SignBytes returns the Signature artifact over message.
func SignBytes(message []byte, key *KeyMaterial, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(HeaderSize + crypto.SignPublicKeySize + crypto.SignatureOverhead + len(message))
	if err := Sign(&buf, message, key, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// VerifyBytes is Verify over an in-memory signature artifact.
func VerifyBytes(message, signature []byte, signer PublicKeyMaterial, opts ...Option) (int, error) {
	return Verify(message, bytes.NewReader(signature), signer, opts...)
}
