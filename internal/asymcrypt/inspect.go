package asymcrypt

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/constxd/packnback/internal/chunker"
	"github.com/constxd/packnback/internal/crypto"
)

// Report describes an artifact without decrypting or verifying it.
type Report struct {
	Type    DataType `json:"-"`
	Kind    string   `json:"type"`
	Version uint16   `json:"version"`
	Size    int64    `json:"size"`

	// Key and PublicKey artifacts.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Signature artifacts.
	Signer       string `json:"signer,omitempty"`
	SignedLength int    `json:"signed_length,omitempty"`

	// Ciphertext artifacts. Truncated is set when the stream ends inside a
	// record; a missing trailing record cannot be detected.
	EphemeralKey      string            `json:"ephemeral_key,omitempty"`
	Records           int               `json:"records,omitempty"`
	MaxPlaintextBytes int64             `json:"max_plaintext_bytes,omitempty"`
	Truncated         bool              `json:"truncated,omitempty"`
	Manifest          *chunker.Manifest `json:"manifest,omitempty"`
}

// Inspect parses the artifact in r and summarizes it. Ciphertext records
// are hashed into a BLAKE3 Merkle root, so two copies of a ciphertext can
// be compared without any key. Memory use does not depend on the
// ciphertext length.
func Inspect(r io.Reader) (*Report, error) {
	return inspect(r, false)
}

// InspectWithRecords is Inspect with the per-record hashes kept in
// Report.Manifest.Chunks, one entry per record.
func InspectWithRecords(r io.Reader) (*Report, error) {
	return inspect(r, true)
}

func inspect(r io.Reader, records bool) (*Report, error) {
	cr := &countingReader{r: r}

	t, err := ReadHeader(cr)
	if err != nil {
		return nil, err
	}
	rep := &Report{Type: t, Kind: t.String(), Version: Version}

	switch t {
	case TypeKey:
		km, err := readKeyBody(cr)
		if err != nil {
			return nil, err
		}
		rep.Fingerprint = km.Fingerprint()
		km.Wipe()

	case TypePublicKey:
		pub, err := readPublicKeyBody(cr)
		if err != nil {
			return nil, err
		}
		rep.Fingerprint = pub.Fingerprint()

	case TypeSignature:
		var signer crypto.SignPublicKey
		if err := readField(cr, signer[:], "signer public key"); err != nil {
			return nil, err
		}
		n, err := io.Copy(io.Discard, cr)
		if err != nil {
			return nil, &IOError{Op: "read signature", Err: err}
		}
		if n < crypto.SignatureOverhead {
			return nil, fmt.Errorf("%w: truncated signature: %w", ErrInvalidData, io.ErrUnexpectedEOF)
		}
		rep.Signer = hex.EncodeToString(signer[:])
		rep.SignedLength = int(n) - crypto.SignatureOverhead

	case TypeCiphertext:
		var ephPub crypto.BoxPublicKey
		var nonce crypto.Nonce
		if err := readField(cr, ephPub[:], "ephemeral public key"); err != nil {
			return nil, err
		}
		if err := readField(cr, nonce[:], "nonce"); err != nil {
			return nil, err
		}
		m, err := chunker.ComputeManifest(cr, chunker.ChunkOptions{ChunkSize: RecordSize, OmitChunks: !records})
		if err != nil {
			return nil, &IOError{Op: "read records", Err: err}
		}
		rep.EphemeralKey = hex.EncodeToString(ephPub[:])
		rep.Truncated = !m.Complete()
		rep.Records = m.ChunkCount
		if rep.Truncated {
			rep.Records--
		}
		rep.MaxPlaintextBytes = int64(rep.Records) * ChunkSize
		rep.Manifest = m
	}

	rep.Size = cr.n
	return rep, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
