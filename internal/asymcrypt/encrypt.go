package asymcrypt

import (
	"encoding/binary"
	"io"

	"github.com/constxd/packnback/internal/chunker"
	"github.com/constxd/packnback/internal/crypto"
)

const (
	// ChunkSize is the most plaintext a single record carries.
	ChunkSize = 16384

	lengthSize          = 2
	recordPlaintextSize = lengthSize + ChunkSize

	// RecordSize is the on-wire size of every ciphertext record.
	RecordSize = crypto.BoxOverhead + recordPlaintextSize

	// PreambleSize is the ciphertext header plus ephemeral key and nonce.
	PreambleSize = HeaderSize + crypto.BoxPublicKeySize + crypto.NonceSize
)

// Encrypt reads src to the end and writes a Ciphertext artifact for to
// into dst.
//
// A fresh ephemeral key pair and nonce are drawn before anything is
// written, so a randomness failure leaves dst untouched. Once records are
// streaming, a failed write aborts with an *IOError and dst holds a
// partial ciphertext.
func Encrypt(src io.Reader, dst io.Writer, to PublicKeyMaterial, opts ...Option) (err error) {
	o := newOptions(opts)
	op := o.begin("encrypt")
	var (
		records int
		total   int64
	)
	defer func() { err = op.finish(err, records, total) }()

	ephPub, ephSec, err := crypto.GenerateBoxKeyPair(o.random)
	if err != nil {
		return err
	}
	defer ephSec.Wipe()

	nonce, err := crypto.NewNonce(o.random)
	if err != nil {
		return err
	}

	shared := crypto.Precompute(&to.BoxPublic, ephSec)
	defer shared.Wipe()

	if err := WriteHeader(dst, TypeCiphertext); err != nil {
		return err
	}
	if err := writeField(dst, ephPub[:], "ephemeral public key"); err != nil {
		return err
	}
	if err := writeField(dst, nonce[:], "nonce"); err != nil {
		return err
	}

	chunks, err := chunker.NewChunker(src, ChunkSize)
	if err != nil {
		return err
	}
	defer chunks.Wipe()

	plain := make([]byte, recordPlaintextSize)
	defer crypto.Wipe(plain)
	sealed := make([]byte, 0, RecordSize)

	for {
		data, err := chunks.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &IOError{Op: "read plaintext", Err: err}
		}

		binary.BigEndian.PutUint16(plain, uint16(len(data)))
		n := copy(plain[lengthSize:], data)
		clear(plain[lengthSize+n:])

		sealed = crypto.SealShared(sealed[:0], plain, &nonce, shared)
		if err := writeField(dst, sealed, "record"); err != nil {
			return err
		}
		nonce.Increment()

		o.logger.RecordProcessed("encrypt", records, len(data))
		o.metrics.RecordSealed(len(data))
		records++
		total += int64(len(data))
	}
}
