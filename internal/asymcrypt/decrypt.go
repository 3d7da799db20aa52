package asymcrypt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/constxd/packnback/internal/chunker"
	"github.com/constxd/packnback/internal/crypto"
)

// Decrypt reads a Ciphertext artifact from src and writes the plaintext
// to dst. A nil key fails with ErrInvalidData before src is read.
//
// Records are authenticated one at a time. On ErrCorruptOrTamperedData the
// failing record contributes nothing, while plaintext from earlier records
// has already been written and is genuine. A ciphertext for a different
// key is indistinguishable from a damaged one here and reports
// ErrCorruptOrTamperedData; use DecryptWithKeyring to tell them apart.
func Decrypt(src io.Reader, dst io.Writer, key *KeyMaterial, opts ...Option) (err error) {
	o := newOptions(opts)
	op := o.begin("decrypt")
	var d *recordDecoder
	defer func() {
		if d != nil {
			d.wipe()
			err = op.finish(err, d.count, d.total)
			return
		}
		err = op.finish(err, 0, 0)
	}()

	if err := checkKey(key); err != nil {
		return err
	}

	ephPub, nonce, err := readCiphertextPreamble(src)
	if err != nil {
		return err
	}

	records, err := chunker.NewExactChunker(src, RecordSize)
	if err != nil {
		return err
	}
	d = newRecordDecoder(records, &ephPub, key, nonce, o)
	return d.drain(dst)
}

func readCiphertextPreamble(r io.Reader) (crypto.BoxPublicKey, crypto.Nonce, error) {
	var (
		ephPub crypto.BoxPublicKey
		nonce  crypto.Nonce
	)
	if err := ExpectHeader(r, TypeCiphertext); err != nil {
		return ephPub, nonce, err
	}
	if err := readField(r, ephPub[:], "ephemeral public key"); err != nil {
		return ephPub, nonce, err
	}
	if err := readField(r, nonce[:], "nonce"); err != nil {
		return ephPub, nonce, err
	}
	return ephPub, nonce, nil
}

// recordDecoder opens the record stream of one ciphertext under one key.
type recordDecoder struct {
	records *chunker.Chunker
	shared  *crypto.SharedKey
	nonce   crypto.Nonce
	plain   []byte
	o       options

	count int
	total int64
}

func newRecordDecoder(records *chunker.Chunker, ephPub *crypto.BoxPublicKey, key *KeyMaterial, nonce crypto.Nonce, o options) *recordDecoder {
	return &recordDecoder{
		records: records,
		shared:  crypto.Precompute(ephPub, &key.BoxSecret),
		nonce:   nonce,
		plain:   make([]byte, 0, recordPlaintextSize),
		o:       o,
	}
}

// next reads one raw record, or returns io.EOF at a clean record boundary.
func (d *recordDecoder) next() ([]byte, error) {
	rec, err := d.records.Next()
	switch {
	case err == nil:
		return rec, nil
	case err == io.EOF:
		return nil, io.EOF
	case errors.Is(err, chunker.ErrPartialChunk):
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	default:
		return nil, &IOError{Op: "read record", Err: err}
	}
}

// open authenticates rec under the current nonce and returns its payload.
// The nonce only advances on success.
func (d *recordDecoder) open(rec []byte) ([]byte, error) {
	plain, err := crypto.OpenShared(d.plain[:0], rec, &d.nonce, d.shared)
	if err != nil {
		return nil, fmt.Errorf("%w: record %d", ErrCorruptOrTamperedData, d.count)
	}
	d.plain = plain

	n := int(binary.BigEndian.Uint16(plain))
	if n > ChunkSize {
		return nil, fmt.Errorf("%w: record %d claims %d bytes", ErrInvalidData, d.count, n)
	}
	d.nonce.Increment()
	return plain[lengthSize : lengthSize+n], nil
}

func (d *recordDecoder) emit(dst io.Writer, data []byte) error {
	if err := writeField(dst, data, "plaintext"); err != nil {
		return err
	}
	d.o.logger.RecordProcessed("decrypt", d.count, len(data))
	d.o.metrics.RecordOpened(len(data))
	d.count++
	d.total += int64(len(data))
	return nil
}

func (d *recordDecoder) drain(dst io.Writer) error {
	for {
		rec, err := d.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		data, err := d.open(rec)
		if err != nil {
			if errors.Is(err, ErrCorruptOrTamperedData) {
				d.o.metrics.RecordAuthFailure("record")
			}
			return err
		}
		if err := d.emit(dst, data); err != nil {
			return err
		}
	}
}

func (d *recordDecoder) wipe() {
	d.shared.Wipe()
	crypto.Wipe(d.plain[:cap(d.plain)])
	d.records.Wipe()
}
