package asymcrypt

import (
	"errors"
	"fmt"
	"io"

	"github.com/constxd/packnback/internal/chunker"
)

// DecryptWithKeyring decrypts a Ciphertext artifact addressed to any key
// in ring and returns the key that opened it.
//
// The header carries no recipient identifier, so the first record is
// trial-opened under each key in order. If none authenticates the result
// is ErrDecryptKeyMismatch. A ciphertext with no records matches the first
// key. After the match, later record failures report
// ErrCorruptOrTamperedData as in Decrypt.
func DecryptWithKeyring(src io.Reader, dst io.Writer, ring []*KeyMaterial, opts ...Option) (matched *KeyMaterial, err error) {
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

	if len(ring) == 0 {
		return nil, fmt.Errorf("%w: keyring is empty", ErrDecryptKeyMismatch)
	}
	for i, key := range ring {
		if err := checkKey(key); err != nil {
			return nil, fmt.Errorf("keyring entry %d: %w", i, err)
		}
	}

	ephPub, nonce, err := readCiphertextPreamble(src)
	if err != nil {
		return nil, err
	}

	records, err := chunker.NewExactChunker(src, RecordSize)
	if err != nil {
		return nil, err
	}

	var probe *recordDecoder
	defer func() {
		if probe != nil {
			probe.wipe()
		}
	}()
	probe = newRecordDecoder(records, &ephPub, ring[0], nonce, o)
	first, err := probe.next()
	if err == io.EOF {
		d, probe = probe, nil
		return ring[0], nil
	}
	if err != nil {
		return nil, err
	}

	for i, key := range ring {
		if i > 0 {
			probe.shared.Wipe()
			probe = newRecordDecoder(records, &ephPub, key, nonce, o)
		}
		data, err := probe.open(first)
		if errors.Is(err, ErrCorruptOrTamperedData) {
			continue
		}
		d, probe = probe, nil
		if err != nil {
			return nil, err
		}
		if err := d.emit(dst, data); err != nil {
			return nil, err
		}
		return key, d.drain(dst)
	}

	return nil, ErrDecryptKeyMismatch
}
