package asymcrypt

import (
	"bytes"
	"errors"
	"testing"
)

var errSinkClosed = errors.New("sink closed")

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

// failingWriter accepts writes until limit bytes have been written.
type failingWriter struct {
	limit int
	n     int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.limit {
		return 0, errSinkClosed
	}
	w.n += len(p)
	return len(p), nil
}

func patterned(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*7 + i/251)
	}
	return data
}

func encryptBytes(t testing.TB, data []byte, to PublicKeyMaterial, opts ...Option) []byte {
	t.Helper()
	var ct bytes.Buffer
	if err := Encrypt(bytes.NewReader(data), &ct, to, opts...); err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}
	return ct.Bytes()
}

func decryptBytes(ct []byte, key *KeyMaterial, opts ...Option) ([]byte, error) {
	var pt bytes.Buffer
	err := Decrypt(bytes.NewReader(ct), &pt, key, opts...)
	return pt.Bytes(), err
}

func recordsFor(n int) int {
	return (n + ChunkSize - 1) / ChunkSize
}
