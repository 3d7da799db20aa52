package asymcrypt

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"
)

func BenchmarkEncrypt(b *testing.B) {
	recipient := Generate()
	defer recipient.Wipe()
	buf := make([]byte, 4<<20)
	rand.Read(buf)
	b.SetBytes(int64(len(buf)))
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if err := Encrypt(bytes.NewReader(buf), io.Discard, recipient.PublicKey()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecrypt(b *testing.B) {
	recipient := Generate()
	defer recipient.Wipe()
	buf := make([]byte, 4<<20)
	rand.Read(buf)
	ct := encryptBytes(b, buf, recipient.PublicKey())
	b.SetBytes(int64(len(buf)))
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if err := Decrypt(bytes.NewReader(ct), io.Discard, recipient); err != nil {
			b.Fatal(err)
		}
	}
}
