package asymcrypt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"pgregory.net/rapid"

	"github.com/constxd/packnback/internal/chunker"
	"github.com/constxd/packnback/internal/crypto"
)

func TestDecrypt_TamperedBody(t *testing.T) {
	recipient := Generate()
	defer recipient.Wipe()
	data := patterned(2*ChunkSize + 10)
	ct := encryptBytes(t, data, recipient.PublicKey())

	tests := []struct {
		name       string
		offset     int
		wantPrefix int
	}{
		{"ephemeral key", HeaderSize, 0},
		{"nonce", HeaderSize + 32, 0},
		{"first record tag", PreambleSize, 0},
		{"first record body", PreambleSize + 100, 0},
		{"second record", PreambleSize + RecordSize + 5, ChunkSize},
		{"last byte", len(ct) - 1, 2 * ChunkSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tampered := append([]byte(nil), ct...)
			tampered[tt.offset] ^= 0x01

			pt, err := decryptBytes(tampered, recipient)
			if !errors.Is(err, ErrCorruptOrTamperedData) {
				t.Fatalf("Decrypt() error = %v, want ErrCorruptOrTamperedData", err)
			}
			// Records before the damaged one were genuine and stay emitted.
			if !bytes.Equal(pt, data[:tt.wantPrefix]) {
				t.Errorf("Emitted %d bytes, want the first %d plaintext bytes", len(pt), tt.wantPrefix)
			}
		})
	}
}

func TestDecrypt_TamperedHeader(t *testing.T) {
	recipient := Generate()
	defer recipient.Wipe()
	ct := encryptBytes(t, []byte("hello"), recipient.PublicKey())

	tests := []struct {
		name   string
		offset int
		want   error
	}{
		{"magic", 0, ErrInvalidData},
		{"version", len(Magic) + 1, ErrUnsupportedVersion},
		{"type", HeaderSize - 1, ErrUnexpectedDataType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tampered := append([]byte(nil), ct...)
			tampered[tt.offset] ^= 0x01
			pt, err := decryptBytes(tampered, recipient)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decrypt() error = %v, want %v", err, tt.want)
			}
			if len(pt) != 0 {
				t.Errorf("Decrypt() emitted %d bytes from a bad header", len(pt))
			}
		})
	}
}

func TestDecrypt_TamperProperty(t *testing.T) {
	recipient := Generate()
	defer recipient.Wipe()

	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, ChunkSize+64).Draw(t, "data")
		var ct bytes.Buffer
		if err := Encrypt(bytes.NewReader(data), &ct, recipient.PublicKey()); err != nil {
			t.Fatalf("Encrypt() failed: %v", err)
		}
		raw := ct.Bytes()

		offset := rapid.IntRange(HeaderSize, len(raw)-1).Draw(t, "offset")
		maxBit := 7
		if offset == HeaderSize+crypto.BoxPublicKeySize-1 {
			// X25519 ignores the top bit of a public key.
			maxBit = 6
		}
		bit := rapid.IntRange(0, maxBit).Draw(t, "bit")
		raw[offset] ^= 1 << bit

		if _, err := decryptBytes(raw, recipient); !errors.Is(err, ErrCorruptOrTamperedData) {
			t.Fatalf("flip at %d bit %d: Decrypt() error = %v, want ErrCorruptOrTamperedData", offset, bit, err)
		}
	})
}

func TestDecrypt_Truncated(t *testing.T) {
	recipient := Generate()
	defer recipient.Wipe()
	data := patterned(2 * ChunkSize)
	ct := encryptBytes(t, data, recipient.PublicKey())

	t.Run("inside preamble", func(t *testing.T) {
		for _, n := range []int{HeaderSize + 10, PreambleSize - 1} {
			_, err := decryptBytes(ct[:n], recipient)
			if !errors.Is(err, ErrInvalidData) || !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Errorf("%d bytes: Decrypt() error = %v, want ErrInvalidData wrapping io.ErrUnexpectedEOF", n, err)
			}
		}
	})

	t.Run("inside record", func(t *testing.T) {
		pt, err := decryptBytes(ct[:PreambleSize+RecordSize+100], recipient)
		if !errors.Is(err, ErrInvalidData) || !errors.Is(err, chunker.ErrPartialChunk) {
			t.Errorf("Decrypt() error = %v, want ErrInvalidData for a partial record", err)
		}
		if !bytes.Equal(pt, data[:ChunkSize]) {
			t.Errorf("Emitted %d bytes, want the first record", len(pt))
		}
	})

	t.Run("at record boundary", func(t *testing.T) {
		// The format has no end marker, so dropping whole trailing records
		// is indistinguishable from a shorter message.
		pt, err := decryptBytes(ct[:PreambleSize+RecordSize], recipient)
		if err != nil {
			t.Fatalf("Decrypt() failed: %v", err)
		}
		if !bytes.Equal(pt, data[:ChunkSize]) {
			t.Error("Decrypt() did not return the first record")
		}
	})
}

func TestDecrypt_WrongKey(t *testing.T) {
	recipient := Generate()
	defer recipient.Wipe()
	other := Generate()
	defer other.Wipe()

	ct := encryptBytes(t, []byte("for recipient only"), recipient.PublicKey())
	pt, err := decryptBytes(ct, other)
	if !errors.Is(err, ErrCorruptOrTamperedData) {
		t.Errorf("Decrypt() error = %v, want ErrCorruptOrTamperedData", err)
	}
	if len(pt) != 0 {
		t.Errorf("Decrypt() emitted %d bytes under the wrong key", len(pt))
	}
}

func TestDecrypt_WrongArtifact(t *testing.T) {
	km := Generate()
	defer km.Wipe()
	var buf bytes.Buffer
	_ = km.PublicKey().Write(&buf)

	if _, err := decryptBytes(buf.Bytes(), km); !errors.Is(err, ErrUnexpectedDataType) {
		t.Errorf("Decrypt(public key) error = %v, want ErrUnexpectedDataType", err)
	}
}

func TestDecrypt_OversizedLengthField(t *testing.T) {
	recipient := Generate()
	defer recipient.Wipe()

	ephPub, ephSec, err := crypto.GenerateBoxKeyPair(nil)
	if err != nil {
		t.Fatalf("GenerateBoxKeyPair() failed: %v", err)
	}
	defer ephSec.Wipe()
	nonce, _ := crypto.NewNonce(nil)

	plain := make([]byte, recordPlaintextSize)
	binary.BigEndian.PutUint16(plain, ChunkSize+1)

	var ct bytes.Buffer
	_ = WriteHeader(&ct, TypeCiphertext)
	ct.Write(ephPub[:])
	ct.Write(nonce[:])
	ct.Write(crypto.Seal(nil, plain, &nonce, &recipient.BoxPublic, ephSec))

	if _, err := decryptBytes(ct.Bytes(), recipient); !errors.Is(err, ErrInvalidData) {
		t.Errorf("Decrypt() error = %v, want ErrInvalidData", err)
	}
}

func TestDecrypt_SinkFailure(t *testing.T) {
	recipient := Generate()
	defer recipient.Wipe()
	ct := encryptBytes(t, patterned(2*ChunkSize), recipient.PublicKey())

	err := Decrypt(bytes.NewReader(ct), &failingWriter{limit: ChunkSize}, recipient)
	if !errors.Is(err, ErrIO) || !errors.Is(err, errSinkClosed) {
		t.Errorf("Decrypt() error = %v, want ErrIO wrapping sink error", err)
	}
}

func TestDecrypt_SourceFailure(t *testing.T) {
	recipient := Generate()
	defer recipient.Wipe()
	ct := encryptBytes(t, patterned(ChunkSize), recipient.PublicKey())
	cause := errors.New("connection reset")

	src := io.MultiReader(bytes.NewReader(ct[:PreambleSize+10]), errReader{cause})
	err := Decrypt(src, io.Discard, recipient)
	if !errors.Is(err, ErrIO) || !errors.Is(err, cause) {
		t.Errorf("Decrypt() error = %v, want ErrIO wrapping cause", err)
	}
}

func TestNilKey(t *testing.T) {
	km := Generate()
	defer km.Wipe()
	ct := encryptBytes(t, []byte("addressed to km"), km.PublicKey())

	src := bytes.NewReader(ct)
	var out bytes.Buffer
	if err := Decrypt(src, &out, nil); !errors.Is(err, ErrInvalidData) {
		t.Errorf("Decrypt(nil key) error = %v, want ErrInvalidData", err)
	}
	if src.Len() != len(ct) || out.Len() != 0 {
		t.Error("Decrypt(nil key) touched its source or sink")
	}

	matched, err := DecryptWithKeyring(bytes.NewReader(ct), &out, []*KeyMaterial{km, nil})
	if !errors.Is(err, ErrInvalidData) || matched != nil {
		t.Errorf("DecryptWithKeyring(nil entry) = %v, %v, want ErrInvalidData", matched, err)
	}
	if out.Len() != 0 {
		t.Error("DecryptWithKeyring(nil entry) wrote plaintext")
	}

	if err := Sign(&out, []byte("msg"), nil); !errors.Is(err, ErrInvalidData) {
		t.Errorf("Sign(nil key) error = %v, want ErrInvalidData", err)
	}
	if out.Len() != 0 {
		t.Error("Sign(nil key) wrote output")
	}
}
