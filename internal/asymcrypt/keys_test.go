package asymcrypt

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/constxd/packnback/internal/crypto"
)

const keyArtifactSize = HeaderSize + crypto.BoxPublicKeySize + crypto.BoxSecretKeySize +
	crypto.SignPublicKeySize + crypto.SignSecretKeySize

func TestGenerate(t *testing.T) {
	a := Generate()
	b := Generate()
	defer a.Wipe()
	defer b.Wipe()

	if a.PublicKey().Equal(b.PublicKey()) {
		t.Error("Two generated identities share public keys")
	}
	if !bytes.Equal(a.SignSecret[32:], a.SignPublic[:]) {
		t.Error("Signing secret does not embed its public key")
	}
}

func TestGenerateFrom_InjectedSource(t *testing.T) {
	seed := bytes.Repeat([]byte{0x5a}, 64)
	a, err := GenerateFrom(bytes.NewReader(seed))
	if err != nil {
		t.Fatalf("GenerateFrom() failed: %v", err)
	}
	b, err := GenerateFrom(bytes.NewReader(seed))
	if err != nil {
		t.Fatalf("GenerateFrom() failed: %v", err)
	}
	if *a != *b {
		t.Error("Same random input produced different key material")
	}

	if _, err := GenerateFrom(failingReader{}); err == nil {
		t.Error("GenerateFrom() succeeded with a failing source")
	}
	if _, err := GenerateFrom(bytes.NewReader(seed[:40])); err == nil {
		t.Error("GenerateFrom() succeeded with a short source")
	}
}

func TestKeyRoundTrip(t *testing.T) {
	km := Generate()
	defer km.Wipe()

	var buf bytes.Buffer
	if err := km.Write(&buf); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if buf.Len() != keyArtifactSize {
		t.Errorf("Key artifact length = %d, want %d", buf.Len(), keyArtifactSize)
	}

	got, err := ReadKey(&buf)
	if err != nil {
		t.Fatalf("ReadKey() failed: %v", err)
	}
	defer got.Wipe()
	if *got != *km {
		t.Error("ReadKey() did not reconstruct identical key material")
	}
}

func TestPublicKeyRoundTrip(t *testing.T) {
	km := Generate()
	defer km.Wipe()
	pub := km.PublicKey()

	var buf bytes.Buffer
	if err := pub.Write(&buf); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if buf.Len() != HeaderSize+crypto.BoxPublicKeySize+crypto.SignPublicKeySize {
		t.Errorf("PublicKey artifact length = %d", buf.Len())
	}

	got, err := ReadPublicKey(&buf)
	if err != nil {
		t.Fatalf("ReadPublicKey() failed: %v", err)
	}
	if !got.Equal(pub) {
		t.Error("ReadPublicKey() did not reconstruct identical keys")
	}
	if got.Fingerprint() != km.Fingerprint() {
		t.Error("Fingerprint differs between key and public key")
	}
}

func TestReadKey_Truncated(t *testing.T) {
	km := Generate()
	defer km.Wipe()
	var buf bytes.Buffer
	_ = km.Write(&buf)
	raw := buf.Bytes()

	for _, n := range []int{0, 5, HeaderSize, HeaderSize + 1, HeaderSize + 40, keyArtifactSize - 1} {
		_, err := ReadKey(bytes.NewReader(raw[:n]))
		if !errors.Is(err, ErrInvalidData) {
			t.Errorf("ReadKey(%d bytes) error = %v, want ErrInvalidData", n, err)
		}
		if n > 0 && !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("ReadKey(%d bytes) error = %v, want io.ErrUnexpectedEOF in chain", n, err)
		}
	}
}

func TestReadKey_WrongType(t *testing.T) {
	km := Generate()
	defer km.Wipe()
	var buf bytes.Buffer
	_ = km.PublicKey().Write(&buf)

	if _, err := ReadKey(&buf); !errors.Is(err, ErrUnexpectedDataType) {
		t.Errorf("ReadKey(public key) error = %v, want ErrUnexpectedDataType", err)
	}

	buf.Reset()
	_ = km.Write(&buf)
	if _, err := ReadPublicKey(&buf); !errors.Is(err, ErrUnexpectedDataType) {
		t.Errorf("ReadPublicKey(key) error = %v, want ErrUnexpectedDataType", err)
	}
}

func TestKeyWrite_IOError(t *testing.T) {
	km := Generate()
	defer km.Wipe()

	for _, limit := range []int{0, HeaderSize, HeaderSize + 32, HeaderSize + 64, keyArtifactSize - 1} {
		err := km.Write(&failingWriter{limit: limit})
		if !errors.Is(err, ErrIO) || !errors.Is(err, errSinkClosed) {
			t.Errorf("Write(limit %d) error = %v, want ErrIO wrapping cause", limit, err)
		}
	}
	if err := km.PublicKey().Write(&failingWriter{limit: HeaderSize}); !errors.Is(err, ErrIO) {
		t.Errorf("PublicKey.Write() error = %v, want ErrIO", err)
	}
}

func TestKeyWipe(t *testing.T) {
	km := Generate()
	pub := km.PublicKey()

	km.Wipe()
	if km.BoxSecret != (crypto.BoxSecretKey{}) || km.SignSecret != (crypto.SignSecretKey{}) {
		t.Error("Wipe() left secret bytes")
	}
	if km.PublicKey() != pub {
		t.Error("Wipe() modified public keys")
	}

	km.Wipe()
	var nilKey *KeyMaterial
	nilKey.Wipe()
}
