package asymcrypt

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	for _, dt := range []DataType{TypeKey, TypePublicKey, TypeSignature, TypeCiphertext} {
		t.Run(dt.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteHeader(&buf, dt); err != nil {
				t.Fatalf("WriteHeader() failed: %v", err)
			}
			if buf.Len() != HeaderSize {
				t.Fatalf("Header length = %d, want %d", buf.Len(), HeaderSize)
			}
			got, err := ReadHeader(&buf)
			if err != nil {
				t.Fatalf("ReadHeader() failed: %v", err)
			}
			if got != dt {
				t.Errorf("ReadHeader() = %s, want %s", got, dt)
			}
		})
	}
}

func TestHeaderWireFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader(&buf, TypeCiphertext); err != nil {
		t.Fatalf("WriteHeader() failed: %v", err)
	}
	want := []byte("asymcrypt\x00\x02\x00\x03")
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("Header = % x, want % x", buf.Bytes(), want)
	}
}

func TestReadHeader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{"bad magic", []byte("asymcrypX\x00\x02\x00\x00"), ErrInvalidData},
		{"uppercase magic", []byte("ASYMCRYPT\x00\x02\x00\x00"), ErrInvalidData},
		{"version 1", []byte("asymcrypt\x00\x01\x00\x00"), ErrUnsupportedVersion},
		{"version 3", []byte("asymcrypt\x00\x03\x00\x00"), ErrUnsupportedVersion},
		{"version high byte", []byte("asymcrypt\x01\x02\x00\x00"), ErrUnsupportedVersion},
		{"type out of range", []byte("asymcrypt\x00\x02\x00\x04"), ErrInvalidData},
		{"type high byte", []byte("asymcrypt\x00\x02\x01\x00"), ErrInvalidData},
		{"truncated", []byte("asymcrypt\x00"), ErrInvalidData},
		{"empty", nil, ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadHeader(bytes.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadHeader() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadHeader_TruncationWrapsUnexpectedEOF(t *testing.T) {
	_, err := ReadHeader(bytes.NewReader([]byte("asym")))
	if !errors.Is(err, ErrInvalidData) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadHeader() error = %v, want ErrInvalidData wrapping io.ErrUnexpectedEOF", err)
	}
}

func TestReadHeader_IOError(t *testing.T) {
	cause := errors.New("connection reset")
	_, err := ReadHeader(io.MultiReader(bytes.NewReader([]byte("asym")), errReader{cause}))
	if !errors.Is(err, ErrIO) || !errors.Is(err, cause) {
		t.Errorf("ReadHeader() error = %v, want ErrIO wrapping cause", err)
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestExpectHeader(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteHeader(&buf, TypePublicKey)
	raw := buf.Bytes()

	if err := ExpectHeader(bytes.NewReader(raw), TypePublicKey); err != nil {
		t.Errorf("ExpectHeader(PublicKey) failed: %v", err)
	}
	if err := ExpectHeader(bytes.NewReader(raw), TypeKey); !errors.Is(err, ErrUnexpectedDataType) {
		t.Errorf("ExpectHeader(Key) error = %v, want ErrUnexpectedDataType", err)
	}
}

func TestWriteHeader_IOError(t *testing.T) {
	err := WriteHeader(&failingWriter{limit: 0}, TypeKey)
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("WriteHeader() error = %v, want *IOError", err)
	}
	if !errors.Is(err, ErrIO) || errors.Unwrap(err) != errSinkClosed {
		t.Errorf("IOError does not expose its cause: %v", err)
	}
}

func TestDataTypeString(t *testing.T) {
	if TypeCiphertext.String() != "ciphertext" {
		t.Errorf("String() = %q", TypeCiphertext.String())
	}
	if DataType(9).String() != "unknown(9)" {
		t.Errorf("String() = %q", DataType(9).String())
	}
}
