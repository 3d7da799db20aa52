package asymcrypt

import (
	"encoding/binary"
	"fmt"
	"io"
)

// DataType tags the artifact that follows a header.
type DataType uint16

const (
	TypeKey        DataType = 0
	TypePublicKey  DataType = 1
	TypeSignature  DataType = 2
	TypeCiphertext DataType = 3
)

func (t DataType) String() string {
	switch t {
	case TypeKey:
		return "key"
	case TypePublicKey:
		return "public-key"
	case TypeSignature:
		return "signature"
	case TypeCiphertext:
		return "ciphertext"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(t))
	}
}

func (t DataType) valid() bool { return t <= TypeCiphertext }

const (
	// Magic opens every artifact.
	Magic = "asymcrypt"

	// Version is the only protocol version this package reads or writes.
	Version uint16 = 2

	// HeaderSize is the encoded header length.
	HeaderSize = len(Magic) + 2 + 2
)

// WriteHeader writes the magic, version and type tag of an artifact.
func WriteHeader(w io.Writer, t DataType) error {
	var buf [HeaderSize]byte
	copy(buf[:], Magic)
	binary.BigEndian.PutUint16(buf[len(Magic):], Version)
	binary.BigEndian.PutUint16(buf[len(Magic)+2:], uint16(t))
	return writeField(w, buf[:], "header")
}

// ReadHeader reads and validates a header and returns its type tag.
func ReadHeader(r io.Reader) (DataType, error) {
	var buf [HeaderSize]byte
	if err := readField(r, buf[:], "header"); err != nil {
		return 0, err
	}
	if string(buf[:len(Magic)]) != Magic {
		return 0, fmt.Errorf("%w: bad magic %q", ErrInvalidData, buf[:len(Magic)])
	}
	if v := binary.BigEndian.Uint16(buf[len(Magic):]); v != Version {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	t := DataType(binary.BigEndian.Uint16(buf[len(Magic)+2:]))
	if !t.valid() {
		return 0, fmt.Errorf("%w: unknown data type %d", ErrInvalidData, uint16(t))
	}
	return t, nil
}

// ExpectHeader reads a header and checks that it carries type want.
func ExpectHeader(r io.Reader, want DataType) error {
	t, err := ReadHeader(r)
	if err != nil {
		return err
	}
	if t != want {
		return fmt.Errorf("%w: got %s, want %s", ErrUnexpectedDataType, t, want)
	}
	return nil
}
