package asymcrypt

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrInvalidData is returned for malformed framing: bad magic, an
	// unknown type tag, a truncated field or a partial record.
	ErrInvalidData = errors.New("invalid data")

	// ErrUnsupportedVersion is returned for a header with a protocol version other than Version.
	ErrUnsupportedVersion = errors.New("unsupported protocol version")

	// ErrUnexpectedDataType is returned when a header's type tag does not match what the reader expected.
	ErrUnexpectedDataType = errors.New("unexpected data type")

	// ErrDecryptKeyMismatch is returned when none of the supplied keys can open a ciphertext.
	ErrDecryptKeyMismatch = errors.New("ciphertext was not encrypted to this key")

	// ErrSignatureKeyMismatch is returned when a signature envelope names a different signer.
	ErrSignatureKeyMismatch = errors.New("signature was made by a different key")

	// ErrSignatureFailed is returned when a signature does not validate.
	ErrSignatureFailed = errors.New("signature verification failed")

	// ErrCorruptOrTamperedData is returned when a ciphertext record fails authentication.
	ErrCorruptOrTamperedData = errors.New("data is corrupt or has been tampered with")

	// ErrIO matches every *IOError via errors.Is.
	ErrIO = errors.New("i/o error")
)

// IOError wraps a failure of the caller's source or sink.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrIO) true for any *IOError.
func (e *IOError) Is(target error) bool { return target == ErrIO }

// readField fills buf from r. Running out of input is framing damage and
// maps to ErrInvalidData; any other read failure is an *IOError.
func readField(r io.Reader, buf []byte, field string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: truncated %s: %w", ErrInvalidData, field, io.ErrUnexpectedEOF)
		}
		return &IOError{Op: "read " + field, Err: err}
	}
	return nil
}

// checkKey rejects a missing key before any input is consumed.
func checkKey(km *KeyMaterial) error {
	if km == nil {
		return fmt.Errorf("%w: nil key", ErrInvalidData)
	}
	return nil
}

func writeField(w io.Writer, buf []byte, field string) error {
	n, err := w.Write(buf)
	if err == nil && n < len(buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &IOError{Op: "write " + field, Err: err}
	}
	return nil
}
