package validation

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	ErrInvalidPath    = errors.New("invalid file path")
	ErrPathNotExists  = errors.New("path does not exist")
	ErrInvalidAddr    = errors.New("invalid listen address")
	ErrEmptyString    = errors.New("value must not be empty")
	ErrOutOfRange     = errors.New("value out of range")
	ErrNotAllowed     = errors.New("value not allowed")
	ErrInvalidKeyName = errors.New("invalid key name")
)

// ValidateFilePath checks that p is usable as a file path. "-" (stdin or
// stdout) is always accepted.
func ValidateFilePath(p string, mustExist bool) error {
	if p == "" {
		return ErrInvalidPath
	}
	if p == "-" {
		return nil
	}
	p = filepath.Clean(p)
	if mustExist {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPathNotExists, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", ErrInvalidPath, p)
		}
	}
	return nil
}

func ValidateAddr(addr string) error {
	if addr == "" {
		return ErrInvalidAddr
	}
	_, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddr, err)
	}
	return nil
}

func ValidateStringNonEmpty(s string) error {
	if s == "" {
		return ErrEmptyString
	}
	return nil
}

func ValidateRangeInt(v, min, max int) error {
	if v < min || v > max {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrOutOfRange, v, min, max)
	}
	return nil
}

// ValidateOneOf checks that s is one of allowed.
func ValidateOneOf(s string, allowed ...string) error {
	if !slices.Contains(allowed, s) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrNotAllowed, s, strings.Join(allowed, ", "))
	}
	return nil
}

// ValidateKeyName checks that name can be used as a file name inside the
// key directory.
func ValidateKeyName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidKeyName
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidKeyName, name)
	}
	return nil
}
