package validation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateFilePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "msg.txt")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	tests := []struct {
		name      string
		path      string
		mustExist bool
		want      error
	}{
		{"existing file", file, true, nil},
		{"stdio", "-", true, nil},
		{"missing allowed", filepath.Join(dir, "new.bin"), false, nil},
		{"missing required", filepath.Join(dir, "new.bin"), true, ErrPathNotExists},
		{"directory", dir, true, ErrInvalidPath},
		{"empty", "", false, ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilePath(tt.path, tt.mustExist)
			if tt.want == nil && err != nil {
				t.Errorf("ValidateFilePath() error = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("ValidateFilePath() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateAddr(t *testing.T) {
	if err := ValidateAddr("127.0.0.1:9464"); err != nil {
		t.Errorf("ValidateAddr() error = %v", err)
	}
	if err := ValidateAddr("not an address"); !errors.Is(err, ErrInvalidAddr) {
		t.Errorf("ValidateAddr() error = %v, want ErrInvalidAddr", err)
	}
	if err := ValidateAddr(""); !errors.Is(err, ErrInvalidAddr) {
		t.Errorf("ValidateAddr(\"\") error = %v, want ErrInvalidAddr", err)
	}
}

func TestValidateRangeInt(t *testing.T) {
	if err := ValidateRangeInt(5, 1, 10); err != nil {
		t.Errorf("ValidateRangeInt() error = %v", err)
	}
	if err := ValidateRangeInt(0, 1, 10); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ValidateRangeInt() error = %v, want ErrOutOfRange", err)
	}
}

func TestValidateOneOf(t *testing.T) {
	if err := ValidateOneOf("json", "json", "console"); err != nil {
		t.Errorf("ValidateOneOf() error = %v", err)
	}
	if err := ValidateOneOf("xml", "json", "console"); !errors.Is(err, ErrNotAllowed) {
		t.Errorf("ValidateOneOf() error = %v, want ErrNotAllowed", err)
	}
}

func TestValidateKeyName(t *testing.T) {
	for _, ok := range []string{"id", "work-2026", "alice_laptop"} {
		if err := ValidateKeyName(ok); err != nil {
			t.Errorf("ValidateKeyName(%q) error = %v", ok, err)
		}
	}
	for _, bad := range []string{"", ".", "..", "../id", "a/b", `a\b`, ".hidden"} {
		if err := ValidateKeyName(bad); !errors.Is(err, ErrInvalidKeyName) {
			t.Errorf("ValidateKeyName(%q) error = %v, want ErrInvalidKeyName", bad, err)
		}
	}
}
