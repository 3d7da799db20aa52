package securefile

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "id.key")

	if err := WriteFileAtomic(path, []byte("first"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic() failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic() overwrite failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("Contents = %q, want %q", data, "second")
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat() failed: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("Mode = %o, want 600", info.Mode().Perm())
		}
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only the key file in %s, found %d entries", dir, len(entries))
	}
}

func TestWriteNew_RefusesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.pub")
	if err := WriteNew(path, []byte("a"), 0o644); err != nil {
		t.Fatalf("WriteNew() failed: %v", err)
	}
	if err := WriteNew(path, []byte("b"), 0o644); !errors.Is(err, ErrExists) {
		t.Errorf("WriteNew() on existing file error = %v, want ErrExists", err)
	}
}

func TestMkdirAllOwnerOnly(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := MkdirAllOwnerOnly(dir); err != nil {
		t.Fatalf("MkdirAllOwnerOnly() failed: %v", err)
	}
	if runtime.GOOS == "windows" {
		return
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Errorf("Mode = %o, want 700", info.Mode().Perm())
	}
}
