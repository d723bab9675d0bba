package fs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dcoats/tilespace/pkg/fs"
)

func Test_AtomicWriter_Write_Creates_File_With_Content_And_Permissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tilespace.jsonc")

	writer := fs.NewAtomicWriter(fs.NewReal())

	err := writer.Write(path, strings.NewReader(`{"width": 4}`))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != `{"width": 4}` {
		t.Fatalf("content=%q, want %q", got, `{"width": 4}`)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	if got, want := info.Mode().Perm(), os.FileMode(0o644); got != want {
		t.Fatalf("perm=%v, want %v", got, want)
	}
}

func Test_AtomicWriter_Write_Overwrites_Existing_Config_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tilespace.jsonc")

	if err := os.WriteFile(path, []byte(`{"width": 3}`), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	writer := fs.NewAtomicWriter(fs.NewReal())

	if err := writer.Write(path, strings.NewReader(`{"width": 5}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != `{"width": 5}` {
		t.Fatalf("content=%q, want %q", got, `{"width": 5}`)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("dir has %d entries after write, want 1 (no leftover temp file): %v", len(entries), entries)
	}
}

func Test_AtomicWriter_Write_Rejects_Empty_Path(t *testing.T) {
	writer := fs.NewAtomicWriter(fs.NewReal())

	err := writer.Write("", strings.NewReader("x"))
	if err == nil {
		t.Fatal("err = nil, want error for empty path")
	}
}

func Test_AtomicWriter_Write_Rejects_Invalid_Path(t *testing.T) {
	dir := t.TempDir()
	writer := fs.NewAtomicWriter(fs.NewReal())

	err := writer.Write(dir+string(os.PathSeparator), strings.NewReader("x"))
	if err == nil {
		t.Fatal("err = nil, want error for a path with no base name")
	}
}
