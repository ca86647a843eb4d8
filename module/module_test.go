package module

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadRoot(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "root.asm", ".text\nnop\n")

	m := New(nil)
	u, err := m.Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if u.Lines[1] != "nop" {
		t.Errorf("unexpected content: %+v", u.Lines)
	}
}

func TestResolveIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "common.asm", ".data\n")

	m := New(nil)
	u1, loaded1, err := m.Resolve(dir, "common.asm")
	if err != nil {
		t.Fatal(err)
	}
	if !loaded1 {
		t.Error("first resolve should report loaded=true")
	}
	u2, loaded2, err := m.Resolve(dir, "common.asm")
	if err != nil {
		t.Fatal(err)
	}
	if loaded2 {
		t.Error("second resolve of the same path should report loaded=false")
	}
	if u1 != u2 {
		t.Error("both resolves should return the same *source.Unit")
	}
}

func TestResolveSearchPath(t *testing.T) {
	base := t.TempDir()
	incDir := t.TempDir()
	writeFile(t, incDir, "lib.asm", ".text\n")

	m := New([]string{incDir})
	u, loaded, err := m.Resolve(base, "lib.asm")
	if err != nil {
		t.Fatal(err)
	}
	if !loaded || u == nil {
		t.Fatal("expected lib.asm to resolve via include path")
	}
}

func TestResolveNotFound(t *testing.T) {
	m := New(nil)
	if _, _, err := m.Resolve(t.TempDir(), "missing.asm"); err == nil {
		t.Error("expected error resolving a missing include")
	}
}
