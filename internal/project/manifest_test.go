package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifestDefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	manifest, ok, err := LoadManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("no manifest expected in empty directory")
	}
	if manifest.Options != DefaultOptions() {
		t.Errorf("options = %+v, want defaults", manifest.Options)
	}
}

func TestLoadManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	content := `
[import]
strict_debug_info = true
target = "i386-linux-gnu"
jobs = 4
`
	if err := os.WriteFile(filepath.Join(root, "arlift.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	manifest, ok, err := LoadManifest(nested)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("manifest not found from nested directory")
	}
	if manifest.Root != root {
		t.Errorf("root = %q, want %q", manifest.Root, root)
	}
	if !manifest.Options.StrictDebugInfo {
		t.Error("strict_debug_info not parsed")
	}
	if manifest.Options.Target != "i386-linux-gnu" {
		t.Errorf("target = %q", manifest.Options.Target)
	}
	if manifest.Options.Jobs != 4 {
		t.Errorf("jobs = %d", manifest.Options.Jobs)
	}

	target, err := manifest.Options.ResolveTarget()
	if err != nil {
		t.Fatal(err)
	}
	if target.PtrSize != 4 {
		t.Errorf("ptr size = %d, want 4", target.PtrSize)
	}
}

func TestLoadManifestRejectsUnknownTarget(t *testing.T) {
	root := t.TempDir()
	content := `
[import]
target = "pdp11-unknown"
`
	if err := os.WriteFile(filepath.Join(root, "arlift.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadManifest(root); err == nil {
		t.Fatal("unknown target should fail manifest load")
	}
}

func TestCombineIsOrderSensitive(t *testing.T) {
	a := HashBytes([]byte("a"))
	b := HashBytes([]byte("b"))
	c := HashBytes([]byte("content"))

	if Combine(c, a, b) == Combine(c, b, a) {
		t.Error("dependency order must affect the aggregate hash")
	}
	if Combine(c) == c {
		t.Error("combining must rehash even without deps")
	}
}
