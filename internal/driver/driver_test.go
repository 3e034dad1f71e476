package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"arlift/internal/project"
)

const goodLL = `
define i32 @add(i32 %a, i32 %b) {
entry:
	%c = add nsw i32 %a, %b
	ret i32 %c
}
`

const badLL = `
define i32 @pick(i1 %c, i32 %a, i32 %b) {
entry:
	%r = select i1 %c, i32 %a, i32 %b
	ret i32 %r
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportFilesReportsPerFileOutcome(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	good := writeFile(t, dir, "good.ll", goodLL)
	bad := writeFile(t, dir, "bad.ll", badLL)

	opts := project.DefaultOptions()
	results, err := ImportFiles(context.Background(), opts, []string{good, bad})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	if results[0].Err != nil {
		t.Errorf("good file failed: %v", results[0].Err)
	}
	if results[0].Module == nil {
		t.Error("good file has no module")
	}
	if len(results[0].Funcs) != 1 || results[0].Funcs[0].Name != "add" {
		t.Errorf("unexpected summaries: %+v", results[0].Funcs)
	}
	if results[0].Funcs[0].Blocks == 0 || results[0].Funcs[0].Stmts == 0 {
		t.Errorf("empty summary for add: %+v", results[0].Funcs[0])
	}

	if results[1].Err == nil {
		t.Error("bad file should fail")
	}
}

func TestImportFilesServesSecondRunFromCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	good := writeFile(t, dir, "good.ll", goodLL)

	opts := project.DefaultOptions()
	first, err := ImportFiles(context.Background(), opts, []string{good})
	if err != nil {
		t.Fatal(err)
	}
	if first[0].Cached {
		t.Error("first run should not be cached")
	}

	second, err := ImportFiles(context.Background(), opts, []string{good})
	if err != nil {
		t.Fatal(err)
	}
	if !second[0].Cached {
		t.Error("second run should be served from cache")
	}
	if len(second[0].Funcs) != 1 || second[0].Funcs[0].Name != "add" {
		t.Errorf("cached summaries differ: %+v", second[0].Funcs)
	}
}

func TestImportFilesNoCacheSkipsCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	good := writeFile(t, dir, "good.ll", goodLL)

	opts := project.DefaultOptions()
	opts.NoCache = true
	for i := 0; i < 2; i++ {
		results, err := ImportFiles(context.Background(), opts, []string{good})
		if err != nil {
			t.Fatal(err)
		}
		if results[0].Cached {
			t.Error("NoCache run must not hit the cache")
		}
	}
}

func TestImportDirWalksSorted(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	writeFile(t, dir, "b.ll", goodLL)
	writeFile(t, dir, "a.ll", goodLL)
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "c.ll", goodLL)
	writeFile(t, dir, "ignore.txt", "not ir")

	results, err := ImportDir(context.Background(), project.DefaultOptions(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if filepath.Base(results[0].Path) != "a.ll" || filepath.Base(results[1].Path) != "b.ll" {
		t.Errorf("results not in sorted order: %v, %v", results[0].Path, results[1].Path)
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	key := project.HashBytes([]byte("content"))
	in := &DiskPayload{
		Schema:      diskCacheSchemaVersion,
		Path:        "some/file.ll",
		ContentHash: key,
		Funcs:       []FuncSummary{{Name: "main", Blocks: 3, Stmts: 7}},
	}
	if err := cache.Put(key, in); err != nil {
		t.Fatal(err)
	}

	var out DiskPayload
	ok, err := cache.Get(key, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("payload not found after Put")
	}
	if out.Path != in.Path || len(out.Funcs) != 1 || out.Funcs[0] != in.Funcs[0] {
		t.Errorf("payload mismatch: %+v", out)
	}

	var missing DiskPayload
	ok, err = cache.Get(project.HashBytes([]byte("other")), &missing)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("unexpected hit for unknown key")
	}
}
