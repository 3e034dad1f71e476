package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/llir/llvm/asm"
	"golang.org/x/sync/errgroup"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"arlift/internal/air"
	"arlift/internal/importer"
	"arlift/internal/layout"
	"arlift/internal/project"
)

// FuncSummary is the per-function outcome of one import run, small
// enough to cache.
type FuncSummary struct {
	Name   string
	Blocks int
	Stmts  int
}

// FileResult is the outcome of importing one .ll file.
type FileResult struct {
	Path   string
	Hash   project.Digest
	Module *air.Module // nil when served from cache or failed
	Funcs  []FuncSummary
	Err    error
	Cached bool
}

// listLLFiles returns the sorted list of all *.ll files under dir.
func listLLFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".ll") {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ImportDir imports every *.ll file under dir. Result order follows the
// sorted path order.
func ImportDir(ctx context.Context, opts project.Options, dir string) ([]FileResult, error) {
	files, err := listLLFiles(dir)
	if err != nil {
		return nil, errors.Wrap(err, "list %v", dir)
	}
	return ImportFiles(ctx, opts, files)
}

// ImportFiles imports the given .ll files in parallel. Per-file read, parse
// and import failures are reported in the corresponding FileResult; only
// setup failures (target resolution, opening the cache) and context
// cancellation abort the run.
func ImportFiles(ctx context.Context, opts project.Options, paths []string) ([]FileResult, error) {
	target, err := opts.ResolveTarget()
	if err != nil {
		return nil, err
	}

	var cache *DiskCache
	if !opts.NoCache {
		cache, err = OpenDiskCache("arlift")
		if err != nil {
			return nil, errors.Wrap(err, "open disk cache")
		}
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(paths), 1)))

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = importOne(gctx, opts, target, cache, path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func importOne(ctx context.Context, opts project.Options, target layout.Target, cache *DiskCache, path string) FileResult {
	res := FileResult{Path: path}

	hash, err := project.HashFile(path)
	if err != nil {
		res.Err = errors.Wrap(err, "read file")
		return res
	}
	res.Hash = hash

	if cache != nil {
		var payload DiskPayload
		if ok, err := cache.Get(hash, &payload); err == nil && ok && payload.Schema == diskCacheSchemaVersion {
			res.Funcs = payload.Funcs
			res.Cached = true
			if payload.ErrorText != "" {
				res.Err = errors.New("%s", payload.ErrorText)
			}
			tlog.SpanFromContext(ctx).Printw("import cache hit", "path", path)
			return res
		}
	}

	mod, err := ImportFile(ctx, opts, target, path)
	if err != nil {
		res.Err = err
	} else {
		res.Module = mod
		res.Funcs = summarize(mod)
	}

	if cache != nil {
		payload := &DiskPayload{
			Schema:      diskCacheSchemaVersion,
			Path:        path,
			ContentHash: hash,
			Funcs:       res.Funcs,
		}
		if res.Err != nil {
			payload.ErrorText = res.Err.Error()
		}
		if err := cache.Put(hash, payload); err != nil {
			tlog.SpanFromContext(ctx).Printw("cache write failed", "path", path, "err", err)
		}
	}

	return res
}

// ImportFile parses and imports a single .ll module.
func ImportFile(ctx context.Context, opts project.Options, target layout.Target, path string) (*air.Module, error) {
	m, err := asm.ParseFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "parse %v", path)
	}
	tlog.SpanFromContext(ctx).Printw("parsed file", "path", path, "funcs", len(m.Funcs), "globals", len(m.Globals))

	bi := importer.NewBundleImporter(target)
	bi.StrictDebugInfo = opts.StrictDebugInfo
	mod, err := bi.ImportModule(m)
	if err != nil {
		return nil, errors.Wrap(err, "import %v", path)
	}
	if mod.Name == "" {
		mod.Name = filepath.Base(path)
	}
	tlog.SpanFromContext(ctx).Printw("imported file", "path", path, "funcs", len(mod.Funcs))
	return mod, nil
}

func summarize(mod *air.Module) []FuncSummary {
	sums := make([]FuncSummary, 0, len(mod.Funcs))
	for _, f := range mod.Funcs {
		sum := FuncSummary{Name: f.Name}
		if f.Code != nil {
			sum.Blocks = len(f.Code.Blocks)
			for _, b := range f.Code.Blocks {
				sum.Stmts += len(b.Stmts)
			}
		}
		sums = append(sums, sum)
	}
	return sums
}
