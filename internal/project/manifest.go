package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"arlift/internal/layout"
)

// Options are the import settings shared by the driver and the CLI.
type Options struct {
	StrictDebugInfo bool   `toml:"strict_debug_info"`
	Target          string `toml:"target"`
	Jobs            int    `toml:"jobs"`
	NoCache         bool   `toml:"no_cache"`
}

// DefaultOptions returns the settings used when no manifest is present.
func DefaultOptions() Options {
	return Options{
		Target: "x86_64-linux-gnu",
	}
}

// ResolveTarget parses the configured target triple.
func (o Options) ResolveTarget() (layout.Target, error) {
	return layout.ParseTarget(o.Target)
}

// Manifest is a located and parsed arlift.toml.
type Manifest struct {
	Path    string
	Root    string
	Options Options
}

type manifestConfig struct {
	Import Options `toml:"import"`
}

// FindManifest walks up from startDir to locate arlift.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "arlift.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest locates and parses the nearest arlift.toml. When no
// manifest exists the defaults are returned with ok=false.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return &Manifest{Options: DefaultOptions()}, ok, err
	}
	opts, err := loadOptions(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:    manifestPath,
		Root:    filepath.Dir(manifestPath),
		Options: opts,
	}, true, nil
}

func loadOptions(path string) (Options, error) {
	cfg := manifestConfig{Import: DefaultOptions()}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Options{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if meta.IsDefined("import", "target") {
		if _, err := layout.ParseTarget(cfg.Import.Target); err != nil {
			return Options{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if cfg.Import.Jobs < 0 {
		return Options{}, fmt.Errorf("%s: [import].jobs must not be negative", path)
	}
	return cfg.Import, nil
}
