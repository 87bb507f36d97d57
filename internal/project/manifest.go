package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the project manifest file looked up from the working
// directory upward.
const ManifestName = "zsem.toml"

// Manifest is a loaded zsem.toml plus where it was found.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Package PackageConfig `toml:"package"`
	Index   IndexConfig   `toml:"index"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

// IndexConfig controls workspace indexing.
type IndexConfig struct {
	Source string `toml:"source"` // source directory relative to the manifest, defaults to "src"
	Jobs   int    `toml:"jobs"`   // parallel workers, 0 means GOMAXPROCS
	Cache  bool   `toml:"cache"`  // persist per-file summaries between runs
}

// FindManifest walks up from startDir to locate zsem.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
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

// Load locates and parses the manifest governing startDir.
func Load(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func loadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if strings.TrimSpace(cfg.Index.Source) == "" {
		cfg.Index.Source = "src"
	}
	if cfg.Index.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [index].jobs must be non-negative", path)
	}
	if !meta.IsDefined("index", "cache") {
		cfg.Index.Cache = true
	}
	return cfg, nil
}

// SourceDir returns the absolute source directory for the manifest.
func (m *Manifest) SourceDir() string {
	return filepath.Join(m.Root, filepath.FromSlash(m.Config.Index.Source))
}
