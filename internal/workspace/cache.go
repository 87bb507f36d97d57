package workspace

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"zsem/internal/source"
)

// Bump when IndexPayload changes shape.
const indexCacheSchemaVersion uint16 = 1

// IndexPayload is the per-file index summary persisted between runs,
// keyed by content hash. It carries what the workspace symbol listing
// needs without re-parsing unchanged files.
type IndexPayload struct {
	Schema uint16

	Path        string
	Decls       []string // top-level declaration names
	Errors      []string // error-literal completion set
	EnumMembers []string // enum-member completion set
}

// IndexCache stores index summaries on disk. Thread-safe.
type IndexCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenIndexCache initializes the cache at the standard user cache
// location.
func OpenIndexCache(app string) (*IndexCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &IndexCache{dir: dir}, nil
}

func (c *IndexCache) pathFor(key [32]byte) string {
	return filepath.Join(c.dir, "index", hex.EncodeToString(key[:])+".mp")
}

// Put writes a payload atomically.
func (c *IndexCache) Put(key [32]byte, payload *IndexPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a payload; a missing entry or a schema mismatch is a miss,
// not an error.
func (c *IndexCache) Get(key [32]byte, out *IndexPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != indexCacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache wholesale.
func (c *IndexCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// Summary builds the cacheable index payload for a parsed file.
func (st *Store) Summary(file source.FileID) (*IndexPayload, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	doc, ok := st.docs[file]
	f := st.fs.Get(file)
	if !ok || f == nil {
		return nil, false
	}
	root := doc.Scopes.Get(doc.Root)
	if root == nil {
		return nil, false
	}
	decls := make([]string, 0, len(root.Decls))
	for name := range root.Decls {
		decls = append(decls, name)
	}
	sort.Strings(decls)
	return &IndexPayload{
		Schema:      indexCacheSchemaVersion,
		Path:        f.Path,
		Decls:       decls,
		Errors:      append([]string(nil), doc.ErrorCompletions...),
		EnumMembers: append([]string(nil), doc.EnumCompletions...),
	}, true
}
