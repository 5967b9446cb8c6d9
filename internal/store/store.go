// Package store manages the local provisioning state: which model packages
// have been installed, where their archives live, and which aliases resolve
// to them. State is a single registry.json under the data directory,
// written atomically and guarded by a cross-process file lock.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"modelenv/internal/common/fsutil"
	"modelenv/pkg/types"
)

// DefaultLockTimeout is the timeout for acquiring the registry file lock.
const DefaultLockTimeout = 30 * time.Second

const registryName = "registry.json"

// Sentinel errors. Use errors.Is() to check for specific conditions.
var (
	// ErrNotInstalled indicates the model is not in the local registry.
	ErrNotInstalled = errors.New("store: model not installed")

	// ErrAliasNotFound indicates the alias is not registered.
	ErrAliasNotFound = errors.New("store: alias not registered")
)

// registry is the on-disk shape of registry.json.
type registry struct {
	Models  map[string]types.InstalledModel `json:"models"`
	Aliases map[string]string               `json:"aliases"`
}

func newRegistry() registry {
	return registry{
		Models:  make(map[string]types.InstalledModel),
		Aliases: make(map[string]string),
	}
}

// Store is safe for concurrent use within a process; cross-process writers
// are serialized by an flock on registry.json.lock.
type Store struct {
	baseDir     string
	lockTimeout time.Duration

	mu    sync.RWMutex
	cache *registry
}

// Open resolves the data directory (expanding a leading '~'), creates it if
// needed, and returns a Store. An empty dataDir falls back to the
// platform-appropriate default.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		d, err := defaultDataDir("modelenv")
		if err != nil {
			return nil, fmt.Errorf("default data dir: %w", err)
		}
		dataDir = d
	}
	base, err := fsutil.ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	if err := fsutil.EnsureDir(abs); err != nil {
		return nil, err
	}
	return &Store{baseDir: abs, lockTimeout: DefaultLockTimeout}, nil
}

// Dir returns the store's base directory.
func (s *Store) Dir() string { return s.baseDir }

// ArchivesDir returns the directory downloaded archives are kept in.
func (s *Store) ArchivesDir() string { return filepath.Join(s.baseDir, "archives") }

// registryPath returns the path of registry.json.
func (s *Store) registryPath() string { return filepath.Join(s.baseDir, registryName) }

// Add records an installed model. A missing ReceiptID and InstalledAt are
// filled in. An existing entry with the same name is replaced.
func (s *Store) Add(m types.InstalledModel) error {
	if m.Name == "" {
		return fmt.Errorf("store: model name is required")
	}
	if m.ReceiptID == "" {
		m.ReceiptID = uuid.NewString()
	}
	if m.InstalledAt.IsZero() {
		m.InstalledAt = time.Now().UTC()
	}
	return s.update(func(reg *registry) error {
		reg.Models[m.Name] = m
		return nil
	})
}

// Get returns the entry for the named model.
func (s *Store) Get(name string) (types.InstalledModel, error) {
	reg, err := s.load()
	if err != nil {
		return types.InstalledModel{}, err
	}
	m, ok := reg.Models[name]
	if !ok {
		return types.InstalledModel{}, fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}
	return m, nil
}

// List returns all installed models sorted by name.
func (s *Store) List() ([]types.InstalledModel, error) {
	reg, err := s.load()
	if err != nil {
		return nil, err
	}
	models := make([]types.InstalledModel, 0, len(reg.Models))
	for _, m := range reg.Models {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return models, nil
}

// Remove deletes the named model's entry, its stored archive, and any
// aliases that resolve to it.
func (s *Store) Remove(name string) error {
	return s.update(func(reg *registry) error {
		m, ok := reg.Models[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotInstalled, name)
		}
		if m.ArchivePath != "" {
			if err := os.Remove(m.ArchivePath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("removing archive: %w", err)
			}
		}
		delete(reg.Models, name)
		for alias, pkg := range reg.Aliases {
			if pkg == name {
				delete(reg.Aliases, alias)
			}
		}
		return nil
	})
}

// SetAlias registers alias → pkg. Re-registering the same mapping is a
// no-op; a different target overwrites.
func (s *Store) SetAlias(alias, pkg string) error {
	if alias == "" || pkg == "" {
		return fmt.Errorf("store: alias and package are required")
	}
	return s.update(func(reg *registry) error {
		reg.Aliases[alias] = pkg
		return nil
	})
}

// RemoveAlias deletes a registered alias.
func (s *Store) RemoveAlias(alias string) error {
	return s.update(func(reg *registry) error {
		if _, ok := reg.Aliases[alias]; !ok {
			return fmt.Errorf("%w: %s", ErrAliasNotFound, alias)
		}
		delete(reg.Aliases, alias)
		return nil
	})
}

// Resolve returns the package the alias points at.
func (s *Store) Resolve(alias string) (string, error) {
	reg, err := s.load()
	if err != nil {
		return "", err
	}
	pkg, ok := reg.Aliases[alias]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrAliasNotFound, alias)
	}
	return pkg, nil
}

// Aliases returns all registered aliases sorted by name.
func (s *Store) Aliases() ([]types.Alias, error) {
	reg, err := s.load()
	if err != nil {
		return nil, err
	}
	aliases := make([]types.Alias, 0, len(reg.Aliases))
	for name, pkg := range reg.Aliases {
		aliases = append(aliases, types.Alias{Name: name, Package: pkg})
	}
	sort.Slice(aliases, func(i, j int) bool { return aliases[i].Name < aliases[j].Name })
	return aliases, nil
}

// Invalidate drops the in-memory cache so the next read hits the disk.
// Called by the watcher when another process rewrites registry.json.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

// load returns the cached registry, reading registry.json on a cold cache.
func (s *Store) load() (registry, error) {
	s.mu.RLock()
	if s.cache != nil {
		reg := *s.cache
		s.mu.RUnlock()
		return reg, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache != nil {
		return *s.cache, nil
	}
	reg, err := s.read()
	if err != nil {
		return registry{}, err
	}
	s.cache = &reg
	return reg, nil
}

// read parses registry.json, returning an empty registry when absent.
func (s *Store) read() (registry, error) {
	data, err := os.ReadFile(s.registryPath())
	if os.IsNotExist(err) {
		return newRegistry(), nil
	}
	if err != nil {
		return registry{}, fmt.Errorf("reading registry: %w", err)
	}
	reg := newRegistry()
	if err := json.Unmarshal(data, &reg); err != nil {
		return registry{}, fmt.Errorf("invalid %s: %w", registryName, err)
	}
	if reg.Models == nil {
		reg.Models = make(map[string]types.InstalledModel)
	}
	if reg.Aliases == nil {
		reg.Aliases = make(map[string]string)
	}
	return reg, nil
}

// update applies fn to the registry under both the in-process mutex and the
// cross-process file lock, then persists atomically.
func (s *Store) update(fn func(*registry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := newFileLock(s.registryPath()+".lock", s.lockTimeout)
	if err != nil {
		return fmt.Errorf("creating lock: %w", err)
	}
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	defer lock.Unlock()

	// Re-read under the lock so concurrent processes don't lose writes.
	reg, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(&reg); err != nil {
		return err
	}

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	if err := fsutil.AtomicWrite(s.registryPath(), data); err != nil {
		return err
	}
	s.cache = &reg
	return nil
}
