// Package environments discovers environments as directories under an
// environment path and keeps the set current as directories come and go.
package environments

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
	"github.com/custodia-labs/catalogd/internal/logger"
)

// SettingsFile is the per-environment settings file.
const SettingsFile = "environment.toml"

// settings is the content of an environment's SettingsFile.
type settings struct {
	StaticCatalogs *bool `toml:"static_catalogs"`
}

// Ensure Store implements the interface.
var _ driven.EnvironmentStore = (*Store)(nil)

// Store is an EnvironmentStore backed by a directory of environments.
type Store struct {
	dir            string
	staticCatalogs bool

	mu   sync.RWMutex
	envs map[string]domain.Environment
}

// NewStore scans dir for environments. staticCatalogs is the default for
// environments whose settings file does not say otherwise.
func NewStore(dir string, staticCatalogs bool) (*Store, error) {
	s := &Store{
		dir:            dir,
		staticCatalogs: staticCatalogs,
		envs:           make(map[string]domain.Environment),
	}
	if err := s.Rescan(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the environment path.
func (s *Store) Dir() string {
	return s.dir
}

// Get returns an environment by name. A name not seen by the last scan is
// loaded from disk so new environments are usable before the watcher fires.
func (s *Store) Get(_ context.Context, name string) (*domain.Environment, error) {
	s.mu.RLock()
	env, ok := s.envs[name]
	s.mu.RUnlock()
	if ok {
		return &env, nil
	}

	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return nil, domain.ErrNotFound
	}
	loaded, err := s.load(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.envs[name] = *loaded
	s.mu.Unlock()
	return loaded, nil
}

// List returns all environments sorted by name.
func (s *Store) List(_ context.Context) ([]domain.Environment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Environment, 0, len(s.envs))
	for _, e := range s.envs {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Rescan replaces the known environments with what is on disk.
func (s *Store) Rescan() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading environment path %s: %w", s.dir, err)
	}

	envs := make(map[string]domain.Environment, len(entries))
	for _, entry := range entries {
		env, err := s.load(entry.Name())
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			logger.Warn("Skipping environment %s: %v", entry.Name(), err)
			continue
		}
		envs[env.Name] = *env
	}

	s.mu.Lock()
	s.envs = envs
	s.mu.Unlock()
	logger.Debug("Found %d environments in %s", len(envs), s.dir)
	return nil
}

// load reads one environment directory.
func (s *Store) load(name string) (*domain.Environment, error) {
	realPath, err := filepath.EvalSymlinks(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolving environment %s: %w", name, err)
	}
	info, err := os.Stat(realPath)
	if err != nil {
		return nil, fmt.Errorf("stat environment %s: %w", name, err)
	}
	if !info.IsDir() {
		return nil, domain.ErrNotFound
	}

	env := &domain.Environment{
		Name:           name,
		Path:           realPath,
		StaticCatalogs: s.staticCatalogs,
	}

	data, err := os.ReadFile(filepath.Join(realPath, SettingsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return env, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s for environment %s: %w", SettingsFile, name, err)
	}
	var cfg settings
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s for environment %s: %w", SettingsFile, name, err)
	}
	if cfg.StaticCatalogs != nil {
		env.StaticCatalogs = *cfg.StaticCatalogs
	}
	return env, nil
}

// Watch keeps the store current until ctx is cancelled. Environments that
// appear, disappear or change their settings file trigger a rescan.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watching %s: %w", s.dir, err)
	}
	s.watchEnvironments(watcher)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !s.handleFsEvent(event) {
				continue
			}
			if err := s.Rescan(); err != nil {
				logger.Warn("Rescanning environments: %v", err)
				continue
			}
			s.watchEnvironments(watcher)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Environment watcher: %v", err)
		}
	}
}

// watchEnvironments adds every known environment directory to watcher so
// settings file edits are seen. Adding a path twice is a no-op.
func (s *Store) watchEnvironments(watcher *fsnotify.Watcher) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, env := range s.envs {
		if err := watcher.Add(env.Path); err != nil {
			logger.Debug("Not watching environment %s: %v", env.Name, err)
		}
	}
}

// handleFsEvent reports whether event requires a rescan.
func (s *Store) handleFsEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
		return false
	}
	parent := filepath.Dir(event.Name)
	if parent == filepath.Clean(s.dir) {
		// Writes to the environment path itself are file edits, not environments.
		return event.Op&fsnotify.Write == 0
	}
	return filepath.Base(event.Name) == SettingsFile
}
