package file

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/custodia-labs/catalogd/internal/core/domain"
)

// Node termini.
const (
	TerminusPlain = "plain"
	TerminusStore = "store"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Configuration keys.
const (
	KeyEnvironmentPath    = "server.environmentpath"
	KeyBaseModulePath     = "server.basemodulepath"
	KeyDefaultEnvironment = "server.default_environment"
	KeyStaticCatalogs     = "server.static_catalogs"
	KeyNodeTerminus       = "server.node_terminus"
	KeyListen             = "server.listen"
	KeyRateLimit          = "server.rate_limit"
	KeyChecksumTypes      = "server.checksum_types"
	KeyStorageBackend     = "storage.backend"
	KeyDataDir            = "storage.data_dir"
)

// Settings is the typed server configuration.
type Settings struct {
	EnvironmentPath    string
	BaseModulePath     []string
	DefaultEnvironment string
	StaticCatalogs     bool
	NodeTerminus       string
	Listen             string

	// RateLimit is the sustained number of compiles per second; 0 disables limiting.
	RateLimit float64

	ChecksumTypes []string

	// StorageBackend holds facts and classifications: sqlite or memory.
	StorageBackend string
	DataDir        string
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	base := ".catalogd"
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".catalogd")
	}
	return Settings{
		EnvironmentPath:    filepath.Join(base, "environments"),
		DefaultEnvironment: "production",
		StaticCatalogs:     true,
		NodeTerminus:       TerminusPlain,
		Listen:             ":8140",
		ChecksumTypes:      append([]string(nil), domain.KnownChecksumTypes...),
		StorageBackend:     BackendSQLite,
		DataDir:            filepath.Join(base, "data"),
	}
}

// Settings reads the typed configuration, falling back to defaults for
// unset keys.
func (s *ConfigStore) Settings() Settings {
	out := DefaultSettings()

	if v := s.GetString(KeyEnvironmentPath); v != "" {
		out.EnvironmentPath = v
	}
	if v := s.GetStringSlice(KeyBaseModulePath); len(v) > 0 {
		out.BaseModulePath = v
	}
	if v := s.GetString(KeyDefaultEnvironment); v != "" {
		out.DefaultEnvironment = v
	}
	if v, ok := s.GetBool(KeyStaticCatalogs); ok {
		out.StaticCatalogs = v
	}
	if v := s.GetString(KeyNodeTerminus); v != "" {
		out.NodeTerminus = v
	}
	if v := s.GetString(KeyListen); v != "" {
		out.Listen = v
	}
	if v := s.GetFloat(KeyRateLimit); v > 0 {
		out.RateLimit = v
	}
	if v := s.GetStringSlice(KeyChecksumTypes); len(v) > 0 {
		out.ChecksumTypes = v
	}
	if v := s.GetString(KeyStorageBackend); v != "" {
		out.StorageBackend = v
	}
	if v := s.GetString(KeyDataDir); v != "" {
		out.DataDir = v
	}
	return out
}

// Validate reports configuration values catalogd cannot run with.
func (s Settings) Validate() error {
	switch s.NodeTerminus {
	case TerminusPlain, TerminusStore:
	default:
		return fmt.Errorf("%s: unknown node terminus %q (want %q or %q)",
			KeyNodeTerminus, s.NodeTerminus, TerminusPlain, TerminusStore)
	}
	for _, ct := range s.ChecksumTypes {
		if !slices.Contains(domain.KnownChecksumTypes, ct) {
			return fmt.Errorf("%s: unknown checksum type %q", KeyChecksumTypes, ct)
		}
	}
	switch s.StorageBackend {
	case BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("%s: unknown storage backend %q (want %q or %q)",
			KeyStorageBackend, s.StorageBackend, BackendSQLite, BackendMemory)
	}
	if s.DefaultEnvironment == "" {
		return fmt.Errorf("%s: must not be empty", KeyDefaultEnvironment)
	}
	return nil
}
