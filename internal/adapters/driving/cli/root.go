// Package cli provides the catalogd command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/catalogd/internal/core/ports/driving"
	"github.com/custodia-labs/catalogd/internal/logger"
)

// version is set at build time.
var version = "dev"

var (
	configPath string
	verbose    bool
)

// Services are the wired application services a command runs against.
type Services struct {
	// Catalog compiles catalogs.
	Catalog driving.CatalogService

	// Nodes manages node classifications. Optional.
	Nodes driving.NodeService

	// Listen is the HTTP listen address.
	Listen string

	// RateLimit is the sustained number of compiles per second; 0 is unlimited.
	RateLimit float64

	// Watch keeps environments current until ctx is cancelled. Optional.
	Watch func(ctx context.Context) error

	// Close releases storage. Optional.
	Close func() error
}

// BootstrapFunc wires Services from the configuration file at configPath.
// networked is true when the services will answer remote agents.
type BootstrapFunc func(configPath string, networked bool) (*Services, error)

var (
	bootstrap BootstrapFunc

	// servicesOverride replaces bootstrapping; used by tests.
	servicesOverride *Services
)

var rootCmd = &cobra.Command{
	Use:   "catalogd",
	Short: "Catalog compile server",
	Long: `catalogd compiles node catalogs for configuration management agents.

It ingests agent facts, resolves the node's classification, compiles the
catalog and, for static catalogs, inlines file metadata so agents can fetch
file content without further metadata requests.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file (default ~/.catalogd/catalogd.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets how commands wire their services.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadServices wires the services for a command. The caller must call the
// returned release func when done.
func loadServices(networked bool) (*Services, func(), error) {
	if servicesOverride != nil {
		return servicesOverride, func() {}, nil
	}
	if bootstrap == nil {
		return nil, nil, errors.New("services not configured")
	}

	svc, err := bootstrap(configPath, networked)
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	release := func() {
		if svc.Close == nil {
			return
		}
		if err := svc.Close(); err != nil {
			logger.Warn("Closing storage: %v", err)
		}
	}
	return svc, release, nil
}
