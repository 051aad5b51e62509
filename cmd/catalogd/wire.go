package main

import (
	"fmt"

	"github.com/custodia-labs/catalogd/internal/adapters/driven/compiler/precompiled"
	"github.com/custodia-labs/catalogd/internal/adapters/driven/config/file"
	"github.com/custodia-labs/catalogd/internal/adapters/driven/directory"
	"github.com/custodia-labs/catalogd/internal/adapters/driven/environments"
	"github.com/custodia-labs/catalogd/internal/adapters/driven/facts"
	"github.com/custodia-labs/catalogd/internal/adapters/driven/hostfacts"
	"github.com/custodia-labs/catalogd/internal/adapters/driven/metadata/filesystem"
	"github.com/custodia-labs/catalogd/internal/adapters/driven/profiler"
	"github.com/custodia-labs/catalogd/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/catalogd/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/catalogd/internal/adapters/driving/cli"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
	"github.com/custodia-labs/catalogd/internal/core/services"
	"github.com/custodia-labs/catalogd/internal/logger"
)

// wire builds the application services from the configuration at configPath.
func wire(configPath string, networked bool) (*cli.Services, error) {
	cfg, err := file.NewConfigStore(configPath)
	if err != nil {
		return nil, err
	}
	settings := cfg.Settings()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Path(), err)
	}
	logger.Debug("Using environments in %s", settings.EnvironmentPath)

	envs, err := environments.NewStore(settings.EnvironmentPath, settings.StaticCatalogs)
	if err != nil {
		return nil, err
	}

	var (
		factStore driven.FactStore
		nodeStore driven.NodeClassificationStore
		closeFn   func() error
	)
	switch settings.StorageBackend {
	case file.BackendMemory:
		factStore = memory.NewFactStore()
		nodeStore = memory.NewNodeStore()
	default:
		store, err := sqlite.NewStore(settings.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening storage: %w", err)
		}
		logger.Debug("Using database %s", store.Path())
		factStore = store.FactStore()
		nodeStore = store.NodeStore()
		closeFn = store.Close
	}

	var nodes driven.NodeDirectory = directory.NewPlain(settings.DefaultEnvironment)
	if settings.NodeTerminus == file.TerminusStore {
		nodes = directory.NewClassified(nodeStore, settings.DefaultEnvironment)
	}

	catalog := services.NewCatalogCompiler(services.CatalogDeps{
		Decoder:      facts.NewDecoder(),
		FactStore:    factStore,
		Directory:    nodes,
		Compiler:     precompiled.New(envs),
		Metadata:     filesystem.NewSearch(settings.BaseModulePath...),
		Environments: envs,
		Profiler:     profiler.NewLogging(),
		ServerFacts:  services.CollectServerFacts(version, hostfacts.New()),
	}, services.CatalogOptions{
		Networked:     networked,
		ChecksumTypes: settings.ChecksumTypes,
	})

	return &cli.Services{
		Catalog:   catalog,
		Nodes:     services.NewNodeService(nodeStore),
		Listen:    settings.Listen,
		RateLimit: settings.RateLimit,
		Watch:     envs.Watch,
		Close:     closeFn,
	}, nil
}
