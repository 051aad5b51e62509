// Command catalogd compiles node catalogs for configuration management agents.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/catalogd/internal/adapters/driving/cli"
	"github.com/custodia-labs/catalogd/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(wire)

	if err := cli.Execute(ctx); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}
