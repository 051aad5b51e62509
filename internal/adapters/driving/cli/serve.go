package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/catalogd/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/catalogd/internal/logger"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve catalogs to agents over HTTP",
	Long: `Starts the HTTP catalog endpoint for remote agents:

  GET|POST /puppet/v3/catalog/{node}
  GET      /status/v1/simple

The caller's certificate name is taken from the X-Client-Certname header set
by the TLS-terminating proxy in front of catalogd. Environments appearing or
disappearing under the environment path are picked up while serving.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "listen address (overrides server.listen)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	svc, release, err := loadServices(true)
	if err != nil {
		return err
	}
	defer release()

	server, err := httpapi.NewServer(svc.Catalog, httpapi.Options{RateLimit: svc.RateLimit})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if svc.Watch != nil {
		go func() {
			if err := svc.Watch(ctx); err != nil {
				logger.Warn("Environment watcher stopped: %v", err)
			}
		}()
	}

	addr := svc.Listen
	if serveListen != "" {
		addr = serveListen
	}
	cmd.Printf("Serving catalogs on %s\n", addr)
	return server.Run(ctx, addr)
}
