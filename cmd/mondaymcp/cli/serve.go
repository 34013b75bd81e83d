package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tkingovr/monday-mcp/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve JSON-RPC over HTTP",
	Long: `Start the HTTP server. JSON-RPC is accepted on POST / and POST /mcp;
GET /health, GET /stats and GET /audit/stream expose server state.`,
	Example: `  mondaymcp serve
  mondaymcp serve -c monday-mcp.yaml -l :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "listen address (overrides config and PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Listen = serveListen
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := server.Options{
		Addr:            cfg.Listen,
		Version:         version,
		ProtocolVersion: cfg.ProtocolVersion,
		AllowedOrigins:  cfg.AllowedOrigins,
		TokenConfigured: a.client.Configured(),
		Audit:           a.store,
		Logger:          logger,
	}
	if a.cache != nil {
		opts.Board = a.cache
	}

	err = server.New(a.dispatcher, opts).ListenAndServe(ctx)
	logger.Info("shutting down")
	return err
}
