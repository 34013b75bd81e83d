package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tkingovr/monday-mcp/internal/stdio"
)

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve JSON-RPC over stdin/stdout",
	Long: `Read one JSON-RPC message per line from stdin and write each reply as
one line on stdout. Logs go to stderr.`,
	Example: `  mondaymcp stdio -c monday-mcp.yaml`,
	Args:    cobra.NoArgs,
	RunE:    runStdio,
}

func init() {
	rootCmd.AddCommand(stdioCmd)
}

func runStdio(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = stdio.NewServer(a.dispatcher, logger).Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
