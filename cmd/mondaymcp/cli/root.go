package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mondaymcp",
	Short: "MCP server for Monday.com boards",
	Long: `mondaymcp serves Model Context Protocol tools over JSON-RPC 2.0 and
proxies them to the Monday.com GraphQL API. It can listen on HTTP or
speak line-delimited JSON-RPC on stdin/stdout.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = newLogger(os.Stderr, logFormat, verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format: json or text")
}

func newLogger(w io.Writer, format string, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
