package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tkingovr/monday-mcp/api"
	"github.com/tkingovr/monday-mcp/internal/guard"
	"github.com/tkingovr/monday-mcp/internal/jsonrpc"
)

var (
	checkMethod    string
	checkTool      string
	checkArgs      string
	checkTransport string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Dry-run a guard check without a running server",
	Long: `Check what verdict a request would receive from the configured guard
policy. Useful for testing and debugging rules.`,
	Example: `  mondaymcp check -c monday-mcp.yaml --method tools/call --tool change_item_column_values
  mondaymcp check -c monday-mcp.yaml --method initialize`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkMethod, "method", "", "JSON-RPC method to check")
	checkCmd.Flags().StringVar(&checkTool, "tool", "", "tool name (for tools/call)")
	checkCmd.Flags().StringVar(&checkArgs, "args", "", "JSON arguments")
	checkCmd.Flags().StringVar(&checkTransport, "transport", string(api.TransportHTTP), "transport to evaluate for: http, stdio or cli")
	_ = checkCmd.MarkFlagRequired("method")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, err := guard.New(cfg.Guard)
	if err != nil {
		return fmt.Errorf("creating guard engine: %w", err)
	}

	input := &guard.EvalInput{
		Method:       checkMethod,
		Tool:         checkTool,
		Notification: strings.HasPrefix(checkMethod, jsonrpc.NotificationPrefix),
		Transport:    api.Transport(checkTransport),
	}
	if checkArgs != "" {
		if !json.Valid([]byte(checkArgs)) {
			return fmt.Errorf("--args is not valid JSON")
		}
		input.Arguments = json.RawMessage(checkArgs)
	}

	result, err := engine.Evaluate(cmd.Context(), input)
	if err != nil {
		return fmt.Errorf("evaluation error: %w", err)
	}

	output := api.CheckResponse{
		Verdict: result.Verdict,
		Rule:    result.Rule,
		Message: result.Message,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
