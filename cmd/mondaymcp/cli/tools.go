package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tkingovr/monday-mcp/api"
	"github.com/tkingovr/monday-mcp/internal/jsonrpc"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool descriptors served by tools/list",
	Args:  cobra.NoArgs,
	RunE:  runTools,
}

var (
	callTool string
	callArgs string
)

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Invoke one tool without starting a server",
	Long: `Send a single tools/call request through the dispatcher, with the
configured guard and audit filters, and print the JSON-RPC response.`,
	Example: `  mondaymcp call --tool get_board_schema --args '{"boardId":"123456"}'
  mondaymcp call --tool get_board_items_by_name --args '{"term":"Alice"}'`,
	Args: cobra.NoArgs,
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVar(&callTool, "tool", "", "tool name")
	callCmd.Flags().StringVar(&callArgs, "args", "{}", "JSON arguments")
	_ = callCmd.MarkFlagRequired("tool")
	rootCmd.AddCommand(toolsCmd, callCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, quietLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(api.ToolsListResult{Tools: a.dispatcher.Tools().Descriptors()})
}

func runCall(cmd *cobra.Command, args []string) error {
	if !json.Valid([]byte(callArgs)) {
		return fmt.Errorf("--args is not valid JSON")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	params, err := json.Marshal(api.ToolCallParams{Name: callTool, Arguments: json.RawMessage(callArgs)})
	if err != nil {
		return err
	}
	req, err := json.Marshal(api.JSONRPCMessage{
		JSONRPC: api.JSONRPCVersion,
		ID:      json.RawMessage("1"),
		Method:  "tools/call",
		Params:  params,
	})
	if err != nil {
		return err
	}

	reply := a.dispatcher.Handle(cmd.Context(), req, api.TransportCLI)

	var out any
	if err := json.Unmarshal(reply.Body, &out); err != nil {
		return fmt.Errorf("decoding reply: %w", err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	if reply.Code != 0 {
		return fmt.Errorf("tool call failed: %s", jsonrpc.CodeName(reply.Code))
	}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
