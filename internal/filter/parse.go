package filter

import (
	"context"

	"github.com/tkingovr/monday-mcp/internal/jsonrpc"
)

// ParseFilter validates the envelope and extracts method, tool, and arguments.
// Invalid envelopes halt the message with the validation error.
type ParseFilter struct{}

func NewParseFilter() *ParseFilter { return &ParseFilter{} }
func (f *ParseFilter) Name() string { return "parse" }

func (f *ParseFilter) Process(_ context.Context, fc *FilterContext) error {
	msg, rpcErr := jsonrpc.Parse(fc.Raw)
	fc.Message = msg
	if rpcErr != nil {
		fc.Fail(rpcErr)
		return nil
	}
	fc.Method = msg.Method
	fc.Notification = jsonrpc.IsNotification(msg)

	// Malformed tools/call params are reported by the handler, not here.
	if msg.Method == "tools/call" {
		if tc, err := jsonrpc.ExtractToolCall(msg); err == nil {
			fc.Tool = tc.Name
			fc.Arguments = tc.Arguments
		}
	}

	return nil
}
