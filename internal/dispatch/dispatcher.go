// Package dispatch routes validated JSON-RPC messages to method handlers and
// shapes the reply, independent of the transport that carried them.
package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"runtime/debug"
	"sort"
	"time"

	"github.com/tkingovr/monday-mcp/api"
	"github.com/tkingovr/monday-mcp/internal/filter"
	"github.com/tkingovr/monday-mcp/internal/jsonrpc"
	"github.com/tkingovr/monday-mcp/internal/tools"
)

// DefaultProtocolVersion is answered to initialize requests that do not name one.
const DefaultProtocolVersion = "2024-11-05"

// Handler serves one JSON-RPC method. Errors are mapped with jsonrpc.AsError.
type Handler func(ctx context.Context, msg *api.JSONRPCMessage) (any, error)

// Options configure a Dispatcher.
type Options struct {
	ServerName      string
	ServerVersion   string
	ProtocolVersion string
	Instructions    string
	Mode            NotificationMode

	// Inbound runs before dispatch and must start with a filter.ParseFilter.
	// Defaults to a parse-only chain.
	Inbound *filter.Chain
	// Outbound runs after dispatch, once the outcome is known.
	Outbound *filter.Chain

	// OnInitialized runs in the background when notifications/initialized arrives.
	OnInitialized func(ctx context.Context)

	Logger *slog.Logger
}

// Reply is the outcome of handling one message.
type Reply struct {
	// Body is the encoded response. It is nil when nothing must be written.
	Body []byte
	// Notification is set when the message was notification-shaped.
	Notification bool
	// Code is the JSON-RPC error code, or zero on success.
	Code int
}

// Dispatcher routes messages by exact method name. It is immutable after New
// and safe for concurrent use.
type Dispatcher struct {
	handlers map[string]Handler
	tools    *tools.Registry
	opts     Options
	logger   *slog.Logger

	inbound   *filter.Chain
	outbound  *filter.Chain
	toolsList json.RawMessage
}

// New builds a dispatcher serving the given tools.
func New(registry *tools.Registry, opts Options) (*Dispatcher, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.ProtocolVersion == "" {
		opts.ProtocolVersion = DefaultProtocolVersion
	}
	if opts.Mode == "" {
		opts.Mode = DefaultNotificationMode
	}
	if opts.Inbound == nil {
		opts.Inbound = filter.NewChain(opts.Logger, filter.NewParseFilter())
	}
	if opts.Outbound == nil {
		opts.Outbound = filter.NewChain(opts.Logger)
	}

	// tools/list is encoded once so every call returns identical bytes.
	toolsList, err := json.Marshal(api.ToolsListResult{Tools: registry.Descriptors()})
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		tools:     registry,
		opts:      opts,
		logger:    opts.Logger,
		inbound:   opts.Inbound,
		outbound:  opts.Outbound,
		toolsList: toolsList,
	}
	d.handlers = map[string]Handler{
		"initialize":                d.initialize,
		"notifications/initialized": d.initialized,
		"ping":                      d.ping,
		"tools/list":                d.listTools,
		"tools/call":                d.callTool,
	}
	return d, nil
}

// Tools returns the tool registry.
func (d *Dispatcher) Tools() *tools.Registry {
	return d.tools
}

// Methods returns the routed method names, sorted.
func (d *Dispatcher) Methods() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mode returns the notification acknowledgment mode.
func (d *Dispatcher) Mode() NotificationMode {
	return d.opts.Mode
}

// Handle validates, guards, dispatches, and audits one raw message. It never
// panics and always returns a well-formed reply.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte, transport api.Transport) Reply {
	fc := filter.NewFilterContext(raw, transport)

	if err := d.inbound.Process(ctx, fc); err != nil {
		d.logger.Error("inbound filters failed", "method", fc.Method, "error", err)
		fc.Fail(jsonrpc.Errorf(jsonrpc.CodeInternalError, "internal error"))
	}
	if fc.Message == nil && !fc.Halted {
		d.logger.Error("inbound chain did not parse the message")
		fc.Fail(jsonrpc.Errorf(jsonrpc.CodeInternalError, "internal error"))
	}

	var result json.RawMessage
	if !fc.Halted {
		var rpcErr *jsonrpc.Error
		result, rpcErr = d.invoke(ctx, fc.Message)
		if rpcErr != nil {
			fc.Error = rpcErr
		}
	}

	if err := d.outbound.Process(ctx, fc); err != nil {
		d.logger.Warn("outbound filters failed", "method", fc.Method, "error", err)
	}

	reply := d.reply(fc, result)
	d.log(fc, reply)
	return reply
}

func (d *Dispatcher) reply(fc *filter.FilterContext, result json.RawMessage) Reply {
	if fc.Notification {
		r := Reply{Body: d.opts.Mode.ack(), Notification: true}
		if fc.Error != nil {
			r.Code = fc.Error.Code
		}
		return r
	}

	var resp *api.JSONRPCResponse
	if fc.Error != nil {
		resp = jsonrpc.NewErrorResponse(fc.RequestID(), fc.Error)
	} else {
		resp = jsonrpc.NewResult(fc.RequestID(), result)
	}
	body, err := jsonrpc.Marshal(resp)
	if err != nil {
		d.logger.Error("encoding response", "method", fc.Method, "error", err)
		resp = jsonrpc.NewErrorResponse(fc.RequestID(), jsonrpc.Errorf(jsonrpc.CodeInternalError, "internal error"))
		body, _ = jsonrpc.Marshal(resp)
	}

	r := Reply{Body: body}
	if resp.Error != nil {
		r.Code = resp.Error.Code
	}
	return r
}

// invoke runs the handler for msg, converting panics and errors to protocol
// errors. The result is encoded here so encoding failures are reported as
// internal errors.
func (d *Dispatcher) invoke(ctx context.Context, msg *api.JSONRPCMessage) (result json.RawMessage, rpcErr *jsonrpc.Error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panic",
				"method", msg.Method,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			result, rpcErr = nil, jsonrpc.Errorf(jsonrpc.CodeInternalError, "internal error")
		}
	}()

	h, ok := d.handlers[msg.Method]
	if !ok {
		return nil, jsonrpc.Errorf(jsonrpc.CodeMethodNotFound, "method not found: %s", msg.Method)
	}

	out, err := h(ctx, msg)
	if err != nil {
		return nil, jsonrpc.AsError(err)
	}
	if raw, ok := out.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, jsonrpc.Errorf(jsonrpc.CodeInternalError, "internal error: encoding %s result: %v", msg.Method, err)
	}
	return data, nil
}

func (d *Dispatcher) log(fc *filter.FilterContext, reply Reply) {
	attrs := []any{
		"method", fc.Method,
		"transport", fc.Transport,
		"duration", time.Since(fc.StartTime),
	}
	if fc.Tool != "" {
		attrs = append(attrs, "tool", fc.Tool)
	}
	if fc.Notification {
		attrs = append(attrs, "notification", true)
	}
	if fc.Error == nil {
		d.logger.Debug("message handled", attrs...)
		return
	}
	attrs = append(attrs, "code", fc.Error.Code, "error", fc.Error.Message)
	if fc.Error.Code == jsonrpc.CodeInternalError {
		d.logger.Error("message failed", attrs...)
		return
	}
	d.logger.Warn("message failed", attrs...)
}
