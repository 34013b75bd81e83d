package dispatch

import (
	"context"
	"encoding/json"

	"github.com/tkingovr/monday-mcp/api"
	"github.com/tkingovr/monday-mcp/internal/jsonrpc"
)

func (d *Dispatcher) initialize(_ context.Context, msg *api.JSONRPCMessage) (any, error) {
	version := d.opts.ProtocolVersion

	// Params that do not decode are ignored; initialize never fails.
	var params api.InitializeParams
	if len(msg.Params) > 0 && msg.Params[0] == '{' {
		if err := json.Unmarshal(msg.Params, &params); err == nil && params.ProtocolVersion != "" {
			version = params.ProtocolVersion
		}
	}
	if params.ClientInfo != nil {
		d.logger.Info("client initializing",
			"client", params.ClientInfo.Name,
			"client_version", params.ClientInfo.Version,
			"protocol_version", version,
		)
	}

	return api.InitializeResult{
		ProtocolVersion: version,
		Capabilities: api.Capabilities{
			Tools: &api.ToolsCapability{ListChanged: false},
		},
		ServerInfo: api.Implementation{
			Name:    d.opts.ServerName,
			Version: d.opts.ServerVersion,
		},
		Instructions: d.opts.Instructions,
	}, nil
}

func (d *Dispatcher) initialized(ctx context.Context, _ *api.JSONRPCMessage) (any, error) {
	if d.opts.OnInitialized != nil {
		go d.opts.OnInitialized(context.WithoutCancel(ctx))
	}
	return struct{}{}, nil
}

func (d *Dispatcher) ping(context.Context, *api.JSONRPCMessage) (any, error) {
	return struct{}{}, nil
}

func (d *Dispatcher) listTools(context.Context, *api.JSONRPCMessage) (any, error) {
	return d.toolsList, nil
}

func (d *Dispatcher) callTool(ctx context.Context, msg *api.JSONRPCMessage) (any, error) {
	call, rpcErr := jsonrpc.ExtractToolCall(msg)
	if rpcErr != nil {
		return nil, rpcErr
	}
	res, rpcErr := d.tools.Call(ctx, call.Name, call.Arguments)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return res, nil
}
