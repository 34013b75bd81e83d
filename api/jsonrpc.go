package api

import "encoding/json"

// JSONRPCVersion is the only protocol version the server accepts.
const JSONRPCVersion = "2.0"

// NullID is the id written on responses to requests whose id is unknown.
var NullID = json.RawMessage("null")

// JSONRPCMessage represents an inbound JSON-RPC 2.0 message (request or notification).
//
// ID is nil when the member was absent and "null" when it was explicitly null.
type JSONRPCMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse is an outbound JSON-RPC 2.0 response. Exactly one of
// Result and Error is set.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ToolCallParams extracts tool name and arguments from a tools/call request.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}
