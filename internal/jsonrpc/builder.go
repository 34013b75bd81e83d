package jsonrpc

import (
	"encoding/json"

	"github.com/tkingovr/monday-mcp/api"
)

// NewResult creates a success response. A result that cannot be encoded turns
// into an internal error response.
func NewResult(id json.RawMessage, result any) *api.JSONRPCResponse {
	data, err := json.Marshal(result)
	if err != nil {
		return NewErrorResponse(id, Errorf(CodeInternalError, "internal error: encoding result: %v", err))
	}
	return &api.JSONRPCResponse{
		JSONRPC: api.JSONRPCVersion,
		ID:      responseID(id),
		Result:  data,
	}
}

// NewErrorResponse creates an error response for the given id.
func NewErrorResponse(id json.RawMessage, e *Error) *api.JSONRPCResponse {
	return &api.JSONRPCResponse{
		JSONRPC: api.JSONRPCVersion,
		ID:      responseID(id),
		Error:   e.Object(),
	}
}

// NewNullResult creates the `{"jsonrpc":"2.0","id":null,"result":null}` envelope
// used to acknowledge notifications in full-envelope mode.
func NewNullResult() *api.JSONRPCResponse {
	return &api.JSONRPCResponse{
		JSONRPC: api.JSONRPCVersion,
		ID:      api.NullID,
		Result:  json.RawMessage("null"),
	}
}

// Marshal encodes a response to JSON bytes.
func Marshal(resp *api.JSONRPCResponse) ([]byte, error) {
	return json.Marshal(resp)
}

func responseID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return api.NullID
	}
	return id
}
