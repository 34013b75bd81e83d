package jsonrpc

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tkingovr/monday-mcp/api"
)

// NotificationPrefix marks methods that are one-way events regardless of id.
const NotificationPrefix = "notifications/"

// Parse validates a raw body as a single JSON-RPC 2.0 request envelope.
//
// On envelope errors the returned message is still non-nil whenever the body was
// a JSON object, and carries the caller's id if that id was well formed, so the
// error response can be correlated. Parse never panics.
func Parse(data []byte) (*api.JSONRPCMessage, *Error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, Errorf(CodeParseError, "parse error: empty body")
	}
	if !json.Valid(data) {
		return nil, Errorf(CodeParseError, "parse error: body is not valid JSON")
	}
	switch data[0] {
	case '{':
	case '[':
		return nil, Errorf(CodeInvalidRequest, "invalid request: batch requests are not supported")
	default:
		return nil, Errorf(CodeInvalidRequest, "invalid request: expected a JSON object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, Errorf(CodeParseError, "parse error: %v", err)
	}

	msg := &api.JSONRPCMessage{}
	rawID, hasID := fields["id"]
	idValid := true
	if hasID {
		if validID(rawID) {
			msg.ID = bytes.TrimSpace(rawID)
		} else {
			idValid = false
		}
	}

	var version string
	if raw, ok := fields["jsonrpc"]; !ok || json.Unmarshal(raw, &version) != nil || version != api.JSONRPCVersion {
		return msg, Errorf(CodeInvalidRequest, "invalid request: jsonrpc must be %q", api.JSONRPCVersion)
	}
	msg.JSONRPC = version

	if !idValid {
		return msg, Errorf(CodeInvalidRequest, "invalid request: id must be a string, number, or null")
	}

	raw, ok := fields["method"]
	if !ok || json.Unmarshal(raw, &msg.Method) != nil || msg.Method == "" {
		return msg, Errorf(CodeInvalidRequest, "invalid request: method must be a non-empty string")
	}

	if params, ok := fields["params"]; ok {
		params = bytes.TrimSpace(params)
		switch {
		case bytes.Equal(params, []byte("null")):
		case params[0] == '{' || params[0] == '[':
			msg.Params = params
		default:
			return msg, Errorf(CodeInvalidRequest, "invalid request: params must be an object or array")
		}
	}

	return msg, nil
}

func validID(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch v.(type) {
	case nil, string, float64:
		return true
	default:
		return false
	}
}

// IsNotification reports whether msg is a one-way message: it either has no id
// member, or its method lives under the notifications/ namespace.
func IsNotification(msg *api.JSONRPCMessage) bool {
	if msg == nil {
		return false
	}
	return msg.ID == nil || strings.HasPrefix(msg.Method, NotificationPrefix)
}

// ExtractToolCall extracts tool name and arguments from a tools/call request.
func ExtractToolCall(msg *api.JSONRPCMessage) (*api.ToolCallParams, *Error) {
	if len(msg.Params) == 0 || msg.Params[0] != '{' {
		return nil, Errorf(CodeInvalidParams, "invalid params: tools/call requires an object with a name")
	}
	var params api.ToolCallParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, Errorf(CodeInvalidParams, "invalid params: %v", err)
	}
	if params.Name == "" {
		return nil, Errorf(CodeInvalidParams, "invalid params: missing tool name")
	}
	if args := bytes.TrimSpace(params.Arguments); bytes.Equal(args, []byte("null")) {
		params.Arguments = nil
	}
	return &params, nil
}
