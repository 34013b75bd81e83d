package jsonrpc

import (
	"errors"
	"fmt"

	"github.com/tkingovr/monday-mcp/api"
)

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// CodeApplication is returned when the Monday.com collaborator reports a failure.
const CodeApplication = -32000

// CodeRequestDenied is returned when the guard policy or a rate limit rejects a request.
const CodeRequestDenied = -32001

// Error is a protocol-level error carrying a JSON-RPC error code.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Object converts the error to its wire form.
func (e *Error) Object() *api.JSONRPCError {
	return &api.JSONRPCError{Code: e.Code, Message: e.Message}
}

// Errorf builds an Error with a formatted message.
func Errorf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsError maps any error to a protocol error. Errors that already carry a code
// keep it; everything else becomes an internal error.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return &Error{Code: CodeInternalError, Message: err.Error()}
}

// CodeName returns the conventional name of a code, for logs.
func CodeName(code int) string {
	switch code {
	case CodeParseError:
		return "parse_error"
	case CodeInvalidRequest:
		return "invalid_request"
	case CodeMethodNotFound:
		return "method_not_found"
	case CodeInvalidParams:
		return "invalid_params"
	case CodeInternalError:
		return "internal_error"
	case CodeApplication:
		return "application_error"
	case CodeRequestDenied:
		return "request_denied"
	default:
		return "unknown"
	}
}
