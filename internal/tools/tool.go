// Package tools holds the tools exposed through tools/list and tools/call.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tkingovr/monday-mcp/api"
	"github.com/tkingovr/monday-mcp/internal/jsonrpc"
)

// Tool is a named operation callable through tools/call.
type Tool interface {
	// Descriptor returns the static tools/list entry.
	Descriptor() api.ToolDescriptor

	// Decode validates raw arguments into the tool's input type.
	Decode(args json.RawMessage) (any, error)

	// Execute runs the tool against a decoded input.
	Execute(ctx context.Context, input any) (any, error)
}

// ArgumentError reports a missing or malformed tool argument.
type ArgumentError struct {
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Field == "" {
		return "invalid arguments: " + e.Reason
	}
	return fmt.Sprintf("invalid arguments: %s %s", e.Field, e.Reason)
}

func argError(field, reason string) error {
	return &ArgumentError{Field: field, Reason: reason}
}

// Registry is an immutable set of tools keyed by name.
type Registry struct {
	tools       map[string]Tool
	descriptors []api.ToolDescriptor
}

// NewRegistry builds a registry. Tool names must be unique and non-empty.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		d := t.Descriptor()
		if d.Name == "" {
			return nil, errors.New("tool with empty name")
		}
		if _, exists := r.tools[d.Name]; exists {
			return nil, fmt.Errorf("duplicate tool %q", d.Name)
		}
		r.tools[d.Name] = t
		r.descriptors = append(r.descriptors, d)
	}
	return r, nil
}

// Descriptors returns the tools/list entries in registration order. The
// returned slice is a copy; the descriptors themselves must not be modified.
func (r *Registry) Descriptors() []api.ToolDescriptor {
	out := make([]api.ToolDescriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		names = append(names, d.Name)
	}
	return names
}

// Call decodes args, executes the named tool, and wraps the payload as text
// content. Failures are classified into JSON-RPC errors: unknown tools are
// method-not-found, argument problems are invalid-params, collaborator failures
// are application errors.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (*api.ToolResult, *jsonrpc.Error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, jsonrpc.Errorf(jsonrpc.CodeMethodNotFound, "tool not found: %s", name)
	}

	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	input, err := t.Decode(args)
	if err != nil {
		return nil, classify(err, jsonrpc.CodeInvalidParams)
	}

	out, err := t.Execute(ctx, input)
	if err != nil {
		return nil, classify(err, jsonrpc.CodeApplication)
	}

	text, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, jsonrpc.Errorf(jsonrpc.CodeInternalError, "internal error: encoding %s result: %v", name, err)
	}
	return api.TextResult(string(text)), nil
}

func classify(err error, fallback int) *jsonrpc.Error {
	var rpcErr *jsonrpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return &jsonrpc.Error{Code: jsonrpc.CodeInvalidParams, Message: err.Error()}
	}
	return &jsonrpc.Error{Code: fallback, Message: err.Error()}
}

// ID is a Monday.com object id. It decodes from a JSON number or a numeric string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	}
	if s == "" {
		*id = ""
		return nil
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return fmt.Errorf("%q is not a numeric id", s)
		}
	}
	*id = ID(s)
	return nil
}

// decodeArgs unmarshals args into v, mapping type errors to ArgumentError.
func decodeArgs(args json.RawMessage, v any) error {
	if err := json.Unmarshal(args, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return argError(typeErr.Field, "has the wrong type")
		}
		return argError("", err.Error())
	}
	return nil
}
