package filter

import (
	"encoding/json"
	"time"

	"github.com/tkingovr/monday-mcp/api"
	"github.com/tkingovr/monday-mcp/internal/jsonrpc"
)

// FilterContext carries all metadata through the filter chains for a single message.
type FilterContext struct {
	// Raw is the original request body.
	Raw []byte

	// Message is the parsed envelope. It may be set even when parsing failed,
	// to carry the caller's id.
	Message *api.JSONRPCMessage

	// Transport is the channel the message arrived on.
	Transport api.Transport

	// Method is the JSON-RPC method (extracted by ParseFilter).
	Method string

	// Tool is the tool name for tools/call requests (extracted by ParseFilter).
	Tool string

	// Arguments is the raw JSON arguments for tools/call requests.
	Arguments json.RawMessage

	// Notification is set for messages that must not receive a response.
	Notification bool

	// Verdict is set by the GuardFilter and RateLimitFilter.
	Verdict api.Verdict

	// MatchedRule is the name of the rule that matched.
	MatchedRule string

	// VerdictMessage is the human-readable message from the matched rule.
	VerdictMessage string

	// Error is the protocol error the message is answered with, if any.
	Error *jsonrpc.Error

	// StartTime records when the message entered the pipeline.
	StartTime time.Time

	// Halted indicates the message must not reach a handler.
	Halted bool
}

// NewFilterContext creates a new FilterContext for a raw message.
func NewFilterContext(raw []byte, transport api.Transport) *FilterContext {
	return &FilterContext{
		Raw:       raw,
		Transport: transport,
		Verdict:   api.VerdictAllow,
		StartTime: time.Now(),
	}
}

// RequestID returns the caller's id, or nil when there is none.
func (fc *FilterContext) RequestID() json.RawMessage {
	if fc.Message == nil {
		return nil
	}
	return fc.Message.ID
}

// Fail halts the message with a protocol error.
func (fc *FilterContext) Fail(e *jsonrpc.Error) {
	fc.Error = e
	fc.Halted = true
}

// Deny halts the message on a policy decision.
func (fc *FilterContext) Deny(rule, message string) {
	fc.Verdict = api.VerdictDeny
	fc.MatchedRule = rule
	fc.VerdictMessage = message
	if message == "" {
		message = "rule " + rule
	}
	fc.Fail(jsonrpc.Errorf(jsonrpc.CodeRequestDenied, "request denied: %s", message))
}

// ToAuditRecord converts the filter context into an audit record.
func (fc *FilterContext) ToAuditRecord() *api.AuditRecord {
	r := &api.AuditRecord{
		Timestamp:    fc.StartTime,
		Transport:    fc.Transport,
		Method:       fc.Method,
		Tool:         fc.Tool,
		RequestID:    fc.RequestID(),
		Arguments:    fc.Arguments,
		Notification: fc.Notification,
		Verdict:      fc.Verdict,
		Rule:         fc.MatchedRule,
		Message:      fc.VerdictMessage,
		RawSize:      len(fc.Raw),
		Duration:     time.Since(fc.StartTime),
	}
	if fc.Error != nil {
		r.Code = fc.Error.Code
		r.Message = fc.Error.Message
	}
	return r
}
