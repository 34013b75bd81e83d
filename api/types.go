package api

import (
	"encoding/json"
	"time"
)

// Verdict represents the outcome of a guard evaluation.
type Verdict string

const (
	VerdictAllow Verdict = "allow"
	VerdictDeny  Verdict = "deny"
	VerdictLog   Verdict = "log"
)

// Transport names the channel a message arrived on.
type Transport string

const (
	TransportHTTP  Transport = "http"
	TransportStdio Transport = "stdio"
	TransportCLI   Transport = "cli"
)

// AuditRecord represents a single handled JSON-RPC message.
type AuditRecord struct {
	ID           string          `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	Transport    Transport       `json:"transport"`
	Method       string          `json:"method,omitempty"`
	Tool         string          `json:"tool,omitempty"`
	RequestID    json.RawMessage `json:"request_id,omitempty"`
	Arguments    json.RawMessage `json:"arguments,omitempty"`
	Notification bool            `json:"notification,omitempty"`
	Verdict      Verdict         `json:"verdict"`
	Rule         string          `json:"rule,omitempty"`
	Code         int             `json:"code,omitempty"`
	Message      string          `json:"message,omitempty"`
	RawSize      int             `json:"raw_size,omitempty"`
	Duration     time.Duration   `json:"duration,omitempty"`
}

// CheckRequest is used by the CLI `check` command.
type CheckRequest struct {
	Method    string          `json:"method"`
	Tool      string          `json:"tool,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CheckResponse is the result of a guard check.
type CheckResponse struct {
	Verdict Verdict `json:"verdict"`
	Rule    string  `json:"rule,omitempty"`
	Message string  `json:"message,omitempty"`
}
