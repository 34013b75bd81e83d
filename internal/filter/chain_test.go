package filter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/tkingovr/monday-mcp/api"
	"github.com/tkingovr/monday-mcp/internal/audit"
	"github.com/tkingovr/monday-mcp/internal/guard"
	"github.com/tkingovr/monday-mcp/internal/jsonrpc"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, p *guard.Policy) guard.Engine {
	t.Helper()
	engine, err := guard.New(p)
	if err != nil {
		t.Fatal(err)
	}
	return engine
}

func TestFilterChain_ParseAndGuard(t *testing.T) {
	engine := newTestEngine(t, &guard.Policy{
		Rules: []guard.Rule{
			{
				Name:    "read-only",
				Match:   guard.RuleMatch{Tool: "change_item_column_values"},
				Action:  "deny",
				Message: "board writes are disabled",
			},
		},
	})
	chain := BuildInboundChain(ChainConfig{Engine: engine, Logger: newTestLogger()})

	raw := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_board_schema","arguments":{"boardId":"123"}}}`)
	fc := NewFilterContext(raw, api.TransportHTTP)
	if err := chain.Process(context.Background(), fc); err != nil {
		t.Fatal(err)
	}
	if fc.Verdict != api.VerdictAllow {
		t.Errorf("expected allow, got %s", fc.Verdict)
	}
	if fc.Halted {
		t.Error("expected not halted for allow")
	}
	if fc.Tool != "get_board_schema" {
		t.Errorf("expected tool get_board_schema, got %q", fc.Tool)
	}
	if string(fc.Arguments) != `{"boardId":"123"}` {
		t.Errorf("unexpected arguments %s", fc.Arguments)
	}

	raw = []byte(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"change_item_column_values","arguments":{}}}`)
	fc = NewFilterContext(raw, api.TransportHTTP)
	if err := chain.Process(context.Background(), fc); err != nil {
		t.Fatal(err)
	}
	if fc.Verdict != api.VerdictDeny {
		t.Errorf("expected deny, got %s", fc.Verdict)
	}
	if !fc.Halted {
		t.Error("expected halted for deny")
	}
	if fc.Error == nil || fc.Error.Code != jsonrpc.CodeRequestDenied {
		t.Fatalf("expected request-denied error, got %v", fc.Error)
	}
	if fc.Error.Message != "request denied: board writes are disabled" {
		t.Errorf("unexpected message %q", fc.Error.Message)
	}
}

func TestFilterChain_InvalidEnvelope(t *testing.T) {
	chain := BuildInboundChain(ChainConfig{
		Engine: newTestEngine(t, &guard.Policy{DefaultAction: api.VerdictDeny}),
		Logger: newTestLogger(),
	})

	fc := NewFilterContext([]byte(`{"jsonrpc":"1.0","id":"abc","method":"ping"}`), api.TransportHTTP)
	if err := chain.Process(context.Background(), fc); err != nil {
		t.Fatal(err)
	}
	if fc.Error == nil || fc.Error.Code != jsonrpc.CodeInvalidRequest {
		t.Fatalf("expected invalid request, got %v", fc.Error)
	}
	if string(fc.RequestID()) != `"abc"` {
		t.Errorf("expected id kept, got %s", fc.RequestID())
	}
	// The guard does not overwrite envelope errors.
	if fc.Verdict != api.VerdictAllow {
		t.Errorf("expected guard skipped, got verdict %s", fc.Verdict)
	}
}

func TestFilterChain_Notification(t *testing.T) {
	chain := BuildInboundChain(ChainConfig{Logger: newTestLogger()})

	fc := NewFilterContext([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`), api.TransportStdio)
	if err := chain.Process(context.Background(), fc); err != nil {
		t.Fatal(err)
	}
	if !fc.Notification {
		t.Error("expected notification")
	}
	if fc.Halted {
		t.Error("notification should not be halted")
	}
}

func TestFilterChain_MalformedToolCallPassesThrough(t *testing.T) {
	chain := BuildInboundChain(ChainConfig{Logger: newTestLogger()})

	fc := NewFilterContext([]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`), api.TransportHTTP)
	if err := chain.Process(context.Background(), fc); err != nil {
		t.Fatal(err)
	}
	if fc.Halted || fc.Tool != "" {
		t.Errorf("expected pass-through without tool, got halted=%v tool=%q", fc.Halted, fc.Tool)
	}
}

func TestFilterChain_OutboundRedactsAndAudits(t *testing.T) {
	store := audit.NewMemoryStore()
	defer store.Close()
	chain := BuildOutboundChain(ChainConfig{AuditStore: store, Logger: newTestLogger(), Redact: true})

	raw := []byte(`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"get_board_schema"}}`)
	fc := NewFilterContext(raw, api.TransportHTTP)
	if err := NewParseFilter().Process(context.Background(), fc); err != nil {
		t.Fatal(err)
	}
	fc.Error = jsonrpc.Errorf(jsonrpc.CodeApplication, "monday api: token %s is invalid", testJWT)

	if err := chain.Process(context.Background(), fc); err != nil {
		t.Fatal(err)
	}

	records, err := store.Query(context.Background(), api.QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Code != jsonrpc.CodeApplication || r.Tool != "get_board_schema" || string(r.RequestID) != "7" {
		t.Errorf("unexpected record %+v", r)
	}
	if r.Message != "monday api: token [REDACTED] is invalid" {
		t.Errorf("expected redacted message, got %q", r.Message)
	}
}

type failingFilter struct{}

func (failingFilter) Name() string { return "failing" }
func (failingFilter) Process(context.Context, *FilterContext) error {
	return errors.New("boom")
}

func TestFilterChain_ErrorAborts(t *testing.T) {
	store := audit.NewMemoryStore()
	chain := NewChain(newTestLogger(), failingFilter{}, NewAuditFilter(store))

	err := chain.Process(context.Background(), NewFilterContext(nil, api.TransportCLI))
	if err == nil || err.Error() != `filter "failing": boom` {
		t.Fatalf("unexpected error %v", err)
	}
	stats, _ := store.Stats(context.Background())
	if stats.TotalRequests != 0 {
		t.Error("audit should not run after an aborting filter")
	}
}

func TestFilterContext_ToAuditRecord(t *testing.T) {
	raw := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_board_schema","arguments":{"boardId":1}}}`)
	fc := NewFilterContext(raw, api.TransportStdio)
	fc.Message = &api.JSONRPCMessage{ID: json.RawMessage(`1`)}
	fc.Method = "tools/call"
	fc.Tool = "get_board_schema"
	fc.Arguments = json.RawMessage(`{"boardId":1}`)
	fc.MatchedRule = "test-rule"

	record := fc.ToAuditRecord()
	if record.Method != "tools/call" {
		t.Errorf("expected method tools/call, got %s", record.Method)
	}
	if record.Tool != "get_board_schema" {
		t.Errorf("expected tool get_board_schema, got %s", record.Tool)
	}
	if record.Transport != api.TransportStdio {
		t.Errorf("expected transport stdio, got %s", record.Transport)
	}
	if record.Verdict != api.VerdictAllow {
		t.Errorf("expected allow, got %s", record.Verdict)
	}
	if record.Code != 0 {
		t.Errorf("expected no code, got %d", record.Code)
	}
	if record.RawSize != len(raw) {
		t.Errorf("expected raw size %d, got %d", len(raw), record.RawSize)
	}
}
