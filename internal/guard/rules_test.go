package guard

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/tkingovr/monday-mcp/api"
)

func testPolicy() *Policy {
	return &Policy{
		DefaultAction: api.VerdictAllow,
		Rules: []Rule{
			{
				Name: "protect-archive-board",
				Match: RuleMatch{
					Method: "tools/call",
					Tool:   "change_item_column_values",
					Arguments: map[string]ArgumentMatch{
						"boardId": {Exact: "999"},
					},
				},
				Action:  "deny",
				Message: "archive board is read-only",
			},
			{
				Name: "block-script-values",
				Match: RuleMatch{
					Method: "tools/call",
					Arguments: map[string]ArgumentMatch{
						"_any_value": {Regex: `(?i)<script`},
					},
				},
				Action:  "deny",
				Message: "markup is not accepted in column values",
			},
			{
				Name:   "log-email-updates",
				Match:  RuleMatch{Tool: "update_item_email"},
				Action: "log",
			},
		},
	}
}

func newTestEngine(t *testing.T, p *Policy) *RuleEngine {
	t.Helper()
	if err := Validate(p); err != nil {
		t.Fatal(err)
	}
	engine, err := NewRuleEngine(p)
	if err != nil {
		t.Fatal(err)
	}
	return engine
}

func TestRuleEngine_DefaultAllow(t *testing.T) {
	engine := newTestEngine(t, testPolicy())

	result, err := engine.Evaluate(context.Background(), &EvalInput{Method: "initialize"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Verdict != api.VerdictAllow {
		t.Errorf("expected allow, got %s", result.Verdict)
	}
	if result.Rule != "_default" {
		t.Errorf("expected rule _default, got %s", result.Rule)
	}
}

func TestRuleEngine_ExactArgument(t *testing.T) {
	engine := newTestEngine(t, testPolicy())

	// Numeric ids compare as written.
	for _, args := range []string{`{"boardId":"999","itemId":"1"}`, `{"boardId":999,"itemId":1}`} {
		result, err := engine.Evaluate(context.Background(), &EvalInput{
			Method:    "tools/call",
			Tool:      "change_item_column_values",
			Arguments: json.RawMessage(args),
		})
		if err != nil {
			t.Fatal(err)
		}
		if result.Verdict != api.VerdictDeny {
			t.Errorf("%s: expected deny, got %s", args, result.Verdict)
		}
		if result.Rule != "protect-archive-board" {
			t.Errorf("%s: expected rule protect-archive-board, got %s", args, result.Rule)
		}
	}

	result, err := engine.Evaluate(context.Background(), &EvalInput{
		Method:    "tools/call",
		Tool:      "change_item_column_values",
		Arguments: json.RawMessage(`{"boardId":"123","itemId":"1"}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Verdict != api.VerdictAllow {
		t.Errorf("expected allow for other boards, got %s", result.Verdict)
	}
}

func TestRuleEngine_AnyValueRegex(t *testing.T) {
	engine := newTestEngine(t, testPolicy())

	result, err := engine.Evaluate(context.Background(), &EvalInput{
		Method:    "tools/call",
		Tool:      "change_item_column_values",
		Arguments: json.RawMessage(`{"itemId":"1","columnValues":{"text":"<SCRIPT>alert(1)</SCRIPT>"}}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Verdict != api.VerdictDeny || result.Rule != "block-script-values" {
		t.Errorf("expected deny by block-script-values, got %s (%s)", result.Verdict, result.Rule)
	}
}

func TestRuleEngine_ToolOnlyMatch(t *testing.T) {
	engine := newTestEngine(t, testPolicy())

	result, err := engine.Evaluate(context.Background(), &EvalInput{
		Method:    "tools/call",
		Tool:      "update_item_email",
		Arguments: json.RawMessage(`{"itemName":"Acme","email":"a@b.test"}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Verdict != api.VerdictLog {
		t.Errorf("expected log, got %s", result.Verdict)
	}
}

func TestRuleEngine_ArgumentsRequired(t *testing.T) {
	engine := newTestEngine(t, testPolicy())

	result, err := engine.Evaluate(context.Background(), &EvalInput{
		Method: "tools/call",
		Tool:   "change_item_column_values",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Verdict != api.VerdictAllow {
		t.Errorf("expected allow when arguments are missing, got %s", result.Verdict)
	}
}

func TestValidate(t *testing.T) {
	p := &Policy{}
	if err := Validate(p); err != nil {
		t.Fatal(err)
	}
	if p.DefaultAction != api.VerdictAllow {
		t.Errorf("expected default allow, got %s", p.DefaultAction)
	}

	badRegex := RuleMatch{Method: "tools/call", Arguments: map[string]ArgumentMatch{"x": {Regex: "("}}}
	invalid := map[string]*Policy{
		"bad default":  {DefaultAction: "ask"},
		"missing name": {Rules: []Rule{{Match: RuleMatch{Method: "ping"}, Action: "deny"}}},
		"bad action":   {Rules: []Rule{{Name: "r", Match: RuleMatch{Method: "ping"}, Action: "ask"}}},
		"empty match":  {Rules: []Rule{{Name: "r", Action: "deny"}}},
		"bad regex":    {Rules: []Rule{{Name: "r", Match: badRegex, Action: "deny"}}},
		"zero max":     {RateLimit: &RateLimitSettings{Global: &RateLimitRule{Max: 0, Window: "1m"}}},
		"bad window":   {RateLimit: &RateLimitSettings{PerTool: map[string]*RateLimitRule{"t": {Max: 1, Window: "soon"}}}},
	}
	for name, p := range invalid {
		if err := Validate(p); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestValidate_DuplicateRuleName(t *testing.T) {
	p := &Policy{Rules: []Rule{
		{Name: "block-search", Match: RuleMatch{Tool: "search_items"}, Action: "deny"},
		{Name: "block-search", Match: RuleMatch{Method: "ping"}, Action: "log"},
	}}
	err := Validate(p)
	if err == nil {
		t.Fatal("expected duplicate name to be rejected")
	}
	if !strings.Contains(err.Error(), "duplicate name") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_SelectsEngine(t *testing.T) {
	engine, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := engine.(*RuleEngine); !ok {
		t.Errorf("expected rule engine, got %T", engine)
	}

	engine, err = New(&Policy{OPAPolicy: "../../testdata/policies/example.rego"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := engine.(*OPAEngine); !ok {
		t.Errorf("expected OPA engine, got %T", engine)
	}

	if _, err := New(&Policy{OPAPolicy: "does-not-exist.rego"}); err == nil {
		t.Error("expected error for missing OPA policy file")
	}
}
