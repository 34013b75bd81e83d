package jsonrpc

import (
	"encoding/json"
	"testing"
)

func TestParse_ValidRequest(t *testing.T) {
	data := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_board_schema","arguments":{"boardId":123}}}`)
	msg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Method != "tools/call" {
		t.Errorf("expected method tools/call, got %q", msg.Method)
	}
	if string(msg.ID) != "1" {
		t.Errorf("expected id 1, got %s", msg.ID)
	}
	if IsNotification(msg) {
		t.Error("expected IsNotification() to be false")
	}
}

func TestParse_Notification(t *testing.T) {
	data := []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	msg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !IsNotification(msg) {
		t.Error("expected notification shape")
	}
}

func TestParse_NotificationNamespaceWithID(t *testing.T) {
	msg, err := Parse([]byte(`{"jsonrpc":"2.0","id":7,"method":"notifications/initialized"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !IsNotification(msg) {
		t.Error("notifications/ methods are notifications even with an id")
	}
}

func TestParse_NullID(t *testing.T) {
	msg, err := Parse([]byte(`{"jsonrpc":"2.0","id":null,"method":"ping"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(msg.ID) != "null" {
		t.Errorf("expected explicit null id, got %q", msg.ID)
	}
	if IsNotification(msg) {
		t.Error("a request with an explicit null id is not a notification")
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`not json`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if err.Code != CodeParseError {
		t.Errorf("expected code %d, got %d", CodeParseError, err.Code)
	}
}

func TestParse_WrongVersionKeepsID(t *testing.T) {
	msg, err := Parse([]byte(`{"jsonrpc":"1.0","id":"abc","method":"test"}`))
	if err == nil {
		t.Fatal("expected error for wrong version")
	}
	if err.Code != CodeInvalidRequest {
		t.Errorf("expected code %d, got %d", CodeInvalidRequest, err.Code)
	}
	if msg == nil || string(msg.ID) != `"abc"` {
		t.Errorf("expected id to be preserved, got %+v", msg)
	}
}

func TestParse_MissingVersion(t *testing.T) {
	msg, err := Parse([]byte(`{"id":3,"method":"tools/list"}`))
	if err == nil || err.Code != CodeInvalidRequest {
		t.Fatalf("expected invalid request, got %v", err)
	}
	if string(msg.ID) != "3" {
		t.Errorf("expected id 3, got %s", msg.ID)
	}
}

func TestParse_Rejections(t *testing.T) {
	cases := map[string]string{
		"array body":     `[{"jsonrpc":"2.0","id":1,"method":"ping"}]`,
		"scalar body":    `42`,
		"object id":      `{"jsonrpc":"2.0","id":{"a":1},"method":"ping"}`,
		"missing method": `{"jsonrpc":"2.0","id":1}`,
		"numeric method": `{"jsonrpc":"2.0","id":1,"method":5}`,
		"scalar params":  `{"jsonrpc":"2.0","id":1,"method":"ping","params":"x"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Code != CodeInvalidRequest {
				t.Errorf("expected code %d, got %d", CodeInvalidRequest, err.Code)
			}
		})
	}
}

func TestParse_EmptyBodyIsParseError(t *testing.T) {
	for _, body := range []string{``, "  \n\t"} {
		msg, err := Parse([]byte(body))
		if err == nil || err.Code != CodeParseError {
			t.Errorf("%q: expected parse error, got %v", body, err)
		}
		if msg != nil {
			t.Errorf("%q: expected no message", body)
		}
	}
}

func TestParse_InvalidIDIsNotEchoed(t *testing.T) {
	msg, err := Parse([]byte(`{"jsonrpc":"2.0","id":[1],"method":"ping"}`))
	if err == nil {
		t.Fatal("expected error")
	}
	if msg.ID != nil {
		t.Errorf("expected no id, got %s", msg.ID)
	}
}

func TestExtractToolCall(t *testing.T) {
	msg, _ := Parse([]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_board_schema","arguments":{"boardId":123}}}`))

	tc, err := ExtractToolCall(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tc.Name != "get_board_schema" {
		t.Errorf("expected tool name get_board_schema, got %q", tc.Name)
	}
	if string(tc.Arguments) != `{"boardId":123}` {
		t.Errorf("unexpected arguments %s", tc.Arguments)
	}
}

func TestExtractToolCall_MissingName(t *testing.T) {
	for _, body := range []string{
		`{"jsonrpc":"2.0","id":1,"method":"tools/call"}`,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"arguments":{}}}`,
	} {
		msg, perr := Parse([]byte(body))
		if perr != nil {
			t.Fatalf("unexpected parse error: %v", perr)
		}
		_, err := ExtractToolCall(msg)
		if err == nil || err.Code != CodeInvalidParams {
			t.Errorf("%s: expected invalid params, got %v", body, err)
		}
	}
}

func TestNewErrorResponse_NullID(t *testing.T) {
	data, err := Marshal(NewErrorResponse(nil, Errorf(CodeInvalidRequest, "bad")))
	if err != nil {
		t.Fatal(err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if v, ok := msg["id"]; !ok || v != nil {
		t.Errorf("expected id null, got %v (present=%v)", v, ok)
	}
	if _, ok := msg["result"]; ok {
		t.Error("error response must not carry a result")
	}
	errObj := msg["error"].(map[string]any)
	if int(errObj["code"].(float64)) != CodeInvalidRequest {
		t.Errorf("expected code %d, got %v", CodeInvalidRequest, errObj["code"])
	}
}

func TestNewResult(t *testing.T) {
	data, err := Marshal(NewResult(json.RawMessage(`"req-1"`), map[string]any{"ok": true}))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"jsonrpc":"2.0","id":"req-1","result":{"ok":true}}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestNewNullResult(t *testing.T) {
	data, err := Marshal(NewNullResult())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"jsonrpc":"2.0","id":null,"result":null}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestAsError(t *testing.T) {
	typed := Errorf(CodeMethodNotFound, "nope")
	if got := AsError(typed); got != typed {
		t.Error("typed errors must keep their identity")
	}
	if got := AsError(json.Unmarshal([]byte("x"), new(int))); got.Code != CodeInternalError {
		t.Errorf("expected internal error, got %d", got.Code)
	}
	if AsError(nil) != nil {
		t.Error("nil maps to nil")
	}
}
