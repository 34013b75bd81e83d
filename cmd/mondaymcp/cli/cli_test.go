package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tkingovr/monday-mcp/api"
	"github.com/tkingovr/monday-mcp/internal/config"
)

const fakeBoard = `{"data":{"boards":[{"id":"123","name":"Leads",
"columns":[{"id":"name","title":"Name","type":"name"}],
"items_page":{"cursor":null,"items":[{"id":"1","name":"Alice","column_values":[]}]}}]}}`

func newMondayAPI(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fakeBoard))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		cfgFile = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestNewApp_OptionalTools(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BoardID = "123"
	cfg.EnabledTools = []string{"list_board_items", "update_item_email"}

	a, err := newApp(cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if a.cache == nil {
		t.Fatal("expected a board cache when a board is configured")
	}
	names := a.dispatcher.Tools().Names()
	for _, want := range []string{"get_board_items_by_name", "change_item_column_values", "get_board_schema", "list_board_items", "update_item_email"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing tool %s in %v", want, names)
		}
	}
}

func TestNewApp_OptionalToolsNeedBoard(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.EnabledTools = []string{"list_board_items"}
	if _, err := newApp(cfg, quietLogger()); err == nil {
		t.Fatal("expected error without a default board")
	}
}

func TestNewApp_RefreshOnInitialized(t *testing.T) {
	var calls atomic.Int32
	cfg := config.DefaultConfig()
	cfg.APIURL = newMondayAPI(t, &calls).URL
	cfg.APIToken = "test-token"
	cfg.BoardID = "123"
	cfg.RefreshOnInitialized = true

	a, err := newApp(cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	reply := a.dispatcher.Handle(context.Background(),
		[]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`), api.TransportHTTP)
	if reply.Body != nil {
		t.Errorf("expected no body, got %s", reply.Body)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if snap, ok := a.cache.Snapshot(); ok {
			if snap.BoardName != "Leads" {
				t.Errorf("board name = %q", snap.BoardName)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("board was not refreshed (%d upstream calls)", calls.Load())
}

func TestCallCommand(t *testing.T) {
	t.Setenv(config.EnvAPIURL, newMondayAPI(t, nil).URL)
	t.Setenv(config.EnvAPIToken, "test-token")
	t.Setenv(config.EnvBoardID, "123")

	out, err := execute(t, "call", "--tool", "get_board_schema", "--args", "{}")
	if err != nil {
		t.Fatalf("call failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Leads") {
		t.Errorf("expected board schema in output, got %s", out)
	}
}

func TestCallCommand_UnknownTool(t *testing.T) {
	t.Setenv(config.EnvAPIToken, "test-token")
	out, err := execute(t, "call", "--tool", "delete_everything", "--args", "{}")
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if !strings.Contains(out, "-32601") {
		t.Errorf("expected method-not-found response, got %s", out)
	}
}

func TestCheckCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monday-mcp.yaml")
	policy := `
version: 1
guard:
  rules:
    - name: no-writes
      match:
        method: tools/call
        tool: change_item_column_values
      action: deny
      message: writes are disabled
`
	if err := os.WriteFile(path, []byte(policy), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "check", "-c", path, "--method", "tools/call", "--tool", "change_item_column_values")
	if err != nil {
		t.Fatal(err)
	}
	var resp api.CheckResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if resp.Verdict != api.VerdictDeny || resp.Rule != "no-writes" {
		t.Errorf("unexpected verdict %+v", resp)
	}

	out, err = execute(t, "check", "-c", path, "--method", "tools/call", "--tool", "get_board_schema")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"verdict": "allow"`) {
		t.Errorf("expected allow, got %s", out)
	}
}

func TestToolsCommand(t *testing.T) {
	out, err := execute(t, "tools")
	if err != nil {
		t.Fatal(err)
	}
	var list api.ToolsListResult
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(list.Tools) != 3 {
		t.Errorf("expected 3 core tools, got %d", len(list.Tools))
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "mondaymcp dev\n" {
		t.Errorf("unexpected output %q", out)
	}
}
