// mock_monday is a minimal in-memory stand-in for the Monday.com GraphQL API,
// for running the server locally without a real account.
// Usage: go run ./testdata/mock_monday -listen :9999
// then start the server with MONDAY_API_URL=http://localhost:9999/v2.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"strings"
	"sync"
)

type columnValue struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	Text  string  `json:"text"`
	Value *string `json:"value"`
}

type item struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	ColumnValues []columnValue `json:"column_values"`
}

type column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type store struct {
	mu      sync.Mutex
	columns []column
	items   []item
}

func newStore() *store {
	return &store{
		columns: []column{
			{ID: "name", Title: "Name", Type: "name"},
			{ID: "status", Title: "Status", Type: "status"},
			{ID: "email", Title: "Email", Type: "email"},
		},
		items: []item{
			{ID: "1001", Name: "Alice Example", ColumnValues: []columnValue{{ID: "status", Type: "status", Text: "Working on it"}, {ID: "email", Type: "email"}}},
			{ID: "1002", Name: "Bob Example", ColumnValues: []columnValue{{ID: "status", Type: "status", Text: "Done"}, {ID: "email", Type: "email"}}},
		},
	}
}

func main() {
	listen := flag.String("listen", ":9999", "listen address")
	flag.Parse()

	s := newStore()
	http.HandleFunc("POST /v2", s.handle)
	log.Printf("mock monday api listening on %s", *listen)
	log.Fatal(http.ListenAndServe(*listen, nil))
}

func (s *store) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		writeErrors(w, "Not Authenticated")
		return
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrors(w, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case strings.Contains(req.Query, "next_items_page"):
		writeData(w, map[string]any{"next_items_page": map[string]any{"cursor": nil, "items": []item{}}})
	case strings.Contains(req.Query, "change_multiple_column_values"):
		id, _ := req.Variables["item"].(string)
		values, _ := req.Variables["values"].(string)
		writeItem(w, "change_multiple_column_values", s.update(id, values))
	case strings.Contains(req.Query, "change_column_value"):
		id, _ := req.Variables["item"].(string)
		col, _ := req.Variables["column"].(string)
		value, _ := req.Variables["value"].(string)
		writeItem(w, "change_column_value", s.update(id, `{"`+col+`":`+value+`}`))
	case strings.Contains(req.Query, "boards"):
		writeData(w, map[string]any{"boards": []map[string]any{{
			"id":         "123456",
			"name":       "Mock Leads",
			"columns":    s.columns,
			"items_page": map[string]any{"cursor": nil, "items": s.items},
		}}})
	default:
		writeErrors(w, "unsupported query")
	}
}

func (s *store) update(id, values string) *item {
	var changes map[string]json.RawMessage
	if err := json.Unmarshal([]byte(values), &changes); err != nil {
		return nil
	}
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		for col, raw := range changes {
			v := string(raw)
			for j := range s.items[i].ColumnValues {
				if s.items[i].ColumnValues[j].ID == col {
					s.items[i].ColumnValues[j].Value = &v
					s.items[i].ColumnValues[j].Text = displayText(raw)
				}
			}
		}
		return &s.items[i]
	}
	return nil
}

func writeItem(w http.ResponseWriter, field string, it *item) {
	if it == nil {
		writeErrors(w, "item not found")
		return
	}
	writeData(w, map[string]any{field: map[string]any{"id": it.ID, "name": it.Name}})
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeErrors(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"errors": []map[string]string{{"message": msg}}})
}

// displayText mimics the text Monday.com derives from a stored value.
func displayText(raw json.RawMessage) string {
	var obj map[string]any
	if json.Unmarshal(raw, &obj) == nil {
		for _, key := range []string{"text", "label", "email"} {
			if v, ok := obj[key].(string); ok {
				return v
			}
		}
	}
	var str string
	if json.Unmarshal(raw, &str) == nil {
		return str
	}
	return string(raw)
}
