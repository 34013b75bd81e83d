package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/tkingovr/monday-mcp/api"
	"github.com/tkingovr/monday-mcp/internal/jsonrpc"
)

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	r.Body.Close()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.logger.Warn("request body too large", "limit", tooLarge.Limit)
			s.writeError(w, jsonrpc.Errorf(jsonrpc.CodeInvalidRequest, "request body exceeds %d bytes", MaxBodyBytes))
			return
		}
		s.logger.Error("reading request body", "error", err)
		s.writeError(w, jsonrpc.Errorf(jsonrpc.CodeParseError, "parse error: failed to read request body"))
		return
	}

	reply := s.dispatcher.Handle(r.Context(), body, api.TransportHTTP)

	w.Header().Set("Cache-Control", "no-store")
	if reply.Body == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(reply.Body)
}

// handleRPCMethodNotAllowed answers non-POST requests on the RPC endpoints.
func (s *Server) handleRPCMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	s.writeErrorStatus(w, http.StatusMethodNotAllowed,
		jsonrpc.Errorf(jsonrpc.CodeInvalidRequest, "invalid request: method %s not allowed, use POST", r.Method))
}

// writeError answers with an error envelope carrying a null id.
func (s *Server) writeError(w http.ResponseWriter, e *jsonrpc.Error) {
	s.writeErrorStatus(w, http.StatusOK, e)
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, status int, e *jsonrpc.Error) {
	data, err := jsonrpc.Marshal(jsonrpc.NewErrorResponse(nil, e))
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write(data)
}

type healthResponse struct {
	Status          string      `json:"status"`
	Version         string      `json:"version"`
	ProtocolVersion string      `json:"protocol_version"`
	MondayConnected bool        `json:"monday_connected"`
	Board           boardHealth `json:"board"`
}

type boardHealth struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	ItemsCount   int        `json:"items_count"`
	ColumnsCount int        `json:"columns_count"`
	LastUpdated  *time.Time `json:"last_updated"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:          "ok",
		Version:         s.opts.Version,
		ProtocolVersion: s.opts.ProtocolVersion,
		MondayConnected: s.opts.TokenConfigured,
	}
	if s.opts.Board != nil {
		resp.Board.ID = s.opts.Board.BoardID()
		if snap, ok := s.opts.Board.Snapshot(); ok {
			resp.Board.Name = snap.BoardName
			resp.Board.ItemsCount = len(snap.Items)
			resp.Board.ColumnsCount = len(snap.Columns)
			updated := snap.LastUpdated
			resp.Board.LastUpdated = &updated
		}
	}
	writeJSON(w, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.opts.Audit == nil {
		http.Error(w, "audit log disabled", http.StatusNotFound)
		return
	}
	stats, err := s.opts.Audit.Stats(r.Context())
	if err != nil {
		s.logger.Error("reading audit stats", "error", err)
		http.Error(w, "failed to get stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

const defaultAuditLimit = 100

// handleAudit returns recent audit records, newest first. Query parameters:
// method, tool, errors=1, limit, since (RFC 3339).
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.opts.Audit == nil {
		http.Error(w, "audit log disabled", http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	filter := api.QueryFilter{
		Method:     q.Get("method"),
		Tool:       q.Get("tool"),
		ErrorsOnly: q.Get("errors") == "1" || q.Get("errors") == "true",
	}
	limit := defaultAuditLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
		filter.Since = t
	}

	records, err := s.opts.Audit.Query(r.Context(), filter)
	if err != nil {
		s.logger.Error("querying audit log", "error", err)
		http.Error(w, "failed to query audit log", http.StatusInternalServerError)
		return
	}
	if len(records) > limit {
		records = records[len(records)-limit:]
	}
	if records == nil {
		records = []*api.AuditRecord{}
	}
	slices.Reverse(records)
	writeJSON(w, records)
}

func (s *Server) handleAuditStream(w http.ResponseWriter, r *http.Request) {
	if s.opts.Audit == nil {
		http.Error(w, "audit log disabled", http.StatusNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ch, cancel := s.opts.Audit.Subscribe(r.Context())
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case record, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(record)
			if err != nil {
				s.logger.Warn("encoding audit record", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: audit\ndata: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(v)
}
