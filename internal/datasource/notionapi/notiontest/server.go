// Package notiontest serves canned Notion API documents over httptest for
// transport and end-to-end tests.
package notiontest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Query is one recorded POST /v1/databases/{id}/query call.
type Query struct {
	DatabaseID  string
	PageSize    int
	StartCursor string
	Sorts       []map[string]string
	Filter      map[string]any
}

// Server is a fake Notion API. Pages are served in order: the n-th query
// receives Pages[n] regardless of its cursor, so the test controls the
// cursor chain through the documents themselves.
type Server struct {
	*httptest.Server

	APIKey     string
	DatabaseID string
	Schema     string
	Pages      []string

	mu      sync.Mutex
	queries []Query
	headers []http.Header
}

// New starts a Server and registers its shutdown with tb.Cleanup.
func New(tb testing.TB, apiKey, databaseID, schema string, pages ...string) *Server {
	tb.Helper()
	s := &Server{APIKey: apiKey, DatabaseID: databaseID, Schema: schema, Pages: pages}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	tb.Cleanup(s.Close)
	return s
}

// Queries returns the recorded query calls.
func (s *Server) Queries() []Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Query(nil), s.queries...)
}

// Headers returns the request headers of every call, in order.
func (s *Server) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]http.Header(nil), s.headers...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.headers = append(s.headers, r.Header.Clone())
	s.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+s.APIKey {
		writeError(w, http.StatusUnauthorized, "unauthorized", "API token is invalid.")
		return
	}

	rest, ok := strings.CutPrefix(r.URL.Path, "/v1/databases/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, query := strings.CutSuffix(rest, "/query")
	if id != s.DatabaseID {
		writeError(w, http.StatusNotFound, "object_not_found", "Could not find database with ID: "+id+".")
		return
	}

	switch {
	case !query && r.Method == http.MethodGet:
		writeJSON(w, s.Schema)
	case query && r.Method == http.MethodPost:
		var in struct {
			PageSize    int                 `json:"page_size"`
			StartCursor string              `json:"start_cursor"`
			Sorts       []map[string]string `json:"sorts"`
			Filter      map[string]any      `json:"filter"`
		}
		b, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(b, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		s.mu.Lock()
		n := len(s.queries)
		s.queries = append(s.queries, Query{
			DatabaseID:  id,
			PageSize:    in.PageSize,
			StartCursor: in.StartCursor,
			Sorts:       in.Sorts,
			Filter:      in.Filter,
		})
		s.mu.Unlock()
		if n >= len(s.Pages) {
			writeError(w, http.StatusBadRequest, "validation_error", "start_cursor is invalid")
			return
		}
		writeJSON(w, s.Pages[n])
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, doc)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object":  "error",
		"status":  status,
		"code":    code,
		"message": msg,
	})
}
