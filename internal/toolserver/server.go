// Package toolserver exposes the audit, policy, risk, and orchestrator
// components behind the uniform JSON-over-HTTP RPC shape: every tool is
// invoked as POST /invoke with {"tool": "...", "params": {...}} and
// answers {"success": true, "result": ...} or {"success": false,
// "error": "..."}.
package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
)

// Handler executes one named tool against raw JSON params.
type Handler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Server dispatches RPC requests to a registry of named tools.
type Server struct {
	mux      *http.ServeMux
	handlers map[string]Handler
	logger   *log.Logger
}

// New constructs an empty Server; call Register for each tool before
// calling Mux or ListenAndServe.
func New(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[ToolServer] ", log.LstdFlags)
	}
	s := &Server{
		mux:      http.NewServeMux(),
		handlers: map[string]Handler{},
		logger:   logger,
	}
	s.mux.HandleFunc("/invoke", s.handleInvoke)
	s.mux.HandleFunc("/health", s.handleHealth)
	return s
}

// Register adds a named tool to the dispatch table. Registering the same
// name twice overwrites the earlier handler (used to let callers stub
// tools out in tests).
func (s *Server) Register(name string, h Handler) {
	s.handlers[name] = h
}

// Mux returns the underlying http.ServeMux so a caller can mount it on a
// larger router or wrap it with middleware.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

type invokeRequest struct {
	Tool   string          `json:"tool"`
	Params json.RawMessage `json:"params"`
}

type invokeResponse struct {
	Success bool        `json:"success"`
	Result  interface{} `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, invokeResponse{Success: false, Error: "method not allowed"})
		return
	}

	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, invokeResponse{Success: false, Error: "invalid request body"})
		return
	}

	handler, ok := s.handlers[req.Tool]
	if !ok {
		writeJSON(w, http.StatusNotFound, invokeResponse{Success: false, Error: fmt.Sprintf("unknown tool: %s", req.Tool)})
		return
	}

	result, err := handler(r.Context(), req.Params)
	if err != nil {
		s.logger.Printf("tool %s failed: %v", req.Tool, err)
		writeJSON(w, http.StatusInternalServerError, invokeResponse{Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, invokeResponse{Success: true, Result: result})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"tools":  names,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ToolServer] encode response: %v", err)
	}
}

// decodeParams unmarshals raw into dest, treating an empty/absent params
// object as a zero-value dest rather than an error.
func decodeParams(raw json.RawMessage, dest interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
