package toolserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleInvoke_UnknownTool(t *testing.T) {
	s := New(nil)

	body, _ := json.Marshal(invokeRequest{Tool: "does_not_exist"})
	req := httptest.NewRequest(http.MethodPost, "/invoke", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	s.handleInvoke(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected %d, got %d", http.StatusNotFound, rr.Code)
	}

	var resp invokeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success {
		t.Fatal("expected success=false")
	}
}

func TestHandleInvoke_MethodNotAllowed(t *testing.T) {
	s := New(nil)

	req := httptest.NewRequest(http.MethodGet, "/invoke", nil)
	rr := httptest.NewRecorder()

	s.handleInvoke(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected %d, got %d", http.StatusMethodNotAllowed, rr.Code)
	}
}

func TestHandleInvoke_HandlerError(t *testing.T) {
	s := New(nil)
	s.Register("boom", func(context.Context, json.RawMessage) (interface{}, error) {
		return nil, errBoom
	})

	body, _ := json.Marshal(invokeRequest{Tool: "boom"})
	req := httptest.NewRequest(http.MethodPost, "/invoke", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	s.handleInvoke(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected %d, got %d", http.StatusInternalServerError, rr.Code)
	}
}

func TestHandleInvoke_Success(t *testing.T) {
	s := New(nil)
	s.Register("echo", func(_ context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p.Value, nil
	})

	body, _ := json.Marshal(invokeRequest{Tool: "echo", Params: json.RawMessage(`{"value":"hi"}`)})
	req := httptest.NewRequest(http.MethodPost, "/invoke", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	s.handleInvoke(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rr.Code)
	}

	var resp invokeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success=true, error=%s", resp.Error)
	}
	if resp.Result != "hi" {
		t.Fatalf("expected result 'hi', got %v", resp.Result)
	}
}

func TestHandleHealth_ListsRegisteredTools(t *testing.T) {
	s := New(nil)
	s.Register("alpha", func(context.Context, json.RawMessage) (interface{}, error) { return nil, nil })
	s.Register("beta", func(context.Context, json.RawMessage) (interface{}, error) { return nil, nil })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	s.handleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rr.Code)
	}

	var resp struct {
		Status string   `json:"status"`
		Tools  []string `json:"tools"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Fatalf("expected status 'healthy', got %q", resp.Status)
	}
	if len(resp.Tools) != 2 || resp.Tools[0] != "alpha" || resp.Tools[1] != "beta" {
		t.Fatalf("expected sorted [alpha beta], got %v", resp.Tools)
	}
}

type boomError struct{}

func (boomError) Error() string { return "boom" }

var errBoom = boomError{}
