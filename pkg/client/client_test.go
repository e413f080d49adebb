package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Answer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/answer" {
			t.Errorf("expected path /v1/answer, got %s", r.URL.Path)
		}

		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Query != "what is langgraph?" {
			t.Errorf("expected query forwarded, got %q", req.Query)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Response{
			Answer:         "A graph runtime.",
			Status:         "complete",
			SubQueries:     []string{"what is langgraph?"},
			FromCheckpoint: true,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)

	resp, err := c.Answer(context.Background(), "what is langgraph?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != "A graph runtime." {
		t.Errorf("expected answer carried, got %q", resp.Answer)
	}
	if !resp.FromCheckpoint {
		t.Error("expected from_checkpoint carried")
	}
}

func TestClient_AnswerServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"code": "synthesis_failed", "message": "model unavailable"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)

	_, err := c.Answer(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", apiErr.StatusCode)
	}
	if apiErr.Code != "synthesis_failed" {
		t.Errorf("expected code synthesis_failed, got %q", apiErr.Code)
	}
}

func TestClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("expected path /health, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ok", "version": "dev"}`))
	}))
	defer srv.Close()

	if err := New(srv.URL).Health(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	_, err := New(baseURL).Answer(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error against a dead server")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("expected transport error, got APIError %v", apiErr)
	}
}
