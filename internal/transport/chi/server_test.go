package chi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/usecase/research"
)

type fakeRunner struct {
	res      research.Result
	err      error
	block    bool
	calls    int
	gotQuery domain.Query
}

func (f *fakeRunner) Run(ctx context.Context, q domain.Query) (research.Result, error) {
	f.calls++
	f.gotQuery = q
	if f.block {
		<-ctx.Done()
		return research.Result{}, ctx.Err()
	}
	return f.res, f.err
}

type panicRunner struct{}

func (panicRunner) Run(context.Context, domain.Query) (research.Result, error) {
	panic("boom")
}

func newTestServer(t *testing.T, runner Runner, timeout time.Duration) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(NewServer(runner, timeout, zap.NewNop()).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postAnswer(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(srv.URL+"/v1/answer", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()

	var out errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return out
}

func TestServer_Answer(t *testing.T) {
	runner := &fakeRunner{
		res: research.Result{
			State: domain.RunState{
				ID:         "run-1",
				Query:      "what is langgraph?",
				SubQueries: []domain.SubQuery{"what is langgraph?", "how does langgraph work?"},
				Answer:     "A graph runtime.",
				Status:     domain.StatusComplete,
			},
		},
	}
	srv := newTestServer(t, runner, 0)

	resp := postAnswer(t, srv, `{"query": "what is langgraph?"}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("expected JSON content type, got %q", got)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	var out answerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Answer != "A graph runtime." {
		t.Errorf("expected answer carried, got %q", out.Answer)
	}
	if out.Status != "complete" {
		t.Errorf("expected status complete, got %q", out.Status)
	}
	if len(out.SubQueries) != 2 || out.SubQueries[1] != "how does langgraph work?" {
		t.Errorf("expected sub-queries carried, got %v", out.SubQueries)
	}
	if out.FromCheckpoint {
		t.Error("expected fresh run")
	}

	if runner.gotQuery != "what is langgraph?" {
		t.Errorf("expected raw query forwarded, got %q", runner.gotQuery)
	}
}

func TestServer_CheckpointFlagCarried(t *testing.T) {
	runner := &fakeRunner{
		res: research.Result{
			State:          domain.RunState{Answer: "cached", Status: domain.StatusComplete},
			FromCheckpoint: true,
		},
	}
	srv := newTestServer(t, runner, 0)

	resp := postAnswer(t, srv, `{"query": "repeat"}`)

	var out answerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !out.FromCheckpoint {
		t.Error("expected from_checkpoint set")
	}
}

func TestServer_EmptyQueryBadRequest(t *testing.T) {
	runner := &fakeRunner{err: domain.ErrQueryEmpty}
	srv := newTestServer(t, runner, 0)

	resp := postAnswer(t, srv, `{"query": "   "}`)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if out := decodeError(t, resp); out.Code != "query_empty" {
		t.Errorf("expected code query_empty, got %q", out.Code)
	}
}

func TestServer_MalformedBody(t *testing.T) {
	runner := &fakeRunner{}
	srv := newTestServer(t, runner, 0)

	resp := postAnswer(t, srv, `{`)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if out := decodeError(t, resp); out.Code != "bad_request" {
		t.Errorf("expected code bad_request, got %q", out.Code)
	}
	if runner.calls != 0 {
		t.Errorf("expected runner untouched, got %d calls", runner.calls)
	}
}

func TestServer_FatalStagesAreBadGateway(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    string
		message string
	}{
		{
			name:    "decomposition",
			err:     domain.NewDecompositionError("q", domain.ErrModelUnavailable),
			code:    "decomposition_failed",
			message: "model unavailable",
		},
		{
			name:    "synthesis",
			err:     domain.NewSynthesisError("q", domain.ErrModelRejected),
			code:    "synthesis_failed",
			message: "model rejected request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeRunner{err: tt.err}, 0)

			resp := postAnswer(t, srv, `{"query": "q"}`)

			if resp.StatusCode != http.StatusBadGateway {
				t.Fatalf("expected 502, got %d", resp.StatusCode)
			}
			out := decodeError(t, resp)
			if out.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, out.Code)
			}
			if out.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, out.Message)
			}
		})
	}
}

func TestServer_RequestTimeout(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{block: true}, 30*time.Millisecond)

	resp := postAnswer(t, srv, `{"query": "slow"}`)

	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", resp.StatusCode)
	}
	if out := decodeError(t, resp); out.Code != "timeout" {
		t.Errorf("expected code timeout, got %q", out.Code)
	}
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, 0)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Status != "ok" {
		t.Errorf("expected status ok, got %q", out.Status)
	}
	if out.Version == "" {
		t.Error("expected version set")
	}
}

func TestServer_MetricsExposed(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, 0)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "# HELP") {
		t.Error("expected Prometheus exposition format")
	}
}

func TestServer_PanicRecoveredAsJSON(t *testing.T) {
	srv := newTestServer(t, panicRunner{}, 0)

	resp := postAnswer(t, srv, `{"query": "q"}`)

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if out := decodeError(t, resp); out.Code != "internal_error" {
		t.Errorf("expected code internal_error, got %q", out.Code)
	}
}
