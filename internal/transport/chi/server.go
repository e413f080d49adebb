package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/metrics"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/usecase/research"
	"github.com/Av0cat0/tavily-rag-pipeline/internal/version"
)

// Runner drives one query through the pipeline.
type Runner interface {
	Run(ctx context.Context, q domain.Query) (research.Result, error)
}

// errorHandler tries to handle a run error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server exposes the pipeline over HTTP.
type Server struct {
	runner         Runner
	requestTimeout time.Duration
	logger         *zap.Logger
	errorHandlers  []errorHandler
}

// NewServer creates the HTTP API server. requestTimeout bounds a single answer
// request end to end; zero disables the bound.
func NewServer(runner Runner, requestTimeout time.Duration, logger *zap.Logger) *Server {
	s := &Server{
		runner:         runner,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrQueryEmpty, http.StatusBadRequest, "query_empty"),
		deadlineHandler,
		stageHandler,
	}
	return s
}

// Router assembles the routing table with the middleware chain.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Post("/v1/answer", s.Answer)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

type answerRequest struct {
	Query string `json:"query"`
}

type answerResponse struct {
	Answer         string   `json:"answer"`
	Status         string   `json:"status"`
	SubQueries     []string `json:"sub_queries"`
	FromCheckpoint bool     `json:"from_checkpoint"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Answer handles POST /v1/answer.
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	ctx := r.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	res, err := s.runner.Run(ctx, domain.Query(req.Query))
	if err != nil {
		s.handleRunError(w, err)
		return
	}

	subs := make([]string, len(res.State.SubQueries))
	for i, sq := range res.State.SubQueries {
		subs[i] = string(sq)
	}

	writeJSON(w, http.StatusOK, answerResponse{
		Answer:         res.State.Answer,
		Status:         res.State.Status.String(),
		SubQueries:     subs,
		FromCheckpoint: res.FromCheckpoint,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleRunError(w http.ResponseWriter, err error) {
	s.logger.Warn("run error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	writeError(w, http.StatusBadGateway, "run_failed", safeMessage(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeMessage returns a sentinel error message for the client without exposing
// internals.
func safeMessage(err error) string {
	sentinels := []error{
		domain.ErrQueryEmpty,
		domain.ErrModelUnavailable,
		domain.ErrModelRejected,
		domain.ErrSearchUnavailable,
		domain.ErrSearchRateLimited,
		domain.ErrSearchRejected,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// deadlineHandler maps a run cut short by the request deadline to 504.
func deadlineHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	writeError(w, http.StatusGatewayTimeout, "timeout", "run exceeded the request deadline")
	return true
}

// stageHandler maps the fatal stage errors to 502 with a stage-specific code.
func stageHandler(w http.ResponseWriter, err error) bool {
	var decompErr *domain.DecompositionError
	if errors.As(err, &decompErr) {
		writeError(w, http.StatusBadGateway, "decomposition_failed", safeMessage(err))
		return true
	}
	var synthErr *domain.SynthesisError
	if errors.As(err, &synthErr) {
		writeError(w, http.StatusBadGateway, "synthesis_failed", safeMessage(err))
		return true
	}
	return false
}
