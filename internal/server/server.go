// Package server implements the HTTP API that exposes the policy answer
// service. It is started by the `policyai serve` CLI command.
//
// Routes:
//
//	POST /api/ask      answer a question (auth, rate limited)
//	GET  /api/history  recent answered questions (auth)
//	GET  /api/health   liveness
//	GET  /api/ready    dependency readiness
//	GET  /metrics      Prometheus metrics
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/54b3r/policyai-go/internal/answer"
	"github.com/54b3r/policyai-go/internal/logging"
	"github.com/54b3r/policyai-go/internal/prompt"
	"github.com/54b3r/policyai-go/internal/rag"
	"github.com/54b3r/policyai-go/internal/store"
)

const (
	// maxRequestBody caps the /api/ask request body.
	maxRequestBody = 64 << 10
	// maxQuestionLen caps the question length in bytes.
	maxQuestionLen = 4000
	// maxTopK caps the per-request top_k.
	maxTopK = 20
	// defaultHistoryLimit is used when /api/history has no limit parameter.
	defaultHistoryLimit = 20
	// maxHistoryLimit caps the /api/history limit parameter.
	maxHistoryLimit = 200
)

// Client-facing error messages. Internal error detail is logged, never
// returned.
const (
	msgUpstreamFailed = "the language model service is unavailable, please try again later"
	msgAnswerFailed   = "the question could not be answered, please try again later"
	msgTimeout        = "the question took too long to answer, please try again"
)

// New constructs a Server from the provided answer service, optional history
// store and config.
func New(svc Answerer, history store.HistoryStore, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("server: answer service must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.AskTimeout == 0 {
		cfg.AskTimeout = 2 * time.Minute
	}
	if cfg.WriteTimeout == 0 || cfg.WriteTimeout <= cfg.AskTimeout {
		cfg.WriteTimeout = cfg.AskTimeout + 30*time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.MetricsRegistry == nil {
		cfg.MetricsRegistry = prometheus.DefaultRegisterer
	}
	if cfg.MetricsGatherer == nil {
		cfg.MetricsGatherer = prometheus.DefaultGatherer
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		answerer: svc,
		history:  history,
		cfg:      cfg,
		log:      log,
		pingers:  cfg.Pingers,
		metrics:  newServerMetrics(cfg.MetricsRegistry),
	}

	rl, stop := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stop

	if cfg.APIKey == "" {
		log.Warn("server: POLICYAI_API_KEY is not set, authentication is disabled")
	}

	protect := func(h http.Handler) http.Handler { return authMiddleware(cfg.APIKey, h) }

	mux := http.NewServeMux()
	mux.Handle("POST /api/ask", s.instrument("ask", protect(rl.middleware(http.HandlerFunc(s.handleAsk)))))
	mux.Handle("GET /api/history", s.instrument("history", protect(http.HandlerFunc(s.handleHistory))))
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Handler returns the root handler, including middleware.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server: listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.log.Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleAsk handles POST /api/ask. The question is answered synchronously;
// the request is bounded by AskTimeout.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	var req askRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		s.observeAsk(outcomeInvalid, start)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		s.observeAsk(outcomeInvalid, start)
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if len(question) > maxQuestionLen {
		s.observeAsk(outcomeInvalid, start)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("question must be at most %d bytes", maxQuestionLen))
		return
	}
	if req.TopK < 0 || req.TopK > maxTopK {
		s.observeAsk(outcomeInvalid, start)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("top_k must be between 1 and %d", maxTopK))
		return
	}
	mode, err := prompt.ParseMode(req.Mode)
	if err != nil {
		s.observeAsk(outcomeInvalid, start)
		writeError(w, http.StatusBadRequest, "mode must be one of standard, strict, coverage_check")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.AskTimeout)
	defer cancel()

	s.metrics.askInFlight.Inc()
	res, err := s.answerer.Answer(ctx, question, answer.Options{TopK: req.TopK, Mode: mode})
	s.metrics.askInFlight.Dec()
	if err != nil {
		status, msg, outcome := classifyAskError(err)
		s.observeAsk(outcome, start)
		log.Error("ask: failed",
			slog.String("outcome", outcome),
			slog.String("mode", string(mode)),
			slog.Any("error", err),
		)
		writeError(w, status, msg)
		return
	}

	elapsed := time.Since(start)
	s.observeAsk(outcomeOK, start)
	s.metrics.askSources.Observe(float64(len(res.Sources)))
	log.Info("ask: answered",
		slog.String("mode", string(mode)),
		slog.Int("sources", len(res.Sources)),
		slog.Duration("duration", elapsed),
	)

	if s.history != nil {
		entry := &store.Entry{
			Question: question,
			Mode:     string(mode),
			Answer:   res.Answer,
			Sources:  res.Sources,
			Duration: elapsed,
		}
		if err := s.history.Append(r.Context(), entry); err != nil {
			log.Warn("history: failed to record answer", slog.Any("error", err))
		}
	}

	writeJSON(w, http.StatusOK, askResponse{
		Answer:     res.Answer,
		Sources:    res.Sources,
		Mode:       string(mode),
		DurationMS: elapsed.Milliseconds(),
	})
}

// classifyAskError maps an answer error to an HTTP status, a generic client
// message and a metrics outcome label.
func classifyAskError(err error) (int, string, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, msgTimeout, outcomeTimeout
	case errors.Is(err, answer.ErrEmbedding), errors.Is(err, answer.ErrGeneration):
		return http.StatusBadGateway, msgUpstreamFailed, outcomeUpstream
	case errors.Is(err, rag.ErrStorageNotFound), errors.Is(err, rag.ErrMalformedData), errors.Is(err, rag.ErrDimensionMismatch):
		return http.StatusInternalServerError, msgAnswerFailed, outcomeStorage
	default:
		return http.StatusInternalServerError, msgAnswerFailed, outcomeError
	}
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
