package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/policyai-go/internal/answer"
	"github.com/54b3r/policyai-go/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response. It must
	// exceed AskTimeout.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// AskTimeout bounds a single /api/ask request including both model
	// calls (default: 2m).
	AskTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [slog.Default] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on /api/ask
	// (requests/second). Defaults to 1 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 5 if zero.
	RateBurst int
	// APIKey is the Bearer token required on /api/ask and /api/history.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// MetricsRegistry receives the server's Prometheus collectors. Defaults
	// to prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer is served on GET /metrics. Defaults to
	// prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
}

// Answerer is the interface handleAsk calls to produce an answer.
// *answer.Service satisfies it; tests inject a fake.
type Answerer interface {
	Answer(ctx context.Context, question string, opts answer.Options) (*answer.Result, error)
}

// Server is the HTTP server that exposes the answer service.
type Server struct {
	// answerer produces grounded answers for /api/ask.
	answerer Answerer
	// history records answered questions; nil disables /api/history.
	history store.HistoryStore
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus collectors owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// askRequest is the JSON body for POST /api/ask.
type askRequest struct {
	// Question is the user's natural language policy question.
	Question string `json:"question"`
	// TopK is the number of chunks to retrieve (0 = server default).
	TopK int `json:"top_k,omitempty"`
	// Mode selects the instruction template: standard, strict, coverage_check.
	Mode string `json:"mode,omitempty"`
}

// askResponse is the JSON body returned by POST /api/ask.
type askResponse struct {
	Answer     string          `json:"answer"`
	Sources    []answer.Source `json:"sources"`
	Mode       string          `json:"mode"`
	DurationMS int64           `json:"duration_ms"`
}

// historyResponse is the JSON body returned by GET /api/history.
type historyResponse struct {
	Entries []store.Entry `json:"entries"`
}

// errorResponse is the JSON body for every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
}
