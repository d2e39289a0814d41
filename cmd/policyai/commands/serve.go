package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/54b3r/policyai-go/internal/logging"
	"github.com/54b3r/policyai-go/internal/server"
	"github.com/54b3r/policyai-go/internal/tracing"
)

// NewServeCmd constructs the `policyai serve` command, which starts the HTTP
// API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the policyai HTTP API",
		Long: `Start the policyai HTTP API.

Endpoints:
  POST /api/ask       {"question": "...", "top_k": 3, "mode": "standard"}
  GET  /api/history   recent answered questions (?limit=N)
  GET  /api/health    liveness
  GET  /api/ready     embedding backend and chunk file readiness
  GET  /metrics       Prometheus metrics

Set POLICYAI_API_KEY to require "Authorization: Bearer <key>" on /api/ask
and /api/history.

Examples:
  policyai serve
  policyai serve --host 0.0.0.0 --port 9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.FromContext(ctx)

			flush, ok := tracing.Enable(tracing.ConfigFromEnv())
			defer flush()
			if ok {
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY or LANGFUSE_SECRET_KEY not set"))
			}

			c, err := buildComponents(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			if _, err := c.loader.Load(ctx); err != nil {
				log.Warn("serve: chunk file is not loadable yet, /api/ready will report it",
					slog.String("path", c.loader.Path()),
					slog.Any("error", err),
				)
			}

			history, closeHistory := openHistory(log)
			defer closeHistory()

			srv, err := server.New(c.service, history, &server.Config{
				Host:       host,
				Port:       port,
				AskTimeout: askTimeout(),
				Logger:     log,
				Pingers: []server.Pinger{
					server.NewEmbeddingPinger(c.service),
					server.NewChunkStorePinger(c.loader),
				},
				RateLimit: getEnvFloat("ASK_RATE_LIMIT", 0),
				APIKey:    os.Getenv("POLICYAI_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			log.Info("serve starting",
				slog.String("provider", c.provider),
				slog.String("model", c.model),
				slog.String("chunks", c.loader.Path()),
			)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
