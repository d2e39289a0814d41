package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/54b3r/policyai-go/internal/logging"
	"github.com/54b3r/policyai-go/internal/server"
)

// checkTimeout bounds each probe run by `policyai check`.
const checkTimeout = 15 * time.Second

// NewCheckCmd constructs the `policyai check` command. It runs the same
// probes as GET /api/ready and exits non-zero when any of them fails.
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the embedding backend and the chunk file",
		Long: `Check that the embedding backend returns a vector and that the chunk
file can be loaded and is not empty. The generation model is not called.

Exit status is non-zero when any check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			c, err := buildComponents(ctx, log)
			if err != nil {
				return fmt.Errorf("check: %w", err)
			}

			pingers := []server.Pinger{
				server.NewEmbeddingPinger(c.service),
				server.NewChunkStorePinger(c.loader),
			}

			ok := color.New(color.FgGreen).SprintFunc()
			bad := color.New(color.FgRed).SprintFunc()
			out := cmd.OutOrStdout()

			failed := 0
			for _, p := range pingers {
				probeCtx, cancel := context.WithTimeout(ctx, checkTimeout)
				err := p.Ping(probeCtx)
				cancel()

				if err != nil {
					failed++
					fmt.Fprintf(out, "%s %-10s %v\n", bad("FAIL"), p.Name(), err)
					continue
				}
				fmt.Fprintf(out, "%s %-10s\n", ok("OK  "), p.Name())
			}

			if failed > 0 {
				return fmt.Errorf("check: %d of %d checks failed", failed, len(pingers))
			}
			return nil
		},
	}
}
