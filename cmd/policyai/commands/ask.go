package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/54b3r/policyai-go/internal/answer"
	"github.com/54b3r/policyai-go/internal/logging"
	"github.com/54b3r/policyai-go/internal/prompt"
	"github.com/54b3r/policyai-go/internal/store"
	"github.com/54b3r/policyai-go/internal/tracing"
)

// NewAskCmd constructs the `policyai ask` command, which answers a single
// question and prints the answer with its sources.
func NewAskCmd() *cobra.Command {
	var (
		topK      int
		mode      string
		asJSON    bool
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the policy",
		Long: `Ask a natural language question about the policy document.

Modes:
  standard        plain answer with section citations (default)
  strict          no inference beyond the literal policy wording
  coverage_check  COVERED: YES / NO / UNCLEAR with section, waiting period
                  and exclusions

Examples:
  policyai ask "Is cataract surgery covered?"
  policyai ask --mode coverage_check "Are maternity expenses covered?"
  policyai ask --top-k 5 --json "What is the waiting period for hernia?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			parsedMode, err := prompt.ParseMode(mode)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			if topK < 0 {
				return fmt.Errorf("ask: --top-k must not be negative")
			}
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("ask: question must not be empty")
			}

			flush, _ := tracing.Enable(tracing.ConfigFromEnv())
			defer flush()

			c, err := buildComponents(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			var history store.HistoryStore
			closeHistory := func() {}
			if !noHistory {
				history, closeHistory = openHistory(log)
			}
			defer closeHistory()

			askCtx, cancel := context.WithTimeout(ctx, askTimeout())
			defer cancel()

			start := time.Now()
			res, err := c.service.Answer(askCtx, question, answer.Options{TopK: topK, Mode: parsedMode})
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			elapsed := time.Since(start)

			if history != nil {
				entry := &store.Entry{
					Question: question,
					Mode:     string(parsedMode),
					Answer:   res.Answer,
					Sources:  res.Sources,
					Duration: elapsed,
				}
				if err := history.Append(ctx, entry); err != nil {
					log.Warn("history: failed to record answer", slog.Any("error", err))
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printResult(cmd.OutOrStdout(), res, elapsed)
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of policy chunks to retrieve (default: RETRIEVAL_TOP_K or 3)")
	cmd.Flags().StringVarP(&mode, "mode", "m", string(prompt.ModeStandard), "Answer mode: standard, strict, coverage_check")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this question in the history log")

	return cmd
}

// printResult renders an answer and its sources for the terminal.
func printResult(w io.Writer, res *answer.Result, elapsed time.Duration) {
	fmt.Fprintln(w, strings.TrimSpace(res.Answer))
	fmt.Fprintln(w)

	if len(res.Sources) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No matching policy sections were found.")
		return
	}

	heading := color.New(color.FgCyan, color.Bold)
	section := color.New(color.FgGreen)
	faint := color.New(color.Faint)

	heading.Fprintln(w, "Sources:")
	for i, s := range res.Sources {
		fmt.Fprintf(w, "  %d. ", i+1)
		section.Fprint(w, s.Section)
		faint.Fprintf(w, "  [%s, relevance %.1f%%]\n", s.ChunkID, s.Similarity*100)
	}
	faint.Fprintf(w, "\nanswered in %s\n", elapsed.Round(time.Millisecond))
}
