package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/54b3r/policyai-go/internal/logging"
)

// NewHistoryCmd constructs the `policyai history` command, which prints the
// most recently answered questions.
func NewHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently answered questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			hs, closeHistory := openHistory(logging.FromContext(ctx))
			defer closeHistory()
			if hs == nil {
				return fmt.Errorf("history: history is disabled or unavailable")
			}

			entries, err := hs.Recent(ctx, limit)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No questions recorded yet.")
				return nil
			}

			when := color.New(color.Faint).SprintFunc()
			q := color.New(color.FgCyan, color.Bold).SprintFunc()
			for _, e := range entries {
				sections := make([]string, 0, len(e.Sources))
				for _, s := range e.Sources {
					sections = append(sections, s.Section)
				}
				fmt.Fprintf(out, "%s  [%s]  %s\n", when(e.CreatedAt.Local().Format(time.DateTime)), e.Mode, q(e.Question))
				fmt.Fprintf(out, "    %s\n", firstLine(e.Answer))
				if len(sections) > 0 {
					fmt.Fprintf(out, "    %s\n", when("sources: "+strings.Join(sections, ", ")))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of entries to show")
	return cmd
}

// firstLine returns the first non-empty line of s, truncated for display.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			if r := []rune(line); len(r) > 120 {
				return string(r[:117]) + "..."
			}
			return line
		}
	}
	return ""
}
