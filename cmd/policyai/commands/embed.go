package commands

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/54b3r/policyai-go/internal/ingestion"
	"github.com/54b3r/policyai-go/internal/logging"
	"github.com/54b3r/policyai-go/internal/rag"
)

// NewEmbedCmd constructs the `policyai embed` command, which turns the
// chunker output into the pre-embedded chunk collection.
func NewEmbedCmd() *cobra.Command {
	var (
		input          string
		output         string
		metadata       string
		includePremium bool
		ratePerSecond  float64
	)

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Embed chunker output into the chunk collection",
		Long: `Embed every chunk in the chunker output and write the chunk collection
read by 'ask' and 'serve', plus a metadata summary file.

Premium-rate table chunks are skipped unless --include-premium-tables is set.
Calls are paced to --rate per second. Chunks that fail to embed are reported
and left out; the command fails only when no chunk could be embedded.

The embedding backend and model used here must be the ones used to embed
questions at query time.

Examples:
  policyai embed
  policyai embed --input data/processed/chunks.json --rate 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			if output == "" {
				output = rag.StoreConfigFromEnv().Path
			}

			inputs, err := ingestion.LoadInput(input)
			if err != nil {
				return fmt.Errorf("embed: %w", err)
			}
			log.Info("embed: loaded chunks", slog.String("path", input), slog.Int("chunks", len(inputs)))

			emb, settings, err := buildEmbedder(ctx, log)
			if err != nil {
				return fmt.Errorf("embed: %w", err)
			}

			pipeline, err := ingestion.NewPipeline(emb, &ingestion.Config{
				RatePerSecond:        ratePerSecond,
				IncludePremiumTables: includePremium,
			})
			if err != nil {
				return fmt.Errorf("embed: %w", err)
			}

			bar := progressbar.NewOptions(len(inputs),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription(color.BlueString("embedding with "+settings.Model)),
				progressbar.OptionSetItsString("chunks"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionSetRenderBlankState(true),
			)

			report, err := pipeline.Run(ctx, inputs, func(ingestion.Event) { _ = bar.Add(1) })
			_ = bar.Finish()
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("embed: %w", err)
			}

			if err := ingestion.WriteJSON(output, report.Chunks); err != nil {
				return fmt.Errorf("embed: %w", err)
			}
			if err := ingestion.WriteJSON(metadata, ingestion.BuildMetadata(report.Chunks)); err != nil {
				return fmt.Errorf("embed: %w", err)
			}

			out := cmd.OutOrStdout()
			color.New(color.FgGreen).Fprintf(out, "Saved %d embeddings to %s\n", len(report.Chunks), output)
			fmt.Fprintf(out, "Saved metadata to %s\n", metadata)
			if report.Skipped > 0 {
				fmt.Fprintf(out, "Skipped %d premium table chunks\n", report.Skipped)
			}
			if len(report.Failed) > 0 {
				color.New(color.FgYellow).Fprintf(out, "Failed to embed %d chunks: %v\n", len(report.Failed), report.Failed)
			}
			printStats(out, output, computeStats(report.Chunks))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", ingestion.DefaultInputPath, "Chunker output to embed")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Chunk collection to write (default: CHUNKS_PATH or "+rag.DefaultChunksPath+")")
	cmd.Flags().StringVar(&metadata, "metadata", ingestion.DefaultMetadataPath, "Metadata summary file to write")
	cmd.Flags().BoolVar(&includePremium, "include-premium-tables", false, "Embed premium-rate table chunks too")
	cmd.Flags().Float64Var(&ratePerSecond, "rate", ingestion.DefaultRatePerSecond, "Maximum embedding calls per second (negative for unlimited)")

	return cmd
}
