package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/54b3r/policyai-go/internal/rag"
)

// chunkStats summarises a chunk collection.
type chunkStats struct {
	Total         int
	Dimension     int
	Tokens        int
	PremiumTables int
	Sections      []sectionCount
}

// sectionCount is the number of chunks in one section.
type sectionCount struct {
	Section string
	Chunks  int
	Tokens  int
}

// computeStats aggregates chunks. Sections are sorted by name.
func computeStats(chunks []rag.Chunk) chunkStats {
	st := chunkStats{Total: len(chunks)}
	bySection := make(map[string]*sectionCount)

	for _, c := range chunks {
		if st.Dimension == 0 {
			st.Dimension = c.EmbeddingDim
		}
		st.Tokens += c.TokenCount
		if c.IsPremiumTable {
			st.PremiumTables++
		}
		sc, ok := bySection[c.Section]
		if !ok {
			sc = &sectionCount{Section: c.Section}
			bySection[c.Section] = sc
		}
		sc.Chunks++
		sc.Tokens += c.TokenCount
	}

	st.Sections = make([]sectionCount, 0, len(bySection))
	for _, sc := range bySection {
		st.Sections = append(st.Sections, *sc)
	}
	sort.Slice(st.Sections, func(i, j int) bool { return st.Sections[i].Section < st.Sections[j].Section })
	return st
}

// NewChunksCmd constructs the `policyai chunks` command, which prints
// statistics about the chunk collection.
func NewChunksCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "chunks",
		Short: "Show statistics for the pre-embedded chunk collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := rag.StoreConfigFromEnv()
			if path != "" {
				cfg.Path = path
			}

			chunks, err := rag.NewFileStore(cfg).Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("chunks: %w", err)
			}
			printStats(cmd.OutOrStdout(), cfg.Path, computeStats(chunks))
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Chunk file to inspect (default: CHUNKS_PATH or "+rag.DefaultChunksPath+")")
	return cmd
}

// printStats renders st as a small report.
func printStats(w io.Writer, path string, st chunkStats) {
	label := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(w, "%s %s\n", label("file:          "), path)
	fmt.Fprintf(w, "%s %d\n", label("chunks:        "), st.Total)
	fmt.Fprintf(w, "%s %d\n", label("dimension:     "), st.Dimension)
	fmt.Fprintf(w, "%s %d\n", label("tokens:        "), st.Tokens)
	fmt.Fprintf(w, "%s %d\n", label("premium tables:"), st.PremiumTables)

	if len(st.Sections) == 0 {
		return
	}
	fmt.Fprintln(w)
	color.New(color.Bold).Fprintln(w, "sections:")
	for _, sc := range st.Sections {
		fmt.Fprintf(w, "  %-40s %4d chunks %7d tokens\n", sc.Section, sc.Chunks, sc.Tokens)
	}
}
