// Package prompt turns ranked policy chunks and a user question into the
// single instruction prompt sent to the generation model. The templates
// encode the grounding rules: answer only from the supplied context, refuse
// with a fixed sentence otherwise, cite sections, and never give medical or
// legal advice.
package prompt

import (
	"fmt"
	"strings"

	"github.com/54b3r/policyai-go/internal/rag"
)

// Mode selects one of the fixed instruction templates.
type Mode string

const (
	// ModeStandard answers the question from context with section citations.
	ModeStandard Mode = "standard"
	// ModeStrict forbids any inference beyond the literal policy wording.
	ModeStrict Mode = "strict"
	// ModeCoverageCheck requires a YES/NO coverage verdict in a fixed layout.
	ModeCoverageCheck Mode = "coverage_check"
)

// RefusalText is the exact sentence the model must return when the context
// does not support an answer.
const RefusalText = "This information is not available in the policy document."

// NoContextPlaceholder replaces the context block when retrieval returned no
// chunks.
const NoContextPlaceholder = "No relevant information was found in the policy document."

// ParseMode converts user input into a Mode. The empty string maps to
// ModeStandard.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeStandard:
		return ModeStandard, nil
	case ModeStrict:
		return ModeStrict, nil
	case ModeCoverageCheck, "coverage-check", "coverage":
		return ModeCoverageCheck, nil
	default:
		return "", fmt.Errorf("prompt: unknown mode %q (valid values: standard, strict, coverage_check)", s)
	}
}

// FormatContext serialises ranked chunks into the context block, one header
// line per chunk naming its section and relevance followed by the chunk text.
func FormatContext(ranked []rag.RankedChunk) string {
	if len(ranked) == 0 {
		return NoContextPlaceholder
	}

	var sb strings.Builder
	for i, c := range ranked {
		fmt.Fprintf(&sb, "[Source %d | Section: %s | Relevance: %.1f%%]\n", i+1, c.Section, c.Similarity*100)
		sb.WriteString(c.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// Build renders the template for mode with the formatted context and the raw
// question. Unknown modes use the standard template. The question is passed
// through unchanged, including when it is empty.
func Build(question string, ranked []rag.RankedChunk, mode Mode) string {
	tmpl, ok := templates[mode]
	if !ok {
		tmpl = templates[ModeStandard]
	}

	// A single-pass replacer never re-scans inserted text, so placeholders
	// inside the question or chunk text are left alone.
	r := strings.NewReplacer(
		"{context}", FormatContext(ranked),
		"{question}", question,
	)
	return r.Replace(tmpl)
}
