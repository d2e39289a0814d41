package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/54b3r/policyai-go/internal/rag"
)

func sampleRanked() []rag.RankedChunk {
	return []rag.RankedChunk{
		{ID: "chunk_0001", Section: "Coverage", Text: "Hospitalisation is covered.", Similarity: 0.9234},
		{ID: "chunk_0007", Section: "Waiting Periods", Text: "Pre-existing diseases: 36 months.", Similarity: 0.71},
		{ID: "chunk_0012", Section: "Exclusions", Text: "Cosmetic surgery is excluded.", Similarity: 0.5},
	}
}

func TestFormatContext_Empty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, NoContextPlaceholder, FormatContext(nil))
	assert.Equal(t, NoContextPlaceholder, FormatContext([]rag.RankedChunk{}))
}

func TestFormatContext_HeadersInOrder(t *testing.T) {
	t.Parallel()

	out := FormatContext(sampleRanked())

	assert.Equal(t, 3, strings.Count(out, "| Section: "))
	first := strings.Index(out, "Section: Coverage")
	second := strings.Index(out, "Section: Waiting Periods")
	third := strings.Index(out, "Section: Exclusions")
	require.True(t, first >= 0 && second >= 0 && third >= 0, "missing header in %q", out)
	assert.Less(t, first, second)
	assert.Less(t, second, third)

	assert.Contains(t, out, "[Source 1 | Section: Coverage | Relevance: 92.3%]\nHospitalisation is covered.\n\n")
	assert.Contains(t, out, "Relevance: 71.0%")
	assert.Contains(t, out, "Relevance: 50.0%")
	assert.True(t, strings.HasSuffix(out, "Cosmetic surgery is excluded.\n\n"))
}

func TestFormatContext_Deterministic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FormatContext(sampleRanked()), FormatContext(sampleRanked()))
}

func TestBuild_EmptyContextStandard(t *testing.T) {
	t.Parallel()

	out := Build("Is X covered?", nil, ModeStandard)

	assert.Contains(t, out, RefusalText)
	assert.Contains(t, out, NoContextPlaceholder)
	assert.Contains(t, out, "Is X covered?")
}

func TestBuild_AllModesCarryGroundingRules(t *testing.T) {
	t.Parallel()

	for _, mode := range []Mode{ModeStandard, ModeStrict, ModeCoverageCheck} {
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()
			out := Build("Is cataract surgery covered?", sampleRanked(), mode)

			assert.Contains(t, out, RefusalText)
			assert.Contains(t, out, "medical or legal advice")
			assert.Contains(t, out, "Section: Waiting Periods")
			assert.Contains(t, out, "Is cataract surgery covered?")
			assert.NotContains(t, out, "{context}")
			assert.NotContains(t, out, "{question}")
		})
	}
}

func TestBuild_CoverageCheckFormat(t *testing.T) {
	t.Parallel()

	out := Build("Is maternity covered?", sampleRanked(), ModeCoverageCheck)
	for _, field := range []string{"COVERED: YES | NO | UNCLEAR", "SECTION:", "WAITING PERIOD:", "EXCLUSIONS:", "EXPLANATION:"} {
		assert.Contains(t, out, field)
	}

	standard := Build("Is maternity covered?", sampleRanked(), ModeStandard)
	assert.NotContains(t, standard, "WAITING PERIOD:")
}

func TestBuild_StrictDiffersFromStandard(t *testing.T) {
	t.Parallel()

	strict := Build("q", nil, ModeStrict)
	standard := Build("q", nil, ModeStandard)
	assert.NotEqual(t, strict, standard)
	assert.Contains(t, strict, "STRICT")
}

func TestBuild_UnknownModeFallsBackToStandard(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Build("q", sampleRanked(), ModeStandard), Build("q", sampleRanked(), Mode("verbose")))
}

func TestBuild_QuestionPassedThrough(t *testing.T) {
	t.Parallel()

	out := Build("", nil, ModeStandard)
	assert.True(t, strings.HasSuffix(out, "QUESTION:\n\n\nANSWER:"), "got %q", out)

	// Placeholders in user input are not expanded.
	out = Build("what is {context}?", nil, ModeStandard)
	assert.Contains(t, out, "what is {context}?")
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeStandard, false},
		{"standard", ModeStandard, false},
		{"STRICT", ModeStrict, false},
		{" coverage_check ", ModeCoverageCheck, false},
		{"coverage-check", ModeCoverageCheck, false},
		{"coverage", ModeCoverageCheck, false},
		{"verbose", "", true},
	}
	for _, tc := range tests {
		got, err := ParseMode(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "ParseMode(%q)", tc.in)
			continue
		}
		require.NoError(t, err, "ParseMode(%q)", tc.in)
		assert.Equal(t, tc.want, got, "ParseMode(%q)", tc.in)
	}
}
