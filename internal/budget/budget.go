// Package budget estimates the token size of prompts sent to the generation
// model. Because the service supports several LLM backends with different
// tokenizers, it uses a conservative character heuristic:
// 1 token ≈ 4 characters of English prose.
package budget

import (
	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the character-to-token ratio used for estimation.
	charsPerToken = 4

	// perMessageOverhead approximates the role and framing tokens most chat
	// APIs add to every message.
	perMessageOverhead = 4

	// DefaultMaxPromptTokens is the prompt size above which a warning is
	// logged. Three policy chunks of ~600 tokens plus the instruction template
	// fit comfortably below it.
	DefaultMaxPromptTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		if m == nil {
			continue
		}
		total += perMessageOverhead
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// Exceeds reports the estimated size of prompt and whether it is above
// maxTokens. A non-positive maxTokens uses DefaultMaxPromptTokens.
func Exceeds(prompt string, maxTokens int) (int, bool) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxPromptTokens
	}
	n := Estimate(prompt)
	return n, n > maxTokens
}
