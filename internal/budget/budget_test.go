package budget

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func Test_Estimate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},        // < 4 chars → 1
		{"abcd", 1},     // exactly 4 chars → 1
		{"abcde", 1},    // 5 chars → 1
		{"abcdefgh", 2}, // 8 chars → 2
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		got := Estimate(tc.input)
		if got != tc.want {
			t.Errorf("Estimate(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func Test_EstimateMessages(t *testing.T) {
	t.Parallel()
	msgs := []*schema.Message{
		schema.SystemMessage("policy assistant"), // 4 + Estimate("system")=1 + Estimate(16 chars)=4 = 9
		schema.UserMessage("hello world"),        // 4 + Estimate("user")=1 + Estimate(11 chars)=2 = 7
		nil,
	}
	if got := EstimateMessages(msgs); got != 16 {
		t.Errorf("EstimateMessages = %d, want 16", got)
	}
}

func Test_Exceeds(t *testing.T) {
	t.Parallel()

	n, over := Exceeds(strings.Repeat("x", 400), 50)
	if n != 100 || !over {
		t.Errorf("Exceeds(400 chars, 50) = (%d, %v), want (100, true)", n, over)
	}

	n, over = Exceeds(strings.Repeat("x", 400), 100)
	if n != 100 || over {
		t.Errorf("Exceeds(400 chars, 100) = (%d, %v), want (100, false)", n, over)
	}

	_, over = Exceeds(strings.Repeat("x", 4*DefaultMaxPromptTokens+4), 0)
	if !over {
		t.Error("Exceeds with maxTokens=0 should fall back to DefaultMaxPromptTokens")
	}
}
