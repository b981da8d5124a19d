package prompt

import (
	"strings"
	"testing"

	"github.com/sketch2solve/coach/pkg/coach/problems"
)

func TestBuildContext_Deterministic(t *testing.T) {
	in := ContextInput{
		Problem: &problems.Metadata{
			Title:       "Two Sum",
			Description: "Find two numbers adding to target.",
			Difficulty:  "Easy",
			Constraints: []string{"2 <= n <= 10^4", "answers are unique"},
			Examples:    []any{map[string]any{"input": "[2,7]", "output": "[0,1]"}, "raw example"},
			TopicTags:   []string{"Array", "Hash Table"},
		},
		Pseudocode:  "for i in arr: ...",
		Labels:      []string{"target", "seen"},
		Transcript:  "thinking out loud",
		TriggerType: "manual",
		RevealMode:  false,
	}

	first := BuildContext(in)
	second := BuildContext(in)
	if first != second {
		t.Fatal("BuildContext is not deterministic for identical input")
	}

	for _, want := range []string{
		"Problem: Two Sum",
		"Topic Tags: Array, Hash Table",
		"Difficulty: Easy",
		"Constraints: 2 <= n <= 10^4, answers are unique",
		"Example 1: Input: [2,7] → Output: [0,1]",
		"Example 2: raw example",
		"for i in arr: ...",
		`  - "target"`,
		"thinking out loud",
		"Trigger: manual",
		"Reveal mode: false",
	} {
		if !strings.Contains(first, want) {
			t.Fatalf("context missing %q:\n%s", want, first)
		}
	}
}

func TestBuildContext_Placeholders(t *testing.T) {
	out := BuildContext(ContextInput{TriggerType: "periodic", RevealMode: true})

	for _, want := range []string{
		"Problem: Unknown",
		"Topic Tags: (none)",
		"Difficulty: Unknown",
		"Description: (no description)",
		"(empty)",
		"  (none)",
		"User's spoken reasoning:\n(none)",
		"Reveal mode: true",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("context missing %q:\n%s", want, out)
		}
	}
}

func TestBuildVerifyContext_TruncatesDescription(t *testing.T) {
	md := &problems.Metadata{Description: strings.Repeat("x", 5000)}
	out := BuildVerifyContext("return 1", "python", md, "Big One")
	if strings.Count(out, "x") != 2000 {
		t.Fatalf("description not truncated to 2000, got %d", strings.Count(out, "x"))
	}
	if !strings.Contains(out, "Problem: Big One") {
		t.Fatal("missing explicit title override")
	}
}

func TestBuildVisualizeContext(t *testing.T) {
	if got := BuildVisualizeContext("push(x)", ""); got != "push(x)" {
		t.Fatalf("got %q", got)
	}
	if got := BuildVisualizeContext("push(x)", "Min Stack"); !strings.HasPrefix(got, "Problem: Min Stack") {
		t.Fatalf("got %q", got)
	}
}
