// Package prompt holds the fixed system instructions and the pure context
// assembly for reasoning calls.
package prompt

import (
	"fmt"
	"strings"

	"github.com/sketch2solve/coach/pkg/coach/problems"
)

// ContextInput is everything a coaching turn knows at context-build time.
type ContextInput struct {
	Problem     *problems.Metadata
	Pseudocode  string
	Labels      []string
	Transcript  string
	TriggerType string
	RevealMode  bool
}

// BuildContext renders one deterministic text block for the reasoning call.
// It performs no I/O; identical input yields byte-identical output.
func BuildContext(in ContextInput) string {
	md := in.Problem
	if md == nil {
		md = &problems.Metadata{}
	}

	title := md.Title
	if title == "" {
		title = "Unknown"
	}
	difficulty := md.Difficulty
	if difficulty == "" {
		difficulty = "Unknown"
	}
	desc := md.Description
	if desc == "" {
		desc = "(no description)"
	}
	tags := strings.Join(md.TopicTags, ", ")
	if tags == "" {
		tags = "(none)"
	}

	var examples strings.Builder
	for i, ex := range md.Examples {
		switch v := ex.(type) {
		case map[string]any:
			input, _ := v["input"].(string)
			output, _ := v["output"].(string)
			if input == "" {
				input = "?"
			}
			if output == "" {
				output = "?"
			}
			fmt.Fprintf(&examples, "\n  Example %d: Input: %s → Output: %s", i+1, input, output)
		default:
			fmt.Fprintf(&examples, "\n  Example %d: %v", i+1, v)
		}
	}

	labels := "  (none)"
	if len(in.Labels) > 0 {
		lines := make([]string, 0, len(in.Labels))
		for _, l := range in.Labels {
			lines = append(lines, fmt.Sprintf("  - %q", l))
		}
		labels = strings.Join(lines, "\n")
	}

	pseudocode := in.Pseudocode
	if pseudocode == "" {
		pseudocode = "(empty)"
	}
	transcript := in.Transcript
	if transcript == "" {
		transcript = "(none)"
	}

	return fmt.Sprintf(`Problem: %s
Topic Tags: %s
Difficulty: %s
Description: %s
Constraints: %s
%s

User's pseudocode:
%s

Whiteboard labels:
%s

User's spoken reasoning:
%s

Trigger: %s
Reveal mode: %t`,
		title, tags, difficulty, desc, strings.Join(md.Constraints, ", "), examples.String(),
		pseudocode, labels, transcript, in.TriggerType, in.RevealMode)
}

// BuildVerifyContext renders the user message for a verification pass. The
// description is truncated to keep the request bounded.
func BuildVerifyContext(code, language string, md *problems.Metadata, problemTitle string) string {
	if md == nil {
		md = &problems.Metadata{}
	}
	title := problemTitle
	if title == "" {
		title = md.Title
	}
	if title == "" {
		title = "Unknown"
	}
	desc := md.Description
	if len(desc) > 2000 {
		desc = desc[:2000]
	}

	var examples strings.Builder
	for i, ex := range md.Examples {
		switch v := ex.(type) {
		case map[string]any:
			input, _ := v["input"].(string)
			output, _ := v["output"].(string)
			if input == "" {
				input = "?"
			}
			if output == "" {
				output = "?"
			}
			fmt.Fprintf(&examples, "\nExample %d: Input: %s → Output: %s", i+1, input, output)
		default:
			fmt.Fprintf(&examples, "\nExample %d: %v", i+1, v)
		}
	}

	return fmt.Sprintf("Problem: %s\nDescription: %s\n%s\n\nLanguage: %s\nCode:\n```\n%s\n```\n\nVerify this solution. Trace through each test case carefully.",
		title, desc, examples.String(), language, code)
}

// BuildVisualizeContext prefixes pseudocode with the problem title when one
// is known.
func BuildVisualizeContext(pseudocode, problemTitle string) string {
	if problemTitle == "" {
		return pseudocode
	}
	return fmt.Sprintf("Problem: %s\n\n%s", problemTitle, pseudocode)
}
