package engine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sketch2solve/coach/pkg/coach/problems"
	"github.com/sketch2solve/coach/pkg/coach/prompt"
)

type VerifyCase struct {
	Passed   bool    `json:"passed"`
	Input    string  `json:"input"`
	Expected string  `json:"expected"`
	Actual   string  `json:"actual"`
	Error    *string `json:"error"`
}

type VerifyResult struct {
	Status   string       `json:"status"` // pass | fail | error
	Summary  string       `json:"summary"`
	Results  []VerifyCase `json:"results"`
	Feedback string       `json:"feedback"`
}

// VerifyCode traces a user's solution against the problem via the
// reasoning capability. It never returns an error; failures produce an
// explanatory error-status result.
func (e *Engine) VerifyCode(ctx context.Context, code, language string, md *problems.Metadata, problemTitle string) *VerifyResult {
	if strings.TrimSpace(code) == "" {
		return &VerifyResult{
			Status:   "error",
			Summary:  "No code provided.",
			Results:  []VerifyCase{},
			Feedback: "Write your solution code and try again.",
		}
	}

	failed := func(err error) *VerifyResult {
		e.logger().Warn("verification failed", "error", err)
		msg := err.Error()
		if len(msg) > 100 {
			msg = msg[:100]
		}
		return &VerifyResult{
			Status:   "error",
			Summary:  "Verification failed: " + msg,
			Results:  []VerifyCase{},
			Feedback: "Try again in a moment.",
		}
	}

	if e.Reasoner == nil {
		return &VerifyResult{
			Status:   "error",
			Summary:  "Verification is not configured.",
			Results:  []VerifyCase{},
			Feedback: "Try again in a moment.",
		}
	}

	rctx, cancel := context.WithTimeout(ctx, e.ReasoningTimeout)
	defer cancel()
	raw, err := e.Reasoner.Reason(rctx, prompt.VerifySystem,
		prompt.BuildVerifyContext(code, language, md, problemTitle), nil)
	if err != nil {
		return failed(err)
	}

	var result VerifyResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return failed(err)
	}
	if result.Status == "" {
		result.Status = "error"
	}
	if result.Results == nil {
		result.Results = []VerifyCase{}
	}
	return &result
}
