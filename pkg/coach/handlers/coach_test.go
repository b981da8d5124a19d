package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sketch2solve/coach/pkg/coach/engine"
	"github.com/sketch2solve/coach/pkg/coach/problems"
	"github.com/sketch2solve/coach/pkg/coach/store"
)

type fakeCoachRunner struct {
	result *engine.CoachResult
	err    error

	sessionID   string
	triggerType string
	audio       []byte
	image       []byte
	revealMode  bool
}

func (f *fakeCoachRunner) RunCoachTurn(_ context.Context, sessionID, triggerType string, audio, image []byte, revealMode bool) (*engine.CoachResult, error) {
	f.sessionID, f.triggerType = sessionID, triggerType
	f.audio, f.image, f.revealMode = audio, image, revealMode
	return f.result, f.err
}

func TestCoach_HappyPath(t *testing.T) {
	runner := &fakeCoachRunner{result: &engine.CoachResult{
		AnalysisID:       "an_1",
		InferredApproach: engine.Approach{Pattern: "Two Pointers", Confidence: 0.8},
	}}
	h := CoachHandler{Engine: runner, MaxBodyBytes: 16 << 20}

	body, contentType := multipartBody(t,
		map[string]string{"trigger_type": "manual", "reveal_mode": "true"},
		map[string][]byte{
			"audio_blob":     bytes.Repeat([]byte("a"), 2048),
			"whiteboard_png": []byte("png"),
		})
	req := httptest.NewRequest(http.MethodPost, "/sessions/s1/coach", body)
	req.Header.Set("Content-Type", contentType)
	req.SetPathValue("id", "s1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if runner.sessionID != "s1" || runner.triggerType != "manual" || !runner.revealMode {
		t.Fatalf("runner got %q/%q reveal=%v", runner.sessionID, runner.triggerType, runner.revealMode)
	}
	if len(runner.audio) != 2048 || string(runner.image) != "png" {
		t.Fatalf("audio=%d image=%q", len(runner.audio), runner.image)
	}

	resp := decodeBody(t, rr)
	if resp["analysis_id"] != "an_1" {
		t.Fatalf("response=%v", resp)
	}
}

func TestCoach_MissingTriggerType(t *testing.T) {
	h := CoachHandler{Engine: &fakeCoachRunner{}, MaxBodyBytes: 16 << 20}

	body, contentType := multipartBody(t, map[string]string{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/sessions/s1/coach", body)
	req.Header.Set("Content-Type", contentType)
	req.SetPathValue("id", "s1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestCoach_EngineFailure(t *testing.T) {
	h := CoachHandler{Engine: &fakeCoachRunner{err: errors.New("persist analysis: disk full")}, MaxBodyBytes: 16 << 20}

	body, contentType := multipartBody(t, map[string]string{"trigger_type": "manual"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/sessions/s1/coach", body)
	req.Header.Set("Content-Type", contentType)
	req.SetPathValue("id", "s1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "disk full") {
		t.Fatal("internal error detail leaked to the client")
	}
}

type fakeVerifier struct {
	result *engine.VerifyResult
	md     *problems.Metadata
	title  string
}

func (f *fakeVerifier) VerifyCode(_ context.Context, _, _ string, md *problems.Metadata, problemTitle string) *engine.VerifyResult {
	f.md, f.title = md, problemTitle
	return f.result
}

func TestVerify_UsesSessionProblem(t *testing.T) {
	fs := newFakeSessionStore()
	md := &problems.Metadata{Title: "Two Sum"}
	fs.sessions["s1"] = &store.Session{ID: "s1", Problem: md, Status: store.StatusActive}
	verifier := &fakeVerifier{result: &engine.VerifyResult{Status: "pass", Results: []engine.VerifyCase{}}}
	h := VerifyHandler{Store: fs, Engine: verifier}

	req := httptest.NewRequest(http.MethodPost, "/verify",
		strings.NewReader(`{"session_id": "s1", "code": "x", "language": "python", "problem_title": "Two Sum"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if verifier.md != md || verifier.title != "Two Sum" {
		t.Fatalf("verifier got md=%v title=%q", verifier.md, verifier.title)
	}
	resp := decodeBody(t, rr)
	if resp["status"] != "pass" {
		t.Fatalf("response=%v", resp)
	}
}

func TestVerify_MissingSessionStillVerifies(t *testing.T) {
	verifier := &fakeVerifier{result: &engine.VerifyResult{Status: "error", Results: []engine.VerifyCase{}}}
	h := VerifyHandler{Store: newFakeSessionStore(), Engine: verifier}

	req := httptest.NewRequest(http.MethodPost, "/verify",
		strings.NewReader(`{"session_id": "nope", "code": "x", "language": "python"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if verifier.md != nil {
		t.Fatalf("expected nil metadata, got %v", verifier.md)
	}
}

type fakeVisualizer struct {
	shapes []engine.Shape
}

func (f *fakeVisualizer) PseudocodeToShapes(context.Context, string, string) []engine.Shape {
	return f.shapes
}

func TestVisualize(t *testing.T) {
	h := VisualizeHandler{Engine: &fakeVisualizer{shapes: []engine.Shape{{"type": "box"}}}}

	req := httptest.NewRequest(http.MethodPost, "/visualize",
		strings.NewReader(`{"pseudocode": "l, r = 0, n-1", "problem_title": "Two Sum"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	resp := decodeBody(t, rr)
	shapes, ok := resp["shapes"].([]any)
	if !ok || len(shapes) != 1 {
		t.Fatalf("response=%v", resp)
	}
}

func TestVisualize_BadJSON(t *testing.T) {
	h := VisualizeHandler{Engine: &fakeVisualizer{}}

	req := httptest.NewRequest(http.MethodPost, "/visualize", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
}
