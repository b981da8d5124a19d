// Package engine runs the coaching pipeline: context assembly, external
// reasoning, persistence, speech synthesis and event publication, plus the
// detached background transcription task.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sketch2solve/coach/pkg/coach/blob"
	"github.com/sketch2solve/coach/pkg/coach/events"
	"github.com/sketch2solve/coach/pkg/coach/prompt"
	"github.com/sketch2solve/coach/pkg/coach/store"
)

// Store is the slice of persistence the engine needs.
type Store interface {
	GetSession(ctx context.Context, id string) (*store.Session, error)
	LatestCheckpoint(ctx context.Context, sessionID string) (*store.Checkpoint, error)
	CreateAnalysis(ctx context.Context, a *store.Analysis) error
	AttachTranscript(ctx context.Context, sessionID, checkpointID, delta string) error
}

// Reasoner invokes the multimodal reasoning capability with forced
// structured output.
type Reasoner interface {
	Reason(ctx context.Context, system, contextText string, imagePNG []byte) (json.RawMessage, error)
}

// Transcriber converts an audio clip to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer converts text to audio. (nil, nil) means the feature is
// disabled, which is a normal outcome.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Engine struct {
	Store       Store
	Blobs       blob.Store
	Hub         *events.Hub
	Reasoner    Reasoner
	Transcriber Transcriber
	Synthesizer Synthesizer
	Logger      *slog.Logger

	// Audio clips at or below this size are treated as empty.
	MinAudioBytes int

	ReasoningTimeout time.Duration
	STTTimeout       time.Duration
	TTSTimeout       time.Duration
}

// Approach is the model's inferred algorithm pattern with its supporting
// evidence.
type Approach struct {
	Pattern    string  `json:"pattern"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence"`
}

// CoachResult is the outcome of one coaching turn, returned to the caller
// and published as a coach_response event.
type CoachResult struct {
	AnalysisID          string   `json:"analysis_id,omitempty"`
	InferredApproach    Approach `json:"inferred_approach"`
	VisualDescription   string   `json:"visual_description"`
	GeneratedPseudocode string   `json:"generated_pseudocode"`
	MissingPieces       []string `json:"missing_pieces"`
	Questions           []string `json:"questions"`
	MicroHint           string   `json:"micro_hint"`
	RevealOutline       *string  `json:"reveal_outline"`
	HintAudioURL        *string  `json:"hint_audio_url"`
}

// coachPayload is the structured shape the reasoning capability must
// return.
type coachPayload struct {
	InferredApproach    Approach `json:"inferred_approach"`
	MissingPieces       []string `json:"missing_pieces"`
	Questions           []string `json:"questions"`
	MicroHint           string   `json:"micro_hint"`
	RevealOutline       *string  `json:"reveal_outline"`
	GeneratedPseudocode string   `json:"generated_pseudocode"`
}

// fallbackPayload is substituted verbatim whenever reasoning is
// unavailable or its response cannot be parsed.
func fallbackPayload() coachPayload {
	return coachPayload{
		InferredApproach: Approach{
			Pattern:    "Unknown",
			Confidence: 0.0,
			Evidence:   "Analysis unavailable",
		},
		MissingPieces: []string{"Unable to analyze at this time"},
		Questions:     []string{"Can you describe your current approach in words?"},
		MicroHint:     "Try restating the problem constraints aloud.",
		RevealOutline: nil,
	}
}

func resultFromPayload(p coachPayload) *CoachResult {
	return &CoachResult{
		InferredApproach:    p.InferredApproach,
		VisualDescription:   p.InferredApproach.Evidence,
		GeneratedPseudocode: p.GeneratedPseudocode,
		MissingPieces:       p.MissingPieces,
		Questions:           p.Questions,
		MicroHint:           p.MicroHint,
		RevealOutline:       p.RevealOutline,
	}
}

// RunCoachTurn executes one coaching turn. Every external-capability
// failure degrades to a documented fallback; the only error surfaced to
// the caller is a failure to persist the Analysis record, which is the
// authoritative history of the turn.
func (e *Engine) RunCoachTurn(ctx context.Context, sessionID, triggerType string, audio, image []byte, revealMode bool) (*CoachResult, error) {
	sess, err := e.Store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return resultFromPayload(fallbackPayload()), nil
	}

	analysisID := store.NewID("an")

	var snapshotURL *string
	if len(image) > 0 {
		locator, err := e.Blobs.Save(sessionID, "snap_"+analysisID+".png", image)
		if err != nil {
			e.logger().Warn("snapshot save failed", "session_id", sessionID, "error", err)
		} else {
			snapshotURL = &locator
		}
	}

	latest, err := e.Store.LatestCheckpoint(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load latest checkpoint: %w", err)
	}

	in := prompt.ContextInput{
		Problem:     sess.Problem,
		Transcript:  sess.FullTranscript,
		TriggerType: triggerType,
		RevealMode:  revealMode,
	}
	if latest != nil {
		in.Pseudocode = latest.Pseudocode
		in.Labels = latest.Labels
	}
	contextText := prompt.BuildContext(in)

	if len(audio) > e.MinAudioBytes && e.Transcriber != nil {
		sttCtx, cancel := context.WithTimeout(ctx, e.STTTimeout)
		spoken, err := e.Transcriber.Transcribe(sttCtx, audio)
		cancel()
		if err != nil {
			e.logger().Warn("turn transcription failed", "session_id", sessionID, "error", err)
		} else if spoken != "" {
			contextText += "\n\nUser just said: " + spoken
		}
	}

	payload, raw := e.reason(ctx, sessionID, contextText, image)

	analysis := &store.Analysis{
		ID:                analysisID,
		SessionID:         sessionID,
		TriggerType:       triggerType,
		InferredPattern:   payload.InferredApproach.Pattern,
		Confidence:        payload.InferredApproach.Confidence,
		Evidence:          payload.InferredApproach.Evidence,
		VisualDescription: payload.InferredApproach.Evidence,
		SnapshotURL:       snapshotURL,
		MissingPieces:     payload.MissingPieces,
		Questions:         payload.Questions,
		MicroHint:         payload.MicroHint,
		RevealOutline:     payload.RevealOutline,
		RawResponse:       string(raw),
	}
	if latest != nil {
		analysis.CheckpointID = &latest.ID
	}
	if err := e.Store.CreateAnalysis(ctx, analysis); err != nil {
		return nil, fmt.Errorf("persist analysis: %w", err)
	}

	result := resultFromPayload(payload)
	result.AnalysisID = analysis.ID
	result.HintAudioURL = e.synthesizeHint(ctx, sessionID, analysisID, payload.MicroHint)

	e.Hub.Publish(sessionID, events.CoachResponse{Type: "coach_response", Analysis: result})

	return result, nil
}

// reason calls the reasoning capability and substitutes the static
// fallback on any failure. The returned raw bytes are what gets audited
// on the Analysis record.
func (e *Engine) reason(ctx context.Context, sessionID, contextText string, image []byte) (coachPayload, json.RawMessage) {
	fallback := func() (coachPayload, json.RawMessage) {
		p := fallbackPayload()
		raw, _ := json.Marshal(p)
		return p, raw
	}

	if e.Reasoner == nil {
		return fallback()
	}

	rctx, cancel := context.WithTimeout(ctx, e.ReasoningTimeout)
	defer cancel()
	raw, err := e.Reasoner.Reason(rctx, prompt.CoachSystem, contextText, image)
	if err != nil {
		e.logger().Warn("reasoning failed", "session_id", sessionID, "error", err)
		return fallback()
	}

	var payload coachPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		e.logger().Warn("reasoning response unparseable", "session_id", sessionID, "error", err)
		return fallback()
	}
	return payload, raw
}

// synthesizeHint produces and stores hint audio; every failure here is
// silent because audio is a garnish on the turn, never its substance.
func (e *Engine) synthesizeHint(ctx context.Context, sessionID, analysisID, hint string) *string {
	if hint == "" || e.Synthesizer == nil {
		return nil
	}

	ttsCtx, cancel := context.WithTimeout(ctx, e.TTSTimeout)
	defer cancel()
	audio, err := e.Synthesizer.Synthesize(ttsCtx, hint)
	if err != nil {
		e.logger().Warn("hint synthesis failed", "session_id", sessionID, "error", err)
		return nil
	}
	if len(audio) == 0 {
		return nil
	}

	locator, err := e.Blobs.Save(sessionID, "hint_"+analysisID+".mp3", audio)
	if err != nil {
		e.logger().Warn("hint audio save failed", "session_id", sessionID, "error", err)
		return nil
	}
	return &locator
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
