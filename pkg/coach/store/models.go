package store

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sketch2solve/coach/pkg/coach/problems"
)

// Session is one end-to-end coaching interaction. FullTranscript is
// append-only, newline-joined, grown by background transcription.
type Session struct {
	ID             string             `json:"session_id"`
	ExternalID     *string            `json:"external_id"`
	Problem        *problems.Metadata `json:"problem"`
	FullTranscript string             `json:"full_transcript"`
	Status         string             `json:"status"` // active | completed
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// Checkpoint is one snapshot of user work. TranscriptDelta is the only
// field written after creation, by the background transcriber.
type Checkpoint struct {
	ID              string    `json:"checkpoint_id"`
	SessionID       string    `json:"session_id"`
	SequenceNum     int       `json:"sequence_num"`
	Pseudocode      string    `json:"pseudocode"`
	WhiteboardJSON  string    `json:"whiteboard_json"`
	Labels          []string  `json:"labels"`
	AudioURL        *string   `json:"audio_url"`
	TranscriptDelta *string   `json:"transcript_delta"`
	CreatedAt       time.Time `json:"created_at"`
}

// Analysis is the immutable record of one coaching turn.
type Analysis struct {
	ID                string    `json:"analysis_id"`
	SessionID         string    `json:"session_id"`
	CheckpointID      *string   `json:"checkpoint_id"`
	TriggerType       string    `json:"trigger_type"`
	InferredPattern   string    `json:"inferred_pattern"`
	Confidence        float64   `json:"confidence"`
	Evidence          string    `json:"evidence"`
	VisualDescription string    `json:"visual_description"`
	SnapshotURL       *string   `json:"snapshot_url"`
	MissingPieces     []string  `json:"missing_pieces"`
	Questions         []string  `json:"questions"`
	MicroHint         string    `json:"micro_hint"`
	RevealOutline     *string   `json:"reveal_outline"`
	RawResponse       string    `json:"raw_llm_response"`
	CreatedAt         time.Time `json:"created_at"`
}

// EvolutionStep traces how the inferred pattern changed across a session's
// analyses; part of the mental model card.
type EvolutionStep struct {
	CheckpointID *string `json:"checkpoint_id"`
	Pattern      string  `json:"pattern"`
	Confidence   float64 `json:"confidence"`
}

// MentalModelCard is the end-of-session summary, one per session.
type MentalModelCard struct {
	ID                  string          `json:"id"`
	SessionID           string          `json:"session_id"`
	FinalPattern        string          `json:"final_pattern"`
	KeyInvariants       []string        `json:"key_invariants"`
	ApproachEvolution   []EvolutionStep `json:"approach_evolution"`
	UnansweredQuestions []string        `json:"unanswered_questions"`
	FullTranscript      string          `json:"full_transcript"`
	CreatedAt           time.Time       `json:"created_at"`
}

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// NewID returns a prefixed random identifier, e.g. "sess_1a2b3c4d5e6f7890".
func NewID(prefix string) string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	}
	return prefix + "_" + hex.EncodeToString(b)
}
