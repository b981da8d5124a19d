package engine

import (
	"context"
	"strings"
	"time"

	"github.com/sketch2solve/coach/pkg/coach/events"
)

// TranscribeAndAttach transcribes a checkpoint's audio and attaches the
// result to the checkpoint and the session transcript. It runs detached
// from the request that created the checkpoint, so every failure is
// terminal for this task and logged only; nothing downstream publishes
// unless both mutations committed.
func (e *Engine) TranscribeAndAttach(ctx context.Context, audio []byte, sessionID, checkpointID string) {
	if e.Transcriber == nil {
		return
	}

	sttCtx, cancel := context.WithTimeout(ctx, e.STTTimeout)
	text, err := e.Transcriber.Transcribe(sttCtx, audio)
	cancel()
	if err != nil {
		e.logger().Warn("background transcription failed",
			"session_id", sessionID, "checkpoint_id", checkpointID, "error", err)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if err := e.Store.AttachTranscript(ctx, sessionID, checkpointID, text); err != nil {
		e.logger().Warn("transcript attach failed",
			"session_id", sessionID, "checkpoint_id", checkpointID, "error", err)
		return
	}

	e.Hub.Publish(sessionID, events.TranscriptDelta{
		Type:      "transcript_delta",
		Text:      text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
