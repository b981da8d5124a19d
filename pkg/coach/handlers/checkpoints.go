package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sketch2solve/coach/pkg/coach/blob"
	"github.com/sketch2solve/coach/pkg/coach/events"
	"github.com/sketch2solve/coach/pkg/coach/mw"
	"github.com/sketch2solve/coach/pkg/coach/store"
)

type CheckpointStore interface {
	CreateCheckpoint(ctx context.Context, cp *store.Checkpoint) error
}

// BackgroundTranscriber runs the detached post-checkpoint transcription
// task.
type BackgroundTranscriber interface {
	TranscribeAndAttach(ctx context.Context, audio []byte, sessionID, checkpointID string)
}

type CheckpointsHandler struct {
	Store        CheckpointStore
	Blobs        blob.Store
	Hub          *events.Hub
	Transcriber  BackgroundTranscriber
	Logger       *slog.Logger
	MaxBodyBytes int64
}

func (h CheckpointsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	if err := r.ParseMultipartForm(h.MaxBodyBytes); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, errInvalidRequest, "invalid multipart form", reqID)
		return
	}

	sessionID := strings.TrimSpace(r.FormValue("session_id"))
	if sessionID == "" {
		writeErrorJSON(w, http.StatusBadRequest, errInvalidRequest, "session_id is required", reqID)
		return
	}
	// Sequence numbers are caller-supplied and taken as-is.
	sequenceNum, err := strconv.Atoi(strings.TrimSpace(r.FormValue("sequence_num")))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, errInvalidRequest, "sequence_num must be an integer", reqID)
		return
	}

	whiteboardJSON := r.FormValue("whiteboard_json")
	if whiteboardJSON == "" {
		whiteboardJSON = "{}"
	}

	audio := readFormFile(r, "audio_blob")

	var audioURL *string
	if len(audio) > 0 {
		locator, err := h.Blobs.Save(sessionID, "audio_"+strconv.Itoa(sequenceNum)+".webm", audio)
		if err != nil {
			h.logError("audio save failed", err)
		} else {
			audioURL = &locator
		}
	}

	cp := &store.Checkpoint{
		SessionID:      sessionID,
		SequenceNum:    sequenceNum,
		Pseudocode:     r.FormValue("pseudocode"),
		WhiteboardJSON: whiteboardJSON,
		Labels:         parseLabels(r.FormValue("labels")),
		AudioURL:       audioURL,
	}
	if err := h.Store.CreateCheckpoint(r.Context(), cp); err != nil {
		h.logError("create checkpoint", err)
		writeErrorJSON(w, http.StatusInternalServerError, errAPI, "failed to save checkpoint", reqID)
		return
	}

	if len(audio) > 0 && h.Transcriber != nil {
		// Detached from the request: the response never waits on STT.
		go h.Transcriber.TranscribeAndAttach(context.Background(), audio, sessionID, cp.ID)
	}

	h.Hub.Publish(sessionID, events.CheckpointSaved{
		Type:         "checkpoint_saved",
		CheckpointID: cp.ID,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"checkpoint_id":    cp.ID,
		"audio_url":        audioURL,
		"transcript_delta": nil,
	})
}

// parseLabels accepts a JSON list of either strings or objects with a
// "text" field; anything unparseable becomes an empty list.
func parseLabels(raw string) []string {
	out := []string{}
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return out
	}
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			if text, ok := v["text"].(string); ok {
				out = append(out, text)
			}
		}
	}
	return out
}

func readFormFile(r *http.Request, field string) []byte {
	f, _, err := r.FormFile(field)
	if err != nil {
		return nil
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil
	}
	return data
}

func (h CheckpointsHandler) logError(msg string, err error) {
	if h.Logger != nil {
		h.Logger.Error(msg, "error", err)
	}
}
