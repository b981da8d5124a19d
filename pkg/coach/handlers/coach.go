package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sketch2solve/coach/pkg/coach/engine"
	"github.com/sketch2solve/coach/pkg/coach/mw"
)

// CoachRunner executes one coaching turn.
type CoachRunner interface {
	RunCoachTurn(ctx context.Context, sessionID, triggerType string, audio, image []byte, revealMode bool) (*engine.CoachResult, error)
}

type CoachHandler struct {
	Engine       CoachRunner
	Logger       *slog.Logger
	MaxBodyBytes int64
}

func (h CoachHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	sessionID := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	if err := r.ParseMultipartForm(h.MaxBodyBytes); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, errInvalidRequest, "invalid multipart form", reqID)
		return
	}

	triggerType := strings.TrimSpace(r.FormValue("trigger_type"))
	if triggerType == "" {
		writeErrorJSON(w, http.StatusBadRequest, errInvalidRequest, "trigger_type is required", reqID)
		return
	}
	revealMode := parseBool(r.FormValue("reveal_mode"))

	audio := readFormFile(r, "audio_blob")
	image := readFormFile(r, "whiteboard_png")

	result, err := h.Engine.RunCoachTurn(r.Context(), sessionID, triggerType, audio, image, revealMode)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("coach turn failed", "session_id", sessionID, "error", err)
		}
		writeErrorJSON(w, http.StatusInternalServerError, errAPI, "coaching turn failed", reqID)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
