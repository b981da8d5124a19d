package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sketch2solve/coach/pkg/coach/engine"
	"github.com/sketch2solve/coach/pkg/coach/mw"
)

type Visualizer interface {
	PseudocodeToShapes(ctx context.Context, pseudocode, problemTitle string) []engine.Shape
}

type VisualizeHandler struct {
	Engine Visualizer
}

func (h VisualizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())

	var body struct {
		Pseudocode   string `json:"pseudocode"`
		ProblemTitle string `json:"problem_title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, errInvalidRequest, "invalid JSON body", reqID)
		return
	}

	shapes := h.Engine.PseudocodeToShapes(r.Context(), body.Pseudocode, body.ProblemTitle)
	writeJSON(w, http.StatusOK, map[string]any{"shapes": shapes})
}
