package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sketch2solve/coach/pkg/coach/mw"
	"github.com/sketch2solve/coach/pkg/coach/problems"
	"github.com/sketch2solve/coach/pkg/coach/store"
)

// SessionStore is the slice of persistence the session surface needs.
type SessionStore interface {
	CreateSession(ctx context.Context, externalID *string, problem *problems.Metadata) (*store.Session, error)
	GetSession(ctx context.Context, id string) (*store.Session, error)
	SetSessionProblem(ctx context.Context, id string, externalID *string, problem *problems.Metadata) error
	CompleteSession(ctx context.Context, id string) error
	ListAnalyses(ctx context.Context, sessionID string) ([]store.Analysis, error)
	CountCheckpoints(ctx context.Context, sessionID string) (int, error)
	CountAnalyses(ctx context.Context, sessionID string) (int, error)
	CreateCard(ctx context.Context, card *store.MentalModelCard) error
	GetCard(ctx context.Context, sessionID string) (*store.MentalModelCard, error)
}

// ProblemResolver resolves a problem reference to metadata; absence is a
// normal outcome, not an error.
type ProblemResolver interface {
	Resolve(ctx context.Context, externalID, freeform string) (*problems.Metadata, bool)
}

type SessionsHandler struct {
	Store    SessionStore
	Resolver ProblemResolver
	Logger   *slog.Logger
}

type problemRequest struct {
	LCID        string `json:"lc_id"`
	ProblemText string `json:"problem_text"`
}

func (h SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())

	var body problemRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, errInvalidRequest, "invalid JSON body", reqID)
		return
	}

	problem, _ := h.Resolver.Resolve(r.Context(), body.LCID, body.ProblemText)

	var externalID *string
	if id := strings.TrimSpace(body.LCID); id != "" {
		externalID = &id
	}
	sess, err := h.Store.CreateSession(r.Context(), externalID, problem)
	if err != nil {
		h.logError("create session", err)
		writeErrorJSON(w, http.StatusInternalServerError, errAPI, "failed to create session", reqID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":         sess.ID,
		"problem":            problem,
		"needs_manual_input": problem == nil,
		"created_at":         sess.CreatedAt,
	})
}

func (h SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	sessionID := r.PathValue("id")

	sess, err := h.Store.GetSession(r.Context(), sessionID)
	if err != nil {
		h.logError("get session", err)
		writeErrorJSON(w, http.StatusInternalServerError, errAPI, "failed to load session", reqID)
		return
	}
	if sess == nil {
		writeErrorJSON(w, http.StatusNotFound, errNotFound, "session not found", reqID)
		return
	}

	checkpoints, err := h.Store.CountCheckpoints(r.Context(), sessionID)
	if err != nil {
		h.logError("count checkpoints", err)
	}
	analyses, err := h.Store.CountAnalyses(r.Context(), sessionID)
	if err != nil {
		h.logError("count analyses", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":       sess.ID,
		"problem":          sess.Problem,
		"status":           sess.Status,
		"full_transcript":  sess.FullTranscript,
		"checkpoint_count": checkpoints,
		"analysis_count":   analyses,
	})
}

// SetProblem re-resolves the session's problem. An unresolved reference
// leaves the stored problem untouched and reports needs_manual_input.
func (h SessionsHandler) SetProblem(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	sessionID := r.PathValue("id")

	var body problemRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, errInvalidRequest, "invalid JSON body", reqID)
		return
	}

	sess, err := h.Store.GetSession(r.Context(), sessionID)
	if err != nil {
		h.logError("get session", err)
		writeErrorJSON(w, http.StatusInternalServerError, errAPI, "failed to load session", reqID)
		return
	}
	if sess == nil {
		writeErrorJSON(w, http.StatusNotFound, errNotFound, "session not found", reqID)
		return
	}

	problem, _ := h.Resolver.Resolve(r.Context(), body.LCID, body.ProblemText)
	if problem == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"problem":            nil,
			"needs_manual_input": true,
		})
		return
	}

	var externalID *string
	if id := strings.TrimSpace(body.LCID); id != "" {
		externalID = &id
	}
	if err := h.Store.SetSessionProblem(r.Context(), sessionID, externalID, problem); err != nil {
		h.logError("set session problem", err)
		writeErrorJSON(w, http.StatusInternalServerError, errAPI, "failed to update session", reqID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"problem":            problem,
		"needs_manual_input": false,
	})
}

// Complete marks the session completed and distills its analyses into a
// mental model card.
func (h SessionsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	sessionID := r.PathValue("id")

	sess, err := h.Store.GetSession(r.Context(), sessionID)
	if err != nil {
		h.logError("get session", err)
		writeErrorJSON(w, http.StatusInternalServerError, errAPI, "failed to load session", reqID)
		return
	}
	if sess == nil {
		writeErrorJSON(w, http.StatusNotFound, errNotFound, "session not found", reqID)
		return
	}

	if err := h.Store.CompleteSession(r.Context(), sessionID); err != nil {
		h.logError("complete session", err)
		writeErrorJSON(w, http.StatusInternalServerError, errAPI, "failed to complete session", reqID)
		return
	}

	analyses, err := h.Store.ListAnalyses(r.Context(), sessionID)
	if err != nil {
		h.logError("list analyses", err)
		writeErrorJSON(w, http.StatusInternalServerError, errAPI, "failed to load analyses", reqID)
		return
	}

	card := buildCard(sess, analyses)
	if err := h.Store.CreateCard(r.Context(), card); err != nil {
		h.logError("create card", err)
		writeErrorJSON(w, http.StatusInternalServerError, errAPI, "failed to save mental model card", reqID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":           sessionID,
		"mental_model_card_id": card.ID,
	})
}

func (h SessionsHandler) Card(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	sessionID := r.PathValue("id")

	card, err := h.Store.GetCard(r.Context(), sessionID)
	if err != nil {
		h.logError("get card", err)
		writeErrorJSON(w, http.StatusInternalServerError, errAPI, "failed to load card", reqID)
		return
	}
	if card == nil {
		writeErrorJSON(w, http.StatusNotFound, errNotFound, "card not found", reqID)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// buildCard summarizes a session: the last analysis supplies the final
// pattern and open items, the whole list supplies the evolution trace.
func buildCard(sess *store.Session, analyses []store.Analysis) *store.MentalModelCard {
	card := &store.MentalModelCard{
		SessionID:           sess.ID,
		KeyInvariants:       []string{},
		ApproachEvolution:   make([]store.EvolutionStep, 0, len(analyses)),
		UnansweredQuestions: []string{},
		FullTranscript:      sess.FullTranscript,
	}
	for _, a := range analyses {
		card.ApproachEvolution = append(card.ApproachEvolution, store.EvolutionStep{
			CheckpointID: a.CheckpointID,
			Pattern:      a.InferredPattern,
			Confidence:   a.Confidence,
		})
	}
	if len(analyses) > 0 {
		last := analyses[len(analyses)-1]
		card.FinalPattern = last.InferredPattern
		if last.MissingPieces != nil {
			card.KeyInvariants = last.MissingPieces
		}
		if last.Questions != nil {
			card.UnansweredQuestions = last.Questions
		}
	}
	return card
}

func (h SessionsHandler) logError(msg string, err error) {
	if h.Logger != nil {
		h.Logger.Error(msg, "error", err)
	}
}
