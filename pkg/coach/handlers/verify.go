package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sketch2solve/coach/pkg/coach/engine"
	"github.com/sketch2solve/coach/pkg/coach/mw"
	"github.com/sketch2solve/coach/pkg/coach/problems"
	"github.com/sketch2solve/coach/pkg/coach/store"
)

type SessionGetter interface {
	GetSession(ctx context.Context, id string) (*store.Session, error)
}

type CodeVerifier interface {
	VerifyCode(ctx context.Context, code, language string, md *problems.Metadata, problemTitle string) *engine.VerifyResult
}

type VerifyHandler struct {
	Store  SessionGetter
	Engine CodeVerifier
	Logger *slog.Logger
}

func (h VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())

	var body struct {
		SessionID    string `json:"session_id"`
		Code         string `json:"code"`
		Language     string `json:"language"`
		ProblemTitle string `json:"problem_title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, errInvalidRequest, "invalid JSON body", reqID)
		return
	}

	// A missing session just means verification runs without problem
	// metadata.
	var problem *problems.Metadata
	sess, err := h.Store.GetSession(r.Context(), body.SessionID)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("verify session lookup failed", "error", err)
		}
	} else if sess != nil {
		problem = sess.Problem
	}

	result := h.Engine.VerifyCode(r.Context(), body.Code, body.Language, problem, body.ProblemTitle)
	writeJSON(w, http.StatusOK, result)
}
