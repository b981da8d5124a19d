package handlers

import (
	"net/http"

	"github.com/sketch2solve/coach/pkg/coach/mw"
)

type NotFoundHandler struct{}

func (h NotFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	writeErrorJSON(w, http.StatusNotFound, errNotFound, "not found", reqID)
}
