package handler

import (
	"net/http"
	"strconv"

	"github.com/parisxmas/vacancyform/internal/service"
)

type SearchHandler struct {
	svc *service.SubmissionService
}

func NewSearchHandler(svc *service.SubmissionService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	result, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": result, "total": len(result)})
}
