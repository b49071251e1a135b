package handler

import (
	"net/http"

	"github.com/parisxmas/vacancyform/internal/service"
)

type DashboardHandler struct {
	subSvc *service.SubmissionService
}

func NewDashboardHandler(subSvc *service.SubmissionService) *DashboardHandler {
	return &DashboardHandler{subSvc: subSvc}
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.subSvc.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
