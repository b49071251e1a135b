package handler

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/parisxmas/vacancyform/internal/service"
	"github.com/parisxmas/vacancyform/internal/storage"
)

type AdminHandler struct {
	subSvc *service.SubmissionService
}

func NewAdminHandler(subSvc *service.SubmissionService) *AdminHandler {
	return &AdminHandler{subSvc: subSvc}
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 20
	}

	subs, total, err := h.subSvc.List(r.Context(), skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"submissions": subs,
		"total":       total,
		"skip":        skip,
		"limit":       limit,
	})
}

// Export streams the whole log as CSV.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	recs, err := h.subSvc.Records(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	name := fmt.Sprintf("job_vacancies_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	if err := storage.WriteCSV(w, recs); err != nil {
		log.Printf("Warning: export: %v", err)
	}
}
