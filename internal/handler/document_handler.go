package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/parisxmas/vacancyform/internal/auth"
	"github.com/parisxmas/vacancyform/internal/service"
)

type DocumentHandler struct {
	svc       *service.DocumentService
	jwtSecret string
}

func NewDocumentHandler(svc *service.DocumentService, jwtSecret string) *DocumentHandler {
	return &DocumentHandler{svc: svc, jwtSecret: jwtSecret}
}

// Download serves a stored document to the holder of a signed link
// (?token=) or an admin bearer token.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.BearerToken(r)
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := auth.ValidateDownload(h.jwtSecret, token, key); err != nil {
		writeError(w, http.StatusForbidden, "link is invalid or has expired")
		return
	}

	data, doc, err := h.svc.Download(r.Context(), key)
	if errors.Is(err, service.ErrDocumentNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
