package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/parisxmas/vacancyform/internal/notify"
	"github.com/parisxmas/vacancyform/internal/service"
)

type SubmissionHandler struct {
	subSvc  *service.SubmissionService
	authSvc *service.AuthService
	baseURL string
}

func NewSubmissionHandler(subSvc *service.SubmissionService, authSvc *service.AuthService, baseURL string) *SubmissionHandler {
	return &SubmissionHandler{subSvc: subSvc, authSvc: authSvc, baseURL: strings.TrimRight(baseURL, "/")}
}

type documentView struct {
	Key         string `json:"key"`
	FileName    string `json:"fileName"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"downloadUrl"`
}

type deliveryView struct {
	Notifier  string `json:"notifier"`
	Delivered bool   `json:"delivered"`
	Warning   string `json:"warning,omitempty"`
}

// Create accepts {"data": {...}, "credential": {...}} and runs the pipeline.
func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data       map[string]any    `json:"data"`
		Credential notify.Credential `json:"credential"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.subSvc.Submit(r.Context(), service.ValuesFromJSON(req.Data), req.Credential)
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	resp := map[string]any{"submission": out.Record.ToSubmission()}
	link, err := h.downloadURL(out.Stored.Key)
	if err != nil {
		log.Printf("Warning: sign download link for %s: %v", out.Stored.Key, err)
	}
	resp["document"] = documentView{
		Key:         out.Stored.Key,
		FileName:    out.Stored.FileName,
		Size:        out.Stored.Size,
		DownloadURL: link,
	}
	if out.Notifier != "" {
		resp["delivery"] = deliveryView{Notifier: out.Notifier, Delivered: out.Delivered, Warning: out.Warning()}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *SubmissionHandler) downloadURL(key string) (string, error) {
	token, err := h.authSvc.DownloadToken(key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/documents/%s?token=%s", h.baseURL, url.PathEscape(key), url.QueryEscape(token)), nil
}

func writeSubmitError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":        verr.Error(),
			"missing":      verr.Missing,
			"invalidEmail": verr.InvalidEmail,
			"invalid":      verr.Invalid,
		})
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
