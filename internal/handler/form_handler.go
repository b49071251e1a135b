package handler

import (
	"net/http"

	"github.com/parisxmas/vacancyform/internal/form"
)

type FormHandler struct {
	def *form.Definition
}

func NewFormHandler(def *form.Definition) *FormHandler {
	return &FormHandler{def: def}
}

// Get returns the active form definition.
func (h *FormHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.def)
}
