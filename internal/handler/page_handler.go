package handler

import (
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"github.com/parisxmas/vacancyform/internal/form"
	"github.com/parisxmas/vacancyform/internal/notify"
	"github.com/parisxmas/vacancyform/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// secretField carries the submitter's mail password. It is handed to the
// notifier and dropped; it is never logged or stored.
const secretField = "sender_password"

type fieldView struct {
	form.Field
	Value    string
	Selected map[string]bool
	Checked  bool
	Flagged  bool
	MinAttr  string
	MaxAttr  string
}

type formPage struct {
	Title       string
	Description string
	Error       string
	Fields      []fieldView
	AskSecret   bool
}

type resultPage struct {
	Title       string
	Warning     string
	FileName    string
	DownloadURL string
}

type errorPage struct {
	Title string
	Error string
}

// PageHandler serves the HTML form and its submissions.
type PageHandler struct {
	subs      *SubmissionHandler
	askSecret bool
}

// NewPageHandler shows a password input when askSecret is set, for
// notifiers that authenticate as the submitter.
func NewPageHandler(subs *SubmissionHandler, askSecret bool) *PageHandler {
	return &PageHandler{subs: subs, askSecret: askSecret}
}

func (h *PageHandler) Form(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, http.StatusOK, nil, "", nil)
}

func (h *PageHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseForm(); err != nil {
		h.renderError(w, http.StatusBadRequest, "The form could not be read. Please try again.")
		return
	}
	values := service.Values{}
	for k, v := range r.PostForm {
		if k != secretField {
			values[k] = v
		}
	}
	cred := notify.Credential{Secret: r.PostForm.Get(secretField)}

	out, err := h.subs.subSvc.Submit(r.Context(), values, cred)
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		h.renderForm(w, http.StatusUnprocessableEntity, values, verr.Error(), verr)
		return
	case err != nil:
		h.renderError(w, http.StatusInternalServerError, "Your submission could not be saved. Please try again later.")
		return
	}

	link, err := h.subs.downloadURL(out.Stored.Key)
	if err != nil {
		log.Printf("Warning: sign download link for %s: %v", out.Stored.Key, err)
	}
	h.render(w, http.StatusOK, "result.html", resultPage{
		Title:       h.def().Title,
		Warning:     out.Warning(),
		FileName:    out.Stored.FileName,
		DownloadURL: link,
	})
}

func (h *PageHandler) def() *form.Definition { return h.subs.subSvc.Definition() }

func (h *PageHandler) renderForm(w http.ResponseWriter, status int, values service.Values, msg string, verr *service.ValidationError) {
	def := h.def()
	flagged := map[string]bool{}
	if verr != nil {
		for _, group := range [][]string{verr.Missing, verr.InvalidEmail, verr.Invalid} {
			for _, l := range group {
				flagged[l] = true
			}
		}
	}
	page := formPage{
		Title:       def.Title,
		Description: def.Description,
		Error:       msg,
		AskSecret:   h.askSecret,
	}
	for _, f := range def.Fields {
		v := fieldView{Field: f, Selected: map[string]bool{}, Flagged: flagged[f.Label]}
		v.Value = values.First(f.Name)
		for _, s := range values.All(f.Name) {
			v.Selected[s] = true
		}
		v.Checked = v.Value != ""
		if f.Min != nil {
			v.MinAttr = strconv.FormatFloat(*f.Min, 'f', -1, 64)
		}
		if f.Max != nil {
			v.MaxAttr = strconv.FormatFloat(*f.Max, 'f', -1, 64)
		}
		page.Fields = append(page.Fields, v)
	}
	h.render(w, status, "form.html", page)
}

func (h *PageHandler) renderError(w http.ResponseWriter, status int, msg string) {
	h.render(w, status, "error.html", errorPage{Title: h.def().Title, Error: msg})
}

func (h *PageHandler) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}
