package handler

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/parisxmas/vacancyform/internal/form"
	"github.com/parisxmas/vacancyform/internal/models"
	"github.com/parisxmas/vacancyform/internal/service"
)

func TestTemplatesParse(t *testing.T) {
	for _, name := range []string{"form.html", "result.html", "error.html"} {
		if pages.Lookup(name) == nil {
			t.Errorf("template %s not found", name)
		}
	}
}

type staticRecords []*models.Record

func (s staticRecords) Records(context.Context) ([]*models.Record, error) { return s, nil }

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	header http.Header
}

func (w *brokenWriter) Header() http.Header       { return w.header }
func (w *brokenWriter) WriteHeader(int)           {}
func (w *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestExportLogsWriteFailure(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.Local)
	recs := staticRecords{models.NewRecord("s1", at, []models.Field{
		{Label: models.SubmissionDateLabel, Value: at.Format(models.SubmissionDateLayout)},
		{Label: "Company Name", Value: "Acme"},
	})}
	def := form.Default()
	svc := service.NewSubmissionService(def, service.NewRecordBuilder(def), nil, nil, recs, nil)
	h := NewAdminHandler(svc)

	h.Export(&brokenWriter{header: http.Header{}}, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/export", nil))
	if !strings.Contains(buf.String(), "Warning: export: ") {
		t.Fatalf("expected export warning, log was %q", buf.String())
	}
}
