// Package render turns a submission record into a Word document.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomutex/godocx"

	"github.com/parisxmas/vacancyform/internal/form"
	"github.com/parisxmas/vacancyform/internal/models"
)

// Paragraph is one "label: value" line of the document body.
type Paragraph struct {
	Label string
	Value string
}

// Renderer builds .docx documents for one form definition.
type Renderer struct {
	title      string
	nameLabels []string
	skip       map[string]bool
}

func NewRenderer(def *form.Definition) *Renderer {
	skip := def.PrivateLabels()
	skip[models.SubmissionDateLabel] = true
	labels := make([]string, 0, len(def.FileNameFields))
	for _, n := range def.FileNameFields {
		labels = append(labels, def.Label(n))
	}
	return &Renderer{title: def.Title, nameLabels: labels, skip: skip}
}

// Paragraphs returns the body content in record order, without the
// submission date and private fields.
func (r *Renderer) Paragraphs(rec *models.Record) []Paragraph {
	var out []Paragraph
	for _, f := range rec.Fields() {
		if r.skip[f.Label] {
			continue
		}
		out = append(out, Paragraph{Label: f.Label, Value: f.Value})
	}
	return out
}

// FileName derives the document name for rec.
func (r *Renderer) FileName(rec *models.Record) string {
	parts := make([]string, 0, len(r.nameLabels))
	for _, l := range r.nameLabels {
		v, _ := rec.Get(l)
		parts = append(parts, v)
	}
	return FileName(parts, rec.SubmittedAt())
}

// Render writes a heading with the form title and one paragraph per field,
// label in bold. Continuation lines of multi-line answers get their own
// paragraphs.
func (r *Renderer) Render(rec *models.Record) (*models.RenderedDocument, error) {
	document, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("render: new document: %w", err)
	}
	document.AddHeading(r.title, 1)
	for _, p := range r.Paragraphs(rec) {
		lines := strings.Split(strings.ReplaceAll(p.Value, "\r\n", "\n"), "\n")
		para := document.AddParagraph("")
		para.AddText(p.Label + ": ").Bold(true)
		para.AddText(lines[0])
		for _, line := range lines[1:] {
			document.AddParagraph(line)
		}
	}

	dir, err := os.MkdirTemp("", "vacancyform-render-")
	if err != nil {
		return nil, fmt.Errorf("render: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "document.docx")
	if err := document.SaveTo(path); err != nil {
		return nil, fmt.Errorf("render: save: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("render: read back: %w", err)
	}

	return &models.RenderedDocument{
		FileName:    r.FileName(rec),
		ContentType: models.DocxContentType,
		Data:        data,
	}, nil
}
