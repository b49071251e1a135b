package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/parisxmas/vacancyform/internal/form"
	"github.com/parisxmas/vacancyform/internal/models"
)

func record(at time.Time, company, title string) *models.Record {
	return models.NewRecord("r", at, []models.Field{
		{Label: models.SubmissionDateLabel, Value: at.Format(models.SubmissionDateLayout)},
		{Label: "Company Name", Value: company},
		{Label: "Sender Email", Value: "hr@acme.example"},
		{Label: "Job Title", Value: title},
		{Label: "Required Skills", Value: "Go\nSQL & <XML>"},
	})
}

// paragraphTexts returns the text of every paragraph in word/document.xml.
func paragraphTexts(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open docx: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()

		var out []string
		var cur strings.Builder
		inPara, inText := false, false
		dec := xml.NewDecoder(rc)
		for {
			tok, err := dec.Token()
			if err == io.EOF {
				return out
			}
			if err != nil {
				t.Fatalf("parse document.xml: %v", err)
			}
			switch el := tok.(type) {
			case xml.StartElement:
				switch el.Name.Local {
				case "p":
					inPara = true
					cur.Reset()
				case "t":
					inText = true
				}
			case xml.EndElement:
				switch el.Name.Local {
				case "p":
					if inPara {
						out = append(out, cur.String())
					}
					inPara = false
				case "t":
					inText = false
				}
			case xml.CharData:
				if inText {
					cur.Write(el)
				}
			}
		}
	}
	t.Fatal("word/document.xml not found")
	return nil
}

func contains(paras []string, want string) bool {
	for _, p := range paras {
		if p == want {
			return true
		}
	}
	return false
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 10, 18, 14, 5, 9, 0, time.UTC)
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{"ampersand and spaces", []string{"Acme & Co", "QA Lead"}, "Acme_Co_QA_Lead.docx"},
		{"hyphen kept", []string{"Smith-Jones Ltd.", "Sr. Dev/Ops"}, "Smith-Jones_Ltd_Sr_DevOps.docx"},
		{"whitespace runs", []string{"  Big\tCorp ", "Data   Engineer"}, "Big_Corp_Data_Engineer.docx"},
		{"missing title", []string{"Acme", ""}, "job_vacancy_20261018_140509.docx"},
		{"only symbols", []string{"&&", "QA"}, "job_vacancy_20261018_140509.docx"},
		{"no parts", nil, "job_vacancy_20261018_140509.docx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileName(tt.parts, at); got != tt.want {
				t.Fatalf("FileName(%q) = %q, want %q", tt.parts, got, tt.want)
			}
		})
	}
}

func TestRenderBody(t *testing.T) {
	r := NewRenderer(form.Default())
	doc, err := r.Render(record(time.Now(), "Acme & Co", "QA Lead"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if doc.FileName != "Acme_Co_QA_Lead.docx" {
		t.Fatalf("file name = %q", doc.FileName)
	}
	if doc.ContentType != models.DocxContentType {
		t.Fatalf("content type = %q", doc.ContentType)
	}

	paras := paragraphTexts(t, doc.Data)
	for _, want := range []string{
		"Job Vacancy Details",
		"Company Name: Acme & Co",
		"Job Title: QA Lead",
		"Required Skills: Go",
		"SQL & <XML>",
	} {
		if !contains(paras, want) {
			t.Fatalf("paragraph %q missing from %q", want, paras)
		}
	}
	joined := strings.Join(paras, "\n")
	for _, hidden := range []string{"hr@acme.example", models.SubmissionDateLabel} {
		if strings.Contains(joined, hidden) {
			t.Fatalf("%q must not be printed", hidden)
		}
	}
	if strings.Index(joined, "Company Name") > strings.Index(joined, "Job Title") {
		t.Fatal("paragraphs must follow record order")
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r := NewRenderer(form.Default())
	a := record(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC), "Acme", "QA Lead")
	b := record(time.Date(2026, 5, 7, 17, 45, 0, 0, time.UTC), "Acme", "QA Lead")
	if !reflect.DeepEqual(r.Paragraphs(a), r.Paragraphs(b)) {
		t.Fatal("equal records (timestamps aside) must give equal paragraphs")
	}

	first, err := r.Render(a)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Render(b)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(paragraphTexts(t, first.Data), paragraphTexts(t, second.Data)) {
		t.Fatal("equal records (timestamps aside) must render equal document text")
	}
}
func TestRenderIsValidPackage(t *testing.T) {
	doc, err := NewRenderer(form.Default()).Render(record(time.Now(), "Acme", "QA"))
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		t.Fatalf("not a zip: %v", err)
	}
	have := map[string]bool{}
	for _, f := range zr.File {
		have[f.Name] = true
	}
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		if !have[name] {
			t.Fatalf("missing part %s", name)
		}
	}
}
