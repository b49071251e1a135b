package notify

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/parisxmas/vacancyform/internal/form"
	"github.com/parisxmas/vacancyform/internal/models"
)

func testRecord() *models.Record {
	at := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	return models.NewRecord("rec-1", at, []models.Field{
		{Label: models.SubmissionDateLabel, Value: at.Format(models.SubmissionDateLayout)},
		{Label: "Company Name", Value: "Acme & Co"},
		{Label: "Sender Email", Value: "hr@acme.example"},
		{Label: "Job Title", Value: "QA Lead"},
		{Label: "Location", Value: "Glasgow"},
	})
}

func testDocument() *models.RenderedDocument {
	return &models.RenderedDocument{
		FileName:    "Acme_Co_QA_Lead.docx",
		ContentType: models.DocxContentType,
		Data:        []byte("PK fake docx"),
	}
}

func testComposer() *Composer {
	return NewComposer(form.Default(), "jobs@recruiter.example")
}

func TestComposerBodySkipsPrivateFields(t *testing.T) {
	body := testComposer().Body(testRecord())
	if !strings.HasPrefix(body, summaryIntro) {
		t.Fatalf("body should start with the intro, got %q", body)
	}
	if strings.Contains(body, "hr@acme.example") {
		t.Fatal("sender email must not appear in the summary")
	}
	for _, line := range []string{"Company Name: Acme & Co\n", "Job Title: QA Lead\n", "Submission Date: 2026-03-04 09:30:00\n"} {
		if !strings.Contains(body, line) {
			t.Fatalf("body missing %q:\n%s", line, body)
		}
	}
}

func TestComposerSubjectAndSender(t *testing.T) {
	c := testComposer()
	rec := testRecord()
	if got := c.Subject(rec); got != "New Job Vacancy: QA Lead" {
		t.Fatalf("subject = %q", got)
	}
	if got := c.Sender(rec); got != "hr@acme.example" {
		t.Fatalf("sender = %q", got)
	}
}

func TestComposerMessageAttachesDocument(t *testing.T) {
	var buf bytes.Buffer
	m := testComposer().Message(testDocument(), testRecord(), "hr@acme.example")
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{
		"To: jobs@recruiter.example",
		"Subject: New Job Vacancy: QA Lead",
		`filename="Acme_Co_QA_Lead.docx"`,
		models.DocxContentType,
	} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q", want)
		}
	}
}

func TestCredentialMerge(t *testing.T) {
	got := Credential{Secret: "s1"}.Merge(Credential{Username: "u", Secret: "s2"})
	if got.Username != "u" || got.Secret != "s1" {
		t.Fatalf("merge = %+v", got)
	}
}

func TestEnvCredentialReadsAtCallTime(t *testing.T) {
	src := EnvCredential{UsernameVar: "VF_TEST_USER", SecretVar: "VF_TEST_SECRET"}
	t.Setenv("VF_TEST_USER", "bot")
	t.Setenv("VF_TEST_SECRET", "first")
	if c := src.Credential(); c.Secret != "first" || c.Username != "bot" {
		t.Fatalf("credential = %+v", c)
	}
	t.Setenv("VF_TEST_SECRET", "second")
	if c := src.Credential(); c.Secret != "second" {
		t.Fatalf("secret should be re-read, got %q", c.Secret)
	}
}
