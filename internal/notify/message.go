package notify

import (
	"io"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/parisxmas/vacancyform/internal/form"
	"github.com/parisxmas/vacancyform/internal/models"
)

const summaryIntro = "A new job vacancy has been submitted with the following details:\n\n"

// Composer builds the subject, summary body and MIME message shared by the
// mail transports.
type Composer struct {
	recipient    string
	subjectLabel string
	senderLabel  string
	private      map[string]bool
}

func NewComposer(def *form.Definition, recipient string) *Composer {
	return &Composer{
		recipient:    recipient,
		subjectLabel: def.Label(def.SubjectField),
		senderLabel:  def.Label(def.SenderField),
		private:      def.PrivateLabels(),
	}
}

func (c *Composer) Recipient() string { return c.recipient }

// Sender returns the submitter's address from the record, if the form has one.
func (c *Composer) Sender(rec *models.Record) string {
	if c.senderLabel == "" {
		return ""
	}
	v, _ := rec.Get(c.senderLabel)
	return v
}

func (c *Composer) Subject(rec *models.Record) string {
	title, _ := rec.Get(c.subjectLabel)
	if title == "" {
		return "New Job Vacancy"
	}
	return "New Job Vacancy: " + title
}

// Body lists every non-private field as "label: value".
func (c *Composer) Body(rec *models.Record) string {
	var b strings.Builder
	b.WriteString(summaryIntro)
	for _, f := range rec.Fields() {
		if c.private[f.Label] {
			continue
		}
		b.WriteString(f.Label)
		b.WriteString(": ")
		b.WriteString(f.Value)
		b.WriteString("\n")
	}
	return b.String()
}

// Message builds the outgoing mail with the document attached.
func (c *Composer) Message(doc *models.RenderedDocument, rec *models.Record, from string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", c.recipient)
	m.SetHeader("Subject", c.Subject(rec))
	m.SetBody("text/plain", c.Body(rec))
	m.Attach(doc.FileName,
		gomail.SetHeader(map[string][]string{"Content-Type": {doc.ContentType}}),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(doc.Data)
			return err
		}),
	)
	return m
}
