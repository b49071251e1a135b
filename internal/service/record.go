package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parisxmas/vacancyform/internal/form"
	"github.com/parisxmas/vacancyform/internal/models"
)

// RecordBuilder turns validated values into a Record.
type RecordBuilder struct {
	def   *form.Definition
	now   func() time.Time
	newID func() string
}

func NewRecordBuilder(def *form.Definition) *RecordBuilder {
	return &RecordBuilder{def: def, now: time.Now, newID: uuid.NewString}
}

// WithClock replaces the time source.
func (b *RecordBuilder) WithClock(now func() time.Time) *RecordBuilder {
	b.now = now
	return b
}

// Build assumes values already passed Validate. The submission date is the
// first field; the definition's fields follow in display order.
func (b *RecordBuilder) Build(values Values) *models.Record {
	at := b.now()
	fields := make([]models.Field, 0, len(b.def.Fields)+1)
	fields = append(fields, models.Field{
		Label: models.SubmissionDateLabel,
		Value: at.Format(models.SubmissionDateLayout),
	})
	for _, f := range b.def.Fields {
		fields = append(fields, models.Field{Label: f.Label, Value: displayValue(f, values)})
	}
	return models.NewRecord(b.newID(), at, fields)
}

func displayValue(f form.Field, values Values) string {
	switch f.Type {
	case form.TypeMultiSelect:
		return strings.Join(values.All(f.Name), ", ")
	case form.TypeCheckbox:
		if checked(values.First(f.Name)) {
			return "Yes"
		}
		return "No"
	default:
		return values.First(f.Name)
	}
}

func checked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "yes", "1", "checked":
		return true
	}
	return false
}
