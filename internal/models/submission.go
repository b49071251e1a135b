package models

import "time"

// SubmissionDateLabel is the synthetic first field of every record.
const SubmissionDateLabel = "Submission Date"

// SubmissionDateLayout formats SubmissionDateLabel values.
const SubmissionDateLayout = "2006-01-02 15:04:05"

// Field is one labelled value of a submission.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Record is an accepted form submission: an ordered list of labelled values.
// It is never mutated after NewRecord returns.
type Record struct {
	id          string
	submittedAt time.Time
	fields      []Field
}

// NewRecord copies fields so later changes by the caller do not leak in.
func NewRecord(id string, submittedAt time.Time, fields []Field) *Record {
	cp := make([]Field, len(fields))
	copy(cp, fields)
	return &Record{id: id, submittedAt: submittedAt, fields: cp}
}

func (r *Record) ID() string { return r.id }

func (r *Record) SubmittedAt() time.Time { return r.submittedAt }

// Fields returns a copy of the ordered fields.
func (r *Record) Fields() []Field {
	cp := make([]Field, len(r.fields))
	copy(cp, r.fields)
	return cp
}

// Labels returns the field labels in record order.
func (r *Record) Labels() []string {
	labels := make([]string, len(r.fields))
	for i, f := range r.fields {
		labels[i] = f.Label
	}
	return labels
}

// Get returns the value stored under label.
func (r *Record) Get(label string) (string, bool) {
	for _, f := range r.fields {
		if f.Label == label {
			return f.Value, true
		}
	}
	return "", false
}

// Map returns the fields keyed by label.
func (r *Record) Map() map[string]string {
	m := make(map[string]string, len(r.fields))
	for _, f := range r.fields {
		m[f.Label] = f.Value
	}
	return m
}

// Submission is the JSON view of a Record returned by the API.
type Submission struct {
	ID          string  `json:"id"`
	SubmittedAt string  `json:"submittedAt"`
	Fields      []Field `json:"fields"`
}

func (r *Record) ToSubmission() Submission {
	return Submission{
		ID:          r.id,
		SubmittedAt: r.submittedAt.UTC().Format(time.RFC3339),
		Fields:      r.Fields(),
	}
}
