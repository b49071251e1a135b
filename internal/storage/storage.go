// Package storage persists rendered submissions: the document goes to a
// DocumentStore and the record is appended to a LogStore.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/parisxmas/vacancyform/internal/models"
)

// DocumentStore keeps rendered documents.
type DocumentStore interface {
	// Ensure creates the target location if it does not exist.
	Ensure(ctx context.Context) error
	Save(ctx context.Context, doc *models.RenderedDocument, rec *models.Record) (*models.StoredDocument, error)
	Open(ctx context.Context, key string) ([]byte, *models.StoredDocument, error)
}

// LogStore is the append-only submission log.
type LogStore interface {
	Append(ctx context.Context, rec *models.Record) error
	Records(ctx context.Context) ([]*models.Record, error)
	Close() error
}

// Sink writes the document first and the log row second. Nothing spans the
// two writes: a failure of the second leaves the first in place.
type Sink struct {
	Documents DocumentStore
	Log       LogStore
}

func (s *Sink) Persist(ctx context.Context, doc *models.RenderedDocument, rec *models.Record) (*models.StoredDocument, error) {
	if err := s.Documents.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("prepare document store: %w", err)
	}
	stored, err := s.Documents.Save(ctx, doc, rec)
	if err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := s.Log.Append(ctx, rec); err != nil {
		return stored, fmt.Errorf("append log: %w", err)
	}
	return stored, nil
}

func (s *Sink) Close() error {
	return s.Log.Close()
}

// Table is the tabular view of the log: labels in first-seen order and one
// row per record.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Extend adds the labels of rec that are not columns yet and reports
// whether the header changed.
func (t *Table) Extend(rec *models.Record) bool {
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		seen[c] = true
	}
	changed := false
	for _, l := range rec.Labels() {
		if !seen[l] {
			t.Columns = append(t.Columns, l)
			seen[l] = true
			changed = true
		}
	}
	return changed
}

// Row lays rec out under the current columns.
func (t *Table) Row(rec *models.Record) []string {
	values := rec.Map()
	row := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		row[i] = values[c]
	}
	return row
}

// Records turns rows back into records. Short rows are padded with blanks.
// Submission time is recovered from the submission date column when present.
func (t *Table) Records() []*models.Record {
	out := make([]*models.Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		fields := make([]models.Field, len(t.Columns))
		var at time.Time
		for i, c := range t.Columns {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			fields[i] = models.Field{Label: c, Value: v}
			if c == models.SubmissionDateLabel {
				at, _ = time.ParseInLocation(models.SubmissionDateLayout, v, time.Local)
			}
		}
		out = append(out, models.NewRecord("", at, fields))
	}
	return out
}
