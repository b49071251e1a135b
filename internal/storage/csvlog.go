package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parisxmas/vacancyform/internal/models"
)

// CSVLog is the submission log as a comma-separated file. A record with no
// new labels is appended in place; a record that adds columns causes the
// whole file to be rewritten under the wider header.
type CSVLog struct {
	path string
}

func NewCSVLog(path string) *CSVLog {
	return &CSVLog{path: path}
}

func (l *CSVLog) Append(ctx context.Context, rec *models.Record) error {
	mu := lockFor(l.path)
	mu.Lock()
	defer mu.Unlock()

	table, exists, err := l.read()
	if err != nil {
		return err
	}
	if table.Extend(rec) || !exists {
		table.Rows = append(table.Rows, table.Row(rec))
		return l.rewrite(table)
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(table.Row(rec)); err != nil {
		f.Close()
		return fmt.Errorf("write log row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write log row: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (l *CSVLog) Records(ctx context.Context) ([]*models.Record, error) {
	mu := lockFor(l.path)
	mu.Lock()
	defer mu.Unlock()

	table, _, err := l.read()
	if err != nil {
		return nil, err
	}
	return table.Records(), nil
}

func (l *CSVLog) Close() error { return nil }

func (l *CSVLog) read() (*Table, bool, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Table{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return &Table{}, false, nil
	}
	if err != nil {
		return nil, true, fmt.Errorf("parse log header: %w", err)
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, true, fmt.Errorf("parse log: %w", err)
	}
	return &Table{Columns: header, Rows: rows}, true, nil
}

func (l *CSVLog) rewrite(t *Table) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return err
	}
	if err := writeAtomic(l.path, buf.Bytes()); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// WriteCSV writes records as CSV with columns in first-seen order.
func WriteCSV(w io.Writer, records []*models.Record) error {
	t := &Table{}
	for _, rec := range records {
		t.Extend(rec)
	}
	for _, rec := range records {
		t.Rows = append(t.Rows, t.Row(rec))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	return cw.WriteAll(t.Rows)
}
