package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/parisxmas/vacancyform/internal/models"
)

func newRecord(id string, at time.Time, pairs ...string) *models.Record {
	fields := []models.Field{{Label: models.SubmissionDateLabel, Value: at.Format(models.SubmissionDateLayout)}}
	for i := 0; i+1 < len(pairs); i += 2 {
		fields = append(fields, models.Field{Label: pairs[i], Value: pairs[i+1]})
	}
	return models.NewRecord(id, at, fields)
}

func testDoc(name string) *models.RenderedDocument {
	return &models.RenderedDocument{FileName: name, ContentType: models.DocxContentType, Data: []byte("docx:" + name)}
}

// assertRoundTrip checks that every value of want appears unchanged in got.
func assertRoundTrip(t *testing.T, got, want *models.Record) {
	t.Helper()
	values := got.Map()
	for _, f := range want.Fields() {
		if values[f.Label] != f.Value {
			t.Fatalf("%s: got %q, want %q", f.Label, values[f.Label], f.Value)
		}
	}
}

type logFactory func(t *testing.T) LogStore

func logStores() map[string]logFactory {
	return map[string]logFactory{
		"csv": func(t *testing.T) LogStore {
			return NewCSVLog(filepath.Join(t.TempDir(), "log", "submissions.csv"))
		},
		"xlsx": func(t *testing.T) LogStore {
			return NewXLSXLog(filepath.Join(t.TempDir(), "submissions.xlsx"))
		},
		"sqlite": func(t *testing.T) LogStore {
			l, err := OpenGormLog("sqlite", filepath.Join(t.TempDir(), "submissions.db"))
			if err != nil {
				t.Fatalf("open sqlite log: %v", err)
			}
			t.Cleanup(func() { l.Close() })
			return l
		},
	}
}

func TestLogStoresRoundTrip(t *testing.T) {
	for name, open := range logStores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			log := open(t)

			first := newRecord("a", time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local), "Company Name", "Acme, Inc.", "Job Title", `QA "Lead"`)
			second := newRecord("b", time.Date(2026, 1, 3, 3, 4, 5, 0, time.Local), "Company Name", "Globex", "Job Title", "Dev", "Benefits", "Pension, Bonus")
			for _, rec := range []*models.Record{first, second} {
				if err := log.Append(ctx, rec); err != nil {
					t.Fatalf("append: %v", err)
				}
			}

			got, err := log.Records(ctx)
			if err != nil {
				t.Fatalf("records: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("expected 2 records, got %d", len(got))
			}
			assertRoundTrip(t, got[0], first)
			assertRoundTrip(t, got[1], second)
			if v, _ := got[0].Get("Benefits"); v != "" {
				t.Fatalf("earlier row should have a blank new column, got %q", v)
			}
			if !got[1].SubmittedAt().Equal(second.SubmittedAt()) {
				t.Fatalf("submitted at = %v, want %v", got[1].SubmittedAt(), second.SubmittedAt())
			}
		})
	}
}

func TestLogStoresEmpty(t *testing.T) {
	for name, open := range logStores() {
		t.Run(name, func(t *testing.T) {
			got, err := open(t).Records(context.Background())
			if err != nil {
				t.Fatalf("records: %v", err)
			}
			if len(got) != 0 {
				t.Fatalf("expected no records, got %d", len(got))
			}
		})
	}
}

func TestLogStoresKeepLongValues(t *testing.T) {
	long := strings.Repeat("x", 32767)
	for name, open := range logStores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			log := open(t)
			rec := newRecord("a", time.Date(2026, 2, 1, 9, 0, 0, 0, time.Local), "Company Name", "Acme", "Job Description", long)
			if err := log.Append(ctx, rec); err != nil {
				t.Fatalf("append: %v", err)
			}
			recs, err := log.Records(ctx)
			if err != nil {
				t.Fatalf("records: %v", err)
			}
			if len(recs) != 1 {
				t.Fatalf("expected 1 record, got %d", len(recs))
			}
			if got, _ := recs[0].Get("Job Description"); len(got) != len(long) {
				t.Fatalf("wrote %d chars, read back %d", len(long), len(got))
			}
		})
	}
}

func TestXLSXLogRejectsValueOverCellLimit(t *testing.T) {
	ctx := context.Background()
	log := NewXLSXLog(filepath.Join(t.TempDir(), "submissions.xlsx"))

	ok := newRecord("a", time.Date(2026, 2, 1, 9, 0, 0, 0, time.Local), "Company Name", "Acme")
	if err := log.Append(ctx, ok); err != nil {
		t.Fatalf("append: %v", err)
	}
	tooLong := newRecord("b", time.Date(2026, 2, 1, 9, 0, 1, 0, time.Local), "Company Name", "Globex", "Job Description", strings.Repeat("y", 40000))
	if err := log.Append(ctx, tooLong); !errors.Is(err, ErrCellTooLong) {
		t.Fatalf("expected ErrCellTooLong, got %v", err)
	}

	recs, err := log.Records(ctx)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("rejected record must not be written, have %d rows", len(recs))
	}
}

func TestCSVLogColumnsFirstSeen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "submissions.csv")
	log := NewCSVLog(path)
	at := time.Date(2026, 2, 1, 10, 0, 0, 0, time.Local)

	log.Append(ctx, newRecord("1", at, "B", "b1", "A", "a1"))
	log.Append(ctx, newRecord("2", at, "B", "b2", "A", "a2"))
	log.Append(ctx, newRecord("3", at, "C", "c3", "A", "a3"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "Submission Date,B,A,C" {
		t.Fatalf("header = %q", lines[0])
	}
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got %d lines", len(lines))
	}
	if lines[3] != "2026-02-01 10:00:00,,a3,c3" {
		t.Fatalf("last row = %q", lines[3])
	}
}

func TestCSVLogRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "submissions.csv")
	os.WriteFile(path, []byte("a,\"b\n"), 0o644)
	err := NewCSVLog(path).Append(context.Background(), newRecord("1", time.Now(), "A", "x"))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCSVLogConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "submissions.csv")
	const n = 40

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// separate stores on the same path share one lock
			log := NewCSVLog(path)
			extra := fmt.Sprintf("Field %d", i%5)
			if err := log.Append(ctx, newRecord(fmt.Sprint(i), time.Now(), "Company Name", fmt.Sprintf("Co %d", i), extra, "x")); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	got, err := NewCSVLog(path).Records(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != n {
		t.Fatalf("expected %d rows, got %d", n, len(got))
	}
	seen := map[string]bool{}
	for _, rec := range got {
		v, _ := rec.Get("Company Name")
		seen[v] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct companies, got %d", n, len(seen))
	}
}

func TestFSDocuments(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "docs")
	store := NewFSDocuments(dir)
	if err := store.Ensure(ctx); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	rec := newRecord("id-1", time.Now())

	stored, err := store.Save(ctx, testDoc("Acme_QA.docx"), rec)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if stored.Key != "Acme_QA.docx" || stored.SubmissionID != "id-1" {
		t.Fatalf("stored = %+v", stored)
	}

	replacement := testDoc("Acme_QA.docx")
	replacement.Data = []byte("second")
	if _, err := store.Save(ctx, replacement, rec); err != nil {
		t.Fatal(err)
	}
	data, meta, err := store.Open(ctx, "Acme_QA.docx")
	if err != nil {
		t.Fatal(err)
	}
	if meta.ContentType != models.DocxContentType || meta.Size != int64(len("second")) {
		t.Fatalf("meta = %+v", meta)
	}
	if string(data) != "second" {
		t.Fatalf("same name should overwrite, got %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}

	for _, key := range []string{"missing.docx", "../secret", ""} {
		if _, _, err := store.Open(ctx, key); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Open(%q) = %v, want ErrNotFound", key, err)
		}
	}
}

type failingLog struct{ LogStore }

func (failingLog) Append(context.Context, *models.Record) error { return errors.New("disk full") }

func TestSinkPersist(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	sink := &Sink{
		Documents: NewFSDocuments(filepath.Join(root, "docs")),
		Log:       NewCSVLog(filepath.Join(root, "submissions.csv")),
	}
	rec := newRecord("id-1", time.Now(), "Company Name", "Acme")
	if _, err := sink.Persist(ctx, testDoc("Acme.docx"), rec); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "docs", "Acme.docx")); err != nil {
		t.Fatalf("document not written: %v", err)
	}
	rows, _ := sink.Log.Records(ctx)
	if len(rows) != 1 {
		t.Fatalf("expected 1 log row, got %d", len(rows))
	}

	broken := &Sink{Documents: sink.Documents, Log: failingLog{}}
	if _, err := broken.Persist(ctx, testDoc("Other.docx"), rec); err == nil {
		t.Fatal("expected log failure")
	}
	if _, err := os.Stat(filepath.Join(root, "docs", "Other.docx")); err != nil {
		t.Fatal("document written before the failed append must stay")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.Local)
	err := WriteCSV(&buf, []*models.Record{
		newRecord("1", at, "A", "x"),
		newRecord("2", at, "B", "y"),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "Submission Date,A,B\n2026-04-01 12:00:00,x,\n2026-04-01 12:00:00,,y\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}
