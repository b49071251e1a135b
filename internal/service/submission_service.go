package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/parisxmas/vacancyform/internal/form"
	"github.com/parisxmas/vacancyform/internal/metrics"
	"github.com/parisxmas/vacancyform/internal/models"
	"github.com/parisxmas/vacancyform/internal/notify"
)

// Renderer turns a record into a document.
type Renderer interface {
	Render(rec *models.Record) (*models.RenderedDocument, error)
}

// Persister stores a document and appends its record to the log.
type Persister interface {
	Persist(ctx context.Context, doc *models.RenderedDocument, rec *models.Record) (*models.StoredDocument, error)
}

// RecordLister reads back the submission log.
type RecordLister interface {
	Records(ctx context.Context) ([]*models.Record, error)
}

// Outcome is the result of an accepted submission.
type Outcome struct {
	Record    *models.Record
	Document  *models.RenderedDocument
	Stored    *models.StoredDocument
	Notifier  string
	Delivered bool
	// DeliveryErr is set when the notifier failed; the submission is still
	// persisted.
	DeliveryErr *TransportError
}

// Warning returns the message to show alongside a successful submission.
func (o *Outcome) Warning() string {
	if o.DeliveryErr == nil {
		return ""
	}
	return o.DeliveryErr.Warning()
}

type SubmissionService struct {
	def      *form.Definition
	builder  *RecordBuilder
	renderer Renderer
	sink     Persister
	records  RecordLister
	notifier notify.Notifier
	envCred  notify.EnvCredential
}

// NewSubmissionService wires the pipeline. notifier may be nil, in which case
// nothing is delivered remotely.
func NewSubmissionService(def *form.Definition, builder *RecordBuilder, renderer Renderer, sink Persister, records RecordLister, notifier notify.Notifier) *SubmissionService {
	return &SubmissionService{
		def:      def,
		builder:  builder,
		renderer: renderer,
		sink:     sink,
		records:  records,
		notifier: notifier,
	}
}

// WithEnvCredential sets where blank parts of a submitter's credential are
// read from at delivery time.
func (s *SubmissionService) WithEnvCredential(e notify.EnvCredential) *SubmissionService {
	s.envCred = e
	return s
}

func (s *SubmissionService) Definition() *form.Definition { return s.def }

// Submit validates values and runs them through record building, rendering,
// persistence and optional delivery. A *ValidationError or *StorageError is
// returned as the error; a failed delivery is reported in the Outcome.
func (s *SubmissionService) Submit(ctx context.Context, values Values, cred notify.Credential) (*Outcome, error) {
	if err := Validate(s.def, values); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	rec := s.builder.Build(values)

	start := time.Now()
	doc, err := s.renderer.Render(rec)
	metrics.PipelineDuration.WithLabelValues("render").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("storage_error").Inc()
		return nil, &StorageError{Op: "render", Err: err}
	}
	metrics.DocumentBytes.Observe(float64(doc.Size()))

	start = time.Now()
	stored, err := s.sink.Persist(ctx, doc, rec)
	metrics.PipelineDuration.WithLabelValues("persist").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("storage_error").Inc()
		log.Printf("Submission %s: persist failed: %v", rec.ID(), err)
		return nil, &StorageError{Op: "persist", Err: err}
	}
	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	log.Printf("Submission %s stored as %s (%d bytes)", rec.ID(), stored.Key, stored.Size)

	out := &Outcome{Record: rec, Document: doc, Stored: stored}
	if s.notifier == nil {
		return out, nil
	}

	out.Notifier = s.notifier.Name()
	start = time.Now()
	err = s.notifier.Deliver(ctx, doc, rec, cred.Merge(s.envCred.Credential()))
	metrics.PipelineDuration.WithLabelValues("deliver").Observe(time.Since(start).Seconds())
	if err != nil {
		out.DeliveryErr = &TransportError{Notifier: out.Notifier, Err: err}
		metrics.DeliveriesTotal.WithLabelValues(out.Notifier, "failed").Inc()
		log.Printf("Warning: submission %s: %v", rec.ID(), out.DeliveryErr)
		return out, nil
	}
	out.Delivered = true
	metrics.DeliveriesTotal.WithLabelValues(out.Notifier, "delivered").Inc()
	log.Printf("Submission %s delivered via %s", rec.ID(), out.Notifier)
	return out, nil
}

// List returns the logged submissions, newest first.
func (s *SubmissionService) List(ctx context.Context, skip, limit int) ([]models.Submission, int, error) {
	recs, err := s.records.Records(ctx)
	if err != nil {
		return nil, 0, &StorageError{Op: "read log", Err: err}
	}
	total := len(recs)
	out := []models.Submission{}
	for i := total - 1 - skip; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, recs[i].ToSubmission())
	}
	return out, total, nil
}

// Records returns the whole log oldest first.
func (s *SubmissionService) Records(ctx context.Context) ([]*models.Record, error) {
	recs, err := s.records.Records(ctx)
	if err != nil {
		return nil, &StorageError{Op: "read log", Err: err}
	}
	return recs, nil
}

// Search returns submissions with a field value containing query, ignoring
// case, newest first.
func (s *SubmissionService) Search(ctx context.Context, query string, limit int) ([]models.Submission, error) {
	recs, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.Submission{}
	for i := len(recs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		for _, f := range recs[i].Fields() {
			if strings.Contains(strings.ToLower(f.Value), q) {
				out = append(out, recs[i].ToSubmission())
				break
			}
		}
	}
	return out, nil
}

// Stats summarizes the log for the admin dashboard.
type Stats struct {
	SubmissionCount int            `json:"submissionCount"`
	LastSubmittedAt string         `json:"lastSubmittedAt,omitempty"`
	Notifier        string         `json:"notifier,omitempty"`
	ByJobTitle      map[string]int `json:"byJobTitle"`
}

func (s *SubmissionService) Stats(ctx context.Context) (*Stats, error) {
	recs, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	st := &Stats{SubmissionCount: len(recs), ByJobTitle: map[string]int{}}
	if s.notifier != nil {
		st.Notifier = s.notifier.Name()
	}
	if n := len(recs); n > 0 {
		st.LastSubmittedAt = recs[n-1].SubmittedAt().UTC().Format(time.RFC3339)
	}
	titleLabel := s.def.Label(s.def.SubjectField)
	for _, rec := range recs {
		if v, ok := rec.Get(titleLabel); ok && v != "" {
			st.ByJobTitle[v]++
		}
	}
	return st, nil
}
