package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parisxmas/vacancyform/internal/db"
	"github.com/parisxmas/vacancyform/internal/models"
	"github.com/parisxmas/vacancyform/internal/oxidb"
)

const SubmissionsCollection = "vacancy_submissions"

// sortableLayout is fixed-width so submittedAt sorts as a string.
const sortableLayout = "2006-01-02T15:04:05.000000000Z07:00"

type submissionDoc struct {
	ID           string         `json:"_id,omitempty"`
	SubmissionID string         `json:"submissionId"`
	SubmittedAt  string         `json:"submittedAt"`
	Fields       []models.Field `json:"fields"`
	CreatedAt    string         `json:"createdAt"`
}

// SubmissionRepo is the submission log kept as an OxiDB collection.
type SubmissionRepo struct {
	pool *db.Pool
}

func NewSubmissionRepo(pool *db.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

func (r *SubmissionRepo) EnsureIndexes(ctx context.Context) error {
	c := r.pool.Get()
	if err := c.CreateIndex(ctx, SubmissionsCollection, "submittedAt"); err != nil {
		return err
	}
	return c.CreateUniqueIndex(ctx, SubmissionsCollection, "submissionId")
}

// Append inserts one document per record; the insert is the unit of
// atomicity.
func (r *SubmissionRepo) Append(ctx context.Context, rec *models.Record) error {
	id := rec.ID()
	if id == "" {
		id = uuid.NewString()
	}
	doc := toDoc(submissionDoc{
		SubmissionID: id,
		SubmittedAt:  rec.SubmittedAt().UTC().Format(sortableLayout),
		Fields:       rec.Fields(),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	})
	if _, err := r.pool.Get().Insert(ctx, SubmissionsCollection, doc); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// Records returns the log oldest first.
func (r *SubmissionRepo) Records(ctx context.Context) ([]*models.Record, error) {
	docs, err := r.pool.Get().Find(ctx, SubmissionsCollection, map[string]any{}, &oxidb.FindOptions{
		Sort: map[string]any{"submittedAt": 1},
	})
	if err != nil {
		return nil, err
	}
	out := make([]*models.Record, 0, len(docs))
	for _, d := range docs {
		var s submissionDoc
		if err := fromDoc(d, &s); err != nil {
			return nil, err
		}
		at, err := time.Parse(sortableLayout, s.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("submission %s: %w", s.SubmissionID, err)
		}
		out = append(out, models.NewRecord(s.SubmissionID, at.Local(), s.Fields))
	}
	return out, nil
}

// Close is a no-op; the pool belongs to the caller.
func (r *SubmissionRepo) Close() error { return nil }
