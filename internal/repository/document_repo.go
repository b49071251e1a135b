package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parisxmas/vacancyform/internal/db"
	"github.com/parisxmas/vacancyform/internal/models"
	"github.com/parisxmas/vacancyform/internal/oxidb"
	"github.com/parisxmas/vacancyform/internal/storage"
)

const (
	DocumentsCollection = "vacancy_documents"
	BlobBucket          = "vacancy_files"
)

type documentDoc struct {
	ID           string `json:"_id,omitempty"`
	Key          string `json:"key"`
	FileName     string `json:"fileName"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
	SubmissionID string `json:"submissionId"`
	CreatedAt    string `json:"createdAt"`
}

func (d documentDoc) stored() *models.StoredDocument {
	return &models.StoredDocument{
		Key:          d.Key,
		FileName:     d.FileName,
		ContentType:  d.ContentType,
		Size:         d.Size,
		SubmissionID: d.SubmissionID,
		CreatedAt:    d.CreatedAt,
	}
}

// DocumentRepo keeps document bytes in an OxiDB bucket and their metadata in
// a collection. Keys are "<submission timestamp>_<submission id>_<file name>",
// so documents with the same derived name do not replace each other even
// within one second.
type DocumentRepo struct {
	pool *db.Pool

	mu      sync.Mutex
	ensured bool
}

func NewDocumentRepo(pool *db.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

// Ensure creates the bucket and indexes once per repo.
func (r *DocumentRepo) Ensure(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ensured {
		return nil
	}
	c := r.pool.Get()
	if err := c.CreateBucket(ctx, BlobBucket); err != nil && !oxidb.IsExists(err) {
		return fmt.Errorf("create bucket: %w", err)
	}
	if err := c.CreateUniqueIndex(ctx, DocumentsCollection, "key"); err != nil {
		return err
	}
	if err := c.CreateIndex(ctx, DocumentsCollection, "submissionId"); err != nil {
		return err
	}
	r.ensured = true
	return nil
}

func (r *DocumentRepo) Save(ctx context.Context, doc *models.RenderedDocument, rec *models.Record) (*models.StoredDocument, error) {
	id := rec.ID()
	if id == "" {
		id = uuid.NewString()
	}
	key := rec.SubmittedAt().Format("20060102150405") + "_" + id + "_" + doc.FileName
	c := r.pool.Get()
	_, err := c.PutObject(ctx, BlobBucket, key, doc.Data, doc.ContentType, map[string]string{
		"submissionId": id,
		"fileName":     doc.FileName,
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}
	meta := documentDoc{
		Key:          key,
		FileName:     doc.FileName,
		ContentType:  doc.ContentType,
		Size:         doc.Size(),
		SubmissionID: id,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := c.Insert(ctx, DocumentsCollection, toDoc(meta)); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return meta.stored(), nil
}

func (r *DocumentRepo) Open(ctx context.Context, key string) ([]byte, *models.StoredDocument, error) {
	c := r.pool.Get()
	d, err := c.FindOne(ctx, DocumentsCollection, map[string]any{"key": key})
	if err != nil {
		return nil, nil, err
	}
	if d == nil {
		return nil, nil, storage.ErrNotFound
	}
	var meta documentDoc
	if err := fromDoc(d, &meta); err != nil {
		return nil, nil, err
	}
	data, _, err := c.GetObject(ctx, BlobBucket, key)
	if oxidb.IsNotFound(err) {
		return nil, nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return data, meta.stored(), nil
}
