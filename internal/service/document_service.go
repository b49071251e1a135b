package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/parisxmas/vacancyform/internal/models"
	"github.com/parisxmas/vacancyform/internal/storage"
)

// ErrDocumentNotFound is returned by Download for unknown keys.
var ErrDocumentNotFound = errors.New("document not found")

type DocumentService struct {
	docs storage.DocumentStore
}

func NewDocumentService(docs storage.DocumentStore) *DocumentService {
	return &DocumentService{docs: docs}
}

func (s *DocumentService) Download(ctx context.Context, key string) ([]byte, *models.StoredDocument, error) {
	data, doc, err := s.docs.Open(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("download %s: %w", key, err)
	}
	if doc.ContentType == "" {
		doc.ContentType = models.DocxContentType
	}
	return data, doc, nil
}
