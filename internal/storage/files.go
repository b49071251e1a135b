package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/parisxmas/vacancyform/internal/models"
)

// ErrNotFound is returned by Open for unknown keys.
var ErrNotFound = errors.New("document not found")

var (
	pathLocksMu sync.Mutex
	pathLocks   = map[string]*sync.Mutex{}
)

// lockFor returns the process-wide lock of path so every writer of one log
// file is serialized, however many stores point at it.
func lockFor(path string) *sync.Mutex {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	pathLocksMu.Lock()
	defer pathLocksMu.Unlock()
	mu, ok := pathLocks[abs]
	if !ok {
		mu = &sync.Mutex{}
		pathLocks[abs] = mu
	}
	return mu
}

// writeAtomic writes data to a temp file next to path and renames it into
// place, so readers never see a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// FSDocuments keeps documents in a local directory under their derived
// names. A later document with the same name replaces the earlier one.
type FSDocuments struct {
	dir string
}

func NewFSDocuments(dir string) *FSDocuments {
	return &FSDocuments{dir: dir}
}

func (s *FSDocuments) Dir() string { return s.dir }

func (s *FSDocuments) Ensure(ctx context.Context) error {
	return os.MkdirAll(s.dir, 0o755)
}

func (s *FSDocuments) Save(ctx context.Context, doc *models.RenderedDocument, rec *models.Record) (*models.StoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validKey(doc.FileName) {
		return nil, fmt.Errorf("invalid document name %q", doc.FileName)
	}
	if err := writeAtomic(filepath.Join(s.dir, doc.FileName), doc.Data); err != nil {
		return nil, fmt.Errorf("write %s: %w", doc.FileName, err)
	}
	return &models.StoredDocument{
		Key:          doc.FileName,
		FileName:     doc.FileName,
		ContentType:  doc.ContentType,
		Size:         doc.Size(),
		SubmissionID: rec.ID(),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *FSDocuments) Open(ctx context.Context, key string) ([]byte, *models.StoredDocument, error) {
	if !validKey(key) {
		return nil, nil, ErrNotFound
	}
	path := filepath.Join(s.dir, key)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, &models.StoredDocument{
		Key:         key,
		FileName:    key,
		ContentType: contentTypeFor(key),
		Size:        info.Size(),
		CreatedAt:   info.ModTime().UTC().Format(time.RFC3339),
	}, nil
}

func contentTypeFor(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".docx") {
		return models.DocxContentType
	}
	return "application/octet-stream"
}

func validKey(key string) bool {
	return key != "" && key != "." && key != ".." && filepath.Base(key) == key
}
