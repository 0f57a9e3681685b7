package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/noah-isme/eeeflix-contacts/internal/models"
)

// ContactFileRepository persists the contact store as a single JSON document on disk.
type ContactFileRepository struct {
	path string
}

// NewContactFileRepository constructs a ContactFileRepository for the given file.
func NewContactFileRepository(path string) *ContactFileRepository {
	return &ContactFileRepository{path: path}
}

// Path returns the location of the store file.
func (r *ContactFileRepository) Path() string {
	return r.path
}

// Raw returns the store document exactly as it is on disk.
func (r *ContactFileRepository) Raw(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read contact store: %w", err)
	}
	return data, nil
}

// Load reads and parses every contact in the store.
func (r *ContactFileRepository) Load(ctx context.Context) ([]models.Contact, error) {
	data, err := r.Raw(ctx)
	if err != nil {
		return nil, err
	}
	contacts, err := models.UnmarshalContacts(data)
	if err != nil {
		return nil, fmt.Errorf("parse contact store: %w", err)
	}
	return contacts, nil
}

// Replace overwrites the store with the provided contacts. The document is
// written to a sibling temp file and renamed into place.
func (r *ContactFileRepository) Replace(ctx context.Context, contacts []models.Contact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := models.MarshalContacts(contacts)
	if err != nil {
		return err
	}
	return r.writeAtomic(payload)
}

func (r *ContactFileRepository) writeAtomic(payload []byte) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prepare contact store directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp contact store: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write contact store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync contact store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close contact store: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod contact store: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		cleanup()
		return fmt.Errorf("replace contact store: %w", err)
	}
	return nil
}
