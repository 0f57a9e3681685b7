package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eeeflix-contacts/internal/models"
)

const contactsSchema = `CREATE TABLE IF NOT EXISTS contacts (
    no INTEGER PRIMARY KEY,
    contact_no TEXT NOT NULL DEFAULT '',
    fb_link TEXT NOT NULL DEFAULT '',
    document TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`

// ContactSQLRepository keeps contacts in a relational table (PostgreSQL or SQLite).
type ContactSQLRepository struct {
	db *sqlx.DB
}

// NewContactSQLRepository constructs a ContactSQLRepository.
func NewContactSQLRepository(db *sqlx.DB) *ContactSQLRepository {
	return &ContactSQLRepository{db: db}
}

// EnsureSchema creates the contacts table when missing.
func (r *ContactSQLRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, contactsSchema); err != nil {
		return fmt.Errorf("ensure contacts schema: %w", err)
	}
	return nil
}

// Load returns every contact in store order.
func (r *ContactSQLRepository) Load(ctx context.Context) ([]models.Contact, error) {
	const query = `SELECT no, contact_no, fb_link, document, position, updated_at FROM contacts ORDER BY position ASC, no ASC`
	var rows []models.ContactRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	contacts := make([]models.Contact, 0, len(rows))
	for _, row := range rows {
		contact := models.Contact{No: row.No, ContactNo: row.ContactNo, FBLink: row.FBLink}
		if row.Document != "" {
			if err := json.Unmarshal([]byte(row.Document), &contact); err != nil {
				return nil, fmt.Errorf("decode contact %d: %w", row.No, err)
			}
		}
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

// Raw renders the table in the store document format.
func (r *ContactSQLRepository) Raw(ctx context.Context) ([]byte, error) {
	contacts, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return models.MarshalContacts(contacts)
}

// Replace swaps the table contents for the provided contacts within one transaction.
func (r *ContactSQLRepository) Replace(ctx context.Context, contacts []models.Contact) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace contacts tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM contacts`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear contacts: %w", err)
	}
	insert := tx.Rebind(`INSERT INTO contacts (no, contact_no, fb_link, document, position, updated_at) VALUES (?, ?, ?, ?, ?, ?)`)
	now := time.Now().UTC()
	for i, c := range contacts {
		document, err := c.MarshalJSON()
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode contact %d: %w", c.No, err)
		}
		if _, err := tx.ExecContext(ctx, insert, c.No, c.ContactNo, c.FBLink, string(document), i, now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert contact %d: %w", c.No, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace contacts tx: %w", err)
	}
	return nil
}
