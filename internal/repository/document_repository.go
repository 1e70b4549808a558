package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jengzang/mapnotes-backend-go/internal/models"
)

var (
	// ErrDocumentNotFound is returned for unknown document names
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDocumentCorrupt is returned when a stored body no longer matches its checksum
	ErrDocumentCorrupt = errors.New("document checksum mismatch")
)

// DocumentRepository handles database operations for saved documents
type DocumentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Save inserts or replaces the document with the same name
func (r *DocumentRepository) Save(ctx context.Context, doc *models.StoredDocument) error {
	if doc.Name == "" {
		return fmt.Errorf("%w: document name is empty", models.ErrValidation)
	}

	query := `INSERT INTO documents (name, body, version, feature_count, saved_at, checksum)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			body = excluded.body,
			version = excluded.version,
			feature_count = excluded.feature_count,
			saved_at = excluded.saved_at,
			checksum = excluded.checksum`

	_, err := r.db.ExecContext(ctx, query,
		doc.Name, doc.Body, doc.Version, doc.FeatureCount, doc.SavedAt, checksum(doc.Body))
	if err != nil {
		return fmt.Errorf("failed to save document %q: %w", doc.Name, err)
	}
	return nil
}

// Load retrieves a document by name
func (r *DocumentRepository) Load(ctx context.Context, name string) (*models.StoredDocument, error) {
	query := `SELECT name, body, version, feature_count, saved_at, checksum
		FROM documents WHERE name = ?`

	var doc models.StoredDocument
	var sum string
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&doc.Name, &doc.Body, &doc.Version, &doc.FeatureCount, &doc.SavedAt, &sum,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrDocumentNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %q: %w", name, err)
	}
	if sum != "" && sum != checksum(doc.Body) {
		return nil, fmt.Errorf("%w: %q", ErrDocumentCorrupt, name)
	}

	return &doc, nil
}

// List returns document summaries, most recently saved first
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.DocumentSummary, int64, error) {
	filter.Normalize()

	where := ""
	var args []interface{}
	if filter.Prefix != "" {
		where = " WHERE name LIKE ? ESCAPE '\\'"
		args = append(args, escapeLike(filter.Prefix)+"%")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	query := "SELECT name, version, feature_count, saved_at FROM documents" + where +
		" ORDER BY saved_at DESC, name LIMIT ? OFFSET ?"
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := []models.DocumentSummary{}
	for rows.Next() {
		var d models.DocumentSummary
		if err := rows.Scan(&d.Name, &d.Version, &d.FeatureCount, &d.SavedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return docs, total, nil
}

// Delete removes a document by name
func (r *DocumentRepository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete document %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete document %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrDocumentNotFound, name)
	}
	return nil
}

func checksum(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
