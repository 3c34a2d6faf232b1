package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"docuflow/internal/requirement/models"
	id "docuflow/pkg/domain"
	"docuflow/pkg/platform/sentinel"
	txcontext "docuflow/pkg/platform/tx"
)

const uniqueViolation = "23505"

// Postgres implements Store on database/sql. Name uniqueness is enforced by
// a case-insensitive unique index.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const docTypeColumns = `id, name, description, frequency, created_at, updated_at`

func (s *Postgres) CreateIfNameAvailable(ctx context.Context, docType *models.DocumentType) error {
	query := `
		INSERT INTO document_types (` + docTypeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(docType.ID),
		docType.Name,
		docType.Description,
		string(docType.Frequency),
		docType.CreatedAt,
		docType.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert document type: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, typeID id.DocumentTypeID) (*models.DocumentType, error) {
	query := `SELECT ` + docTypeColumns + ` FROM document_types WHERE id = $1`
	return scanDocumentType(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(typeID)))
}

func (s *Postgres) Update(ctx context.Context, docType *models.DocumentType) error {
	query := `
		UPDATE document_types
		SET name = $2, description = $3, frequency = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(docType.ID),
		docType.Name,
		docType.Description,
		string(docType.Frequency),
		docType.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update document type: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document type: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.DocumentType, error) {
	query := `SELECT ` + docTypeColumns + ` FROM document_types ORDER BY name, id`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query document types: %w", err)
	}
	defer rows.Close()

	var result []*models.DocumentType
	for rows.Next() {
		docType, err := scanDocumentType(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, docType)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocumentType(row rowScanner) (*models.DocumentType, error) {
	var (
		docType   models.DocumentType
		typeID    uuid.UUID
		frequency string
	)
	err := row.Scan(&typeID, &docType.Name, &docType.Description, &frequency, &docType.CreatedAt, &docType.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document type: %w", err)
	}
	docType.ID = id.DocumentTypeID(typeID)
	docType.Frequency = models.Frequency(frequency)
	return &docType, nil
}
