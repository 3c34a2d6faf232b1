package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docuflow/internal/requirement/models"
	id "docuflow/pkg/domain"
	"docuflow/pkg/platform/sentinel"
	txcontext "docuflow/pkg/platform/tx"
)

// Postgres implements Store on database/sql. Timestamps are stored in UTC;
// due_date is a DATE column so the date-only invariant holds at rest too.
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

const requirementColumns = `id, client_id, document_type_id, due_date, status, blob_id, uploaded_at, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, req *models.Requirement) error {
	query := `
		INSERT INTO requirements (` + requirementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(req.ID),
		uuid.UUID(req.ClientID),
		uuid.UUID(req.DocumentTypeID),
		req.DueDate,
		string(req.Status),
		nullString(req.BlobID),
		req.UploadedAt,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert requirement: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, reqID id.RequirementID) (*models.Requirement, error) {
	query := `SELECT ` + requirementColumns + ` FROM requirements WHERE id = $1`
	return scanRequirement(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(reqID)))
}

func (s *Postgres) Update(ctx context.Context, req *models.Requirement) error {
	query := `
		UPDATE requirements
		SET due_date = $2, status = $3, blob_id = $4, uploaded_at = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(req.ID),
		req.DueDate,
		string(req.Status),
		nullString(req.BlobID),
		req.UploadedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update requirement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update requirement: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListByClient(ctx context.Context, clientID id.ClientID) ([]*models.Requirement, error) {
	query := `
		SELECT ` + requirementColumns + `
		FROM requirements
		WHERE client_id = $1
		ORDER BY due_date, created_at, id
	`
	return s.queryRequirements(ctx, query, uuid.UUID(clientID))
}

func (s *Postgres) ListOpenByClient(ctx context.Context, clientID id.ClientID) ([]*models.Requirement, error) {
	query := `
		SELECT ` + requirementColumns + `
		FROM requirements
		WHERE client_id = $1 AND status NOT IN ('completed', 'cancelled')
		ORDER BY due_date, created_at, id
	`
	return s.queryRequirements(ctx, query, uuid.UUID(clientID))
}

func (s *Postgres) ListDueBefore(ctx context.Context, date time.Time) ([]*models.Requirement, error) {
	query := `
		SELECT ` + requirementColumns + `
		FROM requirements
		WHERE status NOT IN ('completed', 'cancelled') AND due_date < $1
		ORDER BY due_date, created_at, id
	`
	return s.queryRequirements(ctx, query, models.DateOnly(date))
}

// Execute loads the row FOR UPDATE inside a transaction, validates, applies
// the mutation, and writes back. The row lock spans validation and mutation.
func (s *Postgres) Execute(ctx context.Context, reqID id.RequirementID, validate func(*models.Requirement) error, mutate func(*models.Requirement)) (*models.Requirement, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + requirementColumns + ` FROM requirements WHERE id = $1 FOR UPDATE`
	req, err := scanRequirement(tx.QueryRowContext(ctx, query, uuid.UUID(reqID)))
	if err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	mutate(req)

	update := `
		UPDATE requirements
		SET due_date = $2, status = $3, blob_id = $4, uploaded_at = $5, updated_at = $6
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		uuid.UUID(req.ID),
		req.DueDate,
		string(req.Status),
		nullString(req.BlobID),
		req.UploadedAt,
		req.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update requirement: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return req, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequirement(row rowScanner) (*models.Requirement, error) {
	var (
		req        models.Requirement
		reqID      uuid.UUID
		clientID   uuid.UUID
		docTypeID  uuid.UUID
		status     string
		blobID     sql.NullString
		uploadedAt sql.NullTime
	)
	err := row.Scan(&reqID, &clientID, &docTypeID, &req.DueDate, &status, &blobID, &uploadedAt, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan requirement: %w", err)
	}
	req.ID = id.RequirementID(reqID)
	req.ClientID = id.ClientID(clientID)
	req.DocumentTypeID = id.DocumentTypeID(docTypeID)
	req.Status = models.Status(status)
	req.DueDate = models.DateOnly(req.DueDate)
	if blobID.Valid {
		req.BlobID = blobID.String
	}
	if uploadedAt.Valid {
		t := uploadedAt.Time.UTC()
		req.UploadedAt = &t
	}
	return &req, nil
}

func (s *Postgres) queryRequirements(ctx context.Context, query string, args ...any) ([]*models.Requirement, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requirements: %w", err)
	}
	defer rows.Close()

	var result []*models.Requirement
	for rows.Next() {
		req, err := scanRequirement(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
