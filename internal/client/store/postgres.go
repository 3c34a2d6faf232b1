package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"docuflow/internal/client/models"
	id "docuflow/pkg/domain"
	"docuflow/pkg/platform/sentinel"
	txcontext "docuflow/pkg/platform/tx"
)

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

// Postgres implements Store on database/sql. Compliance email uniqueness is
// enforced by a case-insensitive unique index, so concurrent creates race
// safely at the database.
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

const clientColumns = `id, name, compliance_email, contact_emails, status, created_at, updated_at`

func (s *Postgres) CreateIfEmailAvailable(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(client.ID),
		client.Name,
		client.ComplianceEmail,
		pq.Array(client.ContactEmails),
		string(client.Status),
		client.CreatedAt,
		client.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	return scanClient(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(clientID)))
}

func (s *Postgres) FindByContactEmail(ctx context.Context, email string) (*models.Client, error) {
	// Contact emails are stored lowercased, so lowering the probe suffices.
	query := `SELECT ` + clientColumns + ` FROM clients WHERE LOWER($1) = ANY (contact_emails)`
	return scanClient(s.execer(ctx).QueryRowContext(ctx, query, email))
}

func (s *Postgres) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients
		SET name = $2, compliance_email = $3, contact_emails = $4, status = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(client.ID),
		client.Name,
		client.ComplianceEmail,
		pq.Array(client.ContactEmails),
		string(client.Status),
		client.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update client: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY name, id`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	var result []*models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, client)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	var (
		client   models.Client
		clientID uuid.UUID
		status   string
		contacts pq.StringArray
	)
	err := row.Scan(&clientID, &client.Name, &client.ComplianceEmail, &contacts, &status, &client.CreatedAt, &client.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan client: %w", err)
	}
	client.ID = id.ClientID(clientID)
	client.Status = models.ClientStatus(status)
	client.ContactEmails = []string(contacts)
	return &client, nil
}
