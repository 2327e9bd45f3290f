package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/BradenHooton/accountdesk/internal/database"
	"github.com/BradenHooton/accountdesk/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CredentialRepository handles the allow-list, login audit and login counters.
// Every method provisions the schema on first use.
type CredentialRepository struct {
	db     *database.DB
	schema database.SchemaGuard
}

// NewCredentialRepository creates a new CredentialRepository
func NewCredentialRepository(db *database.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// EnsureSchema creates the backing tables if absent. Safe to call repeatedly.
func (r *CredentialRepository) EnsureSchema(ctx context.Context) error {
	if err := r.schema.Ensure(ctx, r.db.Migrate); err != nil {
		return models.NewStoreError("ensure credential schema", err)
	}
	return nil
}

// IsActiveMember reports whether identity is on the allow-list and active.
// Membership is case-insensitive.
func (r *CredentialRepository) IsActiveMember(ctx context.Context, identity string) (bool, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return false, err
	}

	query := `
		SELECT active FROM allowed_users
		WHERE LOWER(email) = LOWER($1)
	`

	var active bool
	err := r.db.WithConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, query, identity).Scan(&active)
	})
	err = database.MapPostgresError("check allow-list", err)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return active, nil
}

// AppendAudit records a completed login. Rows are never updated or deleted.
func (r *CredentialRepository) AppendAudit(ctx context.Context, record *models.AuditRecord) error {
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.ClientMeta == nil {
		record.ClientMeta = models.AuditMetadata{}
	}

	query := `
		INSERT INTO login_audit (id, email, occurred_at, client_meta)
		VALUES ($1, $2, $3, $4)
	`

	err := r.db.WithConn(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, query, record.ID, record.Email, record.OccurredAt, record.ClientMeta)
		return err
	})
	if err != nil {
		return database.MapPostgresError("append audit record", err)
	}

	return nil
}

// IncrementLoginCount atomically inserts the counter at 1 or adds 1 to it,
// returning the new count
func (r *CredentialRepository) IncrementLoginCount(ctx context.Context, identity string) (int64, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return 0, err
	}

	query := `
		INSERT INTO login_counters (email, count, last_login_at)
		VALUES ($1, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (email) DO UPDATE
		SET count = login_counters.count + 1,
		    last_login_at = CURRENT_TIMESTAMP
		RETURNING count
	`

	var count int64
	err := r.db.WithConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, query, identity).Scan(&count)
	})
	if err != nil {
		return 0, database.MapPostgresError("increment login count", err)
	}

	return count, nil
}

// GetLoginCounter returns the counter of identity, or ErrNotFound before the first login
func (r *CredentialRepository) GetLoginCounter(ctx context.Context, identity string) (*models.LoginCounter, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT email, count, last_login_at FROM login_counters
		WHERE email = $1
	`

	var counter models.LoginCounter
	err := r.db.WithConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, query, identity).Scan(&counter.Email, &counter.Count, &counter.LastLoginAt)
	})
	if err != nil {
		return nil, database.MapPostgresError("get login counter", err)
	}

	return &counter, nil
}

// UpsertAllowListEntry adds identity to the allow-list or reactivates it
func (r *CredentialRepository) UpsertAllowListEntry(ctx context.Context, identity string, active bool) (*models.AllowListEntry, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO allowed_users (email, active)
		VALUES (LOWER($1), $2)
		ON CONFLICT (email) DO UPDATE SET active = EXCLUDED.active
		RETURNING email, active, created_at
	`

	var entry models.AllowListEntry
	err := r.db.WithConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, query, identity, active).Scan(&entry.Email, &entry.Active, &entry.CreatedAt)
	})
	if err != nil {
		return nil, database.MapPostgresError("upsert allow-list entry", err)
	}

	return &entry, nil
}

// SetActive toggles the active flag of an existing allow-list entry
func (r *CredentialRepository) SetActive(ctx context.Context, identity string, active bool) error {
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}

	query := `UPDATE allowed_users SET active = $2 WHERE LOWER(email) = LOWER($1)`

	var affected int64
	err := r.db.WithConn(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, query, identity, active)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return database.MapPostgresError("set allow-list flag", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ListAudit returns the most recent audit records of identity
func (r *CredentialRepository) ListAudit(ctx context.Context, identity string, limit int) ([]*models.AuditRecord, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT id, email, occurred_at, client_meta
		FROM login_audit
		WHERE email = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`

	var records []*models.AuditRecord
	err := r.db.WithConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, query, identity, limit)
		if err != nil {
			return err
		}
		records, err = scanAuditRecords(rows)
		return err
	})
	if err != nil {
		return nil, database.MapPostgresError("list audit records", err)
	}

	return records, nil
}

// scanAuditRecords iterates through rows and scans each into AuditRecord models
func scanAuditRecords(rows pgx.Rows) ([]*models.AuditRecord, error) {
	defer rows.Close()

	records := make([]*models.AuditRecord, 0)

	for rows.Next() {
		var rec models.AuditRecord
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.OccurredAt, &rec.ClientMeta); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}

	return records, nil
}
