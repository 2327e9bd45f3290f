package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BradenHooton/accountdesk/internal/database"
	"github.com/BradenHooton/accountdesk/internal/models"
	"github.com/BradenHooton/accountdesk/pkg/format"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository reads account records from the external record store by exact key
type AccountRepository struct {
	db         *database.DB
	table      pgx.Identifier
	keyColumn  pgx.Identifier
	dateMarker string
	logger     *slog.Logger
}

// NewAccountRepository creates an AccountRepository. table may be schema-qualified ("dbo.accounts").
func NewAccountRepository(db *database.DB, table, keyColumn, dateMarker string, logger *slog.Logger) *AccountRepository {
	return &AccountRepository{
		db:         db,
		table:      pgx.Identifier(strings.Split(table, ".")),
		keyColumn:  pgx.Identifier{keyColumn},
		dateMarker: strings.ToLower(dateMarker),
		logger:     logger,
	}
}

// FetchByKey issues one exact-match query. Zero rows returns ErrNotFound; when
// several rows match the first one is used.
func (r *AccountRepository) FetchByKey(ctx context.Context, key string) (models.AccountRecord, error) {
	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE CAST(%s AS TEXT) = $1 LIMIT 2",
		r.table.Sanitize(), r.keyColumn.Sanitize(),
	)

	var record models.AccountRecord
	matches := 0

	err := r.db.WithConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, query, key)
		if err != nil {
			return err
		}
		defer rows.Close()

		fields := rows.FieldDescriptions()
		columns := make([]string, len(fields))
		for i, fd := range fields {
			columns[i] = fd.Name
		}

		for rows.Next() {
			matches++
			if matches > 1 {
				continue
			}
			values, err := rows.Values()
			if err != nil {
				return fmt.Errorf("failed to decode account row: %w", err)
			}
			record = normalizeRow(columns, values, r.dateMarker)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, database.MapPostgresError("fetch account record", err)
	}

	if matches == 0 {
		return nil, models.ErrNotFound
	}
	if matches > 1 {
		r.logger.Warn("account key matched more than one record, using the first",
			slog.String("key", key),
		)
	}

	return record, nil
}

// normalizeRow infers the display variant of every column once. Columns whose
// name contains dateMarker are coerced to dates or Missing.
func normalizeRow(columns []string, values []any, dateMarker string) models.AccountRecord {
	record := make(models.AccountRecord, len(columns))
	for i, col := range columns {
		var raw any
		if i < len(values) {
			raw = values[i]
		}
		if dateMarker != "" && strings.Contains(strings.ToLower(col), dateMarker) {
			record[col] = format.InferDate(raw)
			continue
		}
		record[col] = format.Infer(raw)
	}
	return record
}
