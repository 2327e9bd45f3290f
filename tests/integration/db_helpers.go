package integration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/BradenHooton/accountdesk/internal/database"
)

// TestDB manages a PostgreSQL testcontainer shared by the credential and record stores
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase starts a PostgreSQL testcontainer. The credential schema is
// not created here; repositories provision it on first use.
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("accountdesk"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         database.New(pool, "test", slog.Default()),
	}, nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates the credential tables for test isolation.
// Missing tables are ignored since the schema is provisioned lazily.
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"login_counters",
		"login_audit",
		"allowed_users",
	}

	for _, table := range tables {
		query := fmt.Sprintf("DO $$ BEGIN IF to_regclass('%s') IS NOT NULL THEN TRUNCATE TABLE %s; END IF; END $$", table, table)
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// SeedAccounts creates an account table shaped like the production export and fills it
func SeedAccounts(ctx context.Context, pool *pgxpool.Pool, table string) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			idcuenta TEXT NOT NULL,
			nombre_cliente TEXT,
			monto_desembolsado NUMERIC(14,2),
			saldo_capital_actual DOUBLE PRECISION,
			total_cuotas INTEGER,
			fecha_desembolso DATE,
			fecha_ultimo_pago TEXT,
			campania TEXT,
			dni TEXT
		)`, table)
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create %s: %w", table, err)
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (idcuenta, nombre_cliente, monto_desembolsado, saldo_capital_actual,
			total_cuotas, fecha_desembolso, fecha_ultimo_pago, campania, dni)
		VALUES
			('1275583', 'CARRILLO CIERTO CLELIA EUTROPIA', 26132.00, 18166.2, 36, '2024-04-25', '2025-07-26', '—', '23011773'),
			('2000001', 'GARCÍA TORRES', 18000, 9200, 24, '2023-11-04', '—', 'Campaña Julio', '44556677'),
			('3000001', 'DUPLICADO UNO', 100, 50, 12, NULL, NULL, NULL, '11111111'),
			('3000001', 'DUPLICADO DOS', 200, 60, 12, NULL, NULL, NULL, '22222222')
	`, table)
	if _, err := pool.Exec(ctx, insert); err != nil {
		return fmt.Errorf("failed to seed %s: %w", table, err)
	}

	return nil
}
