package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/celar-labs/celar/internal/dbx"
	"github.com/celar-labs/celar/internal/server/migrations"
	"github.com/celar-labs/celar/internal/server/repositories/refreshtokens"
	"github.com/celar-labs/celar/internal/server/repositories/transactions"
	"github.com/celar-labs/celar/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager serves SQLite and PostgreSQL. Inside WithTx the
// repositories are bound to the transaction instead of the pool.
type SQLRepositoryManager struct {
	db      *sqlx.DB
	q       dbx.DBTX
	dialect string
	migrDir string
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewPostgresRepositoryManager connects through the pgx stdlib driver.
func NewPostgresRepositoryManager(ctx context.Context, dsn string) (*SQLRepositoryManager, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newSQLRepositoryManager(db, "pgx", migrations.DirPostgres), nil
}

// NewSQLiteRepositoryManager opens a SQLite database with foreign keys on.
// SQLite allows a single writer, so the pool is limited to one connection.
func NewSQLiteRepositoryManager(ctx context.Context, dsn string) (*SQLRepositoryManager, error) {
	db, err := sqlx.Open("sqlite", sqliteDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return newSQLRepositoryManager(db, "sqlite3", migrations.DirSQLite), nil
}

func newSQLRepositoryManager(db *sqlx.DB, dialect, dir string) *SQLRepositoryManager {
	return &SQLRepositoryManager{db: db, q: db, dialect: dialect, migrDir: dir}
}

func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (m *SQLRepositoryManager) Users() users.Repository {
	return users.NewSQLRepository(m.q)
}

func (m *SQLRepositoryManager) Transactions() transactions.Repository {
	return transactions.NewSQLRepository(m.q)
}

func (m *SQLRepositoryManager) RefreshTokens() refreshtokens.Repository {
	return refreshtokens.NewSQLRepository(m.q)
}

// RunMigrations sets up goose with the embedded migrations for this
// dialect and applies them.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.dialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db.DB, m.migrDir); err != nil {
		return err
	}
	return nil
}

func (m *SQLRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &SQLRepositoryManager{db: m.db, q: tx, dialect: m.dialect, migrDir: m.migrDir})
	})
}

func (m *SQLRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}
