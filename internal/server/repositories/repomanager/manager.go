// Package repomanager vends the server repositories behind one handle and
// owns the database lifecycle: opening by DSN, migrations, transactions.
package repomanager

import (
	"context"
	"strings"

	"github.com/celar-labs/celar/internal/server/repositories/refreshtokens"
	"github.com/celar-labs/celar/internal/server/repositories/transactions"
	"github.com/celar-labs/celar/internal/server/repositories/users"
)

// MemoryDSN selects the in-memory store.
const MemoryDSN = "memory://"

type RepositoryManager interface {
	Users() users.Repository
	Transactions() transactions.Repository
	RefreshTokens() refreshtokens.Repository

	// RunMigrations brings the schema up to date.
	RunMigrations(ctx context.Context) error

	// WithTx runs fn with a manager whose repositories share one
	// transaction. The transaction commits when fn returns nil.
	WithTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Open picks an implementation from the DSN: "memory://" for the in-memory
// store, postgres:// or postgresql:// for PostgreSQL, anything else is
// treated as a SQLite path or URI.
func Open(ctx context.Context, dsn string) (RepositoryManager, error) {
	switch {
	case dsn == MemoryDSN:
		return NewMemoryRepositoryManager(), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresRepositoryManager(ctx, dsn)
	default:
		return NewSQLiteRepositoryManager(ctx, dsn)
	}
}
