package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/celar-labs/celar/internal/client/migrations"
	"github.com/celar-labs/celar/internal/client/repositories/activity"
	"github.com/celar-labs/celar/internal/client/repositories/metadata"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

type Repositories struct {
	Metadata metadata.Repository
	Activity activity.Repository
	DB       *sqlx.DB
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the local SQLite database at dsn, applies migrations and
// returns the repositories backed by it.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		Metadata: metadata.NewSQLiteRepository(db),
		Activity: activity.NewSQLiteRepository(db),
		DB:       db,
	}, nil
}
