package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/celar-labs/celar/internal/common"
	"github.com/celar-labs/celar/internal/dbx"
	"github.com/celar-labs/celar/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, userID int64, token string, validity time.Duration) error {
	query := r.db.Rebind(
		`INSERT INTO refresh_tokens (user_id, token, expires_at)
		 VALUES (?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query, userID, token, time.Now().UTC().Add(validity))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := r.db.Rebind(
		`SELECT user_id, token, expires_at FROM refresh_tokens
		 WHERE token = ?`)

	rt := &models.RefreshToken{}
	if err := r.db.GetContext(ctx, rt, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

func (r *SQLRepository) Delete(ctx context.Context, token string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM refresh_tokens WHERE token = ?`), token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
