package activity

import (
	"context"
	"fmt"

	"github.com/celar-labs/celar/internal/client/models"
	"github.com/celar-labs/celar/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Balances(ctx context.Context, userID int64) ([]models.Balance, error) {
	balances := []models.Balance{}
	query := r.db.Rebind(`SELECT user_id, currency, amount FROM balances WHERE user_id = ? ORDER BY rowid`)
	if err := r.db.SelectContext(ctx, &balances, query, userID); err != nil {
		return nil, fmt.Errorf("failed to load balances: %w", err)
	}
	return balances, nil
}

func (r *SQLiteRepository) SeedDefaults(ctx context.Context, userID int64) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM balances WHERE user_id = ?`), userID); err != nil {
		return false, fmt.Errorf("failed to count balances: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	query := r.db.Rebind(`INSERT OR IGNORE INTO balances (user_id, currency, amount) VALUES (?, ?, ?)`)
	for _, b := range DefaultBalances {
		if _, err := r.db.ExecContext(ctx, query, userID, b.Currency, b.Amount.String()); err != nil {
			return false, fmt.Errorf("failed to seed balance %s: %w", b.Currency, err)
		}
	}
	return true, nil
}

func (r *SQLiteRepository) Record(ctx context.Context, a *models.Activity) error {
	query := r.db.Rebind(`
		INSERT INTO activities (user_id, type, description, amount, currency, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query,
		a.UserID, a.Type, a.Description, a.Amount.String(), a.Currency, string(a.Status), a.CreatedAt.UTC(),
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Recent(ctx context.Context, userID int64, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = RecentLimit
	}
	items := []models.Activity{}
	query := r.db.Rebind(`
		SELECT id, user_id, type, description, amount, currency, status, created_at
		FROM activities
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`)
	if err := r.db.SelectContext(ctx, &items, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	return items, nil
}
