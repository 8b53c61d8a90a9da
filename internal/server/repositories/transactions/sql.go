package transactions

import (
	"context"
	"fmt"

	"github.com/celar-labs/celar/internal/dbx"
	"github.com/celar-labs/celar/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	query := r.db.Rebind(
		`INSERT INTO transactions (user_id, recipient, amount, currency, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id`)

	err := r.db.QueryRowxContext(ctx, query,
		tx.UserID, tx.Recipient, tx.Amount, tx.Currency, tx.CreatedAt).Scan(&tx.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tx, nil
}

func (r *SQLRepository) ListByUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	query := r.db.Rebind(
		`SELECT id, user_id, recipient, amount, currency, created_at
		 FROM transactions
		 WHERE user_id = ?
		 ORDER BY id`)

	items := []models.Transaction{}
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}
