package transactions

import (
	"context"
	"fmt"
	"sync"

	"github.com/celar-labs/celar/internal/server/models"
)

// UserLookup resolves the owner of a transaction.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byUser map[int64][]models.Transaction
	owners UserLookup
}

// NewMemoryRepository returns an empty repository. When owners is non-nil,
// Create rejects transactions for users it does not know, like the SQL
// foreign key does.
func NewMemoryRepository(owners UserLookup) *MemoryRepository {
	return &MemoryRepository{byUser: make(map[int64][]models.Transaction), owners: owners}
}

func (r *MemoryRepository) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	if r.owners != nil {
		if _, err := r.owners.GetByID(ctx, tx.UserID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	tx.ID = r.nextID
	r.byUser[tx.UserID] = append(r.byUser[tx.UserID], *tx)

	return tx, nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.byUser[userID]
	out := make([]models.Transaction, len(src))
	copy(out, src)
	return out, nil
}
