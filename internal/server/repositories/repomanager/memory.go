package repomanager

import (
	"context"
	"sync"

	"github.com/celar-labs/celar/internal/server/repositories/refreshtokens"
	"github.com/celar-labs/celar/internal/server/repositories/transactions"
	"github.com/celar-labs/celar/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. WithTx
// serializes transactional callers but does not roll back on error.
type MemoryRepositoryManager struct {
	txMu          sync.Mutex
	users         *users.MemoryRepository
	transactions  *transactions.MemoryRepository
	refreshTokens *refreshtokens.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	u := users.NewMemoryRepository()
	return &MemoryRepositoryManager{
		users:         u,
		transactions:  transactions.NewMemoryRepository(u),
		refreshTokens: refreshtokens.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) Transactions() transactions.Repository {
	return m.transactions
}

func (m *MemoryRepositoryManager) RefreshTokens() refreshtokens.Repository {
	return m.refreshTokens
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m)
}

func (m *MemoryRepositoryManager) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryRepositoryManager) Close() error {
	return nil
}
