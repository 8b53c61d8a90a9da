package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/celar-labs/celar/internal/common"
	"github.com/celar-labs/celar/internal/server/models"
	"github.com/celar-labs/celar/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// Payment is the user-supplied part of a transfer.
type Payment struct {
	Recipient string
	Amount    decimal.Decimal
	Currency  string
}

// Validate rejects blank fields and non-positive amounts.
func (p Payment) Validate() error {
	if strings.TrimSpace(p.Recipient) == "" || strings.TrimSpace(p.Currency) == "" {
		return common.NewValidationError("Recipient, amount, and currency are required")
	}
	if !p.Amount.IsPositive() {
		return common.NewValidationError("Amount must be a positive number")
	}
	return nil
}

// LedgerService is the append-only record of successful payments.
type LedgerService struct {
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewLedgerService(m repomanager.RepositoryManager) *LedgerService {
	return &LedgerService{repomanager: m, now: time.Now}
}

// Append validates p and records it for userID with the current time.
func (s *LedgerService) Append(ctx context.Context, userID int64, p Payment) (*models.Transaction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.repomanager.Transactions().Create(ctx, &models.Transaction{
		UserID:    userID,
		Recipient: strings.TrimSpace(p.Recipient),
		Amount:    p.Amount,
		Currency:  strings.TrimSpace(p.Currency),
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("error appending transaction: %w", err)
	}
	return tx, nil
}

// ListForUser returns userID's transactions oldest first. Other users'
// entries are never included.
func (s *LedgerService) ListForUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	items, err := s.repomanager.Transactions().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}
	return items, nil
}
