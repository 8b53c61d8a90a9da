package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/celar-labs/celar/internal/client/client"
	"github.com/celar-labs/celar/internal/client/models"
	"github.com/celar-labs/celar/internal/client/repositories/activity"
	"github.com/celar-labs/celar/internal/client/session"
	"github.com/celar-labs/celar/internal/common"
	"github.com/celar-labs/celar/internal/logging"
	"github.com/shopspring/decimal"
)

// WalletService is the signed-in user's view of balances, activity and
// payments. Every method needs an authenticated session.
type WalletService interface {
	Balances(ctx context.Context) ([]models.Balance, error)
	RecentActivity(ctx context.Context) ([]models.Activity, error)
	Transactions(ctx context.Context) ([]models.Transaction, error)
	Send(ctx context.Context, recipient, amount, currency string) (int64, error)
}

type walletService struct {
	client   client.Client
	session  *session.Manager
	activity activity.Repository
	logger   logging.Logger
	now      func() time.Time
}

func NewWalletService(c client.Client, s *session.Manager, a activity.Repository, logger logging.Logger) WalletService {
	return &walletService{
		client:   c,
		session:  s,
		activity: a,
		logger:   logger.With("module", "wallet"),
		now:      time.Now,
	}
}

func (w *walletService) Balances(ctx context.Context) ([]models.Balance, error) {
	profile, ok := w.session.Profile()
	if !ok {
		return nil, session.ErrNotAuthenticated
	}

	balances, err := w.activity.Balances(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}
	if len(balances) > 0 {
		return balances, nil
	}

	if _, err := w.activity.SeedDefaults(ctx, profile.UserID); err != nil {
		return nil, err
	}
	return w.activity.Balances(ctx, profile.UserID)
}

func (w *walletService) RecentActivity(ctx context.Context) ([]models.Activity, error) {
	profile, ok := w.session.Profile()
	if !ok {
		return nil, session.ErrNotAuthenticated
	}
	return w.activity.Recent(ctx, profile.UserID, activity.RecentLimit)
}

func (w *walletService) Transactions(ctx context.Context) ([]models.Transaction, error) {
	token, err := w.session.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	txs, err := w.client.Transactions(ctx, token)
	if err != nil {
		return nil, w.remoteError(ctx, err)
	}
	return txs, nil
}

// Send validates the form, submits the payment and records the outcome in
// the local activity log.
func (w *walletService) Send(ctx context.Context, recipient, amount, currency string) (int64, error) {
	recipient = strings.TrimSpace(recipient)
	currency = strings.ToUpper(strings.TrimSpace(currency))
	amount = strings.TrimSpace(amount)
	if recipient == "" || amount == "" || currency == "" {
		return 0, common.NewValidationError("Recipient, amount, and currency are required")
	}
	value, err := decimal.NewFromString(amount)
	if err != nil || !value.IsPositive() {
		return 0, common.NewValidationError("Amount must be a positive number")
	}

	profile, ok := w.session.Profile()
	if !ok {
		return 0, session.ErrNotAuthenticated
	}
	token, err := w.session.AccessToken(ctx)
	if err != nil {
		return 0, err
	}

	id, err := w.client.Send(ctx, token, recipient, value, currency)

	status := models.ActivityCompleted
	if err != nil {
		status = models.ActivityFailed
	}
	w.record(ctx, &models.Activity{
		UserID:      profile.UserID,
		Type:        models.ActivityTypeSend,
		Description: "Payment to " + recipient,
		Amount:      value,
		Currency:    currency,
		Status:      status,
		CreatedAt:   w.now().UTC(),
	})

	if err != nil {
		return 0, w.remoteError(ctx, err)
	}
	return id, nil
}

func (w *walletService) record(ctx context.Context, a *models.Activity) {
	if err := w.activity.Record(ctx, a); err != nil {
		w.logger.Warn(ctx, "failed to record activity", "user_id", a.UserID, "error", err)
	}
}

func (w *walletService) remoteError(ctx context.Context, err error) error {
	if w.session.HandleAuthFailure(ctx, err) {
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	if errors.Is(err, client.ErrPaymentDeclined) {
		return fmt.Errorf("payment failed, please try again: %w", err)
	}
	return err
}
