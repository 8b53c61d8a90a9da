package services

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/celar-labs/celar/internal/common"
	"github.com/celar-labs/celar/internal/logging"
	"github.com/celar-labs/celar/internal/server/models"
	"github.com/celar-labs/celar/internal/server/notify"
)

// Decider decides whether a simulated payment goes through.
type Decider interface {
	Approve() bool
}

// RandomDecider approves with a fixed probability.
type RandomDecider struct {
	rate float64
}

// NewRandomDecider clamps rate to [0, 1].
func NewRandomDecider(rate float64) *RandomDecider {
	return &RandomDecider{rate: min(max(rate, 0), 1)}
}

func (d *RandomDecider) Approve() bool {
	return rand.Float64() < d.rate
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func() bool

func (f DeciderFunc) Approve() bool { return f() }

// EventQueue accepts events for asynchronous delivery without blocking.
type EventQueue interface {
	Enqueue(ev notify.Event) bool
}

// PaymentService simulates sending money. Approved payments are written
// to the ledger and announced through the event queue; declined ones leave
// no trace besides a log line.
type PaymentService struct {
	ledger  *LedgerService
	decider Decider
	events  EventQueue
	logger  logging.Logger
	locks   keyedMutex
}

func NewPaymentService(ledger *LedgerService, decider Decider, events EventQueue, logger logging.Logger) *PaymentService {
	return &PaymentService{
		ledger:  ledger,
		decider: decider,
		events:  events,
		logger:  logger.With("module", "payments"),
	}
}

// Send validates p, rolls the dice and, on approval, appends the
// transaction and enqueues a payment_sent event. A decline returns
// common.ErrPaymentDeclined. Sends by the same user are serialized.
func (s *PaymentService) Send(ctx context.Context, userID int64, p Payment) (*models.Transaction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	if !s.decider.Approve() {
		s.logger.Warn(ctx, "payment declined", "user_id", userID, "currency", p.Currency)
		return nil, common.ErrPaymentDeclined
	}

	tx, err := s.ledger.Append(ctx, userID, p)
	if err != nil {
		return nil, err
	}

	s.events.Enqueue(notify.NewPaymentSent(tx))
	s.logger.Info(ctx, "payment sent", "user_id", userID, "transaction_id", tx.ID)

	return tx, nil
}

// keyedMutex hands out one mutex per user. Entries are dropped once no
// goroutine holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key int64) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[int64]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()

	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
