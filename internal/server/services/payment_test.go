package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/celar-labs/celar/internal/common"
	"github.com/celar-labs/celar/internal/logging"
	"github.com/celar-labs/celar/internal/server/notify"
	"github.com/celar-labs/celar/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct {
	mu     sync.Mutex
	events []notify.Event
}

func (q *recordingQueue) Enqueue(ev notify.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, ev)
	return true
}

func (q *recordingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

func newPaymentService(t *testing.T, approve bool) (*PaymentService, *LedgerService, *recordingQueue) {
	t.Helper()
	l := NewLedgerService(managerWithUsers(t, 1))
	q := &recordingQueue{}
	d := DeciderFunc(func() bool { return approve })
	return NewPaymentService(l, d, q, logging.Nop{}), l, q
}

func TestSend_Approved(t *testing.T) {
	ctx := context.Background()
	s, l, q := newPaymentService(t, true)

	tx, err := s.Send(ctx, 1, Payment{"b@x.com", decimal.NewFromInt(10), "USD"})
	require.NoError(t, err)
	assert.Positive(t, tx.ID)

	items, err := l.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.Equal(t, 1, q.len())
	ev := q.events[0]
	assert.Equal(t, notify.EventPaymentSent, ev.Type)
	assert.Equal(t, tx.ID, ev.Transaction.ID)
	assert.Equal(t, "10", ev.Transaction.Amount.String())
}

func TestSend_DeclinedWritesNothing(t *testing.T) {
	ctx := context.Background()
	s, l, q := newPaymentService(t, false)

	_, err := s.Send(ctx, 1, Payment{"b@x.com", decimal.NewFromInt(10), "USD"})
	assert.ErrorIs(t, err, common.ErrPaymentDeclined)

	items, err := l.ListForUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0, q.len())
}

func TestSend_InvalidNeverRollsDice(t *testing.T) {
	var calls atomic.Int32
	l := NewLedgerService(repomanager.NewMemoryRepositoryManager())
	s := NewPaymentService(l, DeciderFunc(func() bool { calls.Add(1); return true }), &recordingQueue{}, logging.Nop{})

	_, err := s.Send(context.Background(), 1, Payment{"b@x.com", decimal.NewFromInt(-1), "USD"})
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.Zero(t, calls.Load())
}

func TestRandomDecider(t *testing.T) {
	always := NewRandomDecider(1)
	never := NewRandomDecider(0)
	clamped := NewRandomDecider(7)
	for i := 0; i < 100; i++ {
		assert.True(t, always.Approve())
		assert.False(t, never.Approve())
		assert.True(t, clamped.Approve())
	}

	d := NewRandomDecider(0.8)
	approved := 0
	const n = 10000
	for i := 0; i < n; i++ {
		if d.Approve() {
			approved++
		}
	}
	assert.InDelta(t, 0.8, float64(approved)/n, 0.05)
}

func TestSend_SerializesPerUser(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	d := DeciderFunc(func() bool {
		cur := inFlight.Add(1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return true
	})

	l := NewLedgerService(managerWithUsers(t, 1))
	s := NewPaymentService(l, d, &recordingQueue{}, logging.Nop{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Send(context.Background(), 1, Payment{"b", decimal.NewFromInt(1), "USD"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load())
	items, err := l.ListForUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, items, 8)
	assert.Empty(t, s.locks.locks)
}
