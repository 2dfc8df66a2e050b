package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/expensebot/core/logger"
	"github.com/m3rciful/expensebot/internal/expenses"
)

// ExpenseStore is the store surface decorated by PublishingStore.
type ExpenseStore interface {
	Create(ctx context.Context, ownerID int64, amount float64) (expenses.Expense, error)
	Delete(ctx context.Context, ownerID, id int64) (expenses.Expense, bool, error)
	List(ctx context.Context, ownerID int64) ([]expenses.Expense, error)
	SumInRange(ctx context.Context, ownerID int64, from, to expenses.Date) (float64, error)
}

// PublishingStore announces successful creates and deletes. Publish
// failures are logged and never reach the caller.
type PublishingStore struct {
	ExpenseStore
	pub Publisher
	now func() time.Time
}

// NewPublishingStore wraps next so that changes are sent to pub.
func NewPublishingStore(next ExpenseStore, pub Publisher) *PublishingStore {
	return &PublishingStore{ExpenseStore: next, pub: pub, now: time.Now}
}

// Create stores the expense and publishes expense.created.
func (s *PublishingStore) Create(ctx context.Context, ownerID int64, amount float64) (expenses.Expense, error) {
	e, err := s.ExpenseStore.Create(ctx, ownerID, amount)
	if err != nil {
		return e, err
	}
	s.publish(ctx, KindCreated, e)
	return e, nil
}

// Delete removes the expense and publishes expense.deleted when a row went away.
func (s *PublishingStore) Delete(ctx context.Context, ownerID, id int64) (expenses.Expense, bool, error) {
	e, ok, err := s.ExpenseStore.Delete(ctx, ownerID, id)
	if err != nil || !ok {
		return e, ok, err
	}
	s.publish(ctx, KindDeleted, e)
	return e, true, nil
}

func (s *PublishingStore) publish(ctx context.Context, kind string, e expenses.Expense) {
	msg := ExpenseMessage{
		Kind:      kind,
		ID:        e.ID,
		OwnerID:   e.OwnerID,
		Amount:    e.Amount,
		Date:      e.Date.String(),
		Timestamp: s.now().UTC(),
	}
	start := time.Now()
	err := s.pub.Publish(ctx, msg)
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelWarn
	}
	logger.LogEvent(ctx, logger.Events, level, "events.publish",
		slog.String("routing_key", kind),
		slog.Int64("expense_id", e.ID),
		slog.Int64("owner_id", e.OwnerID),
		slog.String("status", logger.Status(err)),
		slog.Duration("took", logger.Took(start)),
		slog.Any("err", err),
	)
}
