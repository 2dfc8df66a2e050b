package expenses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/expensebot/core/logger"
)

// ErrInvalidAmount is returned by Create for NaN and infinite amounts.
var ErrInvalidAmount = errors.New("expenses: amount must be a finite number")

const (
	insertExpense = `INSERT INTO expenses (owner_id, amount, date) VALUES (?, ?, ?)
RETURNING id, owner_id, amount, date`
	deleteExpense = `DELETE FROM expenses WHERE id = ? AND owner_id = ?
RETURNING id, owner_id, amount, date`
	listExpenses = `SELECT id, owner_id, amount, date FROM expenses WHERE owner_id = ? ORDER BY id`
	sumExpenses  = `SELECT COALESCE(SUM(amount), 0) FROM expenses
WHERE owner_id = ? AND date >= ? AND date < ?`
)

// Store keeps expenses in a single SQL table. Every query is scoped by owner.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used to date new expenses.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore wraps an open, migrated database.
func NewStore(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new expense dated today and returns it with its assigned id.
func (s *Store) Create(ctx context.Context, ownerID int64, amount float64) (Expense, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Expense{}, ErrInvalidAmount
	}
	start := time.Now()
	var e Expense
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(insertExpense), ownerID, amount, DateOf(s.now())).StructScan(&e)
	s.log(ctx, "expense.create", start, err,
		slog.Int64("owner_id", ownerID),
		slog.Int64("expense_id", e.ID),
		slog.Float64("amount", amount),
	)
	if err != nil {
		return Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return e, nil
}

// Delete removes the expense id if it belongs to ownerID. The boolean reports
// whether a row was removed; a missing or foreign id is not an error.
func (s *Store) Delete(ctx context.Context, ownerID, id int64) (Expense, bool, error) {
	start := time.Now()
	var e Expense
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(deleteExpense), id, ownerID).StructScan(&e)
	if errors.Is(err, sql.ErrNoRows) {
		s.log(ctx, "expense.delete", start, nil,
			slog.Int64("owner_id", ownerID),
			slog.Int64("expense_id", id),
			slog.String("outcome", "ignored"),
		)
		return Expense{}, false, nil
	}
	s.log(ctx, "expense.delete", start, err,
		slog.Int64("owner_id", ownerID),
		slog.Int64("expense_id", id),
	)
	if err != nil {
		return Expense{}, false, fmt.Errorf("delete expense %d: %w", id, err)
	}
	return e, true, nil
}

// List returns all expenses of ownerID in creation order.
func (s *Store) List(ctx context.Context, ownerID int64) ([]Expense, error) {
	start := time.Now()
	var out []Expense
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(listExpenses), ownerID)
	s.log(ctx, "expense.list", start, err,
		slog.Int64("owner_id", ownerID),
		slog.Int("count", len(out)),
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

// SumInRange adds up the amounts of ownerID dated within [from, to).
// It returns 0 when nothing matches.
func (s *Store) SumInRange(ctx context.Context, ownerID int64, from, to Date) (float64, error) {
	start := time.Now()
	var total float64
	err := s.db.GetContext(ctx, &total, s.db.Rebind(sumExpenses), ownerID, from, to)
	s.log(ctx, "expense.sum", start, err,
		slog.Int64("owner_id", ownerID),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Float64("total", total),
	)
	if err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

func (s *Store) log(ctx context.Context, event string, start time.Time, err error, attrs ...slog.Attr) {
	level := slog.LevelDebug
	attrs = append(attrs,
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.Took(start)),
	)
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	logger.LogEvent(ctx, logger.SVCExpenses, level, event, attrs...)
}
