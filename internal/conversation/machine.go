// Package conversation drives the per-user expense dialogue: it matches each
// inbound event against a transition table keyed by the user's state, calls
// the expense store and returns the replies to deliver.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/expensebot/core/logger"
	"github.com/m3rciful/expensebot/internal/expenses"
	"github.com/m3rciful/expensebot/internal/menu"
)

// Store is the persistence the machine depends on.
type Store interface {
	Create(ctx context.Context, ownerID int64, amount float64) (expenses.Expense, error)
	Delete(ctx context.Context, ownerID, id int64) (expenses.Expense, bool, error)
	List(ctx context.Context, ownerID int64) ([]expenses.Expense, error)
	SumInRange(ctx context.Context, ownerID int64, from, to expenses.Date) (float64, error)
}

// Message is one outbound text. Menu attaches the option keyboard; Edit asks
// the transport to replace the message whose button was pressed.
type Message struct {
	Text string
	Menu bool
	Edit bool
}

// Reply is the outcome of handling one event.
type Reply struct {
	Messages []Message
	From     State
	To       State
	// Handled is false when no transition matched; the event was ignored.
	Handled bool
}

// ErrClosed is returned by Handle after Close.
var ErrClosed = errors.New("conversation: machine closed")

// transition handles ev for userID and returns the next state.
type transition func(m *Machine, ctx context.Context, userID int64, ev Event) (State, []Message, error)

type trigger struct {
	state State
	kind  EventKind
	name  string
}

// anyState matches every state, including StateNone.
const anyState State = "*"

// anyName is used as trigger name to match every command, tag or text.
const anyName = ""

var transitions = map[trigger]transition{
	{anyState, EventCommand, CommandStart}:  (*Machine).start,
	{anyState, EventCommand, CommandCancel}: (*Machine).cancel,

	{StateMenu, EventCallback, menu.TagAdd}:      (*Machine).promptAmount,
	{StateMenu, EventCallback, menu.TagRemove}:   (*Machine).promptRemove,
	{StateMenu, EventCallback, menu.TagList}:     (*Machine).list,
	{StateMenu, EventCallback, menu.TagSumMonth}: (*Machine).sumMonth,
	{StateMenu, EventCallback, anyName}:          (*Machine).unknownOption,

	{StateAdd, EventText, anyName}:    (*Machine).addExpense,
	{StateRemove, EventText, anyName}: (*Machine).removeExpense,
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock overrides the time source used for month boundaries.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSessions supplies the session table, e.g. to share it with tests.
func WithSessions(s *Sessions) Option {
	return func(m *Machine) {
		if s != nil {
			m.sessions = s
		}
	}
}

// Machine is the conversation state machine. Events for one user must be
// handled sequentially; different users may be handled concurrently.
type Machine struct {
	store    Store
	sessions *Sessions
	now      func() time.Time
	closed   chan struct{}
}

// New returns a machine backed by store.
func New(store Store, opts ...Option) *Machine {
	m := &Machine{
		store:    store,
		sessions: NewSessions(),
		now:      time.Now,
		closed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State reports the current state of userID.
func (m *Machine) State(userID int64) State {
	return m.sessions.State(userID)
}

// Sessions exposes the session table.
func (m *Machine) Sessions() *Sessions {
	return m.sessions
}

// Close drops all sessions; later Handle calls fail with ErrClosed.
func (m *Machine) Close() {
	select {
	case <-m.closed:
		return
	default:
		close(m.closed)
	}
	m.sessions.Reset()
}

// Handle runs the transition matching ev in the user's current state. Store
// failures are returned and leave the state untouched.
func (m *Machine) Handle(ctx context.Context, userID int64, ev Event) (Reply, error) {
	select {
	case <-m.closed:
		return Reply{}, ErrClosed
	default:
	}

	from := m.sessions.State(userID)
	reply := Reply{From: from, To: from}
	fn, ok := lookup(from, ev)
	if !ok {
		if logger.ShouldSampleDebug() {
			logger.LogEvent(ctx, logger.Conv, slog.LevelDebug, "conversation.ignored",
				slog.Int64("user_id", userID),
				slog.String("state", from.String()),
				slog.String("kind", ev.Kind.String()),
				slog.String("name", ev.Name),
				slog.String("outcome", logger.Outcome(false, nil)),
			)
		}
		return reply, nil
	}

	to, msgs, err := fn(m, ctx, userID, ev)
	if err != nil {
		logger.LogEvent(ctx, logger.Conv, slog.LevelError, "conversation.transition",
			slog.Int64("user_id", userID),
			slog.String("from_state", from.String()),
			slog.String("kind", ev.Kind.String()),
			slog.String("name", ev.Name),
			slog.String("status", logger.Status(err)),
			slog.String("outcome", logger.Outcome(true, err)),
			slog.Any("err", err),
		)
		return reply, err
	}

	if to == StateMenu && ev.Kind == EventCommand && ev.Name == CommandStart {
		m.sessions.Restart(userID, to)
	} else {
		m.sessions.Set(userID, to)
	}
	reply.To = to
	reply.Messages = msgs
	reply.Handled = true

	logger.LogEvent(ctx, logger.Conv, slog.LevelInfo, "conversation.transition",
		slog.Int64("user_id", userID),
		slog.String("from_state", from.String()),
		slog.String("to_state", to.String()),
		slog.String("kind", ev.Kind.String()),
		slog.String("name", ev.Name),
		slog.Int("messages", len(msgs)),
		slog.String("status", "ok"),
		slog.String("outcome", logger.Outcome(true, nil)),
	)
	return reply, nil
}

func lookup(st State, ev Event) (transition, bool) {
	for _, key := range []trigger{
		{anyState, ev.Kind, ev.Name},
		{st, ev.Kind, ev.Name},
		{st, ev.Kind, anyName},
	} {
		if fn, ok := transitions[key]; ok {
			return fn, true
		}
	}
	return nil, false
}

func menuMessage() Message {
	return Message{Text: menu.TextChoose, Menu: true}
}

func (m *Machine) start(context.Context, int64, Event) (State, []Message, error) {
	return StateMenu, []Message{menuMessage()}, nil
}

func (m *Machine) cancel(context.Context, int64, Event) (State, []Message, error) {
	return StateTerminated, []Message{{Text: menu.TextCancelled}}, nil
}

func (m *Machine) promptAmount(context.Context, int64, Event) (State, []Message, error) {
	return StateAdd, []Message{{Text: menu.TextAmountPrompt, Edit: true}}, nil
}

func (m *Machine) promptRemove(ctx context.Context, userID int64, _ Event) (State, []Message, error) {
	list, err := m.store.List(ctx, userID)
	if err != nil {
		return StateNone, nil, err
	}
	return StateRemove, []Message{
		{Text: menu.FormatList(list)},
		{Text: menu.TextIDPrompt},
	}, nil
}

func (m *Machine) list(ctx context.Context, userID int64, _ Event) (State, []Message, error) {
	list, err := m.store.List(ctx, userID)
	if err != nil {
		return StateNone, nil, err
	}
	return StateMenu, []Message{
		{Text: menu.TextListing, Edit: true},
		{Text: menu.FormatList(list)},
		menuMessage(),
	}, nil
}

func (m *Machine) sumMonth(ctx context.Context, userID int64, _ Event) (State, []Message, error) {
	from, to := expenses.MonthRange(m.now())
	total, err := m.store.SumInRange(ctx, userID, from, to)
	if err != nil {
		return StateNone, nil, err
	}
	return StateMenu, []Message{
		{Text: menu.TextCalculating, Edit: true},
		{Text: menu.FormatTotal(total)},
		menuMessage(),
	}, nil
}

func (m *Machine) unknownOption(context.Context, int64, Event) (State, []Message, error) {
	return StateMenu, []Message{
		{Text: menu.TextUnknownOption, Edit: true},
		menuMessage(),
	}, nil
}

func (m *Machine) addExpense(ctx context.Context, userID int64, ev Event) (State, []Message, error) {
	amount, ok := ParseAmount(ev.Text)
	if !ok {
		return StateMenu, []Message{{Text: menu.TextFormatError}, menuMessage()}, nil
	}
	e, err := m.store.Create(ctx, userID, amount)
	if err != nil {
		return StateNone, nil, err
	}
	return StateMenu, []Message{{Text: menu.FormatAdded(e.Amount)}, menuMessage()}, nil
}

func (m *Machine) removeExpense(ctx context.Context, userID int64, ev Event) (State, []Message, error) {
	id, ok := ParseID(ev.Text)
	if !ok {
		return StateRemove, []Message{{Text: menu.TextInvalidID}}, nil
	}
	e, found, err := m.store.Delete(ctx, userID, id)
	if err != nil {
		return StateNone, nil, err
	}
	if !found {
		return StateRemove, []Message{{Text: menu.TextNotFound}}, nil
	}
	return StateMenu, []Message{{Text: menu.FormatDeleted(e)}, menuMessage()}, nil
}

// ParseAmount accepts a finite decimal or exponent number, surrounding
// whitespace ignored. Underscores are allowed between digits; hex is not.
func ParseAmount(s string) (float64, bool) {
	s, ok := decimalDigits(s)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseID accepts a base-10 integer, surrounding whitespace ignored.
// Underscores are allowed between digits.
func ParseID(s string) (int64, bool) {
	s, ok := decimalDigits(s)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// decimalDigits trims s, rejects a 0x/0X prefix and drops underscores that
// sit between two digits. Any other underscore makes s invalid.
func decimalDigits(s string) (string, bool) {
	s = strings.TrimSpace(s)
	body := strings.TrimLeft(s, "+-")
	if len(body) >= 2 && body[0] == '0' && (body[1] == 'x' || body[1] == 'X') {
		return "", false
	}
	if !strings.Contains(s, "_") {
		return s, true
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			b.WriteByte(s[i])
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return "", false
		}
	}
	return b.String(), true
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
