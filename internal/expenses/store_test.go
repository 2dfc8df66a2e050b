package expenses

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	coredatabase "github.com/m3rciful/expensebot/core/database"
	"github.com/m3rciful/expensebot/migrations"
)

const (
	ownerA int64 = 1001
	ownerB int64 = 2002
)

// StoreTestSuite runs every case against a fresh in-memory sqlite database.
type StoreTestSuite struct {
	suite.Suite
	db    *sqlx.DB
	store *Store
	now   time.Time
	ctx   context.Context
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) SetupTest() {
	cfg := coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: ":memory:"}
	db, err := coredatabase.Connect(cfg)
	require.NoError(s.T(), err, "failed to open test database")
	require.NoError(s.T(), coredatabase.RunMigrations(cfg, db, migrations.FS))

	s.db = db
	s.now = time.Date(2026, time.March, 15, 18, 30, 0, 0, time.Local)
	s.store = NewStore(db, WithClock(func() time.Time { return s.now }))
	s.ctx = context.Background()
}

func (s *StoreTestSuite) TearDownTest() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *StoreTestSuite) TestCreateAssignsIDAndToday() {
	e, err := s.store.Create(s.ctx, ownerA, 12.75)
	require.NoError(s.T(), err)

	assert.NotZero(s.T(), e.ID)
	assert.Equal(s.T(), ownerA, e.OwnerID)
	assert.Equal(s.T(), 12.75, e.Amount)
	assert.Equal(s.T(), "2026-03-15", e.Date.String())
}

func (s *StoreTestSuite) TestCreateAcceptsZeroAndNegative() {
	for _, amount := range []float64{0, -3.5} {
		e, err := s.store.Create(s.ctx, ownerA, amount)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), amount, e.Amount)
	}
}

func (s *StoreTestSuite) TestCreateRejectsNonFinite() {
	for _, amount := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := s.store.Create(s.ctx, ownerA, amount)
		assert.ErrorIs(s.T(), err, ErrInvalidAmount)
	}
	list, err := s.store.List(s.ctx, ownerA)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), list)
}

func (s *StoreTestSuite) TestListIsScopedAndOrdered() {
	a1, err := s.store.Create(s.ctx, ownerA, 50)
	require.NoError(s.T(), err)
	a2, err := s.store.Create(s.ctx, ownerA, -10.5)
	require.NoError(s.T(), err)
	b1, err := s.store.Create(s.ctx, ownerB, 5)
	require.NoError(s.T(), err)

	listA, err := s.store.List(s.ctx, ownerA)
	require.NoError(s.T(), err)
	require.Len(s.T(), listA, 2)
	assert.Equal(s.T(), a1.ID, listA[0].ID)
	assert.Equal(s.T(), a2.ID, listA[1].ID)
	assert.InDelta(s.T(), 39.5, listA[0].Amount+listA[1].Amount, 1e-9)

	listB, err := s.store.List(s.ctx, ownerB)
	require.NoError(s.T(), err)
	require.Len(s.T(), listB, 1)
	assert.Equal(s.T(), b1.ID, listB[0].ID)
	assert.Equal(s.T(), 5.0, listB[0].Amount)

	start, end := MonthRange(s.now)
	total, err := s.store.SumInRange(s.ctx, ownerA, start, end)
	require.NoError(s.T(), err)
	assert.InDelta(s.T(), 39.5, total, 1e-9)
}

func (s *StoreTestSuite) TestListEmpty() {
	list, err := s.store.List(s.ctx, ownerB)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), list)
}

func (s *StoreTestSuite) TestDeleteOwned() {
	keep, err := s.store.Create(s.ctx, ownerA, 1)
	require.NoError(s.T(), err)
	drop, err := s.store.Create(s.ctx, ownerA, 2)
	require.NoError(s.T(), err)

	removed, ok, err := s.store.Delete(s.ctx, ownerA, drop.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)
	assert.Equal(s.T(), drop.ID, removed.ID)
	assert.Equal(s.T(), 2.0, removed.Amount)

	list, err := s.store.List(s.ctx, ownerA)
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 1)
	assert.Equal(s.T(), keep.ID, list[0].ID)
}

func (s *StoreTestSuite) TestDeleteForeignOrMissing() {
	e, err := s.store.Create(s.ctx, ownerA, 7)
	require.NoError(s.T(), err)

	_, ok, err := s.store.Delete(s.ctx, ownerB, e.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok, "another owner must not delete the row")

	_, ok, err = s.store.Delete(s.ctx, ownerA, 9999)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)

	list, err := s.store.List(s.ctx, ownerA)
	require.NoError(s.T(), err)
	assert.Len(s.T(), list, 1)
}

func (s *StoreTestSuite) TestIDsAreNotReused() {
	first, err := s.store.Create(s.ctx, ownerA, 1)
	require.NoError(s.T(), err)
	_, ok, err := s.store.Delete(s.ctx, ownerA, first.ID)
	require.NoError(s.T(), err)
	require.True(s.T(), ok)

	second, err := s.store.Create(s.ctx, ownerA, 1)
	require.NoError(s.T(), err)
	assert.Greater(s.T(), second.ID, first.ID)
}

func (s *StoreTestSuite) TestSumInRangeBoundaries() {
	days := map[string]float64{
		"2026-02-28": 100, // previous month
		"2026-03-01": 1,   // first day, inclusive
		"2026-03-31": 2,   // last day
		"2026-04-01": 400, // next month, exclusive
	}
	for day, amount := range days {
		_, err := s.db.Exec(`INSERT INTO expenses (owner_id, amount, date) VALUES (?, ?, ?)`, ownerA, amount, day)
		require.NoError(s.T(), err)
	}
	_, err := s.db.Exec(`INSERT INTO expenses (owner_id, amount, date) VALUES (?, ?, ?)`, ownerB, 1000.0, "2026-03-10")
	require.NoError(s.T(), err)

	start, end := MonthRange(s.now)
	total, err := s.store.SumInRange(s.ctx, ownerA, start, end)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 3.0, total)
}

func (s *StoreTestSuite) TestSumInRangeEmptyIsZero() {
	start, end := MonthRange(s.now)
	total, err := s.store.SumInRange(s.ctx, ownerA, start, end)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 0.0, total)
}

func (s *StoreTestSuite) TestClosedDatabaseFails() {
	require.NoError(s.T(), s.db.Close())
	_, err := s.store.Create(s.ctx, ownerA, 1)
	assert.Error(s.T(), err)
	_, err = s.store.List(s.ctx, ownerA)
	assert.Error(s.T(), err)
	s.db = nil
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(time.Date(2025, time.December, 31, 23, 59, 0, 0, time.Local))
	assert.Equal(t, "2025-12-01", start.String())
	assert.Equal(t, "2026-01-01", end.String())
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2026, time.May, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-05-02", d.String())

	require.NoError(t, d.Scan([]byte("2026-06-07")))
	assert.Equal(t, "2026-06-07", d.String())

	require.NoError(t, d.Scan("2026-07-08 00:00:00"))
	assert.Equal(t, "2026-07-08", d.String())

	assert.Error(t, d.Scan(42))
	assert.Error(t, d.Scan("not a date"))

	v, err := DateOf(time.Date(2026, time.January, 9, 23, 0, 0, 0, time.Local)).Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-01-09", v)
}
