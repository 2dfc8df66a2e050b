// Package expenses persists user expenses and answers owner-scoped queries.
package expenses

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DateLayout is the storage and display format of a Date.
const DateLayout = "2006-01-02"

// Expense is a single amount spent by a chat user.
type Expense struct {
	ID      int64   `db:"id"`
	OwnerID int64   `db:"owner_id"`
	Amount  float64 `db:"amount"`
	Date    Date    `db:"date"`
}

// Date is a calendar day in the server's local time zone.
type Date struct {
	time.Time
}

// DateOf truncates t to its calendar day, keeping the day as seen in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.Local)}
}

// MonthRange returns the first day of t's month and the first day of the next one.
func MonthRange(t time.Time) (Date, Date) {
	y, m, _ := t.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, time.Local)
	return Date{start}, Date{start.AddDate(0, 1, 0)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner for DATE columns (postgres) and TEXT columns (sqlite).
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	case nil:
		*d = Date{}
		return nil
	}
	return fmt.Errorf("expenses: cannot scan %T into Date", src)
}

func (d *Date) parse(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("expenses: parse date %q: %w", s, err)
	}
	d.Time = t
	return nil
}
