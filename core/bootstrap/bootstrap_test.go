package bootstrap

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/expensebot/core/config"
	coredatabase "github.com/m3rciful/expensebot/core/database"
	"github.com/m3rciful/expensebot/migrations"
)

func TestRunRequiresConfig(t *testing.T) {
	if _, err := Run(Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestRunSQLiteMemory(t *testing.T) {
	loggerCalls := 0
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: ":memory:"},
		Migrations: migrations.FS,
		LoggerInit: func(*coreconfig.Config) error { loggerCalls++; return nil },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	defer res.DB.Close()
	if loggerCalls != 1 {
		t.Fatalf("logger init called %d times", loggerCalls)
	}
	if _, err := res.DB.Exec("INSERT INTO expenses (owner_id, amount, date) VALUES (1, 2.5, '2026-10-15')"); err != nil {
		t.Fatalf("schema not applied: %v", err)
	}
}

func TestRunMigrateFailureClosesDB(t *testing.T) {
	boom := errors.New("boom")
	var opened *sqlx.DB
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: ":memory:"},
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Connect: func(cfg coredatabase.Config) (*sqlx.DB, error) {
			db, err := coredatabase.Connect(cfg)
			opened = db
			return db, err
		},
		Migrate: func(coredatabase.Config, *sqlx.DB, fs.FS) error { return boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if opened == nil {
		t.Fatal("connect was not called")
	}
	if err := opened.Ping(); err == nil {
		t.Fatal("db should be closed after migration failure")
	}
}
