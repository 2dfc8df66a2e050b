package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/expensebot/core/logger"
)

// RunMigrations applies all up migrations found under the driver's directory of source.
// Postgres migrations use their own connection; sqlite ones run on db so that
// in-memory databases see the schema.
func RunMigrations(cfg Config, db *sqlx.DB, source fs.FS) error {
	if err := cfg.Normalize(); err != nil {
		return err
	}
	if source == nil {
		return fmt.Errorf("no migration source provided")
	}

	files := listMigrationFiles(source, cfg.Driver)
	preview, truncated := logger.SummarizeStrings(files, 6)
	args := []any{
		slog.String("event", "resolve"),
		slog.String("driver", cfg.Driver),
		slog.Int("files_total", len(files)),
		slog.String("files_preview", preview),
	}
	if truncated {
		args = append(args, slog.Bool("files_truncated", true))
	}
	logger.MIG.Debug("migrations resolved", args...)

	src, err := iofs.New(source, cfg.Driver)
	if err != nil {
		return migrateFailed("source", fmt.Errorf("open migration source: %w", err))
	}

	var m *migrate.Migrate
	switch cfg.Driver {
	case DriverPostgres:
		if err := WaitForPostgres(cfg.DSN(), 30*time.Second); err != nil {
			return migrateFailed("db.migrate", fmt.Errorf("database not ready: %w", err))
		}
		m, err = migrate.NewWithSourceInstance("iofs", src, cfg.URL())
		if err == nil {
			defer m.Close()
		}
	default:
		if db == nil {
			return fmt.Errorf("sqlite migrations need an open database")
		}
		// the driver is not closed: closing it would close db as well
		driver, derr := sqlite.WithInstance(db.DB, &sqlite.Config{})
		if derr != nil {
			return migrateFailed("db.migrate", fmt.Errorf("create sqlite driver: %w", derr))
		}
		m, err = migrate.NewWithInstance("iofs", src, DriverSQLite, driver)
	}
	if err != nil {
		return migrateFailed("db.migrate", fmt.Errorf("failed to initialize migrations: %w", err))
	}

	fromVer, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	took := time.Since(start)

	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.MIG.Error("migration failed",
			slog.String("event", "apply"),
			slog.String("err", upErr.Error()),
			slog.Duration("duration", logger.RoundMS(took)),
		)
		return fmt.Errorf("migration execution failed: %w", upErr)
	}

	toVer, _, _ := m.Version()
	applied := selectApplied(files, uint64(fromVer), uint64(toVer))
	if len(applied) > 0 {
		names, _ := logger.SummarizeStrings(applied, 6)
		logger.MIG.Debug("applied files",
			slog.String("event", "apply"),
			slog.Int("files_total", len(applied)),
			slog.String("files_preview", names),
		)
	}

	logger.MIG.Info("migrations summary",
		slog.String("event", "summary"),
		slog.String("driver", cfg.Driver),
		slog.Uint64("from_ver", uint64(fromVer)),
		slog.Uint64("to_ver", uint64(toVer)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return nil
}

func migrateFailed(event string, err error) error {
	logger.MIG.Error("migrations failed",
		slog.String("event", event),
		slog.String("err", err.Error()),
	)
	return err
}

func listMigrationFiles(source fs.FS, dir string) []string {
	entries, err := fs.ReadDir(source, dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func parseVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

func selectApplied(files []string, from, to uint64) []string {
	if to <= from {
		return nil
	}
	var out []string
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
