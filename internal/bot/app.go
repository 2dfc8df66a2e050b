// Package bot wires the expense conversation to the Telegram runtime.
package bot

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	tg "github.com/m3rciful/expensebot/core/telegram"
	"github.com/m3rciful/expensebot/core/telegram/commands"
	"github.com/m3rciful/expensebot/core/telegram/router"
	appconfig "github.com/m3rciful/expensebot/internal/config"
	"github.com/m3rciful/expensebot/internal/conversation"
	"github.com/m3rciful/expensebot/internal/events"
	"github.com/m3rciful/expensebot/internal/expenses"
	"github.com/m3rciful/expensebot/internal/menu"
)

// App owns the store, the conversation machine and the handler registry for
// the lifetime of the process.
type App struct {
	cfg       *appconfig.Config
	db        *sqlx.DB
	publisher events.Publisher
	machine   *conversation.Machine
	registry  *tg.Registry
}

// New builds the application on an opened, migrated database. A nil
// publisher disables expense events.
func New(cfg *appconfig.Config, db *sqlx.DB, pub events.Publisher, opts ...conversation.Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("bot: nil config")
	}
	if pub == nil {
		pub = events.Discard{}
	}
	var store conversation.Store = expenses.NewStore(db)
	if _, discard := pub.(events.Discard); !discard {
		store = events.NewPublishingStore(store, pub)
	}

	a := &App{
		cfg:       cfg,
		db:        db,
		publisher: pub,
		machine:   conversation.New(store, opts...),
		registry:  tg.NewRegistry(),
	}
	if err := a.register(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) register() error {
	a.registry.RegisterCommand("/"+conversation.CommandStart, commands.Command{
		Handler:     a.onCommand(conversation.CommandStart),
		Description: "Show the expense menu",
	})
	a.registry.RegisterCommand("/"+conversation.CommandCancel, commands.Command{
		Handler:     a.onCommand(conversation.CommandCancel),
		Description: "Cancel the current operation",
	})
	for _, tag := range menu.Tags() {
		if err := a.registry.RegisterCallback(tag, a.onCallback); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	a.registry.SetCallbackNotFound(a.onCallback)
	a.registry.SetTextFallback(a.onText)
	return nil
}

// Machine exposes the conversation machine.
func (a *App) Machine() *conversation.Machine {
	return a.machine
}

// Registry exposes the handler registry.
func (a *App) Registry() *tg.Registry {
	return a.registry
}

// TelegramRunOptions assembles middlewares and routes for the runtime.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()
	routes := router.CommandRoutes(a.registry)
	routes = append(routes, router.CallbackRoute(a.registry), router.TextRoute(a.registry))
	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(core, onLimited),
		Routes:      routes,
	}, nil
}

// Close drops all conversations and releases the publisher and database.
func (a *App) Close() error {
	a.machine.Close()
	var errs []error
	if err := a.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
