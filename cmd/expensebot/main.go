// Command expensebot runs the Telegram expense tracker.
package main

import (
	"fmt"
	"log"

	corebootstrap "github.com/m3rciful/expensebot/core/bootstrap"
	corecmd "github.com/m3rciful/expensebot/core/cmd"
	"github.com/m3rciful/expensebot/internal/bot"
	appconfig "github.com/m3rciful/expensebot/internal/config"
	"github.com/m3rciful/expensebot/internal/events"
	"github.com/m3rciful/expensebot/migrations"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := appconfig.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: bootstrap,
	})
	if err != nil {
		log.Fatal(err)
	}
}

func bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*appconfig.Config)
	if !ok {
		return nil, fmt.Errorf("unexpected config type %T", carrier)
	}

	res, err := corebootstrap.Run(corebootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: migrations.FS,
	})
	if err != nil {
		return nil, err
	}

	pub, err := events.Open(cfg.Events)
	if err != nil {
		_ = res.DB.Close()
		return nil, fmt.Errorf("events: %w", err)
	}

	app, err := bot.New(cfg, res.DB, pub)
	if err != nil {
		_ = pub.Close()
		_ = res.DB.Close()
		return nil, err
	}
	return app, nil
}
