package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/expensebot/core/logger"
	tg "github.com/m3rciful/expensebot/core/telegram"
	"github.com/m3rciful/expensebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes binds every registered command (and its aliases) to a
// telebot endpoint wrapped with recovery, receipt logging and a summary line.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}

	var routes []tg.Route
	for name, def := range reg.Commands() {
		name, h := name, def.Handler
		wrapped := func(c tele.Context) error {
			return handleWithSummary(c, normalizeHandlerName(name), time.Now(), "", "", func() error {
				return h(c)
			})
		}
		wrapped = middleware.RecoverMiddleware(middleware.LoggerMiddleware(wrapped))
		routes = append(routes, tg.Route{Endpoint: name, Handler: wrapped})
		for _, alias := range def.Aliases {
			routes = append(routes, tg.Route{Endpoint: commandEndpoint(alias), Handler: wrapped})
		}
	}

	logger.LogEvent(context.Background(), logger.TWire, slog.LevelInfo, "wire.complete",
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

func commandEndpoint(name string) string {
	if len(name) > 0 && name[0] == '/' {
		return name
	}
	return "/" + name
}
