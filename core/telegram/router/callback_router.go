package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/expensebot/core/telegram"
	"github.com/m3rciful/expensebot/core/telegram/callbacks"
	"github.com/m3rciful/expensebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute answers every button press and dispatches it to the handler
// registered for its key, or to the registry's not-found handler.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key, _ := callbacks.Parse(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		_ = c.Respond()

		h, ok := reg.GetCallback(key)
		if !ok || h == nil {
			h = reg.CallbackNotFound()
			extras = append(extras, slog.String("reason", "not_found"))
		}
		if h == nil {
			logHandlerSummary(c, name, start, "skip", "ignored", nil, extras...)
			return nil
		}
		return handleWithSummary(c, name, start, "", "", func() error {
			return h(c)
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
