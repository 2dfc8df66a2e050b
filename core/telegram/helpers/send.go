package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/expensebot/core/logger"
	"github.com/m3rciful/expensebot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

// sendAsync hands run to the chat's dispatcher worker, waiting while the
// queue is full so replies keep their order. It runs inline only when no
// dispatcher is wired or it has been closed.
func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := disp.EnqueueWait(ctx, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

func textOptions(markup []*tele.ReplyMarkup) *tele.SendOptions {
	opts := &tele.SendOptions{}
	if len(markup) > 0 && markup[0] != nil {
		opts.ReplyMarkup = markup[0]
	}
	return opts
}

// SendText sends raw text (no parse mode) to the current chat.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := textOptions(markup)
	return sendAsync(c, "send.text", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// EditOrSendText replaces the text of the message carrying the pressed
// button. Without a callback, or when the edit is rejected, a new message is
// sent instead.
func EditOrSendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := textOptions(markup)
	if c.Callback() == nil || c.Callback().Message == nil {
		return SendText(c, text, markup...)
	}
	return sendAsync(c, "edit.text", "editMessageText", func() error {
		if err := c.Edit(text, opts); err != nil {
			if errors.Is(err, tele.ErrSameMessageContent) {
				return nil
			}
			logger.Debug(BuildContext(c), "tg.sender", "edit.fallback",
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			return c.Send(text, opts)
		}
		return nil
	})
}
