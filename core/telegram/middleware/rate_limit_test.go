package middleware

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func newTestContext(b *tele.Bot, upd tele.Update) tele.Context {
	return b.NewContext(upd)
}

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true, Synchronous: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	return b
}

func TestRateLimitMiddleware(t *testing.T) {
	b := offlineBot(t)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
		Now:       func() time.Time { return clock },
	})
	handled := 0
	h := mw(func(tele.Context) error { handled++; return nil })

	user := &tele.User{ID: 42}
	msg := tele.Update{ID: 1, Message: &tele.Message{Sender: user, Chat: &tele.Chat{ID: 42}, Text: "50"}}
	cb := tele.Update{ID: 2, Callback: &tele.Callback{Sender: user, Data: "\fadd"}}

	_ = h(newTestContext(b, msg))
	_ = h(newTestContext(b, msg))
	_ = h(newTestContext(b, cb))
	clock = clock.Add(time.Second)
	_ = h(newTestContext(b, msg))

	if handled != 3 {
		t.Fatalf("handled = %d, want 3", handled)
	}
	if limited != 1 {
		t.Fatalf("limited = %d, want 1", limited)
	}
}

func TestUpdateKind(t *testing.T) {
	cases := map[string]tele.Update{
		"callback":     {Callback: &tele.Callback{}},
		"message":      {Message: &tele.Message{}},
		"inline_query": {Query: &tele.Query{}},
		"other":        {},
	}
	for want, upd := range cases {
		if got := UpdateKind(upd); got != want {
			t.Errorf("UpdateKind = %q, want %q", got, want)
		}
	}
}

func TestMessageMetricsCountsEdits(t *testing.T) {
	b := offlineBot(t)
	c := newTestContext(b, tele.Update{ID: 3})
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		mc := c.(countingContext)
		mc.count([]interface{}{&tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}}})
		mc.count(nil)
		return nil
	})
	if err := h(c); err != nil {
		t.Fatal(err)
	}
	msgs, kb := GetCounters(c)
	if msgs != 2 || !kb {
		t.Fatalf("counters = %d, %v", msgs, kb)
	}
}
