package telegram

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/expensebot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegisterCommandValidation(t *testing.T) {
	r := NewRegistry()
	r.RegisterCommand("/start", commands.Command{Handler: noop, Description: "start", Aliases: []string{"menu"}})
	r.RegisterCommand("noslash", commands.Command{Handler: noop, Description: "x"})
	r.RegisterCommand("/nodesc", commands.Command{Handler: noop})
	r.RegisterCommand("/start", commands.Command{Handler: noop, Description: "dup"})
	r.RegisterCommand("/hidden", commands.Command{Handler: noop, Description: "h", Hidden: true})

	assert.Len(t, r.Commands(), 2)
	assert.Equal(t, "start", r.Commands()["/start"].Description)

	visible := r.ListCommands(true)
	require.Len(t, visible, 1)
	assert.Equal(t, "start", visible[0].Text)
	assert.Len(t, r.ListCommands(false), 2)
}

func TestLookupCommandByAlias(t *testing.T) {
	r := NewRegistry()
	r.RegisterCommand("/start", commands.Command{Handler: noop, Description: "start", Aliases: []string{"menu"}})

	key, _, ok := r.LookupCommand("start")
	assert.True(t, ok)
	assert.Equal(t, "/start", key)

	key, _, ok = r.LookupCommand("/menu")
	assert.True(t, ok)
	assert.Equal(t, "/start", key)

	_, _, ok = r.LookupCommand("/other")
	assert.False(t, ok)
}

func TestRegisterCallback(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterCallback("b", noop))
	require.NoError(t, r.RegisterCallback("a", noop))
	assert.Error(t, r.RegisterCallback("a", noop))
	assert.Error(t, r.RegisterCallback("", noop))
	assert.Error(t, r.RegisterCallback("c", nil))
	assert.Equal(t, []string{"a", "b"}, r.ListCallbacks())

	_, ok := r.GetCallback("missing")
	assert.False(t, ok)
}

func TestFallbacks(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r.CallbackNotFound())
	assert.NoError(t, r.CallbackNotFound()(nil))
	assert.Nil(t, r.TextFallback())

	errFallback := errors.New("fallback")
	r.SetCallbackNotFound(nil)
	assert.NotNil(t, r.CallbackNotFound())
	r.SetCallbackNotFound(func(tele.Context) error { return errFallback })
	assert.ErrorIs(t, r.CallbackNotFound()(nil), errFallback)
}

type fakeSetter struct {
	calls int
	got   []tele.Command
}

func (f *fakeSetter) SetCommands(opts ...interface{}) error {
	f.calls++
	if len(opts) > 0 {
		f.got, _ = opts[0].([]tele.Command)
	}
	return nil
}

func TestInitBotCommands(t *testing.T) {
	r := NewRegistry()
	s := &fakeSetter{}
	InitBotCommands(s, r)
	assert.Zero(t, s.calls)

	r.RegisterCommand("/cancel", commands.Command{Handler: noop, Description: "cancel"})
	r.RegisterCommand("/start", commands.Command{Handler: noop, Description: "start"})
	InitBotCommands(s, r)
	assert.Equal(t, 1, s.calls)
	require.Len(t, s.got, 2)
	assert.Equal(t, "cancel", s.got[0].Text)
}
