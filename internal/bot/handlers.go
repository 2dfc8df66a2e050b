package bot

import (
	"strings"

	"github.com/m3rciful/expensebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/expensebot/core/telegram/helpers"
	"github.com/m3rciful/expensebot/internal/conversation"
	"github.com/m3rciful/expensebot/internal/menu"

	tele "gopkg.in/telebot.v4"
)

func (a *App) onCommand(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return a.dispatch(c, conversation.Command(name))
	}
}

func (a *App) onCallback(c tele.Context) error {
	return a.dispatch(c, conversation.Callback(callbacks.Key(c)))
}

// onText feeds free text to the machine. Unregistered slash commands become
// command events so they never count as an amount or id.
func (a *App) onText(c tele.Context) error {
	text := c.Text()
	if word, ok := commandWord(text); ok {
		return a.dispatch(c, conversation.Command(word))
	}
	return a.dispatch(c, conversation.Text(text))
}

// onLimited tells a rate-limited user their update was skipped. Button
// presses get a callback answer, everything else a short message.
func onLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: menu.TextSlowDown})
	}
	return tghelpers.SendText(c, menu.TextSlowDown)
}

func commandWord(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	word, _, _ := strings.Cut(text[1:], " ")
	word, _, _ = strings.Cut(word, "@")
	return word, word != ""
}

func (a *App) dispatch(c tele.Context, ev conversation.Event) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	reply, err := a.machine.Handle(tghelpers.BuildContext(c), user.ID, ev)
	if err != nil {
		return err
	}
	return render(c, reply)
}

// render delivers reply messages in order. Edits target the message whose
// button was pressed; menu messages carry the option keyboard.
func render(c tele.Context, reply conversation.Reply) error {
	for _, msg := range reply.Messages {
		var markup *tele.ReplyMarkup
		if msg.Menu {
			markup = menu.Keyboard()
		}
		var err error
		if msg.Edit {
			err = tghelpers.EditOrSendText(c, msg.Text, markup)
		} else {
			err = tghelpers.SendText(c, msg.Text, markup)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
