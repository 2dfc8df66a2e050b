package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command describes a slash command exposed by the bot.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Hidden commands work but are not published in the command menu.
	Hidden  bool
	Aliases []string
}
