// Package menu renders the option menu and the expense texts shown to users.
package menu

import (
	"math"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/expensebot/core/telegram/keyboard"
	"github.com/m3rciful/expensebot/internal/expenses"
)

// Callback tags carried by the menu buttons.
const (
	TagAdd      = "add"
	TagRemove   = "remove"
	TagList     = "list"
	TagSumMonth = "sum_month"
)

// Option is one selectable menu entry.
type Option struct {
	Label string
	Tag   string
}

var options = []Option{
	{Label: "Add expense", Tag: TagAdd},
	{Label: "Remove expense", Tag: TagRemove},
	{Label: "List expenses", Tag: TagList},
	{Label: "Sum month", Tag: TagSumMonth},
}

// Options returns the menu entries in display order.
func Options() []Option {
	return append([]Option(nil), options...)
}

// Tags returns the callback tags of all menu entries.
func Tags() []string {
	tags := make([]string, len(options))
	for i, o := range options {
		tags[i] = o.Tag
	}
	return tags
}

// Keyboard builds the inline keyboard with one option per row.
func Keyboard() *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, len(options))
	for i, o := range options {
		btns[i] = keyboard.InlineBtn{Text: o.Label, Unique: o.Tag}
	}
	return keyboard.InlineButtons(btns)
}

// Reply texts.
const (
	TextChoose        = "Please choose an option:"
	TextAmountPrompt  = "✏️ Enter expense as a number like:\t50"
	TextFormatError   = "❌ Format error.\nUse: 50"
	TextIDPrompt      = "✏️ Enter the ID of the expense you want to remove:"
	TextNotFound      = "❌ Expense not found. Make sure the ID is correct."
	TextInvalidID     = "❌ Enter a valid number (the ID of the expense)."
	TextNoExpenses    = "No expenses yet."
	TextListing       = "📝 Listing your expenses..."
	TextCalculating   = "🧮 Calculating your month expenses..."
	TextUnknownOption = "Unknown option selected."
	TextCancelled     = "Operation cancelled."
	TextSlowDown      = "⏳ Too many messages, please slow down and try again."

	listHeader = "📝 Your expenses:\n"
	currency   = "€"
)

// FormatAmount renders a with the shortest exact decimal form, keeping a
// trailing ".0" for whole numbers: 50 -> "50.0", -10.5 -> "-10.5".
// Magnitudes of 1e16 and above or below 1e-4 use exponent form: "1e+16".
func FormatAmount(a float64) string {
	if math.IsInf(a, 0) || math.IsNaN(a) {
		return strconv.FormatFloat(a, 'f', -1, 64)
	}
	if abs := math.Abs(a); abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(a, 'e', -1, 64)
	}
	s := strconv.FormatFloat(a, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// FormatList renders one line per expense, or the empty notice.
func FormatList(list []expenses.Expense) string {
	if len(list) == 0 {
		return TextNoExpenses
	}
	var b strings.Builder
	b.WriteString(listHeader)
	for i, e := range list {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(FormatLine(e))
	}
	return b.String()
}

// FormatLine renders "<id> - €<amount> (<date>)".
func FormatLine(e expenses.Expense) string {
	return strconv.FormatInt(e.ID, 10) + " - " + currency + FormatAmount(e.Amount) + " (" + e.Date.String() + ")"
}

// FormatAdded confirms a created expense.
func FormatAdded(amount float64) string {
	return "✅ Added expense:\n" + currency + FormatAmount(amount)
}

// FormatDeleted confirms a removed expense.
func FormatDeleted(e expenses.Expense) string {
	return "✅ Deleted expense ID " + strconv.FormatInt(e.ID, 10) + " (" + currency + FormatAmount(e.Amount) + ")"
}

// FormatTotal renders the month total line.
func FormatTotal(total float64) string {
	return "💰 This month total: " + currency + FormatAmount(total)
}
