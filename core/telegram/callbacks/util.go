package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseData splits telebot's "\f<unique>|<payload>" callback encoding.
// Data without the leading form feed is treated as a bare key.
func ParseData(data string) (string, string) {
	raw := strings.TrimPrefix(data, "\f")
	key, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(key), payload
}

// Parse returns the key and payload of cb. The unique field wins when telebot
// already resolved it.
func Parse(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	return ParseData(cb.Data)
}

// Key returns the callback key of the current update.
func Key(c tele.Context) string {
	key, _ := Parse(c.Callback())
	return key
}
