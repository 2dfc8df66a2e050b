package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsOnePerRow(t *testing.T) {
	m := InlineButtons([]InlineBtn{{Text: "A", Unique: "a"}, {Text: "B", Unique: "b", Data: "1"}})
	require.Len(t, m.InlineKeyboard, 2)
	assert.Len(t, m.InlineKeyboard[0], 1)
	assert.Equal(t, "A", m.InlineKeyboard[0][0].Text)
	assert.Equal(t, "a", m.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "1", m.InlineKeyboard[1][0].Data)
}

func TestInlineButtonsRows(t *testing.T) {
	m := InlineButtonsRows(
		[]InlineBtn{{Text: "A", Unique: "a"}, {Text: "B", Unique: "b"}},
		[]InlineBtn{{Text: "C", Unique: "c"}},
	)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Len(t, m.InlineKeyboard[0], 2)
	assert.Len(t, m.InlineKeyboard[1], 1)
}
