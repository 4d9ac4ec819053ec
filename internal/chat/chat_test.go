package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageEqual(t *testing.T) {
	kb := Keyboard{Row(Button{"A", "a"}, Button{"B", "b"})}
	m := Message{Text: "hi", Keyboard: kb}

	assert.True(t, m.Equal(Message{Text: "hi", Keyboard: Keyboard{Row(Button{"A", "a"}, Button{"B", "b"})}}))
	assert.False(t, m.Equal(Text("hi")))
	assert.False(t, m.Equal(Message{Text: "hi", Keyboard: Keyboard{Row(Button{"A", "x"}, Button{"B", "b"})}}))
	assert.False(t, m.Equal(Message{Text: "hi", Keyboard: kb, ParseMode: ParseMarkdown}))
	assert.True(t, Text("x").Equal(Text("x")))
}
