package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTail(t *testing.T) {
	assert.Equal(t, "c\nd", Tail("a\nb\nc\nd", 2))
	assert.Equal(t, "a", Tail("a", 3))
	assert.Equal(t, "", Tail("a\nb", 0))
}

func TestRenderFrameKeepsLastLines(t *testing.T) {
	content := strings.Repeat("old\n", 50) + "newest"
	frame := RenderFrame("H", content, "F", 60, 10)
	assert.Contains(t, frame, "newest")
	assert.Equal(t, 10, strings.Count(frame, "\n")+1)
}

func TestIsTooSmall(t *testing.T) {
	assert.True(t, IsTooSmall(MinWidth-1, MinHeight))
	assert.False(t, IsTooSmall(MinWidth, MinHeight))
}

func TestRenderHeaderShowsPlayer(t *testing.T) {
	out := RenderHeader("Rin", 60)
	assert.Contains(t, out, "Shiro Oni")
	assert.Contains(t, out, "Rin")
}
