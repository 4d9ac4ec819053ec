package phrase

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shirooni/typebot/internal/llm"
	"github.com/shirooni/typebot/internal/prompt"
)

func testRandom() *prompt.Generator {
	return prompt.NewGeneratorWith(rand.New(rand.NewPCG(1, 2)), []string{"chat"}, []string{"Camille"})
}

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"Qui vivra verra"`, "Qui vivra verra"},
		{"“Petit à petit”...", "Petit à petit"},
		{"« L'union fait la force »", "L'union fait la force"},
		{"Attendre… encore..  un peu", "Attendre encore un peu"},
		{"  espaces \n multiples  ", "espaces multiples"},
		{"Fin.", "Fin."},
		{`""`, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clean(tt.in), "Clean(%q)", tt.in)
	}

	long := Clean(strings.Repeat("é", 150))
	assert.Equal(t, MaxLen, len([]rune(long)))
}

func TestGenerator_Phrase(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockPhrase(`"Le soleil brille..."`))
	g := NewGenerator(mock, func(int) int { return 1 })

	text, err := g.Phrase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Le soleil brille", text)

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, "Donner un proverbe au hasard", req.Messages[0].Content)
	require.NotNil(t, req.Schema)
	assert.Equal(t, "filler-phrase", req.Schema.Name)
}

func TestGenerator_Errors(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockPhrase(`""`),
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{}},
	)
	g := NewGenerator(mock, func(int) int { return 0 })

	_, err := g.Phrase(context.Background())
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = g.Phrase(context.Background())
	var unavail *llm.ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)
}

type stubSource struct {
	text  string
	err   error
	calls int
	block bool
}

func (s *stubSource) Phrase(ctx context.Context) (string, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.text, s.err
}

func TestFiller(t *testing.T) {
	t.Run("model answer", func(t *testing.T) {
		src := &stubSource{text: "Il fait beau"}
		f := &Filler{Source: src, Random: testRandom(), Probability: 1}

		text, typ := f.Fill(context.Background())
		assert.Equal(t, "Il fait beau", text)
		assert.Equal(t, prompt.TypePhrase, typ)
	})

	t.Run("not attempted", func(t *testing.T) {
		src := &stubSource{text: "Il fait beau"}
		f := &Filler{Source: src, Random: testRandom(), Probability: 0}

		text, typ := f.Fill(context.Background())
		assert.Equal(t, "Camille", text)
		assert.Equal(t, prompt.TypeName, typ)
		assert.Zero(t, src.calls)
	})

	t.Run("failure falls back", func(t *testing.T) {
		f := &Filler{Source: &stubSource{err: errors.New("quota")}, Random: testRandom(), Probability: 1}

		text, typ := f.Fill(context.Background())
		assert.Equal(t, "Camille", text)
		assert.Equal(t, prompt.TypeName, typ)
	})

	t.Run("timeout falls back", func(t *testing.T) {
		f := &Filler{Source: &stubSource{block: true}, Random: testRandom(), Probability: 1, Timeout: 10 * time.Millisecond}

		start := time.Now()
		text, _ := f.Fill(context.Background())
		assert.Equal(t, "Camille", text)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("no source", func(t *testing.T) {
		f := &Filler{Random: testRandom(), Probability: 1}
		text, typ := f.Fill(context.Background())
		assert.Equal(t, "Camille", text)
		assert.Equal(t, prompt.TypeName, typ)
	})
}
