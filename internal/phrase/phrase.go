// Package phrase produces the filler text shown in speed-test slots: a
// short French phrase from a language model when one answers in time,
// otherwise a random first name.
package phrase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/shirooni/typebot/internal/llm"
	"github.com/shirooni/typebot/internal/metrics"
	"github.com/shirooni/typebot/internal/prompt"
)

// MaxLen caps a generated phrase, in runes.
const MaxLen = 100

// Purpose labels phrase requests in the event log.
const Purpose = "phrase"

// Prompts are the instructions sent to the model; one is picked at random
// per request.
var Prompts = []string{
	"Générer une citation aléatoire",
	"Donner un proverbe au hasard",
	"Écrire un mot ou groupe de mots",
	"Donner une expression courte",
	"Générer une phrase simple",
}

const systemPrompt = `Tu fournis des textes courts en français pour un exercice de dactylographie.
Réponds uniquement avec le texte demandé, sans guillemets ni commentaire, en moins de 100 caractères.`

var schema = &llm.Schema{
	Name:        "filler-phrase",
	Description: "Un texte court en français à recopier",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"phrase": map[string]any{
				"type":        "string",
				"description": "le texte, sans guillemets",
				"minLength":   1,
			},
		},
		"required":             []any{"phrase"},
		"additionalProperties": false,
	},
}

// ErrEmpty is returned when the model answer is empty after cleanup.
var ErrEmpty = errors.New("empty phrase")

// Generator asks a model for one phrase at a time.
type Generator struct {
	provider llm.Provider
	pick     func(n int) int
}

// NewGenerator returns a Generator over p. pick chooses the prompt index
// and is usually (*prompt.Generator).IntN.
func NewGenerator(p llm.Provider, pick func(n int) int) *Generator {
	return &Generator{provider: p, pick: pick}
}

// Phrase returns one cleaned phrase.
func (g *Generator) Phrase(ctx context.Context) (string, error) {
	instruction := Prompts[g.pick(len(Prompts))]
	req := llm.UserPrompt(systemPrompt, instruction)
	req.Schema = schema
	req.MaxTokens = 120
	req.Temperature = 0.9

	resp, err := g.provider.Generate(llm.WithPurpose(ctx, Purpose), req)
	if err != nil {
		return "", fmt.Errorf("generate phrase: %w", err)
	}

	var out struct {
		Phrase string `json:"phrase"`
	}
	if err := sonic.Unmarshal(resp.Content, &out); err != nil {
		return "", fmt.Errorf("decode phrase: %w", err)
	}

	text := Clean(out.Phrase)
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}

var (
	quotes   = strings.NewReplacer(`"`, "", "“", "", "”", "", "«", "", "»", "")
	ellipsis = regexp.MustCompile(`\.{2,}|…`)
	spaces   = regexp.MustCompile(`\s+`)
)

// Clean strips quotes and ellipses, collapses whitespace and truncates to
// MaxLen runes.
func Clean(s string) string {
	s = quotes.Replace(s)
	s = ellipsis.ReplaceAllString(s, "")
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))
	if r := []rune(s); len(r) > MaxLen {
		s = strings.TrimSpace(string(r[:MaxLen]))
	}
	return s
}

// Source is anything that can produce a phrase.
type Source interface {
	Phrase(ctx context.Context) (string, error)
}

// Filler resolves placeholder slots. With probability Probability it asks
// Source for a phrase, bounded by Timeout; otherwise, or on any failure,
// it returns a random name.
type Filler struct {
	Source      Source
	Random      *prompt.Generator
	Probability float64
	Timeout     time.Duration
}

// Fill returns the text for a slot and its element type.
func (f *Filler) Fill(ctx context.Context) (string, prompt.Type) {
	if f.Source != nil && f.Random.Chance(f.Probability) {
		if f.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, f.Timeout)
			defer cancel()
		}
		text, err := f.Source.Phrase(ctx)
		if err == nil {
			metrics.PhraseSource.WithLabelValues("llm").Inc()
			return text, prompt.TypePhrase
		}
		log.Debug().Err(err).Msg("phrase generation failed, using a name")
		metrics.PhraseSource.WithLabelValues("fallback").Inc()
	} else {
		metrics.PhraseSource.WithLabelValues("name").Inc()
	}
	return f.Random.Name(), prompt.TypeName
}
