package prompt

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Generator draws prompt elements from word and name pools. It is safe
// for concurrent use.
type Generator struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	words []string
	names []string
}

// NewGenerator returns a Generator over the built-in pools seeded with the
// current time.
func NewGenerator() *Generator {
	seed := uint64(time.Now().UnixNano())
	return NewGeneratorWith(rand.New(rand.NewPCG(seed, seed>>1)), DefaultWords, DefaultNames)
}

// NewGeneratorWith returns a Generator over explicit pools and source.
func NewGeneratorWith(rnd *rand.Rand, words, names []string) *Generator {
	return &Generator{rnd: rnd, words: words, names: names}
}

// Words returns n distinct words as fixed elements. Fewer are returned
// when the pool is smaller than n.
func (g *Generator) Words(n int) []Element {
	g.mu.Lock()
	defer g.mu.Unlock()

	perm := g.rnd.Perm(len(g.words))
	n = min(n, len(perm))
	out := make([]Element, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, Word(g.words[idx]))
	}
	return out
}

// Placeholders returns n slots resolved on reveal.
func (g *Generator) Placeholders(n int) []Element {
	out := make([]Element, n)
	for i := range out {
		out[i] = Placeholder()
	}
	return out
}

// Name returns a random name from the pool.
func (g *Generator) Name() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.names) == 0 {
		return ""
	}
	return g.names[g.rnd.IntN(len(g.names))]
}

// IntN returns a value in [0, n). n must be positive.
func (g *Generator) IntN(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.IntN(n)
}

// Chance reports true with probability p.
func (g *Generator) Chance(p float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64() < p
}

// Shuffle shuffles elems in place.
func (g *Generator) Shuffle(elems []Element) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rnd.Shuffle(len(elems), func(i, j int) {
		elems[i], elems[j] = elems[j], elems[i]
	})
}

// Pick returns up to n elements drawn without replacement from elems.
func (g *Generator) Pick(elems []Element, n int) []Element {
	out := make([]Element, len(elems))
	copy(out, elems)
	g.Shuffle(out)
	return out[:min(n, len(out))]
}

// MinSentenceWords is the word count below which a sentence of custom text
// is discarded.
const MinSentenceWords = 3

var sentenceEnd = regexp.MustCompile(`[.!?…;\n]+`)

// Decompose splits raw text into sentence elements of at least
// MinSentenceWords words, adds each sentence's words as standalone
// elements, and shuffles the result.
func (g *Generator) Decompose(raw string) []Element {
	var out []Element
	for _, part := range sentenceEnd.Split(raw, -1) {
		sentence := strings.Join(strings.Fields(part), " ")
		words := SplitWords(sentence)
		if len(words) < MinSentenceWords {
			continue
		}
		out = append(out, Sentence(sentence))
		for _, w := range words {
			out = append(out, Word(w))
		}
	}
	g.Shuffle(out)
	return out
}
