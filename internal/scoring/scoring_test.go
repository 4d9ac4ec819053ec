package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWPM(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		seconds float64
		want    int
	}{
		{"ten chars in two seconds", "abcdefghij", 2, 60},
		{"rounds to nearest", "abcdefg", 1.3, 65},
		{"zero elapsed", "abc", 0, 0},
		{"negative elapsed", "abc", -0.2, 0},
		{"empty text", "", 3, 0},
		{"counts runes not bytes", "éééééééééé", 2, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WPM(tt.text, tt.seconds))
		})
	}
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		submitted string
		want      int
	}{
		{"identical", "bonjour", "bonjour", 100},
		{"accents optional", "café", "cafe", 100},
		{"case insensitive", "Paris", "pARIS", 100},
		{"punctuation ignored", "l'homme, libre!", "lhomme libre", 100},
		{"missing letter", "bonjour", "bonjur", 43},
		{"second word wrong", "le chat", "le chien", 43},
		{"missing word", "un deux", "un", 33},
		{"extra word", "un", "un deux", 33},
		{"kana kept", "ありがとう", "ありがとう", 100},
		{"completely different", "abc", "xyz", 0},
		{"empty reference", "", "abc", 0},
		{"empty submission", "abc", "", 0},
		{"nothing retained", "!!!", "???", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Accuracy(tt.reference, tt.submitted))
		})
	}
}

func TestAccuracy_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"a", "aaaaaaaaaaaaaaaaaaaaaa"},
		{"un petit chat", "z"},
		{"été", "ete ete ete"},
		{"漢字 かな", "漢字"},
	}
	for _, p := range pairs {
		got := Accuracy(p[0], p[1])
		assert.GreaterOrEqual(t, got, 0, "%q vs %q", p[0], p[1])
		assert.LessOrEqual(t, got, 100, "%q vs %q", p[0], p[1])
	}
}

func TestClassify_Speed(t *testing.T) {
	tests := []struct {
		wpm  float64
		want Rank
	}{
		{0, RankD},
		{19, RankD},
		{20, RankD},
		{21, RankC},
		{30, RankC},
		{35, RankCPlus},
		{40, RankBMinus},
		{45, RankB},
		{50, RankBPlus},
		{55, RankAMinus},
		{60, RankA},
		{65, RankAPlus},
		{70, RankS},
		{75, RankSPlus},
		{75.4, RankSR},
		{76, RankSR},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.wpm, 0, ModeSpeed), "wpm=%v", tt.wpm)
	}
}

func TestClassify_Precision(t *testing.T) {
	tests := []struct {
		wpm, accuracy float64
		want          Rank
	}{
		{100, 49, RankD},
		{100, 50, RankC},
		{19, 100, RankC},
		{20, 70, RankB},
		{29, 100, RankB},
		{30, 80, RankA},
		{39, 100, RankA},
		{40, 90, RankS},
		{60, 92, RankS},
		{49, 100, RankS},
		{50, 95, RankSR},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.wpm, tt.accuracy, ModePrecision), "wpm=%v acc=%v", tt.wpm, tt.accuracy)
	}
}

func TestTimeAllowed(t *testing.T) {
	assert.Equal(t, 6*time.Second+Allowance, TimeAllowed(RankD, 10))
	assert.Equal(t, 6*time.Second+Allowance, TimeAllowed(RankB, 25))
	assert.Equal(t, TimeAllowed(RankD, 10), TimeAllowed(Rank("Z"), 10))
	assert.Equal(t, Allowance, TimeAllowed(RankSR, 0))
}

func TestParseTrainingRank(t *testing.T) {
	r, ok := ParseTrainingRank("sr")
	assert.True(t, ok)
	assert.Equal(t, RankSR, r)

	_, ok = ParseTrainingRank("B+")
	assert.False(t, ok)
}

func TestShiroOni(t *testing.T) {
	assert.False(t, ShiroOni(75))
	assert.True(t, ShiroOni(76))
}

func TestDescribe_CoversLadder(t *testing.T) {
	for _, step := range speedLadder {
		assert.NotEmpty(t, Describe(step.rank), "rank %s", step.rank)
	}
	assert.NotEmpty(t, Describe(RankSR))
}
