// Package scoring computes typing speed, accuracy and rank labels.
package scoring

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// ReactionAllowance is the time granted to read a prompt before typing.
	ReactionAllowance = 220 * time.Millisecond

	// KeystrokeAllowance is the time granted to press send.
	KeystrokeAllowance = 150 * time.Millisecond

	// Allowance is subtracted from the raw response time to get net typing time.
	Allowance = ReactionAllowance + KeystrokeAllowance
)

// WPM returns words per minute for the submitted text typed in elapsedSeconds
// of net time. A word is five characters. Non-positive durations yield 0.
func WPM(submitted string, elapsedSeconds float64) int {
	if elapsedSeconds <= 0 {
		return 0
	}
	words := float64(utf8.RuneCountInString(submitted)) / 5
	return int(math.Round(words / elapsedSeconds * 60))
}

// Accuracy scores submitted against reference on a 0-100 scale.
//
// Both strings are lowercased, stripped of diacritics and reduced to Latin
// letters, digits and kana/CJK characters, then compared word by word. Each
// word pair earns one point per matching position, minus the difference in
// length, and is worth the length of the longer word.
func Accuracy(reference, submitted string) int {
	if reference == "" || submitted == "" {
		return 0
	}

	ref := normalizeWords(reference)
	got := normalizeWords(submitted)

	var score, total int
	for i := range max(len(ref), len(got)) {
		r := wordAt(ref, i)
		g := wordAt(got, i)

		total += max(len(r), len(g))

		matched := 0
		for j := range min(len(r), len(g)) {
			if r[j] == g[j] {
				matched++
			}
		}
		matched -= abs(len(r) - len(g))
		if matched > 0 {
			score += matched
		}
	}

	if total == 0 {
		return 0
	}
	acc := int(math.Round(100 * float64(score) / float64(total)))
	return min(100, max(0, acc))
}

func wordAt(words [][]rune, i int) []rune {
	if i < len(words) {
		return words[i]
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// normalizeWords splits s on whitespace and keeps only the retained
// characters of each word. Words left empty are dropped.
func normalizeWords(s string) [][]rune {
	s = stripAccents(strings.ToLower(s))

	var out [][]rune
	for _, field := range strings.Fields(s) {
		var w []rune
		for _, r := range field {
			if retained(r) {
				w = append(w, r)
			}
		}
		if len(w) > 0 {
			out = append(out, w)
		}
	}
	return out
}

// Only the Combining Diacritical Marks block is removed so kana voicing
// marks survive the round trip through NFD.
var diacritic = runes.Predicate(func(r rune) bool {
	return r >= 0x0300 && r <= 0x036f
})

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(diacritic), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func retained(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r >= 0x3040 && r <= 0x309f: // Hiragana
		return true
	case r >= 0x30a0 && r <= 0x30ff: // Katakana
		return true
	case r >= 0x4e00 && r <= 0x9faf: // CJK
		return true
	}
	return false
}
