// Package prompt builds the elements a user is asked to retype.
package prompt

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Type tags what kind of text an element holds.
type Type string

const (
	TypeWord     Type = "word"
	TypeSentence Type = "sentence"
	TypeName     Type = "name"
	TypePhrase   Type = "phrase"
)

// Resolution says when an element's text becomes known.
type Resolution int

const (
	// Fixed elements carry their text from the moment the test is built.
	Fixed Resolution = iota

	// OnReveal elements are placeholders whose text is chosen when the
	// prompt is shown.
	OnReveal
)

// Element is a single prompt slot.
type Element struct {
	Text       string
	Words      []string
	Type       Type
	Difficulty int
	Resolve    Resolution
}

// Word returns a fixed single-word element.
func Word(w string) Element {
	return Element{
		Text:       w,
		Words:      []string{w},
		Type:       TypeWord,
		Difficulty: Difficulty(w),
	}
}

// Sentence returns a fixed sentence element with its constituent words.
func Sentence(s string) Element {
	return Element{
		Text:       s,
		Words:      SplitWords(s),
		Type:       TypeSentence,
		Difficulty: Difficulty(s),
	}
}

// Placeholder returns a slot resolved when revealed.
func Placeholder() Element {
	return Element{Type: TypeName, Resolve: OnReveal}
}

// Resolved returns a copy of e carrying text with the given type. The
// resolution is kept, so an OnReveal slot is drawn again each time it is
// shown.
func (e Element) Resolved(text string, typ Type) Element {
	e.Text = text
	e.Words = SplitWords(text)
	e.Type = typ
	e.Difficulty = Difficulty(text)
	return e
}

// Pending reports whether the element still waits for its text.
func (e Element) Pending() bool {
	return e.Resolve == OnReveal && e.Text == ""
}

// Difficulty grades text from 1 to 5 by its length.
func Difficulty(text string) int {
	n := utf8.RuneCountInString(text)
	switch {
	case n <= 4:
		return 1
	case n <= 7:
		return 2
	case n <= 12:
		return 3
	case n <= 40:
		return 4
	}
	return 5
}

// SplitWords returns the words of s with surrounding punctuation trimmed.
func SplitWords(s string) []string {
	var out []string
	for _, f := range strings.Fields(s) {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
