package prompt

import (
	"bufio"
	_ "embed"
	"strings"
)

//go:embed words.txt
var wordsFile string

//go:embed names.txt
var namesFile string

// DefaultWords is the built-in pool for precision drills.
var DefaultWords = parseLines(wordsFile)

// DefaultNames is the built-in pool used to fill speed slots.
var DefaultNames = parseLines(namesFile)

// parseLines returns one entry per non-empty line.
func parseLines(data string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
