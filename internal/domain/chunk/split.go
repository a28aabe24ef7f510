package chunk

import "strings"

// DefaultWords is the default chunk size in words.
const DefaultWords = 1000

// Split breaks text into consecutive groups of at most words whitespace-delimited words.
// Boundaries are positional; the last group may be shorter. Words inside a group are
// joined by a single space. Blank text yields no chunks.
func Split(text string, words int) []string {
	if words <= 0 {
		words = DefaultWords
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}

	out := make([]string, 0, (len(fields)+words-1)/words)
	for start := 0; start < len(fields); start += words {
		end := min(start+words, len(fields))
		out = append(out, strings.Join(fields[start:end], " "))
	}
	return out
}
