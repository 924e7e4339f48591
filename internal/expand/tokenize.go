package expand

import "strings"

// Terminators are the punctuation marks split off a word before rule lookup.
const Terminators = ".,?!;"

// SplitTerminator separates one trailing terminator from word.
// Only a single mark is removed: "*X*?!" yields ("*X*?", "!").
func SplitTerminator(word string) (bare, terminator string) {
	if word == "" {
		return word, ""
	}
	last := word[len(word)-1:]
	if strings.Contains(Terminators, last) {
		return word[:len(word)-1], last
	}
	return word, ""
}
