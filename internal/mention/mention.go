// Package mention implements @name autocompletion for the comment composer.
// Mentions are plain text; nothing links them to a user record.
package mention

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Match is an @word being typed immediately before the caret.
type Match struct {
	Query string // text after '@', may be empty
	Start int    // byte offset of '@'
	End   int    // byte offset of the caret
}

// Detect looks for a trailing "@word" ending at caret (a byte offset into text).
func Detect(text string, caret int) (Match, bool) {
	if caret < 0 || caret > len(text) {
		return Match{}, false
	}
	before := text[:caret]
	at := strings.LastIndexByte(before, '@')
	if at < 0 {
		return Match{}, false
	}
	query := before[at+1:]
	for _, r := range query {
		if !isWordRune(r) {
			return Match{}, false
		}
	}
	// "@" must start a word, so e-mail addresses don't trigger it.
	if at > 0 {
		prev, _ := utf8.DecodeLastRuneInString(before[:at])
		if !unicode.IsSpace(prev) && !unicode.IsPunct(prev) {
			return Match{}, false
		}
	}
	return Match{Query: query, Start: at, End: caret}, true
}

// Suggest returns candidates whose name, or any word of it, starts with query.
// Matching ignores case and punctuation such as the dot in "Dr.".
func Suggest(query string, candidates []string) []string {
	q := strings.ToLower(query)
	out := []string{}
	for _, name := range candidates {
		if q == "" || matches(strings.ToLower(name), q) {
			out = append(out, name)
		}
	}
	return out
}

// Insert replaces the match with "@name " and returns the new text and caret.
func Insert(text string, m Match, name string) (string, int) {
	replacement := "@" + name + " "
	out := text[:m.Start] + replacement + text[m.End:]
	return out, m.Start + len(replacement)
}

func matches(name, q string) bool {
	if strings.HasPrefix(name, q) {
		return true
	}
	for _, word := range strings.FieldsFunc(name, func(r rune) bool { return !isWordRune(r) }) {
		if strings.HasPrefix(word, q) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
