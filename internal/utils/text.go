package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// NormalizeText case-folds s and collapses it to lowercase words separated by
// single spaces. Punctuation is dropped, apostrophes are kept inside words.
func NormalizeText(s string) string {
	folded := cases.Fold().String(s)
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	for i, w := range words {
		words[i] = strings.Trim(w, "'")
	}

	return strings.Join(compact(words), " ")
}

// ContainsPhrase reports whether the normalized phrase occurs in the normalized
// text on word boundaries.
func ContainsPhrase(text, phrase string) bool {
	t := NormalizeText(text)
	p := NormalizeText(phrase)
	if t == "" || p == "" {
		return false
	}

	return strings.Contains(" "+t+" ", " "+p+" ")
}

func compact(words []string) []string {
	out := words[:0]
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
