// Package textnorm turns raw text into normalized token sequences for the
// lexical and vector scorers. The normalization pipeline is order-sensitive:
// markup tags, bracketed and parenthesized spans, and URLs are stripped
// before punctuation and digits, so that e.g. a URL inside parentheses is
// removed with the parentheses rather than leaking its host as tokens.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	tagRE     = regexp.MustCompile(`<[^>]*>`)
	bracketRE = regexp.MustCompile(`\[.*?\]`)
	parenRE   = regexp.MustCompile(`\(.*?\)`)
	urlRE     = regexp.MustCompile(`\b(?:http|ftp)s?://\S+`)
	nonWordRE = regexp.MustCompile(`\W`)
	digitRE   = regexp.MustCompile(`\d+`)
)

// Tokenize cleans text and splits it into lowercase tokens. It is a pure
// function of its input; empty or all-punctuation input yields nil.
func Tokenize(text string) []string {
	return strings.Fields(Normalize(text))
}

// Normalize applies the cleaning pipeline without splitting: strip
// markup-tag spans, bracketed spans, parenthesized spans and URLs, replace
// non-word characters with spaces, drop digit runs, and lowercase. The
// result is stable under re-application.
func Normalize(text string) string {
	text = tagRE.ReplaceAllString(text, "")
	text = bracketRE.ReplaceAllString(text, "")
	text = parenRE.ReplaceAllString(text, "")
	text = urlRE.ReplaceAllString(text, "")
	text = nonWordRE.ReplaceAllString(text, " ")
	text = digitRE.ReplaceAllString(text, "")
	return strings.ToLower(text)
}
