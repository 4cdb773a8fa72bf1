package feed

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	titleMaxWords = 8
	titleMaxRunes = 80
)

// Words with optional trailing digits; hashtags and mentions are dropped first.
var (
	titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)
	tagRE       = regexp.MustCompile(`[#@][\p{L}\p{N}_]+`)
)

// Title derives a short title-cased headline from the first line of body.
// It returns fallback when body has no usable words.
func Title(body, fallback string) string {
	line := strings.TrimSpace(body)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = tagRE.ReplaceAllString(line, " ")

	toks := titleWordRE.FindAllString(strings.ToLower(line), titleMaxWords)
	if len(toks) == 0 {
		return fallback
	}

	// Casers keep state; build one per call.
	caser := cases.Title(language.English)
	for i, w := range toks {
		toks[i] = caser.String(w)
	}
	out := strings.Join(toks, " ")
	if utf8.RuneCountInString(out) > titleMaxRunes {
		out = string([]rune(out)[:titleMaxRunes])
	}
	return out
}
