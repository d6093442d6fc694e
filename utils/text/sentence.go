package text

import (
	"strings"
	"unicode"
)

// IsSentenceComplete reports whether the buffered text ends a sentence: after
// trimming surrounding whitespace it must end in '.', '!' or '?', optionally
// followed by a single closing quotation mark.
//
// Pure function; callers layer their own minimum-length heuristics on top.
func IsSentenceComplete(buffer string) bool {
	trimmed := strings.TrimSpace(buffer)
	if trimmed == "" {
		return false
	}
	runes := []rune(trimmed)
	last := runes[len(runes)-1]
	if isClosingQuote(last) {
		if len(runes) == 1 {
			return false
		}
		last = runes[len(runes)-2]
	}
	return last == '.' || last == '!' || last == '?'
}

func isClosingQuote(r rune) bool {
	switch r {
	case '"', '\'', '”', '’':
		return true
	}
	return false
}

// NormalizeForMarker prepares text for control-marker detection: uppercased
// with all whitespace removed, so a marker streamed as separate tokens still
// matches.
func NormalizeForMarker(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
