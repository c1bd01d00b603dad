package pdf

import (
	"strings"
	"unicode/utf8"
)

// Measurer reports the rendered width of text in a style, in page units.
// Implementations must be monotonic: a prefix is never wider than the text
// it was taken from.
type Measurer interface {
	Width(text string, st Style) float64
}

// Ellipsis marks text shortened to fit its cell.
const Ellipsis = "..."

// TruncateToWidth returns text unchanged when it fits in width. Otherwise it
// returns the longest prefix that still fits with Ellipsis appended. The
// result is never longer than text, so text of three runes or fewer that
// does not fit is cut to the widest plain prefix instead.
func TruncateToWidth(m Measurer, text string, st Style, width float64) string {
	if m.Width(text, st) <= width {
		return text
	}
	runes := []rune(text)
	maxPrefix := len(runes) - utf8.RuneCountInString(Ellipsis)
	if maxPrefix < 0 || m.Width(Ellipsis, st) > width {
		return widestPrefix(m, runes, st, width)
	}
	lo, hi := 0, maxPrefix
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if m.Width(string(runes[:mid])+Ellipsis, st) <= width {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return strings.TrimRight(string(runes[:lo]), " \t") + Ellipsis
}

// widestPrefix returns the longest strict prefix of runes that fits width.
func widestPrefix(m Measurer, runes []rune, st Style, width float64) string {
	lo, hi := 0, len(runes)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if m.Width(string(runes[:mid]), st) <= width {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	if hi < 0 {
		return ""
	}
	return string(runes[:lo])
}

// WrapLines breaks text into lines no wider than width, splitting on spaces
// and, for words wider than a whole line, between runes. It is used to
// estimate how tall a wrapped block will be before it is drawn.
func WrapLines(m Measurer, text string, st Style, width float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := ""
	for _, word := range words {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if m.Width(candidate, st) <= width {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
			line = ""
		}
		for m.Width(word, st) > width {
			head := widestPrefix(m, []rune(word), st, width)
			if head == "" {
				_, size := utf8.DecodeRuneInString(word)
				head = word[:size]
			}
			lines = append(lines, head)
			word = word[len(head):]
			if word == "" {
				break
			}
		}
		line = word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
