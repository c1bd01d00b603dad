package clinpdf

import (
	"regexp"
	"strings"
)

var (
	codeSpanRe    = regexp.MustCompile("`+([^`]+?)`+")
	strongStarRe  = regexp.MustCompile(`\*\*(.+?)\*\*`)
	strongUnderRe = regexp.MustCompile(`__(.+?)__`)
	// Emphasis must sit on a word boundary so snake_case and 2*3*4 survive.
	emStarRe  = regexp.MustCompile(`(^|[^\w*])\*([^*\s](?:[^*]*[^*\s])?)\*($|[^\w*])`)
	emUnderRe = regexp.MustCompile(`(^|[^\w_])_([^_\s](?:[^_]*[^_\s])?)_($|[^\w_])`)
)

// StripInline removes inline markup delimiters (**bold**, __bold__, *em*,
// _em_ and `code`) while keeping the enclosed text, then collapses runs of
// whitespace into single spaces.
func StripInline(text string) string {
	if text == "" {
		return ""
	}
	if strings.ContainsAny(text, "*_`") {
		text = codeSpanRe.ReplaceAllString(text, "$1")
		text = strongStarRe.ReplaceAllString(text, "$1")
		text = strongUnderRe.ReplaceAllString(text, "$1")
		// Adjacent spans share a boundary rune, so a single pass can leave
		// every second one behind.
		for i := 0; i < 4; i++ {
			next := emStarRe.ReplaceAllString(text, "$1$2$3")
			next = emUnderRe.ReplaceAllString(next, "$1$2$3")
			if next == text {
				break
			}
			text = next
		}
	}
	return collapseSpaces(text)
}

func collapseSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
