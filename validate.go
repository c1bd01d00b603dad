package clinpdf

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidUTF8 reports invalid UTF-8 input.
	ErrInvalidUTF8 = errors.New("invalid utf-8 input")
	// ErrBinaryInput reports input that appears to be binary.
	ErrBinaryInput = errors.New("binary input detected")
)

const (
	minBinarySample = 64
	maxControlPct   = 2
)

// ValidateInput rejects input that is not text: invalid UTF-8, any NUL byte,
// or, once the input is at least minBinarySample bytes long, a share of
// control bytes of maxControlPct percent or more.
func ValidateInput(src []byte) error {
	if !utf8.Valid(src) {
		return ErrInvalidUTF8
	}
	if bytes.IndexByte(src, 0) >= 0 {
		return ErrBinaryInput
	}
	if len(src) < minBinarySample {
		return nil
	}
	control := 0
	for _, b := range src {
		if isControlByte(b) {
			control++
		}
	}
	if control*100 >= len(src)*maxControlPct {
		return ErrBinaryInput
	}
	return nil
}

// isControlByte reports C0 controls and DEL other than tab and the line
// breaking controls \n \v \f \r.
func isControlByte(b byte) bool {
	switch {
	case b >= '\t' && b <= '\r':
		return false
	default:
		return b < 0x20 || b == 0x7F
	}
}

func isControlRune(r rune) bool {
	return r != '\t' && (r < 0x20 || r == 0x7F)
}

// sanitizeLine drops control runes and invalid UTF-8 sequences so the
// renderer only ever sees printable text. Tabs survive.
func sanitizeLine(line string) string {
	if utf8.ValidString(line) && strings.IndexFunc(line, isControlRune) < 0 {
		return line
	}
	var b strings.Builder
	b.Grow(len(line))
	for i, r := range line {
		if r == utf8.RuneError && !strings.HasPrefix(line[i:], "\uFFFD") {
			continue
		}
		if isControlRune(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
