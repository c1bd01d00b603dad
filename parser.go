package clinpdf

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxHeaderLevel     = 4
	minColonLabelRunes = 2
	maxColonLabelRunes = 30
)

// Parse turns markdown text into an ordered sequence of blocks. It never
// fails: every non-blank line resolves to some block, in the worst case a
// Paragraph holding the trimmed line.
func Parse(text string) []Block {
	lines := splitLines(text)
	blocks := make([]Block, 0, len(lines))
	for i := 0; i < len(lines); {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			i++
			continue
		}
		if level, number, content, ok := parseHeading(trimmed); ok {
			blocks = append(blocks, Section(level, number, content))
			i++
			continue
		}
		if isTableLine(trimmed) {
			end := i + 1
			for end < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[end]), "|") {
				end++
			}
			blocks = append(blocks, parseTable(lines[i:end])...)
			i = end
			continue
		}
		blocks = append(blocks, parseLine(line, trimmed))
		i++
	}
	return blocks
}

func parseLine(line, trimmed string) Block {
	if isDivider(trimmed) {
		return Rule()
	}
	if indent, text, ok := parseBullet(line); ok {
		return Bullet(indent, text)
	}
	if number, text, ok := parseNumbered(trimmed); ok {
		return Numbered(number, text)
	}
	if label, value, ok := parseBoldLabel(trimmed); ok {
		return Label(label, value)
	}
	if label, value, ok := parseColonLabel(trimmed); ok {
		return Label(label, value)
	}
	return Paragraph(StripInline(trimmed))
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = sanitizeLine(line)
	}
	return lines
}

func parseHeading(text string) (int, string, string, bool) {
	if !strings.HasPrefix(text, "#") {
		return 0, "", "", false
	}
	level := 0
	for level < len(text) && text[level] == '#' {
		level++
	}
	if level > maxHeaderLevel {
		return 0, "", "", false
	}
	if level >= len(text) || !isSpace(text[level]) {
		return 0, "", "", false
	}
	number, content := splitOrdinal(strings.TrimSpace(text[level+1:]))
	return level, number, StripInline(content), true
}

// splitOrdinal separates a leading "N. " section number from text.
func splitOrdinal(text string) (string, string) {
	i := 0
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(text) || text[i] != '.' || !isSpace(text[i+1]) {
		return "", text
	}
	return text[:i], strings.TrimSpace(text[i+1:])
}

// isDivider reports a line of three or more '-', '*' or '_' characters, all
// the same, optionally separated by spaces.
func isDivider(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	mark := trimmed[0]
	if mark != '-' && mark != '*' && mark != '_' {
		return false
	}
	count := 0
	for i := 0; i < len(trimmed); i++ {
		switch trimmed[i] {
		case mark:
			count++
		case ' ', '\t':
		default:
			return false
		}
	}
	return count >= 3
}

func parseBullet(line string) (int, string, bool) {
	indent, idx := leadingIndentCount(line)
	rest := line[idx:]
	if len(rest) < 2 {
		return 0, "", false
	}
	switch rest[0] {
	case '-', '*', '+':
	default:
		return 0, "", false
	}
	if !isSpace(rest[1]) {
		return 0, "", false
	}
	text := StripInline(strings.TrimSpace(rest[1:]))
	if text == "" {
		return 0, "", false
	}
	return indent, text, true
}

func parseNumbered(text string) (string, string, bool) {
	i := 0
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(text) {
		return "", "", false
	}
	if text[i] != '.' && text[i] != ')' {
		return "", "", false
	}
	if !isSpace(text[i+1]) {
		return "", "", false
	}
	body := StripInline(strings.TrimSpace(text[i+1:]))
	if body == "" {
		return "", "", false
	}
	return text[:i], body, true
}

func parseBoldLabel(text string) (string, string, bool) {
	if !strings.HasPrefix(text, "**") {
		return "", "", false
	}
	end := strings.Index(text[2:], "**")
	if end <= 0 {
		return "", "", false
	}
	label := strings.TrimSpace(text[2 : 2+end])
	label = strings.TrimSpace(strings.TrimSuffix(label, ":"))
	label = StripInline(label)
	if label == "" {
		return "", "", false
	}
	rest := strings.TrimSpace(text[2+end+2:])
	rest = strings.TrimPrefix(rest, ":")
	return label, StripInline(rest), true
}

func parseColonLabel(text string) (string, string, bool) {
	idx := strings.Index(text, ": ")
	if idx <= 0 {
		return "", "", false
	}
	phrase := text[:idx]
	n := utf8.RuneCountInString(phrase)
	if n < minColonLabelRunes || n > maxColonLabelRunes {
		return "", "", false
	}
	first, _ := utf8.DecodeRuneInString(phrase)
	if !unicode.IsUpper(first) {
		return "", "", false
	}
	for _, r := range phrase {
		if !isLabelRune(r) {
			return "", "", false
		}
	}
	value := StripInline(strings.TrimSpace(text[idx+2:]))
	if value == "" {
		return "", "", false
	}
	return StripInline(phrase), value, true
}

func isLabelRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '/', '-', '(', ')', '&', '\'', '.', ',':
		return true
	}
	return false
}

func isTableLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "|") && strings.Count(trimmed, "|") >= 2
}

// parseTable builds a table from a run of pipe lines. A run made only of
// separator rows has nothing to show as a table and degrades to paragraphs.
func parseTable(lines []string) []Block {
	var rows [][]string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isSeparatorRow(trimmed) {
			continue
		}
		rows = append(rows, splitTableRow(trimmed))
	}
	if len(rows) == 0 {
		out := make([]Block, 0, len(lines))
		for _, line := range lines {
			out = append(out, Paragraph(StripInline(strings.TrimSpace(line))))
		}
		return out
	}
	return []Block{Table(rows[0], rows[1:])}
}

func isSeparatorRow(row string) bool {
	for i := 0; i < len(row); i++ {
		switch row[i] {
		case '|', '-', ':', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

func splitTableRow(row string) []string {
	parts := strings.Split(row, "|")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = StripInline(strings.TrimSpace(p))
	}
	return cells
}

func leadingIndentCount(s string) (int, int) {
	count := 0
	i := 0
	for i < len(s) {
		if s[i] == ' ' {
			count++
			i++
			continue
		}
		if s[i] == '\t' {
			count += 4
			i++
			continue
		}
		break
	}
	return count, i
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}
