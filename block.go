package clinpdf

import (
	"fmt"
	"strconv"
)

// BlockKind discriminates the variants of Block.
type BlockKind uint8

const (
	// BlockParagraph is a single physical line of body text.
	BlockParagraph BlockKind = iota
	// BlockHeader is a #..#### heading.
	BlockHeader
	// BlockBullet is a -, * or + list item.
	BlockBullet
	// BlockNumbered is an N. or N) list item.
	BlockNumbered
	// BlockLabel is a "Label: value" or "**Label** value" line.
	BlockLabel
	// BlockTable is a pipe table.
	BlockTable
	// BlockRule is a "---", "***" or "___" divider line.
	BlockRule

	lastBlockKind = BlockRule
)

// MarshalText encodes the kind by name.
func (k BlockKind) MarshalText() ([]byte, error) {
	if k > lastBlockKind {
		return nil, fmt.Errorf("unknown block kind %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name produced by MarshalText.
func (k *BlockKind) UnmarshalText(text []byte) error {
	for c := BlockParagraph; c <= lastBlockKind; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown block kind %q", text)
}

// MaxNesting caps the list nesting level derived from bullet indentation.
const MaxNesting = 3

func (k BlockKind) String() string {
	switch k {
	case BlockParagraph:
		return "paragraph"
	case BlockHeader:
		return "header"
	case BlockBullet:
		return "bullet"
	case BlockNumbered:
		return "numbered"
	case BlockLabel:
		return "label"
	case BlockTable:
		return "table"
	case BlockRule:
		return "rule"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Block is one parsed structural unit of a summary. Which fields are
// meaningful depends on Kind:
//
//	BlockHeader     Level (1..4), Text, Number (stripped section ordinal)
//	BlockParagraph  Text
//	BlockBullet     Text, Indent (raw leading spaces)
//	BlockNumbered   Number (digits only), Text
//	BlockLabel      Label, Value (may be empty)
//	BlockTable      Headers, Rows (rectangular)
//	BlockRule       no fields
type Block struct {
	Kind    BlockKind  `json:"kind"`
	Level   int        `json:"level,omitempty"`
	Text    string     `json:"text,omitempty"`
	Indent  int        `json:"indent,omitempty"`
	Number  string     `json:"number,omitempty"`
	Label   string     `json:"label,omitempty"`
	Value   string     `json:"value,omitempty"`
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

// NestingLevel maps a bullet's raw indentation to a list depth, two spaces
// per level, capped at MaxNesting.
func (b Block) NestingLevel() int {
	if b.Indent <= 0 {
		return 0
	}
	level := b.Indent / 2
	if level > MaxNesting {
		return MaxNesting
	}
	return level
}

// Columns reports the column count of a table block.
func (b Block) Columns() int {
	return len(b.Headers)
}

// Header returns a header block.
func Header(level int, text string) Block {
	return Block{Kind: BlockHeader, Level: level, Text: text}
}

// Section returns a header block whose text carried the section ordinal
// number, as in "## 2. Assessment".
func Section(level int, number, text string) Block {
	return Block{Kind: BlockHeader, Level: level, Number: number, Text: text}
}

// Rule returns a divider block.
func Rule() Block {
	return Block{Kind: BlockRule}
}

// Paragraph returns a paragraph block.
func Paragraph(text string) Block {
	return Block{Kind: BlockParagraph, Text: text}
}

// Bullet returns a bullet block.
func Bullet(indent int, text string) Block {
	return Block{Kind: BlockBullet, Indent: indent, Text: text}
}

// Numbered returns a numbered list block.
func Numbered(number, text string) Block {
	return Block{Kind: BlockNumbered, Number: number, Text: text}
}

// Label returns a label block.
func Label(label, value string) Block {
	return Block{Kind: BlockLabel, Label: label, Value: value}
}

// Table returns a table block, padding every row (and the header) to the
// widest row so the result is rectangular.
func Table(headers []string, rows [][]string) Block {
	cols := len(headers)
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	out := Block{Kind: BlockTable, Headers: padRow(headers, cols)}
	if len(rows) > 0 {
		out.Rows = make([][]string, len(rows))
		for i, row := range rows {
			out.Rows[i] = padRow(row, cols)
		}
	}
	return out
}

func padRow(row []string, cols int) []string {
	out := make([]string, cols)
	copy(out, row)
	return out
}
