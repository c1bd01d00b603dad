package clinpdf

import "bytes"

// Document is a parsed summary together with the raw front matter that
// preceded it, if any.
type Document struct {
	Blocks      []Block
	FrontMatter []byte
}

// ParseDocument parses src, first peeling a leading front-matter block when
// it decodes to a mapping with at least one metadata key. Any other fenced
// block at the top, such as a "---" rule followed by summary lines, stays
// in the body and is parsed like the rest. Invalid UTF-8 is not rejected
// here; use ValidateInput at the edges.
func ParseDocument(src []byte) Document {
	src = bytes.TrimPrefix(src, utf8BOM)
	if body, front, ok := SplitFrontMatter(src); ok {
		if raw, err := decodeMetadataMap(front); err == nil && hasMetadataKey(raw) {
			return Document{Blocks: Parse(string(body)), FrontMatter: front}
		}
	}
	return Document{Blocks: Parse(string(src))}
}

// Metadata decodes the front matter. A document without front matter yields
// zero Metadata.
func (d Document) Metadata() (Metadata, error) {
	return DecodeMetadata(d.FrontMatter)
}
