package clinpdf

import "bytes"

const maxFrontMatterBytes = 64 * 1024

var utf8BOM = []byte("\xef\xbb\xbf")

// SplitFrontMatter locates a fenced block at the very top of src: a "---"
// or ";;;" line, a first line that reads like a key, and the same fence
// again within maxFrontMatterBytes. It returns the text after the closing
// fence and the text between the fences. It does not decode the block;
// ParseDocument only peels it when it holds metadata.
func SplitFrontMatter(src []byte) (body []byte, front []byte, ok bool) {
	rest := bytes.TrimPrefix(src, utf8BOM)
	first, n := cutLine(rest)
	fence := bytes.TrimSpace(first)
	if !isFence(fence) {
		return src, nil, false
	}
	inner := rest[n:]
	if key, _ := cutLine(inner); !readsLikeKey(key) {
		return src, nil, false
	}
	for off := 0; off < len(inner) && off <= maxFrontMatterBytes; {
		line, n := cutLine(inner[off:])
		if bytes.Equal(bytes.TrimSpace(line), fence) {
			return inner[off+n:], inner[:off], true
		}
		off += n
	}
	return src, nil, false
}

// cutLine returns the first line of b without its line ending, and how many
// bytes of b it spans including the newline.
func cutLine(b []byte) ([]byte, int) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return bytes.TrimSuffix(b, []byte("\r")), len(b)
	}
	return bytes.TrimSuffix(b[:i], []byte("\r")), i + 1
}

func isFence(line []byte) bool {
	return bytes.Equal(line, []byte("---")) || bytes.Equal(line, []byte(";;;"))
}

func readsLikeKey(line []byte) bool {
	line = bytes.TrimSpace(line)
	return bytes.HasPrefix(line, []byte("{")) || bytes.IndexByte(line, ':') > 0
}
