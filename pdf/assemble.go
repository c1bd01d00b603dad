package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"pkt.systems/clinpdf/pdf/internal/pdfprobe"
)

// ErrValidation reports a generated document that pdfcpu rejects.
var ErrValidation = errors.New("pdf validation failed")

// Document is a finished PDF.
type Document struct {
	Data  []byte
	Pages int
}

// WriteTo writes the PDF bytes to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d.Data)
	return int64(n), err
}

func assemble(c *Canvas, cfg Config) (*Document, error) {
	pages := c.Page()
	var buf bytes.Buffer
	if err := c.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf render: output: %w", err)
	}
	doc := &Document{Data: buf.Bytes(), Pages: pages}
	if cfg.Validate {
		n, err := ValidatePDF(doc.Data)
		if err != nil {
			return nil, fmt.Errorf("pdf render: %w", err)
		}
		if n != pages {
			return nil, fmt.Errorf("pdf render: %w: %d pages, expected %d", ErrValidation, n, pages)
		}
	}
	return doc, nil
}

// ValidatePDF parses and validates data with pdfcpu and returns its page
// count.
func ValidatePDF(data []byte) (int, error) {
	n, err := pdfprobe.PageCount(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return n, nil
}

func loggerFor(cfg Config) *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return slog.Default()
}
