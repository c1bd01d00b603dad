package pdf

import (
	"fmt"
	"io"
	"time"

	"pkt.systems/clinpdf"
)

// RenderRequest contains inputs for PDF rendering. Markdown is read from
// Reader when it is set, otherwise from Markdown.
type RenderRequest struct {
	Reader   io.Reader
	Markdown string
	Writer   io.Writer
	Metadata clinpdf.Metadata
	Config   Config
}

// Render parses markdown and writes the finished PDF to req.Writer. Front
// matter at the top of the input supplies metadata when req.Metadata is
// empty.
func Render(req RenderRequest) error {
	if req.Writer == nil {
		return fmt.Errorf("pdf render: writer is nil")
	}
	src := []byte(req.Markdown)
	if req.Reader != nil {
		data, err := io.ReadAll(req.Reader)
		if err != nil {
			return fmt.Errorf("pdf render: read input: %w", err)
		}
		src = data
	}
	parsed := clinpdf.ParseDocument(src)
	meta := req.Metadata
	if meta.IsZero() && len(parsed.FrontMatter) > 0 {
		fm, err := parsed.Metadata()
		if err != nil {
			loggerFor(req.Config).Warn("pdf render: ignoring front matter", "error", err)
		} else {
			meta = fm
		}
	}
	doc, err := Generate(parsed.Blocks, meta, req.Config)
	if err != nil {
		return err
	}
	if _, err := doc.WriteTo(req.Writer); err != nil {
		return fmt.Errorf("pdf render: output: %w", err)
	}
	return nil
}

// Generate lays blocks out on pages with running chrome and returns the
// finished document. Blocks that fail to draw are logged and skipped; only
// configuration and output problems fail the whole document.
func Generate(blocks []clinpdf.Block, meta clinpdf.Metadata, cfg Config) (*Document, error) {
	merged := DefaultConfig()
	applyConfig(&merged, cfg)
	if err := merged.validate(); err != nil {
		return nil, fmt.Errorf("pdf render: %w", err)
	}
	palette, ok := ThemeByName(merged.Theme)
	if !ok {
		return nil, fmt.Errorf("pdf render: %w: %s", ErrUnknownTheme, merged.Theme)
	}
	c, err := NewCanvas(merged)
	if err != nil {
		return nil, fmt.Errorf("pdf render: %w", err)
	}
	stamp := meta.GeneratedAt
	if stamp.IsZero() {
		now := merged.Now
		if now == nil {
			now = time.Now
		}
		stamp = now()
	}
	r := newRenderer(c, merged, palette)
	ch := newChrome(c, merged, r.styles, palette, meta, stamp)
	if merged.LogoPath != "" {
		l, err := c.registerLogo(merged.LogoPath, merged.LogoMaxHeight)
		if err != nil {
			return nil, fmt.Errorf("pdf render: %w", err)
		}
		ch.logo = l
	}
	ch.install()
	c.SetDocumentInfo(documentTitle(merged.Title, meta), merged.Author, meta.GeneratedAt)

	c.AddPage()
	ch.metadataBox(meta)
	if skipped := r.renderBlocks(blocks); skipped > 0 {
		r.log.Debug("pdf render: finished with skipped elements", "skipped", skipped, "blocks", len(blocks))
	}
	return assemble(c, merged)
}

func documentTitle(title string, meta clinpdf.Metadata) string {
	if meta.Filename == "" {
		return title
	}
	return title + " - " + meta.Filename
}
