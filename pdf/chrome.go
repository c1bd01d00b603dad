package pdf

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"pkt.systems/clinpdf"
)

const (
	bannerHeight   = 20.0
	bannerTextY    = 6.0
	bannerTextH    = 8.0
	footerOffset   = 15.0
	footerHeight   = 10.0
	metaBoxHeight  = 20.0
	metaBoxInset   = 5.0
	metaLineHeight = 6.0
	defaultModel   = "GPT-4o-mini"
	notReported    = "-"
	timestampForm  = "2006-01-02 15:04 UTC"
)

// chrome draws the running header and footer of every page.
type chrome struct {
	c         *Canvas
	styles    styleSet
	palette   Palette
	title     string
	filename  string
	marker    string
	generated string
	logo      *logo
}

func newChrome(c *Canvas, cfg Config, styles styleSet, palette Palette, meta clinpdf.Metadata, stamp time.Time) *chrome {
	return &chrome{
		c:         c,
		styles:    styles,
		palette:   palette,
		title:     cfg.Title,
		filename:  displayFilename(meta.Filename, cfg.FilenameMaxRunes),
		marker:    cfg.Confidential,
		generated: "Generated: " + stamp.UTC().Format(timestampForm),
	}
}

func (ch *chrome) install() {
	ch.c.OnPageOpen(ch.header)
	ch.c.OnPageClose(ch.footer)
}

// displayFilename shortens long filenames to max columns, ellipsis included.
func displayFilename(name string, max int) string {
	if max <= 0 || ansi.PrintableRuneWidth(name) <= max {
		return name
	}
	return truncate.StringWithTail(name, uint(max), Ellipsis)
}

func (ch *chrome) header(int) {
	pageW, _ := ch.c.PageSize()
	left := ch.c.Left()
	width := ch.c.ContentWidth()
	ch.c.FillRect(0, 0, pageW, bannerHeight, ch.palette.PrimaryDark)
	titleX := left
	if ch.logo != nil {
		ch.c.drawLogo(ch.logo, left, (bannerHeight-ch.logo.height)/2)
		titleX += ch.logo.width + 3
	}
	ch.c.SetXY(titleX, bannerTextY)
	ch.c.Cell(width-(titleX-left), bannerTextH, ch.title, ch.styles.bannerTitle, "L")
	if ch.filename != "" {
		ch.c.SetXY(left, bannerTextY)
		ch.c.Cell(width, bannerTextH, ch.filename, ch.styles.bannerFile, "R")
	}
}

func (ch *chrome) footer(page int) {
	_, pageH := ch.c.PageSize()
	left := ch.c.Left()
	width := ch.c.ContentWidth()
	y := pageH - footerOffset
	ch.c.Rule(y, 0.2, ch.palette.Border)
	ch.c.SetXY(left, y)
	ch.c.Cell(width, footerHeight, ch.generated, ch.styles.footer, "L")
	ch.c.SetXY(left, y)
	ch.c.Cell(width, footerHeight, fmt.Sprintf("Page %d of {nb}", page), ch.styles.footer, "C")
	if ch.marker != "" {
		ch.c.SetXY(left, y)
		ch.c.Cell(width, footerHeight, ch.marker, ch.styles.footer.Bold(), "R")
	}
}

// metadataBox draws the job summary box at the cursor on the first page.
func (ch *chrome) metadataBox(meta clinpdf.Metadata) {
	if meta.IsZero() {
		return
	}
	left := ch.c.Left()
	width := ch.c.ContentWidth()
	y := ch.c.Y()
	ch.c.BoxRect(left, y, width, metaBoxHeight, ch.palette.Surface, ch.palette.Border)
	half := (width - 2*metaBoxInset) / 2

	ch.c.SetXY(left+metaBoxInset, y+3)
	ch.metaField(half, "Model: ", modelName(meta.Model), "L")
	ch.metaField(half, "Total Tokens: ", formatTokens(meta.TokenUsage.TotalTokens), "R")
	ch.c.SetXY(left+metaBoxInset, y+11)
	ch.metaField(half, "Estimated Cost: ", formatCost(meta.TokenUsage.EstimatedCostUSD), "L")

	ch.c.SetXY(left, y+metaBoxHeight+8)
}

func (ch *chrome) metaField(width float64, label, value, align string) {
	lw := ch.c.Width(label, ch.styles.metaLabel)
	vw := ch.c.Width(value, ch.styles.metaValue)
	x := ch.c.X()
	if align == "R" {
		ch.c.SetX(x + width - lw - vw - 2*cellMargin)
	}
	ch.c.Cell(lw+cellMargin, metaLineHeight, label, ch.styles.metaLabel, "L")
	ch.c.Cell(vw+cellMargin, metaLineHeight, value, ch.styles.metaValue, "L")
	ch.c.SetX(x + width)
}

func modelName(model string) string {
	if model == "" {
		return defaultModel
	}
	return model
}

func formatTokens(n *int64) string {
	if n == nil {
		return notReported
	}
	return humanize.Comma(*n)
}

func formatCost(cost *float64) string {
	if cost == nil {
		return notReported
	}
	if *cost < 0.01 {
		return fmt.Sprintf("$%.6f", *cost)
	}
	return fmt.Sprintf("$%.4f", *cost)
}
