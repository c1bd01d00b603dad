package pdf

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pkt.systems/clinpdf"
)

var (
	errUnknownBlock = errors.New("unknown block kind")
	errEmptyTable   = errors.New("table has no columns")
)

const (
	h1LineHeight     = 9.0
	h2BandHeight     = 10.0
	h2Advance        = 14.0
	h3LineHeight     = 7.0
	h4LineHeight     = 6.0
	bulletWidth      = 6.0
	ordinalWidth     = 8.0
	paragraphAfter   = 2.0
	listItemAfter    = 1.0
	tableGap         = 4.0
	minFootprintRows = 2
	badgeSize        = 7.0
	ruleBefore       = 3.0
	ruleAfter        = 5.0
	ruleDash         = 2.0
)

// renderer lays blocks out top to bottom on a single canvas. One renderer
// renders one document.
type renderer struct {
	c       *Canvas
	m       Measurer
	cfg     Config
	styles  styleSet
	palette Palette
	log     *slog.Logger
	upper   cases.Caser
}

func newRenderer(c *Canvas, cfg Config, palette Palette) *renderer {
	return &renderer{
		c:       c,
		m:       c,
		cfg:     cfg,
		styles:  newStyleSet(cfg, palette),
		palette: palette,
		log:     loggerFor(cfg),
		upper:   cases.Upper(language.Und),
	}
}

// renderBlocks draws every block in order. A block that fails is logged,
// skipped, and followed by a blank line so later blocks keep their place.
// It returns the number of skipped blocks.
func (r *renderer) renderBlocks(blocks []clinpdf.Block) int {
	skipped := 0
	for i, b := range blocks {
		if err := r.renderSafely(b); err != nil {
			r.log.Warn("pdf render: element skipped", "index", i, "kind", b.Kind.String(), "error", err)
			r.c.ClearErr()
			r.c.Ln(r.cfg.LineHeight)
			skipped++
		}
	}
	return skipped
}

func (r *renderer) renderSafely(b clinpdf.Block) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	if err := r.renderBlock(b); err != nil {
		return err
	}
	return r.c.Err()
}

func (r *renderer) renderBlock(b clinpdf.Block) error {
	switch b.Kind {
	case clinpdf.BlockHeader:
		r.breakBefore(r.footprint(b))
		r.header(b)
	case clinpdf.BlockParagraph:
		r.breakBefore(r.footprint(b))
		r.paragraph(b.Text)
	case clinpdf.BlockBullet:
		r.breakBefore(r.footprint(b))
		r.listItem(b.NestingLevel(), "-", r.styles.marker, bulletWidth, b.Text)
	case clinpdf.BlockNumbered:
		r.breakBefore(r.footprint(b))
		r.listItem(0, b.Number+".", r.styles.ordinal, ordinalWidth, b.Text)
	case clinpdf.BlockLabel:
		r.breakBefore(r.footprint(b))
		r.label(b.Label, b.Value)
	case clinpdf.BlockTable:
		if b.Columns() == 0 {
			return errEmptyTable
		}
		r.breakBefore(r.footprint(b))
		r.table(b)
	case clinpdf.BlockRule:
		r.breakBefore(r.footprint(b))
		r.rule()
	default:
		return fmt.Errorf("%w: %s", errUnknownBlock, b.Kind)
	}
	return nil
}

// breakBefore starts a new page when h does not fit below the cursor. A
// fresh page is never broken again, so oversized blocks still make progress.
func (r *renderer) breakBefore(h float64) {
	if r.c.AtPageTop() || r.c.Fits(h) {
		return
	}
	r.c.AddPage()
}

// footprint is the height a block needs on the current page before it may
// start there. Headers reserve the orphan distance so they are never left
// alone at the bottom of a page. Wrapped text needs its first lines, a table
// its header and first row; anything longer continues on the next page.
func (r *renderer) footprint(b clinpdf.Block) float64 {
	width := r.c.ContentWidth()
	lh := r.cfg.LineHeight
	switch b.Kind {
	case clinpdf.BlockHeader:
		var h float64
		switch b.Level {
		case 1:
			h = r.lines(b.Text, r.styles.h1, width)*h1LineHeight + 6
		case 2:
			h = h2Advance + 6
		case 3:
			h = r.lines(b.Text, r.styles.h3, width)*h3LineHeight + 4
		default:
			h = r.lines(b.Text, r.styles.h4, width)*h4LineHeight + 3
		}
		return math.Max(h, r.cfg.OrphanDistance)
	case clinpdf.BlockParagraph:
		return r.capLines(r.lines(b.Text, r.styles.body, width))*lh + paragraphAfter
	case clinpdf.BlockBullet, clinpdf.BlockNumbered:
		indent, marker := r.listGeometry(b)
		return r.capLines(r.lines(b.Text, r.styles.body, width-indent-marker))*lh + listItemAfter
	case clinpdf.BlockLabel:
		if b.Value == "" {
			return h4LineHeight + 2
		}
		return r.capLines(r.lines(b.Label+": "+b.Value, r.styles.body, width))*lh + listItemAfter
	case clinpdf.BlockTable:
		rh := r.cfg.RowHeight
		full := float64(len(b.Rows)+1)*rh + 2*tableGap
		if full <= r.c.ContentHeight() {
			return full
		}
		return float64(minFootprintRows)*rh + tableGap
	case clinpdf.BlockRule:
		return ruleBefore + ruleAfter
	default:
		return lh
	}
}

func (r *renderer) lines(text string, st Style, width float64) float64 {
	n := len(WrapLines(r.m, text, st, width))
	if n == 0 {
		n = 1
	}
	return float64(n)
}

func (r *renderer) capLines(n float64) float64 {
	return math.Min(n, minFootprintRows)
}

func (r *renderer) header(b clinpdf.Block) {
	width := r.c.ContentWidth()
	switch b.Level {
	case 1:
		r.c.Home()
		r.c.TextBlock(width, h1LineHeight, b.Text, r.styles.h1)
		r.c.Rule(r.c.Y()+1, 0.5, r.palette.Primary)
		r.c.Ln(6)
	case 2:
		if !r.c.AtPageTop() {
			r.c.Ln(6)
		}
		y := r.c.Y()
		left := r.c.Left()
		r.c.FillRect(left, y, width, h2BandHeight, r.palette.Primary)
		textX := left + 5
		if b.Number != "" {
			badgeY := y + (h2BandHeight-badgeSize)/2
			r.c.SetXY(left+3, badgeY)
			r.c.FilledCell(badgeSize, badgeSize, b.Number, r.styles.badge, "C", r.palette.TextInverse, nil)
			textX = left + 3 + badgeSize + 3
		}
		textW := width - (textX - left) - 5
		text := TruncateToWidth(r.m, r.upper.String(b.Text), r.styles.h2, textW-2*cellMargin)
		r.c.SetXY(textX, y+2)
		r.c.Cell(textW, h2BandHeight-4, text, r.styles.h2, "L")
		r.c.SetXY(left, y+h2Advance)
	case 3:
		if !r.c.AtPageTop() {
			r.c.Ln(4)
		}
		r.c.Home()
		r.c.TextBlock(width, h3LineHeight, b.Text, r.styles.h3)
	default:
		if !r.c.AtPageTop() {
			r.c.Ln(3)
		}
		r.c.Home()
		r.c.TextBlock(width, h4LineHeight, b.Text, r.styles.h4)
	}
}

// textLine draws text from the cursor in a box of width w: on one line when
// it fits, wrapped otherwise. The cursor ends at the left margin below it.
func (r *renderer) textLine(w float64, text string, st Style) {
	lh := r.cfg.LineHeight
	if r.m.Width(text, st) <= w-2*cellMargin {
		r.c.Cell(w, lh, text, st, "L")
		r.c.Ln(lh)
		return
	}
	r.c.TextBlock(w, lh, text, st)
}

func (r *renderer) paragraph(text string) {
	r.c.Home()
	r.textLine(r.c.ContentWidth(), text, r.styles.body)
	r.c.Ln(paragraphAfter)
}

func (r *renderer) listGeometry(b clinpdf.Block) (indent, marker float64) {
	if b.Kind == clinpdf.BlockNumbered {
		return r.cfg.ListIndent, ordinalWidth
	}
	return r.cfg.ListIndent + float64(b.NestingLevel())*r.cfg.ListStep, bulletWidth
}

func (r *renderer) listItem(level int, marker string, markerStyle Style, markerWidth float64, text string) {
	indent := r.cfg.ListIndent + float64(level)*r.cfg.ListStep
	x := r.c.Left() + indent
	r.c.SetX(x)
	r.c.Cell(markerWidth, r.cfg.LineHeight, marker, markerStyle, "L")
	r.c.SetX(x + markerWidth)
	r.textLine(r.c.ContentWidth()-indent-markerWidth, text, r.styles.body)
	r.c.Ln(listItemAfter)
}

// label draws "Label: value". An empty value makes the label a sub-heading.
// A value that does not fit beside its label wraps below it at the child
// indent.
func (r *renderer) label(label, value string) {
	width := r.c.ContentWidth()
	lh := r.cfg.LineHeight
	r.c.Home()
	if value == "" {
		r.c.Ln(2)
		heading := r.styles.label.WithColor(r.palette.PrimaryDark)
		r.c.Cell(width, h4LineHeight, TruncateToWidth(r.m, label, heading, width-2*cellMargin), heading, "L")
		r.c.Ln(h4LineHeight)
		return
	}
	prefix := TruncateToWidth(r.m, label+":", r.styles.label, width-2*cellMargin)
	lw := r.m.Width(prefix, r.styles.label) + 2*cellMargin
	r.c.Cell(lw, lh, prefix, r.styles.label, "L")
	rest := width - lw
	if r.m.Width(value, r.styles.body) <= rest-2*cellMargin {
		r.c.Cell(rest, lh, value, r.styles.body, "L")
		r.c.Ln(lh)
	} else {
		r.c.Ln(lh)
		r.c.SetX(r.c.Left() + r.cfg.LabelChildIndent)
		r.c.TextBlock(width-r.cfg.LabelChildIndent, lh, value, r.styles.body)
	}
	r.c.Ln(listItemAfter)
}

// rule draws a dashed divider in the border colour.
func (r *renderer) rule() {
	r.c.Ln(ruleBefore)
	r.c.DashedRule(r.c.Y(), 0.3, r.palette.Border, ruleDash)
	r.c.Ln(ruleAfter)
}

func (r *renderer) table(b clinpdf.Block) {
	widths := PlanColumns(r.m, b.Headers, b.Rows, r.styles.tableHeader, r.styles.tableCell, tableMetrics(r.cfg), r.c.ContentWidth())
	rh := r.cfg.RowHeight
	if !r.c.AtPageTop() {
		r.c.Ln(tableGap)
	}
	r.tableRow(b.Headers, widths, r.styles.tableHeader, "C", r.palette.Primary)
	for i, row := range b.Rows {
		if !r.c.Fits(rh) {
			r.c.AddPage()
			r.tableRow(b.Headers, widths, r.styles.tableHeader, "C", r.palette.Primary)
		}
		fill := r.palette.TextInverse
		if i%2 == 1 {
			fill = r.palette.TableAlt
		}
		r.tableRow(row, widths, r.styles.tableCell, "L", fill)
	}
	r.c.Ln(tableGap)
}

func (r *renderer) tableRow(cells []string, widths []float64, st Style, align string, fill RGB) {
	border := r.palette.Border
	r.c.Home()
	for i, w := range widths {
		text := ""
		if i < len(cells) {
			text = TruncateToWidth(r.m, cells[i], st, w-2*cellMargin)
		}
		r.c.FilledCell(w, r.cfg.RowHeight, text, st, align, fill, &border)
	}
	r.c.Ln(r.cfg.RowHeight)
}
