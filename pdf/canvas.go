package pdf

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// cellMargin is the horizontal gap between a cell's edge and its text.
const cellMargin = 1.0

// Canvas wraps a gofpdf document with explicit styles on every draw call and
// page open/close hooks for running chrome. It owns the page cursor; only the
// renderer that created it moves it.
type Canvas struct {
	pdf     *gofpdf.Fpdf
	tr      func(string) string
	pageW   float64
	pageH   float64
	left    float64
	top     float64
	right   float64
	bottom  float64
	onOpen  []func(page int)
	onClose []func(page int)
}

// NewCanvas creates a canvas for cfg. cfg must already be merged with
// DefaultConfig.
func NewCanvas(cfg Config) (*Canvas, error) {
	pdf := gofpdf.New("P", "mm", cfg.PageSize, "")
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: page size %q: %v", ErrInvalidConfig, cfg.PageSize, err)
	}
	pdf.SetMargins(cfg.MarginLeft, cfg.MarginTop, cfg.MarginRight)
	pdf.SetAutoPageBreak(true, cfg.MarginBottom)
	pdf.SetCompression(!cfg.NoCompression)
	pdf.SetCatalogSort(true)
	pdf.SetCellMargin(cellMargin)
	pdf.AliasNbPages("")

	c := &Canvas{
		pdf:    pdf,
		left:   cfg.MarginLeft,
		top:    cfg.MarginTop,
		right:  cfg.MarginRight,
		bottom: cfg.MarginBottom,
	}
	c.pageW, c.pageH = pdf.GetPageSize()
	if c.ContentWidth() < cfg.MinColumnWidth {
		return nil, fmt.Errorf("%w: page too narrow for margins (content width %.1fmm)", ErrInvalidConfig, c.ContentWidth())
	}
	if err := c.loadFonts(cfg); err != nil {
		return nil, err
	}
	pdf.SetHeaderFuncMode(func() {
		for _, fn := range c.onOpen {
			fn(pdf.PageNo())
		}
	}, true)
	pdf.SetFooterFunc(func() {
		for _, fn := range c.onClose {
			fn(pdf.PageNo())
		}
	})
	return c, nil
}

func (c *Canvas) loadFonts(cfg Config) error {
	if cfg.RegularFont == "" {
		c.tr = c.pdf.UnicodeTranslatorFromDescriptor("")
		if c.tr == nil {
			c.tr = func(s string) string { return s }
		}
		c.pdf.SetFont(cfg.FontFamily, "", cfg.FontSize)
		if err := c.pdf.Error(); err != nil {
			return fmt.Errorf("%w: font setup failed: %v", ErrInvalidConfig, err)
		}
		return nil
	}
	c.tr = func(s string) string { return s }
	for _, face := range []struct{ style, path string }{
		{"", cfg.RegularFont},
		{"B", cfg.BoldFont},
	} {
		if err := ensureFontFile(face.path); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		data, err := os.ReadFile(face.path) // #nosec G304 -- font path is user-provided
		if err != nil {
			return fmt.Errorf("%w: font missing: %v", ErrInvalidConfig, err)
		}
		c.pdf.AddUTF8FontFromBytes(cfg.FontFamily, face.style, data)
	}
	c.pdf.SetFont(cfg.FontFamily, "", cfg.FontSize)
	if err := c.pdf.Error(); err != nil {
		return fmt.Errorf("%w: font setup failed: %v", ErrInvalidConfig, err)
	}
	return nil
}

func ensureFontFile(path string) error {
	if strings.ToLower(filepath.Ext(path)) != ".ttf" {
		return fmt.Errorf("font %s must be a .ttf file", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("font missing: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("font path %s is a directory", path)
	}
	return nil
}

// OnPageOpen registers fn to run at the top of every new page, before the
// cursor is homed to the top-left margin.
func (c *Canvas) OnPageOpen(fn func(page int)) {
	c.onOpen = append(c.onOpen, fn)
}

// OnPageClose registers fn to run when a page is finished.
func (c *Canvas) OnPageClose(fn func(page int)) {
	c.onClose = append(c.onClose, fn)
}

// SetDocumentInfo records the document title, author and creation time.
func (c *Canvas) SetDocumentInfo(title, author string, created time.Time) {
	c.pdf.SetTitle(title, true)
	c.pdf.SetCreator("clinpdf", true)
	if author != "" {
		c.pdf.SetAuthor(author, true)
	}
	if !created.IsZero() {
		c.pdf.SetCreationDate(created)
	}
}

// AddPage finishes the current page, if any, and opens a new one.
func (c *Canvas) AddPage() {
	c.pdf.AddPage()
}

// Page returns the current 1-based page number, 0 before the first page.
func (c *Canvas) Page() int {
	return c.pdf.PageNo()
}

// PageSize returns the page width and height.
func (c *Canvas) PageSize() (float64, float64) {
	return c.pageW, c.pageH
}

// Left returns the left margin.
func (c *Canvas) Left() float64 { return c.left }

// Top returns the top margin.
func (c *Canvas) Top() float64 { return c.top }

// ContentWidth is the page width minus both side margins.
func (c *Canvas) ContentWidth() float64 {
	return c.pageW - c.left - c.right
}

// ContentHeight is the usable height of one page.
func (c *Canvas) ContentHeight() float64 {
	return c.pageH - c.top - c.bottom
}

// Bottom returns the y coordinate where the automatic page break triggers.
func (c *Canvas) Bottom() float64 {
	return c.pageH - c.bottom
}

// X returns the cursor's horizontal position.
func (c *Canvas) X() float64 { return c.pdf.GetX() }

// Y returns the cursor's vertical position.
func (c *Canvas) Y() float64 { return c.pdf.GetY() }

// SetXY moves the cursor.
func (c *Canvas) SetXY(x, y float64) { c.pdf.SetXY(x, y) }

// SetX moves the cursor horizontally.
func (c *Canvas) SetX(x float64) { c.pdf.SetX(x) }

// Home moves the cursor to the left margin without changing y.
func (c *Canvas) Home() { c.pdf.SetX(c.left) }

// Ln moves the cursor down by h and back to the left margin.
func (c *Canvas) Ln(h float64) { c.pdf.Ln(h) }

// Remaining returns the vertical space left above the bottom margin.
func (c *Canvas) Remaining() float64 {
	return c.Bottom() - c.Y()
}

// Fits reports whether a footprint of height h fits on the current page.
func (c *Canvas) Fits(h float64) bool {
	return c.Remaining() >= h
}

// AtPageTop reports whether nothing has been placed below the top margin of
// the current page yet.
func (c *Canvas) AtPageTop() bool {
	return c.Y() <= c.top+0.01
}

// Width measures text in st. It makes Canvas a Measurer.
func (c *Canvas) Width(text string, st Style) float64 {
	c.apply(st)
	return c.pdf.GetStringWidth(c.tr(text))
}

func (c *Canvas) apply(st Style) {
	c.pdf.SetFont(st.FontFamily, st.FontStyle, st.Size)
	c.pdf.SetTextColor(st.Color[0], st.Color[1], st.Color[2])
}

// Cell draws single-line text in a w by h box at the cursor and advances the
// cursor to the right of the box. Align is "L", "C" or "R".
func (c *Canvas) Cell(w, h float64, text string, st Style, align string) {
	c.apply(st)
	c.pdf.CellFormat(w, h, c.tr(text), "", 0, align+"M", false, 0, "")
}

// FilledCell is Cell on a background fill, optionally with a hairline
// border in the border colour.
func (c *Canvas) FilledCell(w, h float64, text string, st Style, align string, fill RGB, border *RGB) {
	c.apply(st)
	c.pdf.SetFillColor(fill[0], fill[1], fill[2])
	borderStr := ""
	if border != nil {
		c.pdf.SetDrawColor(border[0], border[1], border[2])
		c.pdf.SetLineWidth(0.1)
		borderStr = "1"
	}
	c.pdf.CellFormat(w, h, c.tr(text), borderStr, 0, align+"M", true, 0, "")
}

// TextBlock draws text wrapped to width w with line height h, starting at
// the cursor. Lines that run past the bottom margin continue on a new page.
// The cursor ends at the left margin below the block.
func (c *Canvas) TextBlock(w, h float64, text string, st Style) {
	c.apply(st)
	c.pdf.MultiCell(w, h, c.tr(text), "", "L", false)
}

// FillRect paints a filled rectangle.
func (c *Canvas) FillRect(x, y, w, h float64, fill RGB) {
	c.pdf.SetFillColor(fill[0], fill[1], fill[2])
	c.pdf.Rect(x, y, w, h, "F")
}

// BoxRect paints a filled rectangle with a border.
func (c *Canvas) BoxRect(x, y, w, h float64, fill, border RGB) {
	c.pdf.SetFillColor(fill[0], fill[1], fill[2])
	c.pdf.SetDrawColor(border[0], border[1], border[2])
	c.pdf.SetLineWidth(0.2)
	c.pdf.Rect(x, y, w, h, "DF")
}

// Rule draws a horizontal line at y across the content width.
func (c *Canvas) Rule(y, width float64, color RGB) {
	c.pdf.SetDrawColor(color[0], color[1], color[2])
	c.pdf.SetLineWidth(width)
	c.pdf.Line(c.left, y, c.pageW-c.right, y)
}

// DashedRule draws a dashed line across the content width at y, with dash
// and gap both dash millimetres long.
func (c *Canvas) DashedRule(y, width float64, color RGB, dash float64) {
	c.pdf.SetDashPattern([]float64{dash, dash}, 0)
	c.Rule(y, width, color)
	c.pdf.SetDashPattern([]float64{}, 0)
}

// Err returns the first drawing error since the last ClearErr.
func (c *Canvas) Err() error {
	return c.pdf.Error()
}

// ClearErr resets the drawing error so later elements can still be drawn.
func (c *Canvas) ClearErr() {
	c.pdf.ClearError()
}

// Output finishes the last page and writes the document to w.
func (c *Canvas) Output(w io.Writer) error {
	return c.pdf.Output(w)
}

// logo is an image registered once and drawn in the header band.
type logo struct {
	path   string
	opts   gofpdf.ImageOptions
	width  float64
	height float64
}

// registerLogo loads a PNG or JPEG scaled to fit within maxH.
func (c *Canvas) registerLogo(path string, maxH float64) (*logo, error) {
	imageType := imageTypeForPath(path)
	if imageType == "" {
		return nil, fmt.Errorf("%w: logo must be PNG or JPEG", ErrInvalidConfig)
	}
	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	info := c.pdf.RegisterImageOptions(path, opts)
	if err := c.pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: load logo: %v", ErrInvalidConfig, err)
	}
	width, height := info.Extent()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid logo dimensions", ErrInvalidConfig)
	}
	if maxH > 0 {
		scale := math.Min(1, maxH/height)
		width *= scale
		height *= scale
	}
	return &logo{path: path, opts: opts, width: width, height: height}, nil
}

// drawLogo draws a registered logo with its top-left corner at x, y.
func (c *Canvas) drawLogo(l *logo, x, y float64) {
	c.pdf.ImageOptions(l.path, x, y, l.width, l.height, false, l.opts, 0, "")
}

func validateImagePath(path string) error {
	if imageTypeForPath(path) == "" {
		return fmt.Errorf("logo must be PNG or JPEG")
	}
	return nil
}

func imageTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "PNG"
	case ".jpg", ".jpeg":
		return "JPG"
	default:
		return ""
	}
}
