package pdf

// Style is the font and colour of a single draw call. The canvas applies it
// before every text operation, so no style leaks from one element into the
// next.
type Style struct {
	FontFamily string
	FontStyle  string
	Size       float64
	Color      RGB
}

// Bold returns s in the bold face.
func (s Style) Bold() Style {
	s.FontStyle = "B"
	return s
}

// WithSize returns s at another point size.
func (s Style) WithSize(size float64) Style {
	s.Size = size
	return s
}

// WithColor returns s in another colour.
func (s Style) WithColor(c RGB) Style {
	s.Color = c
	return s
}

type styleSet struct {
	body        Style
	secondary   Style
	label       Style
	h1          Style
	h2          Style
	h3          Style
	h4          Style
	marker      Style
	ordinal     Style
	badge       Style
	tableHeader Style
	tableCell   Style
	bannerTitle Style
	bannerFile  Style
	footer      Style
	metaLabel   Style
	metaValue   Style
}

func newStyleSet(cfg Config, p Palette) styleSet {
	body := Style{FontFamily: cfg.FontFamily, Size: cfg.FontSize, Color: p.TextPrimary}
	small := body.WithSize(cfg.FontSize - 1)
	table := body.WithSize(cfg.TableFontSize)
	return styleSet{
		body:        body,
		secondary:   body.WithColor(p.TextSecondary),
		label:       body.Bold(),
		h1:          body.Bold().WithSize(cfg.FontSize + 8).WithColor(p.PrimaryDark),
		h2:          body.Bold().WithSize(cfg.FontSize + 1).WithColor(p.TextInverse),
		h3:          body.Bold().WithColor(p.Primary),
		h4:          small.Bold().WithColor(p.PrimaryDark),
		marker:      body.Bold().WithColor(p.Primary),
		ordinal:     small.Bold().WithColor(p.Primary),
		badge:       small.Bold().WithColor(p.Primary),
		tableHeader: table.Bold().WithColor(p.TextInverse),
		tableCell:   table,
		bannerTitle: body.Bold().WithSize(cfg.FontSize + 2).WithColor(p.TextInverse),
		bannerFile:  small.WithColor(p.TextInverse),
		footer:      body.WithSize(cfg.FontSize - 2).WithColor(p.TextSecondary),
		metaLabel:   small.Bold().WithColor(p.TextSecondary),
		metaValue:   small,
	}
}
