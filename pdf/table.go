package pdf

// TableMetrics are the sizing rules PlanColumns applies.
type TableMetrics struct {
	MinColumnWidth float64
	MaxCellWidth   float64
	Padding        float64
}

func tableMetrics(cfg Config) TableMetrics {
	return TableMetrics{
		MinColumnWidth: cfg.MinColumnWidth,
		MaxCellWidth:   cfg.MaxCellWidth,
		Padding:        cfg.CellPadding,
	}
}

// PlanColumns computes one width per column. A column is as wide as its
// widest cell (each cell's contribution capped at MaxCellWidth) plus
// Padding, and never narrower than MinColumnWidth. When the plan is wider
// than contentWidth every column is scaled by the same factor, so the sum
// equals contentWidth and the proportions survive.
func PlanColumns(m Measurer, headers []string, rows [][]string, headerStyle, cellStyle Style, tm TableMetrics, contentWidth float64) []float64 {
	cols := len(headers)
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return nil
	}
	widths := make([]float64, cols)
	measure := func(col int, text string, st Style) {
		w := m.Width(text, st)
		if tm.MaxCellWidth > 0 && w > tm.MaxCellWidth {
			w = tm.MaxCellWidth
		}
		if w > widths[col] {
			widths[col] = w
		}
	}
	for i, h := range headers {
		measure(i, h, headerStyle)
	}
	for _, row := range rows {
		for i, cell := range row {
			measure(i, cell, cellStyle)
		}
	}
	total := 0.0
	for i := range widths {
		widths[i] += tm.Padding
		if widths[i] < tm.MinColumnWidth {
			widths[i] = tm.MinColumnWidth
		}
		total += widths[i]
	}
	if total > contentWidth && total > 0 {
		scale := contentWidth / total
		for i := range widths {
			widths[i] *= scale
		}
	}
	return widths
}
