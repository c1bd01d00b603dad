package pdf

import (
	"math"
	"strings"
	"testing"
)

var testMetrics = TableMetrics{MinColumnWidth: 20, MaxCellWidth: 80, Padding: 8}

func sum(ws []float64) float64 {
	total := 0.0
	for _, w := range ws {
		total += w
	}
	return total
}

func TestPlanColumnsNarrowTable(t *testing.T) {
	m := runeMeasurer{perRune: 2}
	widths := PlanColumns(m, []string{"A", "Dose"}, [][]string{{"1", "250 mg twice daily"}}, Style{}, Style{}, testMetrics, 170)
	if len(widths) != 2 {
		t.Fatalf("expected 2 widths, got %v", widths)
	}
	if widths[0] != testMetrics.MinColumnWidth {
		t.Fatalf("narrow column not floored: %v", widths[0])
	}
	if want := 18*2 + testMetrics.Padding; widths[1] != want {
		t.Fatalf("column 1 = %v, want %v", widths[1], want)
	}
}

func TestPlanColumnsCapsLongCells(t *testing.T) {
	m := runeMeasurer{perRune: 2}
	long := strings.Repeat("x", 200)
	widths := PlanColumns(m, []string{"Notes"}, [][]string{{long}}, Style{}, Style{}, testMetrics, 500)
	if want := testMetrics.MaxCellWidth + testMetrics.Padding; widths[0] != want {
		t.Fatalf("width = %v, want capped %v", widths[0], want)
	}
}

func TestPlanColumnsScalesUniformly(t *testing.T) {
	m := runeMeasurer{perRune: 2}
	headers := []string{"Medication", "Dose", "Route", "Frequency", "Notes"}
	rows := [][]string{{
		strings.Repeat("m", 30),
		strings.Repeat("d", 20),
		"PO",
		strings.Repeat("f", 25),
		strings.Repeat("n", 60),
	}}
	unscaled := PlanColumns(m, headers, rows, Style{}, Style{}, testMetrics, math.Inf(1))
	widths := PlanColumns(m, headers, rows, Style{}, Style{}, testMetrics, 170)
	if total := sum(widths); total > 170+1e-9 {
		t.Fatalf("sum %v exceeds content width", total)
	}
	ratio := widths[0] / unscaled[0]
	for i := range widths {
		if math.Abs(widths[i]/unscaled[i]-ratio) > 1e-9 {
			t.Fatalf("column %d scaled by %v, want %v", i, widths[i]/unscaled[i], ratio)
		}
	}
}

func TestPlanColumnsInvariant(t *testing.T) {
	m := runeMeasurer{perRune: 1.7}
	for cols := 1; cols <= 12; cols++ {
		headers := make([]string, cols)
		row := make([]string, cols)
		for i := range headers {
			headers[i] = strings.Repeat("H", i+1)
			row[i] = strings.Repeat("c", 7*i)
		}
		widths := PlanColumns(m, headers, [][]string{row}, Style{}, Style{}, testMetrics, 170)
		total := sum(widths)
		if total > 170+1e-9 {
			t.Fatalf("%d columns: sum %v exceeds content width", cols, total)
		}
		if total < 170-1e-9 {
			for i, w := range widths {
				if w < testMetrics.MinColumnWidth {
					t.Fatalf("%d columns: unscaled column %d below minimum: %v", cols, i, w)
				}
			}
		}
	}
}

func TestPlanColumnsEmpty(t *testing.T) {
	if widths := PlanColumns(runeMeasurer{perRune: 1}, nil, nil, Style{}, Style{}, testMetrics, 170); widths != nil {
		t.Fatalf("expected nil plan, got %v", widths)
	}
}
