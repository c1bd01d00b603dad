// Package pdfprobe reads generated PDFs back with pdfcpu so callers can
// check page counts and what was drawn on each page.
package pdfprobe

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// Read parses and validates data.
func Read(data []byte) (*model.Context, error) {
	disableConfigDir.Do(api.DisableConfigDir)
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx, nil
}

// PageCount returns the number of pages in data.
func PageCount(data []byte) (int, error) {
	ctx, err := Read(data)
	if err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}

// PageContents returns the decoded content stream of every page, in page
// order.
func PageContents(data []byte) ([]string, error) {
	ctx, err := Read(data)
	if err != nil {
		return nil, err
	}
	pages := make([]string, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNr, err)
		}
		if r == nil {
			pages = append(pages, "")
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNr, err)
		}
		pages = append(pages, string(content))
	}
	return pages, nil
}

// ShowsText reports whether a page content stream draws text with a Tj
// operator. Only literal strings in a single-byte encoding are recognised,
// which is what the core fonts produce.
func ShowsText(content, text string) bool {
	return strings.Contains(content, "("+escape(text)+")Tj")
}

// TextRun is one string drawn by a Tj operator. X and Y are the text origin
// in points from the bottom-left page corner. Color is the fill operator set
// just for the run ("0.000 0.471 0.831 rg" or "0.129 g"), empty when the run
// uses the current colour.
type TextRun struct {
	X, Y  float64
	Color string
	Text  string
}

var textRunPattern = regexp.MustCompile(`(?:q ((?:[\d.]+ [\d.]+ [\d.]+ rg)|(?:[\d.]+ g)) )?BT (-?[\d.]+) (-?[\d.]+) Td \(((?:\\.|[^\\)])*)\)Tj ET`)

// TextRuns lists the text runs of a page content stream in drawing order.
func TextRuns(content string) []TextRun {
	var runs []TextRun
	for _, m := range textRunPattern.FindAllStringSubmatch(content, -1) {
		x, errX := strconv.ParseFloat(m[2], 64)
		y, errY := strconv.ParseFloat(m[3], 64)
		if errX != nil || errY != nil {
			continue
		}
		runs = append(runs, TextRun{X: x, Y: y, Color: m[1], Text: unescape(m[4])})
	}
	return runs
}

// FindRun returns the first run drawing exactly text.
func FindRun(runs []TextRun, text string) (TextRun, bool) {
	for _, r := range runs {
		if r.Text == text {
			return r, true
		}
	}
	return TextRun{}, false
}

func escape(text string) string {
	return strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`).Replace(text)
}

func unescape(text string) string {
	return strings.NewReplacer(`\\`, `\`, `\(`, `(`, `\)`, `)`).Replace(text)
}
