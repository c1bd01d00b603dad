package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"pkt.systems/clinpdf"
	"pkt.systems/clinpdf/pdf/internal/pdfprobe"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 1, 14, 5, 0, 0, time.UTC)
}

func testConfig() Config {
	return Config{Now: fixedNow, Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}
}

func pageContents(t *testing.T, doc *Document) []string {
	t.Helper()
	pages, err := pdfprobe.PageContents(doc.Data)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(pages) != doc.Pages {
		t.Fatalf("pdfcpu sees %d pages, document reports %d", len(pages), doc.Pages)
	}
	return pages
}

func assertChrome(t *testing.T, pages []string) {
	t.Helper()
	for i, content := range pages {
		for _, want := range []string{
			"Clinical Summary Report",
			fmt.Sprintf("Page %d of %d", i+1, len(pages)),
			"CONFIDENTIAL",
			"Generated: 2024-03-01 14:05 UTC",
		} {
			if !pdfprobe.ShowsText(content, want) {
				t.Fatalf("page %d: missing %q", i+1, want)
			}
		}
	}
}

func TestGenerateEmptyDocument(t *testing.T) {
	doc, err := Generate(nil, clinpdf.Metadata{}, testConfig())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(doc.Data, []byte("%PDF")) {
		t.Fatalf("unexpected pdf header: %q", doc.Data[:8])
	}
	if doc.Pages != 1 {
		t.Fatalf("expected a single page, got %d", doc.Pages)
	}
	assertChrome(t, pageContents(t, doc))
}

func TestGenerateOnePageSummary(t *testing.T) {
	blocks := clinpdf.Parse("## Summary\n- item one\n- item two\n| A | B |\n|---|---|\n| 1 | 2 |\n")
	doc, err := Generate(blocks, clinpdf.Metadata{}, testConfig())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc.Pages != 1 {
		t.Fatalf("expected one page, got %d", doc.Pages)
	}
	pages := pageContents(t, doc)
	assertChrome(t, pages)
	for _, want := range []string{"SUMMARY", "item one", "item two", "A", "B", "1", "2"} {
		if !pdfprobe.ShowsText(pages[0], want) {
			t.Fatalf("missing %q", want)
		}
	}
}

func TestGeneratePageCountGrowsWithContent(t *testing.T) {
	paragraphs := func(n int) []clinpdf.Block {
		blocks := make([]clinpdf.Block, n)
		for i := range blocks {
			blocks[i] = clinpdf.Paragraph(fmt.Sprintf("Observation %d: vitals stable, patient comfortable on room air.", i))
		}
		return blocks
	}
	short, err := Generate(paragraphs(10), clinpdf.Metadata{}, testConfig())
	if err != nil {
		t.Fatalf("generate short: %v", err)
	}
	long, err := Generate(paragraphs(200), clinpdf.Metadata{}, testConfig())
	if err != nil {
		t.Fatalf("generate long: %v", err)
	}
	if short.Pages != 1 {
		t.Fatalf("expected 10 paragraphs on one page, got %d", short.Pages)
	}
	if long.Pages <= short.Pages {
		t.Fatalf("page count did not grow: %d -> %d", short.Pages, long.Pages)
	}
	pages := pageContents(t, long)
	assertChrome(t, pages)
	if !pdfprobe.ShowsText(pages[len(pages)-1], "Observation 199: vitals stable, patient comfortable on room air.") {
		t.Fatalf("last paragraph missing from last page")
	}
}

func TestGenerateLongParagraphCrossesPages(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("The patient tolerated the procedure well without complications. ", 400))
	doc, err := Generate([]clinpdf.Block{clinpdf.Paragraph(text)}, clinpdf.Metadata{}, testConfig())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc.Pages < 2 {
		t.Fatalf("expected wrapping to spill onto more pages, got %d", doc.Pages)
	}
	assertChrome(t, pageContents(t, doc))
}

func TestGenerateTableRepeatsHeaderOnEveryPage(t *testing.T) {
	rows := make([][]string, 90)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("Drug %d", i), "10 mg", "PO"}
	}
	doc, err := Generate([]clinpdf.Block{clinpdf.Table([]string{"Medication", "Dose", "Route"}, rows)}, clinpdf.Metadata{}, testConfig())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc.Pages < 3 {
		t.Fatalf("expected the table to span pages, got %d", doc.Pages)
	}
	pages := pageContents(t, doc)
	assertChrome(t, pages)
	for i, content := range pages {
		if !pdfprobe.ShowsText(content, "Medication") {
			t.Fatalf("page %d: header row not repeated", i+1)
		}
	}
	if !pdfprobe.ShowsText(pages[len(pages)-1], "Drug 89") {
		t.Fatalf("last row missing")
	}
}

func TestGenerateTruncatesWideCells(t *testing.T) {
	long := strings.Repeat("acetaminophen ", 40)
	doc, err := Generate([]clinpdf.Block{clinpdf.Table([]string{"Notes", "Dose"}, [][]string{{long, "650 mg"}})}, clinpdf.Metadata{}, testConfig())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	pages := pageContents(t, doc)
	if pdfprobe.ShowsText(pages[0], strings.TrimSpace(long)) {
		t.Fatalf("wide cell was drawn untruncated")
	}
	if !strings.Contains(pages[0], "...)Tj") {
		t.Fatalf("expected an ellipsis in the truncated cell")
	}
	if !pdfprobe.ShowsText(pages[0], "650 mg") {
		t.Fatalf("short cell missing")
	}
}

func TestGenerateSkipsFailingElements(t *testing.T) {
	var logs bytes.Buffer
	cfg := testConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	blocks := []clinpdf.Block{
		clinpdf.Paragraph("before"),
		{Kind: clinpdf.BlockKind(99), Text: "mystery"},
		{Kind: clinpdf.BlockTable},
		clinpdf.Paragraph("after"),
	}
	doc, err := Generate(blocks, clinpdf.Metadata{}, cfg)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	pages := pageContents(t, doc)
	for _, want := range []string{"before", "after"} {
		if !pdfprobe.ShowsText(pages[0], want) {
			t.Fatalf("missing %q", want)
		}
	}
	out := logs.String()
	for _, want := range []string{"element skipped", "index=1", "kind(99)", "index=2", "kind=table"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "index=0") || strings.Contains(out, "index=3") {
		t.Fatalf("healthy elements logged as failures: %q", out)
	}
}

func TestGenerateMetadataBox(t *testing.T) {
	tokens := int64(18234)
	cost := 0.002735
	meta := clinpdf.Metadata{
		Filename:   "clinic-visit.wav",
		TokenUsage: clinpdf.TokenUsage{TotalTokens: &tokens, EstimatedCostUSD: &cost},
	}
	doc, err := Generate(clinpdf.Parse("# Note\nBody"), meta, testConfig())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	pages := pageContents(t, doc)
	for _, want := range []string{"clinic-visit.wav", "Model: ", "GPT-4o-mini", "18,234", "$0.002735"} {
		if !pdfprobe.ShowsText(pages[0], want) {
			t.Fatalf("missing %q", want)
		}
	}
}

func TestFormatMetadataValues(t *testing.T) {
	cheap, dear := 0.0001234, 1.5
	if got := formatCost(&cheap); got != "$0.000123" {
		t.Fatalf("formatCost(cheap) = %q", got)
	}
	if got := formatCost(&dear); got != "$1.5000" {
		t.Fatalf("formatCost(dear) = %q", got)
	}
	if got := formatCost(nil); got != notReported {
		t.Fatalf("formatCost(nil) = %q", got)
	}
	n := int64(1234567)
	if got := formatTokens(&n); got != "1,234,567" {
		t.Fatalf("formatTokens = %q", got)
	}
	if got := modelName(""); got != defaultModel {
		t.Fatalf("modelName = %q", got)
	}
}

func TestDisplayFilename(t *testing.T) {
	if got := displayFilename("short.wav", 40); got != "short.wav" {
		t.Fatalf("short name changed: %q", got)
	}
	long := "ward-7-discharge-recording-2024-03-01-final-version.wav"
	got := displayFilename(long, 40)
	if len([]rune(got)) != 40 || !strings.HasSuffix(got, Ellipsis) || !strings.HasPrefix(long, strings.TrimSuffix(got, Ellipsis)) {
		t.Fatalf("unexpected truncation %q", got)
	}
}

func TestRenderSampleWithFrontMatter(t *testing.T) {
	src, err := os.ReadFile("testdata/discharge_summary.md")
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	cfg := testConfig()
	cfg.Validate = true
	var out bytes.Buffer
	if err := Render(RenderRequest{Reader: bytes.NewReader(src), Writer: &out, Config: cfg}); err != nil {
		t.Fatalf("render: %v", err)
	}
	pages, err := pdfprobe.PageContents(out.Bytes())
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	assertChrome(t, pages)
	first := pages[0]
	for _, want := range []string{
		displayFilename("ward-7-discharge-recording-2024-03-01-final-version.wav", 40),
		"gpt-4o-mini",
		"18,234",
		"PATIENT OVERVIEW",
		"Primary Diagnosis:",
	} {
		if !pdfprobe.ShowsText(first, want) {
			t.Fatalf("first page missing %q", want)
		}
	}
}

func TestRenderMarkdownString(t *testing.T) {
	var out bytes.Buffer
	err := Render(RenderRequest{Markdown: "Plain text", Writer: &out, Config: testConfig()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out.Bytes(), []byte("%PDF")) {
		t.Fatalf("not a pdf")
	}
	if err := Render(RenderRequest{Markdown: "x"}); err == nil {
		t.Fatalf("expected error for nil writer")
	}
}

func TestGenerateRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Theme = "neon"
	if _, err := Generate(nil, clinpdf.Metadata{}, cfg); !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
	cfg = testConfig()
	cfg.PageSize = "B99"
	if _, err := Generate(nil, clinpdf.Metadata{}, cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

var lineEnd = regexp.MustCompile(`[\d.]+ [\d.]+ m ([\d.]+) [\d.]+ l S`)

func TestGenerateOtherPageSizesAndThemes(t *testing.T) {
	blocks := clinpdf.Parse("# Title\n## Section\n### Sub\n#### Minor\nLabel: value\n**Heading only**\n  - nested\n3. third")
	pageWidths := map[string]float64{"A4": 595.28, "Letter": 612, "Legal": 612}
	for _, theme := range AvailableThemes() {
		palette, _ := ThemeByName(theme)
		for size, widthPt := range pageWidths {
			cfg := testConfig()
			cfg.Theme = theme
			cfg.PageSize = size
			cfg.Validate = true
			doc, err := Generate(blocks, clinpdf.Metadata{}, cfg)
			if err != nil {
				t.Fatalf("%s/%s: %v", theme, size, err)
			}
			pages := pageContents(t, doc)
			assertChrome(t, pages)
			for _, want := range []string{"Title", "SECTION", "Sub", "Minor", "Label:", "value", "Heading only", "nested", "3.", "third"} {
				if !pdfprobe.ShowsText(pages[0], want) {
					t.Fatalf("%s/%s: missing %q", theme, size, want)
				}
			}
			if !strings.Contains(pages[0], textColorOp(palette.PrimaryDark)) {
				t.Fatalf("%s/%s: theme colour not used", theme, size)
			}
			right := widthPt - DefaultConfig().MarginRight*ptPerMM
			found := false
			for _, m := range lineEnd.FindAllStringSubmatch(pages[0], -1) {
				if x, err := strconv.ParseFloat(m[1], 64); err == nil && math.Abs(x-right) < 0.02 {
					found = true
				}
			}
			if !found {
				t.Fatalf("%s/%s: no rule ends at the right margin (%.2fpt)", theme, size, right)
			}
		}
	}
}

func TestRenderKeepsSummaryFencedByRules(t *testing.T) {
	var out bytes.Buffer
	src := "---\n**Patient:** Jane Doe, 54\n**Allergies:** penicillin\n---\n## Summary\n- stable\n"
	if err := Render(RenderRequest{Markdown: src, Writer: &out, Config: testConfig()}); err != nil {
		t.Fatalf("render: %v", err)
	}
	pages, err := pdfprobe.PageContents(out.Bytes())
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	for _, want := range []string{"Patient:", "Jane Doe, 54", "Allergies:", "penicillin", "SUMMARY", "stable"} {
		if !pdfprobe.ShowsText(pages[0], want) {
			t.Fatalf("missing %q", want)
		}
	}
	if strings.Count(pages[0], "] 0.00 d") < 4 {
		t.Fatalf("expected both fence lines drawn as dashed rules")
	}
}

func TestGenerateIsRepeatable(t *testing.T) {
	meta := clinpdf.Metadata{Filename: "a.wav", GeneratedAt: fixedNow()}
	blocks := clinpdf.Parse("## Plan\n- rest\n| A | B |\n| 1 | 2 |\n")
	first, err := Generate(blocks, meta, testConfig())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := Generate(blocks, meta, testConfig())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	a, b := pageContents(t, first), pageContents(t, second)
	if strings.Join(a, "\f") != strings.Join(b, "\f") {
		t.Fatalf("page content differs between identical renders")
	}
}

func TestOrphanProtection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Now = fixedNow
	c, err := NewCanvas(cfg)
	if err != nil {
		t.Fatalf("canvas: %v", err)
	}
	r := newRenderer(c, cfg, DefaultPalette())
	c.AddPage()

	c.SetXY(c.Left(), c.Bottom()-20)
	r.renderBlocks([]clinpdf.Block{clinpdf.Paragraph("fits above the margin")})
	if c.Page() != 1 {
		t.Fatalf("short paragraph forced a page break")
	}

	c.SetXY(c.Left(), c.Bottom()-cfg.OrphanDistance+1)
	r.renderBlocks([]clinpdf.Block{clinpdf.Header(2, "Plan")})
	if c.Page() != 2 {
		t.Fatalf("header near the bottom stayed on page %d", c.Page())
	}
}
