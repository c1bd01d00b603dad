package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"pkt.systems/clinpdf"
	"pkt.systems/clinpdf/pdf"
	"pkt.systems/version"
)

const (
	defaultWidth = 80
	maxInput     = 16 << 20
)

func init() {
	version.SetDefaultModule("pkt.systems/clinpdf")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	outPath      string
	metadataPath string
	configPath   string
	themeName    string
	pageSize     string
	title        string
	confidential string
	regularFont  string
	boldFont     string
	logoPath     string
	validate     bool
	listThemes   bool
	dump         bool
	width        int
	verbose      bool
	showVersion  bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	flags := pflag.NewFlagSet("clinpdf", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.outPath, "output", "o", "", "Output file instead of stdout")
	flags.StringVarP(&opts.metadataPath, "metadata", "m", "", "YAML or JSON metadata file (filename, model, generated_at, token_usage)")
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML render config file")
	flags.StringVarP(&opts.themeName, "theme", "t", "", "Theme name (see --list-themes)")
	flags.StringVar(&opts.pageSize, "page-size", "", "Page size: A4, Letter, Legal, A3, A5")
	flags.StringVar(&opts.title, "title", "", "Report title in the header band")
	flags.StringVar(&opts.confidential, "confidential", "", "Confidentiality marker in the footer")
	flags.StringVar(&opts.regularFont, "regular-font", "", "TTF path for the regular face")
	flags.StringVar(&opts.boldFont, "bold-font", "", "TTF path for the bold face")
	flags.StringVar(&opts.logoPath, "logo", "", "Logo image for the header band (PNG or JPEG)")
	flags.BoolVar(&opts.validate, "validate", false, "Validate the generated PDF with pdfcpu")
	flags.BoolVar(&opts.listThemes, "list-themes", false, "List available themes")
	flags.BoolVar(&opts.dump, "dump", false, "Print the parsed block outline instead of a PDF")
	flags.IntVarP(&opts.width, "width", "w", 0, "Outline width for --dump (0 uses terminal width if available)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug details to stderr")
	flags.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(stderr, version.Module(), version.Current())
		fmt.Fprintf(stderr, "Usage: clinpdf [flags] [inputs...]\n")
		fmt.Fprintln(stderr, "\nInputs are files, file:// or http(s):// URLs, concatenated in order.")
		fmt.Fprintln(stderr, "If no input is provided, Markdown is read from stdin.")
		fmt.Fprintln(stderr, "\nFlags:")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.showVersion {
		fmt.Fprintln(stdout, version.Module(), version.Current())
		return 0
	}
	if opts.listThemes {
		printThemes(stdout)
		return 0
	}
	if opts.themeName != "" {
		if _, ok := pdf.ThemeByName(opts.themeName); !ok {
			fmt.Fprintf(stderr, "unknown theme %q\n\n", opts.themeName)
			printThemes(stderr)
			return 2
		}
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	inputs := flags.Args()
	reader, closer, err := openInputs(inputs, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "open input: %v\n", err)
		return 1
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	src, err := io.ReadAll(io.LimitReader(reader, maxInput+1))
	if err != nil {
		fmt.Fprintf(stderr, "read input: %v\n", err)
		return 1
	}
	if len(src) > maxInput {
		fmt.Fprintf(stderr, "read input: input exceeds %d bytes\n", maxInput)
		return 1
	}
	if err := clinpdf.ValidateInput(src); err != nil {
		fmt.Fprintf(stderr, "invalid input: %v\n", err)
		return 1
	}
	doc := clinpdf.ParseDocument(src)
	logger.Debug("parsed input", "bytes", len(src), "blocks", len(doc.Blocks), "front_matter", len(doc.FrontMatter) > 0)

	if opts.dump {
		width := opts.width
		if width <= 0 {
			width = defaultWidth
			if opts.outPath == "" {
				width = terminalWidth(stdout, defaultWidth)
			}
		}
		var outline bytes.Buffer
		if err := dumpBlocks(&outline, doc.Blocks, width); err != nil {
			fmt.Fprintf(stderr, "dump: %v\n", err)
			return 1
		}
		if err := writeOutput(opts.outPath, stdout, outline.Bytes()); err != nil {
			fmt.Fprintf(stderr, "write outline: %v\n", err)
			return 1
		}
		return 0
	}

	if opts.outPath == "" && isTerminal(stdout) {
		fmt.Fprintln(stderr, "refusing to write PDF to terminal; use -o/--output")
		return 2
	}

	meta, err := loadMetadata(opts.metadataPath, doc, inputs)
	if err != nil {
		fmt.Fprintf(stderr, "metadata: %v\n", err)
		return 1
	}
	cfg, err := buildConfig(opts, logger)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	out, err := pdf.Generate(doc.Blocks, meta, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "render pdf: %v\n", err)
		return 1
	}
	if err := writeOutput(opts.outPath, stdout, out.Data); err != nil {
		fmt.Fprintf(stderr, "write pdf: %v\n", err)
		return 1
	}
	logger.Debug("wrote pdf", "pages", out.Pages, "bytes", len(out.Data))
	return 0
}

// loadMetadata prefers an explicit metadata file, then front matter. A
// single input file names the report when no filename is given.
func loadMetadata(path string, doc clinpdf.Document, inputs []string) (clinpdf.Metadata, error) {
	var meta clinpdf.Metadata
	var err error
	if path != "" {
		data, readErr := os.ReadFile(normalizePath(path))
		if readErr != nil {
			return meta, readErr
		}
		meta, err = clinpdf.DecodeMetadata(data)
	} else {
		meta, err = doc.Metadata()
	}
	if err != nil {
		return meta, err
	}
	if meta.Filename == "" && len(inputs) == 1 {
		meta.Filename = inputName(inputs[0])
	}
	return meta, nil
}

func inputName(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Path != "" {
		return filepath.Base(u.Path)
	}
	return filepath.Base(raw)
}

func buildConfig(opts options, logger *slog.Logger) (pdf.Config, error) {
	var cfg pdf.Config
	if opts.configPath != "" {
		loaded, err := pdf.LoadConfigFile(normalizePath(opts.configPath))
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	reg, bold := strings.TrimSpace(opts.regularFont), strings.TrimSpace(opts.boldFont)
	if reg != "" || bold != "" {
		if reg == "" || bold == "" {
			return cfg, fmt.Errorf("regular and bold fonts must both be provided")
		}
		reg, bold = normalizePath(reg), normalizePath(bold)
		cfg.FontFamily = "clinpdf"
	}
	logo := strings.TrimSpace(opts.logoPath)
	if logo != "" {
		logo = normalizePath(logo)
	}
	cfg = cfg.Merge(pdf.Config{
		Theme:        opts.themeName,
		PageSize:     opts.pageSize,
		Title:        opts.title,
		Confidential: opts.confidential,
		RegularFont:  reg,
		BoldFont:     bold,
		LogoPath:     logo,
		Validate:     opts.validate,
		Logger:       logger,
	})
	return cfg, nil
}

func printThemes(w io.Writer) {
	for _, name := range pdf.AvailableThemes() {
		fmt.Fprintln(w, name)
	}
}

// dumpBlocks writes a plain-text outline of blocks wrapped to width.
func dumpBlocks(w io.Writer, blocks []clinpdf.Block, width int) error {
	var buf bytes.Buffer
	for _, b := range blocks {
		pad, text := describeBlock(b)
		limit := width - pad
		if limit < 20 {
			limit = 20
		}
		buf.WriteString(indent.String(wordwrap.String(text, limit), uint(pad)))
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func describeBlock(b clinpdf.Block) (int, string) {
	switch b.Kind {
	case clinpdf.BlockHeader:
		if b.Number != "" {
			return 0, strings.Repeat("#", b.Level) + " " + b.Number + ". " + b.Text
		}
		return 0, strings.Repeat("#", b.Level) + " " + b.Text
	case clinpdf.BlockRule:
		return 0, "---"
	case clinpdf.BlockBullet:
		return 2 * b.NestingLevel(), "- " + b.Text
	case clinpdf.BlockNumbered:
		return 0, b.Number + ". " + b.Text
	case clinpdf.BlockLabel:
		if b.Value == "" {
			return 0, "[" + b.Label + "]"
		}
		return 0, b.Label + ": " + b.Value
	case clinpdf.BlockTable:
		var sb strings.Builder
		fmt.Fprintf(&sb, "table %dx%d\n", b.Columns(), len(b.Rows))
		sb.WriteString("| " + strings.Join(b.Headers, " | ") + " |")
		for _, row := range b.Rows {
			sb.WriteString("\n| " + strings.Join(row, " | ") + " |")
		}
		return 2, sb.String()
	default:
		return 0, b.Text
	}
}

func terminalWidth(w io.Writer, fallback int) int {
	if f, ok := w.(*os.File); ok {
		fd := int(f.Fd())
		if term.IsTerminal(fd) {
			if width, _, err := term.GetSize(fd); err == nil && width > 0 {
				return width
			}
		}
	}
	return fallback
}

type inputSource struct {
	open func() (io.Reader, io.Closer, error)
}

type multiInputReader struct {
	sources   []inputSource
	idx       int
	cur       io.Reader
	curCloser io.Closer
	closed    bool
}

func (m *multiInputReader) Read(p []byte) (int, error) {
	for {
		if m.closed {
			return 0, io.EOF
		}
		if m.cur == nil {
			if m.idx >= len(m.sources) {
				m.closed = true
				return 0, io.EOF
			}
			reader, closer, err := m.sources[m.idx].open()
			if err != nil {
				return 0, err
			}
			m.cur = reader
			m.curCloser = closer
			m.idx++
		}
		n, err := m.cur.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == io.EOF {
			if m.curCloser != nil {
				_ = m.curCloser.Close()
			}
			m.cur = nil
			m.curCloser = nil
			continue
		}
		if err != nil {
			return 0, err
		}
	}
}

func (m *multiInputReader) Close() error {
	m.closed = true
	if m.curCloser != nil {
		return m.curCloser.Close()
	}
	return nil
}

func openInputs(args []string, stdin io.Reader) (io.Reader, io.Closer, error) {
	if len(args) == 0 {
		return stdin, nil, nil
	}
	sources := make([]inputSource, 0, len(args))
	for _, raw := range args {
		src, err := makeInputSource(raw)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, src)
	}
	m := &multiInputReader{sources: sources}
	return m, m, nil
}

func makeInputSource(raw string) (inputSource, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return inputSource{}, fmt.Errorf("empty input argument")
	}
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return inputSource{open: func() (io.Reader, io.Closer, error) {
				return openURL(raw)
			}}, nil
		case "file":
			path := u.Path
			if path == "" {
				path = u.Host
			}
			if unescaped, err := url.PathUnescape(path); err == nil {
				path = unescaped
			}
			return inputSource{open: func() (io.Reader, io.Closer, error) {
				return openFile(path)
			}}, nil
		}
	}
	return inputSource{open: func() (io.Reader, io.Closer, error) {
		return openFile(raw)
	}}, nil
}

func openURL(raw string) (io.Reader, io.Closer, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, raw, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("http %s: %s", raw, resp.Status)
	}
	return resp.Body, resp.Body, nil
}

func openFile(path string) (io.Reader, io.Closer, error) {
	f, err := os.Open(normalizePath(path))
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

// writeOutput writes data to path, or to stdout when path is empty. Callers
// render first; the file is created only once data is complete.
func writeOutput(path string, stdout io.Writer, data []byte) error {
	w, closer, err := resolveOutput(path, stdout)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return err
	}
	if closer != nil {
		return closer.Close()
	}
	return nil
}

func resolveOutput(path string, stdout io.Writer) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return stdout, nil, nil
	}
	clean := normalizePath(path)
	dir := filepath.Dir(clean)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		return abs
	}
	return path
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
