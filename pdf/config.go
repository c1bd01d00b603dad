package pdf

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

var (
	ErrInvalidConfig  = errors.New("invalid render configuration")
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
)

// maxConfigBytes bounds config files read by LoadConfigFile.
const maxConfigBytes = 1 << 20

// Config holds PDF rendering settings. Lengths are millimetres, font sizes
// points. Zero values fall back to DefaultConfig when passed to Render or
// Generate.
type Config struct {
	PageSize     string  `yaml:"page_size"`
	MarginLeft   float64 `yaml:"margin_left"`
	MarginTop    float64 `yaml:"margin_top"`
	MarginRight  float64 `yaml:"margin_right"`
	MarginBottom float64 `yaml:"margin_bottom"`

	FontFamily    string  `yaml:"font_family"`
	FontSize      float64 `yaml:"font_size"`
	LineHeight    float64 `yaml:"line_height"`
	RegularFont   string  `yaml:"regular_font"`
	BoldFont      string  `yaml:"bold_font"`
	TableFontSize float64 `yaml:"table_font_size"`

	Theme        string `yaml:"theme"`
	Title        string `yaml:"title"`
	Confidential string `yaml:"confidential"`
	Author       string `yaml:"author"`

	OrphanDistance   float64 `yaml:"orphan_distance"`
	ListIndent       float64 `yaml:"list_indent"`
	ListStep         float64 `yaml:"list_step"`
	LabelChildIndent float64 `yaml:"label_child_indent"`
	FilenameMaxRunes int     `yaml:"filename_max_runes"`

	MinColumnWidth float64 `yaml:"min_column_width"`
	MaxCellWidth   float64 `yaml:"max_cell_width"`
	CellPadding    float64 `yaml:"cell_padding"`
	RowHeight      float64 `yaml:"row_height"`

	LogoPath      string  `yaml:"logo_path"`
	LogoMaxHeight float64 `yaml:"logo_max_height"`

	NoCompression bool `yaml:"no_compression"`
	Validate      bool `yaml:"validate"`

	// Logger receives per-element render failures. Nil means slog.Default().
	Logger *slog.Logger `yaml:"-"`
	// Now stamps the footer when metadata carries no generation time.
	Now func() time.Time `yaml:"-"`
}

// DefaultConfig returns a baseline configuration: A4 portrait, Helvetica
// 10pt body, 20mm side margins.
func DefaultConfig() Config {
	return Config{
		PageSize:         "A4",
		MarginLeft:       20,
		MarginTop:        25,
		MarginRight:      20,
		MarginBottom:     25,
		FontFamily:       "Helvetica",
		FontSize:         10,
		LineHeight:       5.5,
		TableFontSize:    9,
		Theme:            DefaultThemeName,
		Title:            "Clinical Summary Report",
		Confidential:     "CONFIDENTIAL",
		OrphanDistance:   32,
		ListIndent:       0,
		ListStep:         5,
		LabelChildIndent: 10,
		FilenameMaxRunes: 40,
		MinColumnWidth:   20,
		MaxCellWidth:     80,
		CellPadding:      8,
		RowHeight:        8,
		LogoMaxHeight:    14,
	}
}

// LoadConfigFile reads a YAML config file. Unknown keys are rejected. The
// result is not merged with DefaultConfig; Render does that.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML config data strictly.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if len(data) == 0 {
		return cfg, nil
	}
	if len(data) > maxConfigBytes {
		return Config{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrConfigParse, len(data), maxConfigBytes)
	}
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return cfg, nil
}

// Merge returns c with every non-zero field of override applied on top.
func (c Config) Merge(override Config) Config {
	applyConfig(&c, override)
	return c
}

func applyConfig(dst *Config, src Config) {
	if src.PageSize != "" {
		dst.PageSize = src.PageSize
	}
	if src.MarginLeft > 0 {
		dst.MarginLeft = src.MarginLeft
	}
	if src.MarginTop > 0 {
		dst.MarginTop = src.MarginTop
	}
	if src.MarginRight > 0 {
		dst.MarginRight = src.MarginRight
	}
	if src.MarginBottom > 0 {
		dst.MarginBottom = src.MarginBottom
	}
	if src.FontFamily != "" {
		dst.FontFamily = src.FontFamily
	}
	if src.FontSize > 0 {
		dst.FontSize = src.FontSize
	}
	if src.LineHeight > 0 {
		dst.LineHeight = src.LineHeight
	}
	if src.RegularFont != "" {
		dst.RegularFont = src.RegularFont
	}
	if src.BoldFont != "" {
		dst.BoldFont = src.BoldFont
	}
	if src.TableFontSize > 0 {
		dst.TableFontSize = src.TableFontSize
	}
	if src.Theme != "" {
		dst.Theme = src.Theme
	}
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Confidential != "" {
		dst.Confidential = src.Confidential
	}
	if src.Author != "" {
		dst.Author = src.Author
	}
	if src.OrphanDistance > 0 {
		dst.OrphanDistance = src.OrphanDistance
	}
	if src.ListIndent > 0 {
		dst.ListIndent = src.ListIndent
	}
	if src.ListStep > 0 {
		dst.ListStep = src.ListStep
	}
	if src.LabelChildIndent > 0 {
		dst.LabelChildIndent = src.LabelChildIndent
	}
	if src.FilenameMaxRunes > 0 {
		dst.FilenameMaxRunes = src.FilenameMaxRunes
	}
	if src.MinColumnWidth > 0 {
		dst.MinColumnWidth = src.MinColumnWidth
	}
	if src.MaxCellWidth > 0 {
		dst.MaxCellWidth = src.MaxCellWidth
	}
	if src.CellPadding > 0 {
		dst.CellPadding = src.CellPadding
	}
	if src.RowHeight > 0 {
		dst.RowHeight = src.RowHeight
	}
	if src.LogoPath != "" {
		dst.LogoPath = src.LogoPath
	}
	if src.LogoMaxHeight > 0 {
		dst.LogoMaxHeight = src.LogoMaxHeight
	}
	if src.NoCompression {
		dst.NoCompression = true
	}
	if src.Validate {
		dst.Validate = true
	}
	if src.Logger != nil {
		dst.Logger = src.Logger
	}
	if src.Now != nil {
		dst.Now = src.Now
	}
}

func (c Config) validate() error {
	if c.FontFamily == "" || c.FontSize <= 0 || c.LineHeight <= 0 || c.TableFontSize <= 0 {
		return fmt.Errorf("%w: invalid font configuration", ErrInvalidConfig)
	}
	hasRegular, hasBold := c.RegularFont != "", c.BoldFont != ""
	if hasRegular != hasBold {
		return fmt.Errorf("%w: regular_font and bold_font must be set together", ErrInvalidConfig)
	}
	if !hasRegular && !isCoreFont(c.FontFamily) {
		return fmt.Errorf("%w: core font family required when font paths are empty", ErrInvalidConfig)
	}
	if c.RowHeight <= 0 || c.MinColumnWidth <= 0 {
		return fmt.Errorf("%w: table row height and minimum column width must be positive", ErrInvalidConfig)
	}
	if c.LogoPath != "" {
		if err := validateImagePath(c.LogoPath); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

func isCoreFont(name string) bool {
	switch name {
	case "Courier", "Helvetica", "Arial", "Times":
		return true
	default:
		return false
	}
}
