package pdf

import (
	"errors"
	"sort"
	"strings"
)

// ErrUnknownTheme reports a theme name with no built-in palette.
var ErrUnknownTheme = errors.New("unknown theme")

// DefaultThemeName names the palette used when Config.Theme is empty.
const DefaultThemeName = "clinical"

// RGB is a colour with 0..255 components.
type RGB [3]int

// Palette holds the colours a rendered report draws with.
type Palette struct {
	Primary       RGB
	PrimaryDark   RGB
	TextPrimary   RGB
	TextSecondary RGB
	TextInverse   RGB
	Border        RGB
	Surface       RGB
	TableAlt      RGB
}

var builtinThemes = map[string]Palette{
	"clinical": {
		Primary:       RGB{0, 120, 212},
		PrimaryDark:   RGB{0, 69, 120},
		TextPrimary:   RGB{33, 33, 33},
		TextSecondary: RGB{97, 97, 97},
		TextInverse:   RGB{255, 255, 255},
		Border:        RGB{224, 224, 224},
		Surface:       RGB{250, 250, 250},
		TableAlt:      RGB{245, 245, 245},
	},
	"teal": {
		Primary:       RGB{0, 128, 128},
		PrimaryDark:   RGB{0, 77, 77},
		TextPrimary:   RGB{33, 33, 33},
		TextSecondary: RGB{96, 110, 110},
		TextInverse:   RGB{255, 255, 255},
		Border:        RGB{214, 228, 228},
		Surface:       RGB{247, 251, 251},
		TableAlt:      RGB{242, 247, 247},
	},
	// boring prints well on monochrome office printers.
	"boring": {
		Primary:       RGB{64, 64, 64},
		PrimaryDark:   RGB{0, 0, 0},
		TextPrimary:   RGB{0, 0, 0},
		TextSecondary: RGB{80, 80, 80},
		TextInverse:   RGB{255, 255, 255},
		Border:        RGB{192, 192, 192},
		Surface:       RGB{255, 255, 255},
		TableAlt:      RGB{248, 248, 248},
	},
}

// AvailableThemes returns the built-in theme names in sorted order.
func AvailableThemes() []string {
	names := make([]string, 0, len(builtinThemes))
	for name := range builtinThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ThemeByName returns a built-in palette by name. The empty name selects
// the default palette.
func ThemeByName(name string) (Palette, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		normalized = DefaultThemeName
	}
	p, ok := builtinThemes[normalized]
	return p, ok
}

// DefaultPalette returns the default built-in palette.
func DefaultPalette() Palette {
	return builtinThemes[DefaultThemeName]
}
