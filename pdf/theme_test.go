package pdf

import (
	"sort"
	"testing"
)

func TestThemeByName(t *testing.T) {
	p, ok := ThemeByName("")
	if !ok || p != DefaultPalette() {
		t.Fatalf("empty name should select the default palette")
	}
	if _, ok := ThemeByName("  Boring "); !ok {
		t.Fatalf("expected case-insensitive lookup")
	}
	if _, ok := ThemeByName("neon"); ok {
		t.Fatalf("unexpected palette for unknown name")
	}
}

func TestAvailableThemesSorted(t *testing.T) {
	names := AvailableThemes()
	if !sort.StringsAreSorted(names) {
		t.Fatalf("themes not sorted: %v", names)
	}
	for _, name := range names {
		p, ok := ThemeByName(name)
		if !ok {
			t.Fatalf("listed theme %q not found", name)
		}
		if p.TextInverse == p.Primary {
			t.Fatalf("theme %q: inverted text is invisible on the primary fill", name)
		}
	}
}
