// Package theme holds the color palettes and their per-repo overrides.
package theme

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
)

// Theme is the full palette for one appearance.
type Theme struct {
	Name string

	// Panel chrome.
	Background tcell.Color
	Foreground tcell.Color
	Border     tcell.Color
	Title      tcell.Color
	StatusBar  tcell.Color
	StatusText tcell.Color
	Dim        tcell.Color

	// Tree rows.
	Selected      tcell.Color
	DirName       tcell.Color
	AddedGlyph    tcell.Color
	ModifiedGlyph tcell.Color
	DeletedGlyph  tcell.Color
	RenamedGlyph  tcell.Color

	// Diff line backgrounds and accents.
	AddedBg   tcell.Color
	RemovedBg tcell.Color
	HunkBg    tcell.Color
	HunkFg    tcell.Color
	MetaFg    tcell.Color

	// ChromaStyle names the syntax highlighting style to pair with the
	// palette.
	ChromaStyle string
}

// Dark is the default palette.
func Dark() Theme {
	return Theme{
		Name:          "dark",
		Background:    tcell.NewRGBColor(0x1e, 0x1e, 0x1e),
		Foreground:    tcell.NewRGBColor(0xd4, 0xd4, 0xd4),
		Border:        tcell.NewRGBColor(0x50, 0x50, 0x50),
		Title:         tcell.NewRGBColor(0x9c, 0xdc, 0xfe),
		StatusBar:     tcell.NewRGBColor(0x2d, 0x2d, 0x2d),
		StatusText:    tcell.NewRGBColor(0xa0, 0xa0, 0xa0),
		Dim:           tcell.NewRGBColor(0x6a, 0x6a, 0x6a),
		Selected:      tcell.NewRGBColor(0x3c, 0x3c, 0x78),
		DirName:       tcell.NewRGBColor(0x9c, 0xdc, 0xfe),
		AddedGlyph:    tcell.NewRGBColor(0x6a, 0x99, 0x55),
		ModifiedGlyph: tcell.NewRGBColor(0xd7, 0xba, 0x7d),
		DeletedGlyph:  tcell.NewRGBColor(0xf4, 0x47, 0x47),
		RenamedGlyph:  tcell.NewRGBColor(0x9c, 0xdc, 0xfe),
		AddedBg:       tcell.NewRGBColor(0x2d, 0x4a, 0x2d),
		RemovedBg:     tcell.NewRGBColor(0x4a, 0x2d, 0x2d),
		HunkBg:        tcell.NewRGBColor(0x2d, 0x2d, 0x4a),
		HunkFg:        tcell.NewRGBColor(0x9c, 0xdc, 0xfe),
		MetaFg:        tcell.NewRGBColor(0x6a, 0x6a, 0x6a),
		ChromaStyle:   "monokai",
	}
}

// Light is the alternative palette for light terminals.
func Light() Theme {
	return Theme{
		Name:          "light",
		Background:    tcell.NewRGBColor(0xff, 0xff, 0xff),
		Foreground:    tcell.NewRGBColor(0x1e, 0x1e, 0x1e),
		Border:        tcell.NewRGBColor(0xb0, 0xb0, 0xb0),
		Title:         tcell.NewRGBColor(0x00, 0x50, 0xa0),
		StatusBar:     tcell.NewRGBColor(0xe8, 0xe8, 0xe8),
		StatusText:    tcell.NewRGBColor(0x50, 0x50, 0x50),
		Dim:           tcell.NewRGBColor(0x90, 0x90, 0x90),
		Selected:      tcell.NewRGBColor(0xcc, 0xdd, 0xff),
		DirName:       tcell.NewRGBColor(0x00, 0x50, 0xa0),
		AddedGlyph:    tcell.NewRGBColor(0x22, 0x77, 0x22),
		ModifiedGlyph: tcell.NewRGBColor(0x99, 0x66, 0x00),
		DeletedGlyph:  tcell.NewRGBColor(0xbb, 0x22, 0x22),
		RenamedGlyph:  tcell.NewRGBColor(0x00, 0x50, 0xa0),
		AddedBg:       tcell.NewRGBColor(0xdd, 0xf4, 0xdd),
		RemovedBg:     tcell.NewRGBColor(0xfa, 0xdd, 0xdd),
		HunkBg:        tcell.NewRGBColor(0xdd, 0xdd, 0xf4),
		HunkFg:        tcell.NewRGBColor(0x00, 0x50, 0xa0),
		MetaFg:        tcell.NewRGBColor(0x90, 0x90, 0x90),
		ChromaStyle:   "github",
	}
}

// ByName resolves a theme name, defaulting to dark.
func ByName(name string) Theme {
	if name == "light" {
		return Light()
	}
	return Dark()
}

// Resolve picks the theme from the first non-empty source: explicit
// choice, PRDIFF_THEME, saved preference, then the dark default.
func Resolve(explicit, saved string) Theme {
	for _, name := range []string{explicit, os.Getenv("PRDIFF_THEME"), saved} {
		if name != "" {
			return ByName(name)
		}
	}
	return Dark()
}

// overrides mirrors the optional .prdiff/theme.json file. Every field is
// a hex color string; absent fields keep the base palette value.
type overrides struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	Border     string `json:"border"`
	Selected   string `json:"selected"`
	AddedBg    string `json:"added_bg"`
	RemovedBg  string `json:"removed_bg"`
	HunkBg     string `json:"hunk_bg"`

	ChromaStyle string `json:"syntax_style"`
}

// LoadRepoOverrides merges .prdiff/theme.json from the repository root
// into t, if present. A missing file is not an error; a malformed one is.
func LoadRepoOverrides(t Theme, repoRoot string) (Theme, error) {
	path := filepath.Join(repoRoot, ".prdiff", "theme.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return t, err
	}
	var ov overrides
	if err := json.Unmarshal(data, &ov); err != nil {
		return t, fmt.Errorf("parse %s: %w", path, err)
	}
	apply := func(dst *tcell.Color, hex string) {
		if hex != "" {
			*dst = tcell.GetColor(hex)
		}
	}
	apply(&t.Background, ov.Background)
	apply(&t.Foreground, ov.Foreground)
	apply(&t.Border, ov.Border)
	apply(&t.Selected, ov.Selected)
	apply(&t.AddedBg, ov.AddedBg)
	apply(&t.RemovedBg, ov.RemovedBg)
	apply(&t.HunkBg, ov.HunkBg)
	if ov.ChromaStyle != "" {
		t.ChromaStyle = ov.ChromaStyle
	}
	return t, nil
}

// Base returns the default foreground-on-background style.
func (t Theme) Base() tcell.Style {
	return tcell.StyleDefault.Foreground(t.Foreground).Background(t.Background)
}
