// Package highlight turns classified diff lines into styled spans ready
// for the terminal. Code lines get per-token syntax colors; add/remove
// lines keep a tinted background underneath the tokens.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/x/ansi"
	"github.com/gdamore/tcell/v2"

	"github.com/interpretive-systems/prdiff/internal/diffview"
	"github.com/interpretive-systems/prdiff/internal/theme"
)

// Span is a run of text sharing one style.
type Span struct {
	Text  string
	Style tcell.Style
}

// Line is one fully styled diff line.
type Line struct {
	Spans []Span
}

// Highlighter styles diff lines for a single theme. Safe to reuse across
// files; the chroma lexer is re-matched per file.
type Highlighter struct {
	theme theme.Theme
	style *chroma.Style
}

// New builds a highlighter for the palette's configured chroma style,
// falling back to chroma's default when the name is unknown.
func New(t theme.Theme) *Highlighter {
	st := styles.Get(t.ChromaStyle)
	if st == nil {
		st = styles.Fallback
	}
	return &Highlighter{theme: t, style: st}
}

// File styles every line of one file's diff. The path selects the lexer.
func (h *Highlighter) File(path string, lines []diffview.Line) []Line {
	var lexer chroma.Lexer
	if l := lexers.Match(path); l != nil {
		lexer = chroma.Coalesce(l)
	}

	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = h.line(lexer, l)
	}
	return out
}

func (h *Highlighter) line(lexer chroma.Lexer, l diffview.Line) Line {
	text := ansi.Strip(l.Text)

	switch l.Kind {
	case diffview.KindHunk:
		st := tcell.StyleDefault.
			Foreground(h.theme.HunkFg).
			Background(h.theme.HunkBg)
		return Line{Spans: []Span{{Text: text, Style: st}}}
	case diffview.KindMeta:
		st := tcell.StyleDefault.
			Foreground(h.theme.MetaFg).
			Background(h.theme.Background)
		return Line{Spans: []Span{{Text: text, Style: st}}}
	}

	bg := h.theme.Background
	switch l.Kind {
	case diffview.KindAdd:
		bg = h.theme.AddedBg
	case diffview.KindDel:
		bg = h.theme.RemovedBg
	}
	code := ansi.Strip(l.Code())
	marker := strings.TrimSuffix(text, code)

	base := tcell.StyleDefault.Foreground(h.theme.Foreground).Background(bg)
	spans := []Span{{Text: marker, Style: base}}
	if lexer == nil || code == "" {
		spans = append(spans, Span{Text: code, Style: base})
		return Line{Spans: spans}
	}

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		spans = append(spans, Span{Text: code, Style: base})
		return Line{Spans: spans}
	}
	for _, tok := range it.Tokens() {
		spans = append(spans, Span{Text: tok.Value, Style: h.tokenStyle(tok.Type, bg)})
	}
	return Line{Spans: spans}
}

func (h *Highlighter) tokenStyle(t chroma.TokenType, bg tcell.Color) tcell.Style {
	entry := h.style.Get(t)
	st := tcell.StyleDefault.Foreground(h.theme.Foreground).Background(bg)
	if entry.Colour.IsSet() {
		c := entry.Colour
		st = st.Foreground(tcell.NewRGBColor(
			int32(c.Red()), int32(c.Green()), int32(c.Blue())))
	}
	if entry.Bold == chroma.Yes {
		st = st.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		st = st.Italic(true)
	}
	if entry.Underline == chroma.Yes {
		st = st.Underline(true)
	}
	return st
}
