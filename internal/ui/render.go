package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/interpretive-systems/prdiff/internal/theme"
	"github.com/interpretive-systems/prdiff/internal/tree"
)

const loadingPlaceholder = "Loading diff…"

// layout is the frame geometry shared by the renderer and mouse
// hit-testing.
type layout struct {
	treeW  int
	panelH int
}

func computeLayout(w, h, splitPercent int) layout {
	treeW := w * splitPercent / 100
	if treeW < 20 {
		treeW = min(20, w/2)
	}
	if treeW > w-10 {
		treeW = w - 10
	}
	return layout{treeW: treeW, panelH: h - 1}
}

// renderer paints the whole screen from App state. It owns no state of
// its own beyond the palette.
type renderer struct {
	theme theme.Theme
}

// draw paints one frame: tree panel, divider, diff panel, status bar.
func (r *renderer) draw(s tcell.Screen, a *App, rows []tree.Row) {
	w, h := a.width, a.height
	if w <= 0 || h <= 0 {
		return
	}
	s.Fill(' ', r.theme.Base())

	lo := computeLayout(w, h, a.splitPercent)
	r.drawTree(s, a, rows, 0, 0, lo.treeW, lo.panelH)
	r.drawDivider(s, lo.treeW, lo.panelH)
	r.drawDiff(s, a, lo.treeW+1, 0, w-lo.treeW-1, lo.panelH)
	r.drawStatus(s, a, h-1, w)
	s.Show()
}

func (r *renderer) drawTree(s tcell.Screen, a *App, rows []tree.Row, x, y, w, h int) {
	if h <= 0 || w <= 0 {
		return
	}
	// Keep the cursor in view.
	if a.cursor < a.treeScroll {
		a.treeScroll = a.cursor
	}
	if a.cursor >= a.treeScroll+h {
		a.treeScroll = a.cursor - h + 1
	}
	if a.treeScroll < 0 {
		a.treeScroll = 0
	}

	base := r.theme.Base()
	for i := 0; i < h; i++ {
		ri := a.treeScroll + i
		if ri >= len(rows) {
			break
		}
		row := rows[ri]
		style := base
		if ri == a.cursor {
			style = style.Background(r.theme.Selected)
			fillRow(s, x, y+i, w, style)
		}
		r.drawTreeRow(s, row, x, y+i, w, style, ri == a.cursor)
	}
	if len(rows) > h {
		drawScrollbar(s, x+w-1, y, h, a.treeScroll, len(rows), r.theme)
	}
}

func (r *renderer) drawTreeRow(s tcell.Screen, row tree.Row, x, y, w int, base tcell.Style, selected bool) {
	indent := strings.Repeat("  ", row.Depth)
	n := row.Node

	cx := x
	cx = drawText(s, cx, y, x+w, base, indent)
	if n.IsDir() {
		cx = drawText(s, cx, y, x+w, base.Foreground(r.theme.DirName), dirArrow(row)+" "+n.Name)
		return
	}

	glyphStyle := base
	switch n.File.Status.Glyph() {
	case "+":
		glyphStyle = glyphStyle.Foreground(r.theme.AddedGlyph)
	case "-":
		glyphStyle = glyphStyle.Foreground(r.theme.DeletedGlyph)
	case "→":
		glyphStyle = glyphStyle.Foreground(r.theme.RenamedGlyph)
	default:
		glyphStyle = glyphStyle.Foreground(r.theme.ModifiedGlyph)
	}
	cx = drawText(s, cx, y, x+w, glyphStyle, n.File.Status.Glyph()+" ")
	cx = drawText(s, cx, y, x+w, base, n.Name)

	counts := fmt.Sprintf("+%d -%d", n.File.Additions, n.File.Deletions)
	cw := runewidth.StringWidth(counts)
	if cx < x+w-cw-1 {
		countStyle := base.Foreground(r.theme.Dim)
		if selected {
			countStyle = base
		}
		drawText(s, x+w-cw-1, y, x+w, countStyle, counts)
	}
}

func (r *renderer) drawDivider(s tcell.Screen, x, h int) {
	style := tcell.StyleDefault.Foreground(r.theme.Border).Background(r.theme.Background)
	for y := 0; y < h; y++ {
		s.SetContent(x, y, '│', nil, style)
	}
}

func (r *renderer) drawDiff(s tcell.Screen, a *App, x, y, w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	base := r.theme.Base()
	file := a.SelectedFile()
	if file == nil {
		drawText(s, x+1, y, x+w, base.Foreground(r.theme.Dim), "select a file")
		return
	}

	st := a.diffFor(file.Path)
	title := file.Path
	if st != nil && !st.loading && st.err == nil {
		title = fmt.Sprintf("%s (%s)", file.Path, st.source)
	}
	drawText(s, x+1, y, x+w, base.Foreground(r.theme.Title).Bold(true), title)

	bodyY, bodyH := y+1, h-1
	switch {
	case st == nil || st.loading:
		drawText(s, x+1, bodyY, x+w, base.Foreground(r.theme.Dim), loadingPlaceholder)
		return
	case st.err != nil:
		drawText(s, x+1, bodyY, x+w, base.Foreground(r.theme.DeletedGlyph), "error: "+st.err.Error())
		return
	}

	// Clamp the scroll against actual content.
	maxScroll := len(st.lines) - bodyH
	if maxScroll < 0 {
		maxScroll = 0
	}
	if a.diffScroll > maxScroll {
		a.diffScroll = maxScroll
	}

	for i := 0; i < bodyH; i++ {
		li := a.diffScroll + i
		if li >= len(st.lines) {
			break
		}
		cx := x
		for _, span := range st.lines[li].Spans {
			cx = drawText(s, cx, bodyY+i, x+w, span.Style, span.Text)
			if cx >= x+w {
				break
			}
		}
	}
	if len(st.lines) > bodyH {
		drawScrollbar(s, x+w-1, bodyY, bodyH, a.diffScroll, len(st.lines), r.theme)
	}
}

func (r *renderer) drawStatus(s tcell.Screen, a *App, y, w int) {
	style := tcell.StyleDefault.
		Foreground(r.theme.StatusText).
		Background(r.theme.StatusBar)
	fillRow(s, 0, y, w, style)

	left := " j/k move  J/K scroll  space toggle  enter open  </> split  q quit"
	drawText(s, 0, y, w, style, left)

	mb := a.snapshot.MergeBase
	if len(mb) > 7 {
		mb = mb[:7]
	}
	right := fmt.Sprintf("%s @ %s  %s ", a.snapshot.BaseBranch, mb, a.lastPoll.Format("15:04:05"))
	if a.degraded {
		right = "DEGRADED  " + right
	}
	rw := runewidth.StringWidth(right)
	if rw < w {
		st := style
		if a.degraded {
			st = st.Foreground(r.theme.DeletedGlyph).Bold(true)
		}
		drawText(s, w-rw, y, w, st, right)
	}
}

// dirArrow returns the open/closed marker for a directory row.
func dirArrow(row tree.Row) string {
	if row.Expanded {
		return "▼"
	}
	return "▶"
}

// drawText writes text at (x, y), clipping at maxX, and returns the next
// free column.
func drawText(s tcell.Screen, x, y, maxX int, style tcell.Style, text string) int {
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			w = 1
		}
		if x+w > maxX {
			break
		}
		s.SetContent(x, y, r, nil, style)
		x += w
	}
	return x
}

func fillRow(s tcell.Screen, x, y, w int, style tcell.Style) {
	for i := 0; i < w; i++ {
		s.SetContent(x+i, y, ' ', nil, style)
	}
}

// drawScrollbar paints a proportional thumb in the rightmost column.
func drawScrollbar(s tcell.Screen, x, y, h, offset, total int, th theme.Theme) {
	if total <= h || h <= 0 {
		return
	}
	thumbH := h * h / total
	if thumbH < 1 {
		thumbH = 1
	}
	thumbY := offset * (h - thumbH) / (total - h)
	style := tcell.StyleDefault.Foreground(th.Border).Background(th.Background)
	for i := 0; i < h; i++ {
		ch := '░'
		if i >= thumbY && i < thumbY+thumbH {
			ch = '█'
		}
		s.SetContent(x, y+i, ch, nil, style)
	}
}
