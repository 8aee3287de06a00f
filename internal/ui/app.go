package ui

import (
	"time"

	"github.com/interpretive-systems/prdiff/internal/diffview"
	"github.com/interpretive-systems/prdiff/internal/gitx"
	"github.com/interpretive-systems/prdiff/internal/highlight"
	"github.com/interpretive-systems/prdiff/internal/tree"
)

const (
	minSplitPercent     = 10
	maxSplitPercent     = 90
	defaultSplitPercent = 30
)

// diffState is a cached per-file diff in one of two phases: requested
// but not yet loaded, or ready.
type diffState struct {
	loading bool
	gen     uint64
	source  gitx.DiffSource
	lines   []highlight.Line
	adds    int
	dels    int
	err     error
}

// App is all view state. It is owned by the main loop goroutine and
// never touched by anyone else.
type App struct {
	snapshot *gitx.Snapshot
	nodes    []*tree.Node
	expanded map[string]bool

	cursor     int
	treeScroll int
	diffScroll int

	splitPercent int
	width        int
	height       int

	// treeVersion advances whenever visible tree rows may differ;
	// layoutVersion whenever geometry may differ. The row cache keys on
	// the pair.
	treeVersion   uint64
	layoutVersion uint64

	diffs   map[string]*diffState
	diffGen uint64

	degraded bool
	lastPoll time.Time
	dirty    bool

	quit bool
}

// NewApp builds the view state around the initial snapshot, with every
// directory expanded.
func NewApp(snap *gitx.Snapshot, splitPercent int) *App {
	if splitPercent < minSplitPercent || splitPercent > maxSplitPercent {
		splitPercent = defaultSplitPercent
	}
	a := &App{
		expanded:     map[string]bool{},
		splitPercent: splitPercent,
		diffs:        map[string]*diffState{},
		lastPoll:     time.Now(),
		dirty:        true,
	}
	a.ApplySnapshot(snap, gitx.Invalidation{All: true})
	return a
}

// ApplySnapshot replaces the current repository state. Expansion state
// and the cursor survive by path: directories that still exist keep
// their expanded flag, new directories start expanded, and the cursor
// follows the previously selected path when it still exists.
func (a *App) ApplySnapshot(snap *gitx.Snapshot, inv gitx.Invalidation) {
	var selectedPath string
	if row, ok := a.selectedRow(); ok {
		selectedPath = row.Node.Path
	}

	a.snapshot = snap
	a.nodes = tree.Build(snap.Files)

	next := map[string]bool{}
	for _, dir := range tree.DirPaths(a.nodes) {
		if was, seen := a.expanded[dir]; seen {
			next[dir] = was
		} else {
			next[dir] = true
		}
	}
	a.expanded = next

	a.invalidateDiffs(inv)
	a.treeVersion++
	a.dirty = true
	a.lastPoll = time.Now()

	if selectedPath != "" {
		a.moveCursorToPath(selectedPath)
	}
	a.clampCursor()
}

func (a *App) invalidateDiffs(inv gitx.Invalidation) {
	if inv.All {
		a.diffGen++
		a.diffs = map[string]*diffState{}
		return
	}
	for _, p := range inv.Paths {
		delete(a.diffs, p)
	}
	if len(inv.Paths) > 0 {
		a.diffGen++
	}
}

// Rows returns the current visible rows. Callers on the hot path go
// through the row cache instead.
func (a *App) Rows() []tree.Row {
	return tree.Visible(a.nodes, a.expanded)
}

func (a *App) selectedRow() (tree.Row, bool) {
	rows := a.Rows()
	if a.cursor < 0 || a.cursor >= len(rows) {
		return tree.Row{}, false
	}
	return rows[a.cursor], true
}

// SelectedFile returns the file entry under the cursor, or nil when a
// directory is selected.
func (a *App) SelectedFile() *gitx.FileEntry {
	row, ok := a.selectedRow()
	if !ok {
		return nil
	}
	return row.Node.File
}

func (a *App) moveCursorToPath(path string) {
	for i, row := range a.Rows() {
		if row.Node.Path == path {
			a.cursor = i
			return
		}
	}
}

func (a *App) clampCursor() {
	n := len(a.Rows())
	if n == 0 {
		a.cursor = 0
		return
	}
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// MoveCursor moves the selection by delta, clamped to the row range, and
// resets the diff scroll when the selection changes.
func (a *App) MoveCursor(delta int) {
	prev := a.cursor
	a.cursor += delta
	a.clampCursor()
	if a.cursor != prev {
		a.diffScroll = 0
		a.dirty = true
	}
}

// SetCursor selects an absolute row, used by mouse clicks.
func (a *App) SetCursor(row int) {
	prev := a.cursor
	a.cursor = row
	a.clampCursor()
	if a.cursor != prev {
		a.diffScroll = 0
		a.dirty = true
	}
}

// ToggleExpand flips the expansion of the selected directory.
func (a *App) ToggleExpand() {
	row, ok := a.selectedRow()
	if !ok || !row.Node.IsDir() {
		return
	}
	a.expanded[row.Node.Path] = !a.expanded[row.Node.Path]
	a.treeVersion++
	a.dirty = true
	a.clampCursor()
}

// Collapse collapses the selected directory, or jumps to the parent when
// the selection is a file or an already-collapsed directory.
func (a *App) Collapse() {
	row, ok := a.selectedRow()
	if !ok {
		return
	}
	if row.Node.IsDir() && a.expanded[row.Node.Path] {
		a.expanded[row.Node.Path] = false
		a.treeVersion++
		a.dirty = true
		return
	}
	// Walk up to the nearest shallower directory row.
	rows := a.Rows()
	for i := a.cursor - 1; i >= 0; i-- {
		if rows[i].Depth < row.Depth {
			a.cursor = i
			a.diffScroll = 0
			a.dirty = true
			return
		}
	}
}

// Expand expands the selected directory.
func (a *App) Expand() {
	row, ok := a.selectedRow()
	if !ok || !row.Node.IsDir() {
		return
	}
	if !a.expanded[row.Node.Path] {
		a.expanded[row.Node.Path] = true
		a.treeVersion++
		a.dirty = true
	}
}

// ScrollDiff moves the diff viewport by delta lines; clamping to content
// happens at render time.
func (a *App) ScrollDiff(delta int) {
	a.diffScroll += delta
	if a.diffScroll < 0 {
		a.diffScroll = 0
	}
	a.dirty = true
}

// Resize records the new terminal geometry.
func (a *App) Resize(w, h int) {
	if w == a.width && h == a.height {
		return
	}
	a.width, a.height = w, h
	a.layoutVersion++
	a.dirty = true
}

// AdjustSplit moves the tree/diff divider by delta percentage points.
func (a *App) AdjustSplit(delta int) {
	next := a.splitPercent + delta
	if next < minSplitPercent {
		next = minSplitPercent
	}
	if next > maxSplitPercent {
		next = maxSplitPercent
	}
	if next != a.splitPercent {
		a.splitPercent = next
		a.layoutVersion++
		a.dirty = true
	}
}

// SplitPercent returns the current divider position.
func (a *App) SplitPercent() int { return a.splitPercent }

// SetDegraded records poller health; the status line shows it.
func (a *App) SetDegraded(v bool) {
	if a.degraded != v {
		a.degraded = v
		a.dirty = true
	}
}

// TouchPoll records poller liveness for the status line.
func (a *App) TouchPoll() {
	a.lastPoll = time.Now()
	a.dirty = true
}

// Quit asks the main loop to exit after the current iteration.
func (a *App) Quit() { a.quit = true }

// diffFor returns the cached diff state for a path, or nil when no load
// has been requested yet.
func (a *App) diffFor(path string) *diffState { return a.diffs[path] }

// markLoading records that a load is in flight for path under the
// current generation.
func (a *App) markLoading(path string) {
	a.diffs[path] = &diffState{loading: true, gen: a.diffGen}
}

// storeDiff installs a completed load, unless invalidation advanced the
// generation while it was in flight.
func (a *App) storeDiff(path string, gen uint64, source gitx.DiffSource, lines []highlight.Line, raw []diffview.Line, err error) bool {
	if gen != a.diffGen {
		return false
	}
	adds, dels := diffview.Stats(raw)
	a.diffs[path] = &diffState{
		gen:    gen,
		source: source,
		lines:  lines,
		adds:   adds,
		dels:   dels,
		err:    err,
	}
	a.dirty = true
	return true
}
