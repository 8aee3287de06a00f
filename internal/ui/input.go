package ui

import (
	"path/filepath"

	"github.com/gdamore/tcell/v2"

	"github.com/interpretive-systems/prdiff/internal/editor"
	"github.com/interpretive-systems/prdiff/internal/prefs"
)

// handleEvent applies one terminal event to the app state. Anything
// requiring the outside world (editor, prefs) goes through the loop's
// hooks so tests can intercept it.
func (l *Loop) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		w, h := ev.Size()
		l.app.Resize(w, h)
		l.screen.Sync()
	case *tcell.EventKey:
		l.handleKey(ev)
	case *tcell.EventMouse:
		l.handleMouse(ev)
	}
}

func (l *Loop) handleKey(ev *tcell.EventKey) {
	a := l.app
	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		a.Quit()
		return
	case tcell.KeyDown:
		a.MoveCursor(1)
		return
	case tcell.KeyUp:
		a.MoveCursor(-1)
		return
	case tcell.KeyLeft:
		a.Collapse()
		return
	case tcell.KeyRight:
		a.Expand()
		return
	case tcell.KeyEnter:
		l.activateSelection()
		return
	case tcell.KeyRune:
	default:
		return
	}

	switch ev.Rune() {
	case 'q':
		a.Quit()
	case 'j':
		a.MoveCursor(1)
	case 'k':
		a.MoveCursor(-1)
	case 'J':
		a.ScrollDiff(3)
	case 'K':
		a.ScrollDiff(-3)
	case 'h':
		a.Collapse()
	case 'l':
		a.Expand()
	case ' ':
		a.ToggleExpand()
	case '<':
		a.AdjustSplit(-5)
		l.saveSplit()
	case '>':
		a.AdjustSplit(5)
		l.saveSplit()
	}
}

// activateSelection opens the selected file in the editor, or toggles a
// directory.
func (l *Loop) activateSelection() {
	a := l.app
	file := a.SelectedFile()
	if file == nil {
		a.ToggleExpand()
		return
	}
	if l.openEditor == nil {
		return
	}
	if err := l.openEditor(file.Path); err != nil {
		l.log.Warn("open editor", "path", file.Path, "err", err)
	}
}

func (l *Loop) saveSplit() {
	if l.savePrefs == nil {
		return
	}
	if err := l.savePrefs(l.app.SplitPercent()); err != nil {
		l.log.Warn("save split preference", "err", err)
	}
}

func (l *Loop) handleMouse(ev *tcell.EventMouse) {
	a := l.app
	x, y := ev.Position()
	lo := computeLayout(a.width, a.height, a.splitPercent)

	switch {
	case ev.Buttons()&tcell.WheelUp != 0:
		if x <= lo.treeW {
			a.MoveCursor(-1)
		} else {
			a.ScrollDiff(-3)
		}
	case ev.Buttons()&tcell.WheelDown != 0:
		if x <= lo.treeW {
			a.MoveCursor(1)
		} else {
			a.ScrollDiff(3)
		}
	case ev.Buttons()&tcell.Button1 != 0:
		if x < lo.treeW && y < lo.panelH {
			a.SetCursor(a.treeScroll + y)
		}
	}
}

// defaultEditorOpener builds the production editor hook. Paths in
// snapshots are repo-relative; the editor gets an absolute one.
func defaultEditorOpener(repoRoot, command string) func(path string) error {
	return func(path string) error {
		return editor.Open(command, filepath.Join(repoRoot, path), 1)
	}
}

// defaultPrefsSaver builds the production split-preference hook.
func defaultPrefsSaver(repoRoot string) func(percent int) error {
	return func(percent int) error {
		return prefs.SaveSplitPercent(repoRoot, percent)
	}
}
