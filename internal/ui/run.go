// Package ui owns the terminal session: the full-screen guard, the main
// event loop, rendering, and the background helpers feeding it.
package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/interpretive-systems/prdiff/internal/gitx"
	"github.com/interpretive-systems/prdiff/internal/highlight"
	"github.com/interpretive-systems/prdiff/internal/logging"
	"github.com/interpretive-systems/prdiff/internal/theme"
	"github.com/interpretive-systems/prdiff/internal/watcher"
)

// Options carries everything Run needs from the command layer.
type Options struct {
	Reader       *gitx.Reader
	Initial      *gitx.Snapshot
	Theme        theme.Theme
	EditorCmd    string
	SplitPercent int
	Poll         watcher.Config
	Log          logging.Logger
}

// Run enters the terminal session and blocks until the user quits. The
// terminal is restored before Run returns, including on error paths.
func Run(opts Options) error {
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}

	guard := NewSessionGuard(screen, log)
	if err := guard.Acquire(); err != nil {
		return err
	}
	defer guard.Release()

	w := watcher.New(opts.Reader, opts.Initial, opts.Poll, log)
	// The poller stops before the terminal is restored.
	defer w.Stop()

	loader := newDiffLoader(opts.Reader, highlight.New(opts.Theme), log)
	defer loader.close()

	app := NewApp(opts.Initial, opts.SplitPercent)
	loop := NewLoop(screen, app, w.Updates(), loader, renderer{theme: opts.Theme}, log)
	loop.openEditor = defaultEditorOpener(opts.Reader.RepoRoot, opts.EditorCmd)
	loop.savePrefs = defaultPrefsSaver(opts.Reader.RepoRoot)

	log.Info("session started",
		"base", opts.Initial.BaseBranch,
		"files", len(opts.Initial.Files))
	loop.Run()
	log.Info("session ended")
	return nil
}
