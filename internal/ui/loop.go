package ui

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/interpretive-systems/prdiff/internal/logging"
	"github.com/interpretive-systems/prdiff/internal/watcher"
)

// inputWait bounds how long one iteration blocks for input, so poller
// updates are never delayed by an idle keyboard.
const inputWait = 50 * time.Millisecond

// Loop is the main event loop. Every iteration runs the same four
// phases in order: handle input, drain pending updates, refresh the row
// cache, render if anything changed.
type Loop struct {
	screen  tcell.Screen
	app     *App
	updates <-chan watcher.Update
	loader  *diffLoader
	events  chan tcell.Event
	evQuit  chan struct{}
	cache   rowCache
	render  renderer
	log     logging.Logger

	openEditor func(path string) error
	savePrefs  func(percent int) error
}

// NewLoop wires the loop around an already-acquired screen.
func NewLoop(screen tcell.Screen, app *App, updates <-chan watcher.Update, loader *diffLoader, render renderer, log logging.Logger) *Loop {
	if log == nil {
		log = logging.Nop()
	}
	return &Loop{
		screen:  screen,
		app:     app,
		updates: updates,
		loader:  loader,
		events:  make(chan tcell.Event, 16),
		evQuit:  make(chan struct{}),
		render:  render,
		log:     log,
	}
}

// Run drives iterations until the app asks to quit. The screen must be
// initialized; the caller restores the terminal afterwards.
func (l *Loop) Run() {
	go l.screen.ChannelEvents(l.events, l.evQuit)
	w, h := l.screen.Size()
	l.app.Resize(w, h)

	for !l.app.quit {
		l.iterate()
	}
	close(l.evQuit)
}

// iterate runs one pass of the four phases.
func (l *Loop) iterate() {
	l.phaseInput()
	l.phaseUpdates()
	l.phaseCache()
	l.phaseRender()
}

// phaseInput blocks up to inputWait for the first event, then consumes
// whatever else is already queued without blocking.
func (l *Loop) phaseInput() {
	l.log.Debug("phase input")
	timer := time.NewTimer(inputWait)
	defer timer.Stop()
	select {
	case ev := <-l.events:
		if ev != nil {
			l.handleEvent(ev)
		}
	case <-timer.C:
		return
	}
	for {
		select {
		case ev := <-l.events:
			if ev != nil {
				l.handleEvent(ev)
			}
		default:
			return
		}
	}
}

// phaseUpdates drains the poller and loader channels without blocking.
// When several snapshots queued up, only the newest is applied. Health
// messages are honored in delivery order: a degraded message queued
// after the newest snapshot survives its application.
func (l *Loop) phaseUpdates() {
	l.log.Debug("phase updates")

	var latest *watcher.Update
	degradedAfter := false
	for {
		select {
		case u := <-l.updates:
			switch {
			case u.Snapshot != nil:
				if latest != nil {
					l.log.Debug("superseded queued snapshot")
					// Earlier queued snapshot is obsolete; its
					// invalidations still apply.
					l.app.invalidateDiffs(latest.Invalidation)
				}
				u := u
				latest = &u
				degradedAfter = false
			case u.Degraded:
				if latest == nil {
					l.app.SetDegraded(true)
				} else {
					degradedAfter = true
				}
			case u.Heartbeat:
				if latest == nil {
					l.app.SetDegraded(false)
				} else {
					degradedAfter = false
				}
				l.app.TouchPoll()
			}
			continue
		default:
		}
		break
	}
	if latest != nil {
		l.app.SetDegraded(degradedAfter)
		l.app.ApplySnapshot(latest.Snapshot, latest.Invalidation)
	}

	for {
		select {
		case res := <-l.loader.results:
			l.app.storeDiff(res.path, res.gen, res.source, res.lines, res.raw, res.err)
		default:
			return
		}
	}
}

// phaseCache refreshes the memoized rows and kicks off a diff load for
// the selection if none is cached.
func (l *Loop) phaseCache() {
	l.log.Debug("phase cache")
	if l.cache.refresh(l.app) {
		l.app.dirty = true
	}
	l.requestSelectedDiff()
}

func (l *Loop) requestSelectedDiff() {
	file := l.app.SelectedFile()
	if file == nil || l.app.diffFor(file.Path) != nil {
		return
	}
	req := diffRequest{
		path:      file.Path,
		mergeBase: l.app.snapshot.MergeBase,
		gen:       l.app.diffGen,
	}
	if l.loader.request(req) {
		l.app.markLoading(file.Path)
	}
}

// phaseRender draws a frame only when some earlier phase marked state
// dirty.
func (l *Loop) phaseRender() {
	if !l.app.dirty {
		return
	}
	l.log.Debug("phase render")
	l.render.draw(l.screen, l.app, l.cache.rows)
	l.app.dirty = false
}
