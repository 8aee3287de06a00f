// Package watcher runs the background repository poller. It owns the
// only goroutine besides the UI loop; the two communicate exclusively
// through the update channel, and every message is fully owned by the
// channel until received.
package watcher

import (
	"fmt"
	"time"

	"github.com/interpretive-systems/prdiff/internal/gitx"
	"github.com/interpretive-systems/prdiff/internal/logging"
)

// Source produces repository snapshots. Read returns (nil, nil) when the
// repository fingerprint still matches prev.
type Source interface {
	Read(prev *gitx.Fingerprint) (*gitx.Snapshot, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(prev *gitx.Fingerprint) (*gitx.Snapshot, error)

func (f SourceFunc) Read(prev *gitx.Fingerprint) (*gitx.Snapshot, error) { return f(prev) }

// Update is the message sent from the poller to the UI loop. Exactly one
// of Snapshot, Heartbeat, or Degraded describes the payload; the poller
// retains no reference to the snapshot after sending.
type Update struct {
	// Snapshot is the new repository state; nil for heartbeat and
	// degraded updates.
	Snapshot *gitx.Snapshot

	// Invalidation tells the receiver which cached per-file diffs the
	// transition made stale. Meaningful only when Snapshot is set.
	Invalidation gitx.Invalidation

	// Heartbeat marks a liveness message carrying no state change.
	Heartbeat bool

	// Degraded marks the transition into (true) or out of (false) the
	// degraded state after repeated read failures. Err carries the last
	// failure when entering.
	Degraded bool
	Err      error
}

// Config tunes the poller. Zero values fall back to the defaults.
type Config struct {
	// Interval between repository probes.
	Interval time.Duration
	// FailureThreshold is the number of consecutive read failures
	// before a single degraded update is emitted.
	FailureThreshold int
	// Heartbeat is the cadence of liveness updates; 0 disables them.
	Heartbeat time.Duration
}

const (
	// DefaultInterval is the poll cadence.
	DefaultInterval = 200 * time.Millisecond
	// DefaultFailureThreshold tolerates ~1s of failures at the default
	// cadence before the UI is told.
	DefaultFailureThreshold = 5
	// DefaultHeartbeat is the liveness cadence.
	DefaultHeartbeat = 5 * time.Second
)

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	return c
}

// Watcher polls a Source on a fixed interval and emits an Update only
// when the repository actually changed.
type Watcher struct {
	source  Source
	cfg     Config
	log     logging.Logger
	updates chan Update
	stop    chan struct{}
	done    chan struct{}
}

// New creates a watcher seeded with the fingerprint of the initial
// snapshot, so startup state is never re-announced.
func New(source Source, initial *gitx.Snapshot, cfg Config, log logging.Logger) *Watcher {
	if log == nil {
		log = logging.Nop()
	}
	w := &Watcher{
		source:  source,
		cfg:     cfg.withDefaults(),
		log:     log,
		updates: make(chan Update, 8),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run(initial)
	return w
}

// Updates returns the receive side of the update channel. There is
// exactly one consumer: the UI loop.
func (w *Watcher) Updates() <-chan Update { return w.updates }

// Stop signals the poll loop and joins it. Safe to call once; after Stop
// returns no goroutine remains and no further updates are sent.
func (w *Watcher) Stop() {
	close(w.stop)
	<-w.done
}

func (w *Watcher) run(initial *gitx.Snapshot) {
	defer close(w.done)
	defer func() {
		// A panic in the reader must surface as data, not kill the
		// process from a background goroutine.
		if r := recover(); r != nil {
			w.log.Error("poller panic", "panic", r)
			w.send(Update{Degraded: true, Err: fmt.Errorf("poller panic: %v", r)})
		}
	}()

	var last *gitx.Fingerprint
	if initial != nil {
		fp := initial.Fingerprint
		last = &fp
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	failures := 0
	degraded := false
	lastBeat := time.Now()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
		}

		snap, err := w.source.Read(last)
		if err != nil {
			failures++
			if !degraded && failures >= w.cfg.FailureThreshold {
				degraded = true
				w.log.Warn("repository reads failing", "consecutive", failures, "err", err)
				if !w.send(Update{Degraded: true, Err: err}) {
					return
				}
			}
			continue
		}
		failures = 0
		if degraded {
			degraded = false
			w.log.Info("repository reads recovered")
			if !w.send(Update{Heartbeat: true}) {
				return
			}
		}

		if snap == nil {
			if w.cfg.Heartbeat > 0 && time.Since(lastBeat) >= w.cfg.Heartbeat {
				lastBeat = time.Now()
				if !w.send(Update{Heartbeat: true}) {
					return
				}
			}
			continue
		}

		var inv gitx.Invalidation
		if last != nil {
			inv = snap.Fingerprint.InvalidationSince(*last)
		} else {
			inv = gitx.Invalidation{All: true}
		}
		fp := snap.Fingerprint
		last = &fp
		lastBeat = time.Now()
		if !w.send(Update{Snapshot: snap, Invalidation: inv}) {
			return
		}
	}
}

// send delivers an update unless shutdown has been requested. Blocking
// here is fine: the channel is buffered and the UI loop drains it every
// iteration.
func (w *Watcher) send(u Update) bool {
	select {
	case w.updates <- u:
		return true
	case <-w.stop:
		return false
	}
}
