package ui

import (
	"github.com/interpretive-systems/prdiff/internal/diffview"
	"github.com/interpretive-systems/prdiff/internal/gitx"
	"github.com/interpretive-systems/prdiff/internal/highlight"
	"github.com/interpretive-systems/prdiff/internal/logging"
)

// DiffReader is the slice of gitx.Reader the loader needs.
type DiffReader interface {
	FileDiff(mergeBase, path string) (gitx.DiffSource, []string, error)
}

type diffRequest struct {
	path      string
	mergeBase string
	gen       uint64
}

type diffResult struct {
	path   string
	gen    uint64
	source gitx.DiffSource
	raw    []diffview.Line
	lines  []highlight.Line
	err    error
}

// diffLoader runs per-file diff reads and highlighting off the main
// goroutine, so selection changes never block on git. One worker keeps
// at most one git process in flight.
type diffLoader struct {
	reader   DiffReader
	hl       *highlight.Highlighter
	log      logging.Logger
	requests chan diffRequest
	results  chan diffResult
	stop     chan struct{}
	done     chan struct{}
}

func newDiffLoader(reader DiffReader, hl *highlight.Highlighter, log logging.Logger) *diffLoader {
	if log == nil {
		log = logging.Nop()
	}
	l := &diffLoader{
		reader:   reader,
		hl:       hl,
		log:      log,
		requests: make(chan diffRequest, 16),
		results:  make(chan diffResult, 16),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go l.run()
	return l
}

// request enqueues a load; when the queue is full the request is dropped
// and the next selection change will retry.
func (l *diffLoader) request(r diffRequest) bool {
	select {
	case l.requests <- r:
		return true
	default:
		return false
	}
}

func (l *diffLoader) run() {
	defer close(l.done)
	for {
		var req diffRequest
		select {
		case <-l.stop:
			return
		case req = <-l.requests:
		}

		source, rawLines, err := l.reader.FileDiff(req.mergeBase, req.path)
		res := diffResult{path: req.path, gen: req.gen, source: source, err: err}
		if err == nil {
			res.raw = diffview.Parse(rawLines)
			res.lines = l.hl.File(req.path, res.raw)
		} else {
			l.log.Warn("diff load failed", "path", req.path, "err", err)
		}

		select {
		case l.results <- res:
		case <-l.stop:
			return
		}
	}
}

// close signals the worker and joins it.
func (l *diffLoader) close() {
	close(l.stop)
	<-l.done
}
