// Package diffview classifies unified diff output into typed lines for
// rendering.
package diffview

import "strings"

// Kind classifies a single diff line.
type Kind int

const (
	KindContext Kind = iota
	KindAdd
	KindDel
	KindHunk
	KindMeta
)

// Line is one classified line of a unified diff. Text retains the
// leading marker character so column alignment survives.
type Line struct {
	Kind Kind
	Text string
}

// Code returns the line content without its diff marker. Hunk and meta
// lines are returned as-is.
func (l Line) Code() string {
	switch l.Kind {
	case KindAdd, KindDel, KindContext:
		if len(l.Text) > 0 {
			return l.Text[1:]
		}
	}
	return l.Text
}

// Classify maps one raw diff line to its kind.
func Classify(s string) Kind {
	switch {
	case strings.HasPrefix(s, "@@"):
		return KindHunk
	case strings.HasPrefix(s, "+++"), strings.HasPrefix(s, "---"):
		return KindMeta
	case strings.HasPrefix(s, "+"):
		return KindAdd
	case strings.HasPrefix(s, "-"):
		return KindDel
	case strings.HasPrefix(s, "diff "),
		strings.HasPrefix(s, "index "),
		strings.HasPrefix(s, "new file"),
		strings.HasPrefix(s, "deleted file"),
		strings.HasPrefix(s, "old mode"),
		strings.HasPrefix(s, "new mode"),
		strings.HasPrefix(s, "similarity "),
		strings.HasPrefix(s, "rename "),
		strings.HasPrefix(s, "copy "),
		strings.HasPrefix(s, "Binary files"),
		strings.HasPrefix(s, "\\ No newline"):
		return KindMeta
	default:
		return KindContext
	}
}

// Parse classifies raw diff lines.
func Parse(raw []string) []Line {
	out := make([]Line, len(raw))
	for i, s := range raw {
		out[i] = Line{Kind: Classify(s), Text: s}
	}
	return out
}

// Stats counts added and removed lines in a parsed diff.
func Stats(lines []Line) (adds, dels int) {
	for _, l := range lines {
		switch l.Kind {
		case KindAdd:
			adds++
		case KindDel:
			dels++
		}
	}
	return adds, dels
}
