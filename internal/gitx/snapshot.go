package gitx

import "maps"

// Status classifies how a file differs from the merge-base.
type Status int

const (
	StatusUnknown Status = iota
	StatusAdded
	StatusModified
	StatusDeleted
	StatusRenamed
	StatusUntracked
)

// Glyph returns the one-character marker shown in the file tree.
func (s Status) Glyph() string {
	switch s {
	case StatusAdded:
		return "+"
	case StatusModified:
		return "~"
	case StatusDeleted:
		return "-"
	case StatusRenamed:
		return "→"
	default:
		return "?"
	}
}

// DiffSource identifies where a file's diff content came from.
type DiffSource int

const (
	SourceWorktree DiffSource = iota
	SourceIndex
	SourceUntracked
)

func (s DiffSource) String() string {
	switch s {
	case SourceIndex:
		return "staged"
	case SourceUntracked:
		return "untracked"
	default:
		return "worktree"
	}
}

// FileEntry is one changed file in a snapshot.
type FileEntry struct {
	Path      string
	Status    Status
	Additions int
	Deletions int
}

// Fingerprint is the cheap identifying state used to detect "nothing
// changed" without recomputing the full diff. Two snapshots with equal
// fingerprints describe identical repository state.
type Fingerprint struct {
	HeadOID         string
	BaseOID         string
	IndexMTime      int64
	HeadMTime       int64
	RefsHeadsMTime  int64
	RefsRemoteMTime int64
	PackedRefsMTime int64
	StatusHash      uint64
	FileMTimes      map[string]int64
}

// Equal reports whether two fingerprints describe the same state.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.HeadOID == other.HeadOID &&
		f.BaseOID == other.BaseOID &&
		f.IndexMTime == other.IndexMTime &&
		f.HeadMTime == other.HeadMTime &&
		f.RefsHeadsMTime == other.RefsHeadsMTime &&
		f.RefsRemoteMTime == other.RefsRemoteMTime &&
		f.PackedRefsMTime == other.PackedRefsMTime &&
		f.StatusHash == other.StatusHash &&
		maps.Equal(f.FileMTimes, other.FileMTimes)
}

// refsChanged reports whether any ref-backing file moved since prev,
// meaning HEAD or the base branch may point somewhere new.
func (f Fingerprint) refsChanged(prev Fingerprint) bool {
	return f.HeadMTime != prev.HeadMTime ||
		f.RefsHeadsMTime != prev.RefsHeadsMTime ||
		f.RefsRemoteMTime != prev.RefsRemoteMTime ||
		f.PackedRefsMTime != prev.PackedRefsMTime
}

// Invalidation describes which cached per-file diffs a fingerprint
// transition makes stale.
type Invalidation struct {
	All   bool
	Paths []string
}

// InvalidationSince computes cache invalidation for the transition from
// prev to f. Index or ref movement invalidates everything; otherwise only
// files whose mtimes moved are stale.
func (f Fingerprint) InvalidationSince(prev Fingerprint) Invalidation {
	if f.IndexMTime != prev.IndexMTime || f.HeadOID != prev.HeadOID || f.BaseOID != prev.BaseOID {
		return Invalidation{All: true}
	}
	var paths []string
	for path, mtime := range prev.FileMTimes {
		if f.FileMTimes[path] != mtime {
			paths = append(paths, path)
		}
	}
	for path := range f.FileMTimes {
		if _, ok := prev.FileMTimes[path]; !ok {
			paths = append(paths, path)
		}
	}
	return Invalidation{Paths: paths}
}

// Snapshot is an immutable description of all differences between the
// working branch and its base at one point in time. It is produced
// wholesale by Reader.Read and never mutated, only replaced.
type Snapshot struct {
	BaseBranch  string
	MergeBase   string
	Files       []FileEntry
	Fingerprint Fingerprint
}
