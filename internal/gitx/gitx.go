package gitx

import (
	"bytes"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadError wraps a transient repository read failure. The poller treats
// these as "no change this tick" and retries on the next interval.
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("git %s: %v", e.Op, e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// RepoRoot resolves the git repository root from a given path (or current dir).
func RepoRoot(path string) (string, error) {
	if path == "" {
		path = "."
	}
	out, err := exec.Command("git", "-C", path, "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", fmt.Errorf("rev-parse: %w", err)
	}
	root := strings.TrimSpace(string(out))
	if root == "" {
		return "", errors.New("empty git root")
	}
	return root, nil
}

// Reader inspects repository state and produces immutable snapshots.
// All git invocations run with GIT_OPTIONAL_LOCKS=0: the tool is
// read-only and must never create index.lock under concurrent user
// git operations.
type Reader struct {
	RepoRoot   string
	BaseBranch string

	// Resolved .git paths for cheap mtime probes, fixed at construction.
	indexPath      string
	headPath       string
	refsHeadsPath  string
	refsRemotePath string
	packedRefsPath string
}

// NewReader resolves the base branch and prepares a reader rooted at
// repoRoot. An empty base triggers auto-detection (develop, main,
// master), preferring the default remote's tracking ref.
func NewReader(repoRoot, base string) (*Reader, error) {
	resolved, err := DetectBaseBranch(repoRoot, base)
	if err != nil {
		return nil, err
	}
	r := &Reader{RepoRoot: repoRoot, BaseBranch: resolved}
	r.indexPath = r.gitPath("index")
	r.headPath = r.gitPath("HEAD")
	r.refsHeadsPath = r.gitPath("refs/heads/" + resolved)
	r.refsRemotePath = r.gitPath("refs/remotes/" + resolved)
	r.packedRefsPath = r.gitPath("packed-refs")
	return r, nil
}

// Read produces a snapshot of everything changed relative to the base
// branch. When prev is non-nil and the repository fingerprint still
// matches it, Read returns (nil, nil) without computing the file list.
func (r *Reader) Read(prev *Fingerprint) (*Snapshot, error) {
	fp, err := r.fingerprint(prev)
	if err != nil {
		return nil, err
	}
	if prev != nil && fp.Equal(*prev) {
		return nil, nil
	}

	mergeBase, err := r.MergeBase()
	if err != nil {
		return nil, err
	}
	files, err := r.ChangedFiles(mergeBase)
	if err != nil {
		return nil, err
	}

	fp.FileMTimes = make(map[string]int64, len(files))
	for _, f := range files {
		if mt, ok := fileMTime(filepath.Join(r.RepoRoot, f.Path)); ok {
			fp.FileMTimes[f.Path] = mt
		}
	}

	return &Snapshot{
		BaseBranch:  r.BaseBranch,
		MergeBase:   mergeBase,
		Files:       files,
		Fingerprint: fp,
	}, nil
}

// fingerprint gathers the identifying state. File stats are plain
// syscalls; git processes are spawned only for the status hash and,
// when a ref-backing file actually moved, for rev-parse.
func (r *Reader) fingerprint(prev *Fingerprint) (Fingerprint, error) {
	var fp Fingerprint
	fp.IndexMTime, _ = fileMTime(r.indexPath)
	fp.HeadMTime, _ = fileMTime(r.headPath)
	fp.RefsHeadsMTime, _ = fileMTime(r.refsHeadsPath)
	fp.RefsRemoteMTime, _ = fileMTime(r.refsRemotePath)
	fp.PackedRefsMTime, _ = fileMTime(r.packedRefsPath)

	if prev != nil && !fp.refsChanged(*prev) {
		fp.HeadOID = prev.HeadOID
		fp.BaseOID = prev.BaseOID
	} else {
		head, err := r.RevParse("HEAD")
		if err != nil {
			return fp, err
		}
		base, err := r.RevParse(r.BaseBranch)
		if err != nil {
			return fp, err
		}
		fp.HeadOID = head
		fp.BaseOID = base
	}

	hash, err := r.statusHash()
	if err != nil {
		return fp, err
	}
	fp.StatusHash = hash

	if prev != nil {
		fp.FileMTimes = make(map[string]int64, len(prev.FileMTimes))
		for path := range prev.FileMTimes {
			if mt, ok := fileMTime(filepath.Join(r.RepoRoot, path)); ok {
				fp.FileMTimes[path] = mt
			}
		}
	}
	return fp, nil
}

// MergeBase returns the merge base of HEAD and the base branch.
func (r *Reader) MergeBase() (string, error) {
	out, err := r.git("merge-base", "HEAD", r.BaseBranch)
	if err != nil {
		return "", &ReadError{Op: "merge-base", Err: err}
	}
	return strings.TrimSpace(string(out)), nil
}

// RevParse resolves a revision to its object id.
func (r *Reader) RevParse(rev string) (string, error) {
	out, err := r.git("rev-parse", rev)
	if err != nil {
		return "", &ReadError{Op: "rev-parse " + rev, Err: err}
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *Reader) statusHash() (uint64, error) {
	out, err := r.git("status", "--porcelain=v1", "-z")
	if err != nil {
		return 0, &ReadError{Op: "status", Err: err}
	}
	h := fnv.New64a()
	_, _ = h.Write(out)
	return h.Sum64(), nil
}

// ChangedFiles lists files changed relative to the merge base: the
// working tree diff, index-only entries the working tree no longer
// carries, and untracked files.
func (r *Reader) ChangedFiles(mergeBase string) ([]FileEntry, error) {
	work, err := r.diffStatusAndStats(mergeBase, false)
	if err != nil {
		return nil, err
	}
	index, err := r.diffStatusAndStats(mergeBase, true)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(work))
	files := make([]FileEntry, 0, len(work))
	for _, e := range work {
		seen[e.Path] = true
		files = append(files, e)
	}
	for _, e := range index {
		if seen[e.Path] {
			continue
		}
		seen[e.Path] = true
		files = append(files, e)
	}

	untrackedOut, err := r.git("ls-files", "-z", "--others", "--exclude-standard")
	if err != nil {
		return nil, &ReadError{Op: "ls-files", Err: err}
	}
	for _, part := range strings.Split(string(untrackedOut), "\x00") {
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		files = append(files, FileEntry{
			Path:      part,
			Status:    StatusUntracked,
			Additions: countFileLines(filepath.Join(r.RepoRoot, part)),
		})
	}
	return files, nil
}

// FileDiff returns the unified diff for one file as raw lines. The diff
// is taken against the merge base and the working tree; when the working
// tree no longer carries the change it falls back to the index, and for
// untracked files a pseudo-diff is synthesized from the file content.
func (r *Reader) FileDiff(mergeBase, path string) (DiffSource, []string, error) {
	if out, err := r.git("diff", "--no-color", mergeBase, "--", path); err == nil {
		if lines := splitLines(out); len(lines) > 0 {
			return SourceWorktree, lines, nil
		}
	}
	if out, err := r.git("diff", "--no-color", "--cached", mergeBase, "--", path); err == nil {
		if lines := splitLines(out); len(lines) > 0 {
			return SourceIndex, lines, nil
		}
	}

	content, err := os.ReadFile(filepath.Join(r.RepoRoot, path))
	if err != nil {
		return SourceWorktree, nil, &ReadError{Op: "diff " + path, Err: err}
	}
	lines := []string{
		"diff --git a/" + path + " b/" + path,
		"new file mode 100644",
		"--- /dev/null",
		"+++ b/" + path,
	}
	switch {
	case len(content) == 0:
		lines = append(lines, "@@ -0,0 +0,0 @@")
	case isBinary(content):
		lines = append(lines, fmt.Sprintf("Binary file %s (%s)", path, formatSize(len(content))))
	default:
		body := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
		lines = append(lines, fmt.Sprintf("@@ -0,0 +1,%d @@", len(body)))
		for _, l := range body {
			lines = append(lines, "+"+l)
		}
	}
	return SourceUntracked, lines, nil
}

// diffStatusAndStats runs a single `git diff -z --raw --numstat` to get
// both status codes and line counts. With -z, fields are NUL-delimited
// so paths with special characters survive. --raw records look like
// `:oldmode newmode oldhash newhash status` followed by one path (two
// for renames/copies); --numstat records are `add\tdel\tpath`.
func (r *Reader) diffStatusAndStats(mergeBase string, cached bool) ([]FileEntry, error) {
	args := []string{"diff", "-z", "--raw", "--numstat"}
	if cached {
		args = append(args, "--cached")
	}
	args = append(args, mergeBase)
	out, err := r.git(args...)
	if err != nil {
		return nil, &ReadError{Op: "diff --raw --numstat", Err: err}
	}

	parts := strings.Split(string(out), "\x00")
	statusByPath := make(map[string]Status)
	statsByPath := make(map[string][2]int)
	var ordered []string

	record := func(path string, s Status) {
		if path == "" {
			return
		}
		if _, ok := statusByPath[path]; !ok {
			ordered = append(ordered, path)
		}
		statusByPath[path] = s
	}

	for i := 0; i < len(parts); i++ {
		part := parts[i]
		switch {
		case strings.HasPrefix(part, ":"):
			fields := strings.Fields(part)
			token := "?"
			if len(fields) > 0 {
				token = fields[len(fields)-1]
			}
			switch token[0] {
			case 'R', 'C':
				// Two path fields follow: old then new. Keep the new one.
				i += 2
				path := ""
				if i < len(parts) {
					path = parts[i]
				}
				s := StatusRenamed
				if token[0] == 'C' {
					s = StatusAdded
				}
				record(path, s)
			default:
				var s Status
				switch token[0] {
				case 'A':
					s = StatusAdded
				case 'M', 'T':
					s = StatusModified
				case 'D':
					s = StatusDeleted
				default:
					s = StatusUnknown
				}
				i++
				if i < len(parts) {
					record(parts[i], s)
				}
			}
		case part != "" && (part[0] == '-' || part[0] >= '0' && part[0] <= '9'):
			fields := strings.SplitN(part, "\t", 3)
			if len(fields) < 3 {
				continue
			}
			add, _ := strconv.Atoi(fields[0]) // "-" parses to 0 for binary files
			del, _ := strconv.Atoi(fields[1])
			if fields[2] == "" {
				// Rename/copy under -z: old and new paths follow as
				// separate NUL parts.
				i += 2
				if i < len(parts) {
					statsByPath[parts[i]] = [2]int{add, del}
				}
				continue
			}
			statsByPath[normalizeNumstatPath(fields[2])] = [2]int{add, del}
		}
	}

	entries := make([]FileEntry, 0, len(ordered))
	for _, path := range ordered {
		stats := statsByPath[path]
		entries = append(entries, FileEntry{
			Path:      path,
			Status:    statusByPath[path],
			Additions: stats[0],
			Deletions: stats[1],
		})
	}
	return entries, nil
}

// normalizeNumstatPath resolves the rename forms numstat can emit in a
// single field: "dir/{old => new}/file" brace expansion or "old => new".
func normalizeNumstatPath(field string) string {
	if open := strings.Index(field, "{"); open >= 0 {
		if end := strings.LastIndex(field, "}"); end > open {
			inner := field[open+1 : end]
			if _, after, ok := strings.Cut(inner, " => "); ok {
				return field[:open] + after + field[end+1:]
			}
		}
	}
	if _, after, ok := strings.Cut(field, " => "); ok {
		return after
	}
	return field
}

// DetectBaseBranch resolves the base branch to diff against. Without an
// explicit name it tries develop, main, master in that order.
func DetectBaseBranch(repoRoot, specified string) (string, error) {
	if specified != "" {
		return resolveBaseRef(repoRoot, specified)
	}
	for _, branch := range []string{"develop", "main", "master"} {
		if resolved, err := resolveBaseRef(repoRoot, branch); err == nil {
			return resolved, nil
		}
	}
	return "", errors.New("no base branch found (develop/main/master); specify one with --base")
}

// resolveBaseRef prefers the default remote's tracking ref (e.g.
// origin/develop) over the local branch: PR diffs compare against the
// remote, and local base branches are often stale.
func resolveBaseRef(repoRoot, name string) (string, error) {
	if !strings.Contains(name, "/") {
		if remote, ok := defaultRemote(repoRoot); ok {
			candidate := remote + "/" + name
			if refExists(repoRoot, candidate) {
				return candidate, nil
			}
		}
	}
	if refExists(repoRoot, name) {
		return name, nil
	}
	return "", fmt.Errorf("could not resolve base branch %q", name)
}

func refExists(repoRoot, ref string) bool {
	return gitIn(repoRoot, "rev-parse", "--verify", "--quiet", ref).Run() == nil
}

func defaultRemote(repoRoot string) (string, bool) {
	out, err := gitIn(repoRoot, "remote").Output()
	if err != nil {
		return "", false
	}
	remotes := strings.Fields(string(out))
	for _, r := range remotes {
		if r == "origin" {
			return "origin", true
		}
	}
	if len(remotes) == 1 {
		return remotes[0], true
	}
	return "", false
}

func (r *Reader) gitPath(name string) string {
	out, err := r.git("rev-parse", "--git-path", name)
	if err != nil {
		return ""
	}
	p := strings.TrimSpace(string(out))
	if p == "" {
		return ""
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.RepoRoot, p)
	}
	return p
}

func (r *Reader) git(args ...string) ([]byte, error) {
	return gitIn(r.RepoRoot, args...).Output()
}

func gitIn(repoRoot string, args ...string) *exec.Cmd {
	cmd := exec.Command("git", append([]string{"-C", repoRoot}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_OPTIONAL_LOCKS=0")
	return cmd
}

func fileMTime(path string) (int64, bool) {
	if path == "" {
		return 0, false
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return info.ModTime().UnixNano(), true
}

// isBinary probes the first 8KB for NUL bytes.
func isBinary(content []byte) bool {
	probe := content
	if len(probe) > 8192 {
		probe = probe[:8192]
	}
	return bytes.IndexByte(probe, 0) >= 0
}

func countFileLines(path string) int {
	content, err := os.ReadFile(path)
	if err != nil || len(content) == 0 || isBinary(content) {
		return 0
	}
	n := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}

func formatSize(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d bytes", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

func splitLines(out []byte) []string {
	s := strings.TrimRight(string(out), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
