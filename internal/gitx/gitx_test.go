package gitx

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setupRepo builds a repo with a "base" branch, then a "feature" branch
// carrying a committed change, a staged change, a worktree edit, and an
// untracked file.
func setupRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	mustRun(t, dir, "git", "init", "-q")
	mustRun(t, dir, "git", "config", "user.email", "test@example.com")
	mustRun(t, dir, "git", "config", "user.name", "Test User")

	write(t, filepath.Join(dir, "keep.txt"), "keep\n")
	write(t, filepath.Join(dir, "a", "x.txt"), "one\ntwo\n")
	mustRun(t, dir, "git", "add", ".")
	mustRun(t, dir, "git", "commit", "-q", "-m", "init")
	mustRun(t, dir, "git", "branch", "-M", "base")

	mustRun(t, dir, "git", "checkout", "-q", "-b", "feature")
	write(t, filepath.Join(dir, "a", "x.txt"), "one\ntwo changed\n")
	mustRun(t, dir, "git", "commit", "-q", "-am", "change x")

	write(t, filepath.Join(dir, "staged.txt"), "staged content\n")
	mustRun(t, dir, "git", "add", "staged.txt")
	write(t, filepath.Join(dir, "keep.txt"), "keep edited\n")
	write(t, filepath.Join(dir, "new.txt"), "brand\nnew\n")
	return dir
}

func TestReader_ChangedFiles(t *testing.T) {
	dir := setupRepo(t)
	r := newTestReader(t, dir)

	mb, err := r.MergeBase()
	if err != nil {
		t.Fatalf("MergeBase: %v", err)
	}
	files, err := r.ChangedFiles(mb)
	if err != nil {
		t.Fatalf("ChangedFiles: %v", err)
	}

	byPath := map[string]FileEntry{}
	for _, f := range files {
		byPath[f.Path] = f
	}
	if got := byPath["a/x.txt"].Status; got != StatusModified {
		t.Fatalf("a/x.txt status = %v, want modified", got)
	}
	if got := byPath["staged.txt"].Status; got != StatusAdded {
		t.Fatalf("staged.txt status = %v, want added", got)
	}
	if got := byPath["keep.txt"].Status; got != StatusModified {
		t.Fatalf("keep.txt status = %v, want modified", got)
	}
	nt := byPath["new.txt"]
	if nt.Status != StatusUntracked {
		t.Fatalf("new.txt status = %v, want untracked", nt.Status)
	}
	if nt.Additions != 2 {
		t.Fatalf("new.txt additions = %d, want 2", nt.Additions)
	}
}

func TestReader_Read_UnchangedReturnsNil(t *testing.T) {
	dir := setupRepo(t)
	r := newTestReader(t, dir)

	snap, err := r.Read(nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snap == nil {
		t.Fatal("first Read returned nil snapshot")
	}
	if len(snap.Files) == 0 {
		t.Fatal("expected changed files in snapshot")
	}

	again, err := r.Read(&snap.Fingerprint)
	if err != nil {
		t.Fatalf("Read(2): %v", err)
	}
	if again != nil {
		t.Fatalf("expected nil for unchanged repo, got %d files", len(again.Files))
	}

	// A worktree edit must produce a fresh snapshot.
	write(t, filepath.Join(dir, "keep.txt"), "keep edited twice\n")
	bumpMTime(t, filepath.Join(dir, "keep.txt"))
	third, err := r.Read(&snap.Fingerprint)
	if err != nil {
		t.Fatalf("Read(3): %v", err)
	}
	if third == nil {
		t.Fatal("expected snapshot after edit, got nil")
	}
	if third.Fingerprint.Equal(snap.Fingerprint) {
		t.Fatal("fingerprint did not change after edit")
	}
}

func TestReader_FileDiff_Fallbacks(t *testing.T) {
	dir := setupRepo(t)
	r := newTestReader(t, dir)
	mb, err := r.MergeBase()
	if err != nil {
		t.Fatalf("MergeBase: %v", err)
	}

	src, lines, err := r.FileDiff(mb, "a/x.txt")
	if err != nil {
		t.Fatalf("FileDiff(a/x.txt): %v", err)
	}
	if src != SourceWorktree {
		t.Fatalf("source = %v, want worktree", src)
	}
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "-two") || !strings.Contains(joined, "+two changed") {
		t.Fatalf("unexpected diff:\n%s", joined)
	}

	src, lines, err = r.FileDiff(mb, "new.txt")
	if err != nil {
		t.Fatalf("FileDiff(new.txt): %v", err)
	}
	if src != SourceUntracked {
		t.Fatalf("source = %v, want untracked", src)
	}
	if !strings.Contains(strings.Join(lines, "\n"), "+brand") {
		t.Fatalf("expected synthesized content, got:\n%s", strings.Join(lines, "\n"))
	}
}

func TestDetectBaseBranch(t *testing.T) {
	dir := setupRepo(t)

	if _, err := DetectBaseBranch(dir, "nope"); err == nil {
		t.Fatal("expected error for unknown branch")
	}
	got, err := DetectBaseBranch(dir, "base")
	if err != nil {
		t.Fatalf("DetectBaseBranch: %v", err)
	}
	if got != "base" {
		t.Fatalf("resolved %q, want base", got)
	}
}

func TestFingerprint_InvalidationSince(t *testing.T) {
	prev := Fingerprint{
		IndexMTime: 1,
		FileMTimes: map[string]int64{"a.txt": 10, "b.txt": 20},
	}

	all := Fingerprint{IndexMTime: 2, FileMTimes: map[string]int64{"a.txt": 10, "b.txt": 20}}
	if inv := all.InvalidationSince(prev); !inv.All {
		t.Fatal("index mtime change should invalidate everything")
	}

	one := Fingerprint{IndexMTime: 1, FileMTimes: map[string]int64{"a.txt": 11, "b.txt": 20}}
	inv := one.InvalidationSince(prev)
	if inv.All {
		t.Fatal("file edit should not invalidate everything")
	}
	if len(inv.Paths) != 1 || inv.Paths[0] != "a.txt" {
		t.Fatalf("paths = %v, want [a.txt]", inv.Paths)
	}
}

func TestNormalizeNumstatPath(t *testing.T) {
	cases := map[string]string{
		"src/{old => new}/file.go": "src/new/file.go",
		"old.go => new.go":         "new.go",
		"plain/path.go":            "plain/path.go",
	}
	for in, want := range cases {
		if got := normalizeNumstatPath(in); got != want {
			t.Fatalf("normalizeNumstatPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func newTestReader(t *testing.T, dir string) *Reader {
	t.Helper()
	r, err := NewReader(dir, "base")
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	return r
}

// bumpMTime forces a visible mtime change even on filesystems with
// coarse timestamp resolution.
func bumpMTime(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	newTime := info.ModTime().Add(2 * time.Second)
	if err := os.Chtimes(path, newTime, newTime); err != nil {
		t.Fatal(err)
	}
}

func mustRun(t *testing.T, dir string, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("command %s %v failed: %v\n%s", name, args, err, out)
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
