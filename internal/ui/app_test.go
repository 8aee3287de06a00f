package ui

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/interpretive-systems/prdiff/internal/gitx"
)

func TestApp_StartsFullyExpanded(t *testing.T) {
	a := NewApp(testSnapshot("a/one.go", "a/sub/two.go", "b.txt"), 0)
	rows := a.Rows()
	// a, a/one.go, a/sub, a/sub/two.go, b.txt
	require.Len(t, rows, 5)
}

func TestApp_ApplySnapshotPreservesExpansion(t *testing.T) {
	a := NewApp(testSnapshot("a/one.go", "b/two.go"), 0)

	// Collapse "a".
	require.Equal(t, "a", a.Rows()[0].Node.Path)
	a.ToggleExpand()
	require.False(t, a.expanded["a"])

	// New snapshot keeps "a" collapsed, new dirs start expanded.
	a.ApplySnapshot(testSnapshot("a/one.go", "b/two.go", "c/three.go"), gitx.Invalidation{All: true})
	require.False(t, a.expanded["a"])
	require.True(t, a.expanded["b"])
	require.True(t, a.expanded["c"])
}

func TestApp_ApplySnapshotFollowsCursorPath(t *testing.T) {
	a := NewApp(testSnapshot("a.go", "b.go", "c.go"), 0)
	a.MoveCursor(1)
	require.Equal(t, "b.go", a.Rows()[a.cursor].Node.Path)

	// A file appears above the selection; the cursor follows the path.
	a.ApplySnapshot(testSnapshot("0.go", "a.go", "b.go", "c.go"), gitx.Invalidation{All: true})
	require.Equal(t, "b.go", a.Rows()[a.cursor].Node.Path)
}

func TestApp_ApplySnapshotClampsVanishedCursor(t *testing.T) {
	a := NewApp(testSnapshot("a.go", "b.go", "c.go"), 0)
	a.MoveCursor(2)

	a.ApplySnapshot(testSnapshot("a.go"), gitx.Invalidation{All: true})
	require.Equal(t, 0, a.cursor)
	require.NotNil(t, a.SelectedFile())
}

func TestApp_ApplySnapshotPrunesEmptiedDirectory(t *testing.T) {
	a := NewApp(testSnapshot("a/one.go", "b.txt"), 0)
	require.Len(t, a.Rows(), 3) // a, a/one.go, b.txt

	// The last change under a/ is reverted; its directory row must go.
	a.ApplySnapshot(testSnapshot("b.txt"), gitx.Invalidation{All: true})
	rows := a.Rows()
	require.Len(t, rows, 1)
	require.Equal(t, "b.txt", rows[0].Node.Path)
	_, stillTracked := a.expanded["a"]
	require.False(t, stillTracked, "expansion state of a vanished directory must be dropped")

	// Cursor lands on a real row.
	require.NotNil(t, a.SelectedFile())
}

func TestApp_VersionCounters(t *testing.T) {
	a := NewApp(testSnapshot("a/one.go", "b.txt"), 0)

	tv, lv := a.treeVersion, a.layoutVersion
	a.ToggleExpand()
	require.Equal(t, tv+1, a.treeVersion)
	require.Equal(t, lv, a.layoutVersion)

	a.Resize(100, 40)
	require.Equal(t, lv+1, a.layoutVersion)

	// Same size again is a no-op.
	a.Resize(100, 40)
	require.Equal(t, lv+1, a.layoutVersion)

	a.AdjustSplit(5)
	require.Equal(t, lv+2, a.layoutVersion)
}

func TestApp_AdjustSplitClamps(t *testing.T) {
	a := NewApp(testSnapshot("a.go"), 0)
	a.AdjustSplit(-1000)
	require.Equal(t, minSplitPercent, a.SplitPercent())
	a.AdjustSplit(1000)
	require.Equal(t, maxSplitPercent, a.SplitPercent())
}

func TestApp_InvalidationDropsDiffCache(t *testing.T) {
	a := NewApp(testSnapshot("a.go", "b.go"), 0)
	a.markLoading("a.go")
	a.markLoading("b.go")

	gen := a.diffGen
	a.invalidateDiffs(gitx.Invalidation{Paths: []string{"a.go"}})
	require.Nil(t, a.diffFor("a.go"))
	require.NotNil(t, a.diffFor("b.go"))
	require.Equal(t, gen+1, a.diffGen)

	a.invalidateDiffs(gitx.Invalidation{All: true})
	require.Nil(t, a.diffFor("b.go"))
}

func TestApp_StoreDiffRejectsStaleGeneration(t *testing.T) {
	a := NewApp(testSnapshot("a.go"), 0)
	gen := a.diffGen
	a.invalidateDiffs(gitx.Invalidation{All: true})

	ok := a.storeDiff("a.go", gen, gitx.SourceWorktree, nil, nil, nil)
	require.False(t, ok)
	require.Nil(t, a.diffFor("a.go"))
}

func TestApp_CollapseJumpsToParent(t *testing.T) {
	a := NewApp(testSnapshot("a/one.go", "a/two.go"), 0)
	a.MoveCursor(2) // a/two.go
	require.Equal(t, "a/two.go", a.Rows()[a.cursor].Node.Path)

	a.Collapse()
	require.Equal(t, "a", a.Rows()[a.cursor].Node.Path)

	// Collapsing the open dir folds it.
	a.Collapse()
	require.False(t, a.expanded["a"])
}
