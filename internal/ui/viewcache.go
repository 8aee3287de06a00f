package ui

import "github.com/interpretive-systems/prdiff/internal/tree"

// rowCache memoizes the flattened tree rows. Flattening walks the whole
// tree, so it runs only when the (treeVersion, layoutVersion) pair moves,
// not on every frame.
type rowCache struct {
	rows          []tree.Row
	treeVersion   uint64
	layoutVersion uint64
	valid         bool
}

// refresh recomputes the rows iff the app's version pair differs from
// the cached one. Returns true when a recompute happened.
func (c *rowCache) refresh(a *App) bool {
	if c.valid && c.treeVersion == a.treeVersion && c.layoutVersion == a.layoutVersion {
		return false
	}
	c.rows = a.Rows()
	c.treeVersion = a.treeVersion
	c.layoutVersion = a.layoutVersion
	c.valid = true
	return true
}
