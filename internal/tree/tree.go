// Package tree builds the directory tree shown in the left panel from a
// flat list of changed files.
package tree

import (
	"sort"
	"strings"

	"github.com/interpretive-systems/prdiff/internal/gitx"
)

// Node is one row candidate in the file tree. Directory nodes have a nil
// File; leaf nodes carry the entry they represent. Name may span several
// path segments when a single-child directory chain was compacted.
type Node struct {
	Name     string
	Path     string
	Children []*Node
	File     *gitx.FileEntry
}

// IsDir reports whether the node represents a directory.
func (n *Node) IsDir() bool { return n.File == nil }

// Build constructs the tree for a set of changed files. Children at each
// level are ordered depth-first lexicographically by name, directories
// interleaved with files rather than grouped first. Directory chains with
// a single child directory are compacted into one node ("a/b/c").
func Build(files []gitx.FileEntry) []*Node {
	root := &Node{}
	for i := range files {
		insert(root, &files[i])
	}
	sortChildren(root)
	compact(root)
	return root.Children
}

func insert(root *Node, entry *gitx.FileEntry) {
	parts := strings.Split(entry.Path, "/")
	cur := root
	for i, part := range parts {
		if i == len(parts)-1 {
			cur.Children = append(cur.Children, &Node{
				Name: part,
				Path: entry.Path,
				File: entry,
			})
			return
		}
		cur = childDir(cur, part, strings.Join(parts[:i+1], "/"))
	}
}

func childDir(parent *Node, name, path string) *Node {
	for _, c := range parent.Children {
		if c.IsDir() && c.Path == path {
			return c
		}
	}
	d := &Node{Name: name, Path: path}
	parent.Children = append(parent.Children, d)
	return d
}

func sortChildren(n *Node) {
	sort.Slice(n.Children, func(i, j int) bool {
		return n.Children[i].Name < n.Children[j].Name
	})
	for _, c := range n.Children {
		sortChildren(c)
	}
}

// compact merges directory chains where a directory's only child is
// another directory, so "a" containing only "b" containing only "c"
// renders as one "a/b/c" row.
func compact(n *Node) {
	for _, c := range n.Children {
		for c.IsDir() && len(c.Children) == 1 && c.Children[0].IsDir() {
			child := c.Children[0]
			c.Name = c.Name + "/" + child.Name
			c.Path = child.Path
			c.Children = child.Children
		}
		compact(c)
	}
}

// Row is one visible line of the tree panel. Expanded is meaningful only
// for directory rows.
type Row struct {
	Node     *Node
	Depth    int
	Expanded bool
}

// Visible flattens the tree into the rows currently on screen, given the
// set of expanded directory paths. Collapsed directories contribute their
// own row but none of their descendants.
func Visible(nodes []*Node, expanded map[string]bool) []Row {
	var rows []Row
	var walk func(ns []*Node, depth int)
	walk = func(ns []*Node, depth int) {
		for _, n := range ns {
			open := n.IsDir() && expanded[n.Path]
			rows = append(rows, Row{Node: n, Depth: depth, Expanded: open})
			if open {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(nodes, 0)
	return rows
}

// DirPaths returns every directory path in the tree, used to expand the
// whole tree by default.
func DirPaths(nodes []*Node) []string {
	var paths []string
	var walk func(ns []*Node)
	walk = func(ns []*Node) {
		for _, n := range ns {
			if n.IsDir() {
				paths = append(paths, n.Path)
				walk(n.Children)
			}
		}
	}
	walk(nodes)
	return paths
}
