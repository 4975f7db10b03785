package archive

import (
	"path"
	"sort"
	"strings"
	"time"
)

// node is one entry in the decoded archive index. The tree is built once
// when the handle is opened and is read-only afterwards.
type node struct {
	name     string
	dir      bool
	size     int64
	modTime  time.Time
	link     string
	key      string // exact entry name inside the container, files only
	children map[string]*node
}

func newRoot() *node {
	return &node{name: "", dir: true, children: map[string]*node{}}
}

func (n *node) ensureDir(name string) *node {
	if c, ok := n.children[name]; ok {
		if !c.dir {
			// A file and a directory share a name; the directory wins
			// for navigation purposes.
			c.dir = true
			if c.children == nil {
				c.children = map[string]*node{}
			}
		}
		return c
	}
	c := &node{name: name, dir: true, children: map[string]*node{}}
	n.children[name] = c
	return c
}

// insert places an entry at the given internal path, creating any
// intermediate directories implied by it.
func (n *node) insert(internal string, e *node) {
	internal = cleanInternal(internal)
	if internal == "" {
		return
	}
	parts := strings.Split(internal, "/")
	cur := n
	for _, part := range parts[:len(parts)-1] {
		cur = cur.ensureDir(part)
	}
	last := parts[len(parts)-1]
	if e.dir {
		d := cur.ensureDir(last)
		d.modTime = e.modTime
		return
	}
	e.name = last
	cur.children[last] = e
}

// lookup resolves an internal path, "" meaning the root.
func (n *node) lookup(internal string) *node {
	internal = cleanInternal(internal)
	if internal == "" {
		return n
	}
	cur := n
	for _, part := range strings.Split(internal, "/") {
		if cur == nil || !cur.dir {
			return nil
		}
		cur = cur.children[part]
	}
	return cur
}

func (n *node) remove(internal string) {
	internal = cleanInternal(internal)
	if internal == "" {
		return
	}
	dir := path.Dir(internal)
	parent := n
	if dir != "." {
		parent = n.lookup(dir)
	}
	if parent != nil && parent.dir {
		delete(parent.children, path.Base(internal))
	}
}

// list returns the node's children sorted by name for deterministic
// output; the VFS applies its own comparator on top.
func (n *node) list() []*node {
	out := make([]*node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func cleanInternal(internal string) string {
	internal = strings.TrimPrefix(internal, "./")
	internal = strings.Trim(internal, "/")
	if internal == "." {
		return ""
	}
	return internal
}
