// Package repotree tracks, per path, the effective file mode and content
// mark across revisions — the virtual repository tree that the svndump
// core mutates as it resolves each node record.
//
// Internally it is a directory tree keyed by path component, the same
// shape as a working-copy checkout, rather than a flat revision->path map:
// that makes "does this path already exist, and as a file or a directory"
// cheap to answer, and lets Delete and Copy act on a whole subtree at once.
// The tree offers no listing of the files under a directory.
package repotree

import (
	"fmt"

	"github.com/helloandre/svndump2git/internal/strpool"
)

// Mode is the effective type of a tree entry.
type Mode int

const (
	// ModeAbsent marks a NodeCtx whose type has not yet been determined.
	ModeAbsent Mode = iota
	Dir
	RegularFile
	Executable
	Symlink
)

func (m Mode) String() string {
	switch m {
	case Dir:
		return "Dir"
	case RegularFile:
		return "RegularFile"
	case Executable:
		return "Executable"
	case Symlink:
		return "Symlink"
	default:
		return "Absent"
	}
}

// IsFile reports whether m is any of the non-directory file modes.
func (m Mode) IsFile() bool {
	return m == RegularFile || m == Executable || m == Symlink
}

type entry struct {
	name     string
	mode     Mode
	mark     uint32
	children map[string]*entry
}

func newDirEntry(name string) *entry {
	return &entry{name: name, mode: Dir, children: make(map[string]*entry)}
}

// Tree is the virtual repository tree: (path) -> (mode, content mark),
// as of the revision currently being built, plus a snapshot per committed
// revision so that a later Copy can resolve a copyfrom-rev older than the
// most recent commit.
type Tree struct {
	pool      *strpool.Pool
	root      *entry
	revisions map[uint32]*entry
}

// New creates an empty tree rooted at "".
func New(pool *strpool.Pool) *Tree {
	return &Tree{pool: pool, root: newDirEntry(""), revisions: make(map[uint32]*entry)}
}

// Reset discards all tree state, as at the start of a fresh Read.
func (t *Tree) Reset() {
	t.root = newDirEntry("")
	t.revisions = make(map[uint32]*entry)
}

// Commit snapshots the current tree state under rev, so that a future
// Copy(rev, ...) can read it back even after later revisions mutate the
// working tree further.
func (t *Tree) Commit(rev uint32) {
	t.revisions[rev] = cloneEntry(t.root, t.root.name)
}

func (t *Tree) components(p strpool.Path) []string {
	n := p.Len()
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = t.pool.Token(p[i])
	}
	return parts
}

// find walks to the entry at p, returning nil if any component is missing.
func (t *Tree) find(p strpool.Path) *entry {
	cur := t.root
	for _, name := range t.components(p) {
		if cur.children == nil {
			return nil
		}
		next, ok := cur.children[name]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// findIn walks root to the entry named by parts, returning nil on a miss.
func findIn(root *entry, parts []string) *entry {
	cur := root
	for _, name := range parts {
		if cur.children == nil {
			return nil
		}
		next, ok := cur.children[name]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// parentFor walks to the parent directory of p, creating intermediate
// directories as needed (svn dumps do not emit explicit "add dir" records
// for every ancestor in all cases encountered in practice; the tree is
// permissive about implicit ancestors, same as a working copy would be).
func (t *Tree) parentFor(p strpool.Path) (*entry, string) {
	parts := t.components(p)
	if len(parts) == 0 {
		return nil, ""
	}
	cur := t.root
	for _, name := range parts[:len(parts)-1] {
		next, ok := cur.children[name]
		if !ok {
			next = newDirEntry(name)
			cur.children[name] = next
		}
		cur = next
	}
	return cur, parts[len(parts)-1]
}

// ReadMode returns the mode currently recorded at p, and whether p exists.
func (t *Tree) ReadMode(p strpool.Path) (Mode, bool) {
	e := t.find(p)
	if e == nil {
		return ModeAbsent, false
	}
	return e.mode, true
}

// ReadPath returns the content mark currently recorded at p, or 0 if p is
// absent or is a directory.
func (t *Tree) ReadPath(p strpool.Path) uint32 {
	e := t.find(p)
	if e == nil {
		return 0
	}
	return e.mark
}

// Add records mode/mark at p, creating ancestor directories as needed.
func (t *Tree) Add(p strpool.Path, mode Mode, mark uint32) error {
	if p.Empty() {
		t.root.mode = Dir
		return nil
	}
	parent, name := t.parentFor(p)
	if parent == nil {
		return fmt.Errorf("repotree: cannot add root via Add")
	}
	existing, ok := parent.children[name]
	if mode == Dir {
		if !ok {
			existing = newDirEntry(name)
			parent.children[name] = existing
		}
		existing.mode = Dir
		return nil
	}
	parent.children[name] = &entry{name: name, mode: mode, mark: mark}
	return nil
}

// Delete removes the entry (file or whole subtree) at p.
func (t *Tree) Delete(p strpool.Path) error {
	if p.Empty() {
		t.root = newDirEntry("")
		return nil
	}
	parent, name := t.parentFor(p)
	if parent == nil {
		return fmt.Errorf("repotree: invalid delete path")
	}
	delete(parent.children, name)
	return nil
}

// Copy recursively clones the subtree at src as of srcRev (or the current
// in-progress working tree if srcRev is 0 or has no snapshot — svn only
// ever gives a meaningful rev >= 1) to dst.
func (t *Tree) Copy(srcRev uint32, src, dst strpool.Path) error {
	root := t.root
	if snap, ok := t.revisions[srcRev]; ok {
		root = snap
	}
	srcEntry := findIn(root, t.components(src))
	if srcEntry == nil {
		return fmt.Errorf("repotree: copy source not found")
	}
	if dst.Empty() {
		t.root = cloneEntry(srcEntry, t.root.name)
		return nil
	}
	clone := cloneEntry(srcEntry, t.pool.Token(dst[dstNameIndex(dst)]))
	parent, name := t.parentFor(dst)
	if parent == nil {
		return fmt.Errorf("repotree: invalid copy destination")
	}
	clone.name = name
	parent.children[name] = clone
	return nil
}

func dstNameIndex(p strpool.Path) int {
	n := p.Len()
	if n == 0 {
		return 0
	}
	return n - 1
}

func cloneEntry(e *entry, name string) *entry {
	clone := &entry{name: name, mode: e.mode, mark: e.mark}
	if e.children != nil {
		clone.children = make(map[string]*entry, len(e.children))
		for k, v := range e.children {
			clone.children[k] = cloneEntry(v, k)
		}
	}
	return clone
}

// Exists reports whether p currently has a tree entry.
func (t *Tree) Exists(p strpool.Path) bool {
	return t.find(p) != nil
}
