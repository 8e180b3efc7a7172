// Package strpool interns svn path components to small stable integer ids,
// and tokenizes slash-separated paths into fixed-depth id sequences.
package strpool

import (
	"fmt"
	"strings"
)

// MaxPathDepth bounds the number of path components a Path can hold.
const MaxPathDepth = 64

// Sentinel terminates a Path's id sequence; also denotes "absent" in a slot.
const Sentinel = ^uint32(0)

// Path is an ordered sequence of interned component ids, terminated by
// Sentinel. A Path whose first slot is Sentinel is empty (the tree root,
// or "absent" depending on context — see Path.Root/Path.Empty).
type Path [MaxPathDepth]uint32

// Root returns the empty path, denoting the tree root.
func Root() Path {
	var p Path
	p[0] = Sentinel
	return p
}

// Empty reports whether p has no components (root, or "absent" source path).
func (p Path) Empty() bool {
	return p[0] == Sentinel
}

// Len returns the number of components before the sentinel.
func (p Path) Len() int {
	for i, id := range p {
		if id == Sentinel {
			return i
		}
	}
	return MaxPathDepth
}

// Equal compares two paths by id sequence.
func (p Path) Equal(o Path) bool {
	return p == o
}

// Pool interns path components to stable ids.
type Pool struct {
	ids    map[string]uint32
	tokens []string
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{ids: make(map[string]uint32)}
}

// Intern returns the stable id for s, allocating a new one if s is unseen.
func (p *Pool) Intern(s string) uint32 {
	if id, ok := p.ids[s]; ok {
		return id
	}
	id := uint32(len(p.tokens))
	p.tokens = append(p.tokens, s)
	p.ids[s] = id
	return id
}

// Token returns the string previously interned under id.
func (p *Pool) Token(id uint32) string {
	return p.tokens[id]
}

// TokSeq tokenizes s on "/", interning each non-empty component, and
// returns the resulting Path. An empty s yields Path.Root(). A path with
// more than MaxPathDepth-1 components (one slot is kept for the Sentinel)
// is a fatal format error, surfaced here
// per spec.md §8.
func (p *Pool) TokSeq(s string) (Path, error) {
	var path Path
	s = strings.Trim(s, "/")
	if s == "" {
		return Root(), nil
	}
	parts := strings.Split(s, "/")
	if len(parts) > MaxPathDepth-1 {
		return path, fmt.Errorf("strpool: path exceeds MAX_PATH_DEPTH (%d): %q", MaxPathDepth, s)
	}
	i := 0
	for _, part := range parts {
		if part == "" {
			continue
		}
		path[i] = p.Intern(part)
		i++
	}
	for ; i < MaxPathDepth; i++ {
		path[i] = Sentinel
	}
	return path, nil
}

// String renders a Path back to its slash-separated form, for diagnostics.
func (p *Pool) String(path Path) string {
	if path.Empty() {
		return ""
	}
	parts := make([]string, 0, MaxPathDepth)
	for _, id := range path {
		if id == Sentinel {
			break
		}
		parts = append(parts, p.Token(id))
	}
	return strings.Join(parts, "/")
}
