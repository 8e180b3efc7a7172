package svndump

import (
	"github.com/helloandre/svndump2git/internal/repotree"
	"github.com/helloandre/svndump2git/internal/strpool"
)

// Mode re-exports repotree.Mode: the node resolver and the repo tree must
// agree on the same type for "effective mode" to round-trip (spec.md §8).
type Mode = repotree.Mode

const (
	ModeAbsent  = repotree.ModeAbsent
	Dir         = repotree.Dir
	RegularFile = repotree.RegularFile
	Executable  = repotree.Executable
	Symlink     = repotree.Symlink
)

// NodeAction is one node record's requested mutation (spec.md §3).
type NodeAction int

const (
	Unknown NodeAction = iota
	Add
	Change
	Delete
	Replace
)

func (a NodeAction) String() string {
	switch a {
	case Add:
		return "add"
	case Change:
		return "change"
	case Delete:
		return "delete"
	case Replace:
		return "replace"
	default:
		return "unknown"
	}
}

func parseNodeAction(v string) (NodeAction, bool) {
	switch v {
	case "add":
		return Add, true
	case "change":
		return Change, true
	case "delete":
		return Delete, true
	case "replace":
		return Replace, true
	default:
		return Unknown, false
	}
}

// DumpCtx holds dump-wide metadata; lives for one Read call.
type DumpCtx struct {
	Version uint32
	UUID    string
	URL     string
}

func (d *DumpCtx) reset() {
	*d = DumpCtx{}
}

// RevCtx accumulates one revision's metadata; reset on each
// Revision-number header, consumed when the revision closes.
type RevCtx struct {
	Revision  uint32
	Timestamp int64 // seconds since epoch
	Log       string
	Author    string
	authorSet bool
}

func (r *RevCtx) reset(rev uint32) {
	*r = RevCtx{Revision: rev}
}

// nodeCtx is per-node transient state (spec.md §3's NodeCtx), reset on
// each Node-path header.
type nodeCtx struct {
	action NodeAction
	typ    Mode

	dst strpool.Path
	src strpool.Path
	// srcSet distinguishes an explicit (even if empty-string) copyfrom-path
	// from one never seen at all, since the zero strpool.Path left by
	// reset is neither strpool.Root() nor any tokenized path.
	srcSet bool
	srcRev uint32

	propLength    int
	havePropLen   bool
	textLength    int
	haveTextLen   bool
	textDelta     bool
	propDelta     bool
	haveCopyFrom  bool
	havePath      bool
	kindExplicit  bool // Node-kind header was seen
	actionWarning bool // Node-action was present but unrecognized
}

func (n *nodeCtx) reset() {
	*n = nodeCtx{}
}

func (n *nodeCtx) isRoot() bool {
	return n.dst.Empty()
}
