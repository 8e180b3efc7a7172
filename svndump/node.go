package svndump

import (
	"github.com/helloandre/svndump2git/fastexport"
	"github.com/helloandre/svndump2git/internal/lineinput"
	"github.com/helloandre/svndump2git/internal/repotree"
	"github.com/helloandre/svndump2git/internal/strpool"
	"github.com/sirupsen/logrus"
)

// resolveNode applies one fully-header-parsed node record — reading its
// property and text bodies directly off in — to repo and emitter. It
// returns the fast-export change the node produced, or nil for a
// directory-only add/change, since git tracks directories implicitly
// rather than as their own blob/commit entries.
func resolveNode(n *nodeCtx, repo *repotree.Tree, emitter *fastexport.Emitter, pool *strpool.Pool, in *lineinput.Reader, logger *logrus.Logger) (*fastexport.Change, error) {
	// Preflight.
	if n.textDelta {
		return nil, fatalf("text-delta-unsupported", "node %s", pool.String(n.dst))
	}
	entryType := n.typ // what Node-kind (if any) said, before mode resolution below
	var mark uint32
	if n.haveTextLen {
		mark = emitter.NextBlobMark()
	}

	// Action resolution.
	if n.action == Delete {
		if n.haveTextLen || n.havePropLen || n.haveCopyFrom {
			return nil, fatalf("delete-with-content", "node %s", pool.String(n.dst))
		}
		if err := repo.Delete(n.dst); err != nil {
			return nil, fatalf("delete-failed", "%v", err)
		}
		return &fastexport.Change{Path: pool.String(n.dst), Delete: true}, nil
	}
	effectiveAction := n.action
	if effectiveAction == Replace {
		if err := repo.Delete(n.dst); err != nil {
			return nil, fatalf("delete-failed", "%v", err)
		}
		effectiveAction = Add
	}
	if n.haveCopyFrom {
		if n.srcRev == 0 {
			// Per spec.md §9's open question: a copyfrom-path with no
			// copyfrom-rev is tolerated, not fatal.
			logger.Warnf("svndump: node %s has copyfrom-path with no copyfrom-rev, ignoring", pool.String(n.dst))
		} else {
			if err := repo.Copy(n.srcRev, n.src, n.dst); err != nil {
				return nil, fatalf("copy-failed", "%v", err)
			}
			if effectiveAction == Add {
				effectiveAction = Change
			}
		}
	}
	if n.haveTextLen && n.typ == Dir {
		return nil, fatalf("text-on-directory", "node %s", pool.String(n.dst))
	}

	// Mode resolution.
	switch effectiveAction {
	case Change:
		if n.isRoot() {
			if n.kindExplicit && n.typ != Dir {
				return nil, fatalf("root-change-not-dir", "root node must be a directory")
			}
			n.typ = Dir
		} else {
			if !n.haveTextLen {
				mark = repo.ReadPath(n.dst)
			}
			priorMode, exists := repo.ReadMode(n.dst)
			if !exists {
				return nil, fatalf("change-missing-path", "node %s has no prior revision", pool.String(n.dst))
			}
			if n.kindExplicit && (n.typ == Dir) != (priorMode == Dir) {
				return nil, fatalf("dir-file-mismatch", "node %s", pool.String(n.dst))
			}
			n.typ = priorMode
		}
	case Add:
		if n.typ != Dir && !n.haveTextLen {
			return nil, fatalf("add-without-content", "node %s", pool.String(n.dst))
		}
	case Unknown:
		return nil, fatalf("unknown-node-action", "node %s", pool.String(n.dst))
	}

	// Property pass.
	if n.havePropLen {
		if !n.propDelta {
			// Full (non-delta) property replacement: the pre-property type
			// is the only thing carried forward, not mode resolution's
			// inherited executable/special bit.
			if entryType != ModeAbsent {
				n.typ = entryType
			} else if n.typ != Dir {
				n.typ = RegularFile
			}
		}
		if n.propLength > 0 {
			if err := parseNodeProps(in, n); err != nil {
				return nil, err
			}
		}
	}

	// Commit to tree.
	if err := repo.Add(n.dst, n.typ, mark); err != nil {
		return nil, fatalf("add-failed", "%v", err)
	}
	if n.haveTextLen {
		if err := emitter.Blob(mark, n.textLength, in.LimitReader(n.textLength)); err != nil {
			return nil, err
		}
	}

	if n.typ == Dir {
		return nil, nil
	}
	return &fastexport.Change{Path: pool.String(n.dst), Mode: n.typ, Mark: mark}, nil
}
