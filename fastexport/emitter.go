// Package fastexport writes the git-fast-export-style blob and commit
// records that the svndump core's node resolver and revision framer
// produce. It owns mark allocation (component D in spec.md's system
// overview), exactly as the teacher's journal package owns p4 changelist
// and rev-record framing for its own writer.
package fastexport

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/helloandre/svndump2git/internal/repotree"
)

// Change describes one path mutation to attach to a commit record.
type Change struct {
	Path   string
	Mode   repotree.Mode
	Mark   uint32 // content blob mark; unused when Delete is set
	Delete bool
}

func gitMode(m repotree.Mode) string {
	switch m {
	case repotree.Executable:
		return "100755"
	case repotree.Symlink:
		return "120000"
	case repotree.Dir:
		return "040000"
	default:
		return "100644"
	}
}

// CommitMarkOffset shifts commit marks into a range disjoint from blob
// marks. Blob marks and revision numbers both start at 1 and grow from
// there, so a commit mark of bare rev would collide with the blob mark of
// the same value the commit's own M lines may reference; git fast-import
// treats marks as one shared namespace and would rebind the colliding mark
// to the commit object, corrupting the blob reference.
const CommitMarkOffset = 1 << 31

// Emitter writes fast-export records to an underlying io.Writer and hands
// out monotonically increasing blob marks.
type Emitter struct {
	w          io.Writer
	lastMark   uint32
	ref        string
	sink       func(mark uint32, data []byte)
	authorMail func(author string) string
}

// Option configures an Emitter returned by New.
type Option func(*Emitter)

// WithBlobSink installs a callback invoked with each blob's full content
// immediately after it has been streamed to the underlying writer.
// cmd/svndump2git's --dump.blobs diagnostic mode uses this to archive
// blobs concurrently through a worker pool, the same way the teacher's
// import path farms archive writes out while parsing continues.
func WithBlobSink(sink func(mark uint32, data []byte)) Option {
	return func(e *Emitter) { e.sink = sink }
}

// WithAuthorEmail installs the function used to turn a bare svn author name
// into the email written into author/committer lines. cmd/svndump2git
// passes its loaded config's AuthorEmail method so the configured pattern
// actually reaches commit emission.
func WithAuthorEmail(fn func(author string) string) Option {
	return func(e *Emitter) { e.authorMail = fn }
}

// New wraps w. ref is the git ref every commit is written against (svn
// dumps carry no branch concept at the core level; §9 notes ambient
// branch-prefix mapping lives in cmd/svngraph, not here).
func New(w io.Writer, ref string, opts ...Option) *Emitter {
	if ref == "" {
		ref = "refs/heads/main"
	}
	e := &Emitter{
		w:   w,
		ref: ref,
		authorMail: func(author string) string {
			return fmt.Sprintf("%s@svn", author)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reset clears the mark counter, as at the start of a fresh Read.
func (e *Emitter) Reset() {
	atomic.StoreUint32(&e.lastMark, 0)
}

// NextBlobMark allocates and returns the next blob mark, starting at 1.
// Marks are strictly increasing for the lifetime of the Emitter (spec.md
// §8's monotonic-marks invariant).
func (e *Emitter) NextBlobMark() uint32 {
	return atomic.AddUint32(&e.lastMark, 1)
}

// Blob writes one blob record, copying exactly length bytes from r as its
// body — the node resolver calls this to stream text straight from the
// dump's input reader without buffering the whole thing in memory.
func (e *Emitter) Blob(mark uint32, length int, r io.Reader) error {
	if _, err := fmt.Fprintf(e.w, "blob\nmark :%d\ndata %d\n", mark, length); err != nil {
		return err
	}
	if length > 0 {
		if e.sink == nil {
			if _, err := io.CopyN(e.w, r, int64(length)); err != nil {
				return err
			}
		} else {
			buf := make([]byte, length)
			if _, err := io.ReadFull(io.TeeReader(r, e.w), buf); err != nil {
				return err
			}
			e.sink(mark, buf)
		}
	}
	_, err := fmt.Fprint(e.w, "\n")
	return err
}

// Commit writes one commit record for rev, with author/log/date taken from
// the accumulated revision metadata (svndump's RevCtx) and one fast-export
// "M"/"D" line per change. uuid/url are recorded as a trailing comment line
// so downstream tooling can recover the originating svn repository without
// the core needing to understand any git-side provenance convention.
func (e *Emitter) Commit(rev uint32, author, log, uuid, url string, ts int64, changes []Change) error {
	if author == "" {
		author = "unknown"
	}
	email := e.authorMail(author)
	msg := log
	if _, err := fmt.Fprintf(e.w, "commit %s\n", e.ref); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "mark :%d\n", CommitMarkOffset+rev); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "author %s <%s> %d +0000\n", author, email, ts); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "committer %s <%s> %d +0000\n", author, email, ts); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "data %d\n%s\n", len(msg), msg); err != nil {
		return err
	}
	if uuid != "" || url != "" {
		if _, err := fmt.Fprintf(e.w, "# svn-uuid: %s svn-url: %s svn-rev: %d\n", uuid, url, rev); err != nil {
			return err
		}
	}
	for _, c := range changes {
		var err error
		if c.Delete {
			_, err = fmt.Fprintf(e.w, "D %s\n", c.Path)
		} else {
			_, err = fmt.Fprintf(e.w, "M %s :%d %s\n", gitMode(c.Mode), c.Mark, c.Path)
		}
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(e.w, "\n")
	return err
}
