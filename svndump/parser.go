package svndump

import (
	"io"
	"strconv"
	"strings"

	"github.com/helloandre/svndump2git/fastexport"
	"github.com/helloandre/svndump2git/internal/lineinput"
	"github.com/helloandre/svndump2git/internal/repotree"
	"github.com/helloandre/svndump2git/internal/strpool"
	"github.com/sirupsen/logrus"
)

// scope is the dump state machine's current nesting level (spec.md §3).
type scope int

const (
	scopeDump scope = iota
	scopeRev
	scopeNode
)

// options configure a Reader at construction time.
type options struct {
	logger      *logrus.Logger
	ref         string
	repoURL     string
	maxRevision uint32
	blobSink    func(mark uint32, data []byte)
	authorMail  func(author string) string
}

// Option configures a Reader returned by New.
type Option func(*options)

// WithLogger sets the logger used for warnings (default: logrus's standard
// logger).
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRef sets the git ref every commit is written against (default
// "refs/heads/main").
func WithRef(ref string) Option {
	return func(o *options) { o.ref = ref }
}

// WithRepoURL records the originating repository URL for the "svn-url"
// trailer on each emitted commit; the dump format itself carries no URL
// header, so this has to come from the caller (cmd/svndump2git passes its
// config file's repo_url).
func WithRepoURL(url string) Option {
	return func(o *options) { o.repoURL = url }
}

// WithMaxRevision stops translation once a Revision-number greater than n
// is seen, leaving everything already emitted intact (SPEC_FULL.md §9's
// supplemented --max.revision).
func WithMaxRevision(n uint32) Option {
	return func(o *options) { o.maxRevision = n }
}

// WithBlobSink forwards every emitted blob's mark and raw content to sink,
// for cmd/svndump2git's --dump.blobs diagnostic mode.
func WithBlobSink(sink func(mark uint32, data []byte)) Option {
	return func(o *options) { o.blobSink = sink }
}

// WithAuthorEmail sets the function used to turn a bare svn author name
// into the commit author/committer email (default: "<author>@svn").
// cmd/svndump2git passes its loaded config's AuthorEmail method.
func WithAuthorEmail(fn func(author string) string) Option {
	return func(o *options) { o.authorMail = fn }
}

// Reader drives the dump state machine across one or more Read calls,
// owning its own DumpCtx/RevCtx/NodeCtx so distinct Readers over distinct
// io.Readers never share state (spec.md §9's redesign away from file-scope
// globals). A single Reader supports only one Read call at a time.
type Reader struct {
	pool    *strpool.Pool
	tree    *repotree.Tree
	emitter *fastexport.Emitter
	logger  *logrus.Logger

	repoURL     string
	maxRevision uint32

	dump    DumpCtx
	rev     RevCtx
	node    nodeCtx
	scope   scope
	changes []fastexport.Change
	stopped bool
}

// New creates a Reader that writes fast-export records to w.
func New(w io.Writer, opts ...Option) *Reader {
	cfg := options{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}
	pool := strpool.New()
	var emitterOpts []fastexport.Option
	if cfg.blobSink != nil {
		emitterOpts = append(emitterOpts, fastexport.WithBlobSink(cfg.blobSink))
	}
	if cfg.authorMail != nil {
		emitterOpts = append(emitterOpts, fastexport.WithAuthorEmail(cfg.authorMail))
	}
	r := &Reader{
		pool:        pool,
		tree:        repotree.New(pool),
		emitter:     fastexport.New(w, cfg.ref, emitterOpts...),
		logger:      cfg.logger,
		repoURL:     cfg.repoURL,
		maxRevision: cfg.maxRevision,
	}
	r.dump.URL = cfg.repoURL
	return r
}

// Reset discards all accumulated dump/revision/node/tree state, as at the
// start of a fresh Read. The underlying writer and options are unchanged.
func (rd *Reader) Reset() {
	rd.tree.Reset()
	rd.emitter.Reset()
	rd.dump.reset()
	rd.dump.URL = rd.repoURL
	rd.rev.reset(0)
	rd.node.reset()
	rd.scope = scopeDump
	rd.changes = nil
	rd.stopped = false
}

// Read drives the state machine over r until EOF or a fatal format error.
func (rd *Reader) Read(r io.Reader) error {
	in := lineinput.New(r)
	for {
		line, err := in.ReadLine()
		if err == io.EOF {
			return rd.finalizeAtEOF(in)
		}
		if err != nil {
			return fatalf("io-error", "%v", err)
		}
		if line == "" {
			continue
		}
		key, value, ok := splitHeader(line)
		if !ok {
			rd.logger.Debugf("svndump: skipping non-header line %q", line)
			continue
		}
		if err := rd.dispatch(key, value, in); err != nil {
			return err
		}
		if rd.stopped {
			return nil
		}
	}
}

// splitHeader recognizes "KEY: VALUE" on the exact ": " separator
// spec.md §4.3 requires.
func splitHeader(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ": ")
	if idx < 0 {
		return "", "", false
	}
	return line[:idx], line[idx+2:], true
}

func (rd *Reader) dispatch(key, value string, in *lineinput.Reader) error {
	switch key {
	case "SVN-fs-dump-format-version":
		v, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fatalf("bad-dump-version", "%q", value)
		}
		if v > 3 {
			return fatalf("unsupported-dump-version", "version %d", v)
		}
		rd.dump.Version = uint32(v)

	case "UUID":
		rd.dump.UUID = value

	case "Revision-number":
		v, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fatalf("bad-revision-number", "%q", value)
		}
		if rd.scope == scopeNode {
			if err := rd.finalizeNode(in); err != nil {
				return err
			}
		}
		if rd.scope != scopeDump {
			if err := rd.finalizeRevision(); err != nil {
				return err
			}
		}
		if rd.maxRevision > 0 && uint32(v) > rd.maxRevision {
			rd.stopped = true
			return nil
		}
		rd.rev.reset(uint32(v))
		rd.scope = scopeRev

	case "Node-path":
		if rd.scope == scopeNode {
			if err := rd.finalizeNode(in); err != nil {
				return err
			}
		}
		rd.node.reset()
		p, err := rd.pool.TokSeq(value)
		if err != nil {
			return fatalf("path-too-deep", "%v", err)
		}
		rd.node.dst = p
		rd.node.havePath = true
		rd.scope = scopeNode

	case "Node-kind":
		switch value {
		case "dir":
			rd.node.typ = Dir
			rd.node.kindExplicit = true
		case "file":
			rd.node.typ = RegularFile
			rd.node.kindExplicit = true
		default:
			rd.logger.Warnf("svndump: unknown Node-kind %q", value)
		}

	case "Node-action":
		a, ok := parseNodeAction(value)
		if !ok {
			rd.logger.Warnf("svndump: unknown Node-action %q", value)
			rd.node.actionWarning = true
			a = Unknown
		}
		rd.node.action = a

	case "Node-copyfrom-path":
		p, err := rd.pool.TokSeq(value)
		if err != nil {
			return fatalf("path-too-deep", "%v", err)
		}
		rd.node.src = p
		rd.node.srcSet = true
		rd.node.haveCopyFrom = true

	case "Node-copyfrom-rev":
		v, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fatalf("bad-copyfrom-rev", "%q", value)
		}
		rd.node.srcRev = uint32(v)
		rd.node.haveCopyFrom = true

	case "Text-content-length":
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return fatalf("bad-text-length", "%q", value)
		}
		rd.node.textLength = v
		rd.node.haveTextLen = true

	case "Prop-content-length":
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return fatalf("bad-prop-length", "%q", value)
		}
		rd.node.propLength = v
		rd.node.havePropLen = true

	case "Text-delta":
		rd.node.textDelta = value == "true"

	case "Prop-delta":
		rd.node.propDelta = value == "true"

	case "Content-length":
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return fatalf("bad-content-length", "%q", value)
		}
		return rd.handleContentLength(v, in)

	default:
		// Silent tolerance: unknown top-level headers.
		rd.logger.Debugf("svndump: ignoring unknown header %q", key)
	}
	return nil
}

// handleContentLength consumes the mandatory blank line a Content-length
// header is always followed by, then dispatches by scope per spec.md §4.3.
func (rd *Reader) handleContentLength(n int, in *lineinput.Reader) error {
	blank, err := in.ReadLine()
	if err != nil {
		return fatalf("content-length-framing", "%v", err)
	}
	if blank != "" {
		return fatalf("content-length-framing", "expected blank line before body, got %q", blank)
	}
	switch rd.scope {
	case scopeRev:
		return parseRevProps(in, &rd.rev, rd.logger)
	case scopeNode:
		if err := rd.finalizeNode(in); err != nil {
			return err
		}
		rd.scope = scopeRev
		return nil
	default:
		rd.logger.Warnf("svndump: unexpected Content-length %d outside a scope that wants a body, skipping", n)
		if _, err := in.SkipBytes(n); err != nil {
			return fatalf("content-length-skip", "%v", err)
		}
		return nil
	}
}

func (rd *Reader) finalizeNode(in *lineinput.Reader) error {
	ch, err := resolveNode(&rd.node, rd.tree, rd.emitter, rd.pool, in, rd.logger)
	if err != nil {
		return err
	}
	if ch != nil {
		rd.changes = append(rd.changes, *ch)
	}
	rd.node.reset()
	return nil
}

// finalizeRevision commits the accumulated revision (if r >= 1) and resets
// the pending change list. Revision 0 carries only dump-wide properties
// and never produces a commit (spec.md §3).
func (rd *Reader) finalizeRevision() error {
	defer func() { rd.changes = nil }()
	if rd.rev.Revision == 0 {
		return nil
	}
	rd.tree.Commit(rd.rev.Revision)
	return rd.emitter.Commit(rd.rev.Revision, rd.rev.Author, rd.rev.Log, rd.dump.UUID, rd.dump.URL, rd.rev.Timestamp, rd.changes)
}

func (rd *Reader) finalizeAtEOF(in *lineinput.Reader) error {
	if rd.scope == scopeNode {
		if err := rd.finalizeNode(in); err != nil {
			return err
		}
	}
	if rd.scope != scopeDump {
		if err := rd.finalizeRevision(); err != nil {
			return err
		}
	}
	return nil
}
