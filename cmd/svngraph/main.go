package main

// svngraph scans an svnadmin dump stream for Node-copyfrom-path/-rev
// relationships and renders them as a Graphviz DOT file, the svn analogue
// of the teacher's cmd/gitgraph commit-parent graph: since svn revisions
// are already linear, the only branch-like structure worth graphing is
// which paths were copied from which other paths at which revision.

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/helloandre/svndump2git/config"
	"github.com/helloandre/svndump2git/internal/lineinput"

	"github.com/emicklei/dot"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// copyEdge records one copy-from relationship: dst was created in rev by
// copying src as it existed at srcRev.
type copyEdge struct {
	srcRev uint32
	src    string
	rev    uint32
	dst    string
}

// scanner walks a dump's headers just far enough to collect copy-from
// edges, skipping every body via its declared Content-length rather than
// parsing properties or text content at all.
type scanner struct {
	logger      *logrus.Logger
	rev         uint32
	path        string
	copyFrom    string
	copyFromRev uint32
	edges       []copyEdge
}

func (s *scanner) scan(in *lineinput.Reader) error {
	for {
		line, err := in.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		idx := strings.Index(line, ": ")
		if idx < 0 {
			continue
		}
		key, value := line[:idx], line[idx+2:]
		switch key {
		case "Revision-number":
			if v, err := strconv.ParseUint(value, 10, 32); err == nil {
				s.rev = uint32(v)
			}
		case "Node-path":
			s.path = value
			s.copyFrom = ""
			s.copyFromRev = 0
		case "Node-copyfrom-path":
			s.copyFrom = value
		case "Node-copyfrom-rev":
			if v, err := strconv.ParseUint(value, 10, 32); err == nil {
				s.copyFromRev = uint32(v)
			}
			if s.copyFrom != "" {
				s.edges = append(s.edges, copyEdge{srcRev: s.copyFromRev, src: s.copyFrom, rev: s.rev, dst: s.path})
			}
		case "Content-length":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("bad Content-length %q", value)
			}
			if _, err := in.ReadLine(); err != nil { // mandatory blank line before the body
				return err
			}
			if _, err := in.SkipBytes(n); err != nil {
				return err
			}
		default:
			// Every other header is irrelevant to the copy-from graph.
		}
	}
}

func main() {
	var (
		configFile = kingpin.Flag(
			"config",
			"Config file providing branch_mappings used to label graph nodes by ref.",
		).Default("svndump2git.yaml").Short('c').String()
		dumpFile = kingpin.Arg(
			"dumpfile",
			"svnadmin dump file to scan for copy-from relationships (default stdin).",
		).String()
		output = kingpin.Flag(
			"output",
			"Graphviz dot file to write (default stdout).",
		).Short('o').String()
		firstRevision = kingpin.Flag(
			"first.revision",
			"Lowest revision to include in the graph (0 means all).",
		).Default("0").Short('f').Uint()
		lastRevision = kingpin.Flag(
			"last.revision",
			"Highest revision to include in the graph (0 means all).",
		).Default("0").Short('l').Uint()
		debug = kingpin.Flag(
			"debug",
			"Enable debugging level.",
		).Default("0").Int()
	)
	kingpin.UsageTemplate(kingpin.CompactUsageTemplate).Version(version).Author("svndump2git")
	kingpin.CommandLine.Help = "Scans an svnadmin dump for copy-from relationships and renders a Graphviz DOT file\n"
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	logger := logrus.New()
	logger.Level = logrus.InfoLevel
	if *debug > 0 {
		logger.Level = logrus.DebugLevel
	}

	cfg, err := config.LoadConfigFile(*configFile)
	if err != nil {
		logger.Warnf("no usable config at %s (%v), using defaults", *configFile, err)
		cfg, _ = config.LoadConfigString(nil)
	}

	startTime := time.Now()
	logger.Infof("svngraph %s", version)
	logger.Infof("starting %s, dumpfile: %v", startTime, *dumpFile)
	logger.Infof("OS: %s/%s", runtime.GOOS, runtime.GOARCH)

	in := io.Reader(os.Stdin)
	if *dumpFile != "" {
		f, err := os.Open(*dumpFile)
		if err != nil {
			logger.Fatalf("error opening dump file: %v", err)
		}
		defer f.Close()
		in = f
	}

	s := &scanner{logger: logger}
	if err := s.scan(lineinput.New(in)); err != nil {
		logger.Fatalf("scan failed: %v", err)
	}
	logger.Infof("found %d copy-from relationships", len(s.edges))

	graph := dot.NewGraph(dot.Directed)
	for _, e := range s.edges {
		if *firstRevision != 0 && e.rev < uint32(*firstRevision) {
			continue
		}
		if *lastRevision != 0 && e.rev > uint32(*lastRevision) {
			continue
		}
		srcNode := graph.Node(fmt.Sprintf("%s@%d (%s)", e.src, e.srcRev, cfg.RefForPath(e.src)))
		dstNode := graph.Node(fmt.Sprintf("%s@%d (%s)", e.dst, e.rev, cfg.RefForPath(e.dst)))
		graph.Edge(srcNode, dstNode, "copy")
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			logger.Fatalf("error creating output file: %v", err)
		}
		defer f.Close()
		out = f
	}
	if _, err := out.WriteString(graph.String()); err != nil {
		logger.Fatalf("error writing graph: %v", err)
	}
}
