package svndump

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/helloandre/svndump2git/internal/lineinput"
	"github.com/sirupsen/logrus"
)

// propsEnd terminates a property block (spec.md §4.1).
const propsEnd = "PROPS-END"

// tri is a tri-state flag: unset, explicitly set true, explicitly set
// false (deleted). Used to track svn:executable/svn:special independently
// within one property block — spec.md §9's redesign flag, replacing the
// source's single shared "type was set" bit that could misreport an
// isolated property change.
type tri int

const (
	triUnset tri = iota
	triTrue
	triFalse
)

// readPropRecord reads one "<T> <len>\n<len bytes>\n" record. It returns
// io.EOF (not an error) once the PROPS-END sentinel line is read.
func readPropRecord(in *lineinput.Reader) (kind byte, data []byte, err error) {
	line, err := in.ReadLine()
	if err != nil {
		return 0, nil, fatalf("prop-read", "reading property record: %v", err)
	}
	if line == propsEnd {
		return 0, nil, io.EOF
	}
	parts := strings.SplitN(line, " ", 2)
	if len(parts) != 2 || len(parts[0]) != 1 {
		return 0, nil, fatalf("prop-header", "malformed property header %q", line)
	}
	switch parts[0][0] {
	case 'K', 'V', 'D':
	default:
		return 0, nil, fatalf("prop-header", "unknown property record type %q", parts[0])
	}
	n, convErr := strconv.Atoi(parts[1])
	if convErr != nil || n < 0 {
		return 0, nil, fatalf("prop-header", "malformed length in %q", line)
	}
	data, err = in.ReadBinary(n)
	if err != nil {
		return 0, nil, fatalf("prop-body", "short read of %d bytes: %v", n, err)
	}
	nl, err := in.ReadChar()
	if err != nil || nl != '\n' {
		return 0, nil, fatalf("prop-body", "missing trailing newline after property record")
	}
	return parts[0][0], data, nil
}

// parsePropBlock drives the K/V/D loop until PROPS-END, calling dispatch
// once per property with its value (nil means deleted).
func parsePropBlock(in *lineinput.Reader, dispatch func(key string, value *string) error) error {
	for {
		kind, data, err := readPropRecord(in)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch kind {
		case 'K':
			key := string(data)
			vkind, vdata, verr := readPropRecord(in)
			if verr == io.EOF {
				return fatalf("prop-sequence", "K %q not followed by a V record", key)
			}
			if verr != nil {
				return verr
			}
			if vkind != 'V' {
				return fatalf("prop-sequence", "K %q must be followed by V, got %q", key, string(vkind))
			}
			val := string(vdata)
			if err := dispatch(key, &val); err != nil {
				return err
			}
		case 'D':
			if err := dispatch(string(data), nil); err != nil {
				return err
			}
		case 'V':
			return fatalf("prop-sequence", "V record without a preceding K")
		default:
			return fatalf("prop-sequence", "unexpected property record type %q", string(kind))
		}
	}
}

// parseNodeProps reads one node's property block, resolving
// svn:executable/svn:special into n.typ.
func parseNodeProps(in *lineinput.Reader, n *nodeCtx) error {
	var executable, special tri
	err := parsePropBlock(in, func(key string, value *string) error {
		switch key {
		case "svn:executable":
			if value != nil {
				if special == triTrue {
					return fatalf("prop-type-set-twice", "both svn:executable and svn:special set in one property block")
				}
				executable = triTrue
			} else {
				executable = triFalse
			}
		case "svn:special":
			if value != nil {
				if executable == triTrue {
					return fatalf("prop-type-set-twice", "both svn:executable and svn:special set in one property block")
				}
				special = triTrue
			} else {
				special = triFalse
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	switch {
	case special == triTrue:
		n.typ = Symlink
	case executable == triTrue:
		n.typ = Executable
	case executable == triFalse || special == triFalse:
		n.typ = RegularFile
	}
	return nil
}

// parseRevProps reads one revision's property block, resolving
// svn:log/svn:author/svn:date into rev.
func parseRevProps(in *lineinput.Reader, rev *RevCtx, logger *logrus.Logger) error {
	return parsePropBlock(in, func(key string, value *string) error {
		switch key {
		case "svn:log":
			if value == nil {
				return fatalf("prop-unset-not-allowed", "svn:log cannot be unset")
			}
			rev.Log = *value
		case "svn:author":
			if value == nil {
				rev.Author = ""
				rev.authorSet = false
			} else {
				rev.Author = *value
				rev.authorSet = true
			}
		case "svn:date":
			if value == nil {
				return fatalf("prop-unset-not-allowed", "svn:date cannot be unset")
			}
			ts, perr := parseSvnDate(*value)
			if perr != nil {
				logger.Warnf("svndump: unparseable svn:date %q (revision %d): %v", *value, rev.Revision, perr)
				return nil // keep prior timestamp per spec.md §9's documented deviation
			}
			rev.Timestamp = ts
		}
		return nil
	})
}

// svn dump dates are ISO-8601 UTC, e.g. "2011-11-23T17:13:23.421631Z".
var svnDateLayouts = []string{
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02T15:04:05Z",
	time.RFC3339Nano,
	time.RFC3339,
}

func parseSvnDate(s string) (int64, error) {
	var lastErr error
	for _, layout := range svnDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix(), nil
		} else {
			lastErr = err
		}
	}
	return 0, lastErr
}
