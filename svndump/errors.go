package svndump

import "fmt"

// FatalError is returned for every format violation spec.md §7 classifies
// as fatal: unknown property op, text-delta, version > 3, deletion with a
// body, dir/file confusion, and the like. Read aborts on the first one.
type FatalError struct {
	Rule   string // short name of the violated rule, e.g. "text-delta-unsupported"
	Detail string
}

func (e *FatalError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("svndump: fatal: %s", e.Rule)
	}
	return fmt.Sprintf("svndump: fatal: %s: %s", e.Rule, e.Detail)
}

func fatalf(rule, format string, args ...interface{}) error {
	return &FatalError{Rule: rule, Detail: fmt.Sprintf(format, args...)}
}
