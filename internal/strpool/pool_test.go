package strpool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokSeqRoundTrip(t *testing.T) {
	p := New()
	path, err := p.TokSeq("trunk/src/file.txt")
	assert.NoError(t, err)
	assert.Equal(t, 3, path.Len())
	assert.Equal(t, "trunk/src/file.txt", p.String(path))
}

func TestTokSeqEmptyIsRoot(t *testing.T) {
	p := New()
	path, err := p.TokSeq("")
	assert.NoError(t, err)
	assert.True(t, path.Empty())
	assert.Equal(t, Root(), path)
}

func TestInternStable(t *testing.T) {
	p := New()
	a, _ := p.TokSeq("trunk/a")
	b, _ := p.TokSeq("trunk/b")
	assert.Equal(t, a[0], b[0]) // shared "trunk" component reuses the id
}

func TestTokSeqTooDeep(t *testing.T) {
	p := New()
	parts := make([]string, MaxPathDepth+1)
	for i := range parts {
		parts[i] = "d"
	}
	_, err := p.TokSeq(strings.Join(parts, "/"))
	assert.Error(t, err)
}

func TestPathEqual(t *testing.T) {
	p := New()
	a, _ := p.TokSeq("trunk/a")
	b, _ := p.TokSeq("trunk/a")
	assert.True(t, a.Equal(b))
}
