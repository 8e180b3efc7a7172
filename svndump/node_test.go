package svndump

import (
	"bytes"
	"strings"
	"testing"

	"github.com/helloandre/svndump2git/fastexport"
	"github.com/helloandre/svndump2git/internal/lineinput"
	"github.com/helloandre/svndump2git/internal/repotree"
	"github.com/helloandre/svndump2git/internal/strpool"
	"github.com/stretchr/testify/assert"
)

func newResolveFixture() (*strpool.Pool, *repotree.Tree, *fastexport.Emitter, *bytes.Buffer) {
	pool := strpool.New()
	tree := repotree.New(pool)
	buf := &bytes.Buffer{}
	em := fastexport.New(buf, "")
	return pool, tree, em, buf
}

func mustPath(t *testing.T, pool *strpool.Pool, s string) strpool.Path {
	t.Helper()
	p, err := pool.TokSeq(s)
	assert.NoError(t, err)
	return p
}

func TestResolveNodeAddFile(t *testing.T) {
	pool, tree, em, _ := newResolveFixture()
	in := lineinput.New(strings.NewReader("hello"))
	n := &nodeCtx{
		action: Add, typ: RegularFile, kindExplicit: true,
		dst: mustPath(t, pool, "a.txt"),
		haveTextLen: true, textLength: 5,
	}
	ch, err := resolveNode(n, tree, em, pool, in, testLogger())
	assert.NoError(t, err)
	assert.NotNil(t, ch)
	assert.Equal(t, "a.txt", ch.Path)
	assert.Equal(t, uint32(1), ch.Mark)
	mode, ok := tree.ReadMode(n.dst)
	assert.True(t, ok)
	assert.Equal(t, RegularFile, mode)
}

func TestResolveNodeAddDirProducesNoChange(t *testing.T) {
	pool, tree, em, _ := newResolveFixture()
	in := lineinput.New(strings.NewReader(""))
	n := &nodeCtx{action: Add, typ: Dir, kindExplicit: true, dst: mustPath(t, pool, "trunk")}
	ch, err := resolveNode(n, tree, em, pool, in, testLogger())
	assert.NoError(t, err)
	assert.Nil(t, ch)
	mode, ok := tree.ReadMode(n.dst)
	assert.True(t, ok)
	assert.Equal(t, Dir, mode)
}

func TestResolveNodeChangeInheritsModeAndMark(t *testing.T) {
	pool, tree, em, _ := newResolveFixture()
	p := mustPath(t, pool, "a.txt")
	assert.NoError(t, tree.Add(p, RegularFile, 7))
	in := lineinput.New(strings.NewReader(""))
	n := &nodeCtx{action: Change, dst: p, propDelta: true}
	ch, err := resolveNode(n, tree, em, pool, in, testLogger())
	assert.NoError(t, err)
	assert.Equal(t, RegularFile, ch.Mode)
	assert.Equal(t, uint32(7), ch.Mark)
}

func TestResolveNodeDeleteProducesDeleteChange(t *testing.T) {
	pool, tree, em, _ := newResolveFixture()
	p := mustPath(t, pool, "a.txt")
	assert.NoError(t, tree.Add(p, RegularFile, 1))
	in := lineinput.New(strings.NewReader(""))
	n := &nodeCtx{action: Delete, dst: p}
	ch, err := resolveNode(n, tree, em, pool, in, testLogger())
	assert.NoError(t, err)
	assert.True(t, ch.Delete)
	assert.False(t, tree.Exists(p))
}

func TestResolveNodeDeleteWithContentIsFatal(t *testing.T) {
	pool, tree, em, _ := newResolveFixture()
	in := lineinput.New(strings.NewReader("x"))
	n := &nodeCtx{action: Delete, dst: mustPath(t, pool, "a.txt"), haveTextLen: true, textLength: 1}
	_, err := resolveNode(n, tree, em, pool, in, testLogger())
	assert.Error(t, err)
}

func TestResolveNodeReplaceActsAsFreshAdd(t *testing.T) {
	pool, tree, em, _ := newResolveFixture()
	p := mustPath(t, pool, "a.txt")
	assert.NoError(t, tree.Add(p, RegularFile, 1))
	in := lineinput.New(strings.NewReader("zz"))
	n := &nodeCtx{action: Replace, typ: RegularFile, kindExplicit: true, dst: p, haveTextLen: true, textLength: 2}
	ch, err := resolveNode(n, tree, em, pool, in, testLogger())
	assert.NoError(t, err)
	assert.Equal(t, uint32(1), ch.Mark)
}

func TestResolveNodeCopyFromDowngradesAddToChange(t *testing.T) {
	pool, tree, em, _ := newResolveFixture()
	src := mustPath(t, pool, "trunk/a.txt")
	assert.NoError(t, tree.Add(src, RegularFile, 3))
	tree.Commit(1)
	dst := mustPath(t, pool, "branches/b/a.txt")
	in := lineinput.New(strings.NewReader(""))
	n := &nodeCtx{action: Add, dst: dst, haveCopyFrom: true, src: src, srcRev: 1}
	ch, err := resolveNode(n, tree, em, pool, in, testLogger())
	assert.NoError(t, err)
	assert.Equal(t, uint32(3), ch.Mark)
	assert.Equal(t, RegularFile, ch.Mode)
}

func TestResolveNodeTextDeltaIsFatal(t *testing.T) {
	pool, tree, em, _ := newResolveFixture()
	in := lineinput.New(strings.NewReader(""))
	n := &nodeCtx{action: Add, dst: mustPath(t, pool, "a.txt"), textDelta: true}
	_, err := resolveNode(n, tree, em, pool, in, testLogger())
	assert.Error(t, err)
	var fe *FatalError
	assert.ErrorAs(t, err, &fe)
}

func TestResolveNodeUnknownActionIsFatal(t *testing.T) {
	pool, tree, em, _ := newResolveFixture()
	in := lineinput.New(strings.NewReader(""))
	n := &nodeCtx{action: Unknown, dst: mustPath(t, pool, "a.txt")}
	_, err := resolveNode(n, tree, em, pool, in, testLogger())
	assert.Error(t, err)
}

func TestResolveNodeAddWithoutContentIsFatal(t *testing.T) {
	pool, tree, em, _ := newResolveFixture()
	in := lineinput.New(strings.NewReader(""))
	n := &nodeCtx{action: Add, typ: RegularFile, kindExplicit: true, dst: mustPath(t, pool, "a.txt")}
	_, err := resolveNode(n, tree, em, pool, in, testLogger())
	assert.Error(t, err)
}

func TestResolveNodeTextOnDirectoryIsFatal(t *testing.T) {
	pool, tree, em, _ := newResolveFixture()
	in := lineinput.New(strings.NewReader("x"))
	n := &nodeCtx{action: Add, typ: Dir, kindExplicit: true, dst: mustPath(t, pool, "trunk"), haveTextLen: true, textLength: 1}
	_, err := resolveNode(n, tree, em, pool, in, testLogger())
	assert.Error(t, err)
}
