package repotree

import (
	"testing"

	"github.com/helloandre/svndump2git/internal/strpool"
	"github.com/stretchr/testify/assert"
)

func path(t *testing.T, pool *strpool.Pool, s string) strpool.Path {
	t.Helper()
	p, err := pool.TokSeq(s)
	assert.NoError(t, err)
	return p
}

func TestAddAndReadModeRoundTrip(t *testing.T) {
	pool := strpool.New()
	tree := New(pool)
	readme := path(t, pool, "README")
	assert.NoError(t, tree.Add(readme, RegularFile, 1))
	mode, ok := tree.ReadMode(readme)
	assert.True(t, ok)
	assert.Equal(t, RegularFile, mode)
	assert.Equal(t, uint32(1), tree.ReadPath(readme))
}

func TestDeleteRemovesEntry(t *testing.T) {
	pool := strpool.New()
	tree := New(pool)
	p := path(t, pool, "a/b")
	assert.NoError(t, tree.Add(p, RegularFile, 5))
	assert.True(t, tree.Exists(p))
	assert.NoError(t, tree.Delete(p))
	assert.False(t, tree.Exists(p))
}

func TestDeleteDirRemovesSubtree(t *testing.T) {
	pool := strpool.New()
	tree := New(pool)
	f := path(t, pool, "dir/file.txt")
	assert.NoError(t, tree.Add(f, RegularFile, 1))
	dir := path(t, pool, "dir")
	assert.NoError(t, tree.Delete(dir))
	assert.False(t, tree.Exists(f))
}

func TestCopyCurrentState(t *testing.T) {
	pool := strpool.New()
	tree := New(pool)
	src := path(t, pool, "trunk/file.txt")
	assert.NoError(t, tree.Add(src, RegularFile, 7))
	dst := path(t, pool, "branches/b1/file.txt")
	assert.NoError(t, tree.Copy(0, src, dst))
	mode, ok := tree.ReadMode(dst)
	assert.True(t, ok)
	assert.Equal(t, RegularFile, mode)
	assert.Equal(t, uint32(7), tree.ReadPath(dst))
}

func TestCopyFromOlderRevisionSnapshot(t *testing.T) {
	pool := strpool.New()
	tree := New(pool)
	a := path(t, pool, "A")
	assert.NoError(t, tree.Add(a, RegularFile, 1))
	tree.Commit(1)

	// rev 2 changes A's content mark
	assert.NoError(t, tree.Add(a, RegularFile, 2))
	tree.Commit(2)

	// a copy from rev 1 should see the original mark, not the rev-2 mutation
	b := path(t, pool, "B")
	assert.NoError(t, tree.Copy(1, a, b))
	assert.Equal(t, uint32(1), tree.ReadPath(b))
}

func TestCopyMissingSourceErrors(t *testing.T) {
	pool := strpool.New()
	tree := New(pool)
	src := path(t, pool, "nope")
	dst := path(t, pool, "dst")
	assert.Error(t, tree.Copy(0, src, dst))
}

func TestResetClearsTreeAndHistory(t *testing.T) {
	pool := strpool.New()
	tree := New(pool)
	a := path(t, pool, "A")
	assert.NoError(t, tree.Add(a, RegularFile, 1))
	tree.Commit(1)
	tree.Reset()
	assert.False(t, tree.Exists(a))
	assert.Error(t, tree.Copy(1, a, a))
}
