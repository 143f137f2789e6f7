package diskfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.dat")

	f, existed, err := Open(path, DefaultPageSize)
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, existed)
	assert.Equal(t, uint32(0), f.NumPages())
}

func TestAllocateSkipsReservedPageZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.dat")
	f, _, err := Open(path, DefaultPageSize)
	require.NoError(t, err)
	defer f.Close()

	first, err := f.Allocate()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), first)

	second, err := f.Allocate()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), second)
}

func TestWriteThenReadPageRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.dat")
	f, _, err := Open(path, DefaultPageSize)
	require.NoError(t, err)
	defer f.Close()

	pageNo, err := f.Allocate()
	require.NoError(t, err)

	src := make([]byte, DefaultPageSize)
	copy(src, []byte("hello page"))
	require.NoError(t, f.WritePage(pageNo, src))

	dst := make([]byte, DefaultPageSize)
	require.NoError(t, f.ReadPage(pageNo, dst))
	assert.Equal(t, src, dst)
}

func TestReadWriteInvalidPageRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.dat")
	f, _, err := Open(path, DefaultPageSize)
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, DefaultPageSize)
	assert.Error(t, f.ReadPage(InvalidPage, buf))
	assert.Error(t, f.WritePage(InvalidPage, buf))
}

func TestReopenExistingFileReportsExisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.dat")
	f1, existed, err := Open(path, DefaultPageSize)
	require.NoError(t, err)
	require.False(t, existed)
	_, err = f1.Allocate()
	require.NoError(t, err)
	require.NoError(t, f1.Close())

	f2, existed2, err := Open(path, DefaultPageSize)
	require.NoError(t, err)
	defer f2.Close()
	assert.True(t, existed2)
	assert.Equal(t, uint32(2), f2.NumPages())
}
