package buffer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cluso-db/bptreeindex/internal/diskfile"
)

func newManager(t *testing.T, maxFrames int) *Manager {
	path := filepath.Join(t.TempDir(), "idx.dat")
	f, _, err := diskfile.Open(path, diskfile.DefaultPageSize)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return New(f, maxFrames, "test")
}

func TestAllocPageReturnsPinnedZeroedFrame(t *testing.T) {
	m := newManager(t, 16)

	pageNo, frame, err := m.AllocPage()
	require.NoError(t, err)
	assert.Equal(t, pageNo, frame.PageNo())
	assert.Equal(t, 1, m.PinCount(pageNo))
	for _, b := range frame.Bytes() {
		assert.Equal(t, byte(0), b)
	}
}

func TestReadPageCacheHitReusesFrame(t *testing.T) {
	m := newManager(t, 16)

	pageNo, frame, err := m.AllocPage()
	require.NoError(t, err)
	copy(frame.Bytes(), []byte("resident"))
	require.NoError(t, m.UnpinPage(pageNo, true))

	assert.Equal(t, 1, m.Resident())

	got, err := m.ReadPage(pageNo)
	require.NoError(t, err)
	assert.Equal(t, "resident", string(got.Bytes()[:8]))
	assert.Equal(t, 1, m.PinCount(pageNo))
	require.NoError(t, m.UnpinPage(pageNo, false))
}

func TestUnpinOfNonPinnedPageFails(t *testing.T) {
	m := newManager(t, 16)
	err := m.UnpinPage(999, false)
	assert.ErrorIs(t, err, ErrNotPinned)
}

func TestEvictionFlushesDirtyVictim(t *testing.T) {
	m := newManager(t, 2)

	p1, f1, err := m.AllocPage()
	require.NoError(t, err)
	copy(f1.Bytes(), []byte("page-one"))
	require.NoError(t, m.UnpinPage(p1, true))

	p2, _, err := m.AllocPage()
	require.NoError(t, err)
	require.NoError(t, m.UnpinPage(p2, false))

	assert.Equal(t, 2, m.Resident())

	// A third distinct page forces eviction of the least-recently-used
	// unpinned frame, which is p1 (accessed first, unpinned first).
	p3, _, err := m.AllocPage()
	require.NoError(t, err)
	require.NoError(t, m.UnpinPage(p3, false))

	assert.Equal(t, 2, m.Resident())

	reread, err := m.ReadPage(p1)
	require.NoError(t, err)
	assert.Equal(t, "page-one", string(reread.Bytes()[:8]))
	require.NoError(t, m.UnpinPage(p1, false))
}

func TestFlushFileClearsDirtyBits(t *testing.T) {
	m := newManager(t, 16)

	pageNo, frame, err := m.AllocPage()
	require.NoError(t, err)
	copy(frame.Bytes(), []byte("dirty"))
	require.NoError(t, m.UnpinPage(pageNo, true))

	require.NoError(t, m.FlushFile())

	// A second flush with nothing newly dirtied must still succeed.
	require.NoError(t, m.FlushFile())
}
