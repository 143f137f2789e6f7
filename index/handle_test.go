package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cluso-db/bptreeindex/btree"
)

func TestFileNameIsDeterministic(t *testing.T) {
	assert.Equal(t, "orders.4.idx", FileName("orders", 4))
	assert.Equal(t, "orders.4.idx", FileName("orders", 4))
}

func TestOpenCreatesThenReopensSameIndex(t *testing.T) {
	dir := t.TempDir()

	h1, err := Open(dir, "orders", 4, btree.AttrInteger, 4096, 16, nil)
	require.NoError(t, err)
	require.NoError(t, h1.Index().Insert(int32(7), btree.RecordId{PageNo: 1, Slot: 1}))
	require.NoError(t, h1.Close())

	h2, err := Open(dir, "orders", 4, btree.AttrInteger, 4096, 16, nil)
	require.NoError(t, err)
	defer h2.Close()

	require.NoError(t, h2.Index().StartScan(int32(0), btree.GTE, int32(100), btree.LTE))
	rid, err := h2.Index().ScanNext()
	require.NoError(t, err)
	assert.Equal(t, btree.RecordId{PageNo: 1, Slot: 1}, rid)
	require.NoError(t, h2.Index().EndScan())
}

func TestOpenRejectsMismatchedAttrType(t *testing.T) {
	dir := t.TempDir()

	h1, err := Open(dir, "orders", 4, btree.AttrInteger, 4096, 16, nil)
	require.NoError(t, err)
	require.NoError(t, h1.Close())

	_, err = Open(dir, "orders", 4, btree.AttrDouble, 4096, 16, nil)
	assert.ErrorIs(t, err, btree.ErrMetadataMismatch)
}
