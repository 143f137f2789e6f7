package heap

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPageSize = 64

// writeTestHeapFile builds a tiny heap file with pageSize-byte pages:
// page 0 reserved, page 1 is this scanner's own header
// [record_size:4][records_per_page:4], pages 2.. hold records of width
// recordSize starting at slot 1 (slot 0 reserved). records maps
// (page, slot) -> raw bytes; any slot not present is left zeroed
// (interpreted as deleted).
func writeTestHeapFile(t *testing.T, recordSize, perPage uint32, records map[[2]uint32][]byte, numDataPages uint32) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heap.dat")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	totalPages := 2 + numDataPages
	buf := make([]byte, testPageSize*totalPages)

	hdr := buf[testPageSize : testPageSize+8]
	binary.LittleEndian.PutUint32(hdr[0:4], recordSize)
	binary.LittleEndian.PutUint32(hdr[4:8], perPage)

	for key, rec := range records {
		page, slot := key[0], key[1]
		pageOff := int(page) * testPageSize
		slotOff := pageOff + int(slot*recordSize)
		copy(buf[slotOff:slotOff+int(recordSize)], rec)
	}

	_, err = f.Write(buf)
	require.NoError(t, err)
	return path
}

func TestFileScannerReadsAllLiveRecordsSkippingDeleted(t *testing.T) {
	recordSize := uint32(8)
	perPage := testPageSize / recordSize // 8

	rec := func(b byte) []byte {
		r := make([]byte, recordSize)
		r[0] = b
		return r
	}

	path := writeTestHeapFile(t, recordSize, perPage, map[[2]uint32][]byte{
		{2, 1}: rec(0xAA),
		{2, 2}: rec(0xBB),
		// slot 3 on page 2 left zeroed: treated as deleted
		{2, 4}: rec(0xCC),
		{3, 1}: rec(0xDD),
	}, 2)

	s := NewFileScanner(path, testPageSize)
	require.NoError(t, s.Open())
	defer s.Close()

	var got [][]byte
	for {
		rec, _, ok, err := s.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		cp := make([]byte, len(rec))
		copy(cp, rec)
		got = append(got, cp)
	}

	require.Len(t, got, 4)
	assert.Equal(t, byte(0xAA), got[0][0])
	assert.Equal(t, byte(0xBB), got[1][0])
	assert.Equal(t, byte(0xCC), got[2][0])
	assert.Equal(t, byte(0xDD), got[3][0])
}

func TestFileScannerReportsRecordIds(t *testing.T) {
	recordSize := uint32(8)
	perPage := testPageSize / recordSize

	rec := make([]byte, recordSize)
	rec[0] = 1

	path := writeTestHeapFile(t, recordSize, perPage, map[[2]uint32][]byte{
		{2, 3}: rec,
	}, 1)

	s := NewFileScanner(path, testPageSize)
	require.NoError(t, s.Open())
	defer s.Close()

	_, rid, ok, err := s.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(2), rid.PageNo)
	assert.Equal(t, uint32(3), rid.Slot)

	_, _, ok, err = s.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}
