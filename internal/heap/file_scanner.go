// Package heap implements the heap-file scanner external collaborator
// used to bulk-load an index at creation time (spec §1/§4.E): a local
// fixed-record heap file reader, and an optional MySQL-table-backed
// reader for bulk-loading from an existing relation stored in a real
// database.
package heap

import (
	"os"

	"github.com/pkg/errors"

	"github.com/cluso-db/bptreeindex/btree"
)

// FileHeaderSize is the fixed layout of a heap file's page-1 header:
// [record_size:4][records_per_page:4].
const FileHeaderSize = 8

// FileScanner reads tuples out of a local heap file: page 1 is a small
// header naming the fixed record width, pages 2.. hold a slotted array
// of that many fixed-width records per page. Slot 0 on every page is
// reserved (matches btree.RecordId's "slot 0 means empty" convention);
// a record whose first byte is 0x00 is treated as a deleted/unused
// slot and skipped.
type FileScanner struct {
	path       string
	pageSize   uint32
	f          *os.File
	recordSize uint32
	perPage    uint32
	numPages   uint32
	curPage    uint32
	curSlot    uint32
}

// NewFileScanner opens path (created by a heap-file writer external to
// this repo) for bulk-load scanning.
func NewFileScanner(path string, pageSize uint32) *FileScanner {
	return &FileScanner{path: path, pageSize: pageSize}
}

func (s *FileScanner) Open() error {
	f, err := os.Open(s.path)
	if err != nil {
		return errors.Wrapf(err, "heap: open %s", s.path)
	}
	s.f = f

	hdr := make([]byte, s.pageSize)
	if _, err := f.ReadAt(hdr, int64(s.pageSize)); err != nil {
		f.Close()
		return errors.Wrap(err, "heap: read header page")
	}
	s.recordSize = le32(hdr[0:4])
	s.perPage = le32(hdr[4:8])
	if s.recordSize == 0 || s.perPage == 0 {
		f.Close()
		return errors.New("heap: invalid header: zero record size or slots per page")
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return errors.Wrap(err, "heap: stat")
	}
	s.numPages = uint32(info.Size() / int64(s.pageSize))
	s.curPage = 2 // page 0 reserved, page 1 is this scanner's own header
	s.curSlot = 1 // slot 0 reserved per RecordId convention
	return nil
}

func (s *FileScanner) Next() ([]byte, btree.RecordId, bool, error) {
	buf := make([]byte, s.pageSize)
	for s.curPage < s.numPages {
		if _, err := s.f.ReadAt(buf, int64(s.curPage)*int64(s.pageSize)); err != nil {
			return nil, btree.RecordId{}, false, errors.Wrapf(err, "heap: read page %d", s.curPage)
		}
		for s.curSlot < s.perPage {
			off := s.curSlot * s.recordSize
			if off+s.recordSize > s.pageSize {
				break
			}
			rec := buf[off : off+s.recordSize]
			slot := s.curSlot
			s.curSlot++
			if rec[0] == 0x00 {
				continue
			}
			cp := make([]byte, s.recordSize)
			copy(cp, rec)
			return cp, btree.RecordId{PageNo: s.curPage, Slot: slot}, true, nil
		}
		s.curPage++
		s.curSlot = 1
	}
	return nil, btree.RecordId{}, false, nil
}

func (s *FileScanner) Close() error {
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
