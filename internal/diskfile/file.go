// Package diskfile implements the fixed-size-page file abstraction the
// index engine is built on: a sequence of PageSize-byte pages backed by
// one os.File, with page 0 reserved and page 1 conventionally the
// caller's header page.
package diskfile

import (
	"os"
	"sync"

	"github.com/pkg/errors"
)

// InvalidPage is the sentinel "no such page" page number.
const InvalidPage uint32 = 0

// DefaultPageSize is used when a caller does not configure one.
const DefaultPageSize = 4096

// File is a growable sequence of fixed-size pages on disk.
type File struct {
	mu       sync.Mutex
	f        *os.File
	path     string
	pageSize uint32
	numPages uint32
}

// Open opens an existing file or creates a new empty one (zero pages).
// The caller is responsible for allocating page 1 as a header page on
// first use; Open itself does not special-case any page number.
func Open(path string, pageSize uint32) (*File, bool, error) {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	_, statErr := os.Stat(path)
	existed := statErr == nil

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, false, errors.Wrapf(err, "diskfile: open %s", path)
	}

	df := &File{f: f, path: path, pageSize: pageSize}
	if existed {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, false, errors.Wrapf(err, "diskfile: stat %s", path)
		}
		df.numPages = uint32(info.Size() / int64(pageSize))
	}
	return df, existed, nil
}

// PageSize returns the fixed page size this file was opened with.
func (f *File) PageSize() uint32 { return f.pageSize }

// NumPages returns the number of pages currently allocated, counting
// the reserved page 0 once any page has been allocated.
func (f *File) NumPages() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.numPages
}

// Allocate grows the file by one zero-filled page and returns its page
// number. Page 0 is reserved and never returned, so on a new file the
// first call returns page 1, which this engine uses as the header page.
func (f *File) Allocate() (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pageNo := f.numPages
	if pageNo == InvalidPage {
		pageNo = 1 // page 0 is reserved, never handed out
	}
	buf := make([]byte, f.pageSize)
	if _, err := f.f.WriteAt(buf, int64(pageNo)*int64(f.pageSize)); err != nil {
		return 0, errors.Wrap(err, "diskfile: allocate")
	}
	f.numPages = pageNo + 1
	return pageNo, nil
}

// ReadPage reads PageSize bytes for pageNo into dst, which must be at
// least PageSize long.
func (f *File) ReadPage(pageNo uint32, dst []byte) error {
	if pageNo == InvalidPage {
		return errors.New("diskfile: read of invalid page 0")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.f.ReadAt(dst[:f.pageSize], int64(pageNo)*int64(f.pageSize))
	if err != nil {
		return errors.Wrapf(err, "diskfile: read page %d", pageNo)
	}
	if uint32(n) != f.pageSize {
		return errors.Errorf("diskfile: short read on page %d: got %d bytes", pageNo, n)
	}
	return nil
}

// WritePage writes PageSize bytes from src to pageNo.
func (f *File) WritePage(pageNo uint32, src []byte) error {
	if pageNo == InvalidPage {
		return errors.New("diskfile: write of invalid page 0")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.f.WriteAt(src[:f.pageSize], int64(pageNo)*int64(f.pageSize)); err != nil {
		return errors.Wrapf(err, "diskfile: write page %d", pageNo)
	}
	return nil
}

// Flush syncs the backing file to stable storage.
func (f *File) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return errors.Wrap(f.f.Sync(), "diskfile: flush")
}

// Close flushes and closes the backing file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = f.f.Sync()
	return f.f.Close()
}

// Path returns the filesystem path this File was opened from.
func (f *File) Path() string { return f.path }
