// Package buffer implements a fixed-size-frame buffer manager over
// internal/diskfile: the pin-counted, dirty-tracked page cache that the
// B+Tree engine treats as an external collaborator.
//
// Grounded on the teacher's server/innodb/buffer_pool package
// (BufferPage's dirty bit and content bytes, buffer_lru's eviction
// list), simplified to a single LRU list sized by a frame count since
// this index has no access-pattern skew to exploit a young/old
// sublist split for.
package buffer

import (
	"container/list"
	"sync"

	"github.com/pkg/errors"

	"github.com/cluso-db/bptreeindex/internal/diskfile"
	"github.com/cluso-db/bptreeindex/logger"
)

// Frame is a pinned page resident in memory.
type Frame struct {
	pageNo uint32
	bytes  []byte
	dirty  bool
	pinCnt int
}

// PageNo returns the page number this frame holds.
func (fr *Frame) PageNo() uint32 { return fr.pageNo }

// Bytes exposes the frame's raw page buffer for in-place mutation by
// the caller (the B+Tree node accessors write directly into this
// slice; the buffer manager never interprets it).
func (fr *Frame) Bytes() []byte { return fr.bytes }

type entry struct {
	frame   *Frame
	lruElem *list.Element // nil while pinned
}

// Manager is a pin-counted LRU buffer pool over one diskfile.File.
type Manager struct {
	mu       sync.Mutex
	file     *diskfile.File
	maxSize  int
	pages    map[uint32]*entry
	lru      *list.List // front = least recently used unpinned frame
	pageSize uint32
	label    string
}

// New creates a buffer manager of maxFrames capacity over f. label tags
// eviction/flush log lines with the relation the pool is backing, so a
// log stream with several open indexes can tell their buffer pools
// apart; pass "" when the caller has no relation identity handy.
func New(f *diskfile.File, maxFrames int, label string) *Manager {
	if maxFrames <= 0 {
		maxFrames = 256
	}
	return &Manager{
		file:     f,
		maxSize:  maxFrames,
		pages:    make(map[uint32]*entry),
		lru:      list.New(),
		pageSize: f.PageSize(),
		label:    label,
	}
}

// AllocPage allocates a new page in the backing file and returns it
// pinned, zero-filled.
func (m *Manager) AllocPage() (uint32, *Frame, error) {
	pageNo, err := m.file.Allocate()
	if err != nil {
		return 0, nil, errors.Wrap(err, "buffer: alloc")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureRoomLocked(); err != nil {
		return 0, nil, err
	}

	fr := &Frame{pageNo: pageNo, bytes: make([]byte, m.pageSize), pinCnt: 1}
	m.pages[pageNo] = &entry{frame: fr}
	return pageNo, fr, nil
}

// ReadPage returns the requested page pinned, loading it from disk on
// a cache miss.
func (m *Manager) ReadPage(pageNo uint32) (*Frame, error) {
	m.mu.Lock()
	if e, ok := m.pages[pageNo]; ok {
		if e.lruElem != nil {
			m.lru.Remove(e.lruElem)
			e.lruElem = nil
		}
		e.frame.pinCnt++
		m.mu.Unlock()
		return e.frame, nil
	}
	if err := m.ensureRoomLocked(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.mu.Unlock()

	buf := make([]byte, m.pageSize)
	if err := m.file.ReadPage(pageNo, buf); err != nil {
		return nil, errors.Wrapf(err, "buffer: read page %d", pageNo)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have raced us in; re-check.
	if e, ok := m.pages[pageNo]; ok {
		if e.lruElem != nil {
			m.lru.Remove(e.lruElem)
			e.lruElem = nil
		}
		e.frame.pinCnt++
		return e.frame, nil
	}
	fr := &Frame{pageNo: pageNo, bytes: buf, pinCnt: 1}
	m.pages[pageNo] = &entry{frame: fr}
	return fr, nil
}

// UnpinPage decrements a page's pin count; at zero it becomes eligible
// for eviction. dirty marks the page as modified since it was pinned
// (sticky until flushed).
func (m *Manager) UnpinPage(pageNo uint32, dirty bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.pages[pageNo]
	if !ok || e.frame.pinCnt <= 0 {
		return ErrNotPinned
	}
	if dirty {
		e.frame.dirty = true
	}
	e.frame.pinCnt--
	if e.frame.pinCnt == 0 {
		e.lruElem = m.lru.PushBack(pageNo)
	}
	return nil
}

// PinCount reports the current pin count of a resident page, or 0 if
// the page is not resident. Test/diagnostic use only.
func (m *Manager) PinCount(pageNo uint32) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.pages[pageNo]; ok {
		return e.frame.pinCnt
	}
	return 0
}

// FlushFile writes every dirty resident page back to the backing file
// and fsyncs it.
func (m *Manager) FlushFile() error {
	m.mu.Lock()
	dirty := make([]*entry, 0)
	for _, e := range m.pages {
		if e.frame.dirty {
			dirty = append(dirty, e)
		}
	}
	m.mu.Unlock()

	for _, e := range dirty {
		if err := m.file.WritePage(e.frame.pageNo, e.frame.bytes); err != nil {
			return errors.Wrapf(err, "buffer: flush page %d", e.frame.pageNo)
		}
		e.frame.dirty = false
	}

	logger.Event(m.label, 0).WithField("pages", len(dirty)).Debug("buffer file flushed")

	return errors.Wrap(m.file.Flush(), "buffer: fsync")
}

// ensureRoomLocked evicts the least-recently-used unpinned frame if the
// pool is at capacity. Must be called with m.mu held.
func (m *Manager) ensureRoomLocked() error {
	if len(m.pages) < m.maxSize {
		return nil
	}
	elem := m.lru.Front()
	if elem == nil {
		return ErrPoolFull
	}
	victim := elem.Value.(uint32)
	m.lru.Remove(elem)
	e := m.pages[victim]
	wasDirty := e.frame.dirty
	if e.frame.dirty {
		if err := m.file.WritePage(e.frame.pageNo, e.frame.bytes); err != nil {
			return errors.Wrapf(err, "buffer: evict-flush page %d", victim)
		}
	}
	delete(m.pages, victim)

	logger.WithPage(logger.Event(m.label, 0), victim).
		WithField("dirty", wasDirty).Debug("buffer page evicted")
	return nil
}

// Resident reports how many pages are currently cached, for tests.
func (m *Manager) Resident() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pages)
}
