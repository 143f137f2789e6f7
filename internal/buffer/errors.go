package buffer

import "errors"

// Sentinel errors mirroring the style of the teacher's
// server/innodb/manager/errors.go (plain package-level vars, one
// errors.New per condition).
var (
	ErrPoolFull    = errors.New("buffer: pool full, no frame to evict")
	ErrNotPinned   = errors.New("buffer: unpin of page with zero pin count")
	ErrFrameBusy   = errors.New("buffer: frame still pinned, cannot evict")
	ErrPageMissing = errors.New("buffer: page not resident")
)
