package btree

import "errors"

// Sentinel error kinds per the error handling design, in the teacher's
// style of plain package-level errors.New values (see
// server/innodb/manager/errors.go in the teacher repo).
var (
	// ErrMetadataMismatch: on open, header fields disagree with
	// constructor parameters.
	ErrMetadataMismatch = errors.New("btree: metadata mismatch between existing index file and constructor parameters")

	// ErrBadOpcode: scan invoked with unsupported lowOp/highOp.
	ErrBadOpcode = errors.New("btree: scan low operator must be GT/GTE and high operator must be LT/LTE")

	// ErrBadRange: lowVal > highVal.
	ErrBadRange = errors.New("btree: scan low value exceeds high value")

	// ErrNoKeyFound: startScan found no entry satisfying the range.
	ErrNoKeyFound = errors.New("btree: no key found satisfying the requested range")

	// ErrScanNotInitialized: scanNext/endScan called with no open scan.
	ErrScanNotInitialized = errors.New("btree: scan not initialized")

	// ErrScanCompleted: scanNext called after the last qualifying rid.
	ErrScanCompleted = errors.New("btree: index scan completed")

	// ErrKeyTypeMismatch: a raw key value's dynamic type does not match
	// the index's attr_type.
	ErrKeyTypeMismatch = errors.New("btree: key value type does not match index attribute type")
)
