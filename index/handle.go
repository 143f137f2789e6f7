// Package index is the convenience wiring layer: it names an index's
// backing file deterministically from the relation and attribute it
// indexes, opens internal/diskfile + internal/buffer over it, and
// drives btree.OpenOrCreate, bundling the whole lifecycle behind one
// Handle so callers never touch the component packages directly.
//
// Grounded on the teacher's manager.IndexManager, which plays the same
// "own the index's identity, own its backing storage, hand back one
// handle" role over its own btreeManager/bufferPoolManager pair.
package index

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/cluso-db/bptreeindex/btree"
	"github.com/cluso-db/bptreeindex/internal/buffer"
	"github.com/cluso-db/bptreeindex/internal/diskfile"
)

// FileName returns the deterministic on-disk name for the index over
// relationName's attribute at attrByteOffset: "<relation>.<offset>.idx".
func FileName(relationName string, attrByteOffset int32) string {
	return fmt.Sprintf("%s.%d.idx", relationName, attrByteOffset)
}

// Handle bundles an open Index with the storage it owns, so a single
// Close releases everything.
type Handle struct {
	idx  btree.Index
	file *diskfile.File
}

// Index returns the underlying type-erased index surface.
func (h *Handle) Index() btree.Index { return h.idx }

// Close implements spec §4.E Destruct across the whole storage stack:
// flush+end-scan via the Index, then close the backing file.
func (h *Handle) Close() error {
	if err := h.idx.Close(); err != nil {
		return err
	}
	return errors.Wrap(h.file.Close(), "index: close backing file")
}

// Open opens (or creates, if absent) the index file for relationName's
// attribute at attrByteOffset under dataDir, wiring
// internal/diskfile -> internal/buffer -> btree.OpenOrCreate. scanner
// is consulted to bulk-load only when the file did not already exist;
// pass nil to create an empty index.
func Open(dataDir, relationName string, attrByteOffset int32, attrType btree.AttrType, pageSize uint32, bufferFrames int, scanner btree.HeapScanner) (*Handle, error) {
	path := filepath.Join(dataDir, FileName(relationName, attrByteOffset))

	f, existed, err := diskfile.Open(path, pageSize)
	if err != nil {
		return nil, errors.Wrapf(err, "index: open backing file %s", path)
	}

	mgr := buffer.New(f, bufferFrames, relationName)
	ps := buffer.NewPageSource(mgr)

	idx, err := btree.OpenOrCreate(ps, existed, relationName, attrByteOffset, attrType, scanner)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "index: open or create")
	}

	return &Handle{idx: idx, file: f}, nil
}
