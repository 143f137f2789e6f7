package btree

import (
	"github.com/pkg/errors"

	"github.com/cluso-db/bptreeindex/logger"
)

// Tree is the generic B+Tree engine for one key type T. It is never
// used directly by callers outside this package; OpenOrCreate returns
// one of the three type-erased Index adapters below so the attr-type
// dispatch happens once, at the API boundary, rather than in any hot
// traversal loop (§9 design note).
type Tree[T any] struct {
	traits KeyTraits[T]
	ps     PageSource
	header IndexHeader
	scan   scanState[T]
}

func newTree[T any](traits KeyTraits[T], ps PageSource, header IndexHeader) *Tree[T] {
	return &Tree[T]{traits: traits, ps: ps, header: header}
}

func (t *Tree[T]) writeHeader() error {
	page, err := t.ps.ReadPage(1)
	if err != nil {
		return errors.Wrap(err, "btree: write header")
	}
	t.header.Encode(page.Bytes())
	return errors.Wrap(t.ps.UnpinPage(1, true), "btree: write header: unpin")
}

// HeapScanner is the external heap-file-scanner collaborator consumed
// to bulk-load an index at creation time (spec §1/§4.E). Concrete
// implementations live in internal/heap.
type HeapScanner interface {
	Open() error
	// Next returns the next tuple's raw bytes and its RecordId, or
	// ok==false once the relation is exhausted.
	Next() (recordBytes []byte, rid RecordId, ok bool, err error)
	Close() error
}

// Index is the type-erased public surface over a Tree[T] of whichever
// key type the index's attr_type selects at construction time.
type Index interface {
	Insert(key interface{}, rid RecordId) error
	StartScan(lowVal interface{}, lowOp Op, highVal interface{}, highOp Op) error
	ScanNext() (RecordId, error)
	EndScan() error
	Close() error
}

// OpenOrCreate implements spec §4.E Construct: validates an existing
// header or initializes a fresh one (page 1 header, page 2 empty
// level-1 root), then bulk-loads from scanner when the index is new
// and a scanner was supplied. ps must already be backed by a file at
// the right page offsets -- see package index for the deterministic
// file-naming convenience wrapper that arranges this.
func OpenOrCreate(ps PageSource, alreadyExists bool, relationName string, attrByteOffset int32, attrType AttrType, scanner HeapScanner) (Index, error) {
	var header IndexHeader

	if alreadyExists {
		page, err := ps.ReadPage(1)
		if err != nil {
			return nil, errors.Wrap(err, "btree: open: read header")
		}
		header = DecodeHeader(page.Bytes())
		if err := ps.UnpinPage(1, false); err != nil {
			return nil, errors.Wrap(err, "btree: open: unpin header")
		}
		if !header.Matches(relationName, attrByteOffset, attrType) {
			return nil, ErrMetadataMismatch
		}
	} else {
		headerNo, headerPage, err := ps.AllocPage()
		if err != nil {
			return nil, errors.Wrap(err, "btree: create: alloc header page")
		}
		rootNo, rootPage, err := ps.AllocPage()
		if err != nil {
			return nil, errors.Wrap(err, "btree: create: alloc root page")
		}

		header = IndexHeader{
			RelationName:   relationName,
			AttrByteOffset: attrByteOffset,
			AttrType:       attrType,
			RootPageNo:     rootNo,
		}
		header.Encode(headerPage.Bytes())
		if err := ps.UnpinPage(headerNo, true); err != nil {
			return nil, errors.Wrap(err, "btree: create: unpin header page")
		}

		resetInitialRoot(attrType, rootPage.Bytes())
		if err := ps.UnpinPage(rootNo, true); err != nil {
			return nil, errors.Wrap(err, "btree: create: unpin root page")
		}

		logger.WithPage(logger.Event(relationName, attrByteOffset), rootNo).
			WithField("attr_type", attrType).Info("index created")
	}

	if alreadyExists {
		logger.WithPage(logger.Event(relationName, attrByteOffset), header.RootPageNo).Info("index opened")
	}

	switch attrType {
	case AttrInteger:
		tree := newTree[int32](IntTraits{}, ps, header)
		idx := &intIndex{tree: tree}
		if !alreadyExists && scanner != nil {
			if err := bulkLoad(tree, scanner, attrByteOffset); err != nil {
				return nil, err
			}
		}
		return idx, nil
	case AttrDouble:
		tree := newTree[float64](DoubleTraits{}, ps, header)
		idx := &doubleIndex{tree: tree}
		if !alreadyExists && scanner != nil {
			if err := bulkLoad(tree, scanner, attrByteOffset); err != nil {
				return nil, err
			}
		}
		return idx, nil
	case AttrString:
		tree := newTree[StringKey](StringTraits{}, ps, header)
		idx := &stringIndex{tree: tree}
		if !alreadyExists && scanner != nil {
			if err := bulkLoad(tree, scanner, attrByteOffset); err != nil {
				return nil, err
			}
		}
		return idx, nil
	default:
		return nil, errors.Errorf("btree: unknown attr type %d", attrType)
	}
}

func resetInitialRoot(attrType AttrType, buf []byte) {
	switch attrType {
	case AttrInteger:
		NewInnerNode[int32](buf, IntTraits{}).Reset(1)
	case AttrDouble:
		NewInnerNode[float64](buf, DoubleTraits{}).Reset(1)
	case AttrString:
		NewInnerNode[StringKey](buf, StringTraits{}).Reset(1)
	}
}

// bulkLoad implements the scan-and-insert half of spec §4.E Construct:
// extract the attribute at attrByteOffset from each scanned tuple and
// insert it.
func bulkLoad[T any](tree *Tree[T], scanner HeapScanner, attrByteOffset int32) error {
	if err := scanner.Open(); err != nil {
		return errors.Wrap(err, "btree: bulk load: open scanner")
	}
	defer scanner.Close()

	size := tree.traits.Size()
	loaded := 0
	for {
		rec, rid, ok, err := scanner.Next()
		if err != nil {
			return errors.Wrap(err, "btree: bulk load: scan")
		}
		if !ok {
			logger.Event(tree.header.RelationName, attrByteOffset).
				WithField("loaded", loaded).Info("bulk load complete")
			return nil
		}
		if int(attrByteOffset)+size > len(rec) {
			return errors.Errorf("btree: bulk load: record shorter than attr_byte_offset+width (%d+%d > %d)",
				attrByteOffset, size, len(rec))
		}
		key := tree.traits.Decode(rec[attrByteOffset : int(attrByteOffset)+size])
		if err := tree.Insert(key, rid); err != nil {
			return errors.Wrap(err, "btree: bulk load: insert")
		}
		loaded++
		if loaded%10000 == 0 {
			logger.Event(tree.header.RelationName, attrByteOffset).
				WithField("loaded", loaded).Info("bulk load progress")
		}
	}
}

// --- type-erased adapters ------------------------------------------------

type intIndex struct{ tree *Tree[int32] }

func (x *intIndex) Insert(key interface{}, rid RecordId) error {
	v, ok := key.(int32)
	if !ok {
		return ErrKeyTypeMismatch
	}
	return x.tree.Insert(v, rid)
}
func (x *intIndex) StartScan(lowVal interface{}, lowOp Op, highVal interface{}, highOp Op) error {
	lv, ok1 := lowVal.(int32)
	hv, ok2 := highVal.(int32)
	if !ok1 || !ok2 {
		return ErrKeyTypeMismatch
	}
	return x.tree.StartScan(lv, lowOp, hv, highOp)
}
func (x *intIndex) ScanNext() (RecordId, error) { return x.tree.ScanNext() }
func (x *intIndex) EndScan() error              { return x.tree.EndScan() }
func (x *intIndex) Close() error                { return closeTree(x.tree.scan.open, x.tree.EndScan, x.tree.ps.FlushFile) }

type doubleIndex struct{ tree *Tree[float64] }

func (x *doubleIndex) Insert(key interface{}, rid RecordId) error {
	v, ok := key.(float64)
	if !ok {
		return ErrKeyTypeMismatch
	}
	return x.tree.Insert(v, rid)
}
func (x *doubleIndex) StartScan(lowVal interface{}, lowOp Op, highVal interface{}, highOp Op) error {
	lv, ok1 := lowVal.(float64)
	hv, ok2 := highVal.(float64)
	if !ok1 || !ok2 {
		return ErrKeyTypeMismatch
	}
	return x.tree.StartScan(lv, lowOp, hv, highOp)
}
func (x *doubleIndex) ScanNext() (RecordId, error) { return x.tree.ScanNext() }
func (x *doubleIndex) EndScan() error              { return x.tree.EndScan() }
func (x *doubleIndex) Close() error                { return closeTree(x.tree.scan.open, x.tree.EndScan, x.tree.ps.FlushFile) }

type stringIndex struct{ tree *Tree[StringKey] }

func toStringKey(v interface{}) (StringKey, bool) {
	switch s := v.(type) {
	case StringKey:
		return s, true
	case string:
		return StringKeyFromString(s), true
	default:
		return StringKey{}, false
	}
}
func (x *stringIndex) Insert(key interface{}, rid RecordId) error {
	v, ok := toStringKey(key)
	if !ok {
		return ErrKeyTypeMismatch
	}
	return x.tree.Insert(v, rid)
}
func (x *stringIndex) StartScan(lowVal interface{}, lowOp Op, highVal interface{}, highOp Op) error {
	lv, ok1 := toStringKey(lowVal)
	hv, ok2 := toStringKey(highVal)
	if !ok1 || !ok2 {
		return ErrKeyTypeMismatch
	}
	return x.tree.StartScan(lv, lowOp, hv, highOp)
}
func (x *stringIndex) ScanNext() (RecordId, error) { return x.tree.ScanNext() }
func (x *stringIndex) EndScan() error              { return x.tree.EndScan() }
func (x *stringIndex) Close() error                { return closeTree(x.tree.scan.open, x.tree.EndScan, x.tree.ps.FlushFile) }

// closeTree implements spec §4.E Destruct: end any live scan and flush
// dirty pages. No exception may escape the destructor, so errors from
// EndScan are swallowed (an unopened scan is the common case and not a
// real failure here); a flush failure is still reported since it means
// data loss, which callers should see.
func closeTree(scanOpen bool, endScan func() error, flush func() error) error {
	if scanOpen {
		_ = endScan()
	}
	return errors.Wrap(flush(), "btree: close: flush")
}
