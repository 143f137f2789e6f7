package btree

import "github.com/pkg/errors"

// scanState holds the one-live-scan-at-a-time state machine (spec
// §4.D): CLOSED (open==false), OPEN (open==true, currentPage set),
// EXHAUSTED (open==true, currentPage==nil).
type scanState[T any] struct {
	open        bool
	currentNo   uint32
	currentPage Page
	nextEntry   int
	highVal     T
	highOp      Op
}

// StartScan implements spec §4.D startScan: validates the operators and
// range, locates the leaf that would contain lowVal, and positions the
// cursor at the first qualifying entry (or fails with ErrNoKeyFound).
func (t *Tree[T]) StartScan(lowVal T, lowOp Op, highVal T, highOp Op) error {
	if !lowOp.IsLowBound() || !highOp.IsHighBound() {
		return ErrBadOpcode
	}
	if t.traits.Compare(lowVal, highVal) > 0 {
		return ErrBadRange
	}
	if t.scan.open {
		if err := t.EndScan(); err != nil {
			return err
		}
	}

	leafPageNo, leafPage, insertIndex, used, _, err := locate(t.traits, t.ps, t.header.RootPageNo, lowVal, false)
	if err != nil {
		return err
	}
	leaf := NewLeafNode[T](leafPage.Bytes(), t.traits)
	nextEntry := insertIndex

	// Cross leaf boundaries via right_sibling while the cursor has run
	// past this leaf's used range or the GT-exclusivity bump below
	// pushes it past the end.
	for {
		if nextEntry < used {
			break
		}
		sib := leaf.RightSibling()
		if sib == InvalidPage {
			break
		}
		if err := t.ps.UnpinPage(leafPageNo, false); err != nil {
			return errors.Wrap(err, "btree: startScan: unpin leaf")
		}
		leafPageNo = sib
		page, err := t.ps.ReadPage(sib)
		if err != nil {
			return errors.Wrap(err, "btree: startScan: read sibling")
		}
		leafPage = page
		leaf = NewLeafNode[T](leafPage.Bytes(), t.traits)
		used = leaf.UsedEntries()
		nextEntry = 0
	}

	if nextEntry < used && lowOp == GT && t.traits.Compare(leaf.Key(nextEntry), lowVal) == 0 {
		nextEntry++
		for nextEntry >= used {
			sib := leaf.RightSibling()
			if sib == InvalidPage {
				break
			}
			if err := t.ps.UnpinPage(leafPageNo, false); err != nil {
				return errors.Wrap(err, "btree: startScan: unpin leaf")
			}
			leafPageNo = sib
			page, err := t.ps.ReadPage(sib)
			if err != nil {
				return errors.Wrap(err, "btree: startScan: read sibling")
			}
			leafPage = page
			leaf = NewLeafNode[T](leafPage.Bytes(), t.traits)
			used = leaf.UsedEntries()
			nextEntry = 0
		}
	}

	if nextEntry >= used || !withinHigh(t.traits, leaf.Key(nextEntry), highVal, highOp) {
		if err := t.ps.UnpinPage(leafPageNo, false); err != nil {
			return errors.Wrap(err, "btree: startScan: unpin leaf")
		}
		return ErrNoKeyFound
	}

	t.scan = scanState[T]{
		open:        true,
		currentNo:   leafPageNo,
		currentPage: leafPage,
		nextEntry:   nextEntry,
		highVal:     highVal,
		highOp:      highOp,
	}
	return nil
}

func withinHigh[T any](traits KeyTraits[T], k, highVal T, highOp Op) bool {
	c := traits.Compare(k, highVal)
	if highOp == LT {
		return c < 0
	}
	return c <= 0
}

// ScanNext implements spec §4.D scanNext: returns the next qualifying
// rid, or ErrScanCompleted once the high bound is exceeded or the leaf
// chain runs out.
func (t *Tree[T]) ScanNext() (RecordId, error) {
	if !t.scan.open {
		return RecordId{}, ErrScanNotInitialized
	}
	if t.scan.currentPage == nil {
		return RecordId{}, ErrScanCompleted
	}

	leaf := NewLeafNode[T](t.scan.currentPage.Bytes(), t.traits)
	key := leaf.Key(t.scan.nextEntry)
	if !withinHigh(t.traits, key, t.scan.highVal, t.scan.highOp) {
		return RecordId{}, ErrScanCompleted
	}

	rid := leaf.Rid(t.scan.nextEntry)

	L := leaf.L()
	advance := t.scan.nextEntry+1 == L
	if !advance {
		advance = leaf.Rid(t.scan.nextEntry + 1).IsEmpty()
	}
	if advance {
		sib := leaf.RightSibling()
		if err := t.ps.UnpinPage(t.scan.currentNo, false); err != nil {
			return RecordId{}, errors.Wrap(err, "btree: scanNext: unpin leaf")
		}
		if sib == InvalidPage {
			t.scan.currentPage = nil
			t.scan.currentNo = InvalidPage
		} else {
			page, err := t.ps.ReadPage(sib)
			if err != nil {
				return RecordId{}, errors.Wrap(err, "btree: scanNext: read sibling")
			}
			t.scan.currentNo = sib
			t.scan.currentPage = page
			t.scan.nextEntry = 0
		}
	} else {
		t.scan.nextEntry++
	}

	return rid, nil
}

// EndScan implements spec §4.D endScan: unpins the current page (if
// any) and resets the state machine to CLOSED. Calling it when no scan
// is open surfaces ErrScanNotInitialized, matching §7's double-endScan
// policy.
func (t *Tree[T]) EndScan() error {
	if !t.scan.open {
		return ErrScanNotInitialized
	}
	if t.scan.currentPage != nil {
		if err := t.ps.UnpinPage(t.scan.currentNo, false); err != nil {
			return errors.Wrap(err, "btree: endScan: unpin leaf")
		}
	}
	var zero scanState[T]
	t.scan = zero
	return nil
}
