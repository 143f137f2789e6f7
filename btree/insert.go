package btree

import (
	"github.com/pkg/errors"

	"github.com/cluso-db/bptreeindex/logger"
)

// Insert implements spec §4.C: locate the target leaf, insert in place
// if there is room, otherwise split the leaf and cascade the
// propagation of the promoted separator up the recorded path, growing
// the tree's height by one if propagation reaches above the current
// root.
func (t *Tree[T]) Insert(key T, rid RecordId) error {
	rootPage, err := t.ps.ReadPage(t.header.RootPageNo)
	if err != nil {
		return errors.Wrap(err, "btree: insert: read root")
	}
	root := NewInnerNode[T](rootPage.Bytes(), t.traits)
	bootstrap := root.UsedChildren() == 0
	if err := t.ps.UnpinPage(t.header.RootPageNo, false); err != nil {
		return errors.Wrap(err, "btree: insert: unpin root")
	}
	if bootstrap {
		return t.insertBootstrap(key, rid)
	}

	leafPageNo, leafPage, insertIndex, used, path, err := locate(t.traits, t.ps, t.header.RootPageNo, key, true)
	if err != nil {
		return err
	}
	leaf := NewLeafNode[T](leafPage.Bytes(), t.traits)

	if used < leaf.L() {
		leaf.ShiftRightFrom(insertIndex, used)
		leaf.SetKey(insertIndex, key)
		leaf.SetRid(insertIndex, rid)
		return errors.Wrap(t.ps.UnpinPage(leafPageNo, true), "btree: insert: unpin leaf")
	}

	return t.splitLeafAndPropagate(leafPageNo, leaf, insertIndex, key, rid, path)
}

// insertBootstrap handles the very first insert into a freshly created
// index: the initial root is an empty level-1 inner node with no
// children (spec §4.C "Initial root case").
func (t *Tree[T]) insertBootstrap(key T, rid RecordId) error {
	l0No, l0Page, err := t.ps.AllocPage()
	if err != nil {
		return errors.Wrap(err, "btree: bootstrap: alloc L0")
	}
	l0 := NewLeafNode[T](l0Page.Bytes(), t.traits)
	l0.Reset()

	l1No, l1Page, err := t.ps.AllocPage()
	if err != nil {
		return errors.Wrap(err, "btree: bootstrap: alloc L1")
	}
	l1 := NewLeafNode[T](l1Page.Bytes(), t.traits)
	l1.Reset()
	l1.SetKey(0, key)
	l1.SetRid(0, rid)
	l0.SetRightSibling(l1No)

	rootPage, err := t.ps.ReadPage(t.header.RootPageNo)
	if err != nil {
		return errors.Wrap(err, "btree: bootstrap: read root")
	}
	root := NewInnerNode[T](rootPage.Bytes(), t.traits)
	root.SetLevel(2)
	root.SetChild(0, l0No)
	root.SetChild(1, l1No)
	root.SetKey(0, key)

	if err := t.ps.UnpinPage(t.header.RootPageNo, true); err != nil {
		return errors.Wrap(err, "btree: bootstrap: unpin root")
	}
	if err := t.ps.UnpinPage(l0No, true); err != nil {
		return errors.Wrap(err, "btree: bootstrap: unpin L0")
	}
	return errors.Wrap(t.ps.UnpinPage(l1No, true), "btree: bootstrap: unpin L1")
}

// splitLeafAndPropagate performs the leaf split (spec §4.C step 3) and
// then replays the recorded path to propagate the promoted separator
// upward (step 4), growing the root if necessary (step 5).
func (t *Tree[T]) splitLeafAndPropagate(leafPageNo uint32, leaf *LeafNode[T], insertIndex int, key T, rid RecordId, path descentPath) error {
	L := leaf.L()
	median := L / 2

	rNo, rPage, err := t.ps.AllocPage()
	if err != nil {
		return errors.Wrap(err, "btree: split leaf: alloc right sibling")
	}
	r := NewLeafNode[T](rPage.Bytes(), t.traits)
	r.Reset()

	for i := median; i < L; i++ {
		r.SetKey(i-median, leaf.Key(i))
		r.SetRid(i-median, leaf.Rid(i))
	}
	var zero T
	for i := median; i < L; i++ {
		leaf.SetKey(i, zero)
		leaf.SetRid(i, RecordId{})
	}
	r.SetRightSibling(leaf.RightSibling())
	leaf.SetRightSibling(rNo)

	// insertIndex >= median is equivalent to "key > old keys[median-1]"
	// (spec §4.C step 3): insertIndex was computed as the sorted position the
	// key belongs at among the L entries that existed before the split,
	// so comparing it to the split point tells us which side it lands
	// on without a second key comparison.
	if insertIndex >= median {
		movedCount := L - median
		ti := insertIndex - median
		r.ShiftRightFrom(ti, movedCount)
		r.SetKey(ti, key)
		r.SetRid(ti, rid)
	} else {
		leaf.ShiftRightFrom(insertIndex, median)
		leaf.SetKey(insertIndex, key)
		leaf.SetRid(insertIndex, rid)
	}

	separator := r.Key(0)

	if err := t.ps.UnpinPage(leafPageNo, true); err != nil {
		return errors.Wrap(err, "btree: split leaf: unpin old leaf")
	}
	if err := t.ps.UnpinPage(rNo, true); err != nil {
		return errors.Wrap(err, "btree: split leaf: unpin new leaf")
	}

	logger.WithPage(logger.Event(t.header.RelationName, t.header.AttrByteOffset), leafPageNo).
		WithField("new_right", rNo).Debug("leaf split")

	return t.propagate(path, separator, rNo)
}

// propagate replays the descent path bottom-up, inserting
// (pendingSep, pendingRight) into each recorded ancestor, splitting it
// in turn when full, until an ancestor has room or the path is
// exhausted -- at which point the tree grows a new root (spec §4.C
// steps 4-5).
func (t *Tree[T]) propagate(path descentPath, pendingSep T, pendingRight uint32) error {
	for {
		pe, ok := path.pop()
		if !ok {
			return t.growRoot(pendingSep, pendingRight)
		}

		parentPage, err := t.ps.ReadPage(pe.parentPage)
		if err != nil {
			return errors.Wrapf(err, "btree: propagate: read ancestor %d", pe.parentPage)
		}
		parent := NewInnerNode[T](parentPage.Bytes(), t.traits)
		usedKeys := parent.UsedChildren() - 1

		if usedKeys < parent.N() {
			parent.InnerShiftRightFrom(pe.descentIndex, usedKeys)
			parent.SetKey(pe.descentIndex, pendingSep)
			parent.SetChild(pe.descentIndex+1, pendingRight)
			return errors.Wrap(t.ps.UnpinPage(pe.parentPage, true), "btree: propagate: unpin ancestor")
		}

		newSep, newRight, err := t.splitInner(pe, parent, pendingSep, pendingRight)
		if err != nil {
			return err
		}
		pendingSep, pendingRight = newSep, newRight
	}
}

// splitInner splits a full inner node per spec §4.C step 4's
// else-branch: the median key is promoted out of both halves; keys and
// children strictly above the median move to a new right node. The
// pending (separator, child) insertion lands on whichever side its
// recorded descent index falls in, staged independently of the move so
// the two splits (leaf and inner) never interleave (§9 design note).
func (t *Tree[T]) splitInner(pe pathEntry, parent *InnerNode[T], pendingSep T, pendingRight uint32) (T, uint32, error) {
	N := parent.N()
	median := N / 2
	promoted := parent.Key(median)

	rNo, rPage, err := t.ps.AllocPage()
	if err != nil {
		var zero T
		return zero, 0, errors.Wrap(err, "btree: split inner: alloc right sibling")
	}
	r := NewInnerNode[T](rPage.Bytes(), t.traits)
	r.Reset(parent.Level())

	movedKeys := 0
	for i := median + 1; i < N; i++ {
		r.SetKey(movedKeys, parent.Key(i))
		movedKeys++
	}
	movedChildren := 0
	for i := median + 1; i <= N; i++ {
		r.SetChild(movedChildren, parent.Child(i))
		movedChildren++
	}

	var zero T
	for i := median; i < N; i++ {
		parent.SetKey(i, zero)
	}
	for i := median + 1; i <= N; i++ {
		parent.SetChild(i, InvalidPage)
	}

	insertAt := pe.descentIndex
	if insertAt <= median {
		parent.InnerShiftRightFrom(insertAt, median)
		parent.SetKey(insertAt, pendingSep)
		parent.SetChild(insertAt+1, pendingRight)
	} else {
		mapped := insertAt - (median + 1)
		r.InnerShiftRightFrom(mapped, movedKeys)
		r.SetKey(mapped, pendingSep)
		r.SetChild(mapped+1, pendingRight)
	}

	if err := t.ps.UnpinPage(pe.parentPage, true); err != nil {
		return zero, 0, errors.Wrap(err, "btree: split inner: unpin left")
	}
	if err := t.ps.UnpinPage(rNo, true); err != nil {
		return zero, 0, errors.Wrap(err, "btree: split inner: unpin right")
	}

	logger.WithPage(logger.Event(t.header.RelationName, t.header.AttrByteOffset), pe.parentPage).
		WithField("new_right", rNo).Debug("inner node split")

	return promoted, rNo, nil
}

// growRoot allocates a new root one level taller than the current root
// when a split's promoted separator has nowhere left to propagate to
// (spec §4.C step 5).
func (t *Tree[T]) growRoot(sep T, rightPageNo uint32) error {
	oldRootPage, err := t.ps.ReadPage(t.header.RootPageNo)
	if err != nil {
		return errors.Wrap(err, "btree: grow root: read old root")
	}
	oldRoot := NewInnerNode[T](oldRootPage.Bytes(), t.traits)
	oldLevel := oldRoot.Level()
	if err := t.ps.UnpinPage(t.header.RootPageNo, false); err != nil {
		return errors.Wrap(err, "btree: grow root: unpin old root")
	}

	newRootNo, newRootPage, err := t.ps.AllocPage()
	if err != nil {
		return errors.Wrap(err, "btree: grow root: alloc new root")
	}
	newRoot := NewInnerNode[T](newRootPage.Bytes(), t.traits)
	newRoot.Reset(oldLevel + 1)
	newRoot.SetChild(0, t.header.RootPageNo)
	newRoot.SetChild(1, rightPageNo)
	newRoot.SetKey(0, sep)

	if err := t.ps.UnpinPage(newRootNo, true); err != nil {
		return errors.Wrap(err, "btree: grow root: unpin new root")
	}
	logger.WithPage(logger.Event(t.header.RelationName, t.header.AttrByteOffset), newRootNo).
		WithField("level", oldLevel+1).Info("root grown")

	t.header.RootPageNo = newRootNo
	return t.writeHeader()
}
