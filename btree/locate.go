package btree

import "github.com/pkg/errors"

// locate implements spec §4.B: walk down from the root inner node to
// the leaf that does or would contain key, recording the descent path
// for eventual split propagation. insertMode does not change the
// traversal itself (lookup and insert descend identically); it only
// documents intent to callers that skip splitting on a plain lookup.
//
// Returns the leaf's page number and pinned Page (caller must unpin
// exactly once), the insertion index computed per §4.B, the leaf's
// current used-entry count, and the recorded path.
func locate[T any](traits KeyTraits[T], ps PageSource, rootPageNo uint32, key T, insertMode bool) (
	leafPageNo uint32, leafPage Page, insertIndex int, used int, path descentPath, err error) {

	currentPageNo := rootPageNo
	for {
		page, rerr := ps.ReadPage(currentPageNo)
		if rerr != nil {
			err = errors.Wrapf(rerr, "btree: locate: read page %d", currentPageNo)
			return
		}
		inner := NewInnerNode[T](page.Bytes(), traits)
		level := inner.Level()

		// resetInitialRoot leaves a freshly created index's root at
		// level 1 with no children at all (index.go's
		// resetInitialRoot); it only becomes a real level-2
		// parent-of-leaves once the first Insert bootstraps it
		// (insertBootstrap sets level 2 and both leaf children).
		// locate is reachable on this still-empty root via StartScan,
		// which never goes through the bootstrap path, so it needs its
		// own check here rather than descending into child 0, which is
		// InvalidPage.
		if inner.UsedChildren() == 0 {
			if uerr := ps.UnpinPage(currentPageNo, false); uerr != nil {
				err = errors.Wrapf(uerr, "btree: locate: unpin page %d", currentPageNo)
				return
			}
			err = ErrNoKeyFound
			return
		}

		i := 0
		for i < inner.N() && traits.Compare(inner.Key(i), key) <= 0 && inner.Child(i+1) != InvalidPage {
			i++
		}
		childPageNo := inner.Child(i)
		path.push(currentPageNo, i)

		if uerr := ps.UnpinPage(currentPageNo, false); uerr != nil {
			err = errors.Wrapf(uerr, "btree: locate: unpin page %d", currentPageNo)
			return
		}

		// level 2 is the parent-of-leaves: its children are leaf pages,
		// not inner nodes, so descent stops here instead of reading
		// childPageNo as another InnerNode. The only level-1 node that
		// ever exists is the empty just-created root handled above;
		// insertBootstrap turns it straight into a level-2 root on the
		// first Insert, and growRoot only ever increments from there, so
		// no inner node with real children is ever found at level 1.
		if level == 2 {
			leafPageNo = childPageNo
			break
		}
		currentPageNo = childPageNo
	}

	page, rerr := ps.ReadPage(leafPageNo)
	if rerr != nil {
		err = errors.Wrapf(rerr, "btree: locate: read leaf %d", leafPageNo)
		return
	}
	leafPage = page
	leaf := NewLeafNode[T](page.Bytes(), traits)
	used = leaf.UsedEntries()

	insertIndex = used
	for i := 0; i < used; i++ {
		if traits.Compare(leaf.Key(i), key) >= 0 {
			insertIndex = i
			break
		}
	}
	return
}
