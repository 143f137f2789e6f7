package buffer

import "github.com/cluso-db/bptreeindex/btree"

// PageSourceAdapter satisfies btree.PageSource by delegating to a
// Manager. Manager cannot implement the interface itself: its
// AllocPage and ReadPage return *Frame, while btree.PageSource requires
// methods returning btree.Page, and Go has no covariant return types.
type PageSourceAdapter struct {
	m *Manager
}

// NewPageSource wraps m as a btree.PageSource.
func NewPageSource(m *Manager) *PageSourceAdapter {
	return &PageSourceAdapter{m: m}
}

func (a *PageSourceAdapter) AllocPage() (uint32, btree.Page, error) {
	pageNo, frame, err := a.m.AllocPage()
	if err != nil {
		return 0, nil, err
	}
	return pageNo, frame, nil
}

func (a *PageSourceAdapter) ReadPage(pageNo uint32) (btree.Page, error) {
	frame, err := a.m.ReadPage(pageNo)
	if err != nil {
		return nil, err
	}
	return frame, nil
}

func (a *PageSourceAdapter) UnpinPage(pageNo uint32, dirty bool) error {
	return a.m.UnpinPage(pageNo, dirty)
}

func (a *PageSourceAdapter) FlushFile() error {
	return a.m.FlushFile()
}
