package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cluso-db/bptreeindex/btree"
)

func TestPageSourceAdapterSatisfiesBtreeInterface(t *testing.T) {
	m := newManager(t, 16)
	var ps btree.PageSource = NewPageSource(m)

	pageNo, page, err := ps.AllocPage()
	require.NoError(t, err)
	assert.Equal(t, pageNo, page.PageNo())
	require.NoError(t, ps.UnpinPage(pageNo, true))

	reread, err := ps.ReadPage(pageNo)
	require.NoError(t, err)
	assert.Equal(t, pageNo, reread.PageNo())
	require.NoError(t, ps.UnpinPage(pageNo, false))

	require.NoError(t, ps.FlushFile())
}
