package wordlocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndLookup(t *testing.T) {
	idx := New()
	idx.Insert("fox", 3)
	idx.Insert("fox", 1)
	idx.Insert("fox", 1) // duplicate line, must not double up
	idx.Insert("dog", 2)

	assert.Equal(t, []int{1, 3}, idx.Lookup("fox"))
	assert.Equal(t, []int{2}, idx.Lookup("dog"))
	assert.Nil(t, idx.Lookup("cat"))
	assert.Equal(t, 2, idx.Words())
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	idx := New()
	idx.Insert("Fox", 1)
	idx.Insert("FOX", 2)
	idx.Insert("fox", 2) // duplicate under a third casing, still one line set

	assert.Equal(t, []int{1, 2}, idx.Lookup("fox"))
	assert.Equal(t, []int{1, 2}, idx.Lookup("FOX"))
	assert.Equal(t, 1, idx.Words())
	assert.Equal(t, []string{"Fox"}, idx.InOrder())
}

func TestInOrderIsSorted(t *testing.T) {
	idx := New()
	for _, w := range []string{"the", "quick", "brown", "fox", "ate"} {
		idx.Insert(w, 1)
	}
	require.Equal(t, []string{"ate", "brown", "fox", "quick", "the"}, idx.InOrder())
}

func TestEmptyIndex(t *testing.T) {
	idx := New()
	assert.Equal(t, 0, idx.Words())
	assert.Empty(t, idx.InOrder())
	assert.Nil(t, idx.Lookup("anything"))
}
