package motor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListChildrenAtOffset_ObjectChildren(t *testing.T) {
	path := writeTempFile(t, "tree.json", `{"name":"alice","age":30,"tags":["a","b"]}`)
	limits := DefaultLimits()

	page, err := ListChildrenAtOffset(path, 0, nil, nil, 10, limits)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.True(t, page.ReachedEnd)

	assert.Equal(t, "name", page.Items[0].Seg)
	assert.Equal(t, ChildString, page.Items[0].Kind)
	assert.Equal(t, "age", page.Items[1].Seg)
	assert.Equal(t, ChildNumber, page.Items[1].Kind)
	assert.Equal(t, "tags", page.Items[2].Seg)
	assert.Equal(t, ChildArray, page.Items[2].Kind)
}

func TestListChildrenAtOffset_PaginatesAndResumes(t *testing.T) {
	path := writeTempFile(t, "tree2.json", `[10,20,30,40,50]`)
	limits := DefaultLimits()

	page1, err := ListChildrenAtOffset(path, 0, nil, nil, 2, limits)
	require.NoError(t, err)
	require.Len(t, page1.Items, 2)
	assert.False(t, page1.ReachedEnd)
	require.NotNil(t, page1.NextCursorOffset)

	page2, err := ListChildrenAtOffset(path, 0, page1.NextCursorOffset, page1.NextCursorIndex, 2, limits)
	require.NoError(t, err)
	require.Len(t, page2.Items, 2)
	assert.Equal(t, "2", page2.Items[0].Seg)

	page3, err := ListChildrenAtOffset(path, 0, page2.NextCursorOffset, page2.NextCursorIndex, 2, limits)
	require.NoError(t, err)
	require.Len(t, page3.Items, 1)
	assert.True(t, page3.ReachedEnd)
}

func TestNodeSummaryAtOffset_CountsChildren(t *testing.T) {
	path := writeTempFile(t, "tree3.json", `{"a":1,"b":2,"c":3}`)
	limits := DefaultLimits()

	summary, err := NodeSummaryAtOffset(path, 0, limits)
	require.NoError(t, err)
	assert.Equal(t, ChildObject, summary.Kind)
	require.NotNil(t, summary.ChildCount)
	assert.Equal(t, 3, *summary.ChildCount)
	assert.True(t, summary.Complete)
}

func TestNodeSummaryAtOffset_ScalarIsComplete(t *testing.T) {
	path := writeTempFile(t, "tree4.json", `"just a string"`)
	limits := DefaultLimits()

	summary, err := NodeSummaryAtOffset(path, 0, limits)
	require.NoError(t, err)
	assert.Equal(t, ChildString, summary.Kind)
	assert.Nil(t, summary.ChildCount)
	assert.True(t, summary.Complete)
}

func TestListChildren_PathBasedLookup(t *testing.T) {
	path := writeTempFile(t, "tree5.json", `{"a":{"b":{"c":42}}}`)
	limits := DefaultLimits()

	page, err := ListChildren(path, 0, []string{"a", "b"}, nil, nil, 10, limits)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c", page.Items[0].Seg)
	assert.Equal(t, ChildNumber, page.Items[0].Kind)
}

func TestListChildren_UnknownPathSegment(t *testing.T) {
	path := writeTempFile(t, "tree6.json", `{"a":1}`)
	limits := DefaultLimits()

	_, err := ListChildren(path, 0, []string{"missing"}, nil, nil, 10, limits)
	require.Error(t, err)
	assert.Equal(t, KindInvalidCursor, KindOf(err))
}
