package motor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSONPage_RootArrayWithBOM(t *testing.T) {
	content := "\xEF\xBB\xBF[1, 2, 3]"
	path := writeTempFile(t, "bom.json", content)
	limits := DefaultLimits()

	page, err := ReadJSONPage(path, limits, 0, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Records, 3)
	assert.Equal(t, "1", page.Records[0].Preview)
	assert.Equal(t, "2", page.Records[1].Preview)
	assert.Equal(t, "3", page.Records[2].Preview)
	assert.True(t, page.ReachedEOF)
}

func TestReadJSONPage_RootObjectIsSingleRecord(t *testing.T) {
	path := writeTempFile(t, "obj.json", `{"a":1,"b":2}`)
	limits := DefaultLimits()

	page, err := ReadJSONPage(path, limits, 0, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.JSONEq(t, `{"a":1,"b":2}`, page.Records[0].Preview)
	assert.True(t, page.ReachedEOF)
}

func TestReadJSONPage_PagesArrayAcrossCalls(t *testing.T) {
	path := writeTempFile(t, "arr.json", `[10,20,30,40,50]`)
	limits := DefaultLimits()

	page1, err := ReadJSONPage(path, limits, 0, 0, 2)
	require.NoError(t, err)
	require.Len(t, page1.Records, 2)
	assert.False(t, page1.ReachedEOF)
	require.NotNil(t, page1.NextCursor)

	size := fileSizeForTest(t, path)
	offset, line, err := DecodeCursor(path, size, page1.NextCursor)
	require.NoError(t, err)

	page2, err := ReadJSONPage(path, limits, offset, line, 2)
	require.NoError(t, err)
	require.Len(t, page2.Records, 2)
	assert.Equal(t, "30", page2.Records[0].Preview)
	assert.Equal(t, "40", page2.Records[1].Preview)

	offset, line, err = DecodeCursor(path, size, page2.NextCursor)
	require.NoError(t, err)
	page3, err := ReadJSONPage(path, limits, offset, line, 2)
	require.NoError(t, err)
	require.Len(t, page3.Records, 1)
	assert.Equal(t, "50", page3.Records[0].Preview)
	assert.True(t, page3.ReachedEOF)
}

func TestReadJSONPage_MultiValueStream(t *testing.T) {
	path := writeTempFile(t, "stream.json", `{"a":1} {"b":2}`+"\n"+`{"c":3}`)
	limits := DefaultLimits()

	page, err := ReadJSONPage(path, limits, 0, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Records, 3)
	assert.True(t, page.ReachedEOF)
}
