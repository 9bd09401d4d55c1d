package motor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadLinePage_PagesFiveLinesTwoAtATime(t *testing.T) {
	path := writeTempFile(t, "five.jsonl", "a\nb\nc\nd\ne\n")
	limits := DefaultLimits()

	page1, err := ReadLinePage(path, limits, 0, 0, 2)
	require.NoError(t, err)
	require.Len(t, page1.Records, 2)
	assert.Equal(t, "a", page1.Records[0].Preview)
	assert.Equal(t, "b", page1.Records[1].Preview)
	assert.False(t, page1.ReachedEOF)
	require.NotNil(t, page1.NextCursor)

	offset, line, err := DecodeCursor(path, fileSizeForTest(t, path), page1.NextCursor)
	require.NoError(t, err)

	page2, err := ReadLinePage(path, limits, offset, line, 2)
	require.NoError(t, err)
	require.Len(t, page2.Records, 2)
	assert.Equal(t, "c", page2.Records[0].Preview)
	assert.Equal(t, "d", page2.Records[1].Preview)
	assert.False(t, page2.ReachedEOF)

	offset, line, err = DecodeCursor(path, fileSizeForTest(t, path), page2.NextCursor)
	require.NoError(t, err)

	page3, err := ReadLinePage(path, limits, offset, line, 2)
	require.NoError(t, err)
	require.Len(t, page3.Records, 1)
	assert.Equal(t, "e", page3.Records[0].Preview)
	assert.True(t, page3.ReachedEOF)
	assert.Nil(t, page3.NextCursor)
}

func TestReadLinePage_NormalizesCRLF(t *testing.T) {
	path := writeTempFile(t, "crlf.csv", "h1,h2\r\nv1,v2\r\n")
	limits := DefaultLimits()

	page, err := ReadLinePage(path, limits, 0, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "h1,h2", page.Records[0].Preview)
	assert.Equal(t, "v1,v2", page.Records[1].Preview)
	assert.True(t, page.ReachedEOF)
}

func TestReadLinePage_SkipsEmptyLines(t *testing.T) {
	path := writeTempFile(t, "blank.jsonl", "a\n\nb\n")
	limits := DefaultLimits()

	page, err := ReadLinePage(path, limits, 0, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "a", page.Records[0].Preview)
	assert.Equal(t, "b", page.Records[1].Preview)
}

func TestReadRawAt_ReadsExactSpan(t *testing.T) {
	path := writeTempFile(t, "raw.jsonl", "first\nsecond\nthird\n")

	text, err := ReadRawAt(path, 6, 6, DefaultLimits().RecordRawCeiling)
	require.NoError(t, err)
	assert.Equal(t, "second", text)
}

func TestReadRawAt_RejectsOversizedSpan(t *testing.T) {
	path := writeTempFile(t, "raw2.jsonl", "first\n")

	_, err := ReadRawAt(path, 0, 100, 10)
	require.Error(t, err)
	assert.Equal(t, KindRecordTooLarge, KindOf(err))
}

func fileSizeForTest(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Size()
}
