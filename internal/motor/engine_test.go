package motor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_OpenFileAndGetRecordRaw(t *testing.T) {
	path := writeTempFile(t, "e2e.jsonl", "a\nb\nc\nd\ne\n")
	engine := NewEngine(DefaultLimits())

	session, first, err := engine.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, first.Records, 5)
	assert.True(t, first.ReachedEOF)

	_, err = engine.GetRecordRaw(session.ID, *first.Records[1].Meta)
	require.NoError(t, err)
}

func TestEngine_OpenFile_UnsupportedExtension(t *testing.T) {
	path := writeTempFile(t, "e2e.txt", "hello")
	engine := NewEngine(DefaultLimits())

	_, _, err := engine.OpenFile(path)
	require.Error(t, err)
	assert.Equal(t, KindUnsupportedFormat, KindOf(err))
}

func TestEngine_NextPage_UnknownSession(t *testing.T) {
	engine := NewEngine(DefaultLimits())
	_, err := engine.NextPage("bogus-id", nil, 10)
	require.Error(t, err)
	assert.Equal(t, KindUnknownSession, KindOf(err))
}

func TestEngine_SearchCurrentPage(t *testing.T) {
	path := writeTempFile(t, "e2e2.jsonl", "alpha\nbravo\ncharlie\n")
	engine := NewEngine(DefaultLimits())

	session, _, err := engine.OpenFile(path)
	require.NoError(t, err)

	result, err := engine.Search(session.ID, SearchQuery{Text: "bravo", Mode: SearchCurrentPage})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "bravo", result.Hits[0].Preview)
}

func TestEngine_ExportSelection(t *testing.T) {
	path := writeTempFile(t, "e2e3.jsonl", "{\"a\":1}\n{\"a\":2}\n")
	engine := NewEngine(DefaultLimits())

	session, _, err := engine.OpenFile(path)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.jsonl")
	result, err := engine.Export(session.ID, ExportRequest{Kind: ExportSelection, RecordIDs: []uint64{0}}, ExportJSONL, out)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RecordsWritten)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(data))
}

func TestEngine_ListChildren_RequiresJSONSession(t *testing.T) {
	path := writeTempFile(t, "e2e4.jsonl", "a\n")
	engine := NewEngine(DefaultLimits())

	session, _, err := engine.OpenFile(path)
	require.NoError(t, err)

	_, err = engine.ListChildrenAtOffset(session.ID, 0, nil, nil, 10)
	require.Error(t, err)
	assert.Equal(t, KindNotApplicable, KindOf(err))
}

func TestEngine_ListChildren_JSONSession(t *testing.T) {
	path := writeTempFile(t, "e2e5.json", `{"a":1,"b":2}`)
	engine := NewEngine(DefaultLimits())

	session, _, err := engine.OpenFile(path)
	require.NoError(t, err)

	page, err := engine.ListChildrenAtOffset(session.ID, 0, nil, nil, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.ReachedEnd)
}

func TestEngine_ScanFolderTreeAndPathKind(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jsonl"), []byte("{}"), 0o644))
	engine := NewEngine(DefaultLimits())

	tree, err := engine.ScanFolderTree(dir, 5, 100)
	require.NoError(t, err)
	assert.Equal(t, PathDir, engine.PathKind(dir))
	assert.GreaterOrEqual(t, tree.TotalNodes, 1)
}

func TestEngine_OnOpenCallback(t *testing.T) {
	path := writeTempFile(t, "e2e6.jsonl", "a\n")
	engine := NewEngine(DefaultLimits())

	var seen string
	engine.OnOpen = func(p string) { seen = p }

	_, _, err := engine.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, seen)
}
