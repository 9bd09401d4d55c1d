package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_DrainsFilesAlreadyPresent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "drop1"), []byte("/data/a.jsonl\n/data/b.csv\n"), 0o644))

	b, err := Open(dir)
	require.NoError(t, err)
	defer b.Close()

	paths := b.TakePendingOpenPaths()
	assert.ElementsMatch(t, []string{"/data/a.jsonl", "/data/b.csv"}, paths)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTakePendingOpenPaths_ConsumesQueue(t *testing.T) {
	dir := t.TempDir()
	b, err := Open(dir)
	require.NoError(t, err)
	defer b.Close()

	assert.Nil(t, b.TakePendingOpenPaths())

	dropPath := filepath.Join(dir, "drop2")
	require.NoError(t, os.WriteFile(dropPath, []byte("/data/c.json\n"), 0o644))

	deadline := time.Now().Add(2 * time.Second)
	var paths []string
	for time.Now().Before(deadline) {
		paths = b.TakePendingOpenPaths()
		if len(paths) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, []string{"/data/c.json"}, paths)

	// second call with nothing new returns nil
	assert.Nil(t, b.TakePendingOpenPaths())
}

func TestDefaultDir_UnderHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".datasets-helper", "pending-open"), DefaultDir())
}
