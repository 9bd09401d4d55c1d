package motor

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildLinesFile(t *testing.T, n int, needle string, everyNth int) string {
	t.Helper()
	var b strings.Builder
	for i := 0; i < n; i++ {
		if everyNth > 0 && i%everyNth == 0 {
			fmt.Fprintf(&b, "line %d %s\n", i, needle)
		} else {
			fmt.Fprintf(&b, "line %d\n", i)
		}
	}
	return writeTempFile(t, "scanall.jsonl", b.String())
}

func TestStartScanAll_FindsEveryMatch(t *testing.T) {
	path := buildLinesFile(t, 5000, "FINDME", 1000)
	size := fileSizeForTest(t, path)
	session := newSession(path, FormatJSONL, size)

	registry := newTaskRegistry(4)
	info, err := StartScanAll(registry, session, SearchQuery{Text: "FINDME", MaxHits: 500}, DefaultLimits())
	require.NoError(t, err)

	task := waitForTask(t, registry, info.ID)
	assert.True(t, task.Info().Finished)
	assert.Equal(t, 100, task.Info().Progress)
	assert.Len(t, task.Hits(), 5) // lines 0,1000,2000,3000,4000
}

func TestStartScanAll_RespectsMaxHitsAndTruncates(t *testing.T) {
	path := buildLinesFile(t, 2000, "FINDME", 100)
	size := fileSizeForTest(t, path)
	session := newSession(path, FormatJSONL, size)

	registry := newTaskRegistry(4)
	info, err := StartScanAll(registry, session, SearchQuery{Text: "FINDME", MaxHits: 5}, DefaultLimits())
	require.NoError(t, err)

	task := waitForTask(t, registry, info.ID)
	assert.Len(t, task.Hits(), 5)
	assert.True(t, task.Info().Truncated)
}

func TestStartScanAll_CancelStopsBeforeEOF(t *testing.T) {
	path := buildLinesFile(t, 200000, "FINDME", 1000)
	size := fileSizeForTest(t, path)
	session := newSession(path, FormatJSONL, size)

	registry := newTaskRegistry(4)
	info, err := StartScanAll(registry, session, SearchQuery{Text: "FINDME", MaxHits: 100000}, DefaultLimits())
	require.NoError(t, err)

	require.NoError(t, registry.cancel(info.ID))
	task := waitForTask(t, registry, info.ID)

	snapshot := task.Info()
	assert.True(t, snapshot.Finished)
	assert.Equal(t, "cancelled", snapshot.Error)
	assert.Less(t, snapshot.Progress, 100)
}

func waitForTask(t *testing.T, registry *TaskRegistry, id string) *Task {
	t.Helper()
	task, err := registry.get(id)
	require.NoError(t, err)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if task.Info().Finished {
			return task
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("task never finished")
	return nil
}
