package motor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_ProgressIsMonotonic(t *testing.T) {
	task := newTask(TaskSearchScanAll, 100)

	task.SetProgress(40)
	task.SetProgress(10) // lower value is a no-op
	assert.Equal(t, 40, task.Info().Progress)

	task.SetProgress(90)
	assert.Equal(t, 90, task.Info().Progress)
}

func TestTask_SetProgress_ClampsToRange(t *testing.T) {
	task := newTask(TaskSearchScanAll, 100)
	task.SetProgress(-5)
	assert.Equal(t, 0, task.Info().Progress)
	task.SetProgress(500)
	assert.Equal(t, 100, task.Info().Progress)
}

func TestTask_Finish_SnapsTo100OnSuccess(t *testing.T) {
	task := newTask(TaskSearchScanAll, 100)
	task.SetProgress(50)
	task.finish(nil)

	info := task.Info()
	assert.Equal(t, 100, info.Progress)
	assert.True(t, info.Finished)
	assert.Empty(t, info.Error)
}

func TestTask_Finish_DoesNotSnapTo100OnCancel(t *testing.T) {
	task := newTask(TaskSearchScanAll, 100)
	task.SetProgress(33)
	task.RequestCancel()
	task.finish(nil)

	info := task.Info()
	assert.Equal(t, 33, info.Progress)
	assert.True(t, info.Finished)
	assert.Equal(t, "cancelled", info.Error)
}

func TestTask_AppendHit_TruncatesAtMaxHits(t *testing.T) {
	task := newTask(TaskSearchScanAll, 2)
	task.appendHit(Record{ID: 1})
	task.appendHit(Record{ID: 2})
	task.appendHit(Record{ID: 3}) // dropped, sets truncated

	hits := task.Hits()
	require.Len(t, hits, 2)
	assert.True(t, task.Info().Truncated)
}

func TestTask_HitsPage_PagesLinearly(t *testing.T) {
	task := newTask(TaskSearchScanAll, 10)
	for i := uint64(0); i < 5; i++ {
		task.appendHit(Record{ID: i})
	}

	page1 := task.hitsPage("task-1", 0, 2)
	require.Len(t, page1.Records, 2)
	assert.False(t, page1.ReachedEOF)
	require.NotNil(t, page1.NextCursor)

	offset, _, err := DecodeCursor("task-1", 0, page1.NextCursor)
	require.NoError(t, err)
	page2 := task.hitsPage("task-1", offset, 2)
	require.Len(t, page2.Records, 2)
	assert.False(t, page2.ReachedEOF)

	offset, _, err = DecodeCursor("task-1", 0, page2.NextCursor)
	require.NoError(t, err)
	page3 := task.hitsPage("task-1", offset, 2)
	require.Len(t, page3.Records, 1)
	assert.True(t, page3.ReachedEOF)
}

func TestTaskRegistry_FailsFastOverCap(t *testing.T) {
	reg := newTaskRegistry(1)
	release := make(chan struct{})

	_, err := reg.start(TaskSearchScanAll, 10, func(task *Task) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	_, err = reg.start(TaskSearchScanAll, 10, func(task *Task) error { return nil })
	require.Error(t, err)
	assert.Equal(t, KindTooManyTasks, KindOf(err))

	close(release)
}

func TestTaskRegistry_CancelUnknownTask(t *testing.T) {
	reg := newTaskRegistry(4)
	err := reg.cancel("does-not-exist")
	require.Error(t, err)
	assert.Equal(t, KindUnknownTask, KindOf(err))
}

func TestTaskRegistry_GetAfterCompletion(t *testing.T) {
	reg := newTaskRegistry(4)
	var wg sync.WaitGroup
	wg.Add(1)

	task, err := reg.start(TaskSearchScanAll, 10, func(task *Task) error {
		defer wg.Done()
		task.SetProgress(100)
		return nil
	})
	require.NoError(t, err)

	wg.Wait()
	// allow the goroutine's finish() call to land before polling
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		got, err := reg.get(task.id)
		require.NoError(t, err)
		if got.Info().Finished {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("task never reported finished")
}
