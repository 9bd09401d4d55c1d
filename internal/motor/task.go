package motor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// task.go is the task registry (C8): lifecycle, cancellation, progress, and
// the concurrency cap for background scan_all/export work. It is the
// generalisation of the teacher's HARSearcher stats/worker-pool bookkeeping
// (motor/searcher.go's searchAtomicStats) into a retained, pollable task
// object instead of a fire-and-forget channel of results.

// Task is a background scan_all or export operation. Its hit buffer is
// retained for the lifetime of the process so search_task_hits_page and
// export{type:search_task} can read it after the scan finishes.
type Task struct {
	id          string
	kind        TaskKind
	startedAtMs int64
	cancellable bool
	maxHits     int

	progress  int32 // atomic, 0-100
	finished  int32 // atomic bool
	cancelled int32 // atomic bool

	mu        sync.Mutex
	hits      []Record
	truncated bool
	errMsg    string
}

func newTask(kind TaskKind, maxHits int) *Task {
	return &Task{
		id:          uuid.NewString(),
		kind:        kind,
		startedAtMs: time.Now().UnixMilli(),
		cancellable: true,
		maxHits:     maxHits,
	}
}

// Info returns a snapshot of the task's current state (get_task).
func (t *Task) Info() TaskInfo {
	t.mu.Lock()
	errMsg := t.errMsg
	truncated := t.truncated
	t.mu.Unlock()

	return TaskInfo{
		ID:          t.id,
		Kind:        t.kind,
		StartedAtMs: t.startedAtMs,
		Progress:    int(atomic.LoadInt32(&t.progress)),
		Cancellable: t.cancellable,
		Finished:    atomic.LoadInt32(&t.finished) != 0,
		Error:       errMsg,
		Truncated:   truncated,
	}
}

// RequestCancel flips the task's cancellation flag; the running scan
// observes it at its next poll point (cancel_task).
func (t *Task) RequestCancel() {
	atomic.StoreInt32(&t.cancelled, 1)
}

// Cancelled reports whether cancellation has been requested.
func (t *Task) Cancelled() bool {
	return atomic.LoadInt32(&t.cancelled) != 0
}

// SetProgress advances progress_0_100 monotonically: a call with a lower
// value than the current one is a no-op, preserving the non-decreasing
// guarantee readers of get_task rely on.
func (t *Task) SetProgress(p int) {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	for {
		cur := atomic.LoadInt32(&t.progress)
		if int32(p) <= cur {
			return
		}
		if atomic.CompareAndSwapInt32(&t.progress, cur, int32(p)) {
			return
		}
	}
}

// finish marks the task complete, recording an error message ("cancelled"
// if the task observed its own cancellation flag). Progress only snaps to
// 100 on a successful, non-cancelled finish — a cancelled task stays at
// whatever progress it had reached.
func (t *Task) finish(err error) {
	cancelled := t.Cancelled()

	t.mu.Lock()
	if err != nil {
		t.errMsg = err.Error()
	} else if cancelled {
		t.errMsg = "cancelled"
	}
	t.mu.Unlock()

	if err == nil && !cancelled {
		t.SetProgress(100)
	}
	atomic.StoreInt32(&t.finished, 1)
}

// Hits returns a copy of the task's accumulated hit buffer, used by the
// exporter for export{type:search_task}.
func (t *Task) Hits() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Record(nil), t.hits...)
}

// appendHit adds a hit to the task's buffer unless max_hits has already
// been reached, in which case it marks the task truncated and drops the
// hit while the caller continues scanning (for progress only).
func (t *Task) appendHit(r Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.hits) >= t.maxHits {
		t.truncated = true
		return
	}
	t.hits = append(t.hits, r)
}

// hitsPage returns up to pageSize hits starting at offset, the byte/line
// cursor fields being meaningless here: the hit buffer is paged by a plain
// linear offset, still encoded through C1 so callers use the same cursor
// shape everywhere.
func (t *Task) hitsPage(path string, offset uint64, pageSize int) RecordPage {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := uint64(len(t.hits))
	if offset >= total {
		return RecordPage{Records: []Record{}, ReachedEOF: true}
	}
	end := offset + uint64(pageSize)
	if end > total {
		end = total
	}
	page := RecordPage{Records: append([]Record(nil), t.hits[offset:end]...)}
	if end >= total {
		page.ReachedEOF = true
	} else {
		cursor := EncodeCursor(path, 0, end, 0)
		page.NextCursor = &cursor
	}
	return page
}

// TaskRegistry owns all background tasks for one engine instance and
// enforces max_concurrent_tasks.
type TaskRegistry struct {
	mu            sync.Mutex
	tasks         map[string]*Task
	maxConcurrent int
}

func newTaskRegistry(maxConcurrent int) *TaskRegistry {
	return &TaskRegistry{tasks: make(map[string]*Task), maxConcurrent: maxConcurrent}
}

func (r *TaskRegistry) runningCount() int {
	n := 0
	for _, t := range r.tasks {
		if atomic.LoadInt32(&t.finished) == 0 {
			n++
		}
	}
	return n
}

// start registers a new task and runs run in its own goroutine, calling
// finish with whatever error run returns (nil on clean completion).
func (r *TaskRegistry) start(kind TaskKind, maxHits int, run func(t *Task) error) (*Task, error) {
	r.mu.Lock()
	if r.runningCount() >= r.maxConcurrent {
		r.mu.Unlock()
		return nil, Errorf(KindTooManyTasks, "max_concurrent_tasks (%d) reached", r.maxConcurrent)
	}
	t := newTask(kind, maxHits)
	r.tasks[t.id] = t
	r.mu.Unlock()

	go func() {
		err := run(t)
		t.finish(err)
	}()

	return t, nil
}

func (r *TaskRegistry) get(id string) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, Errorf(KindUnknownTask, "no such task %q", id)
	}
	return t, nil
}

func (r *TaskRegistry) cancel(id string) error {
	t, err := r.get(id)
	if err != nil {
		return err
	}
	t.RequestCancel()
	return nil
}
