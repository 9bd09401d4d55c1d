package motor

import (
	"runtime"
	"sync"
)

// search_worker.go is the asynchronous half of C7: scan_all spawns a task
// (C8) and walks the file page-by-page through the format-native reader,
// fanning each page's records out across a small worker pool to match
// them in parallel — the same work-batch/worker-pool shape as the
// teacher's motor/search_worker.go, adapted from whole-file index-sliced
// batches (the teacher has a precomputed entry index to slice) to
// per-page batches, since JSONL/JSON offer no such index up front and can
// only be walked sequentially through their own cursors.

const scanAllPageSize = 1000

// StartScanAll registers and launches a scan_all task against session,
// returning its initial TaskInfo immediately (spec.md §4.7).
func StartScanAll(registry *TaskRegistry, session *Session, query SearchQuery, limits Limits) (TaskInfo, error) {
	maxHits := query.MaxHits
	if maxHits <= 0 {
		maxHits = limits.DefaultMaxHits
	}
	m := newTextMatcher(query.Text, query.CaseSensitive)

	t, err := registry.start(TaskSearchScanAll, maxHits, func(t *Task) error {
		return runScanAll(t, session, m, limits)
	})
	if err != nil {
		return TaskInfo{}, err
	}
	return t.Info(), nil
}

func runScanAll(t *Task, session *Session, m textMatcher, limits Limits) error {
	switch session.Format {
	case FormatJSONL, FormatCSV:
		return scanAllLines(t, session, m, limits)
	case FormatJSON:
		return scanAllJSON(t, session, m, limits)
	case FormatParquet:
		return scanAllParquet(t, session, m, limits)
	default:
		return Errorf(KindUnsupportedFormat, "cannot scan session format %v", session.Format)
	}
}

func scanAllLines(t *Task, session *Session, m textMatcher, limits Limits) error {
	total := session.fileSize
	var offset, line uint64
	for {
		if t.Cancelled() {
			return nil
		}
		page, err := ReadLinePage(session.Path, limits, offset, line, scanAllPageSize)
		if err != nil {
			return err
		}
		searchBatchInto(t, page.Records, m)

		if page.ReachedEOF {
			t.SetProgress(100)
			return nil
		}
		newOffset, newLine, err := DecodeCursor(session.Path, total, page.NextCursor)
		if err != nil {
			return err
		}
		offset, line = newOffset, newLine
		if total > 0 {
			t.SetProgress(int(offset * 100 / uint64(total)))
		}
	}
}

func scanAllJSON(t *Task, session *Session, m textMatcher, limits Limits) error {
	total := session.fileSize
	var offset, line uint64
	for {
		if t.Cancelled() {
			return nil
		}
		page, err := ReadJSONPage(session.Path, limits, offset, line, scanAllPageSize)
		if err != nil {
			return err
		}
		searchBatchInto(t, page.Records, m)

		if page.ReachedEOF {
			t.SetProgress(100)
			return nil
		}
		newOffset, newLine, err := DecodeCursor(session.Path, total, page.NextCursor)
		if err != nil {
			return err
		}
		offset, line = newOffset, newLine
		if total > 0 {
			t.SetProgress(int(offset * 100 / uint64(total)))
		}
	}
}

func scanAllParquet(t *Task, session *Session, m textMatcher, limits Limits) error {
	totalRows, err := CountParquetRows(session.Path)
	if err != nil {
		return err
	}

	var rowOffset uint64
	for {
		if t.Cancelled() {
			return nil
		}
		page, err := ReadParquetPage(session.Path, rowOffset, scanAllPageSize)
		if err != nil {
			return err
		}
		searchBatchInto(t, page.Records, m)
		rowOffset += uint64(len(page.Records))

		if page.ReachedEOF {
			t.SetProgress(100)
			return nil
		}
		if totalRows > 0 {
			t.SetProgress(int(int64(rowOffset) * 100 / totalRows))
		}
	}
}

// searchBatchInto fans records out across a small worker pool, matching
// each one's preview text, and appends every match straight into the
// task's hit buffer (appendHit already enforces max_hits/truncation).
func searchBatchInto(t *Task, records []Record, m textMatcher) {
	if len(records) == 0 {
		return
	}

	workerCount := runtime.NumCPU()
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > len(records) {
		workerCount = len(records)
	}
	chunkSize := (len(records) + workerCount - 1) / workerCount

	var wg sync.WaitGroup
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		wg.Add(1)
		go func(chunk []Record) {
			defer wg.Done()
			for _, r := range chunk {
				if m.match(r.Preview) {
					t.appendHit(r)
				}
			}
		}(chunk)
	}
	wg.Wait()
}
