package motor

import "sync"

// engine.go is the public contract (C10): it owns the session and task
// registries and dispatches every wire-level call to the format readers,
// the lazy tree, search, and the exporter. Nothing outside this package
// should need to call the C1-C9 functions directly — the engine is the
// one seam the CLI (and any future transport) talks to.
type Engine struct {
	limits Limits

	mu       sync.Mutex
	sessions map[string]*Session

	tasks *TaskRegistry

	// OnOpen, if set, is invoked after a successful open_file with the
	// opened path — the wire layer wires this to the recent-files store
	// (internal/store) so motor itself never depends on it.
	OnOpen func(path string)
}

// NewEngine constructs an engine with the given limits (spec.md §6's
// wire-visible defaults, typically DefaultLimits() overridden by config).
func NewEngine(limits Limits) *Engine {
	return &Engine{
		limits:   limits,
		sessions: make(map[string]*Session),
		tasks:    newTaskRegistry(limits.MaxConcurrentTasks),
	}
}

func (e *Engine) getSession(sessionID string) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return nil, Errorf(KindUnknownSession, "no such session %q", sessionID)
	}
	return s, nil
}

// OpenFile opens path, detects its format, reads the first page, and
// registers a new session.
func (e *Engine) OpenFile(path string) (*Session, RecordPage, error) {
	return e.openFile(path, nil)
}

// OpenFileWithProgress is the progress-capable variant; for JSON sources
// the engine always uses this internally regardless of which entry point
// the caller used (spec.md §4.10).
func (e *Engine) OpenFileWithProgress(path string, cb ProgressFunc) (*Session, RecordPage, error) {
	return e.openFile(path, cb)
}

func (e *Engine) openFile(path string, cb ProgressFunc) (*Session, RecordPage, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, RecordPage{}, Errorf(KindUnsupportedFormat, "unrecognized file extension for %q", path)
	}

	size, err := statSize(path)
	if err != nil {
		return nil, RecordPage{}, err
	}

	var page RecordPage
	switch format {
	case FormatJSONL, FormatCSV:
		page, err = ReadLinePage(path, e.limits, 0, 0, e.limits.DefaultPageSize)
	case FormatJSON:
		page, err = ReadJSONPageWithProgress(path, e.limits, 0, 0, e.limits.DefaultPageSize, cb)
	case FormatParquet:
		page, err = ReadParquetPage(path, 0, e.limits.DefaultPageSize)
	}
	if err != nil {
		return nil, RecordPage{}, err
	}

	session := newSession(path, format, size)
	session.setLastPage(page)

	e.mu.Lock()
	e.sessions[session.ID] = session
	e.mu.Unlock()

	if e.OnOpen != nil {
		e.OnOpen(path)
	}

	return session, page, nil
}

// cursorFingerprintSize returns the size a session's format binds its
// cursor fingerprints to: the file's byte size for byte-addressed
// formats, or 0 for parquet's row-offset cursors (C5 always persists
// offset 0).
func cursorFingerprintSize(s *Session) int64 {
	if s.Format == FormatParquet {
		return 0
	}
	return s.fileSize
}

// NextPage advances a session's cursor by one page.
func (e *Engine) NextPage(sessionID string, cursor *string, pageSize int) (RecordPage, error) {
	s, err := e.getSession(sessionID)
	if err != nil {
		return RecordPage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if pageSize <= 0 {
		pageSize = e.limits.DefaultPageSize
	}
	if pageSize > e.limits.MaxPageSize {
		pageSize = e.limits.MaxPageSize
	}

	offset, line, err := DecodeCursor(s.Path, cursorFingerprintSize(s), cursor)
	if err != nil {
		return RecordPage{}, err
	}

	var page RecordPage
	switch s.Format {
	case FormatJSONL, FormatCSV:
		page, err = ReadLinePage(s.Path, e.limits, offset, line, pageSize)
	case FormatJSON:
		page, err = ReadJSONPageWithProgress(s.Path, e.limits, offset, line, pageSize, nil)
	case FormatParquet:
		page, err = ReadParquetPage(s.Path, line, pageSize)
	default:
		return RecordPage{}, Errorf(KindUnsupportedFormat, "session has unsupported format %v", s.Format)
	}
	if err != nil {
		return RecordPage{}, err
	}

	s.lastPage = page.Records // s.mu is already held
	return page, nil
}

// GetRecordRaw reads a record's full text given its meta span.
func (e *Engine) GetRecordRaw(sessionID string, meta RecordMeta) (string, error) {
	s, err := e.getSession(sessionID)
	if err != nil {
		return "", err
	}
	return ReadRawAt(s.Path, meta.ByteOffset, meta.ByteLen, e.limits.RecordRawCeiling)
}

// Search dispatches current_page/scan_all/indexed to C7.
func (e *Engine) Search(sessionID string, query SearchQuery) (SearchResult, error) {
	s, err := e.getSession(sessionID)
	if err != nil {
		return SearchResult{}, err
	}

	switch query.Mode {
	case SearchCurrentPage:
		return runCurrentPageSearch(s, query, e.limits)
	case SearchScanAll:
		info, err := StartScanAll(e.tasks, s, query, e.limits)
		if err != nil {
			return SearchResult{}, err
		}
		return SearchResult{Mode: SearchScanAll, Task: &info}, nil
	case SearchIndexed:
		return SearchResult{}, Errorf(KindUnimplemented, "indexed search mode is reserved")
	default:
		return SearchResult{}, Errorf(KindUnknown, "unknown search mode %q", query.Mode)
	}
}

// GetTask returns a task's current snapshot.
func (e *Engine) GetTask(taskID string) (TaskInfo, error) {
	t, err := e.tasks.get(taskID)
	if err != nil {
		return TaskInfo{}, err
	}
	return t.Info(), nil
}

// CancelTask requests cancellation of a running task.
func (e *Engine) CancelTask(taskID string) error {
	return e.tasks.cancel(taskID)
}

// SearchTaskHitsPage pages linearly through a task's hit buffer.
func (e *Engine) SearchTaskHitsPage(taskID string, cursor *string, pageSize int) (RecordPage, error) {
	t, err := e.tasks.get(taskID)
	if err != nil {
		return RecordPage{}, err
	}
	if pageSize <= 0 {
		pageSize = e.limits.DefaultPageSize
	}
	if pageSize > e.limits.MaxPageSize {
		pageSize = e.limits.MaxPageSize
	}
	offset, _, err := DecodeCursor(taskID, 0, cursor)
	if err != nil {
		return RecordPage{}, err
	}
	return t.hitsPage(taskID, offset, pageSize), nil
}

// Export dispatches to C9, resolving a search_task request's Task handle.
func (e *Engine) Export(sessionID string, req ExportRequest, format ExportFormat, outputPath string) (ExportResult, error) {
	s, err := e.getSession(sessionID)
	if err != nil {
		return ExportResult{}, err
	}

	var task *Task
	if req.Kind == ExportSearchTask {
		task, err = e.tasks.get(req.TaskID)
		if err != nil {
			return ExportResult{}, err
		}
	}

	return Export(req, s.Path, s.Format, format, outputPath, e.limits, task)
}

// requireJSON restricts the lazy-tree calls to FormatJSON sessions.
func (e *Engine) requireJSON(sessionID string) (*Session, error) {
	s, err := e.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if s.Format != FormatJSON {
		return nil, Errorf(KindNotApplicable, "json tree operations require a json session, got %v", s.Format)
	}
	return s, nil
}

// ListChildrenAtOffset is the offset-addressable lazy-tree listing (C6).
func (e *Engine) ListChildrenAtOffset(sessionID string, nodeOffset uint64, cursorOffset, cursorIndex *uint64, limit int) (JSONChildrenPage, error) {
	s, err := e.requireJSON(sessionID)
	if err != nil {
		return JSONChildrenPage{}, err
	}
	if limit <= 0 || limit > e.limits.JSONTreeMaxItems {
		limit = e.limits.JSONTreeMaxItems
	}
	return ListChildrenAtOffset(s.Path, nodeOffset, cursorOffset, cursorIndex, limit, e.limits)
}

// NodeSummaryAtOffset is the offset-addressable lazy-tree summary (C6).
func (e *Engine) NodeSummaryAtOffset(sessionID string, nodeOffset uint64) (JSONNodeSummary, error) {
	s, err := e.requireJSON(sessionID)
	if err != nil {
		return JSONNodeSummary{}, err
	}
	return NodeSummaryAtOffset(s.Path, nodeOffset, e.limits)
}

// ListChildren is the legacy path-based lazy-tree listing (C6).
func (e *Engine) ListChildren(sessionID string, rootOffset uint64, segments []string, cursorOffset, cursorIndex *uint64, limit int) (JSONChildrenPage, error) {
	s, err := e.requireJSON(sessionID)
	if err != nil {
		return JSONChildrenPage{}, err
	}
	if limit <= 0 || limit > e.limits.JSONTreeMaxItems {
		limit = e.limits.JSONTreeMaxItems
	}
	return ListChildren(s.Path, rootOffset, segments, cursorOffset, cursorIndex, limit, e.limits)
}

// NodeSummary is the legacy path-based lazy-tree summary (C6).
func (e *Engine) NodeSummary(sessionID string, rootOffset uint64, segments []string) (JSONNodeSummary, error) {
	s, err := e.requireJSON(sessionID)
	if err != nil {
		return JSONNodeSummary{}, err
	}
	return NodeSummary(s.Path, rootOffset, segments, e.limits)
}

// ScanFolderTree walks a directory for the folder-browsing dialog.
func (e *Engine) ScanFolderTree(path string, maxDepth, maxNodes int) (FolderTree, error) {
	if maxDepth <= 0 {
		maxDepth = e.limits.FolderScanMaxDepth
	}
	if maxNodes <= 0 {
		maxNodes = e.limits.FolderScanMaxNodes
	}
	return ScanFolderTree(path, maxDepth, maxNodes)
}

// PathKind classifies a filesystem path.
func (e *Engine) PathKind(path string) PathKind {
	return PathKindOf(path)
}
