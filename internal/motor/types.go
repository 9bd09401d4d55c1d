package motor

import (
	"strings"
	"sync"
	"time"
)

// FileFormat is the tagged variant produced by format detection (C2).
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatJSONL
	FormatCSV
	FormatJSON
	FormatParquet
)

func (f FileFormat) String() string {
	switch f {
	case FormatJSONL:
		return "jsonl"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatParquet:
		return "parquet"
	default:
		return "unknown"
	}
}

// Limits bundles every wire-visible default/cap from spec.md §6. The zero
// value is invalid; use DefaultLimits().
type Limits struct {
	DefaultPageSize     int
	MaxPageSize         int
	PreviewCharBudget   int
	RawCharBudget       int
	RecordRawCeiling    int64
	DefaultMaxHits      int
	MaxConcurrentTasks  int
	FolderScanMaxDepth  int
	FolderScanMaxNodes  int
	JSONTreeMaxItems    int
	JSONTreeMaxScanByte int64
	ProgressMaxHz       int
}

// DefaultLimits returns the limits named explicitly in spec.md §6.
func DefaultLimits() Limits {
	return Limits{
		DefaultPageSize:     50,
		MaxPageSize:         1000,
		PreviewCharBudget:   1024,
		RawCharBudget:       64 * 1024,
		RecordRawCeiling:    50 * 1024 * 1024,
		DefaultMaxHits:      10000,
		MaxConcurrentTasks:  4,
		FolderScanMaxDepth:  64,
		FolderScanMaxNodes:  20000,
		JSONTreeMaxItems:    200000,
		JSONTreeMaxScanByte: 64 * 1024 * 1024,
		ProgressMaxHz:       50,
	}
}

const truncationEllipsis = "…"

// RecordMeta locates a record's exact byte span in the source file.
// Parquet records carry no meta (spec.md §3).
type RecordMeta struct {
	LineNo     uint64 `json:"line_no"`
	ByteOffset uint64 `json:"byte_offset"`
	ByteLen    uint64 `json:"byte_len"`
}

// Record is one logical row/line/value as exposed to a caller.
type Record struct {
	ID      uint64      `json:"id"`
	Preview string      `json:"preview"`
	Raw     string      `json:"raw,omitempty"`
	Meta    *RecordMeta `json:"meta,omitempty"`
}

// RecordPage is the result of one paged read.
type RecordPage struct {
	Records    []Record `json:"records"`
	NextCursor *string  `json:"next_cursor,omitempty"`
	ReachedEOF bool     `json:"reached_eof"`
}

// SearchMode selects how a SearchQuery is executed.
type SearchMode string

const (
	SearchCurrentPage SearchMode = "current_page"
	SearchScanAll     SearchMode = "scan_all"
	SearchIndexed     SearchMode = "indexed"
)

// SearchQuery describes one search request (C7).
type SearchQuery struct {
	Text          string     `json:"text"`
	Mode          SearchMode `json:"mode"`
	CaseSensitive bool       `json:"case_sensitive"`
	MaxHits       int        `json:"max_hits"`
}

// TaskKind distinguishes the background work a Task performs.
type TaskKind string

const (
	TaskSearchScanAll TaskKind = "search_scan_all"
	TaskExport        TaskKind = "export"
)

// TaskInfo is the externally visible snapshot of a Task (C8).
type TaskInfo struct {
	ID          string   `json:"id"`
	Kind        TaskKind `json:"kind"`
	StartedAtMs int64    `json:"started_at_ms"`
	Progress    int      `json:"progress_0_100"`
	Cancellable bool     `json:"cancellable"`
	Finished    bool     `json:"finished"`
	Error       string   `json:"error,omitempty"`
	Truncated   bool     `json:"truncated,omitempty"`
}

// SearchResult is the response to a `search` call (current_page or scan_all).
type SearchResult struct {
	Mode      SearchMode `json:"mode"`
	Hits      []Record   `json:"hits,omitempty"`
	Task      *TaskInfo  `json:"task,omitempty"`
	Truncated bool       `json:"truncated"`
}

// ExportFormat is the output encoding for an export (C9).
type ExportFormat string

const (
	ExportJSONL ExportFormat = "jsonl"
	ExportJSON  ExportFormat = "json"
	ExportCSV   ExportFormat = "csv"
)

// ExportRequestKind tags the ExportRequest variant.
type ExportRequestKind string

const (
	ExportSelection   ExportRequestKind = "selection"
	ExportSearchTask  ExportRequestKind = "search_task"
	ExportJSONSubtree ExportRequestKind = "json_subtree"
)

// ExportRequest is the tagged union of exportable selections.
type ExportRequest struct {
	Kind ExportRequestKind `json:"kind"`

	// selection
	RecordIDs []uint64 `json:"record_ids,omitempty"`

	// search_task
	TaskID string `json:"task_id,omitempty"`

	// json_subtree
	SubtreeMeta        *RecordMeta `json:"meta,omitempty"`
	SubtreePath        []string    `json:"path,omitempty"`
	SubtreeIncludeRoot bool        `json:"include_root,omitempty"`
	SubtreeChildren    []string    `json:"children,omitempty"`
}

// ExportResult is the response to an `export` call.
type ExportResult struct {
	OutputPath     string `json:"output_path"`
	RecordsWritten int    `json:"records_written"`
}

// JSONChildKind classifies a lazy-tree child value.
type JSONChildKind string

const (
	ChildObject  JSONChildKind = "object"
	ChildArray   JSONChildKind = "array"
	ChildString  JSONChildKind = "string"
	ChildNumber  JSONChildKind = "number"
	ChildBoolean JSONChildKind = "boolean"
	ChildNull    JSONChildKind = "null"
	ChildUnknown JSONChildKind = "unknown"
)

// JSONChildItemOffset is one entry in a lazy children listing.
type JSONChildItemOffset struct {
	Seg         string        `json:"seg"`
	Kind        JSONChildKind `json:"kind"`
	Preview     string        `json:"preview"`
	ValueOffset uint64        `json:"value_offset"`
}

// JSONChildrenPage is the result of list_children{,_at_offset}.
type JSONChildrenPage struct {
	Items            []JSONChildItemOffset `json:"items"`
	NextCursorOffset *uint64               `json:"next_cursor_offset,omitempty"`
	NextCursorIndex  *uint64               `json:"next_cursor_index,omitempty"`
	ReachedEnd       bool                  `json:"reached_end"`
}

// JSONNodeSummary is the result of node_summary{,_at_offset}.
type JSONNodeSummary struct {
	Kind       JSONChildKind `json:"kind"`
	ChildCount *int          `json:"child_count,omitempty"`
	Complete   bool          `json:"complete"`
}

// PathKind is the result of path_kind.
type PathKind string

const (
	PathFile    PathKind = "file"
	PathDir     PathKind = "dir"
	PathMissing PathKind = "missing"
	PathOther   PathKind = "other"
)

// FolderNode is one node of a scan_folder_tree result.
type FolderNode struct {
	Name      string       `json:"name"`
	Path      string       `json:"path"`
	IsDir     bool         `json:"is_dir"`
	Supported bool         `json:"supported,omitempty"`
	Children  []FolderNode `json:"children,omitempty"`
}

// FolderTree is the result of scan_folder_tree.
type FolderTree struct {
	Root       FolderNode `json:"root"`
	Truncated  bool       `json:"truncated"`
	TotalNodes int        `json:"total_nodes"`
}

// Session is an open-file handle owned by the engine. It carries a mutex so
// that concurrent next_page calls on the same session are linearised, per
// spec.md §5.
type Session struct {
	ID        string
	Path      string
	Format    FileFormat
	CreatedAt time.Time

	mu       sync.Mutex
	lastPage []Record // cached most recent page, for current_page search
	fileSize int64
}

func truncate(s string, charBudget int) (string, bool) {
	if charBudget <= 0 || len([]rune(s)) <= charBudget {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:charBudget]) + truncationEllipsis, true
}

// normalizeUTF8 replaces invalid UTF-8 byte sequences with the replacement
// character, per spec.md §4.3 ("the goal is browsing arbitrary dumps").
func normalizeUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
