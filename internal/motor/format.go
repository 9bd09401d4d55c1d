package motor

import (
	"path/filepath"
	"strings"
)

// DetectFormat maps a file path to a FileFormat by extension alone (C2). It
// never touches the filesystem — open_file is responsible for rejecting
// FormatUnknown with UnsupportedFormat.
func DetectFormat(path string) FileFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return FormatJSONL
	case ".csv":
		return FormatCSV
	case ".json":
		return FormatJSON
	case ".parquet":
		return FormatParquet
	default:
		return FormatUnknown
	}
}
