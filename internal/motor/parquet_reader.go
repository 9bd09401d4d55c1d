package motor

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// ReadParquetPage executes `SELECT * FROM read_parquet(?) LIMIT ? OFFSET ?`
// against an embedded DuckDB connection and renders each row as a
// tab-joined preview/raw string (C5). Cursor.offset is unused for parquet
// (always persisted as 0); Cursor.line is the row offset used as OFFSET.
//
// A fresh connection is opened per page; DuckDB's embedded engine makes
// this cheap, and it keeps the reader free of any connection-lifecycle
// state the engine would otherwise have to own per session.
func ReadParquetPage(path string, rowOffset uint64, pageSize int) (RecordPage, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return RecordPage{}, NewError(KindIoError, "open embedded analytical engine", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT * FROM read_parquet(?) LIMIT ? OFFSET ?`, path, pageSize, rowOffset)
	if err != nil {
		return RecordPage{}, NewError(KindIoError, "query parquet page", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return RecordPage{}, NewError(KindIoError, "read parquet columns", err)
	}

	page := RecordPage{Records: make([]Record, 0, pageSize)}
	line := rowOffset
	n := 0
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return RecordPage{}, NewError(KindIoError, "scan parquet row", err)
		}

		fields := make([]string, len(cols))
		for i, v := range vals {
			fields[i] = renderParquetValue(v)
		}
		text := strings.Join(fields, "\t")

		page.Records = append(page.Records, Record{
			ID:      line,
			Preview: text,
			Raw:     text,
		})
		line++
		n++
	}
	if err := rows.Err(); err != nil {
		return RecordPage{}, NewError(KindIoError, "iterate parquet rows", err)
	}

	page.ReachedEOF = n < pageSize
	if !page.ReachedEOF {
		cursor := EncodeCursor(path, 0, 0, line)
		page.NextCursor = &cursor
	}

	return page, nil
}

// CountParquetRows returns the total row count of a parquet file, used as
// the denominator for scan_all progress (C7).
func CountParquetRows(path string) (int64, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return 0, NewError(KindIoError, "open embedded analytical engine", err)
	}
	defer db.Close()

	var count int64
	row := db.QueryRow(`SELECT COUNT(*) FROM read_parquet(?)`, path)
	if err := row.Scan(&count); err != nil {
		return 0, NewError(KindIoError, "count parquet rows", err)
	}
	return count, nil
}

// parquetColumnNames returns the column names of a parquet file, used by
// the exporter to render rows as column-keyed JSON objects or a CSV
// header.
func parquetColumnNames(path string) ([]string, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, NewError(KindIoError, "open embedded analytical engine", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT * FROM read_parquet(?) LIMIT 0`, path)
	if err != nil {
		return nil, NewError(KindIoError, "describe parquet columns", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, NewError(KindIoError, "read parquet columns", err)
	}
	return cols, nil
}

func renderParquetValue(v interface{}) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case []byte:
		return normalizeUTF8(t)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
