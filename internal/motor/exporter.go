package motor

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"
)

// exporter.go implements C9: selection/search_task export to jsonl/json/csv,
// and streaming json_subtree export. Every variant reopens the source file
// for its own pass rather than sharing a session's cursor state, matching
// spec.md §4.9 ("the source file is reopened for streaming").

// Export runs one export request against outputPath, removing any partial
// file it created if it returns an error.
func Export(req ExportRequest, sourcePath string, sourceFormat FileFormat, outFormat ExportFormat, outputPath string, limits Limits, task *Task) (ExportResult, error) {
	if req.Kind == ExportJSONSubtree && outFormat == ExportCSV {
		return ExportResult{}, Errorf(KindUnsupportedCombination, "json_subtree cannot be exported as csv")
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return ExportResult{}, NewError(KindIoError, "create output file", err)
	}

	count, err := runExport(req, sourcePath, sourceFormat, outFormat, out, limits, task)
	closeErr := out.Close()
	if err != nil {
		os.Remove(outputPath)
		if _, ok := err.(*Error); !ok {
			err = NewError(KindIoError, "write output file", err)
		}
		return ExportResult{}, err
	}
	if closeErr != nil {
		os.Remove(outputPath)
		return ExportResult{}, NewError(KindIoError, "flush output file", closeErr)
	}

	return ExportResult{OutputPath: outputPath, RecordsWritten: count}, nil
}

func runExport(req ExportRequest, sourcePath string, sourceFormat FileFormat, outFormat ExportFormat, out *os.File, limits Limits, task *Task) (int, error) {
	switch req.Kind {
	case ExportJSONSubtree:
		w := bufio.NewWriter(out)
		n, err := exportJSONSubtree(req, sourcePath, outFormat, w, limits)
		if err != nil {
			return n, err
		}
		return n, w.Flush()

	case ExportSelection:
		records, cols, err := collectSelection(sourcePath, sourceFormat, req.RecordIDs, limits)
		if err != nil {
			return 0, err
		}
		if sourceFormat == FormatCSV && outFormat == ExportCSV {
			records, err = withCSVHeaderFirst(sourcePath, req.RecordIDs, records, limits)
			if err != nil {
				return 0, err
			}
		}
		return writeRenderedRecords(out, outFormat, sourceFormat, records, cols)

	case ExportSearchTask:
		if task == nil {
			return 0, Errorf(KindUnknownTask, "no such task %q", req.TaskID)
		}
		records := task.Hits()
		return writeRenderedRecords(out, outFormat, sourceFormat, records, nil)

	default:
		return 0, Errorf(KindUnknown, "unknown export request kind %q", req.Kind)
	}
}

// collectSelection streams sourcePath once via its format-native reader,
// returning the records whose ID is in ids in ascending-ID order, and (for
// parquet sources) the column names needed to render each row as an
// object.
func collectSelection(path string, format FileFormat, ids []uint64, limits Limits) ([]Record, []string, error) {
	wanted := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	remaining := len(wanted)

	total := fileSizeOfPath(path)

	var out []Record
	switch format {
	case FormatJSONL, FormatCSV:
		var offset, line uint64
		for remaining > 0 {
			page, err := ReadLinePage(path, limits, offset, line, 2000)
			if err != nil {
				return nil, nil, err
			}
			for _, r := range page.Records {
				if wanted[r.ID] {
					out = append(out, withFullRaw(path, r, limits))
					remaining--
				}
			}
			if page.ReachedEOF {
				break
			}
			var err2 error
			offset, line, err2 = DecodeCursor(path, total, page.NextCursor)
			if err2 != nil {
				return nil, nil, err2
			}
		}
		return out, nil, nil

	case FormatJSON:
		var offset, line uint64
		for remaining > 0 {
			page, err := ReadJSONPage(path, limits, offset, line, 2000)
			if err != nil {
				return nil, nil, err
			}
			for _, r := range page.Records {
				if wanted[r.ID] {
					out = append(out, withFullRaw(path, r, limits))
					remaining--
				}
			}
			if page.ReachedEOF {
				break
			}
			var err2 error
			offset, line, err2 = DecodeCursor(path, total, page.NextCursor)
			if err2 != nil {
				return nil, nil, err2
			}
		}
		return out, nil, nil

	case FormatParquet:
		cols, err := parquetColumnNames(path)
		if err != nil {
			return nil, nil, err
		}
		var rowOffset uint64
		for remaining > 0 {
			page, err := ReadParquetPage(path, rowOffset, 2000)
			if err != nil {
				return nil, nil, err
			}
			for _, r := range page.Records {
				if wanted[r.ID] {
					out = append(out, r)
					remaining--
				}
			}
			rowOffset += uint64(len(page.Records))
			if page.ReachedEOF {
				break
			}
		}
		return out, cols, nil

	default:
		return nil, nil, Errorf(KindUnsupportedFormat, "cannot export selection from format %v", format)
	}
}

// withFullRaw re-fetches the exact on-disk bytes for a record via its meta
// span, so export never emits a preview/raw text silently truncated by
// the paging budgets.
func withFullRaw(path string, r Record, limits Limits) Record {
	if r.Meta == nil {
		return r
	}
	text, err := ReadRawAt(path, r.Meta.ByteOffset, r.Meta.ByteLen, limits.RecordRawCeiling)
	if err != nil {
		return r
	}
	r.Raw = text
	return r
}

// withCSVHeaderFirst ensures the CSV header row (record ID 0) leads the
// output even when it wasn't part of the requested selection, per
// spec.md §4.9 ("the header is always emitted first if the target is
// csv").
func withCSVHeaderFirst(path string, ids []uint64, records []Record, limits Limits) ([]Record, error) {
	for _, id := range ids {
		if id == 0 {
			return records, nil
		}
	}
	header, err := ReadLinePage(path, limits, 0, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(header.Records) == 0 {
		return records, nil
	}
	return append([]Record{withFullRaw(path, header.Records[0], limits)}, records...), nil
}

func fileSizeOfPath(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// writeRenderedRecords renders records (already exact-raw for jsonl/json
// sources, tab-joined for parquet) to outFormat.
func writeRenderedRecords(out *os.File, outFormat ExportFormat, sourceFormat FileFormat, records []Record, parquetCols []string) (int, error) {
	w := bufio.NewWriter(out)
	defer w.Flush()

	switch outFormat {
	case ExportJSONL:
		for _, r := range records {
			if err := writeJSONLRecord(w, sourceFormat, r, parquetCols); err != nil {
				return 0, err
			}
		}
		return len(records), w.Flush()

	case ExportJSON:
		if _, err := w.WriteString("["); err != nil {
			return 0, err
		}
		for i, r := range records {
			if i > 0 {
				if _, err := w.WriteString(","); err != nil {
					return 0, err
				}
			}
			if err := writeJSONValue(w, sourceFormat, r, parquetCols); err != nil {
				return 0, err
			}
		}
		if _, err := w.WriteString("]"); err != nil {
			return 0, err
		}
		return len(records), w.Flush()

	case ExportCSV:
		cw := csv.NewWriter(w)
		if sourceFormat == FormatParquet && parquetCols != nil {
			if err := cw.Write(parquetCols); err != nil {
				return 0, err
			}
		}
		n := 0
		for i, r := range records {
			if sourceFormat == FormatCSV {
				// the first CSV record encountered is the header row; copy
				// every selected row's raw text verbatim as a single field
				// would double-quote already-comma-separated text, so split
				// it back into fields for a faithful round trip.
				if err := cw.Write(splitCSVLine(r.Raw)); err != nil {
					return 0, err
				}
			} else if sourceFormat == FormatParquet {
				if err := cw.Write(splitTabFields(r.Raw)); err != nil {
					return 0, err
				}
			} else {
				if err := cw.Write([]string{r.Raw}); err != nil {
					return 0, err
				}
			}
			n = i + 1
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return 0, err
		}
		return n, w.Flush()

	default:
		return 0, Errorf(KindUnknown, "unknown export format %q", outFormat)
	}
}

func writeJSONLRecord(w *bufio.Writer, sourceFormat FileFormat, r Record, parquetCols []string) error {
	if err := writeJSONValue(w, sourceFormat, r, parquetCols); err != nil {
		return err
	}
	_, err := w.WriteString("\n")
	return err
}

// writeJSONValue writes one record as a single JSON value: the record's
// raw bytes verbatim for jsonl/json sources (already valid JSON), or an
// object keyed by column name for parquet sources.
func writeJSONValue(w *bufio.Writer, sourceFormat FileFormat, r Record, parquetCols []string) error {
	switch sourceFormat {
	case FormatParquet:
		fields := splitTabFields(r.Raw)
		obj := make(map[string]string, len(fields))
		for i, f := range fields {
			name := "col" + strconv.Itoa(i)
			if parquetCols != nil && i < len(parquetCols) {
				name = parquetCols[i]
			}
			obj[name] = f
		}
		data, err := json.Marshal(obj)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err

	case FormatCSV:
		data, err := json.Marshal(r.Raw)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err

	default: // jsonl, json: raw bytes are already a valid JSON value
		_, err := w.WriteString(r.Raw)
		return err
	}
}

func splitTabFields(s string) []string {
	var fields []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\t' {
			fields = append(fields, s[start:i])
			start = i + 1
		}
	}
	fields = append(fields, s[start:])
	return fields
}

func splitCSVLine(line string) []string {
	r := csv.NewReader(newOneLineReader(line))
	fields, err := r.Read()
	if err != nil {
		return []string{line}
	}
	return fields
}

type oneLineReader struct {
	s   string
	pos int
}

func newOneLineReader(s string) *oneLineReader { return &oneLineReader{s: s} }

func (r *oneLineReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.s) {
		return 0, io.EOF
	}
	n := copy(p, r.s[r.pos:])
	r.pos += n
	return n, nil
}

// exportJSONSubtree streams one or more child values located inside a JSON
// record, seeking and copying only the bytes of each emitted span — never
// materialising a whole sub-value in memory (spec.md §4.9, §8's streaming
// bound).
func exportJSONSubtree(req ExportRequest, sourcePath string, outFormat ExportFormat, w *bufio.Writer, limits Limits) (int, error) {
	if req.SubtreeMeta == nil {
		return 0, Errorf(KindInvalidCursor, "json_subtree export requires meta")
	}
	rootOffset := int64(req.SubtreeMeta.ByteOffset)

	nodeOffset, err := locateByPath(sourcePath, rootOffset, req.SubtreePath, limits)
	if err != nil {
		return 0, err
	}

	type span struct{ start, end int64 }
	var spans []span

	if req.SubtreeIncludeRoot {
		start, end, err := valueSpanAt(sourcePath, nodeOffset)
		if err != nil {
			return 0, err
		}
		spans = append(spans, span{start, end})
	} else {
		for _, seg := range req.SubtreeChildren {
			start, end, err := locateChildSpan(sourcePath, nodeOffset, seg)
			if err != nil {
				return 0, err
			}
			spans = append(spans, span{start, end})
		}
	}

	if outFormat == ExportJSON {
		if _, err := w.WriteString("["); err != nil {
			return 0, err
		}
	}
	for i, sp := range spans {
		if outFormat == ExportJSON && i > 0 {
			if _, err := w.WriteString(","); err != nil {
				return 0, err
			}
		}
		if err := streamCopySpan(sourcePath, sp.start, sp.end, w, limits); err != nil {
			return i, err
		}
		if outFormat == ExportJSONL {
			if _, err := w.WriteString("\n"); err != nil {
				return i, err
			}
		}
	}
	if outFormat == ExportJSON {
		if _, err := w.WriteString("]"); err != nil {
			return len(spans), err
		}
	}
	return len(spans), nil
}

// valueSpanAt returns [offset, end) of the JSON value whose first byte is
// at offset.
func valueSpanAt(path string, offset int64) (int64, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, NewError(KindIoError, "open source file", err)
	}
	defer f.Close()
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, 0, NewError(KindIoError, "seek to node offset", err)
	}
	br := bufio.NewReaderSize(f, 64*1024)
	end, err := skipJSONValue(f, br)
	if err != nil {
		return 0, 0, NewError(KindIoError, "scan value span", err)
	}
	return offset, end, nil
}

// locateChildSpan walks the single container at nodeOffset looking for
// the child named seg (an object key, or a decimal array index) and
// returns its [start, end) byte span.
func locateChildSpan(path string, nodeOffset int64, seg string) (int64, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, NewError(KindIoError, "open source file", err)
	}
	defer f.Close()
	if _, err := f.Seek(nodeOffset, io.SeekStart); err != nil {
		return 0, 0, NewError(KindIoError, "seek to node offset", err)
	}
	br := bufio.NewReaderSize(f, 64*1024)

	containerKind, err := peekValueKind(br)
	if err != nil {
		return 0, 0, NewError(KindIoError, "peek node kind", err)
	}
	if containerKind != ChildObject && containerKind != ChildArray {
		return 0, 0, Errorf(KindNotApplicable, "node is not a container")
	}
	closeByte := byte('}')
	if containerKind == ChildArray {
		closeByte = ']'
	}
	if _, err := br.Discard(1); err != nil {
		return 0, 0, NewError(KindIoError, "discard opening brace", err)
	}
	if err := skipWhitespace(br); err != nil {
		return 0, 0, err
	}

	idx := 0
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, 0, NewError(KindIoError, "peek next child", err)
		}
		if b[0] == closeByte {
			return 0, 0, Errorf(KindInvalidCursor, "child %q not found", seg)
		}

		var curSeg string
		if containerKind == ChildObject {
			keyRaw, err := skipJSONString(f, br)
			if err != nil {
				return 0, 0, NewError(KindIoError, "read child key", err)
			}
			curSeg = unquoteJSONString(keyRaw)
			if err := skipWhitespace(br); err != nil {
				return 0, 0, err
			}
			if _, err := br.Discard(1); err != nil { // ':'
				return 0, 0, err
			}
			if err := skipWhitespace(br); err != nil {
				return 0, 0, err
			}
		} else {
			curSeg = strconv.Itoa(idx)
		}

		valStart := consumedOffset(f, br)
		valEnd, err := skipJSONValue(f, br)
		if err != nil {
			return 0, 0, NewError(KindIoError, "skip child value", err)
		}
		if curSeg == seg {
			return valStart, valEnd, nil
		}
		idx++

		if err := skipWhitespace(br); err != nil {
			return 0, 0, err
		}
		b, err = br.Peek(1)
		if err != nil {
			return 0, 0, NewError(KindIoError, "peek separator", err)
		}
		if b[0] == ',' {
			_, _ = br.Discard(1)
			if err := skipWhitespace(br); err != nil {
				return 0, 0, err
			}
			continue
		}
		return 0, 0, Errorf(KindInvalidCursor, "child %q not found", seg)
	}
}

// streamCopySpan copies [start, end) of path directly to w, bounding peak
// memory to the copy buffer regardless of the span's size. The span itself
// is still capped at limits.RecordRawCeiling: get_record_raw and stream
// copy share the same RecordTooLarge ceiling (spec.md §7).
func streamCopySpan(path string, start, end int64, w io.Writer, limits Limits) error {
	if size := end - start; size > limits.RecordRawCeiling {
		return Errorf(KindRecordTooLarge, "span of %d bytes exceeds raw ceiling of %d bytes", size, limits.RecordRawCeiling)
	}
	f, err := os.Open(path)
	if err != nil {
		return NewError(KindIoError, "open source file", err)
	}
	defer f.Close()
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return NewError(KindIoError, "seek to span start", err)
	}
	if _, err := io.CopyN(w, f, end-start); err != nil {
		return NewError(KindIoError, "stream span", err)
	}
	return nil
}
