package motor

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// ReadLinePage reads up to pageSize records from a JSONL or CSV file
// starting at cursor (byte_offset, line), normalising CRLF to LF and
// replacing invalid UTF-8 along the way (C3). The CSV header row is a
// record like any other — callers that want header-aware behavior (the
// exporter) read it back out explicitly.
func ReadLinePage(path string, limits Limits, offset, startLine uint64, pageSize int) (RecordPage, error) {
	f, err := os.Open(path)
	if err != nil {
		return RecordPage{}, NewError(KindIoError, "open source file", err)
	}
	defer f.Close()

	if offset > 0 {
		if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
			return RecordPage{}, NewError(KindIoError, "seek to cursor offset", err)
		}
	}

	br := bufio.NewReaderSize(f, 64*1024)

	page := RecordPage{Records: make([]Record, 0, pageSize)}
	curOffset := offset
	lineNo := startLine

	for len(page.Records) < pageSize {
		raw, readErr := br.ReadBytes('\n')
		if len(raw) == 0 && readErr != nil {
			// clean EOF, nothing pending
			page.ReachedEOF = true
			break
		}

		byteLen := uint64(len(raw))
		recStart := curOffset
		curOffset += byteLen

		body := raw
		hadNewline := len(body) > 0 && body[len(body)-1] == '\n'
		if hadNewline {
			body = body[:len(body)-1]
		}
		if len(body) > 0 && body[len(body)-1] == '\r' {
			body = body[:len(body)-1]
		}

		text := normalizeUTF8(body)

		if len(text) == 0 {
			// empty trailing (or interior) line: not a record, per spec.md §4.3.
			if readErr != nil {
				page.ReachedEOF = true
				break
			}
			continue
		}

		preview, _ := truncate(text, limits.PreviewCharBudget)
		raw2, _ := truncate(text, limits.RawCharBudget)

		page.Records = append(page.Records, Record{
			ID:      lineNo,
			Preview: preview,
			Raw:     raw2,
			Meta: &RecordMeta{
				LineNo:     lineNo,
				ByteOffset: recStart,
				ByteLen:    byteLen,
			},
		})

		lineNo++

		if readErr != nil {
			page.ReachedEOF = true
			break
		}
	}

	if !page.ReachedEOF {
		cursor := EncodeCursor(path, fileSizeOf(f), curOffset, lineNo)
		page.NextCursor = &cursor
	}

	return page, nil
}

func fileSizeOf(f *os.File) int64 {
	info, err := f.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

// ReadRawAt reads [offset, offset+length) from path, replacing invalid UTF-8
// and trimming trailing CR/LF bytes (the record terminator); interior bytes
// are returned as they are. It enforces the given safety ceiling
// (get_record_raw's 50 MiB by default).
func ReadRawAt(path string, offset, length uint64, ceiling int64) (string, error) {
	if int64(length) > ceiling {
		return "", Errorf(KindRecordTooLarge, "record length %d exceeds ceiling %d", length, ceiling)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", NewError(KindIoError, "open source file", err)
	}
	defer f.Close()

	if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
		return "", NewError(KindIoError, "seek to record offset", err)
	}

	buf := make([]byte, length)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", NewError(KindIoError, "read record bytes", err)
	}

	text := strings.TrimRight(normalizeUTF8(buf[:n]), "\r\n")
	return text, nil
}
