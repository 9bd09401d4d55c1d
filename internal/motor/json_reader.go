package motor

import (
	"bufio"
	"io"
	"os"
	"time"
	"unicode/utf8"
)

// JSONShape is the top-level shape of a JSON document, detected once per
// open (C4).
type JSONShape int

const (
	shapeArray JSONShape = iota
	shapeObject
	shapeMultiValue
)

// ProgressStage is the short label surfaced to the UI during a progress
// callback (spec.md §4.4).
type ProgressStage string

const (
	StageScan   ProgressStage = "scan"
	StageLocate ProgressStage = "locate"
	StageRead   ProgressStage = "read"
)

// ProgressFunc is invoked periodically while reading/opening a JSON file.
// The reader itself throttles calls to at most limits.ProgressMaxHz per
// second (see progressEmitter); callers pass the callback through as is.
type ProgressFunc func(doneBytes, totalBytes int64, stage ProgressStage)

// detectJSONShape peeks the first non-BOM/whitespace/NUL byte of the file
// to classify its top-level shape, without reading the rest of the file.
func detectJSONShape(r *bufio.Reader) (JSONShape, error) {
	if err := skipBOMWhitespaceNUL(r); err != nil {
		return shapeMultiValue, err
	}
	b, err := r.Peek(1)
	if err != nil {
		return shapeMultiValue, NewError(KindIoError, "peek json head", err)
	}
	switch b[0] {
	case '[':
		return shapeArray, nil
	case '{':
		return shapeObject, nil
	default:
		return shapeMultiValue, nil
	}
}

func skipBOMWhitespaceNUL(r *bufio.Reader) error {
	// UTF-8 BOM: EF BB BF
	head, err := r.Peek(3)
	if err == nil && len(head) == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	for {
		b, err := r.Peek(1)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		switch b[0] {
		case ' ', '\t', '\n', '\r', 0x00:
			_, _ = r.Discard(1)
		default:
			return nil
		}
	}
}

// progressEmitter throttles ProgressFunc invocations to at most maxHz per
// second, per spec.md §4.4 ("the engine decimates if the reader emits more").
type progressEmitter struct {
	cb      ProgressFunc
	minGap  time.Duration
	last    time.Time
	total   int64
}

func newProgressEmitter(cb ProgressFunc, total int64, maxHz int) *progressEmitter {
	if cb == nil {
		return nil
	}
	if maxHz <= 0 {
		maxHz = 50
	}
	return &progressEmitter{cb: cb, minGap: time.Second / time.Duration(maxHz), total: total}
}

func (p *progressEmitter) emit(done int64, stage ProgressStage, force bool) {
	if p == nil {
		return
	}
	now := time.Now()
	if !force && now.Sub(p.last) < p.minGap {
		return
	}
	p.last = now
	p.cb(done, p.total, stage)
}

// ReadJSONPage reads up to pageSize records from a root-array, root-object,
// or multi-value-stream JSON document (C4).
func ReadJSONPage(path string, limits Limits, offset, startLine uint64, pageSize int) (RecordPage, error) {
	return readJSONPageWithProgress(path, limits, offset, startLine, pageSize, nil)
}

// ReadJSONPageWithProgress is the progress-capable variant the engine
// always uses internally for JSON (spec.md §4.10).
func ReadJSONPageWithProgress(path string, limits Limits, offset, startLine uint64, pageSize int, cb ProgressFunc) (RecordPage, error) {
	return readJSONPageWithProgress(path, limits, offset, startLine, pageSize, cb)
}

func readJSONPageWithProgress(path string, limits Limits, offset, startLine uint64, pageSize int, cb ProgressFunc) (RecordPage, error) {
	f, err := os.Open(path)
	if err != nil {
		return RecordPage{}, NewError(KindIoError, "open source file", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return RecordPage{}, NewError(KindIoError, "stat source file", err)
	}
	total := info.Size()
	emitter := newProgressEmitter(cb, total, limits.ProgressMaxHz)
	emitter.emit(0, StageLocate, true)

	br := bufio.NewReaderSize(f, 64*1024)
	shape, err := detectJSONShape(br)
	if err != nil {
		return RecordPage{}, err
	}

	cur := int64(0)
	if offset > 0 {
		if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
			return RecordPage{}, NewError(KindIoError, "seek to cursor offset", err)
		}
		cur = int64(offset)
		br.Reset(f)
	} else if shape == shapeArray {
		// consume leading whitespace/BOM/NUL and the opening '['
		if err := skipBOMWhitespaceNUL(br); err != nil {
			return RecordPage{}, NewError(KindIoError, "skip json head", err)
		}
		if _, err := br.ReadByte(); err != nil { // '['
			return RecordPage{}, NewError(KindIoError, "read opening bracket", err)
		}
		cur = consumedOffset(f, br)
	} else {
		if err := skipBOMWhitespaceNUL(br); err != nil {
			return RecordPage{}, NewError(KindIoError, "skip json head", err)
		}
		cur = consumedOffset(f, br)
	}

	page := RecordPage{Records: make([]Record, 0, pageSize)}
	lineNo := startLine

	if shape == shapeObject && offset > 0 {
		// only a multi-value stream hands out a cursor past its first value
		shape = shapeMultiValue
	}
	if shape == shapeObject {
		if startLine > 0 {
			// the single root object was already emitted on a prior page
			page.ReachedEOF = true
			return page, nil
		}
		start := cur
		val, end, decErr := decodeOneValue(br, start, limits.RawCharBudget*utf8.UTFMax)
		if decErr != nil {
			return RecordPage{}, NewError(KindIoError, "decode root object", decErr)
		}
		text := normalizeUTF8(val)
		preview, _ := truncate(text, limits.PreviewCharBudget)
		raw, _ := truncate(text, limits.RawCharBudget)
		page.Records = append(page.Records, Record{
			ID:      0,
			Preview: preview,
			Raw:     raw,
			Meta: &RecordMeta{
				LineNo:     0,
				ByteOffset: uint64(start),
				ByteLen:    uint64(end - start),
			},
		})
		lineNo++
		// another top-level value after the first object makes this a
		// multi-value stream; trailing whitespace or NUL padding does not
		if err := skipWhitespace(br); err == nil {
			if b, err := br.Peek(1); err == nil && b[0] != 0x00 {
				shape = shapeMultiValue
			}
		}
		if shape == shapeObject {
			page.ReachedEOF = true
			emitter.emit(total, StageRead, true)
			return page, nil
		}
	}

	// shapeArray or shapeMultiValue: loop emitting up to pageSize items.
	for len(page.Records) < pageSize {
		if err := skipWhitespace(br); err != nil {
			return RecordPage{}, NewError(KindIoError, "skip whitespace", err)
		}
		cur = consumedOffset(f, br)

		b, peekErr := br.Peek(1)
		if peekErr != nil {
			page.ReachedEOF = true
			break
		}
		if shape == shapeArray && b[0] == ']' {
			_, _ = br.Discard(1)
			page.ReachedEOF = true
			break
		}

		start := cur
		val, end, decErr := decodeOneValue(br, start, limits.RawCharBudget*utf8.UTFMax)
		if decErr != nil {
			// truncated/unterminated trailing value: stop here, per spec.md §4.4 edge policy
			page.ReachedEOF = true
			break
		}

		text := normalizeUTF8(val)
		preview, _ := truncate(text, limits.PreviewCharBudget)
		raw, _ := truncate(text, limits.RawCharBudget)
		page.Records = append(page.Records, Record{
			ID:      lineNo,
			Preview: preview,
			Raw:     raw,
			Meta: &RecordMeta{
				LineNo:     lineNo,
				ByteOffset: uint64(start),
				ByteLen:    uint64(end - start),
			},
		})
		lineNo++
		cur = end
		emitter.emit(cur, StageRead, false)

		if shape == shapeArray {
			if err := skipWhitespace(br); err != nil {
				page.ReachedEOF = true
				break
			}
			b, peekErr := br.Peek(1)
			if peekErr != nil {
				page.ReachedEOF = true
				break
			}
			if b[0] == ',' {
				_, _ = br.Discard(1)
				continue
			}
			if b[0] == ']' {
				_, _ = br.Discard(1)
				page.ReachedEOF = true
				break
			}
			// malformed separator: stop rather than raising (recover locally)
			page.ReachedEOF = true
			break
		}
		// multi-value: loop condition re-checks EOF via Peek at top
	}

	if !page.ReachedEOF {
		nextOffset := consumedOffset(f, br)
		cursor := EncodeCursor(path, total, uint64(nextOffset), lineNo)
		page.NextCursor = &cursor
	}
	emitter.emit(total, StageRead, true)

	return page, nil
}

// skipWhitespace discards ASCII whitespace from br without touching f's
// seek position beyond what br has already buffered.
func skipWhitespace(br *bufio.Reader) error {
	for {
		b, err := br.Peek(1)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		switch b[0] {
		case ' ', '\t', '\n', '\r':
			_, _ = br.Discard(1)
		default:
			return nil
		}
	}
}

// consumedOffset returns the absolute file offset of br's current read
// position: the file's seek position minus whatever br still has buffered.
func consumedOffset(f *os.File, br *bufio.Reader) int64 {
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0
	}
	return pos - int64(br.Buffered())
}

// decodeOneValue consumes exactly one JSON value from br (positioned at
// file offset start), returning the value's absolute end offset and a
// prefix of its bytes capped at capBytes. Unlike a json.Decoder, which must
// buffer a value in full to hand back a json.RawMessage, this walks the
// value byte-by-byte and stops capturing once capBytes is reached while
// still counting the full on-disk span — a single multi-megabyte array
// element never gets materialised in memory (spec.md §4.4, §9).
func decodeOneValue(br *bufio.Reader, start int64, capBytes int) ([]byte, int64, error) {
	n, captured, err := scanJSONValue(br, capBytes)
	if err != nil {
		return nil, 0, err
	}
	return captured, start + n, nil
}

// scanJSONValue reads exactly one JSON value (object, array, string, number,
// or literal) from br, tracking brace/bracket depth and string-escape state
// so nested delimiters and quoted delimiter characters are not mistaken for
// the value's end. It returns the number of bytes consumed and a prefix of
// those bytes truncated at capBytes.
func scanJSONValue(br *bufio.Reader, capBytes int) (int64, []byte, error) {
	captured := make([]byte, 0, min(capBytes, 256))
	var total int64

	readByte := func() (byte, error) {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		total++
		if len(captured) < capBytes {
			captured = append(captured, b)
		}
		return b, nil
	}

	first, err := readByte()
	if err != nil {
		return 0, nil, err
	}

	switch first {
	case '{', '[':
		depth := 1
		inString := false
		escaped := false
		for depth > 0 {
			c, err := readByte()
			if err != nil {
				return 0, nil, err
			}
			switch {
			case inString && escaped:
				escaped = false
			case inString && c == '\\':
				escaped = true
			case inString && c == '"':
				inString = false
			case !inString && c == '"':
				inString = true
			case !inString && (c == '{' || c == '['):
				depth++
			case !inString && (c == '}' || c == ']'):
				depth--
			}
		}
	case '"':
		escaped := false
		for {
			c, err := readByte()
			if err != nil {
				return 0, nil, err
			}
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				break
			}
		}
	default:
		// number/true/false/null: read until a structural delimiter or
		// whitespace, which is left unconsumed for the caller to inspect.
	literalLoop:
		for {
			peek, err := br.Peek(1)
			if err != nil {
				break literalLoop
			}
			switch peek[0] {
			case ',', ']', '}', ' ', '\t', '\n', '\r':
				break literalLoop
			}
			if _, err := readByte(); err != nil {
				return 0, nil, err
			}
		}
	}

	return total, captured, nil
}
