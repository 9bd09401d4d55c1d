package motor

import (
	"bufio"
	"io"
	"os"
	"strconv"
)

// json_tree.go implements the JSON lazy tree (C6): listing and summarizing
// the children of one already-located object/array value without ever
// materializing the whole subtree in memory. It is restricted to
// FormatJSON sessions by the engine layer; callers here only need a byte
// offset into the file and never re-read the whole document.
//
// Both the offset-addressable and legacy path-based entry points bottom
// out in scanNodeChildren, grounded on the same seek-and-walk approach as
// the teacher's StdlibTokenParser, generalized from single-pass navigation
// to arbitrary resumable cursors.

// ListChildrenAtOffset lists up to limit children of the object or array
// value located at nodeOffset, resuming from (cursorOffset, cursorIndex)
// when given.
func ListChildrenAtOffset(path string, nodeOffset uint64, cursorOffset, cursorIndex *uint64, limit int, limits Limits) (JSONChildrenPage, error) {
	return scanNodeChildren(path, int64(nodeOffset), cursorOffset, cursorIndex, limit, limits, true)
}

// NodeSummaryAtOffset reports the kind, and (budget permitting) exact child
// count, of the value located at nodeOffset.
func NodeSummaryAtOffset(path string, nodeOffset uint64, limits Limits) (JSONNodeSummary, error) {
	page, err := scanNodeChildren(path, int64(nodeOffset), nil, nil, limits.JSONTreeMaxItems+1, limits, false)
	if err != nil {
		return JSONNodeSummary{}, err
	}
	return summaryFromScan(page), nil
}

// ListChildren is the legacy path-based variant: it re-locates the node by
// walking segments from the record root on every call, then delegates to
// the offset-based scan. Slower (it repeats the root walk each call) but
// contract-identical.
func ListChildren(path string, rootOffset uint64, segments []string, cursorOffset, cursorIndex *uint64, limit int, limits Limits) (JSONChildrenPage, error) {
	nodeOffset, err := locateByPath(path, int64(rootOffset), segments, limits)
	if err != nil {
		return JSONChildrenPage{}, err
	}
	return ListChildrenAtOffset(path, uint64(nodeOffset), cursorOffset, cursorIndex, limit, limits)
}

// NodeSummary is the legacy path-based variant of NodeSummaryAtOffset.
func NodeSummary(path string, rootOffset uint64, segments []string, limits Limits) (JSONNodeSummary, error) {
	nodeOffset, err := locateByPath(path, int64(rootOffset), segments, limits)
	if err != nil {
		return JSONNodeSummary{}, err
	}
	return NodeSummaryAtOffset(path, uint64(nodeOffset), limits)
}

// scanResult carries both the listing result and the bookkeeping needed to
// derive a summary from the same walk, so list and summary share one
// implementation.
type scanResult struct {
	kind       JSONChildKind
	items      []JSONChildItemOffset
	nextOffset *int64
	nextIndex  *uint64
	reachedEnd bool
	childCount int
	complete   bool
}

func summaryFromScan(s scanResult) JSONNodeSummary {
	if s.kind != ChildObject && s.kind != ChildArray {
		return JSONNodeSummary{Kind: s.kind, Complete: true}
	}
	if !s.complete {
		return JSONNodeSummary{Kind: s.kind, Complete: false}
	}
	count := s.childCount
	return JSONNodeSummary{Kind: s.kind, ChildCount: &count, Complete: true}
}

// scanNodeChildren walks the children of the container at nodeOffset,
// either collecting up to `limit` of them (collectItems=true, used by
// ListChildren{,AtOffset}) or counting them up to the max-items/max-bytes
// budget (collectItems=false, used by NodeSummary{,AtOffset}).
func scanNodeChildren(path string, nodeOffset int64, cursorOffset, cursorIndex *uint64, limit int, limits Limits, collectItems bool) (JSONChildrenPage, error) {
	f, err := os.Open(path)
	if err != nil {
		return JSONChildrenPage{}, NewError(KindIoError, "open source file", err)
	}
	defer f.Close()

	// A second handle for bounded preview reads, kept independent of the
	// structural walk so neither seek position disturbs the other.
	pf, err := os.Open(path)
	if err != nil {
		return JSONChildrenPage{}, NewError(KindIoError, "open source file for preview", err)
	}
	defer pf.Close()

	if _, err := f.Seek(nodeOffset, io.SeekStart); err != nil {
		return JSONChildrenPage{}, NewError(KindIoError, "seek to node offset", err)
	}
	br := bufio.NewReaderSize(f, 64*1024)

	containerKind, err := peekValueKind(br)
	if err != nil {
		return JSONChildrenPage{}, NewError(KindIoError, "peek node kind", err)
	}
	if containerKind != ChildObject && containerKind != ChildArray {
		return wrapScan(scanResult{kind: containerKind, reachedEnd: true, complete: true}), nil
	}

	idx := uint64(0)
	maxItems := limits.JSONTreeMaxItems
	maxScanBytes := limits.JSONTreeMaxScanByte
	var scannedBytes int64

	if cursorOffset != nil {
		if _, err := f.Seek(int64(*cursorOffset), io.SeekStart); err != nil {
			return JSONChildrenPage{}, NewError(KindIoError, "seek to resume offset", err)
		}
		br.Reset(f)
		if cursorIndex != nil {
			idx = *cursorIndex
		}
	} else {
		if _, err := br.Discard(1); err != nil { // opening '{' or '['
			return JSONChildrenPage{}, NewError(KindIoError, "discard opening brace", err)
		}
		if err := skipWhitespace(br); err != nil {
			return JSONChildrenPage{}, NewError(KindIoError, "skip whitespace", err)
		}
	}

	var items []JSONChildItemOffset
	if collectItems {
		items = make([]JSONChildItemOffset, 0, limit)
	}

	closeByte := byte('}')
	if containerKind == ChildArray {
		closeByte = ']'
	}

	for {
		b, err := br.Peek(1)
		if err != nil {
			return JSONChildrenPage{}, NewError(KindIoError, "peek next child", err)
		}
		if b[0] == closeByte {
			return wrapScan(scanResult{kind: containerKind, items: items, reachedEnd: true, childCount: int(idx), complete: true}), nil
		}

		childStart := consumedOffset(f, br)

		if collectItems && len(items) >= limit {
			off := uint64(childStart)
			ix := idx
			return wrapScan(scanResult{kind: containerKind, items: items, nextOffset: ptrInt64(int64(off)), nextIndex: &ix}), nil
		}
		if !collectItems && (idx >= uint64(maxItems) || scannedBytes >= maxScanBytes) {
			return wrapScan(scanResult{kind: containerKind, childCount: int(idx), complete: false}), nil
		}

		var seg string
		if containerKind == ChildObject {
			keyRaw, err := skipJSONString(f, br)
			if err != nil {
				return JSONChildrenPage{}, NewError(KindIoError, "read child key", err)
			}
			seg = unquoteJSONString(keyRaw)
			if err := skipWhitespace(br); err != nil {
				return JSONChildrenPage{}, NewError(KindIoError, "skip whitespace", err)
			}
			if _, err := br.Discard(1); err != nil { // ':'
				return JSONChildrenPage{}, NewError(KindIoError, "discard colon", err)
			}
			if err := skipWhitespace(br); err != nil {
				return JSONChildrenPage{}, NewError(KindIoError, "skip whitespace", err)
			}
		} else {
			seg = strconv.FormatUint(idx, 10)
		}

		valueStart := consumedOffset(f, br)
		valueKind, err := peekValueKind(br)
		if err != nil {
			return JSONChildrenPage{}, NewError(KindIoError, "peek child value kind", err)
		}

		var preview string
		if collectItems {
			preview = previewAt(pf, valueStart, limits.PreviewCharBudget)
		}

		valueEnd, err := skipJSONValue(f, br)
		if err != nil {
			return JSONChildrenPage{}, NewError(KindIoError, "skip child value", err)
		}
		scannedBytes += valueEnd - childStart

		if collectItems {
			items = append(items, JSONChildItemOffset{
				Seg:         seg,
				Kind:        valueKind,
				Preview:     preview,
				ValueOffset: uint64(valueStart),
			})
		}
		idx++

		if err := skipWhitespace(br); err != nil {
			return JSONChildrenPage{}, NewError(KindIoError, "skip whitespace", err)
		}
		b, err = br.Peek(1)
		if err != nil {
			return JSONChildrenPage{}, NewError(KindIoError, "peek separator", err)
		}
		if b[0] == ',' {
			_, _ = br.Discard(1)
			if err := skipWhitespace(br); err != nil {
				return JSONChildrenPage{}, NewError(KindIoError, "skip whitespace", err)
			}
			continue
		}
		if b[0] == closeByte {
			_, _ = br.Discard(1)
			return wrapScan(scanResult{kind: containerKind, items: items, reachedEnd: true, childCount: int(idx), complete: true}), nil
		}
		return JSONChildrenPage{}, Errorf(KindIoError, "malformed json: expected ',' or %q between children", closeByte)
	}
}

func wrapScan(s scanResult) JSONChildrenPage {
	page := JSONChildrenPage{Items: s.items, ReachedEnd: s.reachedEnd}
	if s.nextOffset != nil {
		off := uint64(*s.nextOffset)
		page.NextCursorOffset = &off
	}
	if s.nextIndex != nil {
		page.NextCursorIndex = s.nextIndex
	}
	return page
}

func ptrInt64(v int64) *int64 { return &v }

// previewAt reads a small bounded prefix of the value at offset directly
// from pf (independent of the structural-walk handle) and truncates it to
// charBudget runes. Best-effort: any read error yields an empty preview
// rather than failing the whole listing.
func previewAt(pf *os.File, offset int64, charBudget int) string {
	byteBudget := charBudget * 4
	if byteBudget < 256 {
		byteBudget = 256
	}
	buf := make([]byte, byteBudget)
	n, err := pf.ReadAt(buf, offset)
	if n == 0 && err != nil && err != io.EOF {
		return ""
	}
	text := normalizeUTF8(buf[:n])
	preview, _ := truncate(text, charBudget)
	return preview
}

// locateByPath walks segments (object keys or array indices, as decimal
// strings) from rootOffset to find the addressed node's byte offset.
func locateByPath(path string, rootOffset int64, segments []string, limits Limits) (int64, error) {
	offset := rootOffset
	for _, seg := range segments {
		found := false
		var cursorOffset *uint64
		var cursorIndex *uint64
		for {
			page, err := scanNodeChildren(path, offset, cursorOffset, cursorIndex, limits.JSONTreeMaxItems, limits, true)
			if err != nil {
				return 0, err
			}
			for _, item := range page.Items {
				if item.Seg == seg {
					offset = int64(item.ValueOffset)
					found = true
					break
				}
			}
			if found || page.ReachedEnd || page.NextCursorOffset == nil {
				break
			}
			cursorOffset = page.NextCursorOffset
			cursorIndex = page.NextCursorIndex
		}
		if !found {
			return 0, Errorf(KindInvalidCursor, "path segment %q not found", seg)
		}
	}
	return offset, nil
}
