package motor

import (
	"encoding/base64"
	"encoding/json"

	"github.com/cespare/xxhash/v2"
)

// cursorWire is the canonical textual form encoded into a cursor token.
// Fingerprint binds the cursor to the session's source path and size so a
// cursor minted against one file can't silently resume against another (or
// against a truncated/rewritten version of the same path).
type cursorWire struct {
	Offset      uint64 `json:"o"`
	Line        uint64 `json:"l"`
	Fingerprint uint64 `json:"f"`
}

func fingerprint(path string, size int64) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(path)
	var szBuf [8]byte
	for i := range szBuf {
		szBuf[i] = byte(size >> (8 * i))
	}
	_, _ = h.Write(szBuf[:])
	return h.Sum64()
}

// EncodeCursor serializes (offset, line) for the given session into an
// opaque, URL-safe base64 token (C1). The result round-trips byte-for-byte
// across processes.
func EncodeCursor(path string, size int64, offset, line uint64) string {
	w := cursorWire{Offset: offset, Line: line, Fingerprint: fingerprint(path, size)}
	data, _ := json.Marshal(w) // cursorWire always marshals cleanly
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor parses a cursor token minted for the given session. A nil or
// empty token cleanly means "from the beginning" (offset=0, line=0). Tokens
// that are syntactically valid but carry a stale fingerprint, or whose
// offset exceeds the file's current size, are rejected with InvalidCursor.
func DecodeCursor(path string, size int64, token *string) (offset, line uint64, err error) {
	if token == nil || *token == "" {
		return 0, 0, nil
	}

	data, decErr := base64.URLEncoding.DecodeString(*token)
	if decErr != nil {
		return 0, 0, NewError(KindInvalidCursor, "cursor is not valid base64", decErr)
	}

	var w cursorWire
	if jsonErr := json.Unmarshal(data, &w); jsonErr != nil {
		return 0, 0, NewError(KindInvalidCursor, "cursor is not valid", jsonErr)
	}

	if w.Fingerprint != fingerprint(path, size) {
		return 0, 0, Errorf(KindInvalidCursor, "cursor was minted against a different file")
	}

	if size > 0 && int64(w.Offset) > size {
		return 0, 0, Errorf(KindInvalidCursor, "cursor offset %d exceeds file size %d", w.Offset, size)
	}

	return w.Offset, w.Line, nil
}
