package motor

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
)

// jsontok.go is the hand-written, resumable JSON scanner backing the lazy
// tree (C6). json_reader.go's scanJSONValue only needs to step over whole
// top-level items; navigating *inside* one already-located value needs to
// resume from an arbitrary child offset across separate calls, which a
// stateful json.Decoder can't do without re-walking from the container's
// open brace every time. The scanner here
// tracks only nesting depth and string/escape state, exactly as spec.md
// §4.4 describes for the top-level reader, generalised to subtree
// navigation.

func kindOfByte(b byte) JSONChildKind {
	switch {
	case b == '{':
		return ChildObject
	case b == '[':
		return ChildArray
	case b == '"':
		return ChildString
	case b == 't' || b == 'f':
		return ChildBoolean
	case b == 'n':
		return ChildNull
	case b == '-' || (b >= '0' && b <= '9'):
		return ChildNumber
	default:
		return ChildUnknown
	}
}

// skipJSONString consumes a JSON string literal (the current byte must be
// '"') from br/f, honoring backslash escapes, and returns its raw bytes
// including the surrounding quotes.
func skipJSONString(f *os.File, br *bufio.Reader) ([]byte, error) {
	raw := make([]byte, 0, 32)
	b, err := br.ReadByte()
	if err != nil {
		return nil, err
	}
	raw = append(raw, b) // opening quote

	escaped := false
	for {
		b, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		raw = append(raw, b)
		if escaped {
			escaped = false
			continue
		}
		if b == '\\' {
			escaped = true
			continue
		}
		if b == '"' {
			return raw, nil
		}
	}
}

// skipJSONValue consumes exactly one JSON value starting at the current
// byte (already known to be non-whitespace) and returns the absolute file
// offset immediately following it.
func skipJSONValue(f *os.File, br *bufio.Reader) (int64, error) {
	b, err := br.Peek(1)
	if err != nil {
		return 0, err
	}

	switch {
	case b[0] == '{':
		if err := skipJSONContainer(f, br, '{', '}'); err != nil {
			return 0, err
		}
	case b[0] == '[':
		if err := skipJSONContainer(f, br, '[', ']'); err != nil {
			return 0, err
		}
	case b[0] == '"':
		if _, err := skipJSONString(f, br); err != nil {
			return 0, err
		}
	default:
		// number or literal (true/false/null): consume until a delimiter.
		for {
			b, err := br.Peek(1)
			if err != nil {
				break // EOF ends the literal; caller sees resulting offset
			}
			if isJSONDelimiter(b[0]) {
				break
			}
			if _, err := br.Discard(1); err != nil {
				return 0, err
			}
		}
	}
	return consumedOffset(f, br), nil
}

func isJSONDelimiter(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', ',', ']', '}', ':':
		return true
	default:
		return false
	}
}

// skipJSONContainer consumes a balanced {...} or [...], recursing into
// nested values and skipping string contents so embedded braces/brackets
// inside strings never confuse the depth count.
func skipJSONContainer(f *os.File, br *bufio.Reader, open, closeByte byte) error {
	if _, err := br.Discard(1); err != nil { // opening brace/bracket
		return err
	}
	for {
		if err := skipWhitespace(br); err != nil {
			return err
		}
		b, err := br.Peek(1)
		if err != nil {
			return err
		}
		if b[0] == closeByte {
			_, err := br.Discard(1)
			return err
		}

		if open == '{' {
			// key
			if _, err := skipJSONString(f, br); err != nil {
				return err
			}
			if err := skipWhitespace(br); err != nil {
				return err
			}
			if _, err := br.Discard(1); err != nil { // ':'
				return err
			}
			if err := skipWhitespace(br); err != nil {
				return err
			}
		}

		if _, err := skipJSONValue(f, br); err != nil {
			return err
		}

		if err := skipWhitespace(br); err != nil {
			return err
		}
		b, err = br.Peek(1)
		if err != nil {
			return err
		}
		if b[0] == ',' {
			_, _ = br.Discard(1)
			continue
		}
		if b[0] == closeByte {
			_, err := br.Discard(1)
			return err
		}
		return Errorf(KindIoError, "malformed json: expected ',' or %q", closeByte)
	}
}

// unquoteJSONString decodes a raw `"..."` byte slice (as returned by
// skipJSONString) into its Go string value.
func unquoteJSONString(raw []byte) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return normalizeUTF8(raw)
	}
	return s
}

// peekValueKind reports the kind of the value at the current read
// position without consuming anything.
func peekValueKind(br *bufio.Reader) (JSONChildKind, error) {
	b, err := br.Peek(1)
	if err != nil {
		if err == io.EOF {
			return ChildUnknown, nil
		}
		return ChildUnknown, err
	}
	return kindOfByte(b[0]), nil
}
