package motor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor_RoundTrip(t *testing.T) {
	cursor := EncodeCursor("/data/foo.jsonl", 1024, 512, 7)

	offset, line, err := DecodeCursor("/data/foo.jsonl", 1024, &cursor)
	require.NoError(t, err)
	assert.Equal(t, uint64(512), offset)
	assert.Equal(t, uint64(7), line)
}

func TestDecodeCursor_NilOrEmptyMeansFromStart(t *testing.T) {
	offset, line, err := DecodeCursor("/data/foo.jsonl", 1024, nil)
	require.NoError(t, err)
	assert.Zero(t, offset)
	assert.Zero(t, line)

	empty := ""
	offset, line, err = DecodeCursor("/data/foo.jsonl", 1024, &empty)
	require.NoError(t, err)
	assert.Zero(t, offset)
	assert.Zero(t, line)
}

func TestDecodeCursor_RejectsDifferentFile(t *testing.T) {
	cursor := EncodeCursor("/data/foo.jsonl", 1024, 100, 1)

	_, _, err := DecodeCursor("/data/bar.jsonl", 1024, &cursor)
	require.Error(t, err)
	assert.Equal(t, KindInvalidCursor, KindOf(err))
}

func TestDecodeCursor_RejectsResizedFile(t *testing.T) {
	cursor := EncodeCursor("/data/foo.jsonl", 1024, 100, 1)

	_, _, err := DecodeCursor("/data/foo.jsonl", 2048, &cursor)
	require.Error(t, err)
	assert.Equal(t, KindInvalidCursor, KindOf(err))
}

func TestDecodeCursor_RejectsGarbage(t *testing.T) {
	garbage := "not-a-valid-cursor!!"
	_, _, err := DecodeCursor("/data/foo.jsonl", 1024, &garbage)
	require.Error(t, err)
	assert.Equal(t, KindInvalidCursor, KindOf(err))
}

func TestDecodeCursor_RejectsOffsetBeyondFileSize(t *testing.T) {
	cursor := EncodeCursor("/data/foo.jsonl", 1024, 2000, 1)

	_, _, err := DecodeCursor("/data/foo.jsonl", 1024, &cursor)
	require.Error(t, err)
	assert.Equal(t, KindInvalidCursor, KindOf(err))
}
