package motor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate_NoopUnderBudget(t *testing.T) {
	s, truncated := truncate("hello", 10)
	assert.Equal(t, "hello", s)
	assert.False(t, truncated)
}

func TestTruncate_CutsAtRuneBoundaryWithEllipsis(t *testing.T) {
	s, truncated := truncate("hello world", 5)
	assert.Equal(t, "hello"+truncationEllipsis, s)
	assert.True(t, truncated)
}

func TestTruncate_CountsRunesNotBytes(t *testing.T) {
	s, truncated := truncate("héllo", 3)
	assert.Equal(t, "hél"+truncationEllipsis, s)
	assert.True(t, truncated)
}

func TestNormalizeUTF8_ReplacesInvalidBytes(t *testing.T) {
	invalid := []byte{'a', 0xff, 'b'}
	got := normalizeUTF8(invalid)
	assert.Contains(t, got, "a")
	assert.Contains(t, got, "b")
	assert.NotContains(t, got, string(rune(0xff)))
}

func TestDefaultLimits_AreInternallyConsistent(t *testing.T) {
	l := DefaultLimits()
	assert.LessOrEqual(t, l.DefaultPageSize, l.MaxPageSize)
	assert.Positive(t, l.RecordRawCeiling)
	assert.Positive(t, l.JSONTreeMaxScanByte)
}
