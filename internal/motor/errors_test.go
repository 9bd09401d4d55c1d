package motor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorf_CarriesKindAndMessage(t *testing.T) {
	err := Errorf(KindUnknownSession, "no such session %q", "abc")
	assert.Equal(t, KindUnknownSession, KindOf(err))
	assert.Contains(t, err.Error(), "abc")
	assert.Contains(t, err.Error(), "UnknownSession")
}

func TestNewError_WrapsCause(t *testing.T) {
	cause := errors.New("disk exploded")
	err := NewError(KindIoError, "reading file", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "disk exploded")
}

func TestKindOf_NonMotorError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain error")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestError_Is_MatchesByKindOnly(t *testing.T) {
	a := Errorf(KindInvalidCursor, "cursor from file A")
	b := Errorf(KindInvalidCursor, "cursor from file B")
	c := Errorf(KindIoError, "unrelated")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}
