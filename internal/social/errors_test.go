package social

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	require.Equal(t, KindInvalidMessage, KindOf(invalidMessage(MsgBlankMessage)))
	require.Equal(t, KindDuplicateUsername, KindOf(fmt.Errorf("register: %w", ErrDuplicateUsername)))
	require.Equal(t, KindUnexpected, KindOf(errors.New("plain")))
	require.Equal(t, KindUnexpected, KindOf(nil))
}

func TestError_IsMatchesKindOnly(t *testing.T) {
	err := invalidMessage(MsgMessageTooLong)

	require.ErrorIs(t, err, ErrInvalidMessage)
	require.NotErrorIs(t, err, ErrInvalidUsername)
	require.Equal(t, MsgMessageTooLong, err.Error())

	cause := errors.New("no such table")
	wrapped := unexpected("failed to list messages", cause)
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, "failed to list messages: no such table", wrapped.Error())
}

func TestValidationRules(t *testing.T) {
	require.True(t, isBlank(""))
	require.True(t, isBlank(" \t\n"))
	require.False(t, isBlank(" a "))
	// Unicode spaces count as blank too
	require.True(t, isBlank("\u00a0\u0085\u2003"))

	require.True(t, passwordTooShort("abc"))
	require.False(t, passwordTooShort("abcd"))

	require.False(t, messageTooLong(string(make([]rune, MaxMessageLength))))
	require.True(t, messageTooLong(string(make([]rune, MaxMessageLength+1))))
}
