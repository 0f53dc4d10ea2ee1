package social

import "errors"

// Kind classifies a failure so the boundary layer can pick a response status.
type Kind int

const (
	KindUnexpected Kind = iota
	KindInvalidUsername
	KindInvalidPassword
	KindDuplicateUsername
	KindAuthenticationFailed
	KindInvalidMessage
)

func (k Kind) String() string {
	switch k {
	case KindInvalidUsername:
		return "invalid_username"
	case KindInvalidPassword:
		return "invalid_password"
	case KindDuplicateUsername:
		return "duplicate_username"
	case KindAuthenticationFailed:
		return "authentication_failed"
	case KindInvalidMessage:
		return "invalid_message"
	default:
		return "unexpected"
	}
}

// Error is the failure type returned by the account and message managers.
// Two Errors match under errors.Is when their kinds are equal.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidUsername      = &Error{Kind: KindInvalidUsername, Msg: "Username cannot be blank"}
	ErrInvalidPassword      = &Error{Kind: KindInvalidPassword, Msg: "Password must be at least 4 characters"}
	ErrDuplicateUsername    = &Error{Kind: KindDuplicateUsername, Msg: "Username already exists"}
	ErrAuthenticationFailed = &Error{Kind: KindAuthenticationFailed, Msg: "Invalid username or password"}
	ErrInvalidMessage       = &Error{Kind: KindInvalidMessage, Msg: "Invalid message"}
	ErrUnexpected           = &Error{Kind: KindUnexpected, Msg: "An unexpected error occurred"}
)

// Messages carried by KindInvalidMessage failures.
const (
	MsgBlankMessage     = "Message text cannot be blank"
	MsgMessageTooLong   = "Message text must not exceed 255 characters"
	MsgUnknownAccount   = "Account does not exist"
	MsgMessageNotExists = "Message does not exist"
)

func invalidMessage(msg string) *Error {
	return &Error{Kind: KindInvalidMessage, Msg: msg}
}

func unexpected(msg string, err error) *Error {
	return &Error{Kind: KindUnexpected, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindUnexpected when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}
