package biz

import (
	"errors"
	"fmt"
)

// ErrLoginRejected is returned by Login when the backend answers with a non-zero code.
var ErrLoginRejected = errors.New("login rejected")

// ErrUnknownGroup is returned by Runner.Run for an unregistered task group.
var ErrUnknownGroup = errors.New("unknown task group")

// FatalAuthError aborts every remaining action of one account in the current run.
// It is raised when re-authentication failed or a circuit-breaker mark already exists.
type FatalAuthError struct {
	RoleID string
	Note   string
	Reason string
	Marked bool // 已存在熔断标记，未尝试重新登录
}

// Error implements the error interface.
func (e *FatalAuthError) Error() string {
	if e.Marked {
		return fmt.Sprintf("fatal auth: account %s (%s) is marked as auth failed: %s", e.Note, e.RoleID, e.Reason)
	}
	return fmt.Sprintf("fatal auth: account %s (%s): %s", e.Note, e.RoleID, e.Reason)
}

// IsFatalAuth reports whether err carries a FatalAuthError.
func IsFatalAuth(err error) bool {
	var fe *FatalAuthError
	return errors.As(err, &fe)
}

// BusinessError is a reply whose code is neither success nor session expiry.
type BusinessError struct {
	MsgID   int
	Code    int64
	Message string
}

// Error implements the error interface.
func (e *BusinessError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("msg %d returned code %d", e.MsgID, e.Code)
	}
	return fmt.Sprintf("msg %d returned code %d: %s", e.MsgID, e.Code, e.Message)
}
