package chat

import (
	"fmt"
)

// 注册表与会话层错误定义
var (
	ErrDuplicateHandle = NewError(2001, "Duplicate connection handle", "")
	ErrConnClosed      = NewError(2002, "Connection is closed", "")
)

// Error 带错误码的错误，errors.Is 按错误码比较
type Error struct {
	Code    int
	Msg     string
	Context string
}

func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("Error %d: %s (context: %s)", e.Code, e.Msg, e.Context)
	}
	return fmt.Sprintf("Error %d: %s", e.Code, e.Msg)
}

// Is 让携带上下文的副本与哨兵错误相等
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithContext 返回附带上下文信息的副本
func (e *Error) WithContext(context string) *Error {
	return &Error{Code: e.Code, Msg: e.Msg, Context: context}
}

func NewError(code int, message string, context string) *Error {
	return &Error{
		Code:    code,
		Msg:     message,
		Context: context,
	}
}
