package ipdisplays

import "fmt"

// Error codes for sign controller operations.
const (
	ErrCodeRequestFailed = "REQUEST_FAILED"
	ErrCodeBadStatus     = "BAD_STATUS"
	ErrCodeFault         = "SOAP_FAULT"
	ErrCodeDecodeFailed  = "DECODE_FAILED"
	ErrCodeUnknownLayout = "UNKNOWN_LAYOUT"
	ErrCodeInvalidValue  = "INVALID_VALUE"
)

// Error is returned by every Client operation.
type Error struct {
	Code    string
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(op, code, message string, cause error) *Error {
	return &Error{Code: code, Op: op, Message: message, Cause: cause}
}
