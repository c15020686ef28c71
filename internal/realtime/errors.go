package realtime

import "fmt"

// Error codes for realtime API calls.
const (
	ErrCodeRequestFailed = "REQUEST_FAILED"
	ErrCodeBadStatus     = "BAD_STATUS"
	ErrCodeDecodeFailed  = "DECODE_FAILED"
)

// Error is returned by every Client call.
type Error struct {
	Code       string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
