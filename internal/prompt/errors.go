package prompt

import "fmt"

// Error represents a failed model extraction
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("prompt extraction error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("prompt extraction error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
