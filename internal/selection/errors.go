// Package selection assembles ranked clips into an ordered, non-repeating story.
package selection

import "fmt"

// Error represents an invalid story template
type Error struct {
	Section string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Section != "" {
		msg = fmt.Sprintf("section %q: %s", e.Section, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}
