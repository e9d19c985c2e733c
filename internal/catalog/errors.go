// Package catalog loads the candidate asset list from its tabular input file.
package catalog

import "fmt"

// Error represents a fatal problem reading or parsing the candidate catalog.
type Error struct {
	Path    string
	Line    int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if e.Cause != nil {
		return fmt.Sprintf("catalog %s: %s: %v", loc, e.Message, e.Cause)
	}
	return fmt.Sprintf("catalog %s: %s", loc, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
