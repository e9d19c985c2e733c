// Package analyzer defines the boundary to the external media analysis tools.
// The core never inspects pixels itself; it runs a pluggable Analyzer per asset.
package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/clip-curator/internal/types"
)

// ErrNoFrames is returned when the media could not be read or yielded no frames.
var ErrNoFrames = errors.New("no analyzable frames")

// Analyzer maps one local media file to a metrics record.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (*types.Metrics, error)
}

// Func adapts a plain function to the Analyzer interface.
type Func func(ctx context.Context, path string) (*types.Metrics, error)

// Analyze calls f.
func (f Func) Analyze(ctx context.Context, path string) (*types.Metrics, error) {
	return f(ctx, path)
}

// Error represents a failed analysis of one file.
type Error struct {
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("analyze %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("analyze %s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
