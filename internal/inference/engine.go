// Package inference connects the single-threaded update loop to a style
// transfer engine running on its own goroutine.
package inference

import (
	"errors"

	"styler/internal/core"
)

// ErrNotSetup is returned when an engine is used before Setup succeeded
var ErrNotSetup = errors.New("engine not set up")

// Engine is the style transfer model. Infer is synchronous and may take much
// longer than one render tick; it is only ever called from one goroutine at
// a time.
type Engine interface {
	// Setup loads the model for the given input and output size
	Setup(width, height int) error
	// StyleSize is the fixed style input size expected by the model
	StyleSize() (int, int)
	// Infer applies style to input and returns a new output frame
	Infer(input, style *core.Frame) (*core.Frame, error)
	Close() error
}
