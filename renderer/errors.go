package renderer

import "errors"

var (
	ErrNoTracers       = errors.New("renderer: no tracers attached")
	ErrAccelNotDefined = errors.New("renderer: no accelerator defined")
	ErrInterrupted     = errors.New("renderer: interrupted while tracing")
	ErrResultMismatch  = errors.New("renderer: result slice length does not match ray count")
)
