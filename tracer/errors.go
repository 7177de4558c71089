package tracer

import "errors"

var (
	ErrAccelNotDefined = errors.New("tracer: no accelerator attached")
	ErrTracerBusy      = errors.New("tracer: worker did not accept block request")
	ErrBlockMismatch   = errors.New("tracer: ray and result counts differ")
)
