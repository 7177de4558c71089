package accel

import "errors"

var (
	ErrGeometryNotSet = errors.New("accel: geometry has not been set")
	ErrNotInitialized = errors.New("accel: query issued before Init")
	ErrAlreadyBound   = errors.New("accel: geometry already bound")
)
