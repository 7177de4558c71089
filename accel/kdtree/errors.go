package kdtree

import "errors"

var (
	ErrInvalidParams  = errors.New("kdtree: invalid build parameters")
	ErrStackOverflow  = errors.New("kdtree: traversal stack overflow")
	ErrInvalidAxis    = errors.New("kdtree: internal node with invalid split axis")
	ErrUnknownSetting = errors.New("kdtree: unknown setting value")
)
