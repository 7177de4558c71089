package kdtree

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/segmentio/encoding/json"
)

// The hard ceiling for the tree depth. The traversal stack is sized from it.
const MaxTreeDepth = 24

// The method used for selecting split plane positions.
type SplitPlaneMethod uint8

const (
	// Split at the center of the node bbox (octree-like subdivision).
	SplitMiddle SplitPlaneMethod = iota

	// Split at the median primitive extent along the split axis.
	SplitMedian

	// Select the split that minimizes the surface area heuristic cost.
	SplitSAH
)

// The method used for selecting the split axis with the middle and median
// split plane methods. SAH evaluates all axes.
type SplitAxisMethod uint8

const (
	// Cycle through the axes skipping axes with zero extent.
	AxisRoundRobin SplitAxisMethod = iota

	// Always split along the axis with the largest extent.
	AxisLongestExtent
)

// Parameters for building a kd-tree. Parameters are consumed by Init and
// cannot be changed afterwards.
type BuildParams struct {
	SplitPlane SplitPlaneMethod `json:"splitPlaneType"`
	SplitAxis  SplitAxisMethod  `json:"splitAxisType"`

	// Nodes with fewer primitives than this value become leaves.
	MinPrimitives int `json:"minPrimitives"`

	// Nodes at this depth become leaves. Must not exceed MaxTreeDepth.
	MaxDepth int `json:"maxDepth"`

	// SAH tuning. The leaf cost is (count - TraversalCost) * area and
	// splits that leave one side empty have their cost scaled by EmptyBias.
	TraversalCost float64 `json:"traversalCost"`
	EmptyBias     float64 `json:"emptyBias"`

	// Reserved; these have no effect on the build.
	ThreadHint   int  `json:"threadHint"`
	PostCompress bool `json:"postCompress"`
}

// Get the default build parameters.
func DefaultBuildParams() BuildParams {
	return BuildParams{
		SplitPlane:    SplitSAH,
		SplitAxis:     AxisRoundRobin,
		MinPrimitives: 3,
		MaxDepth:      MaxTreeDepth,
		TraversalCost: 1.0,
		EmptyBias:     0.9,
	}
}

// Decode build parameters from a JSON object. Keys missing from the object
// keep their default values.
func ParseBuildParams(data []byte) (BuildParams, error) {
	params := DefaultBuildParams()

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&params); err != nil {
		return params, fmt.Errorf("%w: %s", ErrInvalidParams, err.Error())
	}

	return params, params.Validate()
}

// Validate the build parameters.
func (p BuildParams) Validate() error {
	switch {
	case p.SplitPlane > SplitSAH:
		return fmt.Errorf("%w: unsupported split plane method %d", ErrInvalidParams, p.SplitPlane)
	case p.SplitAxis > AxisLongestExtent:
		return fmt.Errorf("%w: unsupported split axis method %d", ErrInvalidParams, p.SplitAxis)
	case p.MinPrimitives < 1:
		return fmt.Errorf("%w: minPrimitives must be >= 1; got %d", ErrInvalidParams, p.MinPrimitives)
	case p.MaxDepth < 1 || p.MaxDepth > MaxTreeDepth:
		return fmt.Errorf("%w: maxDepth must be in [1, %d]; got %d", ErrInvalidParams, MaxTreeDepth, p.MaxDepth)
	case p.EmptyBias <= 0:
		return fmt.Errorf("%w: emptyBias must be > 0; got %g", ErrInvalidParams, p.EmptyBias)
	}
	return nil
}

// Implements fmt.Stringer
func (m SplitPlaneMethod) String() string {
	switch m {
	case SplitMiddle:
		return "middle"
	case SplitMedian:
		return "median"
	case SplitSAH:
		return "sah"
	}
	return fmt.Sprintf("splitPlane(%d)", uint8(m))
}

// Parse a split plane method name.
func ParseSplitPlaneMethod(name string) (SplitPlaneMethod, error) {
	for m := SplitMiddle; m <= SplitSAH; m++ {
		if strings.EqualFold(name, m.String()) {
			return m, nil
		}
	}
	return SplitSAH, fmt.Errorf("%w: split plane method %q", ErrUnknownSetting, name)
}

// Implements encoding.TextMarshaler
func (m SplitPlaneMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Implements encoding.TextUnmarshaler
func (m *SplitPlaneMethod) UnmarshalText(text []byte) error {
	parsed, err := ParseSplitPlaneMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Implements fmt.Stringer
func (m SplitAxisMethod) String() string {
	switch m {
	case AxisRoundRobin:
		return "roundRobin"
	case AxisLongestExtent:
		return "longestExtent"
	}
	return fmt.Sprintf("splitAxis(%d)", uint8(m))
}

// Parse a split axis method name.
func ParseSplitAxisMethod(name string) (SplitAxisMethod, error) {
	for m := AxisRoundRobin; m <= AxisLongestExtent; m++ {
		if strings.EqualFold(name, m.String()) {
			return m, nil
		}
	}
	return AxisRoundRobin, fmt.Errorf("%w: split axis method %q", ErrUnknownSetting, name)
}

// Implements encoding.TextMarshaler
func (m SplitAxisMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Implements encoding.TextUnmarshaler
func (m *SplitAxisMethod) UnmarshalText(text []byte) error {
	parsed, err := ParseSplitAxisMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
