package types

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/math/f32"
)

// Vec3 is the double precision vector used for all ray arithmetic.
type Vec3 = mgl64.Vec3

// Vec3f is a packed single precision vector used for storing vertex data.
type Vec3f f32.Vec3

// Axis selects a coordinate axis.
type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis

	// The number of axes; also used as an invalid axis marker.
	NumAxes
)

// Get the next axis in X -> Y -> Z -> X order.
func (a Axis) Next() Axis {
	return (a + 1) % NumAxes
}

// Implements fmt.Stringer
func (a Axis) String() string {
	switch a {
	case XAxis:
		return "x"
	case YAxis:
		return "y"
	case ZAxis:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", uint8(a))
}

// Define a 3 component vector.
func XYZ(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

// Expand a packed vector to double precision.
func (v Vec3f) Vec3() Vec3 {
	return Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

// Pack a double precision vector.
func PackVec3(v Vec3) Vec3f {
	return Vec3f{float32(v[0]), float32(v[1]), float32(v[2])}
}

// Calc min component from two vectors
func MinVec3(v1, v2 Vec3) Vec3 {
	return Vec3{math.Min(v1[0], v2[0]), math.Min(v1[1], v2[1]), math.Min(v1[2], v2[2])}
}

// Calc max component from two vectors
func MaxVec3(v1, v2 Vec3) Vec3 {
	return Vec3{math.Max(v1[0], v2[0]), math.Max(v1[1], v2[1]), math.Max(v1[2], v2[2])}
}

// Returns true if any of the vector components is NaN.
func HasNaN(v Vec3) bool {
	return math.IsNaN(v[0]) || math.IsNaN(v[1]) || math.IsNaN(v[2])
}
