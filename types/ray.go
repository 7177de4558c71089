package types

// A ray with a precomputed inverse direction. Rays are passed by pointer to
// intersection routines but are never modified by them.
type Ray struct {
	Origin Vec3
	Dir    Vec3

	// 1/Dir per component. A zero direction component maps to +/-Inf.
	InvDir Vec3
}

// Create a new ray. The direction does not need to be normalized; hit
// distances are expressed in multiples of its length.
func NewRay(origin, dir Vec3) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		InvDir: Vec3{1.0 / dir[0], 1.0 / dir[1], 1.0 / dir[2]},
	}
}

// Get the point at distance t along the ray.
func (r *Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}
