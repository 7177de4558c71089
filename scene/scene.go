package scene

import (
	"errors"
	"fmt"

	"github.com/achilleasa/kdtrace/accel"
	"github.com/achilleasa/kdtrace/log"
	"github.com/achilleasa/kdtrace/types"
)

var ErrNoMeshes = errors.New("scene: no meshes defined")

// A factory for the accelerators used by meshes and the scene.
type AccelFactory func() accel.SpatialAccel

// Information about a scene hit.
type Hit struct {
	Dist     float64
	Mesh     int
	Triangle int
}

// A scene is a list of meshes indexed by a top-level accelerator.
type Scene struct {
	logger log.Logger

	Meshes []*Mesh

	prims []accel.Intersectable
	accel accel.SpatialAccel
}

// Create a new scene.
func New(meshes ...*Mesh) *Scene {
	return &Scene{
		logger: log.New("scene"),
		Meshes: meshes,
	}
}

// Build an accelerator for each mesh and a top-level accelerator indexing
// the meshes.
func (s *Scene) Init(newAccel AccelFactory) error {
	if len(s.Meshes) == 0 {
		return ErrNoMeshes
	}

	s.prims = make([]accel.Intersectable, len(s.Meshes))
	triCount := 0
	for index, mesh := range s.Meshes {
		if err := mesh.Init(newAccel()); err != nil {
			return err
		}
		s.prims[index] = mesh
		triCount += len(mesh.Triangles)
	}

	s.accel = newAccel()
	s.accel.SetGeometry(s.prims)
	if err := s.accel.Init(); err != nil {
		return fmt.Errorf("scene: %w", err)
	}

	s.logger.Infof("initialized scene with %d meshes and %d triangles; bbox: %v", len(s.Meshes), triCount, s.accel.BBox())
	return nil
}

// Get the top-level accelerator.
func (s *Scene) Accel() accel.SpatialAccel {
	return s.accel
}

// Get the scene bounding box.
func (s *Scene) BBox() types.AABB {
	return s.accel.BBox()
}

// Find the nearest hit along the ray.
func (s *Scene) Intersection(ray *types.Ray) (Hit, bool) {
	var info accel.HitInfo
	dist := s.accel.Intersection(ray, &info)
	if dist == accel.NoHit {
		return Hit{Dist: dist}, false
	}

	return Hit{
		Dist:     dist,
		Mesh:     info.Primitive,
		Triangle: info.Case,
	}, true
}

// Returns true if anything blocks the ray before maxDist.
func (s *Scene) Occluded(ray *types.Ray, maxDist float64) bool {
	return s.accel.Intersects(ray, maxDist)
}
