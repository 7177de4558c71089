package scene

import (
	"fmt"

	"github.com/achilleasa/kdtrace/accel"
	"github.com/achilleasa/kdtrace/types"
)

// A triangle mesh. Meshes own their triangles and index them with a
// dedicated spatial accelerator. A mesh is itself an Intersectable so it can
// be indexed by the top-level scene accelerator.
type Mesh struct {
	Name      string
	Triangles []*Triangle

	// The triangle list as seen by the accelerator.
	prims []accel.Intersectable

	accel accel.SpatialAccel
}

// Create a mesh from a vertex list and a list of triangular faces. Face
// indices are 0-based.
func NewMesh(name string, vertices []types.Vec3f, faces [][3]uint32) (*Mesh, error) {
	mesh := &Mesh{
		Name:      name,
		Triangles: make([]*Triangle, 0, len(faces)),
	}

	for faceIndex, face := range faces {
		for _, vIndex := range face {
			if int(vIndex) >= len(vertices) {
				return nil, fmt.Errorf("mesh %q: face %d references vertex %d; mesh defines %d vertices", name, faceIndex, vIndex, len(vertices))
			}
		}

		mesh.Triangles = append(mesh.Triangles, NewTriangle(
			vertices[face[0]].Vec3(),
			vertices[face[1]].Vec3(),
			vertices[face[2]].Vec3(),
		))
	}

	return mesh, nil
}

// Bind the mesh triangles to an accelerator and build it.
func (m *Mesh) Init(meshAccel accel.SpatialAccel) error {
	m.prims = make([]accel.Intersectable, len(m.Triangles))
	for index, tri := range m.Triangles {
		m.prims[index] = tri
	}

	meshAccel.SetGeometry(m.prims)
	if err := meshAccel.Init(); err != nil {
		return fmt.Errorf("mesh %q: %w", m.Name, err)
	}

	m.accel = meshAccel
	return nil
}

// Get the accelerator attached by Init.
func (m *Mesh) Accel() accel.SpatialAccel {
	return m.accel
}

// Implements accel.Intersectable. Before Init this is the union of the
// triangle boxes.
func (m *Mesh) BBox() types.AABB {
	if m.accel != nil {
		return m.accel.BBox()
	}

	bbox := types.EmptyAABB()
	for _, tri := range m.Triangles {
		bbox = bbox.Union(tri.BBox())
	}
	return bbox
}

// Implements accel.Intersectable. The hit case is the index of the hit triangle.
func (m *Mesh) Intersection(ray *types.Ray) (float64, int) {
	var hit accel.HitInfo
	dist := m.accel.Intersection(ray, &hit)
	return dist, hit.Primitive
}

// Implements accel.Intersectable
func (m *Mesh) Intersects(ray *types.Ray, maxDist float64) bool {
	return m.accel.Intersects(ray, maxDist)
}
