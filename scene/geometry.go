package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/physics"
)

// GeometryKind tags how a node is drawn
type GeometryKind uint8

const (
	GeometryNone GeometryKind = iota
	GeometryBox
	GeometrySphere
	GeometryCylinder
	// GeometryPoints is a vertex cloud drawn as its footprint
	GeometryPoints
)

// Geometry is the renderer-facing description of a proxy's shape
type Geometry struct {
	Kind       GeometryKind
	HalfExtent mgl64.Vec3
	Radius     float64
	// HalfHeight is the cylinder half length along its axle
	HalfHeight float64
	Vertices   []mgl64.Vec3
	// Offset shifts the drawn shape in node space
	Offset mgl64.Vec3
}

// Synthesize derives render geometry from a shape descriptor
// Boxes and spheres map to primitives, hulls and meshes to their vertex cloud
func Synthesize(desc physics.ShapeDescriptor) Geometry {
	switch d := desc.(type) {
	case physics.Box:
		return Geometry{Kind: GeometryBox, HalfExtent: d.HalfExtent}
	case physics.Sphere:
		return Geometry{Kind: GeometrySphere, Radius: d.Radius}
	case physics.ConvexHull:
		return Geometry{Kind: GeometryPoints, Vertices: append([]mgl64.Vec3(nil), d.Points...)}
	case physics.Mesh:
		verts := make([]mgl64.Vec3, 0, len(d.Triangles)*3)
		for _, t := range d.Triangles {
			verts = append(verts, t[0], t[1], t[2])
		}
		return Geometry{Kind: GeometryPoints, Vertices: verts}
	case physics.OffsetCenterOfMass:
		// Mass offset does not move the visible shape
		return Synthesize(d.Inner)
	}
	return Geometry{Kind: GeometryNone}
}

// Cylinder returns wheel geometry with its axle along local Z
func Cylinder(radius, width float64) Geometry {
	return Geometry{Kind: GeometryCylinder, Radius: radius, HalfHeight: width / 2}
}

// Footprint returns node-space points that outline the geometry, used for top-down drawing
func (g Geometry) Footprint() []mgl64.Vec3 {
	var pts []mgl64.Vec3
	switch g.Kind {
	case GeometryBox:
		c := physics.AABB{Min: g.HalfExtent.Mul(-1), Max: g.HalfExtent}.Corners()
		pts = c[:]
	case GeometrySphere:
		r := g.Radius
		pts = []mgl64.Vec3{{r, 0, 0}, {-r, 0, 0}, {0, 0, r}, {0, 0, -r}, {0, r, 0}, {0, -r, 0}}
	case GeometryCylinder:
		h := mgl64.Vec3{g.Radius, g.Radius, g.HalfHeight}
		c := physics.AABB{Min: h.Mul(-1), Max: h}.Corners()
		pts = c[:]
	case GeometryPoints:
		pts = g.Vertices
	default:
		return nil
	}
	if g.Offset == (mgl64.Vec3{}) {
		return pts
	}
	out := make([]mgl64.Vec3, len(pts))
	for i, p := range pts {
		out[i] = p.Add(g.Offset)
	}
	return out
}
