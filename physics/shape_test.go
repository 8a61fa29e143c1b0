package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func cubePoints(h float64) []mgl64.Vec3 {
	c := AABB{Min: mgl64.Vec3{-h, -h, -h}, Max: mgl64.Vec3{h, h, h}}.Corners()
	return c[:]
}

func TestShapeDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name    string
		desc    ShapeDescriptor
		wantErr bool
	}{
		{"box", Box{HalfExtent: mgl64.Vec3{1, 2, 3}}, false},
		{"flat box", Box{HalfExtent: mgl64.Vec3{1, 0, 3}}, true},
		{"negative convex radius", Box{HalfExtent: mgl64.Vec3{1, 1, 1}, ConvexRadius: -1}, true},
		{"sphere", Sphere{Radius: 0.5}, false},
		{"zero sphere", Sphere{}, true},
		{"hull", ConvexHull{Points: cubePoints(1)}, false},
		{"hull too few points", ConvexHull{Points: cubePoints(1)[:3]}, true},
		{"coplanar hull", ConvexHull{Points: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}, {1, 0, 1}, {2, 0, 2}}}, true},
		{"duplicate hull points", ConvexHull{Points: []mgl64.Vec3{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}, {1, 1, 1}}}, true},
		{"mesh", Mesh{Triangles: []Triangle{{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}}}}, false},
		{"degenerate mesh", Mesh{Triangles: []Triangle{{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}}}, true},
		{"empty mesh", Mesh{}, true},
		{"offset com", OffsetCenterOfMass{Offset: mgl64.Vec3{0, -0.1, 0}, Inner: Box{HalfExtent: mgl64.Vec3{1, 1, 1}}}, false},
		{"offset com bad inner", OffsetCenterOfMass{Inner: Sphere{}}, true},
		{"offset com nil inner", OffsetCenterOfMass{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConvexHull_LocalBounds(t *testing.T) {
	h := ConvexHull{Points: []mgl64.Vec3{{-1, 0, 2}, {3, -4, 0}, {0, 5, 0}, {0, 0, -6}}}
	b := h.LocalBounds()
	if b.Min != (mgl64.Vec3{-1, -4, -6}) || b.Max != (mgl64.Vec3{3, 5, 2}) {
		t.Errorf("LocalBounds = %+v", b)
	}
}

func TestAABB_Transformed(t *testing.T) {
	b := AABB{Min: mgl64.Vec3{-1, -0.5, -2}, Max: mgl64.Vec3{1, 0.5, 2}}
	tr := Transform{
		Position: mgl64.Vec3{10, 0, 0},
		Rotation: mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}),
	}
	got := b.Transformed(tr)
	want := AABB{Min: mgl64.Vec3{8, -0.5, -1}, Max: mgl64.Vec3{12, 0.5, 1}}
	if !got.Min.ApproxEqualThreshold(want.Min, 1e-9) || !got.Max.ApproxEqualThreshold(want.Max, 1e-9) {
		t.Errorf("Transformed = %+v, want %+v", got, want)
	}
}

func TestAABB_Overlaps(t *testing.T) {
	a := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}
	if !a.Overlaps(AABB{Min: mgl64.Vec3{1, 1, 1}, Max: mgl64.Vec3{2, 2, 2}}) {
		t.Error("touching boxes should overlap")
	}
	if a.Overlaps(AABB{Min: mgl64.Vec3{1.1, 0, 0}, Max: mgl64.Vec3{2, 1, 1}}) {
		t.Error("separated boxes should not overlap")
	}
}

func TestTransform_Mul(t *testing.T) {
	parent := Transform{Position: mgl64.Vec3{0, 0, 5}, Rotation: mgl64.QuatRotate(math.Pi, mgl64.Vec3{0, 1, 0})}
	child := Transform{Position: mgl64.Vec3{1, 0, 0}, Rotation: mgl64.QuatIdent()}
	got := parent.Mul(child)
	if !got.Position.ApproxEqualThreshold(mgl64.Vec3{-1, 0, 5}, 1e-9) {
		t.Errorf("composed position = %v", got.Position)
	}
}
