package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/physics"
)

func TestSynthesize(t *testing.T) {
	hull := physics.ConvexHull{Points: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
	tests := []struct {
		name     string
		desc     physics.ShapeDescriptor
		wantKind GeometryKind
	}{
		{"box", physics.Box{HalfExtent: mgl64.Vec3{1, 2, 3}}, GeometryBox},
		{"sphere", physics.Sphere{Radius: 2}, GeometrySphere},
		{"hull", hull, GeometryPoints},
		{"mesh", physics.Mesh{Triangles: []physics.Triangle{{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}}}}, GeometryPoints},
		{"offset com uses inner", physics.OffsetCenterOfMass{Inner: physics.Box{HalfExtent: mgl64.Vec3{1, 1, 1}}}, GeometryBox},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Synthesize(tt.desc); got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
		})
	}

	g := Synthesize(physics.Box{HalfExtent: mgl64.Vec3{1, 2, 3}})
	if g.HalfExtent != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("box half extent = %v", g.HalfExtent)
	}
	if m := Synthesize(physics.Mesh{Triangles: make([]physics.Triangle, 2)}); len(m.Vertices) != 6 {
		t.Errorf("mesh vertices = %d, want 6", len(m.Vertices))
	}
}

func TestNode_Hierarchy(t *testing.T) {
	root := Group("root")
	a := NewNode("a", Geometry{}, 0)
	b := NewNode("b", Geometry{}, 0)
	root.AddChild(a)
	a.AddChild(b)

	if found, ok := root.Find("b"); !ok || found != b {
		t.Fatal("Find did not return nested child")
	}

	// Re-parenting removes the node from its old parent
	root.AddChild(b)
	if len(a.Children) != 0 || b.Parent != root {
		t.Errorf("re-parent failed: a.children=%d parentIsRoot=%v", len(a.Children), b.Parent == root)
	}

	b.Detach()
	if b.Parent != nil || len(root.Children) != 1 {
		t.Error("Detach left dangling links")
	}
}

func TestNode_WorldTransform(t *testing.T) {
	chassis := NewNode("chassis", Geometry{}, 0)
	chassis.Position = mgl64.Vec3{10, 0, 0}
	chassis.Orientation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})

	wheel := NewNode("wheel", Geometry{}, 0)
	wheel.Position = mgl64.Vec3{0, 0, 2}
	chassis.AddChild(wheel)

	got := wheel.WorldTransform().Position
	want := mgl64.Vec3{12, 0, 0}
	if !got.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("world position = %v, want %v", got, want)
	}
}

func TestNode_RotateX(t *testing.T) {
	n := NewNode("w", Geometry{}, 0)
	n.RotateX(-math.Pi / 2)
	got := n.Orientation.Rotate(mgl64.Vec3{0, 1, 0})
	if !got.ApproxEqualThreshold(mgl64.Vec3{0, 0, -1}, 1e-9) {
		t.Errorf("rotated up = %v", got)
	}
}

func TestScene_WalkAndLen(t *testing.T) {
	s := New()
	parent := NewNode("p", Geometry{}, 0)
	parent.AddChild(NewNode("c", Geometry{}, 0))
	s.Add(parent, NewNode("q", Geometry{}, 0))
	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
	s.Remove(parent)
	if s.Len() != 1 {
		t.Errorf("Len after remove = %d, want 1", s.Len())
	}
}

func TestGeometry_FootprintOffset(t *testing.T) {
	g := Geometry{Kind: GeometryBox, HalfExtent: mgl64.Vec3{1, 1, 1}, Offset: mgl64.Vec3{0, 5, 0}}
	for _, p := range g.Footprint() {
		if p.Y() < 4 || p.Y() > 6 {
			t.Fatalf("offset not applied: %v", p)
		}
	}
	if (Geometry{}).Footprint() != nil {
		t.Error("empty geometry should have no footprint")
	}
}
