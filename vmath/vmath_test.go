package vmath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestLinearCurve_Value(t *testing.T) {
	c := NewLinearCurve(
		CurvePoint{X: 1, Y: 10},
		CurvePoint{X: 0, Y: 0},
		CurvePoint{X: 2, Y: 10},
	)

	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"below range clamps", -5, 0},
		{"first point", 0, 0},
		{"midpoint", 0.5, 5},
		{"exact interior point", 1, 10},
		{"flat segment", 1.5, 10},
		{"above range clamps", 99, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Value(tt.x); !ApproxEqual(got, tt.want, 1e-12) {
				t.Errorf("Value(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestLinearCurve_SinglePoint(t *testing.T) {
	var c LinearCurve
	c.AddPoint(0.25, 6)
	c.Sort()

	for _, x := range []float64{0, 0.25, 10} {
		if got := c.Value(x); got != 6 {
			t.Errorf("Value(%v) = %v, want 6", x, got)
		}
	}
}

func TestLinearCurve_Empty(t *testing.T) {
	var c LinearCurve
	if got := c.Value(1); got != 0 {
		t.Errorf("empty curve Value = %v, want 0", got)
	}
}

func TestLinearCurve_CloneIsIndependent(t *testing.T) {
	c := NewLinearCurve(CurvePoint{0, 1}, CurvePoint{1, 2})
	d := c.Clone()
	d.Points[0].Y = 100
	if c.Points[0].Y != 1 {
		t.Errorf("clone shares storage with original")
	}
}

func TestToLocal_InvertsRotation(t *testing.T) {
	rot := mgl64.QuatRotate(math.Pi/2, AxisY)
	world := rot.Rotate(AxisZ)
	local := ToLocal(rot, world)
	if !local.ApproxEqualThreshold(AxisZ, 1e-9) {
		t.Errorf("ToLocal = %v, want %v", local, AxisZ)
	}
}

func TestQuatFromBasis_Identity(t *testing.T) {
	q := QuatFromBasis(AxisX, AxisY, AxisZ)
	if !q.ApproxEqualThreshold(mgl64.QuatIdent(), 1e-9) {
		t.Errorf("QuatFromBasis(identity axes) = %v", q)
	}
}

func TestIntegrateRotation_QuarterTurn(t *testing.T) {
	q := mgl64.QuatIdent()
	w := mgl64.Vec3{0, math.Pi / 2, 0}
	for i := 0; i < 1000; i++ {
		q = IntegrateRotation(q, w, 0.001)
	}
	got := q.Rotate(AxisZ)
	if !got.ApproxEqualThreshold(AxisX, 1e-2) {
		t.Errorf("after 90 deg yaw, forward = %v, want ~%v", got, AxisX)
	}
}

func TestMoveTowards(t *testing.T) {
	if got := MoveTowards(0, 10, 3); got != 3 {
		t.Errorf("MoveTowards step = %v", got)
	}
	if got := MoveTowards(9, 10, 3); got != 10 {
		t.Errorf("MoveTowards overshoot = %v", got)
	}
	if got := MoveTowards(0, -10, 4); got != -4 {
		t.Errorf("MoveTowards negative = %v", got)
	}
}
