package render

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/physics/physicstest"
	"github.com/lixenwraith/vi-rally/scene"
	"github.com/lixenwraith/vi-rally/status"
)

type subject struct {
	body  *physicstest.Body
	speed float64
}

func (s subject) Chassis() physics.Body { return s.body }
func (s subject) Speed() float64        { return s.speed }

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func rowText(s tcell.Screen, y int) string {
	w, _ := s.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := s.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func TestCamera_FollowOffset(t *testing.T) {
	tests := []struct {
		speed, wantY float64
	}{
		{0, 12},
		{10, 15},
		{100, 20},
	}
	for _, tt := range tests {
		if got := FollowOffset(tt.speed); got.Y() != tt.wantY || got.Z() != -FollowDistance {
			t.Errorf("FollowOffset(%v) = %v", tt.speed, got)
		}
	}
}

func TestCamera_UpdateAndToggle(t *testing.T) {
	c := NewCamera()
	pos := mgl64.Vec3{5, 0, 5}
	// Yaw 180: behind the car is +Z
	rot := mgl64.QuatRotate(math.Pi, mgl64.Vec3{0, 1, 0})
	c.Update(pos, rot, 0)
	want := mgl64.Vec3{5, 12, 15}
	if !c.Eye.ApproxEqualThreshold(want, 1e-9) {
		t.Fatalf("first update eye = %v, want %v", c.Eye, want)
	}

	// Subsequent updates glide a tenth of the way
	c.Update(pos.Add(mgl64.Vec3{0, 0, 10}), rot, 0)
	if got := c.Eye.Z(); math.Abs(got-16) > 1e-9 {
		t.Errorf("glide eye z = %v, want 16", got)
	}

	if c.Toggle() != CameraOverview || c.Mode.String() != "overview" {
		t.Fatal("toggle to overview")
	}
	c.Update(pos, rot, 0)
	if c.Height() < MinClearance {
		t.Errorf("height %v under clearance", c.Height())
	}
	if c.Center() != pos {
		t.Errorf("overview center = %v", c.Center())
	}
	if c.Toggle() != CameraFollow {
		t.Error("toggle back")
	}
}

func TestCamera_KeepsClearance(t *testing.T) {
	c := NewCamera()
	// Upside down: the follow offset points below the car
	rot := mgl64.QuatRotate(math.Pi, mgl64.Vec3{0, 0, 1})
	c.Update(mgl64.Vec3{}, rot, 0)
	if c.Eye.Y() < MinClearance {
		t.Errorf("eye y = %v", c.Eye.Y())
	}
}

func TestViewport_Project(t *testing.T) {
	vp := Viewport{Width: 80, Height: 22, Top: 2, Center: mgl64.Vec3{0, 0, 0}, MetersPerRow: 1}
	tests := []struct {
		name string
		p    mgl64.Vec3
		want Point
	}{
		{"center", mgl64.Vec3{0, 0, 0}, Point{40, 12}},
		{"forward is up", mgl64.Vec3{0, 0, 3}, Point{40, 9}},
		{"left is left", mgl64.Vec3{2, 0, 0}, Point{36, 12}},
		{"height ignored", mgl64.Vec3{0, 50, 0}, Point{40, 12}},
	}
	for _, tt := range tests {
		if got := vp.Project(tt.p); got != tt.want {
			t.Errorf("%s: Project = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestHullAndInside(t *testing.T) {
	sq := []Point{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {2, 2}}
	h := hull(sq)
	if len(h) != 4 {
		t.Fatalf("hull = %v", h)
	}
	if !inside(h, Point{1, 1}) || inside(h, Point{5, 1}) {
		t.Error("inside wrong")
	}
	n := 0
	cells(h, 10, 10, func(x, y int) { n++ })
	if n != 16 {
		t.Errorf("cells = %d, want 16", n)
	}
}

func TestCells_DegenerateMarksPoints(t *testing.T) {
	n := 0
	cells([]Point{{1.2, 1.5}, {1.3, 1.5}}, 5, 5, func(x, y int) {
		if x != 1 || y != 1 {
			t.Errorf("cell %d,%d", x, y)
		}
		n++
	})
	if n == 0 {
		t.Error("no cells marked")
	}
}

func TestRenderer_DrawsSceneAndHUD(t *testing.T) {
	scr := newScreen(t, 80, 24)
	sc := scene.New()
	car := scene.NewNode("car", scene.Geometry{Kind: scene.GeometryBox, HalfExtent: mgl64.Vec3{1, 0.5, 2}}, 0xff0000)
	sc.Add(car)

	body := &physicstest.Body{Rot: mgl64.QuatIdent()}
	r := NewRenderer(scr, sc, subject{body: body})
	r.camera.Mode = CameraOverview

	reg := status.NewRegistry()
	reg.Floats.Get(status.KeyRPM).Set(4200)
	reg.Ints.Get(status.KeyGear).Store(3)
	reg.Ints.Get(status.KeySubsteps).Store(2)
	reg.Strings.Get(status.KeyState).Store("ready")
	r.OnFrame(context.Background(), reg)

	top := rowText(scr, 0)
	for _, want := range []string{"RPM  4200", "GEAR 3", "SUB 2"} {
		if !strings.Contains(top, want) {
			t.Errorf("HUD %q missing %q", top, want)
		}
	}
	if second := rowText(scr, 1); !strings.Contains(second, "READY") || !strings.Contains(second, "OVERVIEW") {
		t.Errorf("status row = %q", second)
	}

	x, y, ok := r.WorldToCell(mgl64.Vec3{})
	if !ok {
		t.Fatal("car off screen")
	}
	_, _, style, _ := scr.GetContent(x, y)
	_, bg, _ := style.Decompose()
	if bg == RGBBackground.Tcell() {
		t.Error("car cell not drawn")
	}
}

func TestRenderer_PauseBanner(t *testing.T) {
	scr := newScreen(t, 40, 12)
	r := NewRenderer(scr, scene.New(), nil)
	reg := status.NewRegistry()
	reg.Bools.Get(status.KeyPaused).Store(true)
	r.OnFrame(context.Background(), reg)
	if !strings.Contains(rowText(scr, 6), "PAUSED") {
		t.Errorf("row 6 = %q", rowText(scr, 6))
	}
	if r.ToggleCamera() != "overview" {
		t.Error("ToggleCamera")
	}
}

func TestGearLabel(t *testing.T) {
	for g, want := range map[int64]string{-1: "R", 0: "N", 4: "4"} {
		if got := gearLabel(g); got != want {
			t.Errorf("gearLabel(%d) = %q", g, got)
		}
	}
}

func TestParseCameraMode(t *testing.T) {
	tests := []struct {
		in      string
		want    CameraMode
		wantErr bool
	}{
		{"", CameraFollow, false},
		{"follow", CameraFollow, false},
		{" Overview ", CameraOverview, false},
		{"orbit", CameraFollow, true},
	}
	for _, tt := range tests {
		got, err := ParseCameraMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCameraMode(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseCameraMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
