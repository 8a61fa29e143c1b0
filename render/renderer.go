// Package render draws the scene top-down on a terminal screen with a HUD overlay
package render

import (
	"context"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/scene"
	"github.com/lixenwraith/vi-rally/status"
)

// HUDRows is the number of rows reserved at the top of the screen
const HUDRows = 2

// Subject is what the camera follows
type Subject interface {
	Chassis() physics.Body
	Speed() float64
}

// Renderer owns the screen and draws one frame per OnFrame call
type Renderer struct {
	mu      sync.Mutex
	screen  tcell.Screen
	scene   *scene.Scene
	camera  *Camera
	subject Subject
	hud     *HUD
}

func NewRenderer(screen tcell.Screen, sc *scene.Scene, subject Subject) *Renderer {
	return &Renderer{
		screen:  screen,
		scene:   sc,
		camera:  NewCamera(),
		subject: subject,
		hud:     NewHUD(),
	}
}

func (r *Renderer) Camera() *Camera { return r.camera }

// ToggleCamera switches the camera mode and returns its name
func (r *Renderer) ToggleCamera() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.camera.Toggle().String()
}

// OnFrame updates the camera, draws the scene and HUD, and shows the result
func (r *Renderer) OnFrame(_ context.Context, reg *status.Registry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.subject != nil {
		ch := r.subject.Chassis()
		r.camera.Update(ch.Position(), ch.Rotation(), r.subject.Speed())
	}
	r.draw(reg)
	r.screen.Show()
}

// Viewport returns the projection for the current screen size
func (r *Renderer) Viewport() Viewport {
	w, h := r.screen.Size()
	return Viewport{
		Width:        w,
		Height:       h,
		Top:          HUDRows,
		Center:       r.camera.Center(),
		MetersPerRow: r.camera.MetersPerRow(),
	}
}

func (r *Renderer) draw(reg *status.Registry) {
	bg := tcell.StyleDefault.Background(RGBBackground.Tcell())
	r.screen.Fill(' ', bg)

	vp := r.Viewport()
	if vp.Width <= 0 || vp.Height <= vp.Top {
		return
	}
	r.scene.Walk(func(n *scene.Node) bool {
		if !n.Visible {
			return false
		}
		r.drawNode(vp, n)
		return true
	})
	r.hud.Draw(r.screen, reg, r.camera.Mode)
}

func (r *Renderer) drawNode(vp Viewport, n *scene.Node) {
	foot := n.Geometry.Footprint()
	if len(foot) == 0 {
		return
	}
	wt := n.WorldTransform()
	pts := make([]Point, len(foot))
	top := -1e18
	for i, p := range foot {
		wp := wt.Apply(p.Mul(scale(n)))
		pts[i] = vp.Project(wp)
		if wp.Y() > top {
			top = wp.Y()
		}
	}
	color := Shade(HexRGB(n.Color), top-r.camera.Target.Y())

	switch n.Geometry.Kind {
	case scene.GeometryPoints:
		// Vertex clouds keep whatever is underneath as background
		for _, p := range pts {
			x, y := int(p.X), int(p.Y)
			if p.X < 0 || p.Y < float64(vp.Top) || x >= vp.Width || y >= vp.Height {
				continue
			}
			_, _, under, _ := r.screen.GetContent(x, y)
			r.screen.SetContent(x, y, '•', nil, under.Foreground(color.Tcell()))
		}
	default:
		style := tcell.StyleDefault.Background(color.Tcell()).Foreground(color.Scale(0.6).Tcell())
		glyph := glyphFor(n.Geometry.Kind)
		cells(hull(pts), vp.Width, vp.Height, func(x, y int) {
			if y < vp.Top {
				return
			}
			r.screen.SetContent(x, y, glyph, nil, style)
		})
	}
}

func scale(n *scene.Node) float64 {
	if n.Scale == 0 {
		return 1
	}
	return n.Scale
}

func glyphFor(k scene.GeometryKind) rune {
	switch k {
	case scene.GeometryCylinder:
		return '▪'
	case scene.GeometrySphere:
		return '○'
	}
	return ' '
}

// WorldToCell exposes the projection for hit testing, ok is false off screen
func (r *Renderer) WorldToCell(p mgl64.Vec3) (x, y int, ok bool) {
	vp := r.Viewport()
	sp := vp.Project(p)
	x, y = int(sp.X), int(sp.Y)
	ok = sp.X >= 0 && sp.Y >= float64(vp.Top) && x < vp.Width && y < vp.Height
	return x, y, ok
}
