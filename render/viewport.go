package render

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// CellAspect is the height of a terminal cell over its width
const CellAspect = 2.0

// Point is a screen position in fractional cells
type Point struct {
	X, Y float64
}

// Viewport maps the world ground plane to screen cells, +Z is up the screen and -X to the right
type Viewport struct {
	Width, Height int
	// Top reserves rows for the HUD
	Top    int
	Center mgl64.Vec3
	// MetersPerRow is the world distance covered by one row
	MetersPerRow float64
}

// Project maps a world point onto the screen
func (v Viewport) Project(p mgl64.Vec3) Point {
	rows := float64(v.Height - v.Top)
	dx := -(p.X() - v.Center.X()) / v.MetersPerRow * CellAspect
	dz := (p.Z() - v.Center.Z()) / v.MetersPerRow
	return Point{
		X: float64(v.Width)/2 + dx,
		Y: float64(v.Top) + rows/2 - dz,
	}
}

// hull returns the convex hull of pts in counter-clockwise order (monotone chain)
func hull(pts []Point) []Point {
	if len(pts) < 3 {
		return append([]Point(nil), pts...)
	}
	ps := append([]Point(nil), pts...)
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].X != ps[j].X {
			return ps[i].X < ps[j].X
		}
		return ps[i].Y < ps[j].Y
	})
	cross := func(o, a, b Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}
	out := make([]Point, 0, 2*len(ps))
	for _, p := range ps {
		for len(out) >= 2 && cross(out[len(out)-2], out[len(out)-1], p) <= 0 {
			out = out[:len(out)-1]
		}
		out = append(out, p)
	}
	lower := len(out) + 1
	for i := len(ps) - 2; i >= 0; i-- {
		p := ps[i]
		for len(out) >= lower && cross(out[len(out)-2], out[len(out)-1], p) <= 0 {
			out = out[:len(out)-1]
		}
		out = append(out, p)
	}
	return out[:len(out)-1]
}

// inside tests a point against a counter-clockwise convex polygon
func inside(poly []Point, p Point) bool {
	if len(poly) < 3 {
		return false
	}
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		if (b.X-a.X)*(p.Y-a.Y)-(b.Y-a.Y)*(p.X-a.X) < 0 {
			return false
		}
	}
	return true
}

// cells calls fn for every screen cell whose center lies in poly, clipped to w x h
// Degenerate polygons still mark the cells their points fall in
func cells(poly []Point, w, h int, fn func(x, y int)) {
	if len(poly) == 0 {
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range poly {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	x0, x1 := clampInt(int(math.Floor(minX)), 0, w-1), clampInt(int(math.Floor(maxX)), 0, w-1)
	y0, y1 := clampInt(int(math.Floor(minY)), 0, h-1), clampInt(int(math.Floor(maxY)), 0, h-1)
	if maxX < 0 || maxY < 0 || minX >= float64(w) || minY >= float64(h) {
		return
	}

	hit := false
	if len(poly) >= 3 {
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				if inside(poly, Point{float64(x) + 0.5, float64(y) + 0.5}) {
					fn(x, y)
					hit = true
				}
			}
		}
	}
	if !hit {
		// Thinner than a cell: mark where the points land
		for _, p := range poly {
			x, y := int(math.Floor(p.X)), int(math.Floor(p.Y))
			if x >= 0 && x < w && y >= 0 && y < h {
				fn(x, y)
			}
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
