package arcade

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/physics"
)

// rayHit is the closest surface found by castRay
type rayHit struct {
	body     *body
	distance float64
	point    mgl64.Vec3
	normal   mgl64.Vec3
}

// castRay finds the nearest added body along dir (unit) within maxDist
func (w *World) castRay(origin, dir mgl64.Vec3, maxDist float64, layer physics.Layer, exclude *body) (rayHit, bool) {
	best := rayHit{distance: maxDist}
	found := false
	end := origin.Add(dir.Mul(maxDist))
	segment := physics.AABB{
		Min: mgl64.Vec3{min(origin[0], end[0]), min(origin[1], end[1]), min(origin[2], end[2])},
		Max: mgl64.Vec3{max(origin[0], end[0]), max(origin[1], end[1]), max(origin[2], end[2])},
	}

	for _, b := range w.order {
		if b == exclude || !b.added || !w.filter.ShouldCollide(layer, b.layer) {
			continue
		}
		if !segment.Overlaps(b.worldBounds()) {
			continue
		}
		inv := b.rot.Conjugate()
		lo := inv.Rotate(origin.Sub(b.pos))
		ld := inv.Rotate(dir)
		t, n, ok := b.shape.raycast(lo, ld, best.distance)
		if !ok || t > best.distance {
			continue
		}
		best = rayHit{
			body:     b,
			distance: t,
			point:    origin.Add(dir.Mul(t)),
			normal:   b.rot.Rotate(n),
		}
		found = true
	}
	return best, found
}

// CastRay exposes castRay for tools and tests, it reports the hit body and distance
func (w *World) CastRay(origin, dir mgl64.Vec3, maxDist float64, layer physics.Layer) (physics.BodyID, float64, bool) {
	hit, ok := w.castRay(origin, dir.Normalize(), maxDist, layer, nil)
	if !ok {
		return physics.InvalidBodyID, 0, false
	}
	return hit.body.id, hit.distance, true
}
