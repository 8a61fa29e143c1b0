package arcade

import "github.com/lixenwraith/vi-rally/physics"

// LayerFilter is a symmetric layer-pair collision table
type LayerFilter struct {
	n     int
	pairs []bool
}

// NewLayerFilter creates a filter where no pair collides
func NewLayerFilter(numLayers int) *LayerFilter {
	return &LayerFilter{n: numLayers, pairs: make([]bool, numLayers*numLayers)}
}

// DefaultLayerFilter lets moving objects hit everything and keeps static geometry from testing itself
func DefaultLayerFilter() *LayerFilter {
	f := NewLayerFilter(physics.NumLayers)
	f.Enable(physics.LayerNonMoving, physics.LayerMoving)
	f.Enable(physics.LayerMoving, physics.LayerMoving)
	return f
}

// Enable allows a and b to collide
func (f *LayerFilter) Enable(a, b physics.Layer) {
	f.set(a, b, true)
}

// Disable prevents a and b from colliding
func (f *LayerFilter) Disable(a, b physics.Layer) {
	f.set(a, b, false)
}

func (f *LayerFilter) set(a, b physics.Layer, v bool) {
	if int(a) >= f.n || int(b) >= f.n {
		return
	}
	f.pairs[int(a)*f.n+int(b)] = v
	f.pairs[int(b)*f.n+int(a)] = v
}

// ShouldCollide reports whether layers a and b interact, unknown layers never do
func (f *LayerFilter) ShouldCollide(a, b physics.Layer) bool {
	if int(a) >= f.n || int(b) >= f.n {
		return false
	}
	return f.pairs[int(a)*f.n+int(b)]
}
