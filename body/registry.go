package body

import (
	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/scene"
)

// Pair binds a body to the proxy that mirrors it
type Pair struct {
	Body  physics.Body
	Proxy *scene.Node
}

// Registry tracks live body/proxy pairs, partitioned by motion kind
// Only the Factory adds and only the lifecycle drains
type Registry struct {
	static  []Pair
	dynamic []Pair
	proxies map[physics.BodyID]*scene.Node
}

func NewRegistry() *Registry {
	return &Registry{proxies: make(map[physics.BodyID]*scene.Node)}
}

func (r *Registry) track(p Pair) {
	if p.Body.Motion() == physics.MotionStatic {
		r.static = append(r.static, p)
	} else {
		r.dynamic = append(r.dynamic, p)
	}
	r.proxies[p.Body.ID()] = p.Proxy
}

// Static returns the static pairs, the slice must not be modified
func (r *Registry) Static() []Pair { return r.static }

// Dynamic returns the dynamic pairs, the slice must not be modified
func (r *Registry) Dynamic() []Pair { return r.dynamic }

// Proxy looks up the proxy bound to a body
func (r *Registry) Proxy(id physics.BodyID) (*scene.Node, bool) {
	n, ok := r.proxies[id]
	return n, ok
}

func (r *Registry) Len() int { return len(r.static) + len(r.dynamic) }

// DrainDynamic removes and returns all dynamic pairs
func (r *Registry) DrainDynamic() []Pair {
	out := r.dynamic
	r.dynamic = nil
	r.forget(out)
	return out
}

// DrainStatic removes and returns all static pairs
func (r *Registry) DrainStatic() []Pair {
	out := r.static
	r.static = nil
	r.forget(out)
	return out
}

func (r *Registry) forget(pairs []Pair) {
	for _, p := range pairs {
		delete(r.proxies, p.Body.ID())
	}
}
