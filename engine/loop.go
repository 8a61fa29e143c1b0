package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/body"
	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/vehicle"
)

// SubstepThreshold is the frame time above which a tick is split in two
const SubstepThreshold = 1.0 / 55.0

// Substeps returns the substep count for a frame of dt seconds
func Substeps(dt float64) int {
	if dt > SubstepThreshold {
		return 2
	}
	return 1
}

// Loop steps the world and mirrors body state onto render proxies
// Tick is called from the frame goroutine only
type Loop struct {
	world    physics.World
	registry *body.Registry
	vehicles []*vehicle.Vehicle
	metrics  *Metrics

	// scratch holds soft-body vertices in body space, rewritten every tick
	scratch []mgl64.Vec3

	lastSubsteps int
}

func NewLoop(world physics.World, registry *body.Registry, metrics *Metrics) *Loop {
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Loop{world: world, registry: registry, metrics: metrics}
}

// AddVehicle registers a vehicle whose wheels are synced each tick
func (l *Loop) AddVehicle(v *vehicle.Vehicle) {
	l.vehicles = append(l.vehicles, v)
}

func (l *Loop) Vehicles() []*vehicle.Vehicle { return l.vehicles }

// LastSubsteps is the substep count of the most recent successful tick
func (l *Loop) LastSubsteps() int { return l.lastSubsteps }

// Tick advances the simulation by dt and syncs every tracked proxy once
func (l *Loop) Tick(ctx context.Context, dt float64) (int, error) {
	if !l.world.Initialized() {
		return 0, physics.ErrNotInitialized
	}

	start := time.Now()
	substeps := Substeps(dt)
	if err := l.world.Step(dt, substeps); err != nil {
		l.metrics.recordSkip(ctx)
		return 0, fmt.Errorf("step: %w", err)
	}

	for _, p := range l.registry.Dynamic() {
		l.syncPair(p)
	}

	for i, v := range l.vehicles {
		if err := v.SyncWheels(); err != nil {
			l.metrics.recordSkip(ctx)
			return substeps, fmt.Errorf("vehicle %d: %w", i, err)
		}
	}

	l.lastSubsteps = substeps
	l.metrics.recordTick(ctx, substeps, time.Since(start))
	return substeps, nil
}

// RecordSkip counts a frame dropped by the caller
func (l *Loop) RecordSkip(ctx context.Context) {
	l.metrics.recordSkip(ctx)
}

func (l *Loop) syncPair(p body.Pair) {
	pos, rot := p.Body.Position(), p.Body.Rotation()
	p.Proxy.Position = pos
	p.Proxy.Orientation = rot

	soft, ok := p.Body.(physics.SoftBody)
	if !ok || p.Body.Type() != physics.BodySoft {
		return
	}
	verts := soft.Vertices()
	if cap(l.scratch) < len(verts) {
		l.scratch = make([]mgl64.Vec3, len(verts))
	}
	l.scratch = l.scratch[:len(verts)]
	inv := rot.Inverse()
	for i, v := range verts {
		l.scratch[i] = inv.Rotate(v.Sub(pos))
	}

	g := &p.Proxy.Geometry
	if cap(g.Vertices) < len(l.scratch) {
		g.Vertices = make([]mgl64.Vec3, len(l.scratch))
	}
	g.Vertices = g.Vertices[:len(l.scratch)]
	copy(g.Vertices, l.scratch)
}

// release drops the scratch buffers, the loop must not tick afterwards
func (l *Loop) release() {
	l.scratch = nil
	l.vehicles = nil
}
