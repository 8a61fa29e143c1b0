package engine

import (
	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-rally/body"
	"github.com/lixenwraith/vi-rally/physics"
)

type shutdownStage uint8

const (
	stageRunning shutdownStage = iota
	stageVehicles
	stageDynamic
	stageStatic
	stageScratch
	stageWorld
	stageDone
)

// Lifecycle tears the simulation down in dependency order
type Lifecycle struct {
	world    physics.World
	registry *body.Registry
	loop     *Loop
	log      zerolog.Logger

	stage shutdownStage
	err   error
}

func NewLifecycle(world physics.World, registry *body.Registry, loop *Loop, logger zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		world:    world,
		registry: registry,
		loop:     loop,
		log:      logger.With().Str("component", "lifecycle").Logger(),
	}
}

// Shutdown releases vehicles, bodies, scratch buffers and the world
// Safe to call repeatedly, each stage runs at most once
func (lc *Lifecycle) Shutdown() error {
	for lc.stage < stageDone {
		lc.stage++
		switch lc.stage {
		case stageVehicles:
			lc.releaseVehicles()
		case stageDynamic:
			n := lc.releasePairs(lc.registry.DrainDynamic())
			lc.log.Debug().Int("count", n).Msg("dynamic bodies released")
		case stageStatic:
			n := lc.releasePairs(lc.registry.DrainStatic())
			lc.log.Debug().Int("count", n).Msg("static bodies released")
		case stageScratch:
			lc.loop.release()
		case stageWorld:
			if err := lc.world.Close(); err != nil {
				lc.err = err
				lc.log.Error().Err(err).Msg("world close failed")
			}
		}
	}
	return lc.err
}

// Done reports whether Shutdown has completed
func (lc *Lifecycle) Done() bool { return lc.stage == stageDone }

func (lc *Lifecycle) releaseVehicles() {
	for _, v := range lc.loop.Vehicles() {
		c := v.Constraint()
		lc.world.RemoveStepListener(v.Listener())
		c.Destroy()
		lc.world.RemoveConstraint(c)
		for _, w := range v.Wheels() {
			w.Detach()
		}
	}
}

func (lc *Lifecycle) releasePairs(pairs []body.Pair) int {
	for _, p := range pairs {
		id := p.Body.ID()
		lc.world.RemoveBody(id)
		lc.world.DestroyBody(id)
		p.Proxy.Detach()
		p.Proxy.Body = physics.InvalidBodyID
	}
	return len(pairs)
}
