package engine

import (
	"context"
	"errors"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-rally/input"
	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/status"
	"github.com/lixenwraith/vi-rally/vehicle"
)

// FrameObserver is notified after every frame, paused frames included
type FrameObserver interface {
	OnFrame(ctx context.Context, reg *status.Registry)
}

// Controls receives the non-driving actions
type Controls struct {
	// ToggleCamera returns the new camera mode name
	ToggleCamera func() string
	// ToggleMute returns true when muted afterwards
	ToggleMute func() bool
}

// Game runs the per-frame pipeline: input, driver, step, sync, observers
type Game struct {
	world   physics.World
	loop    *Loop
	tracker *input.Tracker
	driver  *vehicle.Driver
	player  *vehicle.Vehicle

	clock    *PausableClock
	state    *GameState
	registry *status.Registry
	controls Controls

	observers []FrameObserver
	maxDelta  time.Duration

	log     zerolog.Logger
	sampled zerolog.Logger

	frames  int64
	skipped int64
}

// GameOptions collects Game dependencies
type GameOptions struct {
	World    physics.World
	Loop     *Loop
	Tracker  *input.Tracker
	Player   *vehicle.Vehicle
	Clock    *PausableClock
	State    *GameState
	Registry *status.Registry
	Controls Controls
	Logger   zerolog.Logger
	// Sampled is used on per-frame error paths, defaults to Logger
	Sampled *zerolog.Logger
	// MaxFrameDelta caps the real time handed to one frame by Run, zero passes it through
	MaxFrameDelta time.Duration
}

func NewGame(opts GameOptions) *Game {
	g := &Game{
		world:    opts.World,
		loop:     opts.Loop,
		tracker:  opts.Tracker,
		driver:   vehicle.NewDriver(),
		player:   opts.Player,
		clock:    opts.Clock,
		state:    opts.State,
		registry: opts.Registry,
		controls: opts.Controls,
		maxDelta: opts.MaxFrameDelta,
		log:      opts.Logger.With().Str("component", "game").Logger(),
	}
	if g.clock == nil {
		g.clock = NewPausableClock(nil)
	}
	if g.state == nil {
		g.state = &GameState{}
	}
	if g.registry == nil {
		g.registry = status.NewRegistry()
	}
	if opts.Sampled != nil {
		g.sampled = *opts.Sampled
	} else {
		g.sampled = g.log
	}
	return g
}

// AddObserver appends o to the post-frame observers
func (g *Game) AddObserver(o FrameObserver) {
	g.observers = append(g.observers, o)
}

func (g *Game) Registry() *status.Registry { return g.registry }
func (g *Game) State() *GameState          { return g.state }
func (g *Game) Clock() *PausableClock      { return g.clock }
func (g *Game) Driver() *vehicle.Driver    { return g.driver }

// HandleEvent feeds a terminal event to the tracker
func (g *Game) HandleEvent(ev tcell.Event) {
	g.tracker.HandleEvent(ev)
}

// Frame runs one frame of dt seconds and returns false once quit was requested
func (g *Game) Frame(ctx context.Context, dt float64) bool {
	for _, a := range g.tracker.Triggers() {
		switch a {
		case input.ActionQuit:
			return false
		case input.ActionPause:
			paused := g.clock.Toggle()
			g.tracker.Reset()
			g.log.Info().Bool("paused", paused).Msg("pause toggled")
		case input.ActionCamera:
			if g.controls.ToggleCamera != nil {
				g.registry.Strings.Get(status.KeyCamera).Store(g.controls.ToggleCamera())
			}
		case input.ActionMute:
			if g.controls.ToggleMute != nil {
				g.registry.Bools.Get(status.KeyMuted).Store(g.controls.ToggleMute())
			}
		}
	}

	paused := g.clock.IsPaused()
	if !paused && g.state.State() != StateError {
		g.step(ctx, dt)
	}

	g.registry.Bools.Get(status.KeyPaused).Store(paused)
	g.registry.Strings.Get(status.KeyState).Store(g.state.State().String())
	for _, o := range g.observers {
		o.OnFrame(ctx, g.registry)
	}
	return true
}

func (g *Game) step(ctx context.Context, dt float64) {
	var cmd vehicle.DriverCommand
	if g.player != nil {
		cmd = g.driver.Update(g.tracker.Snapshot(), g.player.Chassis())
		vehicle.Apply(g.world, g.player, cmd)
	}

	start := time.Now()
	substeps, err := g.loop.Tick(ctx, dt)
	if err != nil {
		g.skipped++
		g.registry.Ints.Get(status.KeySkippedFrames).Store(g.skipped)
		g.sampled.Error().Err(err).Int64("frame", g.frames).Msg("tick failed, frame skipped")
		if errors.Is(err, physics.ErrNotInitialized) {
			g.state.Set(StateError, err.Error())
		}
		return
	}
	g.frames++

	r := g.registry
	r.Ints.Get(status.KeyFrames).Store(g.frames)
	r.Ints.Get(status.KeySubsteps).Store(int64(substeps))
	r.Floats.Get(status.KeyStepMillis).Set(float64(time.Since(start).Microseconds()) / 1000)
	r.Floats.Get(status.KeyThrottle).Set(cmd.Throttle)
	r.Floats.Get(status.KeySteer).Set(cmd.Steer)
	r.Floats.Get(status.KeyBrake).Set(cmd.Brake)
	r.Floats.Get(status.KeyHandbrake).Set(cmd.Handbrake)
	if g.player != nil {
		r.Floats.Get(status.KeyRPM).Set(g.player.RPM())
		r.Floats.Get(status.KeySpeed).Set(g.player.Speed())
		r.Ints.Get(status.KeyGear).Store(int64(g.player.Gear()))
	}
}

// Run drives frames at the given interval until ctx ends, quit is pressed or events closes
func (g *Game) Run(ctx context.Context, events <-chan tcell.Event, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := g.clock.RealTime()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			g.HandleEvent(ev)
		case <-ticker.C:
			now := g.clock.RealTime()
			dt := now.Sub(last).Seconds()
			last = now
			if !g.Frame(ctx, clampDelta(dt, g.maxDelta)) {
				return nil
			}
		}
	}
}

// clampDelta limits dt to max seconds, a non-positive max leaves dt alone
func clampDelta(dt float64, max time.Duration) float64 {
	if max > 0 && dt > max.Seconds() {
		return max.Seconds()
	}
	return dt
}
