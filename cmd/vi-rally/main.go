package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-rally/audio"
	"github.com/lixenwraith/vi-rally/body"
	"github.com/lixenwraith/vi-rally/config"
	"github.com/lixenwraith/vi-rally/engine"
	"github.com/lixenwraith/vi-rally/input"
	"github.com/lixenwraith/vi-rally/logging"
	"github.com/lixenwraith/vi-rally/physics/arcade"
	"github.com/lixenwraith/vi-rally/render"
	"github.com/lixenwraith/vi-rally/scene"
	"github.com/lixenwraith/vi-rally/service"
	"github.com/lixenwraith/vi-rally/status"
	"github.com/lixenwraith/vi-rally/telemetry"
	"github.com/lixenwraith/vi-rally/terminal"
	"github.com/lixenwraith/vi-rally/track"
	"github.com/lixenwraith/vi-rally/vehicle"
)

var (
	configFlag    = flag.String("config", "", "Config file (toml, json or yaml)")
	debugFlag     = flag.Bool("debug", false, "Write logs to the logs directory")
	colorModeFlag = flag.String("color", "auto", "Color mode: auto, truecolor, 256")
)

func main() {
	// Panic Recovery: Ensure terminal is reset even if the game crashes
	defer func() {
		if r := recover(); r != nil {
			terminal.Crash("VI-RALLY", r)
		}
	}()

	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, logFile, err := setupLogging(cfg, *debugFlag, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	err = run(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("game exited with error")
	}
	if logFile != nil {
		logFile.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "vi-rally: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	colorMode, err := terminal.ParseColorMode(*colorModeFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := &engine.GameState{}
	state.Set(engine.StateLoading, "")

	// Physics world and the body/proxy bookkeeping around it
	world := arcade.NewWorld(cfg.World.Settings(logger))
	sc := scene.New()
	pairs := body.NewRegistry()
	factory := body.NewFactory(world, sc, pairs, logger)

	metrics, err := engine.NewMetrics(nil)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	loop := engine.NewLoop(world, pairs, metrics)
	lifecycle := engine.NewLifecycle(world, pairs, loop, logger)
	defer func() {
		if err := lifecycle.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("shutdown incomplete")
		}
	}()

	player, err := load(ctx, cfg, world, factory, pairs, logger)
	if err != nil {
		state.Set(engine.StateError, err.Error())
		return err
	}
	loop.AddVehicle(player)

	// Services
	statusSvc := status.NewService()
	sound := audio.NewEngineSound(cfg.Audio, logger)
	sink := telemetry.New(cfg.Telemetry, logger)

	hub := service.NewHub(logger)
	for _, svc := range []service.Service{statusSvc, sound, sink} {
		if err := hub.Register(svc); err != nil {
			return err
		}
	}
	if err := hub.InitAll(ctx); err != nil {
		return err
	}
	if err := hub.StartAll(); err != nil {
		hub.StopAll()
		return err
	}
	defer hub.StopAll()

	keys, err := cfg.Input.KeyTable()
	if err != nil {
		return err
	}
	// Hold windows run on real time so a paused clock does not pin keys down
	tracker := input.NewTracker(keys, engine.NewMonotonicTimeProvider(), cfg.Input.InitialHold, cfg.Input.RepeatHold)

	// Initialize terminal
	terminal.ApplyColorMode(colorMode)
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	// Normal exit terminal cleanup
	defer screen.Fini()
	screen.HideCursor()

	renderer := render.NewRenderer(screen, sc, player)
	renderer.Camera().Mode = cfg.Render.CameraMode()

	reg := statusSvc.Registry()
	reg.Strings.Get(status.KeyCamera).Store(renderer.Camera().Mode.String())
	reg.Bools.Get(status.KeyMuted).Store(sound.IsMuted())

	sampled := logging.Sampled(logger)
	game := engine.NewGame(engine.GameOptions{
		World:    world,
		Loop:     loop,
		Tracker:  tracker,
		Player:   player,
		State:    state,
		Registry: reg,
		Controls: engine.Controls{
			ToggleCamera: renderer.ToggleCamera,
			ToggleMute:   sound.ToggleMute,
		},
		Logger:        logger,
		Sampled:       &sampled,
		MaxFrameDelta: cfg.Render.MaxFrameDelta,
	})
	game.AddObserver(renderer)
	game.AddObserver(sound)
	game.AddObserver(sink)

	events := make(chan tcell.Event, 256)
	// Input polling uses raw goroutine as it interacts directly with terminal
	go func() {
		defer func() {
			if r := recover(); r != nil {
				terminal.Crash("EVENT POLLER", r)
			}
		}()
		for {
			ev := screen.PollEvent()
			// Fini makes PollEvent return nil
			if ev == nil {
				close(events)
				return
			}
			if _, ok := ev.(*tcell.EventResize); ok {
				screen.Sync()
			}
			events <- ev
		}
	}()

	state.Set(engine.StateReady, "")
	logger.Info().
		Int("fps", cfg.Render.FPS).
		Str("camera", renderer.Camera().Mode.String()).
		Str("color", colorMode.String()).
		Msg("game ready")

	err = game.Run(ctx, events, cfg.Render.Interval())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// load populates the track and attaches the player vehicle
func load(ctx context.Context, cfg *config.Config, world *arcade.World, factory *body.Factory, pairs *body.Registry, logger zerolog.Logger) (*vehicle.Vehicle, error) {
	tr, err := track.Load(cfg.Track.Path)
	if err != nil {
		return nil, err
	}
	if _, err := tr.Populate(ctx, factory, logger); err != nil {
		return nil, fmt.Errorf("populate track: %w", err)
	}

	chassis, err := factory.CreateBody(ctx, cfg.Vehicle.ChassisSpec())
	if err != nil {
		return nil, fmt.Errorf("create chassis: %w", err)
	}
	player, err := vehicle.NewBuilder(world, pairs, logger).Build(chassis, cfg.Vehicle.Config())
	if err != nil {
		return nil, fmt.Errorf("build vehicle: %w", err)
	}
	return player, nil
}
