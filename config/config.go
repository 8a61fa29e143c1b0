// Package config loads game settings from defaults, an optional file and VIRALLY_ environment variables
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/lixenwraith/vi-rally/audio"
	"github.com/lixenwraith/vi-rally/input"
	"github.com/lixenwraith/vi-rally/physics/arcade"
	"github.com/lixenwraith/vi-rally/render"
	"github.com/lixenwraith/vi-rally/telemetry"
	"github.com/lixenwraith/vi-rally/vehicle"
)

// EnvPrefix prefixes every environment override, world.max_bodies becomes VIRALLY_WORLD_MAX_BODIES
const EnvPrefix = "VIRALLY"

type Config struct {
	LogLevel string `mapstructure:"logLevel"`
	LogsDir  string `mapstructure:"logsDir"`

	World     WorldConfig      `mapstructure:"world"`
	Vehicle   vehicle.Preset   `mapstructure:"vehicle"`
	Input     InputConfig      `mapstructure:"input"`
	Audio     audio.Config     `mapstructure:"audio"`
	Render    RenderConfig     `mapstructure:"render"`
	Track     TrackConfig      `mapstructure:"track"`
	Telemetry telemetry.Config `mapstructure:"telemetry"`
	Logging   LoggingConfig    `mapstructure:"logging"`
}

// WorldConfig tunes the physics world
type WorldConfig struct {
	Gravity          []float64 `mapstructure:"gravity"`
	MaxBodies        int       `mapstructure:"max_bodies"`
	MaxWorkers       int       `mapstructure:"max_workers"`
	LinearDamping    float64   `mapstructure:"linear_damping"`
	AngularDamping   float64   `mapstructure:"angular_damping"`
	SleepSpeed       float64   `mapstructure:"sleep_speed"`
	SleepTime        float64   `mapstructure:"sleep_time"`
	Density          float64   `mapstructure:"density"`
	DefaultFriction  float64   `mapstructure:"default_friction"`
	SolverIterations int       `mapstructure:"solver_iterations"`
}

type InputConfig struct {
	InitialHold time.Duration `mapstructure:"initial_hold"`
	RepeatHold  time.Duration `mapstructure:"repeat_hold"`
	// Bindings maps key names to action names on top of the default table
	Bindings map[string]string `mapstructure:"bindings"`
}

type RenderConfig struct {
	FPS    int    `mapstructure:"fps"`
	Camera string `mapstructure:"camera"`
	// MaxFrameDelta caps the real time fed to one frame after a stall, 0 disables the cap
	MaxFrameDelta time.Duration `mapstructure:"max_frame_dt"`
}

type TrackConfig struct {
	// Path of a track file, empty loads the embedded default
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Graylog GraylogConfig `mapstructure:"graylog"`
}

type GraylogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

func worldDefaults() WorldConfig {
	s := arcade.DefaultSettings()
	return WorldConfig{
		Gravity:          []float64{s.Gravity.X(), s.Gravity.Y(), s.Gravity.Z()},
		MaxBodies:        s.MaxBodies,
		MaxWorkers:       s.MaxWorkers,
		LinearDamping:    s.LinearDamping,
		AngularDamping:   s.AngularDamping,
		SleepSpeed:       s.SleepSpeed,
		SleepTime:        s.SleepTime,
		Density:          s.Density,
		DefaultFriction:  s.DefaultFriction,
		SolverIterations: s.SolverIterations,
	}
}

// Load applies defaults, then the file at path if non-empty, then environment overrides
func Load(path string) (*Config, error) {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	if err := setStructDefaults("world", worldDefaults()); err != nil {
		return nil, err
	}
	if err := setStructDefaults("vehicle", vehicle.DefaultPreset()); err != nil {
		return nil, err
	}
	if err := setStructDefaults("audio", audio.DefaultConfig()); err != nil {
		return nil, err
	}
	if err := setStructDefaults("telemetry", telemetry.DefaultConfig()); err != nil {
		return nil, err
	}

	viper.SetDefault("input.initial_hold", input.DefaultInitialHold)
	viper.SetDefault("input.repeat_hold", input.DefaultRepeatHold)
	viper.SetDefault("input.bindings", map[string]string{})

	viper.SetDefault("render.fps", 60)
	viper.SetDefault("render.camera", "follow")
	viper.SetDefault("render.max_frame_dt", 100*time.Millisecond)

	viper.SetDefault("track.path", "")

	viper.SetDefault("logging.graylog.enabled", false)
	viper.SetDefault("logging.graylog.address", "localhost:12201")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setStructDefaults registers every field of v under prefix so env overrides reach nested keys
func setStructDefaults(prefix string, v any) error {
	m := make(map[string]any)
	if err := mapstructure.Decode(v, &m); err != nil {
		return fmt.Errorf("defaults for %s: %w", prefix, err)
	}
	for k, val := range m {
		viper.SetDefault(prefix+"."+k, val)
	}
	return nil
}

// Validate rejects settings the game cannot start with
func (c *Config) Validate() error {
	var errs []error
	if len(c.World.Gravity) != 3 {
		errs = append(errs, fmt.Errorf("world.gravity: want 3 components, got %d", len(c.World.Gravity)))
	}
	if c.World.MaxBodies <= 0 {
		errs = append(errs, fmt.Errorf("world.max_bodies must be positive"))
	}
	if c.Render.FPS <= 0 {
		errs = append(errs, fmt.Errorf("render.fps must be positive"))
	}
	if c.Render.MaxFrameDelta < 0 {
		errs = append(errs, fmt.Errorf("render.max_frame_dt must not be negative"))
	}
	if _, err := render.ParseCameraMode(c.Render.Camera); err != nil {
		errs = append(errs, fmt.Errorf("render.camera: %w", err))
	}
	if c.Input.InitialHold <= 0 || c.Input.RepeatHold <= 0 {
		errs = append(errs, fmt.Errorf("input hold windows must be positive"))
	}
	if len(c.Vehicle.Spawn) != 3 {
		errs = append(errs, fmt.Errorf("vehicle.spawn: want 3 components, got %d", len(c.Vehicle.Spawn)))
	}
	return errors.Join(errs...)
}

// Settings builds physics world settings, logger is attached as the world logger
func (w WorldConfig) Settings(logger zerolog.Logger) arcade.Settings {
	s := arcade.DefaultSettings()
	if len(w.Gravity) == 3 {
		s.Gravity = mgl64.Vec3{w.Gravity[0], w.Gravity[1], w.Gravity[2]}
	}
	s.MaxBodies = w.MaxBodies
	s.MaxWorkers = w.MaxWorkers
	s.LinearDamping = w.LinearDamping
	s.AngularDamping = w.AngularDamping
	s.SleepSpeed = w.SleepSpeed
	s.SleepTime = w.SleepTime
	s.Density = w.Density
	s.DefaultFriction = w.DefaultFriction
	s.SolverIterations = w.SolverIterations
	s.Filter = arcade.DefaultLayerFilter()
	s.Logger = logger
	return s
}

// KeyTable merges the configured bindings over the default table
func (i InputConfig) KeyTable() (*input.KeyTable, error) {
	if len(i.Bindings) == 0 {
		return input.DefaultKeyTable(), nil
	}
	override, err := input.LoadKeyConfig(i.Bindings)
	if err != nil {
		return nil, fmt.Errorf("input.bindings: %w", err)
	}
	return input.MergeKeyTable(input.DefaultKeyTable(), override), nil
}

// CameraMode is the validated initial camera mode
func (r RenderConfig) CameraMode() render.CameraMode {
	m, _ := render.ParseCameraMode(r.Camera)
	return m
}

// Interval is the frame period for FPS
func (r RenderConfig) Interval() time.Duration {
	if r.FPS <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(r.FPS)
}

// GraylogAddress is the sink address, empty when disabled
func (l LoggingConfig) GraylogAddress() string {
	if !l.Graylog.Enabled {
		return ""
	}
	return l.Graylog.Address
}
