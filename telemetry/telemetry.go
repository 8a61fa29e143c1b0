// Package telemetry exports vehicle state to InfluxDB
package telemetry

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-rally/status"
)

// Measurement is the name of the point written each sample
const Measurement = "vehicle"

// Config selects the Influx target
type Config struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Org     string `mapstructure:"org"`
	Bucket  string `mapstructure:"bucket"`
	// EveryFrames writes one point per this many frames
	EveryFrames int `mapstructure:"every_frames"`
	// Session tags every point
	Session string `mapstructure:"session"`
	// BackupPath receives gzipped line protocol when the server is unreachable, empty to drop
	BackupPath string `mapstructure:"backup_path"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:     false,
		URL:         "http://localhost:8086",
		Org:         "vi-rally",
		Bucket:      "telemetry",
		EveryFrames: 30,
		Session:     "local",
	}
}

// Sink receives frames through OnFrame and owns its lifecycle through the service methods
type Sink interface {
	Name() string
	Dependencies() []string
	Init(ctx context.Context) error
	Start() error
	Stop() error
	OnFrame(ctx context.Context, reg *status.Registry)
}

// New returns an Influx sink when enabled, a Nop sink otherwise
func New(cfg Config, logger zerolog.Logger) Sink {
	if !cfg.Enabled {
		return Nop{}
	}
	return NewInflux(cfg, logger)
}

// Nop discards everything
type Nop struct{}

func (Nop) Name() string                              { return "telemetry" }
func (Nop) Dependencies() []string                    { return nil }
func (Nop) Init(context.Context) error                { return nil }
func (Nop) Start() error                              { return nil }
func (Nop) Stop() error                               { return nil }
func (Nop) OnFrame(context.Context, *status.Registry) {}

// pointWriter is satisfied by influxdb2_api.WriteAPI
type pointWriter interface {
	WritePoint(point *influxdb2_write.Point)
}

// Influx writes sampled frames to an Influx bucket, or to a gzip backup when offline
type Influx struct {
	cfg Config
	log zerolog.Logger

	mu     sync.Mutex
	client influxdb2.Client
	api    influxdb2_api.WriteAPI
	dest   pointWriter
	backup *gzip.Writer
	file   *os.File
	frame  int64
	points int64
}

func NewInflux(cfg Config, logger zerolog.Logger) *Influx {
	if cfg.EveryFrames <= 0 {
		cfg.EveryFrames = DefaultConfig().EveryFrames
	}
	return &Influx{cfg: cfg, log: logger.With().Str("component", "telemetry").Logger()}
}

func (s *Influx) Name() string           { return "telemetry" }
func (s *Influx) Dependencies() []string { return []string{"status"} }

// Init connects and pings the server, falling back to the backup file
func (s *Influx) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.client = influxdb2.NewClientWithOptions(s.cfg.URL, s.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000))

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	running, err := s.client.Ping(pingCtx)
	if err == nil && running {
		s.api = s.client.WriteAPI(s.cfg.Org, s.cfg.Bucket)
		s.dest = s.api
		go s.drainErrors(s.api.Errors())
		s.log.Info().Str("url", s.cfg.URL).Str("bucket", s.cfg.Bucket).Msg("influx writer ready")
		return nil
	}

	if err == nil {
		err = errors.New("server not ready")
	}
	s.log.Warn().Err(err).Str("url", s.cfg.URL).Msg("influx unreachable")
	if s.cfg.BackupPath == "" {
		return nil
	}
	file, ferr := os.OpenFile(s.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if ferr != nil {
		return fmt.Errorf("telemetry backup: %w", ferr)
	}
	s.file = file
	s.backup = gzip.NewWriter(file)
	s.dest = &lineWriter{w: s.backup, log: s.log}
	s.log.Info().Str("path", s.cfg.BackupPath).Msg("writing telemetry to backup file")
	return nil
}

func (s *Influx) drainErrors(errs <-chan error) {
	for err := range errs {
		s.log.Error().Err(err).Msg("influx write failed")
	}
}

func (s *Influx) Start() error { return nil }

// Stop flushes pending points and closes the client
func (s *Influx) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.api != nil {
		s.api.Flush()
	}
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
	var err error
	if s.backup != nil {
		err = errors.Join(s.backup.Close(), s.file.Close())
		s.backup, s.file = nil, nil
	}
	s.dest = nil
	s.log.Debug().Int64("points", s.points).Msg("telemetry stopped")
	return err
}

// OnFrame writes a point every EveryFrames frames
func (s *Influx) OnFrame(_ context.Context, reg *status.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frame++
	if s.dest == nil || s.frame%int64(s.cfg.EveryFrames) != 0 {
		return
	}
	if reg.Bools.Get(status.KeyPaused).Load() {
		return
	}
	s.dest.WritePoint(BuildPoint(reg, s.cfg.Session, time.Now()))
	s.points++
}

// Points is the number of points handed to the writer
func (s *Influx) Points() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points
}

// BuildPoint turns the registry into a vehicle point
func BuildPoint(reg *status.Registry, session string, ts time.Time) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(Measurement).
		AddTag("session", session).
		SetTime(ts)
	p.AddField("rpm", reg.Floats.Get(status.KeyRPM).Get())
	p.AddField("speed", reg.Floats.Get(status.KeySpeed).Get())
	p.AddField("throttle", reg.Floats.Get(status.KeyThrottle).Get())
	p.AddField("brake", reg.Floats.Get(status.KeyBrake).Get())
	p.AddField("steer", reg.Floats.Get(status.KeySteer).Get())
	p.AddField("handbrake", reg.Floats.Get(status.KeyHandbrake).Get())
	p.AddField("gear", reg.Ints.Get(status.KeyGear).Load())
	p.AddField("substeps", reg.Ints.Get(status.KeySubsteps).Load())
	return p
}

// lineWriter appends points as line protocol
type lineWriter struct {
	w interface {
		Write(p []byte) (int, error)
	}
	log zerolog.Logger
}

func (l *lineWriter) WritePoint(p *influxdb2_write.Point) {
	line := strings.TrimRight(influxdb2_write.PointToLineProtocol(p, time.Nanosecond), "\n") + "\n"
	if _, err := l.w.Write([]byte(line)); err != nil {
		l.log.Error().Err(err).Msg("telemetry backup write failed")
	}
}
