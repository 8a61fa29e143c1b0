// Package track loads stage layouts and populates the physics world with them
package track

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/lixenwraith/vi-rally/body"
	"github.com/lixenwraith/vi-rally/physics"
)

//go:embed default.toml
var defaultTrack []byte

// Track is a stage: ground plane, static hull blocks, a crate pyramid and loose props
type Track struct {
	Name       string              `mapstructure:"name"`
	Ground     Ground              `mapstructure:"ground"`
	Categories map[string]Category `mapstructure:"categories"`
	Blocks     []Block             `mapstructure:"blocks"`
	Pyramid    Pyramid             `mapstructure:"pyramid"`
	Props      []Prop              `mapstructure:"props"`
}

type Ground struct {
	HalfExtent   []float64 `mapstructure:"half_extent"`
	Position     []float64 `mapstructure:"position"`
	ConvexRadius float64   `mapstructure:"convex_radius"`
	Color        uint32    `mapstructure:"color"`
}

type Category struct {
	Color uint32 `mapstructure:"color"`
}

// Block is a convex hull, points are in track space with z up
type Block struct {
	Category string      `mapstructure:"category"`
	Points   [][]float64 `mapstructure:"points"`
}

// Pyramid stacks Layers square layers of dynamic cubes, the bottom layer is Layers cubes wide
type Pyramid struct {
	Layers   int       `mapstructure:"layers"`
	CubeSize float64   `mapstructure:"cube_size"`
	Mass     float64   `mapstructure:"mass"`
	Base     []float64 `mapstructure:"base"`
	Color    uint32    `mapstructure:"color"`
}

// Prop is a loose dynamic box
type Prop struct {
	Name       string    `mapstructure:"name"`
	HalfExtent []float64 `mapstructure:"half_extent"`
	Position   []float64 `mapstructure:"position"`
	Mass       float64   `mapstructure:"mass"`
	Color      uint32    `mapstructure:"color"`
}

// Remap converts a track space point (x, y, z) with z up into world space (-y, z, x)
func Remap(p []float64) mgl64.Vec3 {
	return mgl64.Vec3{-p[1], p[2], p[0]}
}

// Default returns the embedded stage
func Default() (*Track, error) {
	return Parse(defaultTrack, "toml")
}

// Load reads the track at path, an empty path loads the embedded stage
func Load(path string) (*Track, error) {
	if path == "" {
		return Default()
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading track file: %w", err)
	}
	t, err := decode(v)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// Parse decodes a track from data in the given viper config format
func Parse(data []byte, format string) (*Track, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("error parsing track: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Track, error) {
	var t Track
	if err := v.Unmarshal(&t); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks every vector arity and that each block names a known category
func (t *Track) Validate() error {
	var errs []error
	vec := func(name string, v []float64) {
		if len(v) != 3 {
			errs = append(errs, fmt.Errorf("%s: want 3 components, got %d", name, len(v)))
		}
	}
	vec("ground.half_extent", t.Ground.HalfExtent)
	vec("ground.position", t.Ground.Position)

	for i, b := range t.Blocks {
		if _, ok := t.Categories[strings.ToLower(b.Category)]; !ok {
			errs = append(errs, fmt.Errorf("blocks[%d]: unknown category %q", i, b.Category))
		}
		if len(b.Points) < 4 {
			errs = append(errs, fmt.Errorf("blocks[%d]: need at least 4 points, got %d", i, len(b.Points)))
		}
		for j, p := range b.Points {
			vec(fmt.Sprintf("blocks[%d].points[%d]", i, j), p)
		}
	}
	if t.Pyramid.Layers > 0 {
		vec("pyramid.base", t.Pyramid.Base)
		if t.Pyramid.CubeSize <= 0 {
			errs = append(errs, errors.New("pyramid.cube_size must be positive"))
		}
	}
	for i, p := range t.Props {
		vec(fmt.Sprintf("props[%d].half_extent", i), p.HalfExtent)
		vec(fmt.Sprintf("props[%d].position", i), p.Position)
	}
	return errors.Join(errs...)
}

// CategoryNames returns the category names in sorted order
func (t *Track) CategoryNames() []string {
	names := make([]string, 0, len(t.Categories))
	for n := range t.Categories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Creator is the part of body.Factory Populate needs
type Creator interface {
	CreateBody(ctx context.Context, spec body.Spec) (physics.Body, error)
}

// Counts reports what Populate created
type Counts struct {
	Static  int
	Dynamic int
}

// Populate creates the ground, blocks, pyramid and props in that order
// It stops at the first failure, bodies created before it stay tracked by the factory
func (t *Track) Populate(ctx context.Context, c Creator, logger zerolog.Logger) (Counts, error) {
	var n Counts
	add := func(spec body.Spec) error {
		if _, err := c.CreateBody(ctx, spec); err != nil {
			return fmt.Errorf("%s: %w", spec.Name, err)
		}
		if spec.Motion == physics.MotionDynamic {
			n.Dynamic++
		} else {
			n.Static++
		}
		return nil
	}

	if err := add(t.GroundSpec()); err != nil {
		return n, err
	}
	for _, spec := range t.BlockSpecs() {
		if err := add(spec); err != nil {
			return n, err
		}
	}
	for _, spec := range t.PyramidSpecs() {
		if err := add(spec); err != nil {
			return n, err
		}
	}
	for _, spec := range t.PropSpecs() {
		if err := add(spec); err != nil {
			return n, err
		}
	}

	logger.Info().
		Str("track", t.Name).
		Int("static", n.Static).
		Int("dynamic", n.Dynamic).
		Msg("track populated")
	return n, nil
}

func vec3(v []float64) mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[1], v[2]}
}

func (t *Track) GroundSpec() body.Spec {
	return body.Spec{
		Name: "ground",
		Shape: physics.Box{
			HalfExtent:   vec3(t.Ground.HalfExtent),
			ConvexRadius: t.Ground.ConvexRadius,
		},
		Position: vec3(t.Ground.Position),
		Motion:   physics.MotionStatic,
		Layer:    physics.LayerNonMoving,
		Color:    t.Ground.Color,
	}
}

// BlockSpecs builds one static hull per block, the hull points carry the world placement
func (t *Track) BlockSpecs() []body.Spec {
	specs := make([]body.Spec, 0, len(t.Blocks))
	for i, b := range t.Blocks {
		cat := strings.ToLower(b.Category)
		pts := make([]mgl64.Vec3, len(b.Points))
		for j, p := range b.Points {
			pts[j] = Remap(p)
		}
		specs = append(specs, body.Spec{
			Name:   fmt.Sprintf("%s-%d", cat, i),
			Shape:  physics.ConvexHull{Points: pts},
			Motion: physics.MotionStatic,
			Layer:  physics.LayerNonMoving,
			Color:  t.Categories[cat].Color,
		})
	}
	return specs
}

// PyramidSpecs lays out the cubes bottom layer first, each layer centered on the base x/z
func (t *Track) PyramidSpecs() []body.Spec {
	p := t.Pyramid
	if p.Layers <= 0 {
		return nil
	}
	base := vec3(p.Base)
	half := p.CubeSize / 2
	var specs []body.Spec
	for layer := 0; layer < p.Layers; layer++ {
		side := p.Layers - layer
		offset := float64(side-1) / 2
		y := base.Y() + float64(layer)*p.CubeSize
		for x := 0; x < side; x++ {
			for z := 0; z < side; z++ {
				specs = append(specs, body.Spec{
					Name:  fmt.Sprintf("crate-%d-%d-%d", layer, x, z),
					Shape: physics.Box{HalfExtent: mgl64.Vec3{half, half, half}},
					Position: mgl64.Vec3{
						base.X() + (float64(x)-offset)*p.CubeSize,
						y,
						base.Z() + (float64(z)-offset)*p.CubeSize,
					},
					Motion: physics.MotionDynamic,
					Layer:  physics.LayerMoving,
					Mass:   p.Mass,
					Color:  p.Color,
				})
			}
		}
	}
	return specs
}

func (t *Track) PropSpecs() []body.Spec {
	specs := make([]body.Spec, 0, len(t.Props))
	for i, p := range t.Props {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("prop-%d", i)
		}
		specs = append(specs, body.Spec{
			Name:     name,
			Shape:    physics.Box{HalfExtent: vec3(p.HalfExtent)},
			Position: vec3(p.Position),
			Motion:   physics.MotionDynamic,
			Layer:    physics.LayerMoving,
			Mass:     p.Mass,
			Color:    p.Color,
		})
	}
	return specs
}
