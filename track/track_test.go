package track

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-rally/body"
	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/physics/physicstest"
	"github.com/lixenwraith/vi-rally/scene"
)

// pyramid of 10 layers holds 10² + 9² + ... + 1² cubes
const defaultCrates = 385

func TestRemap(t *testing.T) {
	assert.Equal(t, mgl64.Vec3{-64, -14, 38}, Remap([]float64{38, 64, -14}))
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, Remap([]float64{0, 0, 1}), "track up is world up")
}

func TestDefault(t *testing.T) {
	tr, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "default", tr.Name)
	assert.Equal(t, []string{"ramp", "surface", "wall"}, tr.CategoryNames())
	assert.Equal(t, uint32(0x666666), tr.Categories["surface"].Color)
	assert.Equal(t, uint32(0x006600), tr.Categories["wall"].Color)
	assert.Equal(t, uint32(0x000066), tr.Categories["ramp"].Color)
	assert.Len(t, tr.Blocks, 17)

	g := tr.GroundSpec()
	assert.Equal(t, physics.Box{HalfExtent: mgl64.Vec3{20000, 0.5, 20000}, ConvexRadius: 0.05}, g.Shape)
	assert.Equal(t, mgl64.Vec3{0, -16, 0}, g.Position)
	assert.Equal(t, physics.MotionStatic, g.Motion)

	blocks := tr.BlockSpecs()
	require.Len(t, blocks, 17)
	assert.Equal(t, "surface-0", blocks[0].Name)
	assert.Equal(t, uint32(0x666666), blocks[0].Color)
	assert.Equal(t, physics.LayerNonMoving, blocks[0].Layer)
	hull, ok := blocks[0].Shape.(physics.ConvexHull)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{-64, -14, 38}, hull.Points[0])
	for _, b := range blocks {
		assert.NoError(t, b.Shape.Validate(), b.Name)
	}

	props := tr.PropSpecs()
	require.Len(t, props, 1)
	assert.Equal(t, "plate", props[0].Name)
	assert.Equal(t, mgl64.Vec3{10, -5, -30}, props[0].Position)
	assert.Equal(t, uint32(0xa6a6a6), props[0].Color)
	assert.Equal(t, physics.MotionDynamic, props[0].Motion)
}

func TestPyramidSpecs(t *testing.T) {
	tr, err := Default()
	require.NoError(t, err)

	specs := tr.PyramidSpecs()
	require.Len(t, specs, defaultCrates)

	first := specs[0]
	assert.Equal(t, mgl64.Vec3{30 - 4.5*2, -10, -30 - 4.5*2}, first.Position)
	assert.Equal(t, physics.Box{HalfExtent: mgl64.Vec3{1, 1, 1}}, first.Shape)
	assert.InDelta(t, 17.0, first.Mass, 1e-9)
	assert.Equal(t, physics.LayerMoving, first.Layer)

	top := specs[len(specs)-1]
	assert.Equal(t, mgl64.Vec3{30, -10 + 9*2, -30}, top.Position, "single top cube sits over the base center")

	tr.Pyramid.Layers = 0
	assert.Empty(t, tr.PyramidSpecs())
}

func TestPopulate_Factory(t *testing.T) {
	tr, err := Default()
	require.NoError(t, err)

	w := physicstest.NewWorld()
	reg := body.NewRegistry()
	f := body.NewFactory(w, scene.New(), reg, zerolog.Nop())

	n, err := tr.Populate(context.Background(), f, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, Counts{Static: 18, Dynamic: defaultCrates + 1}, n)
	assert.Len(t, reg.Static(), 18)
	assert.Len(t, reg.Dynamic(), defaultCrates+1)
}

type failingCreator struct {
	calls  int
	failAt int
}

func (c *failingCreator) CreateBody(_ context.Context, spec body.Spec) (physics.Body, error) {
	c.calls++
	if c.calls == c.failAt {
		return nil, physics.ErrBodyRegistration
	}
	return &physicstest.Body{BodyID: physics.BodyID(c.calls), Kind: spec.Motion}, nil
}

func TestPopulate_StopsOnFailure(t *testing.T) {
	tr, err := Default()
	require.NoError(t, err)

	c := &failingCreator{failAt: 3}
	n, err := tr.Populate(context.Background(), c, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, physics.ErrBodyRegistration))
	assert.Contains(t, err.Error(), "surface-1")
	assert.Equal(t, Counts{Static: 2}, n)
	assert.Equal(t, 3, c.calls)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mini.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"name": "mini",
		"ground": {"half_extent": [10, 1, 10], "position": [0, -1, 0], "color": 1},
		"categories": {"wall": {"color": 2}},
		"blocks": [{"category": "wall", "points": [[0,0,0],[1,0,0],[0,1,0],[0,0,1]]}]
	}`), 0644))

	tr, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mini", tr.Name)
	assert.Empty(t, tr.PyramidSpecs())
	assert.Empty(t, tr.PropSpecs())
	require.Len(t, tr.BlockSpecs(), 1)
	assert.Equal(t, uint32(2), tr.BlockSpecs()[0].Color)
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	tr, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "default", tr.Name)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown category",
			body: `
[ground]
half_extent = [1.0, 1.0, 1.0]
position = [0.0, 0.0, 0.0]

[[blocks]]
category = "lava"
points = [[0, 0, 0], [1, 0, 0], [0, 1, 0], [0, 0, 1]]
`,
			want: `unknown category "lava"`,
		},
		{
			name: "short vector",
			body: `
[ground]
half_extent = [1.0, 1.0]
position = [0.0, 0.0, 0.0]
`,
			want: "ground.half_extent",
		},
		{
			name: "pyramid without cube size",
			body: `
[ground]
half_extent = [1.0, 1.0, 1.0]
position = [0.0, 0.0, 0.0]

[pyramid]
layers = 2
base = [0.0, 0.0, 0.0]
`,
			want: "pyramid.cube_size",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body), "toml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/track.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading track file")
}
