// Package arcade is a small rigid-body engine implementing physics.World
// It trades accuracy for zero native dependencies: convex plane-set contacts,
// impulse resolution, sleeping, and a raycast wheeled vehicle
package arcade

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-rally/physics"
)

// Settings configures a World
type Settings struct {
	Gravity        mgl64.Vec3
	MaxBodies      int
	MaxWorkers     int
	LinearDamping  float64
	AngularDamping float64

	// Bodies slower than SleepSpeed for SleepTime seconds stop being simulated
	SleepSpeed float64
	SleepTime  float64

	// Density (kg/m3) derives mass when no override is given
	Density float64
	// DefaultFriction replaces a zero friction in BodySettings
	DefaultFriction  float64
	SolverIterations int

	Filter *LayerFilter
	Logger zerolog.Logger
}

// DefaultSettings mirrors the engine defaults the game was tuned against
func DefaultSettings() Settings {
	return Settings{
		Gravity:          mgl64.Vec3{0, -9.81, 0},
		MaxBodies:        1024,
		MaxWorkers:       3,
		LinearDamping:    0.05,
		AngularDamping:   0.05,
		SleepSpeed:       0.05,
		SleepTime:        0.5,
		Density:          1000,
		DefaultFriction:  0.2,
		SolverIterations: 4,
		Logger:           zerolog.Nop(),
	}
}

type listenerEntry struct {
	handle   physics.StepListenerHandle
	listener physics.StepListener
}

// World is the arcade engine
type World struct {
	settings Settings
	filter   *LayerFilter
	log      zerolog.Logger

	bodies map[physics.BodyID]*body
	// order keeps creation order so stepping is deterministic
	order  []*body
	nextID physics.BodyID

	shapes map[*shape]int

	constraints      map[uint32]physics.Constraint
	nextConstraintID uint32
	listeners        []listenerEntry
	nextHandle       physics.StepListenerHandle

	pool *workerPool

	steps  uint64
	closed bool
}

// NewWorld creates an empty world, zero settings fields fall back to DefaultSettings
func NewWorld(s Settings) *World {
	def := DefaultSettings()
	if s.MaxBodies <= 0 {
		s.MaxBodies = def.MaxBodies
	}
	if s.MaxWorkers <= 0 {
		s.MaxWorkers = def.MaxWorkers
	}
	if s.Density <= 0 {
		s.Density = def.Density
	}
	if s.DefaultFriction <= 0 {
		s.DefaultFriction = def.DefaultFriction
	}
	if s.SolverIterations <= 0 {
		s.SolverIterations = def.SolverIterations
	}
	if s.SleepTime <= 0 {
		s.SleepTime = def.SleepTime
	}
	filter := s.Filter
	if filter == nil {
		filter = DefaultLayerFilter()
	}

	w := &World{
		settings:    s,
		filter:      filter,
		log:         s.Logger.With().Str("component", "arcade").Logger(),
		bodies:      make(map[physics.BodyID]*body),
		shapes:      make(map[*shape]int),
		constraints: make(map[uint32]physics.Constraint),
		pool:        newWorkerPool(s.MaxWorkers),
	}
	w.log.Debug().Int("max_bodies", s.MaxBodies).Int("workers", s.MaxWorkers).Msg("world created")
	return w
}

func (w *World) Initialized() bool { return !w.closed }

// --- Shapes ---

func (w *World) CreateShape(desc physics.ShapeDescriptor) (physics.Shape, error) {
	if w.closed {
		return nil, physics.ErrNotInitialized
	}
	if desc == nil {
		return nil, fmt.Errorf("%w: nil descriptor", physics.ErrShapeCreation)
	}
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", physics.ErrShapeCreation, desc.Kind(), err)
	}
	s := newShape(desc)
	w.shapes[s] = 1
	return s, nil
}

// ReleaseShape drops the caller's reference, bodies keep their own
func (w *World) ReleaseShape(ps physics.Shape) {
	s, ok := ps.(*shape)
	if !ok {
		return
	}
	w.unref(s)
}

func (w *World) unref(s *shape) {
	refs, ok := w.shapes[s]
	if !ok {
		return
	}
	if refs <= 1 {
		delete(w.shapes, s)
		s.released = true
		return
	}
	w.shapes[s] = refs - 1
}

// LiveShapes counts shapes still referenced by a caller or a body
func (w *World) LiveShapes() int { return len(w.shapes) }

// --- Bodies ---

func (w *World) CreateBody(bs physics.BodySettings) (physics.Body, error) {
	if w.closed {
		return nil, physics.ErrNotInitialized
	}
	s, ok := bs.Shape.(*shape)
	if !ok || s == nil {
		return nil, fmt.Errorf("%w: shape not created by this world", physics.ErrBodyRegistration)
	}
	if _, live := w.shapes[s]; !live {
		return nil, fmt.Errorf("%w: shape already released", physics.ErrBodyRegistration)
	}
	if len(w.bodies) >= w.settings.MaxBodies {
		return nil, fmt.Errorf("%w: body limit %d reached", physics.ErrBodyRegistration, w.settings.MaxBodies)
	}
	if bs.Motion == physics.MotionDynamic && isMesh(s.desc) {
		return nil, fmt.Errorf("%w: mesh shapes have no volume and must be static", physics.ErrBodyRegistration)
	}

	rot := bs.Rotation
	if rot.Len() < 1e-9 {
		rot = mgl64.QuatIdent()
	}
	friction := bs.Friction
	if friction <= 0 {
		friction = w.settings.DefaultFriction
	}

	w.nextID++
	b := &body{
		id:          w.nextID,
		shape:       s,
		motion:      bs.Motion,
		layer:       bs.Layer,
		pos:         bs.Position,
		rot:         rot.Normalize(),
		friction:    friction,
		restitution: bs.Restitution,
	}
	mass := w.settings.Density * s.volume
	if bs.Motion == physics.MotionDynamic && bs.MassOverride > 0 {
		mass = bs.MassOverride
	}
	b.setMass(mass)

	w.shapes[s]++
	w.bodies[b.id] = b
	w.order = append(w.order, b)
	return b, nil
}

func isMesh(desc physics.ShapeDescriptor) bool {
	if o, ok := desc.(physics.OffsetCenterOfMass); ok {
		return isMesh(o.Inner)
	}
	return desc != nil && desc.Kind() == physics.ShapeMesh
}

func (w *World) AddBody(id physics.BodyID, activation physics.Activation) error {
	if w.closed {
		return physics.ErrNotInitialized
	}
	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("%w: unknown body %d", physics.ErrBodyRegistration, id)
	}
	if b.added {
		return fmt.Errorf("%w: body %d already added", physics.ErrBodyRegistration, id)
	}
	b.added = true
	b.active = activation == physics.Activate && b.dynamic()
	return nil
}

func (w *World) IsAdded(id physics.BodyID) bool {
	b, ok := w.bodies[id]
	return ok && b.added
}

func (w *World) ActivateBody(id physics.BodyID) {
	if b, ok := w.bodies[id]; ok {
		b.wake()
	}
}

func (w *World) RemoveBody(id physics.BodyID) {
	if b, ok := w.bodies[id]; ok {
		b.added = false
		b.active = false
	}
}

func (w *World) DestroyBody(id physics.BodyID) {
	b, ok := w.bodies[id]
	if !ok {
		return
	}
	delete(w.bodies, id)
	for i, o := range w.order {
		if o == b {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	w.unref(b.shape)
}

// Body returns a live body by ID
func (w *World) Body(id physics.BodyID) (physics.Body, bool) {
	b, ok := w.bodies[id]
	return b, ok
}

// BodyCount counts created bodies, added or not
func (w *World) BodyCount() int { return len(w.bodies) }

// --- Constraints & listeners ---

func (w *World) AddConstraint(c physics.Constraint) {
	if c == nil {
		return
	}
	w.constraints[c.ConstraintID()] = c
}

func (w *World) RemoveConstraint(c physics.Constraint) {
	if c == nil {
		return
	}
	delete(w.constraints, c.ConstraintID())
}

// ConstraintCount counts constraints added to the world
func (w *World) ConstraintCount() int { return len(w.constraints) }

func (w *World) AddStepListener(l physics.StepListener) physics.StepListenerHandle {
	w.nextHandle++
	w.listeners = append(w.listeners, listenerEntry{handle: w.nextHandle, listener: l})
	return w.nextHandle
}

func (w *World) RemoveStepListener(h physics.StepListenerHandle) {
	for i, e := range w.listeners {
		if e.handle == h {
			w.listeners = append(w.listeners[:i], w.listeners[i+1:]...)
			return
		}
	}
}

// ListenerCount counts registered step listeners
func (w *World) ListenerCount() int { return len(w.listeners) }

// Close drops every body, shape and listener, later calls report ErrNotInitialized
func (w *World) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if len(w.bodies) > 0 {
		w.log.Warn().Int("bodies", len(w.bodies)).Msg("closing world with live bodies")
	}
	w.bodies = map[physics.BodyID]*body{}
	w.order = nil
	w.shapes = map[*shape]int{}
	w.constraints = map[uint32]physics.Constraint{}
	w.listeners = nil
	w.log.Debug().Uint64("steps", w.steps).Msg("world closed")
	return nil
}

// Steps returns the number of completed substeps
func (w *World) Steps() uint64 { return w.steps }
