// Package physicstest provides a scriptable physics.World for tests
package physicstest

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/physics"
)

// Shape is a fake engine shape
type Shape struct {
	Desc     physics.ShapeDescriptor
	Released bool
}

func (s *Shape) Descriptor() physics.ShapeDescriptor { return s.Desc }
func (s *Shape) LocalBounds() physics.AABB           { return s.Desc.LocalBounds() }
func (s *Shape) CenterOfMass() mgl64.Vec3             { return mgl64.Vec3{} }

// Body is a fake body whose pose tests set directly
type Body struct {
	BodyID    physics.BodyID
	BodyShape *Shape
	Kind      physics.MotionKind
	BodyLayer physics.Layer
	Pos       mgl64.Vec3
	Rot       mgl64.Quat
	LinVel    mgl64.Vec3
	AngVel    mgl64.Vec3
	BodyMass  float64
	Active    bool
	Added     bool
	Destroyed bool
}

func (b *Body) ID() physics.BodyID          { return b.BodyID }
func (b *Body) Shape() physics.Shape        { return b.BodyShape }
func (b *Body) Motion() physics.MotionKind  { return b.Kind }
func (b *Body) Type() physics.BodyType      { return physics.BodyRigid }
func (b *Body) Layer() physics.Layer        { return b.BodyLayer }
func (b *Body) Position() mgl64.Vec3        { return b.Pos }
func (b *Body) Rotation() mgl64.Quat        { return b.Rot }
func (b *Body) LinearVelocity() mgl64.Vec3  { return b.LinVel }
func (b *Body) AngularVelocity() mgl64.Vec3 { return b.AngVel }
func (b *Body) Mass() float64               { return b.BodyMass }
func (b *Body) Friction() float64           { return 0.2 }
func (b *Body) IsActive() bool              { return b.Active }

// SoftBody adds a vertex buffer to Body
type SoftBody struct {
	Body
	Verts []mgl64.Vec3
}

func (b *SoftBody) Type() physics.BodyType   { return physics.BodySoft }
func (b *SoftBody) Vertices() []mgl64.Vec3 { return b.Verts }

// StepFunc lets a test move bodies during Step
type StepFunc func(dt float64, substeps int)

// World records every call in Calls and fails on demand
type World struct {
	Calls []string

	FailShape      bool
	FailCreateBody bool
	FailAdd        bool
	// SkipAdd makes AddBody succeed without adding, IsAdded then reports false
	SkipAdd     bool
	FailVehicle bool
	Closed      bool
	// SoftHulls makes convex hull bodies soft, their vertices start as the hull points
	SoftHulls bool

	OnStep StepFunc

	Bodies      map[physics.BodyID]*Body
	Soft        map[physics.BodyID]*SoftBody
	Shapes      []*Shape
	Constraints map[uint32]physics.Constraint
	Listeners   map[physics.StepListenerHandle]physics.StepListener
	Vehicles    []*Vehicle

	nextID     physics.BodyID
	nextHandle physics.StepListenerHandle
}

func NewWorld() *World {
	return &World{
		Bodies:      make(map[physics.BodyID]*Body),
		Soft:        make(map[physics.BodyID]*SoftBody),
		Constraints: make(map[uint32]physics.Constraint),
		Listeners:   make(map[physics.StepListenerHandle]physics.StepListener),
	}
}

func (w *World) record(format string, args ...any) {
	w.Calls = append(w.Calls, fmt.Sprintf(format, args...))
}

func (w *World) Initialized() bool { return !w.Closed }

func (w *World) CreateShape(desc physics.ShapeDescriptor) (physics.Shape, error) {
	w.record("CreateShape")
	if w.FailShape {
		return nil, fmt.Errorf("%w: scripted", physics.ErrShapeCreation)
	}
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", physics.ErrShapeCreation, err)
	}
	s := &Shape{Desc: desc}
	w.Shapes = append(w.Shapes, s)
	return s, nil
}

func (w *World) ReleaseShape(s physics.Shape) {
	w.record("ReleaseShape")
	if fs, ok := s.(*Shape); ok {
		fs.Released = true
	}
}

func (w *World) CreateBody(bs physics.BodySettings) (physics.Body, error) {
	w.record("CreateBody")
	if w.FailCreateBody {
		return nil, fmt.Errorf("%w: scripted", physics.ErrBodyRegistration)
	}
	w.nextID++
	fs, _ := bs.Shape.(*Shape)
	b := &Body{
		BodyID:    w.nextID,
		BodyShape: fs,
		Kind:      bs.Motion,
		BodyLayer: bs.Layer,
		Pos:       bs.Position,
		Rot:       bs.Rotation,
		BodyMass:  bs.MassOverride,
	}
	w.Bodies[b.BodyID] = b
	if hull, ok := bs.Shape.Descriptor().(physics.ConvexHull); ok && w.SoftHulls {
		sb := &SoftBody{Verts: append([]mgl64.Vec3(nil), hull.Points...)}
		sb.Body = *b
		w.Bodies[b.BodyID] = &sb.Body
		w.Soft[b.BodyID] = sb
		return sb, nil
	}
	return b, nil
}

// AddSoftBody registers a soft body directly, bypassing shapes
func (w *World) AddSoftBody(verts []mgl64.Vec3) *SoftBody {
	w.nextID++
	sb := &SoftBody{Body: Body{BodyID: w.nextID, Kind: physics.MotionDynamic, Rot: mgl64.QuatIdent(), Added: true, Active: true}, Verts: verts}
	w.Bodies[sb.BodyID] = &sb.Body
	w.Soft[sb.BodyID] = sb
	return sb
}

func (w *World) AddBody(id physics.BodyID, activation physics.Activation) error {
	w.record("AddBody %d", id)
	if w.FailAdd {
		return fmt.Errorf("%w: scripted", physics.ErrBodyRegistration)
	}
	b, ok := w.Bodies[id]
	if !ok {
		return fmt.Errorf("%w: unknown body %d", physics.ErrBodyRegistration, id)
	}
	if w.SkipAdd {
		return nil
	}
	b.Added = true
	b.Active = activation == physics.Activate
	return nil
}

func (w *World) IsAdded(id physics.BodyID) bool {
	b, ok := w.Bodies[id]
	return ok && b.Added
}

func (w *World) ActivateBody(id physics.BodyID) {
	w.record("ActivateBody %d", id)
	if b, ok := w.Bodies[id]; ok {
		b.Active = true
	}
}

func (w *World) RemoveBody(id physics.BodyID) {
	w.record("RemoveBody %d", id)
	if b, ok := w.Bodies[id]; ok {
		b.Added = false
	}
}

func (w *World) DestroyBody(id physics.BodyID) {
	w.record("DestroyBody %d", id)
	if b, ok := w.Bodies[id]; ok {
		b.Destroyed = true
		delete(w.Bodies, id)
	}
}

func (w *World) Step(dt float64, substeps int) error {
	if w.Closed {
		return physics.ErrNotInitialized
	}
	w.record("Step %d", substeps)
	if w.OnStep != nil {
		w.OnStep(dt, substeps)
	}
	return nil
}

func (w *World) CreateVehicle(chassis physics.Body, s physics.VehicleSettings) (physics.VehicleConstraint, error) {
	w.record("CreateVehicle")
	if w.FailVehicle {
		return nil, fmt.Errorf("%w: scripted", physics.ErrBodyRegistration)
	}
	v := NewVehicle(uint32(len(w.Vehicles)+1), chassis, s)
	w.Vehicles = append(w.Vehicles, v)
	return v, nil
}

func (w *World) AddConstraint(c physics.Constraint) {
	w.record("AddConstraint")
	w.Constraints[c.ConstraintID()] = c
}

func (w *World) RemoveConstraint(c physics.Constraint) {
	w.record("RemoveConstraint")
	delete(w.Constraints, c.ConstraintID())
}

func (w *World) AddStepListener(l physics.StepListener) physics.StepListenerHandle {
	w.record("AddStepListener")
	w.nextHandle++
	w.Listeners[w.nextHandle] = l
	return w.nextHandle
}

func (w *World) RemoveStepListener(h physics.StepListenerHandle) {
	w.record("RemoveStepListener")
	delete(w.Listeners, h)
}

func (w *World) Close() error {
	w.record("Close")
	w.Closed = true
	return nil
}

// Count returns how many recorded calls start with prefix
func (w *World) Count(prefix string) int {
	n := 0
	for _, c := range w.Calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}
