package physics

import "github.com/go-gl/mathgl/mgl64"

// BodySettings describes a body before it is created
type BodySettings struct {
	Shape    Shape
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Motion   MotionKind
	Layer    Layer

	// MassOverride replaces the shape-derived mass, honored for dynamic bodies only when > 0
	MassOverride float64

	Friction    float64
	Restitution float64
}

// Body is a read-only view of an engine body
type Body interface {
	ID() BodyID
	Shape() Shape
	Motion() MotionKind
	Type() BodyType
	Layer() Layer
	Position() mgl64.Vec3
	Rotation() mgl64.Quat
	LinearVelocity() mgl64.Vec3
	AngularVelocity() mgl64.Vec3
	Mass() float64
	Friction() float64
	IsActive() bool
}

// SoftBody is a deformable body whose vertices change each step
type SoftBody interface {
	Body
	// Vertices returns world-space vertex positions, the slice is reused by the engine
	Vertices() []mgl64.Vec3
}

// Constraint is anything the world solves alongside bodies
type Constraint interface {
	ConstraintID() uint32
}

// StepListener is called once per substep before bodies are integrated
type StepListener interface {
	OnStep(dt float64)
}

// StepListenerHandle identifies a registered listener
type StepListenerHandle uint32

// World is the rigid-body engine boundary
// All calls happen on the frame goroutine; Step may fan out internally but returns only when done
type World interface {
	// Initialized is false before setup completes and after Close
	Initialized() bool

	CreateShape(desc ShapeDescriptor) (Shape, error)
	ReleaseShape(s Shape)

	// CreateBody allocates a body that is not yet simulated
	CreateBody(settings BodySettings) (Body, error)
	AddBody(id BodyID, activation Activation) error
	IsAdded(id BodyID) bool
	ActivateBody(id BodyID)
	RemoveBody(id BodyID)
	DestroyBody(id BodyID)

	// Step advances the simulation by dt split into substeps
	Step(dt float64, substeps int) error

	CreateVehicle(chassis Body, settings VehicleSettings) (VehicleConstraint, error)
	AddConstraint(c Constraint)
	RemoveConstraint(c Constraint)
	AddStepListener(l StepListener) StepListenerHandle
	RemoveStepListener(h StepListenerHandle)

	// Close releases engine resources, remaining bodies are dropped
	Close() error
}
