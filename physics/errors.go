package physics

import "errors"

var (
	// ErrShapeCreation is returned when a shape descriptor cannot be turned into a collision shape
	ErrShapeCreation = errors.New("shape creation failed")

	// ErrBodyRegistration is returned when the world rejects a body (create or add)
	ErrBodyRegistration = errors.New("body registration failed")

	// ErrInvalidWheelIndex is returned when a differential or anti-roll bar references a missing wheel
	ErrInvalidWheelIndex = errors.New("invalid wheel index")

	// ErrNotInitialized is returned by operations on a world that is closed or was never set up
	ErrNotInitialized = errors.New("physics world not initialized")
)
