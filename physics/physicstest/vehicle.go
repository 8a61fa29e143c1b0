package physicstest

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/physics"
)

// DriverInput is one SetDriverInput call
type DriverInput struct {
	Throttle, Steer, Brake, Handbrake float64
}

// Controller records driver input
type Controller struct {
	Inputs []DriverInput
	RPM    float64
	Gear   int
}

func (c *Controller) SetDriverInput(throttle, steer, brake, handbrake float64) {
	c.Inputs = append(c.Inputs, DriverInput{throttle, steer, brake, handbrake})
}

// Last returns the most recent input, zero if none
func (c *Controller) Last() DriverInput {
	if len(c.Inputs) == 0 {
		return DriverInput{}
	}
	return c.Inputs[len(c.Inputs)-1]
}

func (c *Controller) Engine() physics.VehicleEngine             { return c }
func (c *Controller) Transmission() physics.VehicleTransmission { return c }
func (c *Controller) CurrentRPM() float64                       { return c.RPM }
func (c *Controller) CurrentGear() int                          { return c.Gear }

// Vehicle is a fake constraint whose wheel transforms tests set directly
type Vehicle struct {
	ID        uint32
	Body      physics.Body
	Settings  physics.VehicleSettings
	Ctrl      *Controller
	Tester    physics.CollisionTester
	Callbacks physics.VehicleCallbacks
	Destroyed bool
	// Local holds per-wheel transforms returned by WheelLocalTransform
	Local []physics.Transform
	// LocalCalls counts WheelLocalTransform calls per wheel
	LocalCalls []int
	Steps      int
}

func NewVehicle(id uint32, chassis physics.Body, s physics.VehicleSettings) *Vehicle {
	v := &Vehicle{
		ID:         id,
		Body:       chassis,
		Settings:   s,
		Ctrl:       &Controller{},
		Local:      make([]physics.Transform, len(s.Wheels)),
		LocalCalls: make([]int, len(s.Wheels)),
	}
	for i, w := range s.Wheels {
		v.Local[i] = physics.Transform{Position: w.Position, Rotation: mgl64.QuatIdent()}
	}
	return v
}

func (v *Vehicle) ConstraintID() uint32                          { return v.ID }
func (v *Vehicle) Chassis() physics.Body                         { return v.Body }
func (v *Vehicle) WheelCount() int                               { return len(v.Settings.Wheels) }
func (v *Vehicle) Controller() physics.VehicleController         { return v.Ctrl }
func (v *Vehicle) SetCollisionTester(t physics.CollisionTester)  { v.Tester = t }
func (v *Vehicle) SetCallbacks(cb physics.VehicleCallbacks)      { v.Callbacks = cb }
func (v *Vehicle) StepListener() physics.StepListener            { return v }
func (v *Vehicle) Destroy()                                      { v.Destroyed = true }
func (v *Vehicle) OnStep(float64)                                { v.Steps++ }

func (v *Vehicle) Wheel(i int) (physics.WheelSettings, physics.WheelState, error) {
	if i < 0 || i >= len(v.Settings.Wheels) {
		return physics.WheelSettings{}, physics.WheelState{}, fmt.Errorf("%w: %d", physics.ErrInvalidWheelIndex, i)
	}
	return v.Settings.Wheels[i], physics.WheelState{}, nil
}

func (v *Vehicle) WheelLocalTransform(i int, _, _ mgl64.Vec3) (physics.Transform, error) {
	if i < 0 || i >= len(v.Local) {
		return physics.Transform{}, fmt.Errorf("%w: %d", physics.ErrInvalidWheelIndex, i)
	}
	v.LocalCalls[i]++
	return v.Local[i], nil
}
