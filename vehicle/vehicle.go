package vehicle

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/scene"
)

// Vehicle is a built constraint with its wheel proxies
type Vehicle struct {
	constraint physics.VehicleConstraint
	chassis    physics.Body
	listener   physics.StepListenerHandle
	wheels     []*scene.Node
	right, up  mgl64.Vec3
}

func (v *Vehicle) Constraint() physics.VehicleConstraint      { return v.constraint }
func (v *Vehicle) Chassis() physics.Body                      { return v.chassis }
func (v *Vehicle) Listener() physics.StepListenerHandle       { return v.listener }
func (v *Vehicle) Controller() physics.VehicleController      { return v.constraint.Controller() }
func (v *Vehicle) Wheels() []*scene.Node                      { return v.wheels }
func (v *Vehicle) RPM() float64                               { return v.Controller().Engine().CurrentRPM() }
func (v *Vehicle) Gear() int                                  { return v.Controller().Transmission().CurrentGear() }

// Speed is the chassis speed in m/s
func (v *Vehicle) Speed() float64 { return v.chassis.LinearVelocity().Len() }

// SyncWheels copies each wheel's local transform onto its proxy and turns
// the model a quarter turn about X, negative on the left side
func (v *Vehicle) SyncWheels() error {
	for i, n := range v.wheels {
		t, err := v.constraint.WheelLocalTransform(i, v.right, v.up)
		if err != nil {
			return fmt.Errorf("wheel %d: %w", i, err)
		}
		n.SetPose(t)
		if IsLeft(i) {
			n.RotateX(-math.Pi / 2)
		} else {
			n.RotateX(math.Pi / 2)
		}
	}
	return nil
}
