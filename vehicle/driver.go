package vehicle

import (
	"github.com/lixenwraith/vi-rally/input"
	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/vmath"
)

// ReverseThreshold is the longitudinal speed (m/s) above which a direction change brakes first
const ReverseThreshold = 0.1

// DriverCommand is the input handed to the vehicle controller
type DriverCommand struct {
	Throttle  float64
	Steer     float64
	Brake     float64
	Handbrake float64
}

// Active reports whether any channel is non-zero
func (c DriverCommand) Active() bool {
	return c.Throttle != 0 || c.Steer != 0 || c.Brake != 0 || c.Handbrake != 0
}

// Driver converts control snapshots into commands
// Reversing while still rolling the other way brakes until the car is slow enough
type Driver struct {
	previousForward float64
}

func NewDriver() *Driver {
	return &Driver{previousForward: 1}
}

// PreviousForward is the last accepted drive direction, +1 or -1
func (d *Driver) PreviousForward() float64 { return d.previousForward }

// Update computes this frame's command from the snapshot and the chassis motion
func (d *Driver) Update(in input.Snapshot, chassis physics.Body) DriverCommand {
	var cmd DriverCommand

	forward := 0.0
	switch {
	case in.Forward:
		forward = 1
	case in.Backward:
		forward = -1
	}
	switch {
	case in.Right:
		cmd.Steer = 1
	case in.Left:
		cmd.Steer = -1
	}

	if d.previousForward*forward < 0 {
		v := vmath.ToLocal(chassis.Rotation(), chassis.LinearVelocity()).Z()
		if (forward > 0 && v < -ReverseThreshold) || (forward < 0 && v > ReverseThreshold) {
			forward = 0
			cmd.Brake = 1
		} else {
			d.previousForward = forward
		}
	}

	if in.Handbrake {
		forward = 0
		cmd.Handbrake = 1
	}
	cmd.Throttle = forward
	return cmd
}

// Apply hands cmd to the vehicle controller and wakes the chassis when cmd does anything
func Apply(world physics.World, v *Vehicle, cmd DriverCommand) {
	v.Controller().SetDriverInput(cmd.Throttle, cmd.Steer, cmd.Brake, cmd.Handbrake)
	if cmd.Active() {
		world.ActivateBody(v.Chassis().ID())
	}
}
