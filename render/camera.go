package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/vmath"
)

// CameraMode selects how the camera tracks the vehicle
type CameraMode uint8

const (
	CameraFollow CameraMode = iota
	CameraOverview
)

func (m CameraMode) String() string {
	if m == CameraOverview {
		return "overview"
	}
	return "follow"
}

// ParseCameraMode accepts "follow" or "overview", case insensitive
func ParseCameraMode(s string) (CameraMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "follow":
		return CameraFollow, nil
	case "overview":
		return CameraOverview, nil
	}
	return CameraFollow, fmt.Errorf("unknown camera mode %q", s)
}

// Camera tuning
const (
	FollowHeight    = 12.0
	FollowMaxRise   = 8.0
	FollowRisePerMS = 0.3
	FollowDistance  = 10.0
	FollowSmoothing = 0.1
	OverviewHeight  = 60.0
	MinClearance    = 5.0
)

// Camera chases a target from behind and above, the eye glides towards its goal every update
type Camera struct {
	Mode   CameraMode
	Eye    mgl64.Vec3
	Target mgl64.Vec3

	placed bool
}

func NewCamera() *Camera {
	return &Camera{}
}

// Toggle switches between follow and overview and returns the new mode
func (c *Camera) Toggle() CameraMode {
	if c.Mode == CameraFollow {
		c.Mode = CameraOverview
	} else {
		c.Mode = CameraFollow
	}
	return c.Mode
}

// FollowOffset is the eye offset in vehicle space for speed in m/s
func FollowOffset(speed float64) mgl64.Vec3 {
	return mgl64.Vec3{0, FollowHeight + math.Min(speed*FollowRisePerMS, FollowMaxRise), -FollowDistance}
}

// Update moves the camera towards its goal for a vehicle at pos with rotation rot
func (c *Camera) Update(pos mgl64.Vec3, rot mgl64.Quat, speed float64) {
	var goal mgl64.Vec3
	switch c.Mode {
	case CameraOverview:
		goal = pos.Add(mgl64.Vec3{0, OverviewHeight, 0})
	default:
		goal = pos.Add(rot.Rotate(FollowOffset(speed)))
	}

	c.Target = pos
	if !c.placed {
		c.Eye = goal
		c.placed = true
	} else {
		c.Eye = c.Eye.Add(goal.Sub(c.Eye).Mul(FollowSmoothing))
	}
	if c.Eye.Y() < pos.Y()+MinClearance {
		c.Eye[1] = pos.Y() + MinClearance
	}
}

// Height is the eye height above the target
func (c *Camera) Height() float64 {
	return c.Eye.Y() - c.Target.Y()
}

// Center is the ground point the top-down view is centered on
// Following looks ahead of the car, away from the eye
func (c *Camera) Center() mgl64.Vec3 {
	if c.Mode == CameraOverview {
		return c.Target
	}
	back := c.Eye.Sub(c.Target)
	back[1] = 0
	return c.Target.Sub(back.Mul(0.5))
}

// MetersPerRow scales the view with eye height
func (c *Camera) MetersPerRow() float64 {
	return vmath.Clamp(c.Height()/12, 0.5, 20)
}
