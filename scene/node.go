package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-rally/physics"
	"github.com/lixenwraith/vi-rally/vmath"
)

// Node is a renderable proxy in the scene tree
// A node bound to a body (Body != InvalidBodyID) is written only by the sync loop
type Node struct {
	Name        string
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Scale       float64
	Geometry    Geometry
	Color       uint32
	Visible     bool

	Body physics.BodyID

	Parent   *Node
	Children []*Node
}

// NewNode creates a visible node at the origin
func NewNode(name string, geometry Geometry, color uint32) *Node {
	return &Node{
		Name:        name,
		Orientation: mgl64.QuatIdent(),
		Scale:       1,
		Geometry:    geometry,
		Color:       color,
		Visible:     true,
	}
}

// Group creates an empty node used only to hold children
func Group(name string) *Node {
	return NewNode(name, Geometry{Kind: GeometryNone}, 0)
}

func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

// RemoveChild detaches child, returns false if it was not a child of n
func (n *Node) RemoveChild(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return true
		}
	}
	return false
}

// Detach removes n from its parent
func (n *Node) Detach() {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// SetPose copies a transform onto the node
func (n *Node) SetPose(t physics.Transform) {
	n.Position = t.Position
	n.Orientation = t.Rotation
}

// Pose returns the local transform
func (n *Node) Pose() physics.Transform {
	return physics.Transform{Position: n.Position, Rotation: n.Orientation}
}

// RotateX applies a local rotation around the node's X axis
func (n *Node) RotateX(angle float64) {
	n.Orientation = vmath.RotateX(n.Orientation, angle)
}

// WorldTransform composes the parent chain, scale is not propagated
func (n *Node) WorldTransform() physics.Transform {
	t := n.Pose()
	for p := n.Parent; p != nil; p = p.Parent {
		t = p.Pose().Mul(t)
	}
	return t
}

// Find returns the first node named name in depth-first order
func (n *Node) Find(name string) (*Node, bool) {
	if n.Name == name {
		return n, true
	}
	for _, c := range n.Children {
		if found, ok := c.Find(name); ok {
			return found, true
		}
	}
	return nil, false
}

// Walk visits n and its descendants depth-first, stopping a branch when fn returns false
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
