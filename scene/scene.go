// Package scene holds the render-side proxy tree mirrored from physics bodies
package scene

// Scene owns the root of the proxy tree
type Scene struct {
	Root       *Node
	Background uint32
}

// New creates an empty scene
func New() *Scene {
	return &Scene{Root: Group("scene")}
}

// Add attaches top-level nodes to the root
func (s *Scene) Add(nodes ...*Node) {
	for _, n := range nodes {
		s.Root.AddChild(n)
	}
}

// Remove detaches a node from wherever it hangs in the tree
func (s *Scene) Remove(n *Node) {
	n.Detach()
}

// Walk visits every node below the root
func (s *Scene) Walk(fn func(*Node) bool) {
	for _, c := range s.Root.Children {
		c.Walk(fn)
	}
}

// Len counts nodes below the root
func (s *Scene) Len() int {
	count := 0
	s.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}
