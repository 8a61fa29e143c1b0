package engine

import (
	"sync"
	"sync/atomic"
)

// State is the coarse game state shown in the HUD
type State int32

const (
	StateLoading State = iota
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return "unknown"
}

// GameState holds the current State and the message that came with it
// Readable from any goroutine, the frame loop is the only writer
type GameState struct {
	state atomic.Int32

	mu      sync.RWMutex
	message string
}

func (g *GameState) Set(s State, message string) {
	g.mu.Lock()
	g.message = message
	g.mu.Unlock()
	g.state.Store(int32(s))
}

func (g *GameState) State() State { return State(g.state.Load()) }

func (g *GameState) Message() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.message
}
