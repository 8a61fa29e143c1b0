package engine

import (
	"sync"
	"time"
)

// TimeProvider is a source of wall time
type TimeProvider interface {
	Now() time.Time
}

// MonotonicTimeProvider reads the system clock with its monotonic component
type MonotonicTimeProvider struct{}

func NewMonotonicTimeProvider() *MonotonicTimeProvider { return &MonotonicTimeProvider{} }

func (MonotonicTimeProvider) Now() time.Time { return time.Now() }

// PausableClock is game time: real time minus every paused interval
type PausableClock struct {
	mu   sync.RWMutex
	real TimeProvider

	paused      bool
	pauseStart  time.Time
	totalPaused time.Duration
}

func NewPausableClock(real TimeProvider) *PausableClock {
	if real == nil {
		real = NewMonotonicTimeProvider()
	}
	return &PausableClock{real: real}
}

// Now returns game time, frozen while paused
func (pc *PausableClock) Now() time.Time {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	if pc.paused {
		return pc.pauseStart.Add(-pc.totalPaused)
	}
	return pc.real.Now().Add(-pc.totalPaused)
}

// RealTime returns wall time regardless of pause
func (pc *PausableClock) RealTime() time.Time { return pc.real.Now() }

func (pc *PausableClock) Pause() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if !pc.paused {
		pc.paused = true
		pc.pauseStart = pc.real.Now()
	}
}

func (pc *PausableClock) Resume() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.paused {
		pc.totalPaused += pc.real.Now().Sub(pc.pauseStart)
		pc.paused = false
		pc.pauseStart = time.Time{}
	}
}

// Toggle flips pause state and returns the new state
func (pc *PausableClock) Toggle() bool {
	if pc.IsPaused() {
		pc.Resume()
		return false
	}
	pc.Pause()
	return true
}

func (pc *PausableClock) IsPaused() bool {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.paused
}

// TotalPauseDuration includes the pause in progress
func (pc *PausableClock) TotalPauseDuration() time.Duration {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	total := pc.totalPaused
	if pc.paused {
		total += pc.real.Now().Sub(pc.pauseStart)
	}
	return total
}
