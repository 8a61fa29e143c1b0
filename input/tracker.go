// Package input turns terminal key events into per-frame control snapshots
package input

import (
	"time"

	"github.com/gdamore/tcell/v2"
)

// Snapshot is the control state for one frame
type Snapshot struct {
	Forward   bool
	Backward  bool
	Left      bool
	Right     bool
	Handbrake bool
}

// Any reports whether any control is held
func (s Snapshot) Any() bool {
	return s.Forward || s.Backward || s.Left || s.Right || s.Handbrake
}

// Clock supplies the time key presses are stamped with
type Clock interface {
	Now() time.Time
}

// Default hold windows, terminals repeat a held key after ~250-500ms then every ~30ms
const (
	DefaultInitialHold = 500 * time.Millisecond
	DefaultRepeatHold  = 120 * time.Millisecond
)

type keyState struct {
	last      time.Time
	repeating bool
	down      bool
}

// Tracker keeps held state for keys of a terminal that never reports key-up
// A key counts as held until its hold window passes without a repeat
// Not safe for concurrent use, feed it from the frame loop
type Tracker struct {
	table       *KeyTable
	clock       Clock
	initialHold time.Duration
	repeatHold  time.Duration

	held     [heldCount]keyState
	triggers []Action
}

func NewTracker(table *KeyTable, clock Clock, initialHold, repeatHold time.Duration) *Tracker {
	if initialHold <= 0 {
		initialHold = DefaultInitialHold
	}
	if repeatHold <= 0 {
		repeatHold = DefaultRepeatHold
	}
	return &Tracker{
		table:       table,
		clock:       clock,
		initialHold: initialHold,
		repeatHold:  repeatHold,
		triggers:    make([]Action, 0, 4),
	}
}

// HandleEvent records a key event and returns its action
func (t *Tracker) HandleEvent(ev tcell.Event) Action {
	kev, ok := ev.(*tcell.EventKey)
	if !ok {
		return ActionNone
	}
	a := t.table.Lookup(kev)
	t.Press(a)
	return a
}

// Press records one press of a, held actions start or extend their hold, others queue as triggers
func (t *Tracker) Press(a Action) {
	switch {
	case a == ActionNone:
		return
	case a.Held():
		now := t.clock.Now()
		st := &t.held[a]
		if st.down && now.Sub(st.last) < t.window(st) {
			st.repeating = true
		} else {
			st.repeating = false
		}
		st.down = true
		st.last = now
		if opp := opposite(a); opp != ActionNone {
			t.held[opp] = keyState{}
		}
	default:
		t.triggers = append(t.triggers, a)
	}
}

// Triggers drains the trigger actions pressed since the last call
func (t *Tracker) Triggers() []Action {
	if len(t.triggers) == 0 {
		return nil
	}
	out := append([]Action(nil), t.triggers...)
	t.triggers = t.triggers[:0]
	return out
}

// Snapshot samples held state at the clock's current time
func (t *Tracker) Snapshot() Snapshot {
	now := t.clock.Now()
	return Snapshot{
		Forward:   t.isHeld(ActionForward, now),
		Backward:  t.isHeld(ActionBackward, now),
		Left:      t.isHeld(ActionLeft, now),
		Right:     t.isHeld(ActionRight, now),
		Handbrake: t.isHeld(ActionHandbrake, now),
	}
}

// Reset releases every key and drops pending triggers
func (t *Tracker) Reset() {
	t.held = [heldCount]keyState{}
	t.triggers = t.triggers[:0]
}

func (t *Tracker) isHeld(a Action, now time.Time) bool {
	st := &t.held[a]
	if !st.down {
		return false
	}
	if now.Sub(st.last) >= t.window(st) {
		*st = keyState{}
		return false
	}
	return true
}

func (t *Tracker) window(st *keyState) time.Duration {
	if st.repeating {
		return t.repeatHold
	}
	return t.initialHold
}

func opposite(a Action) Action {
	switch a {
	case ActionForward:
		return ActionBackward
	case ActionBackward:
		return ActionForward
	case ActionLeft:
		return ActionRight
	case ActionRight:
		return ActionLeft
	}
	return ActionNone
}
