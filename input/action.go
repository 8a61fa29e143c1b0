package input

import "sort"

// Action is what a key does
type Action uint8

const (
	ActionNone Action = iota

	// Held actions, read through Snapshot
	ActionForward
	ActionBackward
	ActionLeft
	ActionRight
	ActionHandbrake

	// Trigger actions, fire once per press
	ActionCamera
	ActionPause
	ActionMute
	ActionQuit

	actionCount
)

// heldCount bounds the held action block
const heldCount = int(ActionHandbrake) + 1

var actionNames = map[Action]string{
	ActionNone:      "none",
	ActionForward:   "forward",
	ActionBackward:  "backward",
	ActionLeft:      "left",
	ActionRight:     "right",
	ActionHandbrake: "handbrake",
	ActionCamera:    "camera",
	ActionPause:     "pause",
	ActionMute:      "mute",
	ActionQuit:      "quit",
}

var actionByName = func() map[string]Action {
	m := make(map[string]Action, len(actionNames))
	for a, n := range actionNames {
		m[n] = a
	}
	return m
}()

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// Held reports whether the action is a continuous control
func (a Action) Held() bool { return a > ActionNone && int(a) < heldCount }

// ActionByName resolves a config action name
func ActionByName(name string) (Action, bool) {
	a, ok := actionByName[name]
	return a, ok
}

// ActionNames returns all action names sorted
func ActionNames() []string {
	names := make([]string, 0, len(actionByName))
	for n := range actionByName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
