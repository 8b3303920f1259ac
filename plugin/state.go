package plugin

import "fmt"

// State represents the lifecycle state of a plugin.
type State int

const (
	StateUnloaded State = iota // Not present in the manager
	StateDisabled              // Loaded, hooks registered but hidden
	StateEnabled               // Loaded, hooks visible to queries
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateDisabled:
		return "disabled"
	case StateEnabled:
		return "enabled"
	default:
		return "unknown"
	}
}

// IsLoaded returns true for both loaded states.
func (s State) IsLoaded() bool {
	return s == StateDisabled || s == StateEnabled
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "unloaded":
		*s = StateUnloaded
	case "disabled":
		*s = StateDisabled
	case "enabled":
		*s = StateEnabled
	default:
		return fmt.Errorf("unknown plugin state %q", text)
	}
	return nil
}

// Visibility selects which loaded plugins' hooks extension point queries see.
type Visibility int

const (
	// HideDisabled shows only enabled plugins' hooks.
	HideDisabled Visibility = iota
	// ShowDisabled shows every loaded plugin's hooks.
	ShowDisabled
)

// ParseVisibility maps "hide-disabled" / "show-disabled" to a Visibility.
// The empty string means HideDisabled.
func ParseVisibility(s string) (Visibility, error) {
	switch s {
	case "", "hide-disabled":
		return HideDisabled, nil
	case "show-disabled":
		return ShowDisabled, nil
	default:
		return HideDisabled, fmt.Errorf("unknown visibility %q", s)
	}
}

// admits reports whether a plugin in state s is visible under v.
func (v Visibility) admits(s State) bool {
	if v == ShowDisabled {
		return s.IsLoaded()
	}
	return s == StateEnabled
}
