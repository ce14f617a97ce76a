package plugin

// State represents the run state of a plugin.
type State int

// Plugin run states.
const (
	// StateDiscovered - Plugin metadata is registered but no setup has run.
	StateDiscovered State = iota

	// StateEnabled - Plugin setup completed successfully.
	StateEnabled

	// StateSetupFailed - Plugin setup returned an error or panicked.
	StateSetupFailed

	// StateDependencyUnmet - A required plugin is missing, failed, or disabled.
	StateDependencyUnmet

	// StateDisabled - Plugin was explicitly disabled after being enabled.
	StateDisabled
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateEnabled:
		return "enabled"
	case StateSetupFailed:
		return "setup-failed"
	case StateDependencyUnmet:
		return "dependency-unmet"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// IsEnabled returns true if the plugin is currently active.
func (s State) IsEnabled() bool {
	return s == StateEnabled
}
