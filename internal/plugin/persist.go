package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// StateFile persists the last-known disabled plugin set across runs. On
// startup the application feeds its contents to the loader as the
// deny-list, so a plugin the user disabled stays off until re-enabled.
//
// The file is plain JSON ({"disabled": ["a", "b"]}) and is rewritten in
// place on every transition, keeping it valid even after a crash.
type StateFile struct {
	path string
	log  Logger
}

// StateFileOption configures a StateFile.
type StateFileOption func(*StateFile)

// WithStateFileLogger sets the logger for persistence failures.
func WithStateFileLogger(log Logger) StateFileOption {
	return func(f *StateFile) {
		if log != nil {
			f.log = log
		}
	}
}

// NewStateFile creates a state file at the given path.
func NewStateFile(path string, opts ...StateFileOption) *StateFile {
	f := &StateFile{path: path, log: nopLogger{}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the state file location.
func (f *StateFile) Path() string {
	return f.path
}

// Disabled returns the persisted disabled set in sorted order.
// A missing file means nothing was persisted yet.
func (f *StateFile) Disabled() ([]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("state file %s is not valid JSON", f.path)
	}

	var names []string
	for _, entry := range gjson.GetBytes(data, "disabled").Array() {
		if name := entry.String(); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// SetDisabled records or clears a plugin in the persisted disabled set.
func (f *StateFile) SetDisabled(name string, disabled bool) error {
	current, err := f.Disabled()
	if err != nil {
		return err
	}

	set := make(map[string]bool, len(current)+1)
	for _, n := range current {
		set[n] = true
	}
	set[name] = disabled
	names := make([]string, 0, len(set))
	for n, on := range set {
		if on {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read state file: %w", err)
		}
		data = []byte("{}")
	}

	updated, err := sjson.SetBytes(data, "disabled", names)
	if err != nil {
		return fmt.Errorf("failed to update state file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(f.path, updated, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// Watch subscribes the state file to a controller's transition events so
// explicit enables and disables persist across runs. Cascaded
// dependency-unmet transitions are deliberately not persisted: once the
// missing requirement is back, its dependents should load again.
// Returns the unsubscribe function.
func (f *StateFile) Watch(c *Controller) func() {
	return c.Subscribe(func(event Event) {
		switch event.Type {
		case EventDisabled:
			if err := f.SetDisabled(event.Plugin, true); err != nil {
				f.log.Error("failed to persist disable of %q: %v", event.Plugin, err)
			}
		case EventEnabled:
			if err := f.SetDisabled(event.Plugin, false); err != nil {
				f.log.Error("failed to persist enable of %q: %v", event.Plugin, err)
			}
		}
	})
}
