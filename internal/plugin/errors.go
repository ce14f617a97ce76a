package plugin

import (
	"errors"
	"fmt"
	"strings"
)

// Plugin system errors.
var (
	// ErrUnknownPlugin is returned when a name does not match any registered spec.
	ErrUnknownPlugin = errors.New("unknown plugin")

	// ErrNilSetup is returned when a spec is registered without a setup entry.
	ErrNilSetup = errors.New("spec has no setup entry")

	// ErrEmptyName is returned when a spec is registered without a name.
	ErrEmptyName = errors.New("spec has no name")

	// ErrNoEntryPoint is returned when a plugin directory has no usable entry point.
	ErrNoEntryPoint = errors.New("plugin has no entry point (plugin.json or init.lua)")

	// ErrNilManifest is returned when a nil manifest is provided.
	ErrNilManifest = errors.New("manifest is nil")
)

// DuplicateNameError is returned when two specs share a name.
// This is fatal: discovery aborts before resolution runs.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate plugin name %q", e.Name)
}

// CycleError is returned when the declared ordering constraints are
// unsatisfiable. Names holds every plugin in the blocked remainder, in
// registration order, since all of them are jointly unorderable.
type CycleError struct {
	Names []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle among plugins: %s", strings.Join(e.Names, ", "))
}

// DependencyUnmetError is returned when a plugin's requirements are not
// currently satisfied. Missing lists every unmet requirement, not just the
// first one found.
type DependencyUnmetError struct {
	Name    string
	Missing []string
}

func (e *DependencyUnmetError) Error() string {
	return fmt.Sprintf("plugin %q has unmet requirements: %s", e.Name, strings.Join(e.Missing, ", "))
}

// SetupError wraps an error raised by a plugin's own setup entry.
type SetupError struct {
	Name string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("plugin %q setup failed: %v", e.Name, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// NotEnabledError is returned when disabling a plugin that is not enabled.
type NotEnabledError struct {
	Name  string
	State State
}

func (e *NotEnabledError) Error() string {
	return fmt.Sprintf("plugin %q is not enabled (state: %s)", e.Name, e.State)
}

// AlreadyEnabledError is returned when enabling a plugin that is already enabled.
type AlreadyEnabledError struct {
	Name string
}

func (e *AlreadyEnabledError) Error() string {
	return fmt.Sprintf("plugin %q is already enabled", e.Name)
}
