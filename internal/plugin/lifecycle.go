package plugin

import (
	"fmt"
	"sync"
)

// EventType is the type of lifecycle event.
type EventType int

const (
	// EventEnabled is emitted when a plugin's setup completes.
	EventEnabled EventType = iota
	// EventDisabled is emitted when a plugin is explicitly disabled.
	EventDisabled
	// EventDependencyUnmet is emitted when a plugin loses a requirement.
	EventDependencyUnmet
	// EventSetupFailed is emitted when a re-enable attempt fails in setup.
	EventSetupFailed
)

// String returns a string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventEnabled:
		return "enabled"
	case EventDisabled:
		return "disabled"
	case EventDependencyUnmet:
		return "dependency-unmet"
	case EventSetupFailed:
		return "setup-failed"
	default:
		return "unknown"
	}
}

// Event represents a lifecycle transition.
type Event struct {
	Type   EventType
	Plugin string
	Error  error
}

// EventHandler handles lifecycle events. Handlers must be non-blocking and
// should not call back into the Controller. Panics in handlers are
// recovered.
type EventHandler func(event Event)

// Controller exposes runtime enable and disable of individual plugins
// after the initial load pass. It consults the store for constraint checks
// but never re-runs full graph resolution.
type Controller struct {
	mu sync.RWMutex

	store  *Store
	states *States
	log    Logger

	handlers []EventHandler
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithControllerLogger sets the logger for lifecycle transitions.
func WithControllerLogger(log Logger) ControllerOption {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// NewController creates a lifecycle controller over a store and run-state
// table. The table should be the same one the initial load pass wrote.
func NewController(store *Store, states *States, opts ...ControllerOption) *Controller {
	c := &Controller{store: store, states: states, log: nopLogger{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Disable tears down an enabled plugin and cascades to its dependents:
// every enabled plugin whose requires set names a newly non-enabled plugin
// is torn down and marked dependency-unmet, breadth-first, recursively.
// Returns NotEnabledError if the plugin is not currently enabled.
func (c *Controller) Disable(name string) error {
	if _, ok := c.store.Get(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlugin, name)
	}
	if state := c.states.Get(name); !state.IsEnabled() {
		return &NotEnabledError{Name: name, State: state}
	}

	c.teardown(name)
	c.states.set(name, StateDisabled, nil)
	c.log.Info("plugin %q disabled", name)
	c.emit(Event{Type: EventDisabled, Plugin: name})

	// Breadth-first cascade over the current dependent set. Dependents
	// already disabled are left untouched.
	queue := []string{name}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, spec := range c.store.All() {
			if !c.states.Get(spec.Name).IsEnabled() {
				continue
			}
			if !containsName(spec.Requires, current) {
				continue
			}
			c.teardown(spec.Name)
			err := &DependencyUnmetError{Name: spec.Name, Missing: []string{current}}
			c.states.set(spec.Name, StateDependencyUnmet, err)
			c.log.Warn("plugin %q disabled by cascade: %v", spec.Name, err)
			c.emit(Event{Type: EventDependencyUnmet, Plugin: spec.Name, Error: err})
			queue = append(queue, spec.Name)
		}
	}

	return nil
}

// Enable attempts to enable a plugin that is not currently enabled.
// Requirements are re-checked against the live run state, not the static
// graph; if any requirement is not presently enabled the attempt fails
// with DependencyUnmetError naming every missing requirement. Otherwise
// the setup entry runs under the same failure boundary as the initial
// load pass.
func (c *Controller) Enable(name string) error {
	spec, ok := c.store.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlugin, name)
	}
	if c.states.Get(name).IsEnabled() {
		return &AlreadyEnabledError{Name: name}
	}

	var missing []string
	for _, req := range spec.Requires {
		if !c.states.Get(req).IsEnabled() {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		err := &DependencyUnmetError{Name: name, Missing: missing}
		c.states.set(name, StateDependencyUnmet, err)
		c.emit(Event{Type: EventDependencyUnmet, Plugin: name, Error: err})
		return err
	}

	ctx := &Context{name: name}
	if err := runSetup(spec, ctx); err != nil {
		serr := &SetupError{Name: name, Err: err}
		c.states.set(name, StateSetupFailed, serr)
		c.log.Error("plugin %q setup failed: %v", name, err)
		c.emit(Event{Type: EventSetupFailed, Plugin: name, Error: serr})
		return serr
	}

	c.states.setEnabled(name, ctx.teardown)
	c.log.Info("plugin %q enabled", name)
	c.emit(Event{Type: EventEnabled, Plugin: name})
	return nil
}

// State returns the current run state for a plugin.
func (c *Controller) State(name string) State {
	return c.states.Get(name)
}

// Subscribe adds an event handler for the reporting collaborator.
// Returns an unsubscribe function to remove the handler.
func (c *Controller) Subscribe(handler EventHandler) func() {
	if handler == nil {
		return func() {}
	}

	c.mu.Lock()
	c.handlers = append(c.handlers, handler)
	index := len(c.handlers) - 1
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// Set to nil instead of removing to avoid index shifting issues.
		if index < len(c.handlers) {
			c.handlers[index] = nil
		}
	}
}

// teardown runs and clears a plugin's recorded teardown callback.
// Teardown panics are contained the same way setup panics are.
func (c *Controller) teardown(name string) {
	fn := c.states.takeTeardown(name)
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("plugin %q teardown panicked: %v", name, r)
		}
	}()
	fn()
}

// emit sends an event to all handlers, outside any state mutation.
func (c *Controller) emit(event Event) {
	c.mu.RLock()
	handlers := make([]EventHandler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.RUnlock()

	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		func() {
			defer func() {
				recover() // Ignore panics from handlers
			}()
			handler(event)
		}()
	}
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
