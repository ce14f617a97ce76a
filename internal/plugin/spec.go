package plugin

// SetupFunc is a plugin's initialization entry point. It receives the
// application context handle and reports success or failure; it must not
// block on deferred work it schedules elsewhere.
type SetupFunc func(ctx *Context) error

// TeardownFunc unwinds whatever a plugin's setup registered.
type TeardownFunc func()

// Context is the application-context handle passed to a plugin's setup
// entry. A plugin may register a teardown callback through it; the callback
// runs when the plugin is later disabled.
type Context struct {
	name     string
	teardown TeardownFunc
}

// PluginName returns the name of the plugin being set up.
func (c *Context) PluginName() string {
	return c.name
}

// OnTeardown registers a callback invoked when the plugin is disabled.
// Calling it again replaces the previous callback.
func (c *Context) OnTeardown(fn TeardownFunc) {
	c.teardown = fn
}

// Spec holds the immutable metadata discovered for one plugin.
type Spec struct {
	// Name is the unique, run-stable identifier.
	Name string

	// Setup is the plugin's initialization entry point, invoked exactly
	// once per enable transition.
	Setup SetupFunc

	// Before lists plugins that must load after this one.
	Before []string

	// After lists plugins that must load before this one.
	After []string

	// Requires lists plugins that must be present and enabled for this
	// plugin to enable. A requirement implies ordering.
	Requires []string

	// Source is the filesystem path the spec was discovered from.
	// Empty for built-in specs registered directly.
	Source string
}

// Store holds specs in registration order. Registration order is discovery
// order and serves as the resolver's tie break. The store performs no
// validation of constraint references; cross-referencing is the resolver's
// job.
type Store struct {
	specs map[string]*Spec
	order []string
}

// NewStore creates an empty spec store.
func NewStore() *Store {
	return &Store{
		specs: make(map[string]*Spec),
	}
}

// Register adds a spec to the store.
// Returns DuplicateNameError if the name is already present.
func (s *Store) Register(spec *Spec) error {
	if spec.Name == "" {
		return ErrEmptyName
	}
	if spec.Setup == nil {
		return &SetupError{Name: spec.Name, Err: ErrNilSetup}
	}
	if _, exists := s.specs[spec.Name]; exists {
		return &DuplicateNameError{Name: spec.Name}
	}
	s.specs[spec.Name] = spec
	s.order = append(s.order, spec.Name)
	return nil
}

// Get returns the spec for a name.
func (s *Store) Get(name string) (*Spec, bool) {
	spec, ok := s.specs[name]
	return spec, ok
}

// All returns the specs in registration order.
func (s *Store) All() []*Spec {
	result := make([]*Spec, 0, len(s.order))
	for _, name := range s.order {
		result = append(result, s.specs[name])
	}
	return result
}

// Names returns the registered names in registration order.
func (s *Store) Names() []string {
	return append([]string{}, s.order...)
}

// Index returns the registration index of a name.
func (s *Store) Index(name string) (int, bool) {
	for i, n := range s.order {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Len returns the number of registered specs.
func (s *Store) Len() int {
	return len(s.order)
}
