package plugin

import "sync"

// States is the run-state table: the single source of truth for whether a
// plugin is currently active. Its only writers are the Loader (initial
// transitions) and the lifecycle Controller (all subsequent transitions).
type States struct {
	mu sync.RWMutex
	m  map[string]*runState
}

type runState struct {
	state    State
	err      error
	teardown TeardownFunc
}

// NewStates creates an empty run-state table.
func NewStates() *States {
	return &States{m: make(map[string]*runState)}
}

// Get returns the current state for a name.
// Plugins never touched by the loader report StateDiscovered.
func (s *States) Get(name string) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rs, ok := s.m[name]; ok {
		return rs.state
	}
	return StateDiscovered
}

// Err returns the recorded error for a name, if any.
func (s *States) Err(name string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rs, ok := s.m[name]; ok {
		return rs.err
	}
	return nil
}

// Enabled returns the names currently in StateEnabled.
// Order follows the given name sequence.
func (s *States) Enabled(names []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]string, 0, len(names))
	for _, name := range names {
		if rs, ok := s.m[name]; ok && rs.state == StateEnabled {
			result = append(result, name)
		}
	}
	return result
}

// set records a non-enabled state with an optional error.
// Any previously recorded teardown is dropped.
func (s *States) set(name string, state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[name] = &runState{state: state, err: err}
}

// setEnabled records a successful enable with its teardown callback.
func (s *States) setEnabled(name string, teardown TeardownFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[name] = &runState{state: StateEnabled, teardown: teardown}
}

// takeTeardown removes and returns the recorded teardown for a name.
func (s *States) takeTeardown(name string) TeardownFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.m[name]
	if !ok {
		return nil
	}
	fn := rs.teardown
	rs.teardown = nil
	return fn
}
