package plugin

import "fmt"

// Loader walks a resolved load order once and attempts each plugin's setup
// entry, isolating failures per plugin. A single plugin's failure never
// aborts the overall pass.
type Loader struct {
	store  *Store
	states *States
	log    Logger
}

// LoadOptions controls which plugins the initial pass attempts.
// Excluded plugins are never attempted, not even marked failed.
type LoadOptions struct {
	// Allow, when non-empty, restricts the pass to the named plugins.
	Allow []string

	// Deny excludes the named plugins from the pass.
	Deny []string
}

// Result records one plugin's outcome from a load pass.
type Result struct {
	Name  string
	State State
	Err   error
}

// Report is the end-of-pass summary handed to the reporting collaborator.
// Results follow load order and cover every attempted plugin; Skipped lists
// plugins excluded by allow/deny before any attempt.
type Report struct {
	Results []Result
	Skipped []string
}

// Failed returns the results whose plugins did not reach StateEnabled.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.State != StateEnabled {
			failed = append(failed, res)
		}
	}
	return failed
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the logger for per-plugin load outcomes.
func WithLoaderLogger(log Logger) LoaderOption {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLoader creates a loader over a store and run-state table.
func NewLoader(store *Store, states *States, opts ...LoaderOption) *Loader {
	l := &Loader{store: store, states: states, log: nopLogger{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadAll attempts every plugin in resolved order and returns the pass
// report. For each plugin it first checks requirements against the
// resolution's unresolved set and the outcomes recorded so far; a plugin
// whose requirement is absent, failed, or excluded is marked
// dependency-unmet without its setup running.
func (l *Loader) LoadAll(res *Resolution, opts LoadOptions) *Report {
	report := &Report{}

	var allowed map[string]bool
	if len(opts.Allow) > 0 {
		allowed = make(map[string]bool, len(opts.Allow))
		for _, name := range opts.Allow {
			allowed[name] = true
		}
	}
	denied := make(map[string]bool, len(opts.Deny))
	for _, name := range opts.Deny {
		denied[name] = true
	}

	absent := make(map[string]map[string]bool, len(res.Unresolved))
	for name, targets := range res.Unresolved {
		set := make(map[string]bool, len(targets))
		for _, t := range targets {
			set[t] = true
		}
		absent[name] = set
	}

	for _, name := range res.Order {
		if denied[name] || (allowed != nil && !allowed[name]) {
			report.Skipped = append(report.Skipped, name)
			l.log.Debug("plugin %q excluded from load pass", name)
			continue
		}

		spec, ok := l.store.Get(name)
		if !ok {
			// Resolution and store out of sync; treat as unknown.
			err := fmt.Errorf("%w: %s", ErrUnknownPlugin, name)
			l.states.set(name, StateDependencyUnmet, err)
			report.Results = append(report.Results, Result{Name: name, State: StateDependencyUnmet, Err: err})
			continue
		}

		var missing []string
		for _, req := range spec.Requires {
			if absent[name][req] || !l.states.Get(req).IsEnabled() {
				missing = append(missing, req)
			}
		}
		if len(missing) > 0 {
			err := &DependencyUnmetError{Name: name, Missing: missing}
			l.states.set(name, StateDependencyUnmet, err)
			report.Results = append(report.Results, Result{Name: name, State: StateDependencyUnmet, Err: err})
			l.log.Warn("plugin %q not loaded: %v", name, err)
			continue
		}

		ctx := &Context{name: name}
		if err := runSetup(spec, ctx); err != nil {
			serr := &SetupError{Name: name, Err: err}
			l.states.set(name, StateSetupFailed, serr)
			report.Results = append(report.Results, Result{Name: name, State: StateSetupFailed, Err: serr})
			l.log.Error("plugin %q setup failed: %v", name, err)
			continue
		}

		l.states.setEnabled(name, ctx.teardown)
		report.Results = append(report.Results, Result{Name: name, State: StateEnabled})
		l.log.Debug("plugin %q enabled", name)
	}

	return report
}

// runSetup invokes a setup entry inside the failure boundary: a panic in
// the plugin's routine is captured as an error rather than unwinding the
// load pass.
func runSetup(spec *Spec, ctx *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("setup panicked: %v", r)
		}
	}()
	return spec.Setup(ctx)
}
