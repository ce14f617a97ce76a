package plugin

// Resolution is the outcome of dependency resolution: a deterministic load
// order plus the requirements that reference names absent from the store.
// The resolution depends only on the specs and their declared constraints,
// so an unchanged store always yields an identical order.
type Resolution struct {
	// Order is the sequence in which plugin setups should be attempted.
	Order []string

	// Unresolved maps a plugin name to its required names that are absent
	// from the store. The loader marks such plugins dependency-unmet
	// instead of attempting setup.
	Unresolved map[string][]string
}

// Resolver computes a load order from a spec store.
type Resolver struct {
	log Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger used for unresolved-reference warnings.
func WithResolverLogger(log Logger) ResolverOption {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// NewResolver creates a resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{log: nopLogger{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve produces a load order satisfying every declared before/after/
// requires constraint, or fails with CycleError naming the whole blocked
// remainder. References to names absent from the store never fail
// resolution: requires references are surfaced in Resolution.Unresolved,
// plain ordering references are logged and ignored.
func (r *Resolver) Resolve(store *Store) (*Resolution, error) {
	names := store.Names()
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}

	// Normalize all constraints into must-come-before edges from -> to.
	edges := make(map[string]map[string]struct{}, len(names))
	indegree := make(map[string]int, len(names))
	for _, name := range names {
		edges[name] = make(map[string]struct{})
		indegree[name] = 0
	}

	addEdge := func(from, to string) {
		if _, dup := edges[from][to]; dup {
			return
		}
		edges[from][to] = struct{}{}
		indegree[to]++
	}

	unresolved := make(map[string][]string)
	for _, spec := range store.All() {
		for _, target := range spec.After {
			if _, ok := index[target]; !ok {
				r.log.Debug("plugin %q orders after unknown plugin %q, ignoring", spec.Name, target)
				continue
			}
			addEdge(target, spec.Name)
		}
		for _, target := range spec.Before {
			if _, ok := index[target]; !ok {
				r.log.Debug("plugin %q orders before unknown plugin %q, ignoring", spec.Name, target)
				continue
			}
			addEdge(spec.Name, target)
		}
		for _, target := range spec.Requires {
			if _, ok := index[target]; !ok {
				unresolved[spec.Name] = append(unresolved[spec.Name], target)
				r.log.Warn("plugin %q requires unknown plugin %q", spec.Name, target)
				continue
			}
			addEdge(target, spec.Name)
		}
	}

	// Stable topological sort: among ready nodes, always pick the one with
	// the lowest registration index. Quadratic, but plugin counts are small
	// and the scan keeps selection trivially deterministic.
	order := make([]string, 0, len(names))
	done := make(map[string]bool, len(names))
	for len(order) < len(names) {
		selected := ""
		for _, name := range names {
			if !done[name] && indegree[name] == 0 {
				selected = name
				break
			}
		}
		if selected == "" {
			remainder := make([]string, 0, len(names)-len(order))
			for _, name := range names {
				if !done[name] {
					remainder = append(remainder, name)
				}
			}
			return nil, &CycleError{Names: remainder}
		}
		done[selected] = true
		order = append(order, selected)
		for to := range edges[selected] {
			indegree[to]--
		}
	}

	return &Resolution{Order: order, Unresolved: unresolved}, nil
}
