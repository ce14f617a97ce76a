// Package app provides the application facade for Inkwell. It wires
// discovery, resolution, loading, and the lifecycle controller together
// and manages startup and shutdown.
package app

import (
	"fmt"
	"io"

	"github.com/hollisb/inkwell/internal/config"
	"github.com/hollisb/inkwell/internal/plugin"
)

// Application coordinates the plugin subsystem for one editor process.
type Application struct {
	cfg *config.Config
	log *Logger

	store      *plugin.Store
	states     *plugin.States
	controller *plugin.Controller
	stateFile  *plugin.StateFile

	report  *plugin.Report
	unwatch func()
	booted  bool
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file.
	// Empty means the default location.
	ConfigPath string

	// PluginDirs overrides the configured plugin search directories.
	PluginDirs []string

	// LogLevel overrides the configured logging verbosity.
	LogLevel string

	// LogOutput is where logs are written. Defaults to stderr.
	LogOutput io.Writer
}

// New creates an Application with the given options. Plugins are not
// discovered or loaded until Bootstrap runs, so built-in specs can still
// be registered first.
func New(opts Options) (*Application, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if len(opts.PluginDirs) > 0 {
		cfg.PluginDirs = opts.PluginDirs
	}

	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	log := NewLogger(ParseLogLevel(level), opts.LogOutput)

	app := &Application{
		cfg:    cfg,
		log:    log,
		store:  plugin.NewStore(),
		states: plugin.NewStates(),
	}
	app.stateFile = plugin.NewStateFile(cfg.StateFilePath(),
		plugin.WithStateFileLogger(log.WithComponent("persist")))
	return app, nil
}

// Config returns the loaded configuration.
func (a *Application) Config() *config.Config {
	return a.cfg
}

// Logger returns the application logger.
func (a *Application) Logger() *Logger {
	return a.log
}

// RegisterBuiltin registers a built-in plugin spec ahead of filesystem
// discovery, so built-ins take the earliest registration indexes.
// Must be called before Bootstrap.
func (a *Application) RegisterBuiltin(spec *plugin.Spec) error {
	if a.booted {
		return fmt.Errorf("cannot register builtin %q after bootstrap", spec.Name)
	}
	return a.store.Register(spec)
}

// Bootstrap discovers, resolves, and loads all plugins, then arms the
// lifecycle controller. Fatal conditions (duplicate names, constraint
// cycles) abort before any plugin setup runs; everything else degrades to
// per-plugin failure states captured in the startup report.
func (a *Application) Bootstrap() error {
	if a.booted {
		return fmt.Errorf("application already bootstrapped")
	}

	discovery := plugin.NewDiscovery(a.cfg.PluginDirs,
		plugin.WithDiscoveryLogger(a.log.WithComponent("discovery")))
	if err := discovery.Populate(a.store); err != nil {
		return fmt.Errorf("plugin discovery failed: %w", err)
	}

	resolver := plugin.NewResolver(
		plugin.WithResolverLogger(a.log.WithComponent("resolver")))
	resolution, err := resolver.Resolve(a.store)
	if err != nil {
		return fmt.Errorf("plugin resolution failed: %w", err)
	}

	persisted, err := a.stateFile.Disabled()
	if err != nil {
		// A corrupt state file should not keep the editor from starting.
		a.log.Warn("ignoring plugin state file: %v", err)
	}
	deny := append(append([]string{}, a.cfg.DenyPlugins...), persisted...)

	loader := plugin.NewLoader(a.store, a.states,
		plugin.WithLoaderLogger(a.log.WithComponent("loader")))
	a.report = loader.LoadAll(resolution, plugin.LoadOptions{
		Allow: a.cfg.AllowPlugins,
		Deny:  deny,
	})

	a.controller = plugin.NewController(a.store, a.states,
		plugin.WithControllerLogger(a.log.WithComponent("lifecycle")))
	a.unwatch = a.stateFile.Watch(a.controller)

	a.booted = true
	a.log.Info("loaded %d plugins, %d failed, %d skipped",
		len(a.report.Results)-len(a.report.Failed()), len(a.report.Failed()), len(a.report.Skipped))
	return nil
}

// Report returns the startup load report.
func (a *Application) Report() *plugin.Report {
	return a.report
}

// Enable enables a plugin at runtime.
func (a *Application) Enable(name string) error {
	if !a.booted {
		return fmt.Errorf("application not bootstrapped")
	}
	return a.controller.Enable(name)
}

// Disable disables a plugin at runtime, cascading to dependents.
func (a *Application) Disable(name string) error {
	if !a.booted {
		return fmt.Errorf("application not bootstrapped")
	}
	return a.controller.Disable(name)
}

// Subscribe adds a lifecycle event handler for the reporting collaborator.
// Returns the unsubscribe function.
func (a *Application) Subscribe(handler plugin.EventHandler) (func(), error) {
	if !a.booted {
		return nil, fmt.Errorf("application not bootstrapped")
	}
	return a.controller.Subscribe(handler), nil
}

// Status lists every registered plugin with its current run state, in
// registration order.
func (a *Application) Status() []plugin.Result {
	results := make([]plugin.Result, 0, a.store.Len())
	for _, name := range a.store.Names() {
		results = append(results, plugin.Result{
			Name:  name,
			State: a.states.Get(name),
			Err:   a.states.Err(name),
		})
	}
	return results
}

// Shutdown tears down all enabled plugins in reverse registration order.
// Shutdown teardowns are not persisted as user disables.
func (a *Application) Shutdown() {
	if !a.booted {
		return
	}
	if a.unwatch != nil {
		a.unwatch()
		a.unwatch = nil
	}

	names := a.states.Enabled(a.store.Names())
	for i := len(names) - 1; i >= 0; i-- {
		if err := a.controller.Disable(names[i]); err != nil {
			// Already swept up by an earlier cascade.
			continue
		}
	}
}
