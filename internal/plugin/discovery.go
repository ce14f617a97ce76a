package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Discovery scans an ordered sequence of directories for plugins and
// registers their specs with a store. The sequence is stable for a run:
// built-in directories come before user-supplied ones, and entries within
// a directory are visited in lexical order, so registration order is fully
// deterministic for a fixed set of directories.
type Discovery struct {
	dirs []string
	log  Logger
}

// DiscoveryOption configures a Discovery.
type DiscoveryOption func(*Discovery)

// WithDiscoveryLogger sets the logger for per-entry scan outcomes.
func WithDiscoveryLogger(log Logger) DiscoveryOption {
	return func(d *Discovery) {
		if log != nil {
			d.log = log
		}
	}
}

// NewDiscovery creates a discovery over the given search directories,
// scanned in order.
func NewDiscovery(dirs []string, opts ...DiscoveryOption) *Discovery {
	d := &Discovery{dirs: dirs, log: nopLogger{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DefaultPluginDirs returns the default plugin search directories.
func DefaultPluginDirs() []string {
	dirs := make([]string, 0, 2)

	// User plugins: ~/.config/inkwell/plugins/
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "inkwell", "plugins"))
	}

	// Project plugins: .inkwell/plugins/
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, filepath.Join(cwd, ".inkwell", "plugins"))
	}

	return dirs
}

// Dirs returns the configured search directories.
func (d *Discovery) Dirs() []string {
	return d.dirs
}

// Populate scans every directory in order and registers each discovered
// plugin's spec. A missing directory is not an error. A duplicate name is:
// discovery aborts so the surrounding application can refuse to start with
// an ambiguous plugin set.
func (d *Discovery) Populate(store *Store) error {
	for _, dir := range d.dirs {
		if err := d.scanDir(store, dir); err != nil {
			return err
		}
	}
	return nil
}

// scanDir registers the plugins found in a single directory.
func (d *Discovery) scanDir(store *Store, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Not an error if the directory doesn't exist
		}
		return fmt.Errorf("failed to scan plugin directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		var manifest *Manifest

		if entry.IsDir() {
			manifest = d.inspectDir(entry.Name(), filepath.Join(dir, entry.Name()))
		} else if filepath.Ext(entry.Name()) == ".lua" {
			name := strings.TrimSuffix(entry.Name(), ".lua")
			manifest = NewManifestMinimal(name, dir)
			manifest.Main = entry.Name()
		}
		if manifest == nil {
			continue
		}

		host, err := NewHost(manifest)
		if err != nil {
			return err
		}
		if err := store.Register(host.Spec()); err != nil {
			return err
		}
		d.log.Debug("discovered plugin %q from %s", manifest.Name, manifest.Path())
	}

	return nil
}

// inspectDir examines a plugin directory and returns its manifest, or nil
// if the directory holds no usable plugin. A broken manifest or a missing
// entry point is logged and skipped rather than aborting the scan; the
// plugin simply never enters the store.
func (d *Discovery) inspectDir(name, path string) *Manifest {
	manifestPath := filepath.Join(path, "plugin.json")
	if _, err := os.Stat(manifestPath); err == nil {
		manifest, err := LoadManifest(manifestPath)
		if err != nil {
			d.log.Warn("skipping plugin at %s: %v", path, err)
			return nil
		}
		return manifest
	}

	// No manifest - check for init.lua
	initPath := filepath.Join(path, "init.lua")
	if _, err := os.Stat(initPath); err == nil {
		return NewManifestMinimal(name, path)
	}

	d.log.Debug("skipping %s: %v", path, ErrNoEntryPoint)
	return nil
}
