// Package plugin provides the plugin system for Inkwell.
//
// Almost all of the editor's behavior is assembled from independently
// authored plugins at startup. This package owns the hard part of that:
// discovering available plugins, computing a deterministic load order that
// satisfies every declared constraint, running each plugin's setup with
// per-plugin failure isolation, and enabling/disabling plugins at runtime
// without destabilizing the rest of the application.
//
// # Components
//
//   - Store: immutable spec metadata in registration order
//   - Resolver: turns the store into a deterministic LoadOrder, or fails
//   - Loader: walks the order once, isolating each plugin's failures
//   - Controller: runtime enable/disable with cascading dependency checks
//   - Discovery: filesystem scan producing specs from script plugins
//   - StateFile: persists the disabled set across runs
//
// Data flows one way: discovery populates the store, the resolver reads it
// once and yields an order, the loader consumes the order and writes run
// state, and the controller mutates run state from then on. The store is
// read-only after discovery; the run-state table is the single source of
// truth for "is plugin X active" and has exactly two writers.
//
// # Constraints
//
// A spec declares three constraint sets, all by plugin name:
//
//	before:   plugins that must load after this one
//	after:    plugins that must load before this one
//	requires: plugins that must be present and enabled (implies "after")
//
// References to names not in the store are tolerated: a dangling before or
// after is logged and ignored, a dangling requires marks the dependent
// dependency-unmet at load time. Only two conditions are fatal to the
// whole load: a duplicate plugin name, and a constraint cycle.
//
// # Ordering
//
// The resolver runs a stable topological sort. Among plugins whose
// constraints are satisfied, the one registered earliest always loads
// first, so the computed order depends only on the specs themselves and is
// byte-for-byte identical across runs of an unchanged plugin set.
//
// # Script plugins
//
// Discovered plugins are Lua scripts executed by gopher-lua, one
// interpreter per plugin with only the safe standard libraries opened.
// Directory plugins carry an optional plugin.json manifest:
//
//	{
//	  "name": "git-status",
//	  "version": "1.0.0",
//	  "main": "init.lua",
//	  "requires": ["core"],
//	  "after": ["theme"]
//	}
//
// A script may define two optional globals:
//
//	function setup(ctx)
//	    -- runs at each enable; ctx.plugin holds the plugin name
//	end
//
//	function teardown()
//	    -- runs at disable, before the interpreter is closed
//	end
//
// Built-in plugins skip discovery and register a Spec with a Go setup
// function directly; the core treats both kinds identically.
//
// # Failure model
//
// An error or panic in one plugin's setup marks that plugin setup-failed
// and the pass moves on. Disabling a plugin tears down, breadth-first,
// every enabled plugin that requires it. The loader's end-of-pass Report
// lists every plugin's final state so the application can tell the user
// about degraded functionality without refusing to start.
//
// The whole subsystem runs on the application's control thread; internal
// locking exists so read-side helpers are safe from other goroutines, but
// all mutations must be funnelled onto one thread.
package plugin
