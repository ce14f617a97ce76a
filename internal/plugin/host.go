package plugin

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Host runs one script plugin inside its own Lua interpreter. It produces
// the spec's opaque setup entry, so nothing downstream of discovery knows
// the plugin is a script.
//
// A fresh interpreter is created per enable transition and closed again at
// teardown, which keeps re-enables from observing state left behind by a
// previous run.
type Host struct {
	manifest *Manifest
}

// NewHost creates a host for a manifest.
func NewHost(manifest *Manifest) (*Host, error) {
	if manifest == nil {
		return nil, ErrNilManifest
	}
	return &Host{manifest: manifest}, nil
}

// Spec builds the plugin spec backed by this host.
func (h *Host) Spec() *Spec {
	return &Spec{
		Name:     h.manifest.Name,
		Before:   append([]string{}, h.manifest.Before...),
		After:    append([]string{}, h.manifest.After...),
		Requires: append([]string{}, h.manifest.Requires...),
		Setup:    h.Setup,
		Source:   h.manifest.Path(),
	}
}

// Setup creates the Lua state, executes the plugin's main script, and
// calls its optional setup function. If the script defines a teardown
// function, a callback running it (and closing the interpreter) is
// registered on the context.
func (h *Host) Setup(ctx *Context) error {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // We'll open selectively
	})
	openSafeLibraries(L)

	if err := h.doWithRecovery(func() error { return L.DoFile(h.manifest.MainPath()) }); err != nil {
		L.Close()
		return fmt.Errorf("failed to load script: %w", err)
	}

	if err := h.callGlobal(L, "setup", h.contextTable(L, ctx)); err != nil {
		L.Close()
		return err
	}

	ctx.OnTeardown(func() {
		_ = h.callGlobal(L, "teardown")
		L.Close()
	})

	return nil
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	// Open base library (print, type, pairs, ipairs, etc.)
	lua.OpenBase(L)

	// Open safe libraries
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Note: These are intentionally NOT opened:
	// - io (file system access)
	// - os (system calls, execute)
	// - debug (can bypass sandbox)
	// - package (can load arbitrary modules)
}

// contextTable builds the Lua-side view of the application context handle.
func (h *Host) contextTable(L *lua.LState, ctx *Context) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "plugin", lua.LString(ctx.PluginName()))
	return tbl
}

// callGlobal calls a global Lua function if the script defines one.
// A missing or non-function global is not an error; both setup and
// teardown are optional.
func (h *Host) callGlobal(L *lua.LState, name string, args ...lua.LValue) error {
	fn := L.GetGlobal(name)
	if fn == lua.LNil || fn.Type() != lua.LTFunction {
		return nil
	}

	return h.doWithRecovery(func() error {
		return L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    0,
			Protect: true,
		}, args...)
	})
}

// doWithRecovery executes a function with panic recovery.
func (h *Host) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}
