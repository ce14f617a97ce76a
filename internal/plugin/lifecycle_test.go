package plugin

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// loadAndControl builds a store, runs a full load pass, and returns the
// controller sharing the same run-state table.
func loadAndControl(t *testing.T, specs ...*Spec) (*Store, *States, *Controller) {
	t.Helper()
	store := NewStore()
	mustRegister(t, store, specs...)
	states, _ := loadStore(t, store, LoadOptions{})
	return store, states, NewController(store, states)
}

func TestDisableEnabled(t *testing.T) {
	torn := false
	_, states, ctrl := loadAndControl(t, &Spec{Name: "core", Setup: func(ctx *Context) error {
		ctx.OnTeardown(func() { torn = true })
		return nil
	}})

	if err := ctrl.Disable("core"); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	if !torn {
		t.Error("teardown was not invoked")
	}
	if got := states.Get("core"); got != StateDisabled {
		t.Errorf("state = %v, want %v", got, StateDisabled)
	}
}

func TestDisableTwiceFailsAndLeavesStateUnchanged(t *testing.T) {
	_, states, ctrl := loadAndControl(t, &Spec{Name: "core"})

	if err := ctrl.Disable("core"); err != nil {
		t.Fatalf("first Disable() error = %v", err)
	}

	err := ctrl.Disable("core")
	var notEnabled *NotEnabledError
	if !errors.As(err, &notEnabled) {
		t.Fatalf("second Disable() error = %v, want *NotEnabledError", err)
	}
	if notEnabled.State != StateDisabled {
		t.Errorf("NotEnabledError.State = %v, want %v", notEnabled.State, StateDisabled)
	}
	if got := states.Get("core"); got != StateDisabled {
		t.Errorf("state = %v, want %v (unchanged)", got, StateDisabled)
	}
}

func TestDisableUnknown(t *testing.T) {
	_, _, ctrl := loadAndControl(t, &Spec{Name: "core"})
	if err := ctrl.Disable("missing"); !errors.Is(err, ErrUnknownPlugin) {
		t.Errorf("Disable(missing) error = %v, want ErrUnknownPlugin", err)
	}
}

func TestDisableCascade(t *testing.T) {
	_, states, ctrl := loadAndControl(t,
		&Spec{Name: "b"},
		&Spec{Name: "a", Requires: []string{"b"}},
	)

	if err := ctrl.Disable("b"); err != nil {
		t.Fatalf("Disable(b) error = %v", err)
	}

	if got := states.Get("b"); got != StateDisabled {
		t.Errorf("state(b) = %v, want %v", got, StateDisabled)
	}
	if got := states.Get("a"); got != StateDependencyUnmet {
		t.Errorf("state(a) = %v, want %v", got, StateDependencyUnmet)
	}
}

func TestDisableCascadeRecursive(t *testing.T) {
	teardowns := []string{}
	track := func(name string) SetupFunc {
		return func(ctx *Context) error {
			ctx.OnTeardown(func() { teardowns = append(teardowns, name) })
			return nil
		}
	}
	_, states, ctrl := loadAndControl(t,
		&Spec{Name: "core", Setup: track("core")},
		&Spec{Name: "vcs", Requires: []string{"core"}, Setup: track("vcs")},
		&Spec{Name: "blame", Requires: []string{"vcs"}, Setup: track("blame")},
	)

	if err := ctrl.Disable("core"); err != nil {
		t.Fatalf("Disable(core) error = %v", err)
	}

	if got := states.Get("vcs"); got != StateDependencyUnmet {
		t.Errorf("state(vcs) = %v, want %v", got, StateDependencyUnmet)
	}
	if got := states.Get("blame"); got != StateDependencyUnmet {
		t.Errorf("state(blame) = %v, want %v", got, StateDependencyUnmet)
	}
	if !reflect.DeepEqual(teardowns, []string{"core", "vcs", "blame"}) {
		t.Errorf("teardown order = %v, want [core vcs blame]", teardowns)
	}
}

func TestDisableCascadeLeavesDisabledUntouched(t *testing.T) {
	_, states, ctrl := loadAndControl(t,
		&Spec{Name: "b"},
		&Spec{Name: "a", Requires: []string{"b"}},
	)

	if err := ctrl.Disable("a"); err != nil {
		t.Fatalf("Disable(a) error = %v", err)
	}
	if err := ctrl.Disable("b"); err != nil {
		t.Fatalf("Disable(b) error = %v", err)
	}

	// a was already explicitly disabled; the cascade must not touch it.
	if got := states.Get("a"); got != StateDisabled {
		t.Errorf("state(a) = %v, want %v", got, StateDisabled)
	}
}

func TestEnableAlreadyEnabled(t *testing.T) {
	_, _, ctrl := loadAndControl(t, &Spec{Name: "core"})

	err := ctrl.Enable("core")
	var already *AlreadyEnabledError
	if !errors.As(err, &already) {
		t.Fatalf("Enable() error = %v, want *AlreadyEnabledError", err)
	}
}

func TestEnableAfterDisable(t *testing.T) {
	setups := 0
	_, states, ctrl := loadAndControl(t, &Spec{Name: "core", Setup: func(*Context) error {
		setups++
		return nil
	}})

	if err := ctrl.Disable("core"); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	if err := ctrl.Enable("core"); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	if got := states.Get("core"); got != StateEnabled {
		t.Errorf("state = %v, want %v", got, StateEnabled)
	}
	// Setup runs exactly once per enable transition.
	if setups != 2 {
		t.Errorf("setup count = %d, want 2", setups)
	}
}

func TestEnableChecksLiveRequirements(t *testing.T) {
	_, states, ctrl := loadAndControl(t,
		&Spec{Name: "b"},
		&Spec{Name: "c"},
		&Spec{Name: "a", Requires: []string{"b", "c"}},
	)

	if err := ctrl.Disable("b"); err != nil {
		t.Fatalf("Disable(b) error = %v", err)
	}
	// a is now dependency-unmet; re-enabling must name b, not c.
	err := ctrl.Enable("a")
	var unmet *DependencyUnmetError
	if !errors.As(err, &unmet) {
		t.Fatalf("Enable(a) error = %v, want *DependencyUnmetError", err)
	}
	if !reflect.DeepEqual(unmet.Missing, []string{"b"}) {
		t.Errorf("Missing = %v, want [b]", unmet.Missing)
	}
	if got := states.Get("a"); got != StateDependencyUnmet {
		t.Errorf("state(a) = %v, want %v", got, StateDependencyUnmet)
	}

	// Restore the requirement and the dependent enables again.
	if err := ctrl.Enable("b"); err != nil {
		t.Fatalf("Enable(b) error = %v", err)
	}
	if err := ctrl.Enable("a"); err != nil {
		t.Fatalf("Enable(a) error = %v", err)
	}
	if got := states.Get("a"); got != StateEnabled {
		t.Errorf("state(a) = %v, want %v", got, StateEnabled)
	}
}

func TestEnableSetupFailure(t *testing.T) {
	attempts := 0
	_, states, ctrl := loadAndControl(t, &Spec{Name: "flaky", Setup: func(*Context) error {
		attempts++
		if attempts > 1 {
			return fmt.Errorf("boom")
		}
		return nil
	}})

	if err := ctrl.Disable("flaky"); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}

	err := ctrl.Enable("flaky")
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("Enable() error = %v, want *SetupError", err)
	}
	if got := states.Get("flaky"); got != StateSetupFailed {
		t.Errorf("state = %v, want %v", got, StateSetupFailed)
	}
}

func TestEnableUnknown(t *testing.T) {
	_, _, ctrl := loadAndControl(t, &Spec{Name: "core"})
	if err := ctrl.Enable("missing"); !errors.Is(err, ErrUnknownPlugin) {
		t.Errorf("Enable(missing) error = %v, want ErrUnknownPlugin", err)
	}
}

func TestControllerEvents(t *testing.T) {
	_, _, ctrl := loadAndControl(t,
		&Spec{Name: "b"},
		&Spec{Name: "a", Requires: []string{"b"}},
	)

	var events []Event
	unsubscribe := ctrl.Subscribe(func(event Event) {
		events = append(events, event)
	})

	if err := ctrl.Disable("b"); err != nil {
		t.Fatalf("Disable(b) error = %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("events len = %d, want 2", len(events))
	}
	if events[0].Type != EventDisabled || events[0].Plugin != "b" {
		t.Errorf("events[0] = %+v, want disabled b", events[0])
	}
	if events[1].Type != EventDependencyUnmet || events[1].Plugin != "a" {
		t.Errorf("events[1] = %+v, want dependency-unmet a", events[1])
	}

	unsubscribe()
	if err := ctrl.Enable("b"); err != nil {
		t.Fatalf("Enable(b) error = %v", err)
	}
	if len(events) != 2 {
		t.Errorf("events len after unsubscribe = %d, want 2", len(events))
	}
}

func TestSubscribeHandlerPanicRecovered(t *testing.T) {
	_, _, ctrl := loadAndControl(t, &Spec{Name: "core"})

	ctrl.Subscribe(func(Event) { panic("handler bug") })

	if err := ctrl.Disable("core"); err != nil {
		t.Errorf("Disable() error = %v, want nil despite handler panic", err)
	}
}
