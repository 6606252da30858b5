package state

import (
	"context"
	"sync"

	"github.com/qmuntal/stateless"
)

// TransitionCallback is called when a state transition occurs.
type TransitionCallback func(ctx context.Context, from, to State, trigger Trigger)

// Machine wraps the stateless state machine with account-lifecycle behavior.
// One Machine exists per managed account.
type Machine struct {
	sm          *stateless.StateMachine
	callbacks   []TransitionCallback
	callbacksMu sync.RWMutex
}

// NewMachine creates a new state machine starting in Disconnected state.
func NewMachine() *Machine {
	m := &Machine{
		callbacks: make([]TransitionCallback, 0),
	}

	sm := stateless.NewStateMachine(StateDisconnected)

	sm.Configure(StateDisconnected).
		Permit(TriggerOpen, StateConnecting).
		Permit(TriggerBlocked, StateBlocked)

	sm.Configure(StateConnecting).
		Permit(TriggerScanCode, StateAwaitingScan).
		Permit(TriggerSessionOpen, StateConnected).
		Permit(TriggerLogout, StateDisconnected).
		Permit(TriggerClose, StateDisconnected).
		Permit(TriggerBlocked, StateBlocked).
		PermitReentry(TriggerDropped)

	sm.Configure(StateAwaitingScan).
		Permit(TriggerSessionOpen, StateConnected).
		Permit(TriggerDropped, StateConnecting).
		Permit(TriggerLogout, StateDisconnected).
		Permit(TriggerClose, StateDisconnected).
		Permit(TriggerBlocked, StateBlocked)

	sm.Configure(StateConnected).
		Permit(TriggerDropped, StateConnecting).
		Permit(TriggerLogout, StateDisconnected).
		Permit(TriggerClose, StateDisconnected).
		Permit(TriggerBlocked, StateBlocked)

	// Blocked requires operator intervention; the only way out is a fresh open.
	sm.Configure(StateBlocked).
		Permit(TriggerOpen, StateConnecting)

	sm.OnTransitioned(func(ctx context.Context, t stateless.Transition) {
		m.callbacksMu.RLock()
		callbacks := make([]TransitionCallback, len(m.callbacks))
		copy(callbacks, m.callbacks)
		m.callbacksMu.RUnlock()

		from := t.Source.(State)
		to := t.Destination.(State)
		trigger := t.Trigger.(Trigger)

		for _, cb := range callbacks {
			cb(ctx, from, to, trigger)
		}
	})

	m.sm = sm
	return m
}

// State returns the current state.
func (m *Machine) State(ctx context.Context) (State, error) {
	s, err := m.sm.State(ctx)
	if err != nil {
		return "", err
	}
	return s.(State), nil
}

// Fire triggers a state transition.
func (m *Machine) Fire(ctx context.Context, trigger Trigger, args ...any) error {
	return m.sm.FireCtx(ctx, trigger, args...)
}

// CanFire returns true if the trigger can be fired from the current state.
func (m *Machine) CanFire(ctx context.Context, trigger Trigger, args ...any) (bool, error) {
	return m.sm.CanFireCtx(ctx, trigger, args...)
}

// OnTransition registers a callback to be called on state transitions.
func (m *Machine) OnTransition(cb TransitionCallback) {
	m.callbacksMu.Lock()
	defer m.callbacksMu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// MustState returns the current state, panicking on error.
func (m *Machine) MustState() State {
	s, err := m.State(context.Background())
	if err != nil {
		panic(err)
	}
	return s
}

// IsConnected returns true if the account has a fully established session.
func (m *Machine) IsConnected() bool {
	return m.MustState() == StateConnected
}
