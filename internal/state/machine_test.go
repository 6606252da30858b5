package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialState(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, StateDisconnected, m.MustState())
	assert.False(t, m.IsConnected())
}

func TestHappyPathToConnected(t *testing.T) {
	m := NewMachine()
	ctx := context.Background()

	require.NoError(t, m.Fire(ctx, TriggerOpen))
	assert.Equal(t, StateConnecting, m.MustState())

	require.NoError(t, m.Fire(ctx, TriggerScanCode))
	assert.Equal(t, StateAwaitingScan, m.MustState())

	require.NoError(t, m.Fire(ctx, TriggerSessionOpen))
	assert.Equal(t, StateConnected, m.MustState())
	assert.True(t, m.IsConnected())
}

func TestRestoredSessionSkipsScan(t *testing.T) {
	m := NewMachine()
	ctx := context.Background()

	require.NoError(t, m.Fire(ctx, TriggerOpen))
	require.NoError(t, m.Fire(ctx, TriggerSessionOpen))
	assert.Equal(t, StateConnected, m.MustState())
}

func TestDropReturnsToConnecting(t *testing.T) {
	m := NewMachine()
	ctx := context.Background()

	require.NoError(t, m.Fire(ctx, TriggerOpen))
	require.NoError(t, m.Fire(ctx, TriggerSessionOpen))
	require.NoError(t, m.Fire(ctx, TriggerDropped))
	assert.Equal(t, StateConnecting, m.MustState())

	// A drop while still connecting re-enters connecting.
	require.NoError(t, m.Fire(ctx, TriggerDropped))
	assert.Equal(t, StateConnecting, m.MustState())
}

func TestLogoutIsTerminal(t *testing.T) {
	m := NewMachine()
	ctx := context.Background()

	require.NoError(t, m.Fire(ctx, TriggerOpen))
	require.NoError(t, m.Fire(ctx, TriggerSessionOpen))
	require.NoError(t, m.Fire(ctx, TriggerLogout))
	assert.Equal(t, StateDisconnected, m.MustState())

	can, err := m.CanFire(ctx, TriggerDropped)
	require.NoError(t, err)
	assert.False(t, can, "disconnected account must not auto-reconnect")
}

func TestBlockedRequiresExplicitReopen(t *testing.T) {
	m := NewMachine()
	ctx := context.Background()

	require.NoError(t, m.Fire(ctx, TriggerOpen))
	require.NoError(t, m.Fire(ctx, TriggerSessionOpen))
	require.NoError(t, m.Fire(ctx, TriggerBlocked))
	assert.Equal(t, StateBlocked, m.MustState())
	assert.True(t, m.MustState().IsTerminal())

	can, err := m.CanFire(ctx, TriggerDropped)
	require.NoError(t, err)
	assert.False(t, can)

	require.NoError(t, m.Fire(ctx, TriggerOpen))
	assert.Equal(t, StateConnecting, m.MustState())
}

func TestOpenFromConnectedRejected(t *testing.T) {
	m := NewMachine()
	ctx := context.Background()

	require.NoError(t, m.Fire(ctx, TriggerOpen))
	require.NoError(t, m.Fire(ctx, TriggerSessionOpen))
	assert.Error(t, m.Fire(ctx, TriggerOpen))
}

func TestTransitionCallbacks(t *testing.T) {
	m := NewMachine()
	ctx := context.Background()

	var transitions []Trigger
	m.OnTransition(func(_ context.Context, from, to State, trigger Trigger) {
		transitions = append(transitions, trigger)
	})

	require.NoError(t, m.Fire(ctx, TriggerOpen))
	require.NoError(t, m.Fire(ctx, TriggerSessionOpen))
	require.NoError(t, m.Fire(ctx, TriggerClose))

	assert.Equal(t, []Trigger{TriggerOpen, TriggerSessionOpen, TriggerClose}, transitions)
}
