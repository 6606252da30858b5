package warmer

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warmpool/internal/protocol"
	"warmpool/internal/store"
)

type fakeSender struct {
	mu        sync.Mutex
	connected []string
	texts     int
	media     int
	presence  []protocol.PresenceState
}

func (s *fakeSender) ConnectedAccounts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.connected...)
}

func (s *fakeSender) Contact(accountID string) string {
	return accountID + "@c.us"
}

func (s *fakeSender) SendText(ctx context.Context, accountID, contact, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts++
	return nil
}

func (s *fakeSender) SendMedia(ctx context.Context, accountID, contact string, asset *store.Media, caption string, asSticker bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media++
	return nil
}

func (s *fakeSender) SendPresence(ctx context.Context, accountID, contact string, st protocol.PresenceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence = append(s.presence, st)
	return nil
}

func (s *fakeSender) sendCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.texts + s.media
}

func newTestWarmer(t *testing.T, connected ...string) (*Warmer, *fakeSender, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.Templates.Create(context.Background(), &store.Template{
		ID: "t1", Content: "oi", Active: true,
	}))

	sender := &fakeSender{connected: connected}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := New(sender, st.Templates, st.Media, st.Interactions, st.Configs, log)
	t.Cleanup(w.Stop)
	return w, sender, st
}

func TestExecuteInteractionNeedsTwoAccounts(t *testing.T) {
	for _, connected := range [][]string{nil, {"a1"}} {
		w, sender, st := newTestWarmer(t, connected...)

		sent, err := w.executeInteraction(context.Background())
		require.NoError(t, err)
		assert.False(t, sent)
		assert.Zero(t, sender.sendCount())

		recent, err := st.Interactions.Recent(context.Background(), 10)
		require.NoError(t, err)
		assert.Empty(t, recent)
	}
}

func TestExecuteInteractionDistinctPair(t *testing.T) {
	w, sender, st := newTestWarmer(t, "a1", "a2")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		sent, err := w.executeInteraction(ctx)
		require.NoError(t, err)
		assert.True(t, sent)
	}

	recent, err := st.Interactions.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	for _, rec := range recent {
		assert.NotEqual(t, rec.FromAccountID, rec.ToAccountID)
		assert.Contains(t, []string{"a1", "a2"}, rec.FromAccountID)
		assert.Contains(t, []string{"a1", "a2"}, rec.ToAccountID)
		assert.Equal(t, "sent", rec.Status)
		assert.Equal(t, rec.ToAccountID+"@c.us", rec.ToContact)
	}
	assert.Equal(t, 3, sender.sendCount())
}

func TestExecuteInteractionTypingSignals(t *testing.T) {
	w, sender, _ := newTestWarmer(t, "a1", "a2")

	sent, err := w.executeInteraction(context.Background())
	require.NoError(t, err)
	require.True(t, sent)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.presence, 2)
	assert.Equal(t, protocol.PresenceComposing, sender.presence[0])
	assert.Equal(t, protocol.PresencePaused, sender.presence[1])
}

func TestStartStopLifecycle(t *testing.T) {
	w, sender, st := newTestWarmer(t, "a1", "a2")
	ctx := context.Background()

	require.NoError(t, st.Configs.SetDelay(ctx, &store.DelayConfig{
		Strategy: store.DelayFixed, FixedSeconds: 10,
	}))

	assert.False(t, w.Status().Running)
	w.Start()
	w.Start() // idempotent
	assert.True(t, w.Status().Running)

	require.Eventually(t, func() bool {
		return sender.sendCount() == 1
	}, 10*time.Second, 50*time.Millisecond, "first interaction should complete")

	// The loop is now inside the 10s pacing wait; no second send yet.
	recent, err := st.Interactions.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
	assert.Equal(t, 1, w.Status().Interactions)

	// Stop must interrupt the pending wait, not let it expire.
	start := time.Now()
	w.Stop()
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.False(t, w.Status().Running)

	w.Stop() // idempotent
}

type countingConfigs struct {
	store.ConfigRepository
	mu        sync.Mutex
	delayGets int
}

func (c *countingConfigs) GetDelay(ctx context.Context) (*store.DelayConfig, error) {
	c.mu.Lock()
	c.delayGets++
	c.mu.Unlock()
	return c.ConfigRepository.GetDelay(ctx)
}

func (c *countingConfigs) getCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delayGets
}

func TestSkippedIterationUsesConfiguredPacing(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	configs := &countingConfigs{ConfigRepository: st.Configs}
	sender := &fakeSender{connected: []string{"a1"}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := New(sender, st.Templates, st.Media, st.Interactions, configs, log)
	t.Cleanup(w.Stop)

	w.Start()
	// With a single connected account nothing is sent, but the loop still
	// paces itself from the delay config instead of a hardcoded wait.
	require.Eventually(t, func() bool {
		return configs.getCount() >= 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, sender.sendCount())
	assert.Zero(t, w.Status().Interactions)
}

func TestStartResetsCounter(t *testing.T) {
	w, _, _ := newTestWarmer(t)

	w.Start()
	time.Sleep(50 * time.Millisecond)
	w.Stop()

	w.Start()
	assert.Zero(t, w.Status().Interactions)
	w.Stop()
}

func TestLoopSkipsWithoutTemplates(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	sender := &fakeSender{connected: []string{"a1", "a2"}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := New(sender, st.Templates, st.Media, st.Interactions, st.Configs, log)

	sent, err := w.executeInteraction(context.Background())
	assert.False(t, sent)
	assert.Error(t, err)
	assert.Zero(t, sender.sendCount())
}
