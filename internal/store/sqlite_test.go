package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warmpool/internal/state"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAccountCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc := &Account{ID: "a1", DisplayName: "Alpha"}
	require.NoError(t, s.Accounts.Create(ctx, acc))
	assert.Equal(t, state.StateDisconnected, acc.Status)
	assert.Equal(t, NetworkDirect, acc.NetworkMode)

	got, err := s.Accounts.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.DisplayName)
	assert.Empty(t, got.ProxyID)

	require.NoError(t, s.Accounts.UpdateStatus(ctx, "a1", state.StateConnected, "5511999990000"))
	got, err = s.Accounts.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, state.StateConnected, got.Status)
	assert.Equal(t, "5511999990000", got.Phone)

	// Status update without phone keeps the stored phone.
	require.NoError(t, s.Accounts.UpdateStatus(ctx, "a1", state.StateDisconnected, ""))
	got, err = s.Accounts.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "5511999990000", got.Phone)

	require.NoError(t, s.Accounts.UpdateNetwork(ctx, "a1", NetworkProxy, "p1"))
	got, err = s.Accounts.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, NetworkProxy, got.NetworkMode)
	assert.Equal(t, "p1", got.ProxyID)

	require.NoError(t, s.Accounts.Delete(ctx, "a1"))
	_, err = s.Accounts.GetByID(ctx, "a1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Accounts.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Accounts.UpdateStatus(ctx, "missing", state.StateConnected, ""), ErrNotFound)
	assert.ErrorIs(t, s.Accounts.Delete(ctx, "missing"), ErrNotFound)
}

func TestListByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Accounts.Create(ctx, &Account{ID: "a1", Status: state.StateConnected}))
	require.NoError(t, s.Accounts.Create(ctx, &Account{ID: "a2", Status: state.StateDisconnected}))
	require.NoError(t, s.Accounts.Create(ctx, &Account{ID: "a3", Status: state.StateConnected}))

	connected, err := s.Accounts.ListByStatus(ctx, state.StateConnected)
	require.NoError(t, err)
	assert.Len(t, connected, 2)
}

func TestProxyCRUDAndUnbind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &Proxy{ID: "p1", Name: "res-br", Host: "10.0.0.1", Port: 1080, Scheme: "socks5", Username: "u", Password: "secret", Active: true}
	require.NoError(t, s.Proxies.Create(ctx, p))

	got, err := s.Proxies.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Password)

	got.Active = false
	require.NoError(t, s.Proxies.Update(ctx, got))
	got, err = s.Proxies.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, got.Active)

	// Deleting a proxy unbinds the accounts that referenced it.
	require.NoError(t, s.Accounts.Create(ctx, &Account{ID: "a1", NetworkMode: NetworkProxy, ProxyID: "p1"}))
	require.NoError(t, s.Proxies.Delete(ctx, "p1"))

	acc, err := s.Accounts.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, acc.ProxyID)
}

func TestTemplateListActiveScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Templates.Create(ctx, &Template{ID: "t1", Content: "oi", Active: true}))
	require.NoError(t, s.Templates.Create(ctx, &Template{ID: "t2", Content: "{bom dia|boa tarde}", Active: true, AccountID: "a1"}))
	require.NoError(t, s.Templates.Create(ctx, &Template{ID: "t3", Content: "inativo", Active: false}))
	require.NoError(t, s.Templates.Create(ctx, &Template{ID: "t4", Content: "saudacao", Active: true, Category: "greeting"}))

	forA1, err := s.Templates.ListActive(ctx, "a1", "")
	require.NoError(t, err)
	assert.Len(t, forA1, 3) // t1, t2, t4

	forOther, err := s.Templates.ListActive(ctx, "a2", "")
	require.NoError(t, err)
	assert.Len(t, forOther, 2) // t1, t4

	greetings, err := s.Templates.ListActive(ctx, "a1", "greeting")
	require.NoError(t, err)
	require.Len(t, greetings, 1)
	assert.Equal(t, "t4", greetings[0].ID)
}

func TestMediaUsageCounter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Media.Create(ctx, &Media{ID: "m1", Kind: MediaImage, Path: "/tmp/a.jpg"}))
	require.NoError(t, s.Media.Create(ctx, &Media{ID: "m2", Kind: MediaSticker, Path: "/tmp/b.webp"}))

	images, err := s.Media.ListActiveByKind(ctx, MediaImage)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "m1", images[0].ID)

	require.NoError(t, s.Media.IncrementUsage(ctx, "m1"))
	require.NoError(t, s.Media.IncrementUsage(ctx, "m1"))
	got, err := s.Media.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)

	assert.ErrorIs(t, s.Media.IncrementUsage(ctx, "missing"), ErrNotFound)
}

func TestInteractionLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &Interaction{FromAccountID: "a1", ToAccountID: "a2", ToContact: "5511@c.us", TemplateID: "t1", Kind: InteractionText, Status: "sent", SentAt: time.Now().Add(-time.Minute)}
	require.NoError(t, s.Interactions.Append(ctx, first))
	assert.NotZero(t, first.ID)

	second := &Interaction{FromAccountID: "a2", ToAccountID: "a1", ToContact: "5522@c.us", TemplateID: "t1", MediaID: "m1", Kind: InteractionImage, Status: "sent"}
	require.NoError(t, s.Interactions.Append(ctx, second))

	recent, err := s.Interactions.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "a2", recent[0].FromAccountID, "newest first")
	assert.Equal(t, "m1", recent[0].MediaID)

	stats, err := s.Interactions.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Text)
	assert.Equal(t, 1, stats.Image)
	assert.Equal(t, 0, stats.Sticker)
}

func TestInteractionStatsTodayLocalMidnight(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	yesterday := &Interaction{FromAccountID: "a1", ToAccountID: "a2", ToContact: "5511@c.us", TemplateID: "t1", Kind: InteractionText, Status: "sent", SentAt: midnight.Add(-time.Minute)}
	require.NoError(t, s.Interactions.Append(ctx, yesterday))

	today := &Interaction{FromAccountID: "a2", ToAccountID: "a1", ToContact: "5522@c.us", TemplateID: "t1", Kind: InteractionText, Status: "sent", SentAt: midnight.Add(time.Minute)}
	require.NoError(t, s.Interactions.Append(ctx, today))

	stats, err := s.Interactions.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Today, "today starts at local midnight")
}

func TestDelayConfigSingleton(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cfg, err := s.Configs.GetDelay(ctx)
	require.NoError(t, err)
	assert.Equal(t, DelayRandom, cfg.Strategy)

	cfg.Strategy = DelayProgressive
	cfg.MinSeconds = 20
	cfg.MaxSeconds = 200
	require.NoError(t, s.Configs.SetDelay(ctx, cfg))

	got, err := s.Configs.GetDelay(ctx)
	require.NoError(t, err)
	assert.Equal(t, DelayProgressive, got.Strategy)
	assert.Equal(t, 20, got.MinSeconds)
	assert.Equal(t, 200, got.MaxSeconds)
}

func TestAutoReplyConfigSingleton(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cfg, err := s.Configs.GetAutoReply(ctx)
	require.NoError(t, err)
	assert.True(t, cfg.EnabledIndividual)
	assert.False(t, cfg.EnabledGroups)
	assert.Empty(t, cfg.IgnoreList)

	cfg.EnabledGroups = true
	cfg.IgnoreList = []string{"5511@c.us", "5522@c.us"}
	require.NoError(t, s.Configs.SetAutoReply(ctx, cfg))

	got, err := s.Configs.GetAutoReply(ctx)
	require.NoError(t, err)
	assert.True(t, got.EnabledGroups)
	assert.Equal(t, []string{"5511@c.us", "5522@c.us"}, got.IgnoreList)
}
