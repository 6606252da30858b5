// Package session owns the per-account connection lifecycle: it is the only
// component allowed to create, inspect, or destroy live protocol sessions,
// and it enforces the network binding invariant before every session.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"warmpool/internal/credential"
	"warmpool/internal/netguard"
	"warmpool/internal/protocol"
	"warmpool/internal/state"
	"warmpool/internal/store"
)

// Verifier is the slice of the network binding guard the manager needs.
type Verifier interface {
	Verify(ctx context.Context, proxy *store.Proxy) netguard.Result
}

// Options configures a Manager.
type Options struct {
	// AllowFallback lets a session proceed on its configured egress path
	// even when the identity probe fails. Off by default: the manager
	// fails closed rather than risk an unverified path.
	AllowFallback bool

	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
}

// Manager is the connection manager: an in-process registry of account id to
// live session, with per-account serialization of lifecycle transitions.
type Manager struct {
	accounts store.AccountRepository
	proxies  store.ProxyRepository
	creds    *credential.Store
	factory  protocol.Factory
	guard    Verifier
	opts     Options
	log      *slog.Logger

	mu   sync.Mutex
	regs map[string]*managed

	listenersMu sync.RWMutex
	listeners   []func(Notification)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// managed is the runtime record for one account. Its mutex serializes every
// lifecycle transition for that account; cross-account operations run in
// parallel.
type managed struct {
	mu       sync.Mutex
	machine  *state.Machine
	session  protocol.Session
	gen      int
	scanCode string
	phone    string
	backoff  *backoff.ExponentialBackOff
}

// NewManager creates a connection manager.
func NewManager(accounts store.AccountRepository, proxies store.ProxyRepository, creds *credential.Store, factory protocol.Factory, guard Verifier, opts Options, log *slog.Logger) *Manager {
	if opts.ReconnectBaseDelay <= 0 {
		opts.ReconnectBaseDelay = time.Second
	}
	if opts.ReconnectMaxDelay <= 0 {
		opts.ReconnectMaxDelay = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		accounts: accounts,
		proxies:  proxies,
		creds:    creds,
		factory:  factory,
		guard:    guard,
		opts:     opts,
		log:      log.With("component", "session"),
		regs:     make(map[string]*managed),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnNotification registers a listener for account notifications. Listeners
// must not block; slow consumers should buffer on their side.
func (m *Manager) OnNotification(fn func(Notification)) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) notify(n Notification) {
	m.listenersMu.RLock()
	listeners := make([]func(Notification), len(m.listeners))
	copy(listeners, m.listeners)
	m.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(n)
	}
}

func (m *Manager) managedFor(accountID string) *managed {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regs[accountID]
	if !ok {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = m.opts.ReconnectBaseDelay
		bo.MaxInterval = m.opts.ReconnectMaxDelay
		bo.MaxElapsedTime = 0
		bo.Reset()
		r = &managed{machine: state.NewMachine(), backoff: bo}
		m.regs[accountID] = r
	}
	return r
}

// Open establishes a session for the account on its configured egress path.
// An account in proxy mode without an assigned, active proxy fails with a
// ConfigurationError and no session is created. A failed identity probe
// fails closed unless fallback is enabled.
func (m *Manager) Open(ctx context.Context, accountID string) error {
	account, err := m.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to load account %s: %w", accountID, err)
	}

	r := m.managedFor(accountID)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		return nil // already live
	}

	egress, err := m.resolveEgress(ctx, account)
	if err != nil {
		return err
	}

	// A reconnect attempt arrives already in connecting; everything else
	// must transition through the open trigger.
	if r.machine.MustState() != state.StateConnecting {
		if err := r.machine.Fire(ctx, state.TriggerOpen); err != nil {
			return fmt.Errorf("account %s cannot open from state %s: %w", accountID, r.machine.MustState(), err)
		}
	}
	m.persistStatus(accountID, state.StateConnecting, "")

	r.gen++
	gen := r.gen
	sess, err := m.factory.Open(ctx, m.creds.Path(accountID), egress, func(evt protocol.Event) {
		m.handleEvent(accountID, gen, evt)
	})
	if err != nil {
		// Transient: the account stays in connecting and the reconnect
		// policy keeps trying. Configuration problems were caught above.
		m.log.Warn("session open failed, scheduling retry", "account", accountID, "error", err)
		m.scheduleReconnect(accountID, r.backoff.NextBackOff())
		return fmt.Errorf("failed to open session for account %s: %w", accountID, err)
	}

	r.session = sess
	return nil
}

// resolveEgress validates the account's network binding and returns the
// proxy URL to bind the session to (nil for direct egress).
func (m *Manager) resolveEgress(ctx context.Context, account *store.Account) (*url.URL, error) {
	if account.NetworkMode != store.NetworkProxy {
		return nil, nil
	}

	if account.ProxyID == "" {
		return nil, &ConfigurationError{AccountID: account.ID, Reason: "network mode is proxy but no proxy assigned"}
	}

	proxy, err := m.proxies.GetByID(ctx, account.ProxyID)
	if err != nil {
		return nil, &ConfigurationError{AccountID: account.ID, Reason: fmt.Sprintf("assigned proxy %s not found", account.ProxyID)}
	}
	if !proxy.Active {
		return nil, &ConfigurationError{AccountID: account.ID, Reason: fmt.Sprintf("assigned proxy %s is inactive", account.ProxyID)}
	}

	res := m.guard.Verify(ctx, proxy)
	if !res.OK {
		if !m.opts.AllowFallback {
			return nil, fmt.Errorf("account %s: probe through proxy %s failed: %s: %w",
				account.ID, proxy.ID, res.Err, ErrBindingUnverified)
		}
		m.log.Warn("egress probe failed, proceeding in fallback mode",
			"account", account.ID, "proxy", proxy.ID, "error", res.Err)
	} else {
		m.log.Info("egress verified",
			"account", account.ID, "proxy", proxy.ID, "ip", res.IP, "isp", res.ISP)
	}

	return netguard.ProxyURL(proxy)
}

// handleEvent processes one protocol event for an account. Events from a
// superseded session generation are dropped.
func (m *Manager) handleEvent(accountID string, gen int, evt protocol.Event) {
	r := m.managedFor(accountID)
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}

	switch evt.Kind {
	case protocol.EventScanCode:
		r.scanCode = evt.Code
		if err := r.machine.Fire(m.ctx, state.TriggerScanCode); err != nil {
			// Persisted status must keep tracking the machine, so an
			// out-of-state code is only logged.
			m.log.Debug("scan code in unexpected state", "account", accountID, "state", r.machine.MustState())
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()
		m.persistStatus(accountID, state.StateAwaitingScan, "")
		m.notify(Notification{Type: NotifyQR, AccountID: accountID, Code: evt.Code})

	case protocol.EventSessionOpen:
		r.scanCode = ""
		r.phone = evt.Phone
		r.backoff.Reset()
		if err := r.machine.Fire(m.ctx, state.TriggerSessionOpen); err != nil {
			m.log.Debug("session open in unexpected state", "account", accountID, "state", r.machine.MustState())
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()
		m.persistStatus(accountID, state.StateConnected, evt.Phone)
		m.log.Info("account connected", "account", accountID, "phone", evt.Phone)
		m.notify(Notification{Type: NotifyReady, AccountID: accountID, Phone: evt.Phone})

	case protocol.EventSessionClosed:
		m.handleClosedLocked(accountID, r, evt)

	case protocol.EventInbound:
		r.mu.Unlock()
		m.notify(Notification{Type: NotifyInbound, AccountID: accountID, Message: evt.Message})
	}
}

// handleClosedLocked classifies a session close and applies the reconnect
// policy. Called with r.mu held; releases it.
func (m *Manager) handleClosedLocked(accountID string, r *managed, evt protocol.Event) {
	sess := r.session
	r.session = nil
	r.gen++ // anything the dying session still emits is stale

	switch {
	case evt.Logout:
		// Explicit logout is terminal: credential retained for audit,
		// no auto-retry, a fresh scan is needed.
		if err := r.machine.Fire(m.ctx, state.TriggerLogout); err != nil {
			m.log.Debug("logout in unexpected state", "account", accountID, "state", r.machine.MustState())
		}
		r.mu.Unlock()
		if sess != nil {
			sess.End()
		}
		m.persistStatus(accountID, state.StateDisconnected, "")
		m.log.Info("account logged out", "account", accountID)
		m.notify(Notification{Type: NotifyDisconnected, AccountID: accountID, Reason: evt.Reason})

	case evt.Banned:
		if err := r.machine.Fire(m.ctx, state.TriggerBlocked); err != nil {
			m.log.Debug("ban in unexpected state", "account", accountID, "state", r.machine.MustState())
		}
		r.mu.Unlock()
		if sess != nil {
			sess.End()
		}
		m.persistStatus(accountID, state.StateBlocked, "")
		m.log.Warn("account blocked by remote", "account", accountID, "reason", evt.Reason)
		m.notify(Notification{Type: NotifyDisconnected, AccountID: accountID, Reason: evt.Reason})

	default:
		// Recoverable drop: back to connecting and retry with backoff.
		if err := r.machine.Fire(m.ctx, state.TriggerDropped); err != nil {
			m.log.Debug("drop in unexpected state", "account", accountID, "state", r.machine.MustState())
		}
		delay := r.backoff.NextBackOff()
		r.mu.Unlock()
		if sess != nil {
			sess.End()
		}
		m.persistStatus(accountID, state.StateConnecting, "")
		m.log.Info("session dropped, reconnecting", "account", accountID, "reason", evt.Reason, "delay", delay)
		m.scheduleReconnect(accountID, delay)
	}
}

// scheduleReconnect re-opens the account after delay unless the manager is
// shutting down or the account was closed in the meantime.
func (m *Manager) scheduleReconnect(accountID string, delay time.Duration) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		select {
		case <-time.After(delay):
		case <-m.ctx.Done():
			return
		}

		r := m.managedFor(accountID)
		r.mu.Lock()
		st := r.machine.MustState()
		live := r.session != nil
		r.mu.Unlock()
		if live || st != state.StateConnecting {
			return
		}

		if err := m.Open(m.ctx, accountID); err != nil {
			m.log.Warn("reconnect attempt failed", "account", accountID, "error", err)
		}
	}()
}

// Close ends the account's live session, if any. Idempotent; the stored
// credential is retained.
func (m *Manager) Close(accountID string) error {
	r := m.managedFor(accountID)
	r.mu.Lock()
	sess := r.session
	r.session = nil
	r.gen++
	r.scanCode = ""
	fired := false
	if can, _ := r.machine.CanFire(m.ctx, state.TriggerClose); can {
		fired = r.machine.Fire(m.ctx, state.TriggerClose) == nil
	}
	r.mu.Unlock()

	if sess != nil {
		sess.End()
	}
	if fired {
		m.persistStatus(accountID, state.StateDisconnected, "")
		m.notify(Notification{Type: NotifyDisconnected, AccountID: accountID, Reason: "closed"})
	}
	return nil
}

// SendText dispatches a text message through the account's live session.
func (m *Manager) SendText(ctx context.Context, accountID, contact, text string) error {
	sess, err := m.liveSession(accountID)
	if err != nil {
		return err
	}
	return sess.SendText(ctx, contact, text)
}

// SendMedia dispatches a media asset (with optional caption) through the
// account's live session. The asset bytes are read from local storage.
func (m *Manager) SendMedia(ctx context.Context, accountID, contact string, asset *store.Media, caption string, asSticker bool) error {
	sess, err := m.liveSession(accountID)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(asset.Path)
	if err != nil {
		return fmt.Errorf("failed to read media %s: %w", asset.ID, err)
	}
	return sess.SendMedia(ctx, contact, data, caption, asSticker)
}

// SendPresence emits a composing/paused indicator for the contact.
func (m *Manager) SendPresence(ctx context.Context, accountID, contact string, st protocol.PresenceState) error {
	sess, err := m.liveSession(accountID)
	if err != nil {
		return err
	}
	return sess.SendPresence(ctx, contact, st)
}

func (m *Manager) liveSession(accountID string) (protocol.Session, error) {
	r := m.managedFor(accountID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.machine.MustState() != state.StateConnected {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrNotConnected)
	}
	return r.session, nil
}

// QRCode returns the pending scan code for an account awaiting pairing, or
// empty if none is pending.
func (m *Manager) QRCode(accountID string) string {
	r := m.managedFor(accountID)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scanCode
}

// Status returns the account's runtime connection state.
func (m *Manager) Status(accountID string) state.State {
	r := m.managedFor(accountID)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.MustState()
}

// Contact returns the account's own resolved contact identifier, or empty
// until its session is open.
func (m *Manager) Contact(accountID string) string {
	r := m.managedFor(accountID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return ""
	}
	return r.session.SelfContact()
}

// ConnectedAccounts returns the ids of every account with an established
// session, in no particular order.
func (m *Manager) ConnectedAccounts() []string {
	m.mu.Lock()
	ids := make([]string, 0, len(m.regs))
	regs := make(map[string]*managed, len(m.regs))
	for id, r := range m.regs {
		regs[id] = r
	}
	m.mu.Unlock()

	for id, r := range regs {
		r.mu.Lock()
		if r.session != nil && r.machine.MustState() == state.StateConnected {
			ids = append(ids, id)
		}
		r.mu.Unlock()
	}
	return ids
}

// ChangeNetworkMode persists a new egress binding for the account. A live
// session is forcibly closed so the next open re-validates the binding; a
// session is never allowed to keep running under a stale binding.
func (m *Manager) ChangeNetworkMode(ctx context.Context, accountID string, mode store.NetworkMode, proxyID string) error {
	if mode == store.NetworkProxy && proxyID == "" {
		return &ConfigurationError{AccountID: accountID, Reason: "proxy mode requires a proxy id"}
	}
	if mode == store.NetworkProxy {
		if _, err := m.proxies.GetByID(ctx, proxyID); err != nil {
			return &ConfigurationError{AccountID: accountID, Reason: fmt.Sprintf("proxy %s not found", proxyID)}
		}
	}

	if err := m.accounts.UpdateNetwork(ctx, accountID, mode, proxyID); err != nil {
		return fmt.Errorf("failed to persist network binding: %w", err)
	}

	r := m.managedFor(accountID)
	r.mu.Lock()
	live := r.session != nil
	r.mu.Unlock()
	if live {
		m.log.Info("network binding changed, closing live session", "account", accountID, "mode", mode)
		return m.Close(accountID)
	}
	return nil
}

// RestoreAll re-opens every account previously recorded as connected,
// provided its credential still exists locally. Called once at startup.
func (m *Manager) RestoreAll(ctx context.Context) {
	accounts, err := m.accounts.ListByStatus(ctx, state.StateConnected)
	if err != nil {
		m.log.Error("failed to list accounts for restore", "error", err)
		return
	}

	for _, a := range accounts {
		if !m.creds.Exists(a.ID) {
			m.log.Info("no stored credential, marking disconnected", "account", a.ID)
			m.persistStatus(a.ID, state.StateDisconnected, "")
			continue
		}
		if err := m.Open(ctx, a.ID); err != nil {
			m.log.Warn("failed to restore account", "account", a.ID, "error", err)
		}
	}
}

// Stop closes every live session and stops reconnect timers.
func (m *Manager) Stop() {
	m.cancel()

	m.mu.Lock()
	ids := make([]string, 0, len(m.regs))
	for id := range m.regs {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		_ = m.Close(id)
	}
	m.wg.Wait()
}

func (m *Manager) persistStatus(accountID string, s state.State, phone string) {
	if err := m.accounts.UpdateStatus(context.Background(), accountID, s, phone); err != nil {
		m.log.Error("failed to persist account status", "account", accountID, "status", s, "error", err)
	}
}
