// Package autoreply answers inbound messages on warmed accounts with
// templated replies, with per-conversation dedup so two warming accounts
// never enter a reply loop.
package autoreply

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"warmpool/internal/protocol"
	"warmpool/internal/session"
	"warmpool/internal/store"
	"warmpool/internal/template"
)

const (
	dedupWindow      = 60 * time.Second
	dedupRetention   = 5 * time.Minute
	mediaProbability = 0.30
	imageShare       = 0.70
)

// Sender is the slice of the connection manager the engine needs.
type Sender interface {
	Contact(accountID string) string
	SendText(ctx context.Context, accountID, contact, text string) error
	SendMedia(ctx context.Context, accountID, contact string, asset *store.Media, caption string, asSticker bool) error
}

// Subscriber registers a listener on the manager's notification stream.
type Subscriber interface {
	OnNotification(func(session.Notification))
}

// Engine consumes inbound-message notifications and replies to them.
type Engine struct {
	sender    Sender
	templates store.TemplateRepository
	media     store.MediaRepository
	configs   store.ConfigRepository
	log       *slog.Logger

	mu        sync.Mutex
	lastReply map[string]time.Time // "<account>|<contact>" -> last reply time

	events chan session.Notification
	done   chan struct{}
}

// New creates the engine and registers it on the manager's notification
// stream. Call Run to start consuming.
func New(mgr Subscriber, sender Sender, templates store.TemplateRepository, media store.MediaRepository, configs store.ConfigRepository, log *slog.Logger) *Engine {
	e := &Engine{
		sender:    sender,
		templates: templates,
		media:     media,
		configs:   configs,
		log:       log.With("component", "autoreply"),
		lastReply: make(map[string]time.Time),
		events:    make(chan session.Notification, 64),
		done:      make(chan struct{}),
	}
	mgr.OnNotification(func(n session.Notification) {
		if n.Type != session.NotifyInbound {
			return
		}
		select {
		case e.events <- n:
		default:
			// The event pipeline must never block on a slow engine.
			e.log.Warn("inbound event dropped, engine backlog full", "account", n.AccountID)
		}
	})
	return e
}

// Run consumes inbound events until ctx is cancelled. Every per-message
// error is logged and swallowed.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-e.events:
			if err := e.handle(ctx, n.AccountID, n.Message); err != nil {
				e.log.Error("auto-reply failed", "account", n.AccountID, "error", err)
			}
		}
	}
}

// Wait blocks until Run has returned.
func (e *Engine) Wait() {
	<-e.done
}

func (e *Engine) handle(ctx context.Context, accountID string, msg *protocol.Inbound) error {
	if msg == nil {
		return nil
	}

	cfg, err := e.configs.GetAutoReply(ctx)
	if err != nil {
		return fmt.Errorf("failed to load auto-reply config: %w", err)
	}

	if msg.IsGroup && !cfg.EnabledGroups {
		return nil
	}
	if !msg.IsGroup && !cfg.EnabledIndividual {
		return nil
	}
	for _, ignored := range cfg.IgnoreList {
		if ignored == msg.From {
			return nil
		}
	}
	// Contact returns the bare number while From carries the full chat JID,
	// so compare user parts.
	if self := e.sender.Contact(accountID); self != "" && userPart(self) == userPart(msg.From) {
		return nil
	}

	key := accountID + "|" + msg.From
	e.mu.Lock()
	if last, ok := e.lastReply[key]; ok && time.Since(last) < dedupWindow {
		e.mu.Unlock()
		e.log.Debug("reply suppressed by dedup window", "account", accountID, "contact", msg.From)
		return nil
	}
	e.mu.Unlock()

	// Simulated thinking time. Deliberately a plain sleep: a reply already
	// committed to should go out even if shutdown starts meanwhile.
	if cfg.ReplyDelaySeconds > 0 {
		time.Sleep(time.Duration(cfg.ReplyDelaySeconds) * time.Second)
	}

	text, tmplID, err := e.pickReply(ctx, accountID)
	if err != nil {
		return err
	}

	if asset := e.pickMedia(ctx); asset != nil {
		err = e.sender.SendMedia(ctx, accountID, msg.From, asset, text, asset.Kind == store.MediaSticker)
	} else {
		err = e.sender.SendText(ctx, accountID, msg.From, text)
	}
	if err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}

	e.mu.Lock()
	e.lastReply[key] = time.Now()
	for k, t := range e.lastReply {
		if time.Since(t) > dedupRetention {
			delete(e.lastReply, k)
		}
	}
	e.mu.Unlock()

	e.log.Info("auto-reply sent", "account", accountID, "contact", msg.From, "template", tmplID)
	return nil
}

func userPart(jid string) string {
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		return jid[:i]
	}
	return jid
}

func (e *Engine) pickReply(ctx context.Context, accountID string) (string, string, error) {
	templates, err := e.templates.ListActive(ctx, accountID, "")
	if err != nil {
		return "", "", fmt.Errorf("failed to list templates: %w", err)
	}
	if len(templates) == 0 {
		return "", "", fmt.Errorf("no active templates available")
	}
	t := templates[rand.Intn(len(templates))]
	return template.Render(t.Content, nil), t.ID, nil
}

// pickMedia mirrors the scheduler's media selection; any storage problem or
// empty pool degrades to a text-only reply.
func (e *Engine) pickMedia(ctx context.Context) *store.Media {
	if rand.Float64() >= mediaProbability {
		return nil
	}
	kind := store.MediaSticker
	if rand.Float64() < imageShare {
		kind = store.MediaImage
	}
	assets, err := e.media.ListActiveByKind(ctx, kind)
	if err != nil || len(assets) == 0 {
		return nil
	}
	a := assets[rand.Intn(len(assets))]
	return &a
}
