// Package warmer runs the interaction scheduler: a single control loop that
// makes warmed accounts talk to each other with human-like pacing.
package warmer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"warmpool/internal/delay"
	"warmpool/internal/protocol"
	"warmpool/internal/store"
	"warmpool/internal/template"
)

const errorBackoff = 30 * time.Second

// mediaProbability is the chance one interaction carries a media asset,
// and imageShare the image vs sticker split within that.
const (
	mediaProbability = 0.30
	imageShare       = 0.70
)

// Sender is the slice of the connection manager the scheduler needs.
type Sender interface {
	ConnectedAccounts() []string
	Contact(accountID string) string
	SendText(ctx context.Context, accountID, contact, text string) error
	SendMedia(ctx context.Context, accountID, contact string, asset *store.Media, caption string, asSticker bool) error
	SendPresence(ctx context.Context, accountID, contact string, st protocol.PresenceState) error
}

// Status is a snapshot of the scheduler state for the HTTP surface.
type Status struct {
	Running      bool `json:"running"`
	Interactions int  `json:"interactions"`
}

// Warmer is the interaction scheduler. One loop goroutine at most; Start and
// Stop are safe to call from any goroutine.
type Warmer struct {
	sender       Sender
	templates    store.TemplateRepository
	media        store.MediaRepository
	interactions store.InteractionRepository
	configs      store.ConfigRepository
	log          *slog.Logger

	mu      sync.Mutex
	running bool
	count   int
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a stopped scheduler.
func New(sender Sender, templates store.TemplateRepository, media store.MediaRepository, interactions store.InteractionRepository, configs store.ConfigRepository, log *slog.Logger) *Warmer {
	return &Warmer{
		sender:       sender,
		templates:    templates,
		media:        media,
		interactions: interactions,
		configs:      configs,
		log:          log.With("component", "warmer"),
	}
}

// Start launches the scheduler loop. A no-op when already running; otherwise
// the interaction counter resets to zero.
func (w *Warmer) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.running = true
	w.count = 0
	w.cancel = cancel
	w.done = make(chan struct{})
	w.log.Info("scheduler started")

	go w.loop(ctx, w.done)
}

// Stop halts the loop and interrupts any pending wait. Blocks until the loop
// goroutine has exited. A no-op when already stopped.
func (w *Warmer) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	<-done
	w.log.Info("scheduler stopped")
}

// Status reports whether the loop runs and how many interactions it has
// completed since the last Start.
func (w *Warmer) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{Running: w.running, Interactions: w.count}
}

func (w *Warmer) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil {
			return
		}

		sent, err := w.executeInteraction(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error("interaction failed", "error", err)
			if !sleep(ctx, errorBackoff) {
				return
			}
			continue
		}

		w.mu.Lock()
		n := w.count
		if sent {
			w.count = n + 1
		}
		w.mu.Unlock()

		cfg, err := w.configs.GetDelay(ctx)
		if err != nil {
			w.log.Error("failed to load delay config", "error", err)
			cfg = nil // delay.Calculate falls back to defaults
		}
		// A skipped iteration still waits the configured pacing so the
		// loop never spins faster than the delay model allows.
		wait := delay.Calculate(cfg, n)
		w.log.Debug("pacing", "delay", wait, "sent", sent, "interactions", n)
		if !sleep(ctx, wait) {
			return
		}
	}
}

// executeInteraction performs one warming exchange between two distinct
// connected accounts. Returns false when fewer than two accounts are
// available.
func (w *Warmer) executeInteraction(ctx context.Context) (bool, error) {
	connected := w.sender.ConnectedAccounts()
	if len(connected) < 2 {
		w.log.Debug("not enough connected accounts", "connected", len(connected))
		return false, nil
	}

	sender := connected[rand.Intn(len(connected))]
	receiver := sender
	for receiver == sender {
		receiver = connected[rand.Intn(len(connected))]
	}

	contact := w.sender.Contact(receiver)
	if contact == "" {
		return false, fmt.Errorf("receiver %s has no resolved contact", receiver)
	}

	tmpl, err := w.pickTemplate(ctx, sender)
	if err != nil {
		return false, err
	}
	text := template.Render(tmpl.Content, nil)

	asset, kind := w.pickMedia(ctx)

	// Typing simulation: composing, a length-scaled pause, then paused.
	typing := delay.TypingDuration(len(text))
	if err := w.sender.SendPresence(ctx, sender, contact, protocol.PresenceComposing); err != nil {
		w.log.Debug("presence signal failed", "account", sender, "error", err)
	}
	if !sleep(ctx, typing) {
		return false, ctx.Err()
	}
	if err := w.sender.SendPresence(ctx, sender, contact, protocol.PresencePaused); err != nil {
		w.log.Debug("presence signal failed", "account", sender, "error", err)
	}

	if asset != nil {
		err = w.sender.SendMedia(ctx, sender, contact, asset, text, asset.Kind == store.MediaSticker)
	} else {
		err = w.sender.SendText(ctx, sender, contact, text)
	}
	if err != nil {
		return false, fmt.Errorf("dispatch from %s to %s failed: %w", sender, receiver, err)
	}

	if asset != nil {
		if err := w.media.IncrementUsage(ctx, asset.ID); err != nil {
			w.log.Warn("failed to increment media usage", "media", asset.ID, "error", err)
		}
	}

	rec := &store.Interaction{
		FromAccountID: sender,
		ToAccountID:   receiver,
		ToContact:     contact,
		TemplateID:    tmpl.ID,
		Kind:          kind,
		Status:        "sent",
		SentAt:        time.Now(),
	}
	if asset != nil {
		rec.MediaID = asset.ID
	}
	if err := w.interactions.Append(ctx, rec); err != nil {
		w.log.Warn("failed to record interaction", "error", err)
	}

	w.log.Info("interaction sent", "from", sender, "to", receiver, "kind", kind)
	return true, nil
}

func (w *Warmer) pickTemplate(ctx context.Context, accountID string) (*store.Template, error) {
	templates, err := w.templates.ListActive(ctx, accountID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("no active templates available")
	}
	t := templates[rand.Intn(len(templates))]
	return &t, nil
}

// pickMedia decides whether this interaction carries media and selects the
// asset. A missing asset of the chosen kind degrades to text-only.
func (w *Warmer) pickMedia(ctx context.Context) (*store.Media, store.InteractionKind) {
	if rand.Float64() >= mediaProbability {
		return nil, store.InteractionText
	}

	kind := store.MediaSticker
	ikind := store.InteractionSticker
	if rand.Float64() < imageShare {
		kind = store.MediaImage
		ikind = store.InteractionImage
	}

	assets, err := w.media.ListActiveByKind(ctx, kind)
	if err != nil || len(assets) == 0 {
		return nil, store.InteractionText
	}
	a := assets[rand.Intn(len(assets))]
	return &a, ikind
}

// sleep waits for d or until ctx is cancelled; reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
