package store

import (
	"context"
	"errors"

	"warmpool/internal/state"
)

// ErrNotFound is returned when a requested item is not found.
var ErrNotFound = errors.New("not found")

// AccountRepository defines operations for account persistence.
type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	List(ctx context.Context) ([]Account, error)
	ListByStatus(ctx context.Context, s state.State) ([]Account, error)
	UpdateStatus(ctx context.Context, id string, s state.State, phone string) error
	UpdateNetwork(ctx context.Context, id string, mode NetworkMode, proxyID string) error
	Delete(ctx context.Context, id string) error
}

// ProxyRepository defines operations for proxy persistence.
type ProxyRepository interface {
	Create(ctx context.Context, p *Proxy) error
	GetByID(ctx context.Context, id string) (*Proxy, error)
	List(ctx context.Context) ([]Proxy, error)
	Update(ctx context.Context, p *Proxy) error
	Delete(ctx context.Context, id string) error
}

// TemplateRepository defines operations for message template persistence.
type TemplateRepository interface {
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, id string) (*Template, error)
	List(ctx context.Context) ([]Template, error)
	// ListActive returns active templates usable by the given account:
	// unscoped templates plus those scoped to accountID. Empty accountID
	// returns unscoped templates only. Empty category matches all.
	ListActive(ctx context.Context, accountID, category string) ([]Template, error)
	Update(ctx context.Context, t *Template) error
	Delete(ctx context.Context, id string) error
}

// MediaRepository defines operations for media asset persistence.
type MediaRepository interface {
	Create(ctx context.Context, m *Media) error
	GetByID(ctx context.Context, id string) (*Media, error)
	List(ctx context.Context) ([]Media, error)
	ListActiveByKind(ctx context.Context, kind MediaKind) ([]Media, error)
	IncrementUsage(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// InteractionRepository defines operations for the append-only interaction log.
type InteractionRepository interface {
	Append(ctx context.Context, i *Interaction) error
	Recent(ctx context.Context, limit int) ([]Interaction, error)
	Stats(ctx context.Context) (*InteractionStats, error)
}

// ConfigRepository defines operations for the singleton runtime configs.
type ConfigRepository interface {
	GetDelay(ctx context.Context) (*DelayConfig, error)
	SetDelay(ctx context.Context, c *DelayConfig) error
	GetAutoReply(ctx context.Context) (*AutoReplyConfig, error)
	SetAutoReply(ctx context.Context, c *AutoReplyConfig) error
}
