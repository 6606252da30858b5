// Package store provides data persistence for the warming orchestrator.
package store

import (
	"time"

	"warmpool/internal/state"
)

// NetworkMode selects the egress path an account's sessions must use.
type NetworkMode string

const (
	NetworkDirect NetworkMode = "direct"
	NetworkProxy  NetworkMode = "proxy"
)

// Account represents one managed messaging identity.
type Account struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Phone       string      `json:"phone,omitempty"`
	Status      state.State `json:"status"`
	NetworkMode NetworkMode `json:"network_mode"`
	ProxyID     string      `json:"proxy_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Proxy describes one egress proxy an account can be bound to.
type Proxy struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Scheme   string `json:"scheme"` // http, https, socks4, socks5
	Username string `json:"username,omitempty"`
	Password string `json:"-"`
	Active   bool   `json:"active"`
}

// Template is one message template from the warming pool. Content may contain
// spintax variant groups {a|b|c} and variable tokens like {hora}.
type Template struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	Active    bool      `json:"active"`
	AccountID string    `json:"account_id,omitempty"` // empty = usable by any account
	CreatedAt time.Time `json:"created_at"`
}

// MediaKind distinguishes the two media flavours the warmer sends.
type MediaKind string

const (
	MediaImage   MediaKind = "image"
	MediaSticker MediaKind = "sticker"
)

// Media is a reusable media asset (image or sticker) on local storage.
type Media struct {
	ID         string    `json:"id"`
	Kind       MediaKind `json:"kind"`
	Path       string    `json:"path"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// InteractionKind is the payload type of a recorded interaction.
type InteractionKind string

const (
	InteractionText    InteractionKind = "text"
	InteractionImage   InteractionKind = "image"
	InteractionSticker InteractionKind = "sticker"
)

// Interaction records one completed warming send. Append-only.
type Interaction struct {
	ID            int64           `json:"id"`
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	ToContact     string          `json:"to_contact"`
	TemplateID    string          `json:"template_id"`
	MediaID       string          `json:"media_id,omitempty"`
	Kind          InteractionKind `json:"kind"`
	Status        string          `json:"status"`
	SentAt        time.Time       `json:"sent_at"`
}

// InteractionStats summarizes the interaction log.
type InteractionStats struct {
	Total   int `json:"total_interactions"`
	Today   int `json:"today_interactions"`
	Text    int `json:"text_count"`
	Image   int `json:"image_count"`
	Sticker int `json:"sticker_count"`
}

// DelayStrategy selects how inter-interaction delays are computed.
type DelayStrategy string

const (
	DelayFixed       DelayStrategy = "fixed"
	DelayRandom      DelayStrategy = "random"
	DelayHuman       DelayStrategy = "human"
	DelayProgressive DelayStrategy = "progressive"
)

// DelayConfig is the singleton pacing configuration shared by the scheduler
// and the auto-reply engine.
type DelayConfig struct {
	Strategy     DelayStrategy `json:"strategy"`
	FixedSeconds int           `json:"fixed_seconds,omitempty"`
	MinSeconds   int           `json:"min_seconds,omitempty"`
	MaxSeconds   int           `json:"max_seconds,omitempty"`
}

// AutoReplyConfig is the singleton auto-reply configuration.
type AutoReplyConfig struct {
	EnabledIndividual bool     `json:"enabled_individual"`
	EnabledGroups     bool     `json:"enabled_groups"`
	ReplyDelaySeconds int      `json:"reply_delay_seconds"`
	IgnoreList        []string `json:"ignore_list"`
}
