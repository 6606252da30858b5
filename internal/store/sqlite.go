package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"warmpool/internal/state"
)

// SQLiteStore implements all repositories using SQLite.
type SQLiteStore struct {
	db           *sql.DB
	Accounts     *SQLiteAccountRepo
	Proxies      *SQLiteProxyRepo
	Templates    *SQLiteTemplateRepo
	Media        *SQLiteMediaRepo
	Interactions *SQLiteInteractionRepo
	Configs      *SQLiteConfigRepo
}

// NewSQLiteStore creates a new SQLite-backed store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{
		db:           db,
		Accounts:     &SQLiteAccountRepo{db: db},
		Proxies:      &SQLiteProxyRepo{db: db},
		Templates:    &SQLiteTemplateRepo{db: db},
		Media:        &SQLiteMediaRepo{db: db},
		Interactions: &SQLiteInteractionRepo{db: db},
		Configs:      &SQLiteConfigRepo{db: db},
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func runMigrations(db *sql.DB) error {
	migration := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'disconnected',
		network_mode TEXT NOT NULL DEFAULT 'direct',
		proxy_id TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS proxies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		host TEXT NOT NULL,
		port INTEGER NOT NULL,
		scheme TEXT NOT NULL DEFAULT 'http',
		username TEXT NOT NULL DEFAULT '',
		password TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS templates (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		account_id TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_templates_active ON templates(active);

	CREATE TABLE IF NOT EXISTS media (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		path TEXT NOT NULL,
		usage_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_media_kind ON media(kind);

	CREATE TABLE IF NOT EXISTS interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		from_account_id TEXT NOT NULL,
		to_account_id TEXT NOT NULL,
		to_contact TEXT NOT NULL DEFAULT '',
		template_id TEXT NOT NULL DEFAULT '',
		media_id TEXT,
		kind TEXT NOT NULL DEFAULT 'text',
		status TEXT NOT NULL DEFAULT 'sent',
		sent_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_interactions_sent_at ON interactions(sent_at DESC);

	CREATE TABLE IF NOT EXISTS delay_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		strategy TEXT NOT NULL DEFAULT 'random',
		fixed_seconds INTEGER NOT NULL DEFAULT 60,
		min_seconds INTEGER NOT NULL DEFAULT 30,
		max_seconds INTEGER NOT NULL DEFAULT 120,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO delay_config (id) VALUES (1);

	CREATE TABLE IF NOT EXISTS auto_reply_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		enabled_individual BOOLEAN NOT NULL DEFAULT TRUE,
		enabled_groups BOOLEAN NOT NULL DEFAULT FALSE,
		reply_delay_seconds INTEGER NOT NULL DEFAULT 5,
		ignore_list TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO auto_reply_config (id) VALUES (1);
	`
	_, err := db.Exec(migration)
	return err
}

// SQLiteAccountRepo implements AccountRepository.
type SQLiteAccountRepo struct {
	db *sql.DB
}

func (r *SQLiteAccountRepo) Create(ctx context.Context, a *Account) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = state.StateDisconnected
	}
	if a.NetworkMode == "" {
		a.NetworkMode = NetworkDirect
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, display_name, phone, status, network_mode, proxy_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.DisplayName, a.Phone, string(a.Status), string(a.NetworkMode), nullable(a.ProxyID), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *SQLiteAccountRepo) GetByID(ctx context.Context, id string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, display_name, phone, status, network_mode, proxy_id, created_at, updated_at
		FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *SQLiteAccountRepo) List(ctx context.Context) ([]Account, error) {
	return r.list(ctx, `
		SELECT id, display_name, phone, status, network_mode, proxy_id, created_at, updated_at
		FROM accounts ORDER BY created_at`)
}

func (r *SQLiteAccountRepo) ListByStatus(ctx context.Context, s state.State) ([]Account, error) {
	return r.list(ctx, `
		SELECT id, display_name, phone, status, network_mode, proxy_id, created_at, updated_at
		FROM accounts WHERE status = ? ORDER BY created_at`, string(s))
}

func (r *SQLiteAccountRepo) list(ctx context.Context, query string, args ...any) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *SQLiteAccountRepo) UpdateStatus(ctx context.Context, id string, s state.State, phone string) error {
	var res sql.Result
	var err error
	if phone != "" {
		res, err = r.db.ExecContext(ctx, `
			UPDATE accounts SET status = ?, phone = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			string(s), phone, id)
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE accounts SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			string(s), id)
	}
	if err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	return checkAffected(res)
}

func (r *SQLiteAccountRepo) UpdateNetwork(ctx context.Context, id string, mode NetworkMode, proxyID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET network_mode = ?, proxy_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(mode), nullable(proxyID), id)
	if err != nil {
		return fmt.Errorf("failed to update account network: %w", err)
	}
	return checkAffected(res)
}

func (r *SQLiteAccountRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return checkAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var a Account
	var status, mode string
	var proxyID sql.NullString
	err := row.Scan(&a.ID, &a.DisplayName, &a.Phone, &status, &mode, &proxyID, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	a.Status = state.State(status)
	a.NetworkMode = NetworkMode(mode)
	a.ProxyID = proxyID.String
	return &a, nil
}

// SQLiteProxyRepo implements ProxyRepository.
type SQLiteProxyRepo struct {
	db *sql.DB
}

func (r *SQLiteProxyRepo) Create(ctx context.Context, p *Proxy) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO proxies (id, name, host, port, scheme, username, password, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Host, p.Port, p.Scheme, p.Username, p.Password, p.Active)
	if err != nil {
		return fmt.Errorf("failed to create proxy: %w", err)
	}
	return nil
}

func (r *SQLiteProxyRepo) GetByID(ctx context.Context, id string) (*Proxy, error) {
	var p Proxy
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, host, port, scheme, username, password, active
		FROM proxies WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Host, &p.Port, &p.Scheme, &p.Username, &p.Password, &p.Active)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proxy: %w", err)
	}
	return &p, nil
}

func (r *SQLiteProxyRepo) List(ctx context.Context) ([]Proxy, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, host, port, scheme, username, password, active FROM proxies`)
	if err != nil {
		return nil, fmt.Errorf("failed to list proxies: %w", err)
	}
	defer rows.Close()

	var out []Proxy
	for rows.Next() {
		var p Proxy
		if err := rows.Scan(&p.ID, &p.Name, &p.Host, &p.Port, &p.Scheme, &p.Username, &p.Password, &p.Active); err != nil {
			return nil, fmt.Errorf("failed to scan proxy: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteProxyRepo) Update(ctx context.Context, p *Proxy) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE proxies SET name = ?, host = ?, port = ?, scheme = ?, username = ?, password = ?, active = ?
		WHERE id = ?`,
		p.Name, p.Host, p.Port, p.Scheme, p.Username, p.Password, p.Active, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update proxy: %w", err)
	}
	return checkAffected(res)
}

func (r *SQLiteProxyRepo) Delete(ctx context.Context, id string) error {
	// Unbind accounts first so no account keeps a dangling proxy reference.
	if _, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET proxy_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE proxy_id = ?`, id); err != nil {
		return fmt.Errorf("failed to unbind accounts: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM proxies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete proxy: %w", err)
	}
	return checkAffected(res)
}

// SQLiteTemplateRepo implements TemplateRepository.
type SQLiteTemplateRepo struct {
	db *sql.DB
}

func (r *SQLiteTemplateRepo) Create(ctx context.Context, t *Template) error {
	t.CreatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO templates (id, content, category, active, account_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Content, t.Category, t.Active, nullable(t.AccountID), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func (r *SQLiteTemplateRepo) GetByID(ctx context.Context, id string) (*Template, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, content, category, active, account_id, created_at FROM templates WHERE id = ?`, id)
	return scanTemplate(row)
}

func (r *SQLiteTemplateRepo) List(ctx context.Context) ([]Template, error) {
	return r.listQuery(ctx, `
		SELECT id, content, category, active, account_id, created_at
		FROM templates ORDER BY created_at DESC`)
}

func (r *SQLiteTemplateRepo) ListActive(ctx context.Context, accountID, category string) ([]Template, error) {
	query := `SELECT id, content, category, active, account_id, created_at
		FROM templates WHERE active = TRUE AND (account_id IS NULL OR account_id = ?)`
	args := []any{accountID}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	return r.listQuery(ctx, query, args...)
}

func (r *SQLiteTemplateRepo) listQuery(ctx context.Context, query string, args ...any) ([]Template, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *SQLiteTemplateRepo) Update(ctx context.Context, t *Template) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE templates SET content = ?, category = ?, active = ?, account_id = ? WHERE id = ?`,
		t.Content, t.Category, t.Active, nullable(t.AccountID), t.ID)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return checkAffected(res)
}

func (r *SQLiteTemplateRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return checkAffected(res)
}

func scanTemplate(row rowScanner) (*Template, error) {
	var t Template
	var accountID sql.NullString
	err := row.Scan(&t.ID, &t.Content, &t.Category, &t.Active, &accountID, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan template: %w", err)
	}
	t.AccountID = accountID.String
	return &t, nil
}

// SQLiteMediaRepo implements MediaRepository.
type SQLiteMediaRepo struct {
	db *sql.DB
}

func (r *SQLiteMediaRepo) Create(ctx context.Context, m *Media) error {
	m.CreatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO media (id, kind, path, usage_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, string(m.Kind), m.Path, m.UsageCount, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create media: %w", err)
	}
	return nil
}

func (r *SQLiteMediaRepo) GetByID(ctx context.Context, id string) (*Media, error) {
	var m Media
	var kind string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, kind, path, usage_count, created_at FROM media WHERE id = ?`, id).
		Scan(&m.ID, &kind, &m.Path, &m.UsageCount, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media: %w", err)
	}
	m.Kind = MediaKind(kind)
	return &m, nil
}

func (r *SQLiteMediaRepo) List(ctx context.Context) ([]Media, error) {
	return r.listQuery(ctx, `SELECT id, kind, path, usage_count, created_at FROM media`)
}

func (r *SQLiteMediaRepo) ListActiveByKind(ctx context.Context, kind MediaKind) ([]Media, error) {
	return r.listQuery(ctx, `
		SELECT id, kind, path, usage_count, created_at FROM media WHERE kind = ?`, string(kind))
}

func (r *SQLiteMediaRepo) listQuery(ctx context.Context, query string, args ...any) ([]Media, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	var out []Media
	for rows.Next() {
		var m Media
		var kind string
		if err := rows.Scan(&m.ID, &kind, &m.Path, &m.UsageCount, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		m.Kind = MediaKind(kind)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteMediaRepo) IncrementUsage(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE media SET usage_count = usage_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment media usage: %w", err)
	}
	return checkAffected(res)
}

func (r *SQLiteMediaRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	return checkAffected(res)
}

// SQLiteInteractionRepo implements InteractionRepository.
type SQLiteInteractionRepo struct {
	db *sql.DB
}

func (r *SQLiteInteractionRepo) Append(ctx context.Context, i *Interaction) error {
	if i.SentAt.IsZero() {
		i.SentAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO interactions (from_account_id, to_account_id, to_contact, template_id, media_id, kind, status, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		i.FromAccountID, i.ToAccountID, i.ToContact, i.TemplateID, nullable(i.MediaID), string(i.Kind), i.Status, i.SentAt)
	if err != nil {
		return fmt.Errorf("failed to append interaction: %w", err)
	}
	i.ID, _ = res.LastInsertId()
	return nil
}

func (r *SQLiteInteractionRepo) Recent(ctx context.Context, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, from_account_id, to_account_id, to_contact, template_id, media_id, kind, status, sent_at
		FROM interactions ORDER BY sent_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var i Interaction
		var mediaID sql.NullString
		var kind string
		if err := rows.Scan(&i.ID, &i.FromAccountID, &i.ToAccountID, &i.ToContact, &i.TemplateID, &mediaID, &kind, &i.Status, &i.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		i.MediaID = mediaID.String
		i.Kind = InteractionKind(kind)
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *SQLiteInteractionRepo) Stats(ctx context.Context) (*InteractionStats, error) {
	var s InteractionStats
	// "Today" starts at local midnight, not at the UTC day boundary.
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(CASE WHEN sent_at >= ? THEN 1 END),
			COUNT(CASE WHEN kind = 'text' THEN 1 END),
			COUNT(CASE WHEN kind = 'image' THEN 1 END),
			COUNT(CASE WHEN kind = 'sticker' THEN 1 END)
		FROM interactions`, today).
		Scan(&s.Total, &s.Today, &s.Text, &s.Image, &s.Sticker)
	if err != nil {
		return nil, fmt.Errorf("failed to compute interaction stats: %w", err)
	}
	return &s, nil
}

// SQLiteConfigRepo implements ConfigRepository.
type SQLiteConfigRepo struct {
	db *sql.DB
}

func (r *SQLiteConfigRepo) GetDelay(ctx context.Context) (*DelayConfig, error) {
	var c DelayConfig
	var strategy string
	err := r.db.QueryRowContext(ctx, `
		SELECT strategy, fixed_seconds, min_seconds, max_seconds FROM delay_config WHERE id = 1`).
		Scan(&strategy, &c.FixedSeconds, &c.MinSeconds, &c.MaxSeconds)
	if err != nil {
		return nil, fmt.Errorf("failed to get delay config: %w", err)
	}
	c.Strategy = DelayStrategy(strategy)
	return &c, nil
}

func (r *SQLiteConfigRepo) SetDelay(ctx context.Context, c *DelayConfig) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE delay_config SET strategy = ?, fixed_seconds = ?, min_seconds = ?, max_seconds = ?,
			updated_at = CURRENT_TIMESTAMP WHERE id = 1`,
		string(c.Strategy), c.FixedSeconds, c.MinSeconds, c.MaxSeconds)
	if err != nil {
		return fmt.Errorf("failed to set delay config: %w", err)
	}
	return nil
}

func (r *SQLiteConfigRepo) GetAutoReply(ctx context.Context) (*AutoReplyConfig, error) {
	var c AutoReplyConfig
	var ignore string
	err := r.db.QueryRowContext(ctx, `
		SELECT enabled_individual, enabled_groups, reply_delay_seconds, ignore_list
		FROM auto_reply_config WHERE id = 1`).
		Scan(&c.EnabledIndividual, &c.EnabledGroups, &c.ReplyDelaySeconds, &ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to get auto-reply config: %w", err)
	}
	c.IgnoreList = splitIgnoreList(ignore)
	return &c, nil
}

func (r *SQLiteConfigRepo) SetAutoReply(ctx context.Context, c *AutoReplyConfig) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE auto_reply_config SET enabled_individual = ?, enabled_groups = ?,
			reply_delay_seconds = ?, ignore_list = ?, updated_at = CURRENT_TIMESTAMP WHERE id = 1`,
		c.EnabledIndividual, c.EnabledGroups, c.ReplyDelaySeconds, strings.Join(c.IgnoreList, ","))
	if err != nil {
		return fmt.Errorf("failed to set auto-reply config: %w", err)
	}
	return nil
}

func splitIgnoreList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
