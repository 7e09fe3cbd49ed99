package plex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tvshows/internal/config"
	"tvshows/internal/services"
)

var (
	// ErrAuthorizationMissing is returned when no Plex authorization token has been linked yet.
	ErrAuthorizationMissing = fmt.Errorf("%w: plex authorization token not linked", services.ErrUnauthorized)
	// ErrPinInvalid is returned when plex.tv no longer recognizes a link PIN.
	ErrPinInvalid = errors.New("plex pin is no longer valid")
	// ErrPinExpired is returned when a link PIN expires before it is approved.
	ErrPinExpired = fmt.Errorf("%w: plex pin expired before it was approved", services.ErrTimeout)
)

const (
	defaultAuthBaseURL  = "https://plex.tv"
	defaultPollInterval = 1500 * time.Millisecond
	productName         = "tv-shows"
	productVersion      = "1.0.0"
)

// TokenManagerOption customises TokenManager construction.
type TokenManagerOption func(*TokenManager)

// WithHTTPClient overrides the HTTP client used for plex.tv calls.
func WithHTTPClient(client HTTPDoer) TokenManagerOption {
	return func(m *TokenManager) {
		m.httpClient = client
		m.authClient = nil
	}
}

// WithBaseURL overrides the plex.tv base URL (used in tests).
func WithBaseURL(baseURL string) TokenManagerOption {
	return func(m *TokenManager) {
		m.baseURL = strings.TrimRight(baseURL, "/")
		m.authClient = nil
	}
}

// WithTokenStore injects a custom persistence layer.
func WithTokenStore(store TokenStore) TokenManagerOption {
	return func(m *TokenManager) {
		m.store = store
	}
}

// WithAuthClient injects a prebuilt plex.tv client.
func WithAuthClient(client AuthClient) TokenManagerOption {
	return func(m *TokenManager) {
		m.authClient = client
	}
}

// WithPollInterval overrides how often a pending PIN is checked.
func WithPollInterval(interval time.Duration) TokenManagerOption {
	return func(m *TokenManager) {
		if interval > 0 {
			m.pollInterval = interval
		}
	}
}

// TokenManager persists the Plex authorization token and runs the PIN link flow.
type TokenManager struct {
	httpClient   HTTPDoer
	baseURL      string
	store        TokenStore
	authClient   AuthClient
	pollInterval time.Duration

	stateMu sync.RWMutex
	state   tokenState
}

type tokenState struct {
	AuthorizationToken string    `json:"authorization_token"`
	ClientIdentifier   string    `json:"client_identifier"`
	LinkedAt           time.Time `json:"linked_at"`
}

// NewTokenManager builds a TokenManager using the provided configuration.
func NewTokenManager(cfg *config.Config, opts ...TokenManagerOption) (*TokenManager, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	mgr := &TokenManager{
		baseURL:      defaultAuthBaseURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		store:        NewFileTokenStore(cfg.Plex.StatePath),
		pollInterval: time.Duration(cfg.Plex.PollIntervalMillis) * time.Millisecond,
	}
	if mgr.pollInterval <= 0 {
		mgr.pollInterval = defaultPollInterval
	}

	for _, opt := range opts {
		opt(mgr)
	}

	if mgr.httpClient == nil {
		mgr.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if mgr.store == nil {
		mgr.store = NewFileTokenStore(cfg.Plex.StatePath)
	}
	if mgr.authClient == nil {
		mgr.authClient = NewHTTPAuthClient(mgr.baseURL, mgr.httpClient)
	}

	if err := mgr.loadInitialState(); err != nil {
		return nil, err
	}
	return mgr, nil
}

func (m *TokenManager) loadInitialState() error {
	state, err := m.store.Load()
	if err != nil {
		return err
	}

	if state.ClientIdentifier == "" {
		state.ClientIdentifier = strings.ReplaceAll(uuid.New().String(), "-", "")
		if err := m.store.Save(state); err != nil {
			return err
		}
	}
	m.state = state
	return nil
}

// HasAuthorization reports whether a Plex authorization token is available.
func (m *TokenManager) HasAuthorization() bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return strings.TrimSpace(m.state.AuthorizationToken) != ""
}

// AuthorizationToken returns the linked token, re-reading the store when
// another process may have linked in the meantime.
func (m *TokenManager) AuthorizationToken() (string, error) {
	m.stateMu.RLock()
	token := m.state.AuthorizationToken
	m.stateMu.RUnlock()
	if strings.TrimSpace(token) != "" {
		return token, nil
	}

	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if err := m.reloadLocked(); err != nil {
		return "", err
	}
	if strings.TrimSpace(m.state.AuthorizationToken) == "" {
		return "", ErrAuthorizationMissing
	}
	return m.state.AuthorizationToken, nil
}

// ClientIdentifier returns the stable device identifier sent to Plex.
func (m *TokenManager) ClientIdentifier() string {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state.ClientIdentifier
}

// LinkedAt reports when the current token was stored.
func (m *TokenManager) LinkedAt() time.Time {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state.LinkedAt
}

// SetAuthorizationToken stores the authorization token from the Plex link flow.
func (m *TokenManager) SetAuthorizationToken(token string) error {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return errors.New("authorization token is empty")
	}

	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	updated := m.state
	updated.AuthorizationToken = trimmed
	updated.LinkedAt = time.Now().UTC()

	if err := m.store.Save(updated); err != nil {
		return err
	}
	m.state = updated
	return nil
}

// ClearAuthorization forgets the stored token while keeping the client identifier.
func (m *TokenManager) ClearAuthorization() error {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	updated := tokenState{ClientIdentifier: m.state.ClientIdentifier}
	if err := m.store.Save(updated); err != nil {
		return err
	}
	m.state = updated
	return nil
}

// RequestPin starts the Plex device linking flow.
func (m *TokenManager) RequestPin(ctx context.Context) (*Pin, error) {
	return m.authClient.RequestPin(ctx, m.ClientIdentifier())
}

// PollPin checks whether the user has approved the Plex link code.
func (m *TokenManager) PollPin(ctx context.Context, id int64) (*PinStatus, error) {
	return m.authClient.PollPin(ctx, m.ClientIdentifier(), id)
}

// Link requests a PIN, hands it to show, and polls until the user approves it
// at plex.tv/link. The approved token is persisted before returning. Polling
// stops with ErrPinInvalid, ErrPinExpired, or the context error.
func (m *TokenManager) Link(ctx context.Context, show func(*Pin)) error {
	pin, err := m.RequestPin(ctx)
	if err != nil {
		return fmt.Errorf("request plex pin: %w", err)
	}
	if show != nil {
		show(pin)
	}

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	expiresAt := pin.ExpiresAt
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		status, err := m.PollPin(ctx, pin.ID)
		if err != nil {
			if errors.Is(err, ErrPinInvalid) {
				return ErrPinInvalid
			}
			return fmt.Errorf("poll plex pin: %w", err)
		}
		if status.Authorized {
			return m.SetAuthorizationToken(status.AuthorizationToken)
		}
		if !status.ExpiresAt.IsZero() {
			expiresAt = status.ExpiresAt
		}
		if !expiresAt.IsZero() && time.Now().After(expiresAt) {
			return ErrPinExpired
		}
	}
}

// Pin is a plex.tv link code awaiting approval.
type Pin struct {
	ID        int64
	Code      string
	ExpiresAt time.Time
}

// PinStatus is the result of polling a Pin.
type PinStatus struct {
	Authorized         bool
	AuthorizationToken string
	ExpiresAt          time.Time
}

type pinResponse struct {
	ID        int64   `json:"id"`
	Code      string  `json:"code"`
	AuthToken string  `json:"authToken"`
	ExpiresIn float64 `json:"expiresIn"`
	ExpiresAt string  `json:"expiresAt"`
}

func (p pinResponse) expirationTime() time.Time {
	if p.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, p.ExpiresAt); err == nil {
			return t
		}
	}
	if p.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(p.ExpiresIn) * time.Second)
	}
	return time.Time{}
}

func (m *TokenManager) reloadLocked() error {
	loaded, err := m.store.Load()
	if err != nil {
		return err
	}
	if loaded.ClientIdentifier == "" {
		loaded.ClientIdentifier = m.state.ClientIdentifier
	}
	m.state = loaded
	return nil
}
