// Package session implements the client's session state machine. A Manager
// starts in Loading, restores a persisted token on Load and moves between
// Unauthenticated and Authenticated as the user signs in and out or a
// refresh fails.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/celar-labs/celar/internal/client/client"
	"github.com/celar-labs/celar/internal/client/models"
	"github.com/celar-labs/celar/internal/client/repositories/metadata"
	"github.com/celar-labs/celar/internal/logging"
	"golang.org/x/sync/singleflight"
)

type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultRefreshThreshold is how close to expiry a token is refreshed.
const DefaultRefreshThreshold = 5 * time.Minute

var ErrNotAuthenticated = errors.New("not signed in")

// Refresher exchanges a refresh token for a new token pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*client.Tokens, error)
}

type Manager struct {
	store     metadata.Repository
	refresher Refresher
	threshold time.Duration
	logger    logging.Logger
	now       func() time.Time

	mu           sync.RWMutex
	state        State
	accessToken  string
	refreshToken string
	profile      *models.Profile

	flight singleflight.Group
}

func NewManager(store metadata.Repository, refresher Refresher, threshold time.Duration, logger logging.Logger) *Manager {
	if threshold <= 0 {
		threshold = DefaultRefreshThreshold
	}
	return &Manager{
		store:     store,
		refresher: refresher,
		threshold: threshold,
		logger:    logger.With("module", "session"),
		now:       time.Now,
		state:     StateLoading,
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Profile returns a copy of the signed-in user's profile.
func (m *Manager) Profile() (models.Profile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateAuthenticated || m.profile == nil {
		return models.Profile{}, false
	}
	return *m.profile, true
}

// Load restores the persisted session. A token that is unreadable, or that
// is near expiry and cannot be refreshed, leaves the manager
// Unauthenticated with storage cleared. Only storage failures are returned.
func (m *Manager) Load(ctx context.Context) error {
	access, err := m.store.Get(ctx, metadata.KeyUserToken)
	if err != nil {
		m.setUnauthenticated()
		return fmt.Errorf("load session: %w", err)
	}
	if len(access) == 0 {
		m.setUnauthenticated()
		return nil
	}

	refresh, err := m.store.Get(ctx, metadata.KeyRefreshToken)
	if err != nil {
		m.setUnauthenticated()
		return fmt.Errorf("load session: %w", err)
	}

	profile, err := DecodeProfile(string(access))
	if err != nil {
		m.logger.Warn(ctx, "discarding unreadable session token", "error", err)
		return m.SignOut(ctx)
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.accessToken = string(access)
	m.refreshToken = string(refresh)
	m.profile = profile
	m.mu.Unlock()

	if m.needsRefresh(profile) {
		if err := m.Refresh(ctx); err != nil {
			m.logger.Info(ctx, "stored session could not be refreshed", "error", err)
		}
	}
	return nil
}

// SignIn stores tokens and enters Authenticated.
func (m *Manager) SignIn(ctx context.Context, tokens *client.Tokens) error {
	profile, err := DecodeProfile(tokens.AccessToken)
	if err != nil {
		return err
	}

	m.mu.Lock()
	err = m.apply(ctx, tokens, profile)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.logger.Info(ctx, "signed in", "user_id", profile.UserID)
	return nil
}

// SignOut clears memory and storage and enters Unauthenticated. The state
// changes even when storage fails.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clear(ctx)
}

// RefreshToken returns the current refresh token, if any.
func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshToken
}

// AccessToken returns a token to attach to a request, refreshing it first
// when it expires within the threshold.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.RLock()
	state, token, profile := m.state, m.accessToken, m.profile
	m.mu.RUnlock()

	if state != StateAuthenticated {
		return "", ErrNotAuthenticated
	}
	if !m.needsRefresh(profile) {
		return token, nil
	}

	if err := m.Refresh(ctx); err != nil {
		return "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateAuthenticated {
		return "", ErrNotAuthenticated
	}
	return m.accessToken, nil
}

// Refresh exchanges the refresh token for a new pair. Concurrent callers
// share one request. On failure the session is signed out.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err, _ := m.flight.Do("refresh", func() (any, error) {
		return nil, m.refresh(context.WithoutCancel(ctx))
	})
	return err
}

// HandleAuthFailure signs out when err says the server rejected the
// session. It reports whether it did.
func (m *Manager) HandleAuthFailure(ctx context.Context, err error) bool {
	if !client.IsAuthError(err) {
		return false
	}
	m.logger.Info(ctx, "server rejected session, signing out", "error", err)
	if serr := m.SignOut(ctx); serr != nil {
		m.logger.Error(ctx, "failed to clear session", "error", serr)
	}
	return true
}

// refresh applies the new pair only to the session it was requested for.
// A sign-out or sign-in that lands while the request is in flight wins.
func (m *Manager) refresh(ctx context.Context) error {
	started := m.RefreshToken()
	if started == "" {
		_ = m.SignOut(ctx)
		return ErrNotAuthenticated
	}

	tokens, err := m.refresher.Refresh(ctx, started)
	var profile *models.Profile
	if err == nil {
		profile, err = DecodeProfile(tokens.AccessToken)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAuthenticated {
		m.logger.Info(ctx, "discarding refresh result for a closed session")
		return ErrNotAuthenticated
	}
	if m.refreshToken != started {
		m.logger.Info(ctx, "discarding refresh result for a replaced session")
		return nil
	}

	if err == nil {
		err = m.apply(ctx, tokens, profile)
	}
	if err != nil {
		if serr := m.clear(ctx); serr != nil {
			m.logger.Error(ctx, "failed to clear session", "error", serr)
		}
		return fmt.Errorf("%w: refresh failed: %v", ErrNotAuthenticated, err)
	}
	return nil
}

func (m *Manager) needsRefresh(p *models.Profile) bool {
	return p.ExpiresAt.Sub(m.now()) <= m.threshold
}

func (m *Manager) persist(ctx context.Context, tokens *client.Tokens) error {
	if err := m.store.Set(ctx, metadata.KeyUserToken, []byte(tokens.AccessToken)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if tokens.RefreshToken == "" {
		return m.store.Delete(ctx, metadata.KeyRefreshToken)
	}
	if err := m.store.Set(ctx, metadata.KeyRefreshToken, []byte(tokens.RefreshToken)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// apply persists tokens and makes them current. m.mu must be held.
func (m *Manager) apply(ctx context.Context, tokens *client.Tokens, profile *models.Profile) error {
	if err := m.persist(ctx, tokens); err != nil {
		return err
	}
	m.state = StateAuthenticated
	m.accessToken = tokens.AccessToken
	m.refreshToken = tokens.RefreshToken
	m.profile = profile
	return nil
}

// clear drops the session from memory and storage. m.mu must be held. The
// state changes even when storage fails.
func (m *Manager) clear(ctx context.Context) error {
	m.resetLocked()
	return errors.Join(
		m.store.Delete(ctx, metadata.KeyUserToken),
		m.store.Delete(ctx, metadata.KeyRefreshToken),
	)
}

func (m *Manager) setUnauthenticated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *Manager) resetLocked() {
	m.state = StateUnauthenticated
	m.accessToken = ""
	m.refreshToken = ""
	m.profile = nil
}
