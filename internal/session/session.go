// Package session owns the authentication lifecycle: the current user, the
// access/refresh credential pair, and the guarded network path that renews
// credentials transparently on expiry. The Manager is a process-wide
// singleton; collections and commands go through its methods and never
// mutate its state directly.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/CrazyNoDota/nomadway-sub000/internal/api"
	"github.com/CrazyNoDota/nomadway-sub000/internal/keystore"
	"github.com/CrazyNoDota/nomadway-sub000/internal/models"
)

// Status is the session lifecycle state
type Status string

const (
	StatusAnonymous      Status = "anonymous"
	StatusAuthenticating Status = "authenticating"
	StatusAuthenticated  Status = "authenticated"
	StatusRefreshing     Status = "refreshing"
	StatusExpired        Status = "expired"
)

// Navigator is the external collaborator that presents the login flow when
// an unauthenticated user attempts a gated action.
type Navigator interface {
	PresentLogin()
}

// NavigatorFunc adapts a plain function to the Navigator interface.
type NavigatorFunc func()

func (f NavigatorFunc) PresentLogin() { f() }

// inflightRefresh is a pending credential refresh shared by every caller
// that observes a 401 while it is in flight. Err is valid after Done closes.
type inflightRefresh struct {
	done chan struct{}
	err  error
}

// Manager is the session state machine.
type Manager struct {
	api  *api.Client
	keys *keystore.Keystore
	nav  Navigator
	log  *slog.Logger

	mu          sync.RWMutex
	status      Status
	user        *models.User
	accessToken string

	refreshMu sync.Mutex
	inflight  *inflightRefresh

	subMu   sync.Mutex
	subs    map[int]func(Status)
	nextSub int
}

// NewManager creates an anonymous session manager.
func NewManager(client *api.Client, keys *keystore.Keystore, nav Navigator, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		api:    client,
		keys:   keys,
		nav:    nav,
		log:    log,
		status: StatusAnonymous,
		subs:   make(map[int]func(Status)),
	}
}

// Status returns the current lifecycle state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// CurrentUser returns a copy of the authenticated user, or nil.
func (m *Manager) CurrentUser() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// AccessToken returns the current access token, or empty when anonymous.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accessToken
}

// Subscribe registers a status observer and returns an unsubscribe func.
// Observers are invoked outside the state lock, in no particular order.
func (m *Manager) Subscribe(fn func(Status)) func() {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()
	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// setStatus transitions the state machine and notifies subscribers.
func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	if m.status == s {
		m.mu.Unlock()
		return
	}
	m.status = s
	m.mu.Unlock()
	m.notify(s)
}

func (m *Manager) notify(s Status) {
	m.subMu.Lock()
	fns := make([]func(Status), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// Bootstrap restores the session at process start. Stored credentials are
// adopted optimistically, then verified against the identity endpoint; a 401
// triggers one refresh attempt. Absent credentials or a failed verification
// leave the session anonymous. Bootstrap itself never returns an error for
// "not logged in".
func (m *Manager) Bootstrap(ctx context.Context) {
	creds, err := m.keys.Load()
	if err != nil {
		m.log.Warn("keystore unreadable at bootstrap", "err", err)
		m.setStatus(StatusAnonymous)
		return
	}
	if creds == nil || creds.AccessToken == "" {
		m.setStatus(StatusAnonymous)
		return
	}

	// Optimistic restore so the UI renders authenticated immediately.
	m.mu.Lock()
	m.user = creds.User
	m.accessToken = creds.AccessToken
	m.status = StatusAuthenticated
	m.mu.Unlock()
	m.notify(StatusAuthenticated)

	user, err := m.api.Me(ctx, creds.AccessToken)
	switch {
	case err == nil:
		m.mu.Lock()
		m.user = user
		m.mu.Unlock()
	case errors.Is(err, api.ErrUnauthorized):
		if rerr := m.refreshAccessToken(ctx); rerr != nil {
			m.log.Info("stored session no longer valid", "err", rerr)
		}
	default:
		// Verification failed for a non-auth reason (network down, server
		// error). Credentials stay on disk for the next start; this run is
		// anonymous.
		m.log.Warn("session verification failed", "err", err)
		m.mu.Lock()
		m.user = nil
		m.accessToken = ""
		m.mu.Unlock()
		m.setStatus(StatusAnonymous)
	}
}

// Login authenticates with email/password. On failure the prior state is
// restored and nothing is persisted.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	return m.authenticate(func() (*api.AuthResponse, error) {
		return m.api.Login(ctx, email, password)
	})
}

// Register creates an account and signs in. Same persistence contract as
// Login.
func (m *Manager) Register(ctx context.Context, email, password, name string) error {
	return m.authenticate(func() (*api.AuthResponse, error) {
		return m.api.Register(ctx, email, password, name)
	})
}

func (m *Manager) authenticate(call func() (*api.AuthResponse, error)) error {
	m.mu.Lock()
	prev := m.status
	m.status = StatusAuthenticating
	m.mu.Unlock()
	m.notify(StatusAuthenticating)

	resp, err := call()
	if err != nil {
		m.setStatus(prev)
		return err
	}
	if resp.AccessToken == "" || resp.User == nil {
		m.setStatus(prev)
		return fmt.Errorf("auth response missing token or user")
	}

	if err := m.keys.Save(&keystore.Credentials{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         resp.User,
	}); err != nil {
		// Session works for this process; it just won't survive a restart.
		m.log.Warn("persist credentials", "err", err)
	}

	m.mu.Lock()
	m.user = resp.User
	m.accessToken = resp.AccessToken
	m.status = StatusAuthenticated
	m.mu.Unlock()
	m.notify(StatusAuthenticated)
	return nil
}

// Logout invalidates the token server-side (best effort), clears every
// persisted credential and returns the session to anonymous.
func (m *Manager) Logout(ctx context.Context) {
	if token := m.AccessToken(); token != "" {
		if err := m.api.Logout(ctx, token); err != nil {
			m.log.Warn("server-side logout failed", "err", err)
		}
	}
	m.clear(StatusAnonymous)
}

// clear wipes persisted and in-memory credentials and moves to the given
// terminal state.
func (m *Manager) clear(to Status) {
	if err := m.keys.Clear(); err != nil {
		m.log.Warn("clear keystore", "err", err)
	}
	m.mu.Lock()
	m.user = nil
	m.accessToken = ""
	changed := m.status != to
	m.status = to
	m.mu.Unlock()
	if changed {
		m.notify(to)
	}
}

// refreshAccessToken renews the credential pair using the stored refresh
// token. Concurrent callers are funneled into a single in-flight refresh:
// the first caller performs the network call and every waiter observes its
// one outcome. On any failure the session is cleared and ErrSessionExpired
// is returned.
func (m *Manager) refreshAccessToken(ctx context.Context) error {
	m.refreshMu.Lock()
	if fl := m.inflight; fl != nil {
		m.refreshMu.Unlock()
		<-fl.done
		return fl.err
	}
	fl := &inflightRefresh{done: make(chan struct{})}
	m.inflight = fl
	m.refreshMu.Unlock()

	fl.err = m.doRefresh(ctx)

	m.refreshMu.Lock()
	m.inflight = nil
	m.refreshMu.Unlock()
	close(fl.done)

	return fl.err
}

func (m *Manager) doRefresh(ctx context.Context) error {
	creds, err := m.keys.Load()
	if err != nil || creds == nil || creds.RefreshToken == "" {
		m.clear(StatusExpired)
		return api.ErrSessionExpired
	}

	m.setStatus(StatusRefreshing)

	// The outcome is shared by every waiter, so the call must not die with
	// the first caller's context.
	resp, err := m.api.Refresh(context.WithoutCancel(ctx), creds.RefreshToken)
	if err != nil {
		m.clear(StatusExpired)
		return fmt.Errorf("%w: %v", api.ErrSessionExpired, err)
	}
	if resp.AccessToken == "" {
		m.clear(StatusExpired)
		return api.ErrSessionExpired
	}

	user := resp.User
	if user == nil {
		user = creds.User
	}
	if user == nil {
		// Neither the refresh response nor the stored credentials carry
		// an identity. Resolve it before entering the authenticated state.
		user, err = m.api.Me(context.WithoutCancel(ctx), resp.AccessToken)
		if err != nil {
			m.clear(StatusExpired)
			return fmt.Errorf("%w: %v", api.ErrSessionExpired, err)
		}
	}
	if err := m.keys.Save(&keystore.Credentials{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         user,
	}); err != nil {
		m.log.Warn("persist refreshed credentials", "err", err)
	}

	m.mu.Lock()
	m.user = user
	m.accessToken = resp.AccessToken
	m.status = StatusAuthenticated
	m.mu.Unlock()
	m.notify(StatusAuthenticated)
	return nil
}

// Do issues a guarded request: the current access token is attached, and a
// 401 triggers exactly one refresh followed by exactly one retry. A second
// 401, or a failed refresh, rejects with ErrSessionExpired after the
// session has been cleared. Every other failure propagates unchanged.
func (m *Manager) Do(ctx context.Context, method, path string, body any) (*api.Response, error) {
	resp, err := m.api.Do(ctx, method, path, body, m.AccessToken())
	if err == nil || !errors.Is(err, api.ErrUnauthorized) {
		return resp, err
	}

	if rerr := m.refreshAccessToken(ctx); rerr != nil {
		return nil, rerr
	}

	resp, err = m.api.Do(ctx, method, path, body, m.AccessToken())
	if err != nil && errors.Is(err, api.ErrUnauthorized) {
		m.clear(StatusExpired)
		return nil, api.ErrSessionExpired
	}
	return resp, err
}

// RequireAuth reports whether the session is authenticated. When it is not,
// the navigator is asked to present the login flow as a side effect.
func (m *Manager) RequireAuth() bool {
	if m.Status() == StatusAuthenticated {
		return true
	}
	if m.nav != nil {
		m.nav.PresentLogin()
	}
	return false
}
