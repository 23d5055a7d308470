package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/pizzeria-pos/waiter/internal/common/httpclient"
	"github.com/pizzeria-pos/waiter/internal/notice"
	"github.com/pizzeria-pos/waiter/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/sjson"
)

// Operation names used in notices and logs.
const (
	OpRestore = "restore"
	OpSignIn  = "signIn"
	OpSignOut = "signOut"
)

// SignInPath is the API endpoint for creating a session.
const SignInPath = "session"

// State of the Manager.
type State int

const (
	StateInitializing State = iota
	StateUnauthenticated
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// APIClient is what the Manager needs from the API client: the sign-in call and
// the default header map.
type APIClient interface {
	Post(ctx context.Context, resourcePath string, data []byte) ([]byte, error)
	httpclient.HeaderStore
}

// Manager owns the in-memory session. Construct one per process, call Restore once
// before using anything else, then hand it to whatever needs the session.
type Manager struct {
	store   storage.Store
	api     APIClient
	notices notice.Notifier
	logger  zerolog.Logger

	mu          sync.RWMutex
	user        *Session
	loading     bool
	loadingAuth bool
	restored    bool
}

// NewManager creates a Manager in the initializing state. A nil notifier discards notices.
func NewManager(store storage.Store, api APIClient, notifier notice.Notifier) *Manager {
	if notifier == nil {
		notifier = notice.Discard
	}
	return &Manager{
		store:   store,
		api:     api,
		notices: notifier,
		logger:  log.With().Str("component", "session").Logger(),
		loading: true,
	}
}

// Restore loads the stored session, if any, and ends the initializing state.
// A missing, unreadable or incomplete record leaves the Manager unauthenticated and is
// not an error. Restore runs once; later calls return ErrAlreadyRestored and change
// nothing. The returned session is nil when nobody is signed in.
func (m *Manager) Restore(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if m.restored {
		m.mu.Unlock()
		return nil, ErrAlreadyRestored
	}
	m.restored = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	raw, err := m.store.Get(ctx, StorageKey)
	if err != nil {
		m.logger.Warn().Err(err).Str("op", OpRestore).Msg("unable to read stored session")
		return nil, nil
	}
	if raw == "" {
		m.logger.Debug().Str("op", OpRestore).Msg("no stored session")
		return nil, nil
	}

	s, err := Decode([]byte(raw))
	if err != nil {
		m.logger.Warn().Err(err).Str("op", OpRestore).Msg("ignoring stored session")
		return nil, nil
	}

	m.api.SetDefaultHeader(httpclient.HeaderAuthorization, httpclient.BearerValue(s.Token))
	m.setUser(s)
	m.logger.Debug().Str("op", OpRestore).Str("user_id", s.ID).Msg("session restored")
	return s.clone(), nil
}

// SignIn authenticates against the API. On success the session is stored, the
// bearer header is set and the Manager becomes authenticated. On failure nothing
// changes and a single generic failure notice is published; the returned error
// carries the diagnostic kind. If ctx is cancelled by the time the response arrives
// the result is dropped without a notice; an expired deadline is a network failure.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	m.setLoadingAuth(true)
	defer m.setLoadingAuth(false)

	s, err := m.signIn(ctx, email, password)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			m.logger.Debug().Err(err).Str("op", OpSignIn).Msg("sign in abandoned")
			return nil, ErrAbandoned.Err(err)
		}
		m.logger.Warn().Err(err).Str("op", OpSignIn).Msg("sign in failed")
		m.notices.Notify(notice.Failure(OpSignIn, notice.MsgSomethingWentWrong))
		return nil, err
	}

	m.notices.Notify(notice.Info(OpSignIn, "signed in as "+s.Name))
	return s.clone(), nil
}

func (m *Manager) signIn(ctx context.Context, email, password string) (*Session, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "email", email)
	if err == nil {
		body, err = sjson.SetBytes(body, "password", password)
	}
	if err != nil {
		return nil, ErrSignInFailed.Err(err)
	}

	resp, err := m.api.Post(ctx, SignInPath, body)
	if err != nil {
		switch httpclient.StatusCode(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return nil, ErrInvalidCredentials.Err(err)
		default:
			return nil, ErrNetwork.Err(err)
		}
	}

	s, err := Decode(resp)
	if err != nil {
		return nil, ErrBadResponse.Err(err)
	}

	switch err := ctx.Err(); {
	case errors.Is(err, context.Canceled):
		return nil, err
	case err != nil:
		return nil, ErrNetwork.Err(err)
	}

	raw, err := s.Encode()
	if err != nil {
		return nil, ErrPersistFailed.Err(err)
	}
	if err := m.store.Set(ctx, StorageKey, raw); err != nil {
		return nil, ErrPersistFailed.Err(err)
	}

	m.api.SetDefaultHeader(httpclient.HeaderAuthorization, httpclient.BearerValue(s.Token))
	m.setUser(s)
	m.logger.Info().Str("op", OpSignIn).Str("user_id", s.ID).Msg("signed in")
	return s, nil
}

// SignOut wipes the whole durable store, drops the in-memory session and removes the
// bearer header. The in-memory session is dropped even when the store cannot be
// cleared; that failure is reported with a generic notice and returned.
func (m *Manager) SignOut(ctx context.Context) error {
	clearErr := m.store.Clear(ctx)

	m.api.DeleteDefaultHeader(httpclient.HeaderAuthorization)
	m.setUser(nil)

	if clearErr != nil {
		m.logger.Warn().Err(clearErr).Str("op", OpSignOut).Msg("unable to clear storage")
		m.notices.Notify(notice.Failure(OpSignOut, notice.MsgSignOutFailed))
		return ErrSignOutFailed.Err(clearErr)
	}
	m.logger.Info().Str("op", OpSignOut).Msg("signed out")
	return nil
}

// IsAuthenticated reports whether a session with a user name is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && m.user.Name != ""
}

// Loading is true until Restore has finished.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// LoadingAuth is true while a SignIn call is in flight.
func (m *Manager) LoadingAuth() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadingAuth
}

// User returns a copy of the current session, or nil.
func (m *Manager) User() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.clone()
}

// State derives the Manager's state from its flags and session.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch {
	case m.loading:
		return StateInitializing
	case m.loadingAuth:
		return StateAuthenticating
	case m.user != nil && m.user.Name != "":
		return StateAuthenticated
	default:
		return StateUnauthenticated
	}
}

func (m *Manager) setUser(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = s.clone()
}

func (m *Manager) setLoadingAuth(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadingAuth = v
}
