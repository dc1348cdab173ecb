package services

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cartiq/cartiq-go/internal/domain"
	"github.com/cartiq/cartiq-go/internal/state"
)

// credentialKey is the durable-store key holding the bearer token. It is the
// only key the auth service reads or writes; nothing else touches it.
const credentialKey = "token"

// AuthAPI is the slice of the backend surface the auth service depends on.
type AuthAPI interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error)
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*domain.User, error)
}

// AuthEvents receives session lifecycle signals. Satisfied by
// *events.Dispatcher; may be nil when analytics are disabled.
type AuthEvents interface {
	Lifecycle(eventType string)
}

// AuthService owns the user identity and the bearer credential. The
// credential lives in the durable store so a restarted process resumes the
// session; the resolved user profile is held in memory only and re-fetched on
// startup. All transitions are announced through Subscribe.
type AuthService struct {
	api    AuthAPI
	creds  state.DurableStore
	events AuthEvents
	log    zerolog.Logger

	mu         sync.Mutex
	token      string
	user       *domain.User
	loading    bool
	refreshing bool

	notifier notifier
}

// NewAuthService loads any persisted credential and returns a service ready
// for Refresh. It does not touch the network.
func NewAuthService(api AuthAPI, creds state.DurableStore, ev AuthEvents, log zerolog.Logger) *AuthService {
	s := &AuthService{api: api, creds: creds, events: ev, log: log}
	tok, err := creds.Get(credentialKey)
	switch {
	case err == nil:
		s.token = tok
		s.loading = true
	case errors.Is(err, state.ErrKeyNotFound):
	default:
		log.Debug().Err(err).Msg("credential read failed; starting signed out")
	}
	return s
}

// Token returns the current bearer credential, or "" when signed out. It is
// safe for concurrent use and is intended as the API client's token source.
func (s *AuthService) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns the resolved profile, or nil while signed out or still loading.
func (s *AuthService) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// UserID returns the signed-in user's id, or "".
func (s *AuthService) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// IsAuthenticated reports whether a credential is present. The profile may
// still be loading.
func (s *AuthService) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// Loading reports whether the initial identity resolution is in progress.
func (s *AuthService) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Subscribe registers fn to run after every auth state change and returns a
// cancel func.
func (s *AuthService) Subscribe(fn func()) func() { return s.notifier.subscribe(fn) }

// Refresh validates a persisted credential by fetching the current user. A
// failed fetch clears the session: a stale token is indistinguishable from a
// revoked one. At most one refresh runs at a time; concurrent calls return
// immediately.
func (s *AuthService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.token == "" {
		s.loading = false
		s.mu.Unlock()
		s.notifier.broadcast()
		return nil
	}
	if s.refreshing {
		s.mu.Unlock()
		return nil
	}
	s.refreshing = true
	s.mu.Unlock()

	user, err := s.api.CurrentUser(ctx)

	s.mu.Lock()
	s.refreshing = false
	s.loading = false
	if err != nil {
		s.log.Debug().Err(err).Msg("credential refresh failed; clearing session")
		s.clearLocked()
		s.mu.Unlock()
		s.notifier.broadcast()
		return err
	}
	s.user = user
	s.mu.Unlock()
	s.notifier.broadcast()
	return nil
}

// Login exchanges credentials for a session. On success the token is
// persisted, the profile is set and a login lifecycle event is emitted. On
// failure the current state is untouched and the backend error is returned.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) error {
	resp, err := s.api.Login(ctx, req)
	if err != nil {
		return err
	}
	s.adopt(resp)
	if s.events != nil {
		s.events.Lifecycle("login")
	}
	return nil
}

// Register creates an account and signs in with the returned session.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) error {
	resp, err := s.api.Register(ctx, req)
	if err != nil {
		return err
	}
	s.adopt(resp)
	if s.events != nil {
		s.events.Lifecycle("login")
	}
	return nil
}

// Logout ends the session. The backend call is best effort: local state is
// cleared regardless, so a network failure can never leave the client stuck
// signed in. Always returns nil.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil {
		s.log.Warn().Err(err).Msg("backend logout failed; clearing local session anyway")
	}
	if s.events != nil {
		s.events.Lifecycle("logout")
	}
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
	s.notifier.broadcast()
	return nil
}

func (s *AuthService) adopt(resp *domain.AuthResponse) {
	s.mu.Lock()
	s.token = resp.AccessToken
	s.user = &resp.User
	s.loading = false
	if err := s.creds.Set(credentialKey, resp.AccessToken); err != nil {
		s.log.Debug().Err(err).Msg("credential persist failed; session is memory-only")
	}
	s.mu.Unlock()
	s.notifier.broadcast()
}

// clearLocked wipes the in-memory session and the persisted credential.
// Callers hold s.mu.
func (s *AuthService) clearLocked() {
	s.token = ""
	s.user = nil
	if err := s.creds.Delete(credentialKey); err != nil && !errors.Is(err, state.ErrKeyNotFound) {
		s.log.Debug().Err(err).Msg("credential delete failed")
	}
}
