package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cartiq/cartiq-go/internal/domain"
	"github.com/cartiq/cartiq-go/internal/state"
)

type fakeAuthAPI struct {
	loginFn    func(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error)
	registerFn func(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error)
	logoutFn   func(ctx context.Context) error
	currentFn  func(ctx context.Context) (*domain.User, error)
}

func (f *fakeAuthAPI) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	return f.loginFn(ctx, req)
}
func (f *fakeAuthAPI) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	return f.registerFn(ctx, req)
}
func (f *fakeAuthAPI) Logout(ctx context.Context) error { return f.logoutFn(ctx) }
func (f *fakeAuthAPI) CurrentUser(ctx context.Context) (*domain.User, error) {
	return f.currentFn(ctx)
}

type lifecycleRecorder struct{ events []string }

func (r *lifecycleRecorder) Lifecycle(eventType string) { r.events = append(r.events, eventType) }

func authResp(token, userID string) *domain.AuthResponse {
	return &domain.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        domain.User{ID: userID, Email: "u@example.com"},
	}
}

func TestLoginPersistsCredentialAndEmitsLifecycle(t *testing.T) {
	api := &fakeAuthAPI{
		loginFn: func(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
			if req.Email != "u@example.com" {
				t.Fatalf("unexpected login email %q", req.Email)
			}
			return authResp("tok-1", "user-1"), nil
		},
	}
	creds := state.NewMemoryStore()
	rec := &lifecycleRecorder{}
	s := NewAuthService(api, creds, rec, zerolog.Nop())

	var notified int
	s.Subscribe(func() { notified++ })

	if err := s.Login(context.Background(), domain.LoginRequest{Email: "u@example.com", Password: "pw"}); err != nil {
		t.Fatalf("Login error = %v", err)
	}
	if got := s.Token(); got != "tok-1" {
		t.Errorf("Token = %q", got)
	}
	if !s.IsAuthenticated() {
		t.Error("IsAuthenticated = false after login")
	}
	if got := s.UserID(); got != "user-1" {
		t.Errorf("UserID = %q", got)
	}
	if v, err := creds.Get("token"); err != nil || v != "tok-1" {
		t.Errorf("persisted credential = %q, %v", v, err)
	}
	if len(rec.events) != 1 || rec.events[0] != "login" {
		t.Errorf("lifecycle events = %v", rec.events)
	}
	if notified == 0 {
		t.Error("no change notification after login")
	}
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	wantErr := errors.New("401")
	api := &fakeAuthAPI{
		loginFn: func(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
			return nil, wantErr
		},
	}
	rec := &lifecycleRecorder{}
	s := NewAuthService(api, state.NewMemoryStore(), rec, zerolog.Nop())

	if err := s.Login(context.Background(), domain.LoginRequest{}); !errors.Is(err, wantErr) {
		t.Fatalf("Login error = %v; want %v", err, wantErr)
	}
	if s.IsAuthenticated() {
		t.Error("authenticated after failed login")
	}
	if len(rec.events) != 0 {
		t.Errorf("lifecycle events = %v; want none", rec.events)
	}
}

func TestLogoutClearsLocallyDespiteBackendError(t *testing.T) {
	api := &fakeAuthAPI{
		loginFn: func(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
			return authResp("tok-1", "user-1"), nil
		},
		logoutFn: func(ctx context.Context) error { return errors.New("network down") },
	}
	creds := state.NewMemoryStore()
	rec := &lifecycleRecorder{}
	s := NewAuthService(api, creds, rec, zerolog.Nop())
	if err := s.Login(context.Background(), domain.LoginRequest{}); err != nil {
		t.Fatalf("Login error = %v", err)
	}

	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("Logout error = %v; want nil even on backend failure", err)
	}
	if s.IsAuthenticated() || s.User() != nil || s.Token() != "" {
		t.Error("local session not cleared after logout")
	}
	if _, err := creds.Get("token"); !errors.Is(err, state.ErrKeyNotFound) {
		t.Errorf("credential still persisted: err = %v", err)
	}
	if len(rec.events) != 2 || rec.events[1] != "logout" {
		t.Errorf("lifecycle events = %v", rec.events)
	}
}

func TestRefreshResolvesPersistedCredential(t *testing.T) {
	creds := state.NewMemoryStore()
	if err := creds.Set("token", "tok-persisted"); err != nil {
		t.Fatal(err)
	}
	api := &fakeAuthAPI{
		currentFn: func(ctx context.Context) (*domain.User, error) {
			return &domain.User{ID: "user-9"}, nil
		},
	}
	s := NewAuthService(api, creds, nil, zerolog.Nop())

	if !s.Loading() {
		t.Error("Loading = false before refresh with persisted credential")
	}
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh error = %v", err)
	}
	if s.Loading() {
		t.Error("Loading = true after refresh")
	}
	if got := s.UserID(); got != "user-9" {
		t.Errorf("UserID = %q", got)
	}
}

func TestRefreshFailureClearsStaleCredential(t *testing.T) {
	creds := state.NewMemoryStore()
	if err := creds.Set("token", "tok-stale"); err != nil {
		t.Fatal(err)
	}
	api := &fakeAuthAPI{
		currentFn: func(ctx context.Context) (*domain.User, error) {
			return nil, errors.New("401 unauthorized")
		},
	}
	s := NewAuthService(api, creds, nil, zerolog.Nop())

	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh error = nil; want failure")
	}
	if s.IsAuthenticated() {
		t.Error("still authenticated after failed refresh")
	}
	if _, err := creds.Get("token"); !errors.Is(err, state.ErrKeyNotFound) {
		t.Errorf("stale credential not deleted: err = %v", err)
	}
}

func TestRefreshWithoutCredentialIsNoop(t *testing.T) {
	called := false
	api := &fakeAuthAPI{
		currentFn: func(ctx context.Context) (*domain.User, error) {
			called = true
			return nil, nil
		},
	}
	s := NewAuthService(api, state.NewMemoryStore(), nil, zerolog.Nop())
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh error = %v", err)
	}
	if called {
		t.Error("CurrentUser called with no credential")
	}
}

func TestLoginSurvivesCredentialWriteFailure(t *testing.T) {
	api := &fakeAuthAPI{
		loginFn: func(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
			return authResp("tok-mem", "user-1"), nil
		},
	}
	creds := state.NewMemoryStore()
	creds.FailWrites = true
	s := NewAuthService(api, creds, nil, zerolog.Nop())

	if err := s.Login(context.Background(), domain.LoginRequest{}); err != nil {
		t.Fatalf("Login error = %v; want nil despite persist failure", err)
	}
	if got := s.Token(); got != "tok-mem" {
		t.Errorf("Token = %q; want in-memory session", got)
	}
}
