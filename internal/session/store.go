// Package session owns the upstream authentication state: who is logged in
// and the bearer credential, persisted across restarts through a pluggable
// key-value store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/threat-view/dashboard-service/internal/upstream"
)

// Authenticator is the slice of the upstream auth API the store depends on.
type Authenticator interface {
	Me(ctx context.Context, token string) (*upstream.UserProfile, error)
	Login(ctx context.Context, creds upstream.Credentials) (*upstream.AuthResult, error)
	Register(ctx context.Context, form upstream.RegisterForm) (*upstream.AuthResult, error)
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	User    *upstream.UserProfile `json:"user"`
	Token   string                `json:"token"`
	Loading bool                  `json:"loading"`
}

// record is the persisted shape: user and token only.
type record struct {
	User  *upstream.UserProfile `json:"user"`
	Token string                `json:"token"`
}

// SessionStore is the single source of truth for the upstream session.
// User and Token are either both set or both empty, except while a
// Login or Register call is in flight.
type SessionStore struct {
	mu      sync.RWMutex
	user    *upstream.UserProfile
	token   string
	loading bool

	auth    Authenticator
	persist Store
	logger  *zap.Logger
}

// NewSessionStore creates an empty store. Call Init to restore a persisted
// session before serving protected traffic.
func NewSessionStore(auth Authenticator, persist Store, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		auth:    auth,
		persist: persist,
		logger:  logger,
	}
}

// Init restores the persisted credential and validates it against the
// backend. Any uncertainty about session validity ends the session: a
// rejected or unverifiable token logs the account out. Idempotent; errors
// are logged, never returned.
func (s *SessionStore) Init(ctx context.Context) {
	s.ResetLoading()

	rec, err := s.loadRecord(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("failed to load persisted session", zap.Error(err))
		}
		return
	}
	if rec.Token == "" {
		return
	}

	s.mu.Lock()
	s.user = rec.User
	s.token = rec.Token
	s.mu.Unlock()

	user, err := s.auth.Me(ctx, rec.Token)
	if err != nil {
		s.logger.Warn("session restore rejected, logging out", zap.Error(err))
		s.Logout(ctx)
		return
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	s.save(ctx)

	s.logger.Info("session restored", zap.String("email", user.Email))
}

// Login authenticates against the backend. On failure the identity is left
// untouched, loading is cleared and the upstream error is returned for
// inline display by the caller.
func (s *SessionStore) Login(ctx context.Context, creds upstream.Credentials) (*upstream.AuthResult, error) {
	s.setLoading(true)

	res, err := s.auth.Login(ctx, creds)
	if err != nil {
		s.setLoading(false)
		s.logger.Warn("login failed", zap.String("email", creds.Email), zap.Error(err))
		return nil, err
	}

	s.adopt(ctx, res)
	s.logger.Info("login succeeded", zap.String("email", creds.Email))
	return res, nil
}

// Register creates an account; the contract is identical to Login.
func (s *SessionStore) Register(ctx context.Context, form upstream.RegisterForm) (*upstream.AuthResult, error) {
	s.setLoading(true)

	res, err := s.auth.Register(ctx, form)
	if err != nil {
		s.setLoading(false)
		s.logger.Warn("registration failed", zap.String("email", form.Email), zap.Error(err))
		return nil, err
	}

	s.adopt(ctx, res)
	s.logger.Info("registration succeeded", zap.String("email", form.Email))
	return res, nil
}

// Logout unconditionally clears the identity, the loading flag and the
// persisted record. It always succeeds.
func (s *SessionStore) Logout(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.loading = false
	s.mu.Unlock()

	if err := s.persist.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear persisted session", zap.Error(err))
	}
}

// ResetLoading clears a stale loading flag without touching the identity.
func (s *SessionStore) ResetLoading() {
	s.setLoading(false)
}

// Snapshot returns a copy of the current state.
func (s *SessionStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var user *upstream.UserProfile
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Snapshot{User: user, Token: s.token, Loading: s.loading}
}

// Token returns the current bearer credential, empty when logged out.
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *SessionStore) adopt(ctx context.Context, res *upstream.AuthResult) {
	s.mu.Lock()
	s.user = res.User
	s.token = res.Token
	s.loading = false
	s.mu.Unlock()

	s.save(ctx)
}

func (s *SessionStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *SessionStore) loadRecord(ctx context.Context) (*record, error) {
	data, err := s.persist.Load(ctx)
	if err != nil {
		return nil, err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SessionStore) save(ctx context.Context) {
	s.mu.RLock()
	rec := record{User: s.user, Token: s.token}
	s.mu.RUnlock()

	data, err := json.Marshal(rec)
	if err != nil {
		s.logger.Error("failed to encode session record", zap.Error(err))
		return
	}
	if err := s.persist.Save(ctx, data); err != nil {
		s.logger.Warn("failed to persist session", zap.Error(err))
	}
}
