package client

import (
	"context"
	"sync"

	"github.com/goliatone/go-taskboard/logging"
)

// AuthAPI is the part of Client a Session needs
type AuthAPI interface {
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Verify(ctx context.Context, token string) (*User, error)
	Me(ctx context.Context, token string) (*User, error)
	Logout(ctx context.Context, token string) error
}

var _ AuthAPI = (*Client)(nil)

// Session tracks who is signed in. Operations are serialized, readers get
// consistent snapshots at any time.
type Session struct {
	ops sync.Mutex

	mu        sync.RWMutex
	snap      Snapshot
	started   bool
	listeners []func(Snapshot)

	api    AuthAPI
	store  TokenStore
	logger logging.Logger
}

type SessionOption func(*Session)

func WithSessionLogger(l logging.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// OnChange registers fn to be called after every transition
func OnChange(fn func(Snapshot)) SessionOption {
	return func(s *Session) {
		if fn != nil {
			s.listeners = append(s.listeners, fn)
		}
	}
}

func NewSession(api AuthAPI, store TokenStore, opts ...SessionOption) *Session {
	if store == nil {
		store = NewMemoryTokenStore("")
	}
	s := &Session{
		api:    api,
		store:  store,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Session) set(next Snapshot) Snapshot {
	s.mu.Lock()
	s.snap = next
	listeners := append([]func(Snapshot){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next
}

// Start restores a stored token. It only runs once, later calls return the
// current snapshot.
func (s *Session) Start(ctx context.Context) Snapshot {
	s.ops.Lock()
	defer s.ops.Unlock()

	s.mu.Lock()
	started := s.started
	s.started = true
	s.mu.Unlock()
	if started {
		return s.Snapshot()
	}

	token, err := s.store.Load()
	if err != nil {
		s.logger.Warn("failed to load stored token", "error", err)
	}
	if token == "" {
		return s.Snapshot()
	}

	loading, err := s.Snapshot().Begin()
	if err != nil {
		return s.Snapshot()
	}
	s.set(loading)

	user, err := s.api.Verify(ctx, token)
	if err != nil {
		s.logger.Debug("stored token rejected", "error", err)
		s.discardToken()
		failed, _ := loading.Fail("")
		return s.set(failed)
	}

	next, _ := loading.Succeed(*user, token)
	return s.set(next)
}

// Login authenticates and stores the returned token. On failure the
// session is unauthenticated and the error carries the server message.
func (s *Session) Login(ctx context.Context, email, password string) (Snapshot, error) {
	return s.authenticate(func() (*AuthResult, error) {
		return s.api.Login(ctx, email, password)
	})
}

// Register creates the account and signs in
func (s *Session) Register(ctx context.Context, name, email, password string) (Snapshot, error) {
	return s.authenticate(func() (*AuthResult, error) {
		return s.api.Register(ctx, name, email, password)
	})
}

func (s *Session) authenticate(call func() (*AuthResult, error)) (Snapshot, error) {
	s.ops.Lock()
	defer s.ops.Unlock()

	loading, err := s.Snapshot().Begin()
	if err != nil {
		return s.Snapshot(), err
	}
	s.set(loading)

	res, err := call()
	if err != nil {
		s.discardToken()
		failed, _ := loading.Fail(Message(err))
		return s.set(failed), err
	}

	if err := s.store.Save(res.Token); err != nil {
		s.logger.Warn("failed to persist token", "error", err)
	}

	next, _ := loading.Succeed(res.User, res.Token)
	return s.set(next), nil
}

// Logout always discards the local token. Telling the server is best
// effort and its errors are ignored.
func (s *Session) Logout(ctx context.Context) Snapshot {
	s.ops.Lock()
	defer s.ops.Unlock()

	current := s.Snapshot()
	if token := current.Token(); token != "" {
		if err := s.api.Logout(ctx, token); err != nil {
			s.logger.Debug("server logout failed", "error", err)
		}
	}

	s.discardToken()
	return s.set(current.SignOut())
}

// Refresh reloads the signed in user. A rejected token signs the session out.
func (s *Session) Refresh(ctx context.Context) (Snapshot, error) {
	s.ops.Lock()
	defer s.ops.Unlock()

	current := s.Snapshot()
	if !current.IsAuthenticated() {
		_, err := current.WithUser(User{})
		return current, err
	}

	user, err := s.api.Me(ctx, current.Token())
	if err != nil {
		if IsUnauthorized(err) {
			s.discardToken()
			failed, _ := current.Fail(Message(err))
			return s.set(failed), err
		}
		return current, err
	}

	next, err := current.WithUser(*user)
	if err != nil {
		return current, err
	}
	return s.set(next), nil
}

func (s *Session) discardToken() {
	if err := s.store.Clear(); err != nil {
		s.logger.Warn("failed to clear stored token", "error", err)
	}
}
