package sdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cad/ovpm/sdk/go/tokenstore"
)

// rootToken is the credential the daemon accepts from its local root user.
const rootToken = "root"

// Session tracks who is logged in on a Client. It is passed explicitly to
// whatever needs credentials instead of living in global state.
type Session struct {
	client *Client
	store  tokenstore.Store
	now    func() time.Time

	mu   sync.RWMutex
	user *User
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTokenStore persists the token across process runs.
func WithTokenStore(store tokenstore.Store) SessionOption {
	return func(s *Session) { s.store = store }
}

// NewSession binds a session to client. Without a token store the session
// only lives as long as the process.
func NewSession(client *Client, opts ...SessionOption) (*Session, error) {
	if client == nil {
		return nil, ConfigError{Reason: "session requires a client"}
	}
	s := &Session{client: client, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Client returns the underlying client.
func (s *Session) Client() *Client { return s.client }

// Restore loads a saved token into the client. It returns ErrNoAuthToken when
// nothing was saved.
func (s *Session) Restore(ctx context.Context) (User, error) {
	if s.store == nil {
		return User{}, ErrNoAuthToken
	}
	rec, err := s.store.Load(ctx)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return User{}, ErrNoAuthToken
	}
	if err != nil {
		return User{}, fmt.Errorf("sdk: restore session: %w", err)
	}
	if err := s.client.SetAuthToken(rec.Token); err != nil {
		return User{}, err
	}
	user := User{Username: rec.Username, IsAdmin: rec.IsAdmin}
	s.setUser(&user)
	return user, nil
}

// Login authenticates, stores the token and fetches the user it belongs to.
func (s *Session) Login(ctx context.Context, username, password string) (User, error) {
	token, err := s.client.Auth.Authenticate(ctx, Credentials{Username: username, Password: password})
	if err != nil {
		_ = s.clear(ctx)
		return User{}, err
	}
	if err := s.client.SetAuthToken(token); err != nil {
		return User{}, err
	}
	user, err := s.client.Auth.Status(ctx)
	if err != nil {
		_ = s.clear(ctx)
		return User{}, err
	}
	if user.Username == "" {
		user.Username = username
	}
	s.setUser(&user)
	if err := s.persist(ctx, token, user); err != nil {
		return user, err
	}
	return user, nil
}

// Probe asks the server who the caller is without a token. A local root
// caller is logged in with the root token, as the daemon trusts it.
func (s *Session) Probe(ctx context.Context) (User, bool, error) {
	user, err := s.client.Auth.Probe(ctx)
	if err != nil {
		return User{}, false, err
	}
	if user.Username != rootToken {
		return user, false, nil
	}
	user.IsAdmin = true
	if err := s.client.SetAuthToken(rootToken); err != nil {
		return User{}, false, err
	}
	s.setUser(&user)
	if err := s.persist(ctx, rootToken, user); err != nil {
		return user, true, err
	}
	return user, true, nil
}

// Logout forgets the token locally and in the store.
func (s *Session) Logout(ctx context.Context) error {
	return s.clear(ctx)
}

// Observe inspects the error of any call made through the session. An
// authentication rejection clears the credentials. err is returned unchanged.
func (s *Session) Observe(ctx context.Context, err error) error {
	if err != nil && IsUnauthorized(err) {
		_ = s.clear(ctx)
	}
	return err
}

// User returns the logged-in user, if any.
func (s *Session) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// IsAuthenticated reports whether the client holds a token.
func (s *Session) IsAuthenticated() bool {
	_, ok := s.client.AuthToken()
	return ok
}

// IsAdmin reports whether the logged-in user has administrator rights.
func (s *Session) IsAdmin() bool {
	user, ok := s.User()
	return ok && user.IsAdmin
}

func (s *Session) setUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

func (s *Session) persist(ctx context.Context, token string, user User) error {
	if s.store == nil {
		return nil
	}
	err := s.store.Save(ctx, tokenstore.Record{
		Token:    token,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		SavedAt:  s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("sdk: save session: %w", err)
	}
	return nil
}

func (s *Session) clear(ctx context.Context) error {
	s.client.ClearAuthToken()
	s.setUser(nil)
	if s.store == nil {
		return nil
	}
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("sdk: clear session: %w", err)
	}
	return nil
}
