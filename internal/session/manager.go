package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hospital-admin/internal/client"
	"github.com/iliyamo/hospital-admin/internal/logging"
	"github.com/iliyamo/hospital-admin/internal/model"
)

const (
	keyAccess        = "accessToken"
	keyRefresh       = "refreshToken"
	keyUser          = "user"
	keySavedUsername = "savedUsername"
	keyRememberMe    = "rememberMe"
)

// Manager decides which backend a value goes to and reads them back.  It
// is the bearer credential source of the API client.
type Manager struct {
	persistent Store
	ephemeral  Store
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewManager wires a persistent backend with a fresh in-process one.
func NewManager(persistent Store, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logging.Discard()
	}
	return &Manager{persistent: persistent, ephemeral: NewMemoryStore(), log: log, now: time.Now}
}

func (m *Manager) target(remember bool) Store {
	if remember {
		return m.persistent
	}
	return m.ephemeral
}

// get reads key from the persistent backend, then the ephemeral one.
func (m *Manager) get(ctx context.Context, key string) (string, Store, error) {
	for _, s := range []Store{m.persistent, m.ephemeral} {
		v, err := s.Get(ctx, key)
		if err == nil {
			return v, s, nil
		}
		if !errors.Is(err, ErrNoSession) {
			return "", nil, err
		}
	}
	return "", nil, ErrNoSession
}

// StoreTokens saves both tokens in the backend chosen by remember and
// drops any copy left in the other one.
func (m *Manager) StoreTokens(ctx context.Context, access, refresh string, remember bool) error {
	other := m.target(!remember)
	if err := other.Delete(ctx, keyAccess, keyRefresh); err != nil {
		return err
	}
	s := m.target(remember)
	if err := s.Set(ctx, keyAccess, access); err != nil {
		return err
	}
	if refresh == "" {
		return s.Delete(ctx, keyRefresh)
	}
	return s.Set(ctx, keyRefresh, refresh)
}

// SetAccessToken replaces the access token where it currently lives.
func (m *Manager) SetAccessToken(ctx context.Context, access string) error {
	_, s, err := m.get(ctx, keyAccess)
	if errors.Is(err, ErrNoSession) {
		s, err = m.ephemeral, nil
	}
	if err != nil {
		return err
	}
	return s.Set(ctx, keyAccess, access)
}

// AccessToken returns the stored access token or "".  Backend errors are
// logged and treated as no token.
func (m *Manager) AccessToken() string {
	v, _, err := m.get(context.Background(), keyAccess)
	if err != nil && !errors.Is(err, ErrNoSession) {
		m.log.WithError(err).Warn("session read failed")
	}
	return v
}

func (m *Manager) RefreshToken(ctx context.Context) (string, error) {
	v, _, err := m.get(ctx, keyRefresh)
	return v, err
}

// StoreUser saves the signed-in account next to its access token.
func (m *Manager) StoreUser(ctx context.Context, u model.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, s, err := m.get(ctx, keyAccess)
	if errors.Is(err, ErrNoSession) {
		s, err = m.ephemeral, nil
	}
	if err != nil {
		return err
	}
	return s.Set(ctx, keyUser, string(raw))
}

func (m *Manager) User(ctx context.Context) (model.User, error) {
	var u model.User
	raw, _, err := m.get(ctx, keyUser)
	if err != nil {
		return u, err
	}
	err = json.Unmarshal([]byte(raw), &u)
	return u, err
}

// SaveUsername remembers the login name for the next prompt.  Without
// remember any saved name is forgotten instead.
func (m *Manager) SaveUsername(ctx context.Context, username string, remember bool) error {
	if !remember {
		return m.ClearSavedCredentials(ctx)
	}
	if err := m.persistent.Set(ctx, keySavedUsername, username); err != nil {
		return err
	}
	return m.persistent.Set(ctx, keyRememberMe, "true")
}

// SavedUsername returns the remembered login name, or "".
func (m *Manager) SavedUsername(ctx context.Context) string {
	if v, err := m.persistent.Get(ctx, keyRememberMe); err != nil || v != "true" {
		return ""
	}
	v, err := m.persistent.Get(ctx, keySavedUsername)
	if err != nil {
		return ""
	}
	return v
}

func (m *Manager) ClearSavedCredentials(ctx context.Context) error {
	return m.persistent.Delete(ctx, keySavedUsername, keyRememberMe)
}

// Clear drops tokens and user from both backends.  The saved username
// survives.
func (m *Manager) Clear(ctx context.Context) error {
	return errors.Join(
		m.persistent.Delete(ctx, keyAccess, keyRefresh, keyUser),
		m.ephemeral.Delete(ctx, keyAccess, keyRefresh, keyUser),
	)
}

// ClearAll is Clear plus the saved credentials.
func (m *Manager) ClearAll(ctx context.Context) error {
	return errors.Join(m.Clear(ctx), m.ClearSavedCredentials(ctx))
}

// IsLoggedIn reports whether an access token is stored and its exp claim
// lies in the future.  The signature is not checked; the server does that.
func (m *Manager) IsLoggedIn() bool {
	tok := m.AccessToken()
	if tok == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.After(m.now())
}

// Login authenticates against the API and stores the resulting session.
func (m *Manager) Login(ctx context.Context, auth *client.AuthClient, usernameOrEmail, password string, remember bool) (model.User, error) {
	res, err := auth.Login(ctx, usernameOrEmail, password)
	if err != nil {
		return model.User{}, err
	}
	if err := m.StoreTokens(ctx, res.AccessToken, res.RefreshToken, remember); err != nil {
		return model.User{}, err
	}
	if err := m.StoreUser(ctx, res.User); err != nil {
		return model.User{}, err
	}
	if err := m.SaveUsername(ctx, usernameOrEmail, remember); err != nil {
		m.log.WithError(err).Warn("could not save username")
	}
	m.log.WithFields(logrus.Fields{"user": res.User.Username, "remember": remember}).Info("signed in")
	return res.User, nil
}

// Refresh trades the stored refresh token for a new access token.
func (m *Manager) Refresh(ctx context.Context, auth *client.AuthClient) error {
	rt, err := m.RefreshToken(ctx)
	if err != nil {
		return err
	}
	access, err := auth.Refresh(ctx, rt)
	if err != nil {
		return err
	}
	return m.SetAccessToken(ctx, access)
}

// Logout revokes the refresh token on the server, best effort, and clears
// the local session.
func (m *Manager) Logout(ctx context.Context, auth *client.AuthClient) error {
	if rt, err := m.RefreshToken(ctx); err == nil && auth != nil {
		if err := auth.Logout(ctx, rt); err != nil {
			m.log.WithError(err).Warn("server logout failed")
		}
	}
	return m.Clear(ctx)
}
