package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"sync"
	"time"

	"github.com/jrsteele09/go-oidc-provider/oidcmodel"
	"github.com/pkg/errors"
)

const (
	codeGenerationLength  = 32 // 256 bits
	tokenGenerationLength = 32

	defaultCodeTTL         = 10 * time.Minute
	defaultAccessTokenTTL  = time.Hour
	defaultRefreshTokenTTL = 24 * time.Hour
)

// Store owns every AuthorizationSession and TokenGrant. All lifecycle
// transitions happen under the store mutex, so redeeming the same code from
// concurrent callers yields exactly one success.
type Store struct {
	mu              sync.Mutex
	sessions        map[string]*AuthorizationSession
	grantsByAccess  map[string]*TokenGrant
	grantsByRefresh map[string]*TokenGrant

	nowFunc         func() time.Time
	codeTTL         time.Duration
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithNowFunc injects the time source (primarily for testing).
func WithNowFunc(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

// WithCodeTTL sets the authorization code issuance window.
func WithCodeTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.codeTTL = ttl
	}
}

// WithAccessTokenTTL sets the access token lifetime.
func WithAccessTokenTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.accessTokenTTL = ttl
	}
}

// WithRefreshTokenTTL sets the refresh token lifetime.
func WithRefreshTokenTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.refreshTokenTTL = ttl
	}
}

// NewStore creates an empty in-memory session store.
func NewStore(options ...StoreOption) *Store {
	s := &Store{
		sessions:        make(map[string]*AuthorizationSession),
		grantsByAccess:  make(map[string]*TokenGrant),
		grantsByRefresh: make(map[string]*TokenGrant),
		nowFunc:         time.Now,
		codeTTL:         defaultCodeTTL,
		accessTokenTTL:  defaultAccessTokenTTL,
		refreshTokenTTL: defaultRefreshTokenTTL,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// CreateSession stores a new AuthorizationSession for userID and returns it.
// The code is freshly generated from a cryptographically strong source.
func (s *Store) CreateSession(userID string, req *oidcmodel.AuthorizationRequest) (*AuthorizationSession, error) {
	if req == nil || req.ResponseType == "" {
		return nil, errors.Wrap(oidcmodel.ErrInvalidRequest, "missing authorization request")
	}

	code, err := newCode()
	if err != nil {
		return nil, errors.Wrap(err, "Store.CreateSession newCode")
	}

	session := &AuthorizationSession{
		Code:         code,
		UserID:       userID,
		Scopes:       append([]string(nil), req.Scopes...),
		ResponseType: req.ResponseType,
		RedirectURI:  req.RedirectURI,
		State:        req.State,
		Nonce:        req.Nonce,
		CreatedAt:    s.nowFunc(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[code] = session

	cp := *session
	cp.Scopes = append([]string(nil), session.Scopes...)
	return &cp, nil
}

// Exchange redeems an authorization code for a TokenGrant. Redemption is
// at-most-once: the consumed flag is checked and set under the store mutex.
// A consumed code reports ErrGrantAlreadyUsed even after its window passes;
// an unconsumed code past the window reports ErrGrantExpired, never
// ErrUnknownGrant.
func (s *Store) Exchange(code string) (*TokenGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[code]
	if !ok {
		return nil, errors.Wrap(oidcmodel.ErrUnknownGrant, "no session for code")
	}
	if session.Consumed {
		return nil, errors.Wrap(oidcmodel.ErrGrantAlreadyUsed, "code already exchanged")
	}
	now := s.nowFunc()
	if now.Sub(session.CreatedAt) > s.codeTTL {
		return nil, errors.Wrap(oidcmodel.ErrGrantExpired, "code past issuance window")
	}
	session.Consumed = true

	grant, err := s.mintGrantLocked(session, now)
	if err != nil {
		return nil, err
	}
	return grant.clone(), nil
}

// Refresh issues a new access token for the grant owning refreshToken. The
// prior access token is invalidated; the refresh token is reused for as long
// as it remains within its own lifetime.
func (s *Store) Refresh(refreshToken string) (*TokenGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.grantsByRefresh[refreshToken]
	if !ok {
		return nil, errors.Wrap(oidcmodel.ErrUnknownGrant, "no grant for refresh token")
	}
	now := s.nowFunc()
	if now.Sub(old.RefreshIssuedAt) > s.refreshTokenTTL {
		delete(s.grantsByRefresh, refreshToken)
		delete(s.grantsByAccess, old.AccessToken)
		return nil, errors.Wrap(oidcmodel.ErrGrantExpired, "refresh token expired")
	}

	accessToken, err := newToken()
	if err != nil {
		return nil, errors.Wrap(err, "Store.Refresh newToken")
	}

	delete(s.grantsByAccess, old.AccessToken)

	grant := &TokenGrant{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		TokenType:       "Bearer",
		ExpiresIn:       int64(s.accessTokenTTL.Seconds()),
		Scopes:          append([]string(nil), old.Scopes...),
		UserID:          old.UserID,
		SessionCode:     old.SessionCode,
		IssuedAt:        now,
		RefreshIssuedAt: old.RefreshIssuedAt,
	}
	s.grantsByAccess[accessToken] = grant
	s.grantsByRefresh[refreshToken] = grant

	return grant.clone(), nil
}

// LookupActive returns the grant for an access token without mutating
// anything. Expired tokens report ErrGrantExpired, unknown ones
// ErrUnknownGrant.
func (s *Store) LookupActive(accessToken string) (*TokenGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grant, ok := s.grantsByAccess[accessToken]
	if !ok {
		return nil, errors.Wrap(oidcmodel.ErrUnknownGrant, "no grant for access token")
	}
	if s.nowFunc().Sub(grant.IssuedAt) > s.accessTokenTTL {
		return nil, errors.Wrap(oidcmodel.ErrGrantExpired, "access token expired")
	}
	return grant.clone(), nil
}

// Session returns a copy of the stored session for code, if present.
func (s *Store) Session(code string) (*AuthorizationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[code]
	if !ok {
		return nil, errors.Wrap(oidcmodel.ErrUnknownGrant, "no session for code")
	}
	cp := *session
	cp.Scopes = append([]string(nil), session.Scopes...)
	return &cp, nil
}

// mintGrantLocked creates and indexes a fresh TokenGrant for session.
// Callers must hold s.mu.
func (s *Store) mintGrantLocked(session *AuthorizationSession, now time.Time) (*TokenGrant, error) {
	accessToken, err := newToken()
	if err != nil {
		return nil, errors.Wrap(err, "Store.mintGrant access token")
	}
	refreshToken, err := newToken()
	if err != nil {
		return nil, errors.Wrap(err, "Store.mintGrant refresh token")
	}

	grant := &TokenGrant{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		TokenType:       "Bearer",
		ExpiresIn:       int64(s.accessTokenTTL.Seconds()),
		Scopes:          append([]string(nil), session.Scopes...),
		UserID:          session.UserID,
		SessionCode:     session.Code,
		IssuedAt:        now,
		RefreshIssuedAt: now,
	}
	s.grantsByAccess[accessToken] = grant
	s.grantsByRefresh[refreshToken] = grant
	return grant, nil
}

func newCode() (string, error) {
	bytes := make([]byte, codeGenerationLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func newToken() (string, error) {
	bytes := make([]byte, tokenGenerationLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
