package provider

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-oidc-provider/clients"
	"github.com/jrsteele09/go-oidc-provider/discovery"
	"github.com/jrsteele09/go-oidc-provider/oidcmodel"
	"github.com/jrsteele09/go-oidc-provider/sessions"
	"github.com/jrsteele09/go-oidc-provider/token"
	"github.com/jrsteele09/go-oidc-provider/users"
	"github.com/pkg/errors"
)

const defaultIDTokenTTL = time.Hour

// Service is the protocol engine: one method per endpoint, each a pure
// function of the parsed request, the stores and the clock. It owns no state
// beyond references to the stores handed in at construction.
type Service struct {
	sessions  *sessions.Store
	registry  *clients.Registry
	directory *discovery.Directory
	signer    token.Signer
	claims    users.Source

	issuer     string
	idTokenTTL time.Duration
	nowFunc    func() time.Time
}

// ServiceOption modifies a Service at construction time.
type ServiceOption func(*Service)

// WithNowFunc injects the time source (primarily for testing).
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

// WithIDTokenTTL sets the lifetime baked into minted ID tokens.
func WithIDTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.idTokenTTL = ttl
	}
}

// NewService wires the protocol engine to its stores and collaborators.
func NewService(
	issuer string,
	sessionStore *sessions.Store,
	registry *clients.Registry,
	directory *discovery.Directory,
	signer token.Signer,
	claims users.Source,
	options ...ServiceOption,
) (*Service, error) {
	if sessionStore == nil {
		return nil, errors.New("[NewService] session store is required")
	}
	if registry == nil {
		return nil, errors.New("[NewService] client registry is required")
	}
	if directory == nil {
		return nil, errors.New("[NewService] issuer directory is required")
	}
	if signer == nil {
		return nil, errors.New("[NewService] token signer is required")
	}
	if claims == nil {
		return nil, errors.New("[NewService] claims source is required")
	}

	s := &Service{
		sessions:   sessionStore,
		registry:   registry,
		directory:  directory,
		signer:     signer,
		claims:     claims,
		issuer:     issuer,
		idTokenTTL: defaultIDTokenTTL,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Authorize handles the authorization endpoint for an authenticated userID
// and returns the redirect location. Dispatch on the resolved response_type
// is three-way: code alone defers token minting to the token endpoint;
// code+token exchanges eagerly server-side and carries both; token-bearing
// combinations without code exchange eagerly and carry only the token
// response. State is echoed unchanged in every branch.
func (s *Service) Authorize(userID string, req *oidcmodel.AuthorizationRequest) (string, error) {
	session, err := s.sessions.CreateSession(userID, req)
	if err != nil {
		return "", errors.Wrap(err, "[Authorize] CreateSession")
	}

	params := url.Values{}
	switch {
	case req.ResponseType.IncludesCode() && req.ResponseType.IncludesToken():
		grant, err := s.sessions.Exchange(session.Code)
		if err != nil {
			return "", errors.Wrap(err, "[Authorize] eager exchange")
		}
		params = tokenResponseFromGrant(grant).queryValues()
		params.Set("code", session.Code)
		params.Set("oauth_state", "authz")

	case req.ResponseType.IncludesCode():
		params.Set("code", session.Code)

	default:
		grant, err := s.sessions.Exchange(session.Code)
		if err != nil {
			return "", errors.Wrap(err, "[Authorize] implicit exchange")
		}
		params = tokenResponseFromGrant(grant).queryValues()
	}

	if req.ResponseType.IncludesIDToken() {
		idToken, err := s.mintIDToken(userID, req.ClientID, req.Nonce)
		if err != nil {
			return "", errors.Wrap(err, "[Authorize] mint id_token")
		}
		params.Set("id_token", idToken)
	}

	if req.State != "" {
		params.Set("state", req.State)
	}

	return appendQuery(req.RedirectURI, params), nil
}

// Token handles the token endpoint: authorization_code exchanges the code,
// refresh_token rotates the access token. Client credentials are verified
// when a secret is presented.
func (s *Service) Token(req *oidcmodel.TokenRequest) (*TokenResponse, error) {
	if req.ClientSecret != "" {
		if err := s.registry.VerifySecret(req.ClientID, req.ClientSecret); err != nil {
			return nil, errors.Wrap(err, "[Token] client authentication")
		}
	}

	var (
		grant *sessions.TokenGrant
		err   error
	)
	switch req.GrantType {
	case oidcmodel.GrantTypeAuthorizationCode:
		grant, err = s.sessions.Exchange(req.Code)
	case oidcmodel.GrantTypeRefreshToken:
		grant, err = s.sessions.Refresh(req.RefreshToken)
	default:
		return nil, errors.Wrapf(oidcmodel.ErrUnsupportedGrantType, "grant_type %q", req.GrantType)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Token] grant lookup")
	}

	return tokenResponseFromGrant(grant), nil
}

// UserInfo returns the claims document for the bearer access token. Any
// token lifecycle failure surfaces as ErrUnauthorized.
func (s *Service) UserInfo(accessToken string) (map[string]any, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, errors.Wrap(oidcmodel.ErrUnauthorized, "missing access token")
	}

	grant, err := s.sessions.LookupActive(accessToken)
	if err != nil {
		return nil, fmt.Errorf("[UserInfo] grant lookup: %w: %w", oidcmodel.ErrUnauthorized, err)
	}

	doc, err := s.claims.Claims(grant.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "[UserInfo] claims source")
	}
	return doc, nil
}

// Register delegates to the client registry.
func (s *Service) Register(req *oidcmodel.RegistrationRequest) (*clients.Credentials, error) {
	credentials, err := s.registry.Register(req)
	if err != nil {
		return nil, errors.Wrap(err, "[Register] registry")
	}
	return credentials, nil
}

// CheckSession verifies the presented ID token and returns its claims.
// An unparseable or badly signed token is an invalid session reference.
func (s *Service) CheckSession(req *oidcmodel.CheckSessionRequest) (map[string]any, error) {
	claims, err := token.ParseIDToken(s.signer, req.IDToken)
	if err != nil {
		return nil, errors.Wrap(oidcmodel.ErrInvalidRequest, err.Error())
	}
	return claims, nil
}

// RefreshSession validates the session reference and mints a renewed ID
// token for the same subject and audience.
func (s *Service) RefreshSession(req *oidcmodel.RefreshSessionRequest) (*RefreshSessionResponse, error) {
	claims, err := token.ParseIDToken(s.signer, req.IDToken)
	if err != nil {
		return nil, errors.Wrap(oidcmodel.ErrInvalidRequest, err.Error())
	}

	sub, _ := claims["sub"].(string)
	aud, _ := claims["aud"].(string)
	renewed, err := s.mintIDToken(sub, aud, "")
	if err != nil {
		return nil, errors.Wrap(err, "[RefreshSession] mint id_token")
	}

	return &RefreshSessionResponse{
		ClientID: "anonymous",
		IDToken:  renewed,
		State:    req.State,
	}, nil
}

// EndSession returns the redirect location terminating the session, echoing
// the caller-supplied state unchanged.
func (s *Service) EndSession(req *oidcmodel.EndSessionRequest) (string, error) {
	params := url.Values{}
	if req.State != "" {
		params.Set("state", req.State)
	}
	return appendQuery(req.RedirectURL, params), nil
}

// Discovery builds the provider metadata for the observed base URL.
func (s *Service) Discovery(baseURL string) *discovery.ProviderMetadata {
	return discovery.Metadata(s.issuer, baseURL)
}

// Issuer resolves a simple-web-discovery principal lookup.
func (s *Service) Issuer(req *oidcmodel.IssuerRequest) (*discovery.IssuerResponse, error) {
	resp, err := s.directory.Lookup(req.Principal)
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer] directory lookup")
	}
	return resp, nil
}

// ResolveIssuer is the redirect endpoint's terminal lookup: it answers with
// the provider location for principals whose first hop pointed here.
func (s *Service) ResolveIssuer(req *oidcmodel.IssuerRequest) (*discovery.IssuerResponse, error) {
	resp, err := s.directory.Resolve(req.Principal)
	if err != nil {
		return nil, errors.Wrap(err, "[ResolveIssuer] directory resolve")
	}
	return resp, nil
}

func (s *Service) mintIDToken(userID, clientID, nonce string) (string, error) {
	return token.MintIDToken(s.signer, token.IDTokenSpecifics{
		Issuer:   s.issuer,
		UserID:   userID,
		ClientID: clientID,
		Nonce:    nonce,
	}, s.nowFunc(), s.idTokenTTL)
}

func appendQuery(redirectURI string, params url.Values) string {
	if len(params) == 0 {
		return redirectURI
	}
	separator := "?"
	if strings.Contains(redirectURI, "?") {
		separator = "&"
	}
	return redirectURI + separator + params.Encode()
}
