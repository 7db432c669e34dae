package provider_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-oidc-provider/clients"
	"github.com/jrsteele09/go-oidc-provider/discovery"
	"github.com/jrsteele09/go-oidc-provider/oidcmodel"
	"github.com/jrsteele09/go-oidc-provider/provider"
	"github.com/jrsteele09/go-oidc-provider/sessions"
	"github.com/jrsteele09/go-oidc-provider/token"
	"github.com/jrsteele09/go-oidc-provider/users"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer      = "test-op"
	testUserID      = "user"
	testRedirectURI = "https://rp.example/cb"
	testState       = "random-state-value"
)

type testFixture struct {
	sessionStore *sessions.Store
	registry     *clients.Registry
	directory    *discovery.Directory
	signer       token.Signer
	service      *provider.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	store := sessions.NewStore()
	registry := clients.NewRegistry()
	directory := discovery.NewDirectory()
	directory.Add("foo@example.com", discovery.Entry{Locations: "http://example.com/providerconf"})
	directory.Add("bar@example.org", discovery.Entry{
		ServiceRedirect: "https://example.net/swd_server",
		Locations:       "http://example.net/providerconf",
	})
	signer := token.NewHMACSigner("fixture-secret")

	service, err := provider.NewService(
		testIssuer,
		store,
		registry,
		directory,
		signer,
		users.NewStaticSource(testUserID, users.DefaultClaims()),
	)
	require.NoError(t, err)

	return &testFixture{
		sessionStore: store,
		registry:     registry,
		directory:    directory,
		signer:       signer,
		service:      service,
	}
}

func authRequest(responseType oidcmodel.ResponseType) *oidcmodel.AuthorizationRequest {
	return &oidcmodel.AuthorizationRequest{
		ResponseType: responseType,
		RedirectURI:  testRedirectURI,
		Scopes:       []string{"openid"},
		State:        testState,
	}
}

func redirectQuery(t *testing.T, location string) url.Values {
	t.Helper()
	parsed, err := url.Parse(location)
	require.NoError(t, err)
	return parsed.Query()
}

func TestAuthorizeCodeFlow(t *testing.T) {
	f := setupTestFixture(t)

	location, err := f.service.Authorize(testUserID, authRequest(oidcmodel.ResponseTypeCode))
	require.NoError(t, err)

	query := redirectQuery(t, location)
	require.NotEmpty(t, query.Get("code"))
	require.Equal(t, testState, query.Get("state"))
	require.Empty(t, query.Get("access_token"))

	// The code is still unconsumed: minting is deferred to the token endpoint.
	resp, err := f.service.Token(&oidcmodel.TokenRequest{
		GrantType: oidcmodel.GrantTypeAuthorizationCode,
		Code:      query.Get("code"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, "Bearer", resp.TokenType)
}

func TestAuthorizeHybridFlowExchangesEagerly(t *testing.T) {
	f := setupTestFixture(t)

	location, err := f.service.Authorize(testUserID, authRequest(oidcmodel.ResponseTypeCodeToken))
	require.NoError(t, err)

	query := redirectQuery(t, location)
	require.NotEmpty(t, query.Get("code"))
	require.NotEmpty(t, query.Get("access_token"))
	require.Equal(t, "authz", query.Get("oauth_state"))
	require.Equal(t, testState, query.Get("state"))

	// Eager server-side exchange consumed the code: a later token-endpoint
	// call with the same code must fail.
	_, err = f.service.Token(&oidcmodel.TokenRequest{
		GrantType: oidcmodel.GrantTypeAuthorizationCode,
		Code:      query.Get("code"),
	})
	require.ErrorIs(t, err, oidcmodel.ErrGrantAlreadyUsed)
}

func TestAuthorizeImplicitFlow(t *testing.T) {
	f := setupTestFixture(t)

	location, err := f.service.Authorize(testUserID, authRequest(oidcmodel.ResponseTypeToken))
	require.NoError(t, err)

	query := redirectQuery(t, location)
	require.Empty(t, query.Get("code"))
	require.NotEmpty(t, query.Get("access_token"))
	require.Equal(t, testState, query.Get("state"))
}

func TestAuthorizeIDTokenFlows(t *testing.T) {
	f := setupTestFixture(t)

	tests := []struct {
		name         string
		responseType oidcmodel.ResponseType
		wantCode     bool
		wantToken    bool
	}{
		{name: "id_token", responseType: oidcmodel.ResponseTypeIDToken},
		{name: "code id_token", responseType: oidcmodel.ResponseTypeCodeIDToken, wantCode: true},
		{name: "token id_token", responseType: oidcmodel.ResponseTypeTokenIDToken, wantToken: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := authRequest(tc.responseType)
			req.Nonce = "n-0S6_WzA2Mj"

			location, err := f.service.Authorize(testUserID, req)
			require.NoError(t, err)

			query := redirectQuery(t, location)
			require.NotEmpty(t, query.Get("id_token"))
			require.Equal(t, tc.wantCode, query.Get("code") != "")
			if tc.wantToken {
				require.NotEmpty(t, query.Get("access_token"))
			}

			claims, err := token.ParseIDToken(f.signer, query.Get("id_token"))
			require.NoError(t, err)
			require.Equal(t, testUserID, claims["sub"])
			require.Equal(t, "n-0S6_WzA2Mj", claims["nonce"])
		})
	}
}

func TestAuthorizePreservesExistingQuery(t *testing.T) {
	f := setupTestFixture(t)

	req := authRequest(oidcmodel.ResponseTypeCode)
	req.RedirectURI = "https://rp.example/cb?app=1"

	location, err := f.service.Authorize(testUserID, req)
	require.NoError(t, err)

	parsed, err := url.Parse(location)
	require.NoError(t, err)
	require.Equal(t, "1", parsed.Query().Get("app"))
	require.NotEmpty(t, parsed.Query().Get("code"))
}

func TestTokenRefreshGrant(t *testing.T) {
	f := setupTestFixture(t)

	location, err := f.service.Authorize(testUserID, authRequest(oidcmodel.ResponseTypeCode))
	require.NoError(t, err)
	code := redirectQuery(t, location).Get("code")

	issued, err := f.service.Token(&oidcmodel.TokenRequest{
		GrantType: oidcmodel.GrantTypeAuthorizationCode,
		Code:      code,
	})
	require.NoError(t, err)

	refreshed, err := f.service.Token(&oidcmodel.TokenRequest{
		GrantType:    oidcmodel.GrantTypeRefreshToken,
		RefreshToken: issued.RefreshToken,
	})
	require.NoError(t, err)
	require.NotEqual(t, issued.AccessToken, refreshed.AccessToken)
}

func TestTokenUnsupportedGrantType(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Token(&oidcmodel.TokenRequest{GrantType: "client_credentials"})
	require.ErrorIs(t, err, oidcmodel.ErrUnsupportedGrantType)
}

func TestTokenVerifiesClientSecret(t *testing.T) {
	f := setupTestFixture(t)

	credentials, err := f.registry.Register(&oidcmodel.RegistrationRequest{
		Type:     oidcmodel.RegistrationTypeAssociate,
		Metadata: map[string]any{},
	})
	require.NoError(t, err)

	location, err := f.service.Authorize(testUserID, authRequest(oidcmodel.ResponseTypeCode))
	require.NoError(t, err)
	code := redirectQuery(t, location).Get("code")

	_, err = f.service.Token(&oidcmodel.TokenRequest{
		GrantType:    oidcmodel.GrantTypeAuthorizationCode,
		Code:         code,
		ClientID:     credentials.ClientID,
		ClientSecret: "wrong",
	})
	require.ErrorIs(t, err, oidcmodel.ErrUnauthorized)

	resp, err := f.service.Token(&oidcmodel.TokenRequest{
		GrantType:    oidcmodel.GrantTypeAuthorizationCode,
		Code:         code,
		ClientID:     credentials.ClientID,
		ClientSecret: credentials.ClientSecret,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
}

func TestUserInfo(t *testing.T) {
	f := setupTestFixture(t)

	location, err := f.service.Authorize(testUserID, authRequest(oidcmodel.ResponseTypeToken))
	require.NoError(t, err)
	accessToken := redirectQuery(t, location).Get("access_token")

	doc, err := f.service.UserInfo(accessToken)
	require.NoError(t, err)
	require.Equal(t, "Melody Gardot", doc["name"])

	_, err = f.service.UserInfo("bogus")
	require.ErrorIs(t, err, oidcmodel.ErrUnauthorized)
	require.ErrorIs(t, err, oidcmodel.ErrUnknownGrant)

	_, err = f.service.UserInfo("")
	require.ErrorIs(t, err, oidcmodel.ErrUnauthorized)
}

func TestUserInfoExpiredTokenKeepsCause(t *testing.T) {
	now := time.Now()
	store := sessions.NewStore(
		sessions.WithAccessTokenTTL(time.Hour),
		sessions.WithNowFunc(func() time.Time { return now }),
	)
	service, err := provider.NewService(
		testIssuer,
		store,
		clients.NewRegistry(),
		discovery.NewDirectory(),
		token.NewHMACSigner("fixture-secret"),
		users.NewStaticSource(testUserID, users.DefaultClaims()),
	)
	require.NoError(t, err)

	session, err := store.CreateSession(testUserID, authRequest(oidcmodel.ResponseTypeCode))
	require.NoError(t, err)
	grant, err := store.Exchange(session.Code)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)

	_, err = service.UserInfo(grant.AccessToken)
	require.ErrorIs(t, err, oidcmodel.ErrUnauthorized)
	// The store's verdict survives the wrap so logs can tell expired from
	// unknown tokens.
	require.ErrorIs(t, err, oidcmodel.ErrGrantExpired)
}

func TestCheckSession(t *testing.T) {
	f := setupTestFixture(t)

	idToken, err := token.MintIDToken(f.signer, token.IDTokenSpecifics{
		Issuer: testIssuer,
		UserID: testUserID,
	}, time.Now(), time.Hour)
	require.NoError(t, err)

	claims, err := f.service.CheckSession(&oidcmodel.CheckSessionRequest{IDToken: idToken})
	require.NoError(t, err)
	require.Equal(t, testUserID, claims["sub"])

	_, err = f.service.CheckSession(&oidcmodel.CheckSessionRequest{IDToken: "garbage"})
	require.ErrorIs(t, err, oidcmodel.ErrInvalidRequest)
}

func TestRefreshSession(t *testing.T) {
	f := setupTestFixture(t)

	idToken, err := token.MintIDToken(f.signer, token.IDTokenSpecifics{
		Issuer:   testIssuer,
		UserID:   testUserID,
		ClientID: "client-1",
	}, time.Now(), time.Hour)
	require.NoError(t, err)

	resp, err := f.service.RefreshSession(&oidcmodel.RefreshSessionRequest{IDToken: idToken, State: testState})
	require.NoError(t, err)
	require.Equal(t, "anonymous", resp.ClientID)
	require.Equal(t, testState, resp.State)

	claims, err := token.ParseIDToken(f.signer, resp.IDToken)
	require.NoError(t, err)
	require.Equal(t, testUserID, claims["sub"])
	require.Equal(t, "client-1", claims["aud"])

	_, err = f.service.RefreshSession(&oidcmodel.RefreshSessionRequest{IDToken: "garbage"})
	require.ErrorIs(t, err, oidcmodel.ErrInvalidRequest)
}

func TestEndSessionEchoesState(t *testing.T) {
	f := setupTestFixture(t)

	location, err := f.service.EndSession(&oidcmodel.EndSessionRequest{
		RedirectURL: "https://rp.example/done",
		State:       testState,
	})
	require.NoError(t, err)

	query := redirectQuery(t, location)
	require.Equal(t, testState, query.Get("state"))
}

func TestDiscoveryMetadata(t *testing.T) {
	f := setupTestFixture(t)

	md := f.service.Discovery("https://idp.example")
	require.Equal(t, testIssuer, md.Issuer)
	require.Equal(t, "https://idp.example/token", md.TokenEndpoint)
}

func TestIssuerLookup(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.service.Issuer(&oidcmodel.IssuerRequest{Principal: "foo@example.com"})
	require.NoError(t, err)
	require.Equal(t, "http://example.com/providerconf", resp.Locations)

	resp, err = f.service.Issuer(&oidcmodel.IssuerRequest{Principal: "bar@example.org"})
	require.NoError(t, err)
	require.NotNil(t, resp.SWDServiceRedirect)

	_, err = f.service.Issuer(&oidcmodel.IssuerRequest{Principal: "nobody@example.net"})
	require.ErrorIs(t, err, oidcmodel.ErrUnknownPrincipal)
}

func TestResolveIssuerSecondHop(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.service.ResolveIssuer(&oidcmodel.IssuerRequest{Principal: "bar@example.org"})
	require.NoError(t, err)
	require.Equal(t, "http://example.net/providerconf", resp.Locations)
	require.Nil(t, resp.SWDServiceRedirect)

	_, err = f.service.ResolveIssuer(&oidcmodel.IssuerRequest{Principal: "foo@example.com"})
	require.ErrorIs(t, err, oidcmodel.ErrUnknownPrincipal)
}
