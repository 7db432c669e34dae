package server

import "github.com/jrsteele09/go-oidc-provider/discovery"

// Route paths. The protocol endpoints reuse the discovery package constants
// so the advertised metadata can never drift from the served routes.
const (
	RouteAuthorization  = discovery.AuthorizationPath
	RouteToken          = discovery.TokenPath
	RouteUserInfo       = discovery.UserInfoPath
	RouteCheckSession   = discovery.CheckSessionPath
	RouteRefreshSession = discovery.RefreshSessionPath
	RouteEndSession     = discovery.EndSessionPath
	RouteRegistration   = discovery.RegistrationPath

	RouteOpenIDConfiguration = "/.well-known/openid-configuration"

	// The original deployment served provider metadata under a path prefix
	// as well; kept for compatibility with relying parties that resolved
	// the issuer to /providerconf.
	RouteProviderConfAlias = "/providerconf/.well-known/openid-configuration"

	RouteSimpleWebDiscovery = "/.well-known/simple-web-discovery"
	RouteSWDServer          = "/swd_server"
)
