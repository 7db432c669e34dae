package server

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-oidc-provider/clients"
	"github.com/jrsteele09/go-oidc-provider/discovery"
	"github.com/jrsteele09/go-oidc-provider/internal/config"
	"github.com/jrsteele09/go-oidc-provider/provider"
	"github.com/jrsteele09/go-oidc-provider/sessions"
	"github.com/jrsteele09/go-oidc-provider/token"
	"github.com/jrsteele09/go-oidc-provider/users"
	"github.com/rs/zerolog/log"
)

// Server is the HTTP surface over the protocol engine. It owns only routing
// and request/response shaping; all protocol state lives in the stores
// behind the provider service.
type Server struct {
	env       string
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	service   *provider.Service
	subject   string
	directory *discovery.Directory
}

// New assembles the stores, the protocol engine and the routes from config.
func New(cfg config.Config) (*Server, error) {
	store := sessions.NewStore(
		sessions.WithCodeTTL(cfg.GetCodeTTL()),
		sessions.WithAccessTokenTTL(cfg.GetAccessTokenTTL()),
		sessions.WithRefreshTokenTTL(cfg.GetRefreshTokenTTL()),
	)
	registry := clients.NewRegistry(
		clients.WithRegistrationLifetime(cfg.GetRegistrationLifetime()),
	)
	directory := discovery.NewDirectory()
	signer := token.NewHMACSigner(cfg.GetSigningSecret())
	claims := users.NewStaticSource(cfg.GetSubject(), users.DefaultClaims())

	service, err := provider.NewService(cfg.GetIssuer(), store, registry, directory, signer, claims)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create provider service: %w", err)
	}

	s := NewWithService(cfg, service)
	s.directory = directory
	return s, nil
}

// Directory returns the simple-web-discovery principal directory so callers
// can seed entries. Nil when the server was built around an injected service.
func (s *Server) Directory() *discovery.Directory {
	return s.directory
}

// NewWithService wires routes around an externally assembled provider
// service. Tests and embedders use this to inject their own stores,
// claims sources and issuer directories.
func NewWithService(cfg config.Config, service *provider.Service) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		config:  cfg,
		service: service,
		subject: cfg.GetSubject(),
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteAuthorization, ChainMiddleware(s.Authorize(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteToken, ChainMiddleware(s.Token(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteUserInfo, ChainMiddleware(s.UserInfo(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteRegistration, ChainMiddleware(s.Registration(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteCheckSession, ChainMiddleware(s.CheckSession(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteRefreshSession, ChainMiddleware(s.RefreshSession(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteEndSession, ChainMiddleware(s.EndSession(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteOpenIDConfiguration, ChainMiddleware(s.OpenIDConfiguration(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteProviderConfAlias, ChainMiddleware(s.OpenIDConfiguration(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteSimpleWebDiscovery, ChainMiddleware(s.IssuerLookup(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteSWDServer, ChainMiddleware(s.IssuerResolve(), s.APIMiddleware()...))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		log.Debug().Str("route", route).Msg("registered")
	}
}

// getScheme determines the scheme (http/https) observed on the request.
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}

// baseURL reconstructs the scheme+host the caller used to reach us. The
// discovery document prefixes every endpoint with it.
func baseURL(r *http.Request) string {
	return getScheme(r) + "://" + r.Host
}
