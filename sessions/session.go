package sessions

import (
	"time"

	"github.com/jrsteele09/go-oidc-provider/oidcmodel"
)

// AuthorizationSession records one completed authorization request. The Code
// doubles as the session identifier and is redeemable at most once.
type AuthorizationSession struct {
	Code         string                 // Opaque single-use authorization code
	UserID       string                 // Resource owner who approved the request
	Scopes       []string               // Scopes granted to the session
	ResponseType oidcmodel.ResponseType // Resolved response_type combination
	RedirectURI  string                 // Destination of the authorization response
	State        string                 // Client state echoed in the redirect
	Nonce        string                 // Nonce bound to any issued ID token
	CreatedAt    time.Time              // Start of the code's issuance window
	Consumed     bool                   // Set exactly once, on exchange
}

// TokenGrant is the credential set minted when a session is exchanged or
// refreshed. Every non-expired access token traces back to exactly one
// AuthorizationSession via SessionCode.
type TokenGrant struct {
	AccessToken     string
	RefreshToken    string
	TokenType       string
	ExpiresIn       int64 // Access token lifetime in seconds, for the wire response
	Scopes          []string
	UserID          string
	SessionCode     string
	IssuedAt        time.Time // When this access token was minted
	RefreshIssuedAt time.Time // When the refresh token was originally minted
}

func (g *TokenGrant) clone() *TokenGrant {
	cp := *g
	cp.Scopes = append([]string(nil), g.Scopes...)
	return &cp
}
