package users

import (
	"github.com/jrsteele09/go-oidc-provider/oidcmodel"
	"github.com/pkg/errors"
)

// Source supplies the claims document served by the userinfo endpoint for a
// given user identifier. The provider core never hardcodes claims; whoever
// wires the server decides where they come from.
type Source interface {
	Claims(userID string) (map[string]any, error)
}

// StaticSource serves one fixed claims document for a single user. It backs
// test deployments where the provider vouches for exactly one account.
type StaticSource struct {
	UserID string
	Doc    map[string]any
}

// NewStaticSource creates a source answering only for userID.
func NewStaticSource(userID string, doc map[string]any) *StaticSource {
	return &StaticSource{UserID: userID, Doc: doc}
}

// Claims returns the fixed document, or ErrUnauthorized for any other user.
func (s *StaticSource) Claims(userID string) (map[string]any, error) {
	if userID != s.UserID {
		return nil, errors.Wrapf(oidcmodel.ErrUnauthorized, "no claims for user %q", userID)
	}
	doc := make(map[string]any, len(s.Doc))
	for k, v := range s.Doc {
		doc[k] = v
	}
	return doc, nil
}

// DefaultClaims is the claims document used when no deployment-specific
// source is configured.
func DefaultClaims() map[string]any {
	return map[string]any{
		"name":     "Melody Gardot",
		"nickname": "Mel",
		"email":    "mel@example.com",
		"verified": true,
	}
}
