package clients

import "time"

// Registration is the stored record for a dynamically registered client.
// The identifier is immutable once assigned; the secret is kept only as a
// bcrypt hash and the plaintext is returned solely on the registration
// response that minted it.
type Registration struct {
	ID         string
	SecretHash []byte
	Metadata   map[string]any
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// Credentials is what a successful registration call hands back to the
// client: the one and only exposure of the plaintext secret.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	ExpiresAt    int64  `json:"expires_at"`
}

func (r *Registration) clone() *Registration {
	cp := *r
	cp.SecretHash = append([]byte(nil), r.SecretHash...)
	cp.Metadata = make(map[string]any, len(r.Metadata))
	for k, v := range r.Metadata {
		cp.Metadata[k] = v
	}
	return &cp
}
