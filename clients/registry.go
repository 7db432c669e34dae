package clients

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oidc-provider/oidcmodel"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	secretGenerationLength      = 32 // 256 bits
	defaultRegistrationLifetime = time.Hour
)

// Registry owns every client registration. Updates for the same identifier
// serialize on the registry mutex, so concurrent metadata merges cannot tear.
type Registry struct {
	mu                   sync.Mutex
	registrations        map[string]*Registration
	nowFunc              func() time.Time
	registrationLifetime time.Duration
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryNowFunc injects the time source (primarily for testing).
func WithRegistryNowFunc(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.nowFunc = now
	}
}

// WithRegistrationLifetime sets how long a registration stays valid before
// the client must re-register.
func WithRegistrationLifetime(lifetime time.Duration) RegistryOption {
	return func(r *Registry) {
		r.registrationLifetime = lifetime
	}
}

// NewRegistry creates an empty in-memory client registry.
func NewRegistry(options ...RegistryOption) *Registry {
	r := &Registry{
		registrations:        make(map[string]*Registration),
		nowFunc:              time.Now,
		registrationLifetime: defaultRegistrationLifetime,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Register processes a dynamic registration request. The associate path
// allocates a fresh identifier and secret; the update path requires a known
// identifier, merges metadata, rotates the secret and refreshes the expiry.
// The plaintext secret appears only in the returned Credentials.
func (r *Registry) Register(req *oidcmodel.RegistrationRequest) (*Credentials, error) {
	if req == nil {
		return nil, errors.Wrap(oidcmodel.ErrInvalidRequest, "missing registration request")
	}

	secret, err := newSecret()
	if err != nil {
		return nil, errors.Wrap(err, "Registry.Register newSecret")
	}
	secretHash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "Registry.Register bcrypt")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowFunc()
	expiresAt := now.Add(r.registrationLifetime)

	var registration *Registration
	switch req.Type {
	case oidcmodel.RegistrationTypeAssociate:
		registration = &Registration{
			ID:         uuid.New().String(),
			SecretHash: secretHash,
			Metadata:   copyMetadata(req.Metadata),
			IssuedAt:   now,
			ExpiresAt:  expiresAt,
		}
		r.registrations[registration.ID] = registration

	case oidcmodel.RegistrationTypeUpdate:
		existing, ok := r.registrations[req.ClientID]
		if !ok {
			return nil, errors.Wrapf(oidcmodel.ErrUnknownClient, "client %q", req.ClientID)
		}
		for k, v := range req.Metadata {
			existing.Metadata[k] = v
		}
		existing.SecretHash = secretHash
		existing.ExpiresAt = expiresAt
		registration = existing

	default:
		return nil, errors.Wrapf(oidcmodel.ErrInvalidRequest, "registration type %q", req.Type)
	}

	return &Credentials{
		ClientID:     registration.ID,
		ClientSecret: secret,
		ExpiresAt:    expiresAt.Unix(),
	}, nil
}

// Get returns a copy of the registration for id. The copy carries the secret
// hash, never the plaintext secret.
func (r *Registry) Get(id string) (*Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	registration, ok := r.registrations[id]
	if !ok {
		return nil, errors.Wrapf(oidcmodel.ErrUnknownClient, "client %q", id)
	}
	return registration.clone(), nil
}

// VerifySecret checks a presented client secret against the stored hash.
// Expired registrations fail verification.
func (r *Registry) VerifySecret(id, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	registration, ok := r.registrations[id]
	if !ok {
		return errors.Wrapf(oidcmodel.ErrUnknownClient, "client %q", id)
	}
	if r.nowFunc().After(registration.ExpiresAt) {
		return errors.Wrapf(oidcmodel.ErrUnauthorized, "registration for %q expired", id)
	}
	if err := bcrypt.CompareHashAndPassword(registration.SecretHash, []byte(secret)); err != nil {
		return errors.Wrap(oidcmodel.ErrUnauthorized, "client secret mismatch")
	}
	return nil
}

func copyMetadata(metadata map[string]any) map[string]any {
	cp := make(map[string]any, len(metadata))
	for k, v := range metadata {
		cp[k] = v
	}
	return cp
}

func newSecret() (string, error) {
	bytes := make([]byte, secretGenerationLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
