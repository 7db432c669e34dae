package config

import "time"

// Config exposes everything the server needs from the environment.
type Config interface {
	EnvConfig
	ProviderConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

// ProviderConfig covers the OIDC protocol knobs: issuer identity, the
// authenticated subject, signing material and lifetimes.
type ProviderConfig interface {
	GetIssuer() string
	GetSubject() string
	GetSigningSecret() string
	GetCodeTTL() time.Duration
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetRegistrationLifetime() time.Duration
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
