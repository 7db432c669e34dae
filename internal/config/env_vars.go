package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	issuerEnvVar  = "ISSUER"
	subjectEnvVar = "SUBJECT"
	secretEnvVar  = "SIGNING_SECRET"
)

type EnvVars struct{}

var _ Config = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Go OIDC Provider")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetIssuer returns the issuer identifier advertised in discovery metadata.
func (EnvVars) GetIssuer() string {
	return GetEnv(issuerEnvVar, "go-oidc-provider")
}

// GetSubject returns the user identifier the provider vouches for. The
// provider has no login UI; authentication happens upstream.
func (EnvVars) GetSubject() string {
	return GetEnv(subjectEnvVar, "user")
}

func (EnvVars) GetSigningSecret() string {
	return GetEnv(secretEnvVar, "development-signing-secret")
}

func (EnvVars) GetCodeTTL() time.Duration {
	return getDuration("CODE_TTL", 10*time.Minute)
}

func (EnvVars) GetAccessTokenTTL() time.Duration {
	return getDuration("ACCESS_TOKEN_TTL", time.Hour)
}

func (EnvVars) GetRefreshTokenTTL() time.Duration {
	return getDuration("REFRESH_TOKEN_TTL", 24*time.Hour)
}

func (EnvVars) GetRegistrationLifetime() time.Duration {
	return getDuration("REGISTRATION_LIFETIME", time.Hour)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Debug().Str("var", envVar).Str("value", value).Err(err).Msg("invalid duration, using default")
		return defaultValue
	}
	return parsed
}
