package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvConfig maps environment variables onto configuration fields.
// Variables that are unset leave the current values untouched.
type EnvConfig struct {
	EndpointAddrHTTP             string        `env:"HTTP_ADDRESS"`
	EndpointAddrGRPC             string        `env:"GRPC_ADDRESS"`
	StorageDriver                string        `env:"STORAGE_DRIVER"`
	DatabaseDSN                  string        `env:"DATABASE_DSN"`
	SecretKey                    string        `env:"JWT_SECRET"`
	AccessTokenValidityDuration  time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenValidityDuration time.Duration `env:"REFRESH_TOKEN_TTL"`
	APIVersion                   string        `env:"API_VERSION"`
	CORSOrigin                   string        `env:"CORS_ORIGIN"`
	Environment                  string        `env:"APP_ENV"`
	LogLevel                     string        `env:"LOG_LEVEL"`
	RateLimitWindow              time.Duration `env:"RATE_LIMIT_WINDOW"`
	AuthRateLimit                int           `env:"AUTH_RATE_LIMIT"`
	TaskRateLimit                int           `env:"TASK_RATE_LIMIT"`
}

// parseEnv overlays values from the process environment. A variable that
// cannot be parsed into its field type panics.
func parseEnv(config *Config) {
	c := &EnvConfig{}
	if err := cleanenv.ReadEnv(c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.StorageDriver, c.StorageDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setString(&config.APIVersion, c.APIVersion)
	setString(&config.CORSOrigin, c.CORSOrigin)
	setString(&config.Environment, c.Environment)
	setString(&config.LogLevel, c.LogLevel)
	setDuration(&config.RateLimitWindow, c.RateLimitWindow)
	setInt(&config.AuthRateLimit, c.AuthRateLimit)
	setInt(&config.TaskRateLimit, c.TaskRateLimit)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
