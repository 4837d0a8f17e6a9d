package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/taskkeeper/internal/flagx"
	"github.com/dmitrijs2005/taskkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// both "15m"-style strings and integer nanoseconds via timex.Duration.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	StorageDriver                string         `json:"storage_driver"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	APIVersion                   string         `json:"api_version"`
	CORSOrigin                   string         `json:"cors_origin"`
	Environment                  string         `json:"environment"`
	LogLevel                     string         `json:"log_level"`
	RateLimitWindow              timex.Duration `json:"rate_limit_window"`
	AuthRateLimit                int            `json:"auth_rate_limit"`
	TaskRateLimit                int            `json:"task_rate_limit"`
}

// parseJson overlays values from the JSON file selected by -c/-config.
// Keys absent from the file leave the current values untouched. No flag means
// no file; an unreadable or invalid file panics.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.StorageDriver, c.StorageDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration.Duration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration.Duration)
	setString(&config.APIVersion, c.APIVersion)
	setString(&config.CORSOrigin, c.CORSOrigin)
	setString(&config.Environment, c.Environment)
	setString(&config.LogLevel, c.LogLevel)
	setDuration(&config.RateLimitWindow, c.RateLimitWindow.Duration)
	setInt(&config.AuthRateLimit, c.AuthRateLimit)
	setInt(&config.TaskRateLimit, c.TaskRateLimit)
}
