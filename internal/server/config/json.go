package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/memberservice/internal/flagx"
	"github.com/dmitrijs2005/memberservice/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// either "10s" style strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP     string         `json:"endpoint_addr_http"`
	DatabaseDSN          string         `json:"database_dsn"`
	SecretKey            string         `json:"secret_key"`
	LegacyPasswordSecret string         `json:"legacy_password_secret"`
	BcryptCost           int            `json:"bcrypt_cost"`
	Env                  string         `json:"env"`
	ShutdownTimeout      timex.Duration `json:"shutdown_timeout"`
	CookieSecure         *bool          `json:"cookie_secure"`
}

// parseJson overlays the file named by -c/-config onto config. Keys missing
// from the file leave the current value alone. An unreadable file or invalid
// JSON panics: the process must not start on a half-read configuration.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
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

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.LegacyPasswordSecret != "" {
		config.LegacyPasswordSecret = c.LegacyPasswordSecret
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.Env != "" {
		config.Env = c.Env
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
}
