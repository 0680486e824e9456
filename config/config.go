// Package config loads SDK configuration from the environment, with optional
// .env file support for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Environment variable names understood by Load.
const (
	EnvAccount        = "XPAYMENTS_ACCOUNT"
	EnvAPIKey         = "XPAYMENTS_API_KEY"
	EnvSecretKey      = "XPAYMENTS_SECRET_KEY"
	EnvTestServerHost = "TEST_SERVER_HOST"
)

// Config carries the credentials and the optional test-server host override.
// It is read once and passed by value into the client constructor; there is no
// process-global configuration state.
type Config struct {
	Account        string
	APIKey         string
	SecretKey      string
	TestServerHost string
}

// Load reads configuration from a .env file (when one exists in the working
// directory) and the process environment. Process environment wins.
func Load() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, errors.Wrap(err, "loading .env file")
		}
	}

	return Config{
		Account:        os.Getenv(EnvAccount),
		APIKey:         os.Getenv(EnvAPIKey),
		SecretKey:      os.Getenv(EnvSecretKey),
		TestServerHost: os.Getenv(EnvTestServerHost),
	}, nil
}
