package coinbase

import (
	"fmt"
	"os"

	"github.com/helymenezes/bot-trade-coinbase/types"
)

const (
	EnvAPIKey    = "COINBASE_API_KEY"
	EnvAPISecret = "COINBASE_API_SECRET"
)

// Credentials are the Advanced Trade API key pair. They are never logged.
type Credentials struct {
	APIKey    string
	APISecret string
}

// CredentialsFromEnv reads the key pair from the process environment.
func CredentialsFromEnv() Credentials {
	return Credentials{
		APIKey:    os.Getenv(EnvAPIKey),
		APISecret: os.Getenv(EnvAPISecret),
	}
}

func (c Credentials) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%s not set: %w", EnvAPIKey, types.ErrMissingCredential)
	}
	if c.APISecret == "" {
		return fmt.Errorf("%s not set: %w", EnvAPISecret, types.ErrMissingCredential)
	}
	return nil
}

func (c Credentials) String() string {
	return "coinbase.Credentials{redacted}"
}
