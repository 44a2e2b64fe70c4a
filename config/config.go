// Package config carries the endpoints and credential a toolkit or
// agent client needs to reach the hosted wisp services.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Environment overrides. Explicit struct fields win over these; these
// win over the hosted defaults.
const (
	EnvAPIKey              = "WISP_API_KEY"
	EnvBackendWSEndpoint   = "WISP_WS_ENDPOINT"
	EnvBackendAPIEndpoint  = "WISP_API_ENDPOINT"
	EnvFrontendAPIEndpoint = "WISP_FRONTEND_API_ENDPOINT"
	EnvTransactionEndpoint = "WISP_TX_ENDPOINT"
)

// Hosted service defaults.
const (
	DefaultBackendWSEndpoint   = "wss://backend.wisp.dev/ws"
	DefaultBackendAPIEndpoint  = "https://backend.wisp.dev/api/v1"
	DefaultFrontendAPIEndpoint = "https://api.wisp.dev/v1"
	DefaultTransactionEndpoint = "https://txs.wisp.dev/v1"
)

var (
	ErrMissingAPIKey   = errors.New("config: missing api key")
	ErrMissingEndpoint = errors.New("config: missing endpoint")
)

// Endpoints locates the wisp services.
type Endpoints struct {
	// BackendWS is the WebSocket dial target for toolkit sessions.
	BackendWS string
	// BackendAPI serves the agent-side action search and call routes.
	BackendAPI string
	// FrontendAPI serves toolkit metadata updates.
	FrontendAPI string
	// Transaction serves transaction creation for paid actions.
	Transaction string
}

// Config is the full client configuration. The zero value plus
// WithDefaults is usable as soon as WISP_API_KEY is set.
type Config struct {
	APIKey    string
	Endpoints Endpoints
}

// Default returns the hosted-service configuration with environment
// overrides applied. The API key has no default; it must come from the
// caller or WISP_API_KEY.
func Default() Config {
	return Config{}.WithDefaults()
}

// WithDefaults fills every blank field from the environment, falling
// back to the hosted defaults. Populated fields are left alone.
func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.APIKey) == "" {
		c.APIKey = strings.TrimSpace(os.Getenv(EnvAPIKey))
	}
	c.Endpoints.BackendWS = pick(c.Endpoints.BackendWS, EnvBackendWSEndpoint, DefaultBackendWSEndpoint)
	c.Endpoints.BackendAPI = pick(c.Endpoints.BackendAPI, EnvBackendAPIEndpoint, DefaultBackendAPIEndpoint)
	c.Endpoints.FrontendAPI = pick(c.Endpoints.FrontendAPI, EnvFrontendAPIEndpoint, DefaultFrontendAPIEndpoint)
	c.Endpoints.Transaction = pick(c.Endpoints.Transaction, EnvTransactionEndpoint, DefaultTransactionEndpoint)
	return c
}

// Validate reports the first unusable field.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	for _, ep := range []struct {
		name  string
		value string
	}{
		{"backend ws", c.Endpoints.BackendWS},
		{"backend api", c.Endpoints.BackendAPI},
		{"frontend api", c.Endpoints.FrontendAPI},
		{"transaction", c.Endpoints.Transaction},
	} {
		if strings.TrimSpace(ep.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingEndpoint, ep.name)
		}
	}
	return nil
}

func pick(current, envKey, fallback string) string {
	if strings.TrimSpace(current) != "" {
		return current
	}
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v
	}
	return fallback
}
