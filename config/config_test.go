package config

import (
	"errors"
	"testing"

	"github.com/danmuck/wisp/internal/testutil/testlog"
)

func TestDefaultUsesHostedEndpoints(t *testing.T) {
	testlog.Start(t)
	t.Setenv(EnvAPIKey, "key-from-env")

	cfg := Default()
	if cfg.APIKey != "key-from-env" {
		t.Fatalf("api key = %q, want env value", cfg.APIKey)
	}
	if cfg.Endpoints.BackendWS != DefaultBackendWSEndpoint {
		t.Fatalf("backend ws = %q, want default", cfg.Endpoints.BackendWS)
	}
	if cfg.Endpoints.Transaction != DefaultTransactionEndpoint {
		t.Fatalf("transaction = %q, want default", cfg.Endpoints.Transaction)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestWithDefaultsEnvBeatsHostedDefault(t *testing.T) {
	testlog.Start(t)
	t.Setenv(EnvBackendWSEndpoint, "ws://localhost:9000/ws")
	t.Setenv(EnvBackendAPIEndpoint, "http://localhost:9000/api")

	cfg := Config{}.WithDefaults()
	if cfg.Endpoints.BackendWS != "ws://localhost:9000/ws" {
		t.Fatalf("backend ws = %q, want env override", cfg.Endpoints.BackendWS)
	}
	if cfg.Endpoints.BackendAPI != "http://localhost:9000/api" {
		t.Fatalf("backend api = %q, want env override", cfg.Endpoints.BackendAPI)
	}
	if cfg.Endpoints.FrontendAPI != DefaultFrontendAPIEndpoint {
		t.Fatalf("frontend api = %q, want default", cfg.Endpoints.FrontendAPI)
	}
}

func TestWithDefaultsExplicitBeatsEnv(t *testing.T) {
	testlog.Start(t)
	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvBackendWSEndpoint, "ws://env:1/ws")

	cfg := Config{
		APIKey:    "explicit-key",
		Endpoints: Endpoints{BackendWS: "ws://explicit:2/ws"},
	}.WithDefaults()

	if cfg.APIKey != "explicit-key" {
		t.Fatalf("api key = %q, want explicit value", cfg.APIKey)
	}
	if cfg.Endpoints.BackendWS != "ws://explicit:2/ws" {
		t.Fatalf("backend ws = %q, want explicit value", cfg.Endpoints.BackendWS)
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	testlog.Start(t)
	t.Setenv(EnvAPIKey, "")

	cfg := Config{}.WithDefaults()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}

	cfg.APIKey = "key"
	cfg.Endpoints.FrontendAPI = "  "
	if err := cfg.Validate(); !errors.Is(err, ErrMissingEndpoint) {
		t.Fatalf("err = %v, want ErrMissingEndpoint", err)
	}
}
