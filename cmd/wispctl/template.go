package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const configTemplate = `# wispctl toolkit configuration.
toolkit = "my-toolkit"
description = ""

# Credentials and endpoints. Unset keys fall back to WISP_* environment
# variables, then the hosted defaults.
api_key = ""
# ws_endpoint = "wss://backend.wisp.dev/ws"
# api_endpoint = "https://backend.wisp.dev/api/v1"
# frontend_endpoint = "https://api.wisp.dev/v1"
# tx_endpoint = "https://txs.wisp.dev/v1"

# Builtin actions to serve.
actions = ["echo", "clock"]

# Session behavior.
reconnect = "auto"
max_sessions = 0
ping_interval = "30s"
connect_timeout = "10s"
write_timeout = "10s"

# Local ops endpoint (health, actions, metrics). Empty disables it.
ops_listen_addr = ""
cors_origins = ["http://localhost:3000"]

# Reconnect pacing.
backoff_initial = "250ms"
backoff_factor = 2.0
backoff_max = "5s"
backoff_jitter = true

# Transport security for private deployments.
# tls_ca_file = ""
# tls_cert_file = ""
# tls_key_file = ""
# tls_server_name = ""
`

func writeConfigTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(configTemplate), 0o600)
}

// validateConfigFile strict-decodes the file, rejecting unknown keys,
// then runs the normal overlay so duration values are checked too.
func validateConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var raw fileConfig
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	_, err = loadDaemonConfig(path)
	return err
}
