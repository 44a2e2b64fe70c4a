package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/wisp/api"
	"github.com/danmuck/wisp/toolkit"
)

// daemonConfig is everything wispctl needs to host a toolkit.
type daemonConfig struct {
	Service toolkit.ServiceConfig
	Info    api.ToolkitInfo
	Actions []string
}

type fileConfig struct {
	Toolkit        string   `toml:"toolkit"`
	Description    string   `toml:"description"`
	APIKey         string   `toml:"api_key"`
	WSEndpoint     string   `toml:"ws_endpoint"`
	APIEndpoint    string   `toml:"api_endpoint"`
	FrontendAPI    string   `toml:"frontend_endpoint"`
	TxEndpoint     string   `toml:"tx_endpoint"`
	Actions        []string `toml:"actions"`
	Reconnect      string   `toml:"reconnect"`
	MaxSessions    int      `toml:"max_sessions"`
	PingInterval   string   `toml:"ping_interval"`
	ConnectTimeout string   `toml:"connect_timeout"`
	WriteTimeout   string   `toml:"write_timeout"`
	OpsListenAddr  string   `toml:"ops_listen_addr"`
	CorsOrigins    []string `toml:"cors_origins"`
	BackoffInitial string   `toml:"backoff_initial"`
	BackoffFactor  float64  `toml:"backoff_factor"`
	BackoffMax     string   `toml:"backoff_max"`
	BackoffJitter  bool     `toml:"backoff_jitter"`
	TLSCAFile      string   `toml:"tls_ca_file"`
	TLSCertFile    string   `toml:"tls_cert_file"`
	TLSKeyFile     string   `toml:"tls_key_file"`
	TLSServerName  string   `toml:"tls_server_name"`
	TLSInsecure    bool     `toml:"tls_insecure_skip_verify"`
}

func defaultDaemonConfig() daemonConfig {
	return daemonConfig{
		Service: toolkit.DefaultServiceConfig(),
		Actions: defaultActionNames(),
	}
}

// loadDaemonConfig overlays file values onto the defaults. Keys absent
// from the file keep their default, so partial configs stay valid.
func loadDaemonConfig(path string) (daemonConfig, error) {
	cfg := defaultDaemonConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return daemonConfig{}, fmt.Errorf("load wispctl config: %w", err)
	}

	if meta.IsDefined("toolkit") {
		name := strings.TrimSpace(raw.Toolkit)
		if name != "" {
			cfg.Service.Toolkit = name
			cfg.Info.Name = name
		}
	}

	if meta.IsDefined("description") {
		cfg.Info.Description = strings.TrimSpace(raw.Description)
	}

	if meta.IsDefined("api_key") {
		cfg.Service.Config.APIKey = strings.TrimSpace(raw.APIKey)
	}

	if meta.IsDefined("ws_endpoint") {
		cfg.Service.Config.Endpoints.BackendWS = strings.TrimSpace(raw.WSEndpoint)
	}

	if meta.IsDefined("api_endpoint") {
		cfg.Service.Config.Endpoints.BackendAPI = strings.TrimSpace(raw.APIEndpoint)
	}

	if meta.IsDefined("frontend_endpoint") {
		cfg.Service.Config.Endpoints.FrontendAPI = strings.TrimSpace(raw.FrontendAPI)
	}

	if meta.IsDefined("tx_endpoint") {
		cfg.Service.Config.Endpoints.Transaction = strings.TrimSpace(raw.TxEndpoint)
	}

	if meta.IsDefined("actions") {
		cfg.Actions = normalizeList(raw.Actions)
	}

	if meta.IsDefined("reconnect") {
		cfg.Service.Reconnect = toolkit.ReconnectPolicy(strings.TrimSpace(raw.Reconnect))
	}

	if meta.IsDefined("max_sessions") {
		cfg.Service.MaxSessions = raw.MaxSessions
	}

	if meta.IsDefined("ping_interval") {
		d, err := parseConfigDuration("ping_interval", raw.PingInterval)
		if err != nil {
			return daemonConfig{}, err
		}
		cfg.Service.Session.PingInterval = d
	}

	if meta.IsDefined("connect_timeout") {
		d, err := parseConfigDuration("connect_timeout", raw.ConnectTimeout)
		if err != nil {
			return daemonConfig{}, err
		}
		cfg.Service.Session.ConnectTimeout = d
	}

	if meta.IsDefined("write_timeout") {
		d, err := parseConfigDuration("write_timeout", raw.WriteTimeout)
		if err != nil {
			return daemonConfig{}, err
		}
		cfg.Service.Session.WriteTimeout = d
	}

	if meta.IsDefined("ops_listen_addr") {
		cfg.Service.OpsListenAddr = strings.TrimSpace(raw.OpsListenAddr)
	}

	if meta.IsDefined("cors_origins") {
		cfg.Service.OpsCORSOrigins = normalizeList(raw.CorsOrigins)
	}

	if meta.IsDefined("backoff_initial") {
		d, err := parseConfigDuration("backoff_initial", raw.BackoffInitial)
		if err != nil {
			return daemonConfig{}, err
		}
		cfg.Service.Backoff.InitialDelay = d
	}

	if meta.IsDefined("backoff_factor") {
		cfg.Service.Backoff.Multiplier = raw.BackoffFactor
	}

	if meta.IsDefined("backoff_max") {
		d, err := parseConfigDuration("backoff_max", raw.BackoffMax)
		if err != nil {
			return daemonConfig{}, err
		}
		cfg.Service.Backoff.MaxDelay = d
	}

	if meta.IsDefined("backoff_jitter") {
		cfg.Service.Backoff.Jitter = raw.BackoffJitter
	}

	if meta.IsDefined("tls_ca_file") {
		cfg.Service.Session.TLS.CAFile = strings.TrimSpace(raw.TLSCAFile)
	}

	if meta.IsDefined("tls_cert_file") {
		cfg.Service.Session.TLS.CertFile = strings.TrimSpace(raw.TLSCertFile)
	}

	if meta.IsDefined("tls_key_file") {
		cfg.Service.Session.TLS.KeyFile = strings.TrimSpace(raw.TLSKeyFile)
	}

	if meta.IsDefined("tls_server_name") {
		cfg.Service.Session.TLS.ServerName = strings.TrimSpace(raw.TLSServerName)
	}

	if meta.IsDefined("tls_insecure_skip_verify") {
		cfg.Service.Session.TLS.InsecureSkipVerify = raw.TLSInsecure
	}

	return cfg, nil
}

func parseConfigDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, item := range in {
		v := strings.TrimSpace(item)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
