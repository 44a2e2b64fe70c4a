package logging

import (
	"os"
	"strings"
	"sync"
)

// Environment overrides applied on top of profile defaults.
const (
	EnvLogLevel     = "WISP_LOG_LEVEL"
	EnvLogTimestamp = "WISP_LOG_TIMESTAMP"
	EnvLogNoColor   = "WISP_LOG_NOCOLOR"
	EnvLogBypass    = "WISP_LOG_BYPASS"
)

// Profile names a baseline logger configuration.
type Profile int

const (
	// ProfileRuntime is the daemon baseline: info level, timestamps on.
	ProfileRuntime Profile = iota
	// ProfileTest quiets everything below warnings so test output stays
	// readable; WISP_LOG_LEVEL=debug re-opens the tap for a single run.
	ProfileTest
)

var configureOnce sync.Once

// ConfigureRuntime applies the runtime profile plus environment
// overrides. First caller wins; later calls are no-ops.
func ConfigureRuntime() {
	configureProfile(ProfileRuntime)
}

// ConfigureTests applies the test profile plus environment overrides.
// First caller wins; later calls are no-ops.
func ConfigureTests() {
	configureProfile(ProfileTest)
}

func configureProfile(profile Profile) {
	configureOnce.Do(func() {
		cfg := profileDefaults(profile)
		applyEnv(&cfg)
		Configure(cfg)
	})
}

func profileDefaults(profile Profile) Config {
	cfg := DefaultConfig()
	switch profile {
	case ProfileTest:
		cfg.Level = WarnLevel
		cfg.Timestamp = false
		cfg.NoColor = true
	default:
	}
	return cfg
}

func applyEnv(cfg *Config) {
	if raw, ok := os.LookupEnv(EnvLogLevel); ok {
		if lvl, ok := parseLevel(raw); ok {
			cfg.Level = lvl
		}
	}
	if raw, ok := os.LookupEnv(EnvLogTimestamp); ok {
		if b, ok := parseBool(raw); ok {
			cfg.Timestamp = b
		}
	}
	if raw, ok := os.LookupEnv(EnvLogNoColor); ok {
		if b, ok := parseBool(raw); ok {
			cfg.NoColor = b
		}
	}
	if raw, ok := os.LookupEnv(EnvLogBypass); ok {
		if b, ok := parseBool(raw); ok {
			cfg.Bypass = b
		}
	}
}

func parseLevel(raw string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return TraceLevel, true
	case "debug":
		return DebugLevel, true
	case "info":
		return InfoLevel, true
	case "warn", "warning":
		return WarnLevel, true
	case "error":
		return ErrorLevel, true
	case "off", "disabled":
		return Disabled, true
	default:
		return InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, true
	case "0", "f", "false", "n", "no", "off":
		return false, true
	default:
		return false, false
	}
}
