package toolkit

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/danmuck/wisp/api"
	"github.com/danmuck/wisp/config"
	"github.com/danmuck/wisp/internal/logging"
)

// ReconnectPolicy selects behavior after a session ends.
type ReconnectPolicy string

const (
	// ReconnectNone treats any session end as terminal.
	ReconnectNone ReconnectPolicy = "none"
	// ReconnectAuto rebuilds a fresh session after each session end,
	// pacing attempts with the configured backoff.
	ReconnectAuto ReconnectPolicy = "auto"
)

// ServiceConfig configures a toolkit service.
type ServiceConfig struct {
	// Toolkit names the instance in logs and metrics.
	Toolkit string
	// Config supplies endpoints and the API credential.
	Config config.Config
	// Session tunes each WebSocket session. Its Endpoint, APIKey and
	// Toolkit fields are overwritten from the fields above.
	Session SessionConfig
	// Reconnect defaults to ReconnectNone: connection loss is terminal.
	Reconnect ReconnectPolicy
	// Backoff paces reconnect attempts under ReconnectAuto.
	Backoff BackoffConfig
	// MaxSessions caps sessions under ReconnectAuto; <= 0 means unlimited.
	MaxSessions int
	// OpsListenAddr enables the local ops endpoint when non-empty.
	OpsListenAddr string
	// OpsCORSOrigins restricts browser access to the ops endpoint.
	OpsCORSOrigins []string
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Toolkit:   "toolkit",
		Session:   DefaultSessionConfig(),
		Reconnect: ReconnectNone,
		Backoff:   DefaultBackoffConfig(),
	}
}

// Service owns the action registry and drives sessions according to the
// reconnect policy. Construct with NewService, Register handlers, then
// Run once.
type Service struct {
	cfg       ServiceConfig
	registry  *Registry
	client    *api.Client
	started   atomic.Bool
	session   atomic.Pointer[Session]
	startedAt time.Time
	rng       *rand.Rand
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if strings.TrimSpace(cfg.Toolkit) == "" {
		cfg.Toolkit = "toolkit"
	}
	if cfg.Reconnect == "" {
		cfg.Reconnect = ReconnectNone
	}
	switch cfg.Reconnect {
	case ReconnectNone, ReconnectAuto:
	default:
		return nil, fmt.Errorf("%w: %q", ErrReconnectPolicy, cfg.Reconnect)
	}

	cfg.Config = cfg.Config.WithDefaults()
	if err := cfg.Config.Validate(); err != nil {
		return nil, err
	}
	cfg.Session = cfg.Session.WithDefaults()
	cfg.Session.Endpoint = cfg.Config.Endpoints.BackendWS
	cfg.Session.APIKey = cfg.Config.APIKey
	cfg.Session.Toolkit = cfg.Toolkit

	client, err := api.NewClient(cfg.Config)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:      cfg,
		registry: NewRegistry(),
		client:   client,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Register adds an action. Registration closes once Run starts; late
// registration is an error, never a silent no-op.
func (s *Service) Register(h Handler) error {
	if s.started.Load() {
		name := "<nil>"
		if h != nil {
			name = h.Name()
		}
		return fmt.Errorf("%w: register %q", ErrServiceStarted, name)
	}
	return s.registry.Register(h)
}

// Client returns the shared API client.
func (s *Service) Client() *api.Client {
	return s.client
}

// Registry exposes the action set for introspection.
func (s *Service) Registry() *Registry {
	return s.registry
}

// UpdateInfo publishes the toolkit's display metadata.
func (s *Service) UpdateInfo(ctx context.Context, info api.ToolkitInfo) error {
	return s.client.UpdateInfo(ctx, info)
}

// SessionState reports the current (or last) session's state.
func (s *Service) SessionState() State {
	if sess := s.session.Load(); sess != nil {
		return sess.State()
	}
	return StateConnecting
}

// Uptime reports time since Run started.
func (s *Service) Uptime() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt)
}

// Run drives sessions until ctx is canceled or a session end is
// terminal under the policy. Cancellation returns nil.
func (s *Service) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrServiceStarted
	}
	s.startedAt = time.Now()
	logging.Infof("toolkit.Service.Run starting toolkit=%q actions=%d reconnect=%s", s.cfg.Toolkit, s.registry.Len(), s.cfg.Reconnect)

	if strings.TrimSpace(s.cfg.OpsListenAddr) != "" {
		ops := newOpsServer(s, s.cfg.OpsListenAddr, s.cfg.OpsCORSOrigins)
		go ops.run(ctx)
	}

	attempt := 0
	for {
		attempt++
		sess, err := NewSession(s.cfg.Session, s.registry, s.client)
		if err != nil {
			return err
		}
		s.session.Store(sess)

		err = sess.Run(ctx)
		if ctx.Err() != nil {
			logging.Infof("toolkit.Service.Run stopped toolkit=%q", s.cfg.Toolkit)
			return nil
		}
		if err == nil {
			logging.Infof("toolkit.Service.Run session ended toolkit=%q session=%d", s.cfg.Toolkit, attempt)
		} else {
			logging.Errf("toolkit.Service.Run session failed toolkit=%q session=%d err=%v", s.cfg.Toolkit, attempt, err)
		}

		if s.cfg.Reconnect == ReconnectNone {
			return err
		}
		if s.cfg.MaxSessions > 0 && attempt >= s.cfg.MaxSessions {
			logging.Errf("toolkit.Service.Run giving up toolkit=%q sessions=%d", s.cfg.Toolkit, attempt)
			return err
		}
		if err := s.sleepBackoff(ctx, attempt); err != nil {
			return nil
		}
	}
}

func (s *Service) sleepBackoff(ctx context.Context, attempt int) error {
	delay := NextBackoffDelay(s.cfg.Backoff, attempt, s.rng)
	logging.Warnf("toolkit.Service.Run reconnecting toolkit=%q attempt=%d delay=%s", s.cfg.Toolkit, attempt, delay)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
