package toolkit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danmuck/wisp/api"
	"github.com/danmuck/wisp/internal/logging"
	"github.com/danmuck/wisp/internal/observability"
	"github.com/danmuck/wisp/protocol"
)

// State tracks one session's lifecycle. Transitions only move forward.
type State int32

const (
	StateConnecting State = iota
	StateRegistering
	StateSteady
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRegistering:
		return "registering"
	case StateSteady:
		return "steady"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// SessionConfig tunes one WebSocket session.
type SessionConfig struct {
	// Endpoint is the backend WebSocket URL; the toolkit identity query
	// parameters are appended at dial time.
	Endpoint string
	// APIKey authenticates the toolkit on the dial URL.
	APIKey string
	// Toolkit names this instance in logs and metrics.
	Toolkit string
	// PingInterval is the idle probe period. Any traffic defers the next
	// probe.
	PingInterval time.Duration
	// ConnectTimeout bounds the dial and WebSocket handshake.
	ConnectTimeout time.Duration
	// WriteTimeout bounds one frame or control write.
	WriteTimeout time.Duration
	// TLS applies to wss endpoints. The zero value uses system roots.
	TLS TLSConfig
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		PingInterval:   30 * time.Second,
		ConnectTimeout: 10 * time.Second,
		WriteTimeout:   10 * time.Second,
	}
}

// WithDefaults fills unset durations.
func (c SessionConfig) WithDefaults() SessionConfig {
	def := DefaultSessionConfig()
	if c.PingInterval <= 0 {
		c.PingInterval = def.PingInterval
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if strings.TrimSpace(c.Toolkit) == "" {
		c.Toolkit = "toolkit"
	}
	return c
}

// Session is one connect-register-serve pass against the backend. It
// does not reconnect; Service owns retry policy. Run may be called once.
type Session struct {
	cfg      SessionConfig
	registry *Registry
	api      *api.Client

	conn    *websocket.Conn
	state   atomic.Int32
	results chan protocol.ActionResult
	done    chan struct{}
	once    sync.Once
	used    atomic.Bool
}

// NewSession validates the configuration and builds an idle session.
// client may be nil; handlers then cannot create transactions.
func NewSession(cfg SessionConfig, registry *Registry, client *api.Client) (*Session, error) {
	cfg = cfg.WithDefaults()
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, ErrEndpointRequired
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrAPIKeyRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	return &Session{
		cfg:      cfg,
		registry: registry,
		api:      client,
		results:  make(chan protocol.ActionResult, 16),
		done:     make(chan struct{}),
	}, nil
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Run drives the session to termination: dial, register the action set,
// then serve calls until the peer closes, the transport fails, or ctx is
// canceled. Cancellation returns nil; transport and startup failures
// return the wrapped cause.
func (s *Session) Run(ctx context.Context) error {
	if !s.used.CompareAndSwap(false, true) {
		return ErrSessionReused
	}
	defer s.setState(StateClosed)
	defer s.finish()

	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	s.conn = conn
	defer conn.Close()

	s.setState(StateRegistering)
	if err := s.register(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRegister, err)
	}

	s.setState(StateSteady)
	return s.loop(ctx)
}

func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	target, err := s.dialURL()
	if err != nil {
		return nil, err
	}

	tlsCfg, err := s.cfg.TLS.clientConfig()
	if err != nil {
		return nil, err
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: s.cfg.ConnectTimeout,
		TLSClientConfig:  tlsCfg,
	}
	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(dialCtx, target, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("dial %s: status=%d: %v", s.cfg.Endpoint, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %v", s.cfg.Endpoint, err)
	}
	logging.Infof("toolkit.Session.dial connected toolkit=%q endpoint=%q", s.cfg.Toolkit, s.cfg.Endpoint)

	conn.SetPingHandler(func(payload string) error {
		logging.Debugf("toolkit.Session ping from peer toolkit=%q bytes=%d", s.cfg.Toolkit, len(payload))
		err := conn.WriteControl(websocket.PongMessage, []byte(payload), time.Now().Add(s.cfg.WriteTimeout))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})
	return conn, nil
}

// dialURL appends the toolkit identity parameters to the endpoint.
func (s *Session) dialURL() (string, error) {
	u, err := url.Parse(s.cfg.Endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("type", "toolkit")
	q.Set("api-key", s.cfg.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// register gathers every definition and advertises the set in a single
// frame. Any failure here is fatal for the session.
func (s *Session) register(ctx context.Context) error {
	defs, err := s.registry.Definitions(ctx)
	if err != nil {
		return err
	}
	frame, err := protocol.EncodeRegisterActions(protocol.RegisterActions{Actions: defs})
	if err != nil {
		return err
	}
	if err := s.writeFrame(frame); err != nil {
		return err
	}
	logging.Infof("toolkit.Session.register toolkit=%q actions=%d", s.cfg.Toolkit, len(defs))
	return nil
}

type readResult struct {
	frame []byte
	err   error
}

// readPump is the sole reader of the connection. Control frames are
// handled inside ReadMessage; non-text data frames are dropped.
func (s *Session) readPump(frames chan<- readResult) {
	for {
		msgType, frame, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case frames <- readResult{err: err}:
			case <-s.done:
			}
			return
		}
		if msgType != websocket.TextMessage {
			logging.Debugf("toolkit.Session.readPump drop frame toolkit=%q type=%d", s.cfg.Toolkit, msgType)
			continue
		}
		select {
		case frames <- readResult{frame: frame}:
		case <-s.done:
			return
		}
	}
}

// loop is the dispatch loop: one select over the idle probe timer, the
// handler result channel and inbound frames. It is the only writer of
// data frames on the connection.
func (s *Session) loop(ctx context.Context) error {
	frames := make(chan readResult, 1)
	go s.readPump(frames)

	timer := time.NewTimer(s.cfg.PingInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.setState(StateClosing)
			s.sendClose(websocket.CloseNormalClosure, "shutdown")
			return nil

		case <-timer.C:
			// Probe failures are logged and change nothing; a dead link
			// surfaces as a read error.
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				logging.Errf("toolkit.Session.loop ping failed toolkit=%q err=%v", s.cfg.Toolkit, err)
				observability.RecordProbeFailure(s.cfg.Toolkit)
			}
			timer.Reset(s.cfg.PingInterval)

		case res := <-s.results:
			frame, err := protocol.EncodeActionResult(res)
			if err != nil {
				logging.Errf("toolkit.Session.loop encode result toolkit=%q action=%q err=%v", s.cfg.Toolkit, res.Action, err)
				timer.Reset(s.cfg.PingInterval)
				continue
			}
			if err := s.writeFrame(frame); err != nil {
				s.setState(StateClosing)
				return fmt.Errorf("toolkit: write result: %w", err)
			}
			logging.Debugf("toolkit.Session.loop result sent toolkit=%q action=%q actionID=%d", s.cfg.Toolkit, res.Action, res.ActionID)
			timer.Reset(s.cfg.PingInterval)

		case r := <-frames:
			if r.err != nil {
				s.setState(StateClosing)
				var closeErr *websocket.CloseError
				if errors.As(r.err, &closeErr) {
					logging.Infof("toolkit.Session.loop peer closed toolkit=%q code=%d", s.cfg.Toolkit, closeErr.Code)
					return nil
				}
				return fmt.Errorf("toolkit: read: %w", r.err)
			}
			s.handleFrame(ctx, r.frame)
			timer.Reset(s.cfg.PingInterval)
		}
	}
}

// handleFrame routes one inbound text frame. Anything that does not
// carry a well-formed action call is dropped without ending the session.
func (s *Session) handleFrame(ctx context.Context, frame []byte) {
	env, err := protocol.DecodeEnvelope(frame)
	if err != nil {
		logging.Warnf("toolkit.Session.handleFrame drop toolkit=%q err=%v", s.cfg.Toolkit, err)
		return
	}
	if env.Type != protocol.TypeAction {
		return
	}
	call, err := protocol.DecodeActionCall(env)
	if err != nil {
		logging.Warnf("toolkit.Session.handleFrame drop toolkit=%q err=%v", s.cfg.Toolkit, err)
		return
	}
	s.dispatch(ctx, call)
}

// dispatch runs one call in its own goroutine. In-flight handlers are
// deliberately unbounded; slow actions must bound themselves.
func (s *Session) dispatch(ctx context.Context, call protocol.ActionCall) {
	logging.Infof("toolkit.Session.dispatch toolkit=%q action=%q actionID=%d agentID=%d", s.cfg.Toolkit, call.Action, call.ActionID, call.AgentID)
	observability.HandlerStarted(s.cfg.Toolkit)

	go func() {
		defer observability.HandlerFinished(s.cfg.Toolkit)

		start := time.Now()
		res, outcome := s.invoke(ctx, call)
		observability.RecordActionCall(s.cfg.Toolkit, call.Action, outcome, time.Since(start))
		if outcome == observability.OutcomeUnknown {
			// Unknown actions get no reply; remote callers depend on the
			// absence of a result, not an error result.
			return
		}

		select {
		case s.results <- res:
		case <-s.done:
			logging.Warnf("toolkit.Session.dispatch result dropped toolkit=%q action=%q actionID=%d", s.cfg.Toolkit, call.Action, call.ActionID)
		}
	}()
}

func (s *Session) invoke(ctx context.Context, callMsg protocol.ActionCall) (protocol.ActionResult, string) {
	handler, err := s.registry.Resolve(callMsg.Action)
	if err != nil {
		logging.Warnf("toolkit.Session.invoke unknown action toolkit=%q action=%q actionID=%d", s.cfg.Toolkit, callMsg.Action, callMsg.ActionID)
		return protocol.ActionResult{}, observability.OutcomeUnknown
	}

	call := &Call{
		Action:   callMsg.Action,
		ActionID: callMsg.ActionID,
		AgentID:  callMsg.AgentID,
		api:      s.api,
	}
	raw, err := handler.Call(ctx, call, RawParams{Payload: callMsg.Payload, Payment: callMsg.Payment})
	if err != nil {
		logging.Warnf("toolkit.Session.invoke toolkit=%q action=%q actionID=%d err=%v", s.cfg.Toolkit, callMsg.Action, callMsg.ActionID, err)
		return errorResult(callMsg), outcomeFor(err)
	}

	return protocol.ActionResult{
		Action:   callMsg.Action,
		ActionID: callMsg.ActionID,
		AgentID:  callMsg.AgentID,
		Payload:  raw.Payload,
		Payment:  raw.Payment,
	}, observability.OutcomeOK
}

func outcomeFor(err error) string {
	var (
		decodeErr *DecodeError
		encodeErr *EncodeError
	)
	switch {
	case errors.As(err, &decodeErr):
		return observability.OutcomeDecodeError
	case errors.As(err, &encodeErr):
		return observability.OutcomeEncodeError
	default:
		return observability.OutcomeHandlerError
	}
}

func (s *Session) writeFrame(frame []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

func (s *Session) sendClose(code int, reason string) {
	deadline := time.Now().Add(s.cfg.WriteTimeout)
	msg := websocket.FormatCloseMessage(code, reason)
	if err := s.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		logging.Debugf("toolkit.Session.sendClose toolkit=%q err=%v", s.cfg.Toolkit, err)
	}
}

func (s *Session) setState(next State) {
	prev := State(s.state.Swap(int32(next)))
	if prev != next {
		logging.Debugf("toolkit.Session state toolkit=%q %s -> %s", s.cfg.Toolkit, prev, next)
	}
}

func (s *Session) finish() {
	s.once.Do(func() { close(s.done) })
}
