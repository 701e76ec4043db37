package browser

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/emsuite/internal/common"
	"github.com/ternarybob/emsuite/internal/telemetry"
)

// Provisioner creates and destroys sessions. It holds no per-session state, so
// a single instance may serve concurrent scenarios.
type Provisioner struct {
	config *common.Config
	logger arbor.ILogger
	dialer Dialer
	sleep  common.Sleeper
}

// Option customises a Provisioner
type Option func(*Provisioner)

// WithDialer replaces the Chrome dialer
func WithDialer(d Dialer) Option {
	return func(p *Provisioner) { p.dialer = d }
}

// WithSleeper replaces the delay used between remote connection attempts
func WithSleeper(s common.Sleeper) Option {
	return func(p *Provisioner) { p.sleep = s }
}

func NewProvisioner(config *common.Config, logger arbor.ILogger, opts ...Option) *Provisioner {
	p := &Provisioner{
		config: config,
		logger: logger,
		dialer: NewChromeDialer(logger),
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire provisions a fresh session. Local launches are attempted once; remote
// endpoints are retried with a fixed delay to absorb a grid that is still
// starting. The returned session carries the configured implicit wait and
// page-load timeout.
func (p *Provisioner) Acquire(ctx context.Context) (*Session, error) {
	sessionID := uuid.New().String()
	logger := p.logger.WithCorrelationId(sessionID)

	spec, err := BuildLaunchSpec(p.config)
	if err != nil {
		kind := LaunchFailed
		if errors.Is(err, ErrInvalidEndpoint) {
			kind = RemoteUnavailable
		}
		return nil, p.fail(logger, &ProvisionError{Kind: kind, Endpoint: p.config.Browser.RemoteURL, Err: err})
	}

	_, span := telemetry.StartSpan(ctx, "browser.acquire",
		telemetry.AttrSessionID.String(sessionID),
		telemetry.AttrMode.String(string(spec.Mode)),
	)

	logger.Debug().
		Str("mode", string(spec.Mode)).
		Strs("flags", spec.Args()).
		Msg("Provisioning browser session")

	var conn Conn
	attempts := 1
	connectTimeout := p.config.PageLoadTimeout()

	switch spec.Mode {
	case ModeRemote:
		connectTimeout = p.config.RemoteConnectTimeout()
		conn, attempts, err = common.Retry(p.config.Browser.RemoteAttempts, p.config.RemoteDelay(), p.sleep,
			func(attempt int) (Conn, error) {
				telemetry.RecordProvisionAttempt(string(ModeRemote))
				c, err := p.dialer.Dial(spec, connectTimeout)
				if err != nil {
					logger.Debug().Err(err).Int("attempt", attempt).Str("endpoint", spec.Endpoint).Msg("Remote browser not ready")
				}
				return c, err
			})
		if err != nil {
			err = &ProvisionError{Kind: RemoteUnavailable, Mode: spec.Mode, Endpoint: spec.Endpoint, Attempts: attempts, Err: err}
		}
	default:
		telemetry.RecordProvisionAttempt(string(ModeLocal))
		conn, err = p.dialer.Dial(spec, connectTimeout)
		if err != nil {
			err = &ProvisionError{Kind: LaunchFailed, Mode: spec.Mode, Attempts: 1, Err: err}
		}
	}

	span.SetAttributes(telemetry.AttrAttempts.Int(attempts))
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, p.fail(logger, err)
	}

	session := newSession(sessionID, spec.Mode, conn.Ctx, conn.Teardown,
		p.config.ImplicitWait(), p.config.PageLoadTimeout(), logger)

	logger.Info().
		Str("mode", string(spec.Mode)).
		Int("attempts", attempts).
		Dur("implicit_wait", session.ImplicitWait()).
		Dur("page_load_timeout", session.PageLoadTimeout()).
		Msg("Browser session ready")

	return session, nil
}

func (p *Provisioner) fail(logger arbor.ILogger, err error) error {
	var perr *ProvisionError
	if errors.As(err, &perr) {
		telemetry.RecordProvisionFailure(string(perr.Kind))
	}
	logger.Error().Err(err).Msg("Browser session provisioning failed")
	return err
}

// Release closes the session's browser. It is safe to call more than once and
// on a nil session; teardown failures are logged and never returned.
func (p *Provisioner) Release(session *Session) {
	if session == nil || !session.release() {
		return
	}
	telemetry.RecordSessionReleased()
	session.logger.Debug().Msg("Browser session released")
}

// Probe provisions a session, loads url and returns the page title. It backs
// the start-up browser check.
func (p *Provisioner) Probe(ctx context.Context, url string) (string, error) {
	session, err := p.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer p.Release(session)

	if err := session.Navigate(url); err != nil {
		return "", err
	}
	return session.Title()
}
