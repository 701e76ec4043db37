package harness

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/emsuite/internal/browser"
	"github.com/ternarybob/emsuite/internal/common"
	"github.com/ternarybob/emsuite/internal/employees"
	"github.com/ternarybob/emsuite/internal/scenario"
	"github.com/ternarybob/emsuite/internal/telemetry"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrRemoteUnavailable aborts a run whose very first scenario could not reach
// the remote browser endpoint
var ErrRemoteUnavailable = errors.New("remote browser endpoint unavailable")

// Lease is one provisioned session, exclusive to a scenario until released
type Lease struct {
	ID      string
	Page    scenario.Page
	Release func()
}

// Provider hands out fresh sessions
type Provider interface {
	Acquire(ctx context.Context) (*Lease, error)
}

type provisionerProvider struct {
	provisioner *browser.Provisioner
}

// FromProvisioner adapts a browser provisioner into a Provider
func FromProvisioner(p *browser.Provisioner) Provider {
	return &provisionerProvider{provisioner: p}
}

func (pp *provisionerProvider) Acquire(ctx context.Context) (*Lease, error) {
	session, err := pp.provisioner.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Lease{
		ID:      session.ID,
		Page:    session,
		Release: func() { pp.provisioner.Release(session) },
	}, nil
}

// Harness runs scenarios, each on its own session
type Harness struct {
	config   *common.Config
	logger   arbor.ILogger
	provider Provider
	executor *scenario.Executor
	limiter  *rate.Limiter
	now      func() time.Time

	RunID string
}

// Option customises a Harness
type Option func(*Harness)

// WithExecutor replaces the scenario executor
func WithExecutor(e *scenario.Executor) Option {
	return func(h *Harness) { h.executor = e }
}

// WithClock replaces the clock used to stamp created names
func WithClock(now func() time.Time) Option {
	return func(h *Harness) { h.now = now }
}

func New(config *common.Config, logger arbor.ILogger, provider Provider, opts ...Option) *Harness {
	runID := uuid.New().String()
	h := &Harness{
		config:   config,
		logger:   logger.WithCorrelationId(runID),
		provider: provider,
		executor: scenario.NewExecutor(config, logger),
		now:      time.Now,
		RunID:    runID,
	}
	if rps := config.Runner.SessionsPerSecond; rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes defs and returns one result per definition, in definition
// order. Scenario failures are reported in the results, never as an error.
// The only error is ErrRemoteUnavailable, raised when the first scenario
// cannot reach the remote endpoint; the run stops there.
func (h *Harness) Run(ctx context.Context, defs []employees.Definition) ([]scenario.Result, error) {
	results := make([]scenario.Result, len(defs))
	if len(defs) == 0 {
		return results, nil
	}

	h.logger.Info().
		Int("scenarios", len(defs)).
		Int("parallel", h.config.Runner.Parallel).
		Msg("Starting scenario run")

	// The first scenario always runs alone so an unusable grid is detected once
	var err error
	results[0], err = h.runScenario(ctx, defs[0])
	if err != nil && browser.IsRemoteUnavailable(err) {
		h.logger.Error().Err(err).Msg("Remote browser endpoint never became reachable, aborting run")
		return results[:1], fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	rest := make([]int, 0, len(defs)-1)
	for i := 1; i < len(defs); i++ {
		rest = append(rest, i)
	}

	if h.config.Runner.Parallel <= 1 {
		for _, i := range rest {
			results[i], _ = h.runScenario(ctx, defs[i])
		}
		return results, nil
	}

	var concurrent, sequential []int
	for _, i := range rest {
		if defs[i].Sequential {
			sequential = append(sequential, i)
		} else {
			concurrent = append(concurrent, i)
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(h.config.Runner.Parallel)
	var mu sync.Mutex
	for _, i := range concurrent {
		g.Go(func() error {
			result, _ := h.runScenario(ctx, defs[i])
			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, i := range sequential {
		results[i], _ = h.runScenario(ctx, defs[i])
	}
	return results, nil
}

// runScenario acquires a session, runs one scenario and releases the session on
// every path. The provisioning error, if any, is returned alongside the failed
// result so Run can decide whether it is fatal.
func (h *Harness) runScenario(ctx context.Context, def employees.Definition) (scenario.Result, error) {
	started := time.Now()
	logger := h.logger.WithCorrelationId(def.Name)

	spanCtx, span := telemetry.StartSpan(ctx, "scenario.run", telemetry.AttrScenario.String(def.Name))

	result, provisionErr := h.execute(spanCtx, def, logger, started)
	result.StartedAt = started
	result.Elapsed = time.Since(started)

	span.SetAttributes(telemetry.AttrPassed.Bool(result.Passed))
	if !result.Passed {
		telemetry.EndSpan(span, errors.New(result.FailureReason))
	} else {
		telemetry.EndSpan(span, nil)
	}
	telemetry.RecordScenario(def.Name, result.Passed, result.Elapsed)

	if result.Passed {
		logger.Info().
			Str("scenario", def.Name).
			Dur("elapsed", result.Elapsed).
			Msg("Scenario passed")
	} else {
		logger.Warn().
			Str("scenario", def.Name).
			Str("kind", string(result.FailureKind)).
			Str("failure", result.FailureReason).
			Dur("elapsed", result.Elapsed).
			Msg("Scenario failed")
	}

	return result, provisionErr
}

func (h *Harness) execute(ctx context.Context, def employees.Definition, logger arbor.ILogger, started time.Time) (result scenario.Result, provisionErr error) {
	if err := ctx.Err(); err != nil {
		return scenario.Failed(def.Name, "start", err, started), nil
	}
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return scenario.Failed(def.Name, "wait for session slot", err, started), nil
		}
	}

	lease, err := h.provider.Acquire(ctx)
	if err != nil {
		return scenario.Failed(def.Name, "acquire session", err, started), err
	}
	defer lease.Release()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("panic", fmt.Sprintf("%v", r)).Str("stack", common.GetStackTrace()).Msg("Scenario panicked")
			result = scenario.Failed(def.Name, "build", fmt.Errorf("panic: %v", r), started)
		}
	}()

	sc := def.Build(employees.NewEnv(h.config, h.now()))
	result = h.executor.Run(lease.Page, sc)
	result.SessionID = lease.ID

	if !result.Passed && h.config.Output.ScreenshotsOnFailure {
		path := h.screenshotPath(def.Name)
		if err := lease.Page.Screenshot(path); err != nil {
			logger.Warn().Err(err).Msg("Failed to capture failure screenshot")
		} else {
			result.Screenshot = path
		}
	}
	return result, nil
}

func (h *Harness) screenshotPath(name string) string {
	stamp := time.Now().Format("2006-01-02_15-04-05")
	file := fmt.Sprintf("%s-%s.png", strings.ReplaceAll(name, " ", "_"), stamp)
	return filepath.Join(h.config.Output.ResultsDir, "screenshots", file)
}
