package scenario

import (
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/emsuite/internal/common"
)

// DefaultPollInterval is how often polled assertions re-check the page
const DefaultPollInterval = 250 * time.Millisecond

// Scenario is one test case: an ordered list of steps run against a single page
type Scenario struct {
	Name  string
	Steps []Step
}

// Result is the outcome of one scenario
type Result struct {
	Name          string        `json:"name"`
	Passed        bool          `json:"passed"`
	FailureReason string        `json:"failure_reason,omitempty"`
	FailureKind   FailureKind   `json:"failure_kind,omitempty"`
	FailedStep    string        `json:"failed_step,omitempty"`
	Expected      string        `json:"expected,omitempty"`
	Actual        string        `json:"actual,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	Elapsed       time.Duration `json:"elapsed"`
	SessionID     string        `json:"session_id,omitempty"`
	Screenshot    string        `json:"screenshot,omitempty"`
}

// Failed builds the result of a scenario that failed with err at step
func Failed(name, step string, err error, startedAt time.Time) Result {
	result := Result{Name: name, StartedAt: startedAt, Elapsed: time.Since(startedAt)}
	result.fail(Classify(step, err))
	return result
}

func (r *Result) fail(f *Failure) {
	r.Passed = false
	r.FailureKind = f.Kind
	r.FailedStep = f.Step
	r.FailureReason = f.Error()
	var a *AssertionError
	if errors.As(f.Err, &a) {
		r.Expected = a.Expected
		r.Actual = a.Actual
	}
}

// Executor runs scenarios against a page, stopping at the first failed step
type Executor struct {
	explicitWait time.Duration
	settle       time.Duration
	pollInterval time.Duration
	logger       arbor.ILogger
}

func NewExecutor(config *common.Config, logger arbor.ILogger) *Executor {
	return &Executor{
		explicitWait: config.ExplicitWait(),
		settle:       config.SettleTimeout(),
		pollInterval: DefaultPollInterval,
		logger:       logger,
	}
}

// WithPollInterval returns a copy of the executor polling at interval
func (e *Executor) WithPollInterval(interval time.Duration) *Executor {
	clone := *e
	clone.pollInterval = interval
	return &clone
}

// Run executes every step in order. The first failing step ends the scenario
// and is the only failure reported. Panics inside steps are reported as
// unexpected failures.
func (e *Executor) Run(page Page, sc Scenario) Result {
	logger := e.logger.WithCorrelationId(sc.Name)
	run := newRun(page, e.explicitWait, e.settle, e.pollInterval, logger)
	result := Result{Name: sc.Name, Passed: true, StartedAt: time.Now()}

	for i, s := range sc.Steps {
		label := fmt.Sprintf("%d: %s", i+1, s.Name())
		logger.Debug().Str("step", label).Msg("Executing step")

		if err := execute(s, run); err != nil {
			result.fail(Classify(label, err))
			logger.Warn().
				Str("step", label).
				Str("kind", string(result.FailureKind)).
				Err(err).
				Msg("Scenario step failed")
			break
		}
	}

	result.Elapsed = time.Since(result.StartedAt)
	return result
}

func execute(s Step, run *Run) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Execute(run)
}
