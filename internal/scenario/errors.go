package scenario

import (
	"errors"
	"fmt"

	"github.com/ternarybob/emsuite/internal/browser"
)

// FailureKind classifies why a scenario failed
type FailureKind string

const (
	KindElementNotFound   FailureKind = "element_not_found"
	KindAssertionFailed   FailureKind = "assertion_failed"
	KindNavigationTimeout FailureKind = "navigation_timeout"
	KindProvisionFailed   FailureKind = "provision_failed"
	KindUnexpected        FailureKind = "unexpected"
)

// AssertionError is an expected-versus-actual mismatch
type AssertionError struct {
	Check    string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Check, e.Expected, e.Actual)
}

func assertionf(expected, actual string, format string, args ...interface{}) error {
	return &AssertionError{Check: fmt.Sprintf(format, args...), Expected: expected, Actual: actual}
}

// Failure is the single failure surfaced by a scenario
type Failure struct {
	Kind FailureKind
	Step string
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s at step %q: %v", f.Kind, f.Step, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Classify maps an error raised while running step onto a Failure
func Classify(step string, err error) *Failure {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}

	kind := KindUnexpected
	var assertion *AssertionError
	var provision *browser.ProvisionError
	switch {
	case errors.As(err, &assertion):
		kind = KindAssertionFailed
	case errors.Is(err, browser.ErrElementNotFound):
		kind = KindElementNotFound
	case errors.Is(err, browser.ErrNavigationTimeout):
		kind = KindNavigationTimeout
	case errors.As(err, &provision):
		kind = KindProvisionFailed
	}
	return &Failure{Kind: kind, Step: step, Err: err}
}
