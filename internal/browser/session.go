package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// State is a session's lifecycle position
type State string

const (
	StateReady  State = "ready"
	StateClosed State = "closed"
)

// Session is a live handle to one browser, owned by a single scenario. It is
// never shared between scenarios or goroutines.
type Session struct {
	ID   string
	Mode Mode

	ctx      context.Context
	teardown func() error
	logger   arbor.ILogger

	implicitWait    time.Duration
	pageLoadTimeout time.Duration

	closed      atomic.Bool
	releaseOnce sync.Once
}

func newSession(id string, mode Mode, ctx context.Context, teardown func() error, implicitWait, pageLoadTimeout time.Duration, logger arbor.ILogger) *Session {
	return &Session{
		ID:              id,
		Mode:            mode,
		ctx:             ctx,
		teardown:        teardown,
		logger:          logger,
		implicitWait:    implicitWait,
		pageLoadTimeout: pageLoadTimeout,
	}
}

// ImplicitWait is the default bound for element lookups and element actions
func (s *Session) ImplicitWait() time.Duration {
	return s.implicitWait
}

// PageLoadTimeout bounds every navigation
func (s *Session) PageLoadTimeout() time.Duration {
	return s.pageLoadTimeout
}

func (s *Session) State() State {
	if s.closed.Load() {
		return StateClosed
	}
	return StateReady
}

// release terminates the browser once and reports whether this call did so.
// Teardown errors are logged only.
func (s *Session) release() bool {
	released := false
	s.releaseOnce.Do(func() {
		released = true
		s.closed.Store(true)
		if s.teardown == nil {
			return
		}
		if err := s.teardown(); err != nil {
			s.logger.Warn().Err(err).Str("session_id", s.ID).Msg("Browser teardown returned an error")
		}
	})
	return released
}

// run executes actions bounded by timeout
func (s *Session) run(timeout time.Duration, actions ...chromedp.Action) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// Navigate loads url and waits for the load event within the page-load timeout
func (s *Session) Navigate(url string) error {
	if err := s.run(s.pageLoadTimeout, chromedp.Navigate(url)); err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %s did not load within %s", ErrNavigationTimeout, url, s.pageLoadTimeout)
		}
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Reload reloads the current page within the page-load timeout
func (s *Session) Reload() error {
	if err := s.run(s.pageLoadTimeout, chromedp.Reload()); err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: reload did not complete within %s", ErrNavigationTimeout, s.pageLoadTimeout)
		}
		return fmt.Errorf("failed to reload: %w", err)
	}
	return nil
}

// Locate waits up to timeout for the first element matching sel. A zero
// timeout uses the session's implicit wait.
func (s *Session) Locate(sel Selector, timeout time.Duration) (Element, error) {
	if timeout <= 0 {
		timeout = s.implicitWait
	}
	q, by, err := sel.query(false)
	if err != nil {
		return Element{}, err
	}

	var nodes []*cdp.Node
	if err := s.run(timeout, chromedp.Nodes(q, &nodes, by)); err != nil {
		if isTimeout(err) {
			return Element{}, fmt.Errorf("%w: %s within %s", ErrElementNotFound, sel, timeout)
		}
		return Element{}, fmt.Errorf("failed to locate %s: %w", sel, err)
	}
	if len(nodes) == 0 {
		return Element{}, fmt.Errorf("%w: %s", ErrElementNotFound, sel)
	}
	return Element{Selector: sel, NodeID: nodes[0].NodeID}, nil
}

// Count returns how many elements currently match sel, without waiting for any
func (s *Session) Count(sel Selector) (int, error) {
	q, by, err := sel.query(true)
	if err != nil {
		return 0, err
	}
	var nodes []*cdp.Node
	if err := s.run(s.implicitWait, chromedp.Nodes(q, &nodes, by, chromedp.AtLeast(0))); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", sel, err)
	}
	return len(nodes), nil
}

func (s *Session) elementErr(op string, el Element, err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %s not actionable for %s within %s", ErrElementNotFound, el.Selector, op, s.implicitWait)
	}
	return fmt.Errorf("failed to %s %s: %w", op, el.Selector, err)
}

// Clear empties an input element
func (s *Session) Clear(el Element) error {
	if err := s.run(s.implicitWait, chromedp.Clear(el.ids(), chromedp.ByNodeID)); err != nil {
		return s.elementErr("clear", el, err)
	}
	return nil
}

// Type sends keystrokes to the element
func (s *Session) Type(el Element, text string) error {
	if err := s.run(s.implicitWait, chromedp.SendKeys(el.ids(), text, chromedp.ByNodeID)); err != nil {
		return s.elementErr("type into", el, err)
	}
	return nil
}

func (s *Session) Click(el Element) error {
	if err := s.run(s.implicitWait,
		chromedp.WaitVisible(el.ids(), chromedp.ByNodeID),
		chromedp.Click(el.ids(), chromedp.ByNodeID),
	); err != nil {
		return s.elementErr("click", el, err)
	}
	return nil
}

// IsVisible reports whether the element is rendered, waiting up to the implicit
// wait for it to become so
func (s *Session) IsVisible(el Element) (bool, error) {
	err := s.run(s.implicitWait, chromedp.WaitVisible(el.ids(), chromedp.ByNodeID))
	if err == nil {
		return true, nil
	}
	if isTimeout(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check visibility of %s: %w", el.Selector, err)
}

// IsEnabled reports whether the element lacks a disabled attribute
func (s *Session) IsEnabled(el Element) (bool, error) {
	var value string
	var present bool
	if err := s.run(s.implicitWait, chromedp.AttributeValue(el.ids(), "disabled", &value, &present, chromedp.ByNodeID)); err != nil {
		return false, s.elementErr("inspect", el, err)
	}
	return !present, nil
}

// IsSelected reports the live checked state of a radio or checkbox
func (s *Session) IsSelected(el Element) (bool, error) {
	var checked bool
	if err := s.run(s.implicitWait, chromedp.JavascriptAttribute(el.ids(), "checked", &checked, chromedp.ByNodeID)); err != nil {
		return false, s.elementErr("inspect", el, err)
	}
	return checked, nil
}

// Value returns the live value property of a form control
func (s *Session) Value(el Element) (string, error) {
	var value string
	if err := s.run(s.implicitWait, chromedp.Value(el.ids(), &value, chromedp.ByNodeID)); err != nil {
		return "", s.elementErr("read value of", el, err)
	}
	return value, nil
}

// Text returns the visible text of the element
func (s *Session) Text(el Element) (string, error) {
	var text string
	if err := s.run(s.implicitWait, chromedp.Text(el.ids(), &text, chromedp.ByNodeID)); err != nil {
		return "", s.elementErr("read text of", el, err)
	}
	return text, nil
}

// URL returns the current document location
func (s *Session) URL() (string, error) {
	var location string
	if err := s.run(s.implicitWait, chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return location, nil
}

func (s *Session) Title() (string, error) {
	var title string
	if err := s.run(s.implicitWait, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to read title: %w", err)
	}
	return title, nil
}

// PageSource returns the serialized DOM of the current page
func (s *Session) PageSource() (string, error) {
	var html string
	if err := s.run(s.implicitWait, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page source: %w", err)
	}
	return html, nil
}

// Screenshot captures the full page as PNG to path, creating parent directories
func (s *Session) Screenshot(path string) error {
	var buf []byte
	if err := s.run(s.pageLoadTimeout, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("failed to save screenshot: %w", err)
	}
	return nil
}
