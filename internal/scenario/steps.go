package scenario

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/emsuite/internal/browser"
	"github.com/ternarybob/emsuite/internal/common"
)

// Run is the mutable state of one scenario execution: the page plus the element
// handles and counts captured by earlier steps
type Run struct {
	Page         Page
	ExplicitWait time.Duration
	Settle       time.Duration
	PollInterval time.Duration
	Logger       arbor.ILogger

	elements map[string]browser.Element
	counts   map[string]int
}

func newRun(page Page, explicitWait, settle, pollInterval time.Duration, logger arbor.ILogger) *Run {
	return &Run{
		Page:         page,
		ExplicitWait: explicitWait,
		Settle:       settle,
		PollInterval: pollInterval,
		Logger:       logger,
		elements:     make(map[string]browser.Element),
		counts:       make(map[string]int),
	}
}

// Element returns the handle stored under alias by a Locate step
func (r *Run) Element(alias string) (browser.Element, error) {
	el, ok := r.elements[alias]
	if !ok {
		return browser.Element{}, fmt.Errorf("no element located as %q", alias)
	}
	return el, nil
}

// Step is one interaction or assertion
type Step interface {
	Name() string
	Execute(r *Run) error
}

type step struct {
	name string
	fn   func(r *Run) error
}

func (s step) Name() string { return s.name }

func (s step) Execute(r *Run) error { return s.fn(r) }

// NewStep builds a step from a function
func NewStep(name string, fn func(r *Run) error) Step {
	return step{name: name, fn: fn}
}

func withElement(alias string, fn func(r *Run, el browser.Element) error) func(r *Run) error {
	return func(r *Run) error {
		el, err := r.Element(alias)
		if err != nil {
			return err
		}
		return fn(r, el)
	}
}

func Navigate(url string) Step {
	return NewStep("navigate "+url, func(r *Run) error {
		return r.Page.Navigate(url)
	})
}

func Reload() Step {
	return NewStep("reload", func(r *Run) error {
		return r.Page.Reload()
	})
}

// Locate waits up to the explicit wait for sel and stores the handle as alias
func Locate(alias string, sel browser.Selector) Step {
	return NewStep(fmt.Sprintf("locate %s (%s)", alias, sel), func(r *Run) error {
		el, err := r.Page.Locate(sel, r.ExplicitWait)
		if err != nil {
			return err
		}
		r.elements[alias] = el
		return nil
	})
}

func Clear(alias string) Step {
	return NewStep("clear "+alias, withElement(alias, func(r *Run, el browser.Element) error {
		return r.Page.Clear(el)
	}))
}

func Type(alias, text string) Step {
	return NewStep(fmt.Sprintf("type %q into %s", text, alias), withElement(alias, func(r *Run, el browser.Element) error {
		return r.Page.Type(el, text)
	}))
}

func Click(alias string) Step {
	return NewStep("click "+alias, withElement(alias, func(r *Run, el browser.Element) error {
		return r.Page.Click(el)
	}))
}

func AssertVisible(alias string) Step {
	return NewStep("assert visible "+alias, withElement(alias, func(r *Run, el browser.Element) error {
		visible, err := r.Page.IsVisible(el)
		if err != nil {
			return err
		}
		if !visible {
			return assertionf("visible", "hidden", "%s visibility", alias)
		}
		return nil
	}))
}

func AssertEnabled(alias string) Step {
	return NewStep("assert enabled "+alias, withElement(alias, func(r *Run, el browser.Element) error {
		enabled, err := r.Page.IsEnabled(el)
		if err != nil {
			return err
		}
		if !enabled {
			return assertionf("enabled", "disabled", "%s state", alias)
		}
		return nil
	}))
}

// AssertSelected checks the checked state of a radio or checkbox
func AssertSelected(alias string, want bool) Step {
	return NewStep(fmt.Sprintf("assert %s selected=%t", alias, want), withElement(alias, func(r *Run, el browser.Element) error {
		selected, err := r.Page.IsSelected(el)
		if err != nil {
			return err
		}
		if selected != want {
			return assertionf(strconv.FormatBool(want), strconv.FormatBool(selected), "%s selected", alias)
		}
		return nil
	}))
}

func AssertValue(alias, want string) Step {
	return NewStep(fmt.Sprintf("assert %s value %q", alias, want), withElement(alias, func(r *Run, el browser.Element) error {
		value, err := r.Page.Value(el)
		if err != nil {
			return err
		}
		if value != want {
			return assertionf(strconv.Quote(want), strconv.Quote(value), "%s value", alias)
		}
		return nil
	}))
}

// AssertURLEquals waits up to the explicit wait for the location to equal one of want
func AssertURLEquals(want ...string) Step {
	expected := strings.Join(want, " or ")
	return NewStep("assert url equals "+expected, func(r *Run) error {
		return common.Poll(r.ExplicitWait, r.PollInterval, func() error {
			current, err := r.Page.URL()
			if err != nil {
				return err
			}
			for _, w := range want {
				if current == w {
					return nil
				}
			}
			return assertionf(expected, current, "current url")
		})
	})
}

// AssertURLContains waits up to the explicit wait for the location to contain part
func AssertURLContains(part string) Step {
	return NewStep("assert url contains "+part, func(r *Run) error {
		return common.Poll(r.ExplicitWait, r.PollInterval, func() error {
			current, err := r.Page.URL()
			if err != nil {
				return err
			}
			if !strings.Contains(current, part) {
				return assertionf("url containing "+strconv.Quote(part), current, "current url")
			}
			return nil
		})
	})
}

// Source is a text haystack read from the page
type Source struct {
	Name string
	Read func(r *Run) (string, error)
}

var (
	PageSource = Source{Name: "page source", Read: func(r *Run) (string, error) { return r.Page.PageSource() }}
	PageTitle  = Source{Name: "title", Read: func(r *Run) (string, error) { return r.Page.Title() }}
)

// ElementText reads the visible text of a located element
func ElementText(alias string) Source {
	return Source{Name: alias + " text", Read: func(r *Run) (string, error) {
		el, err := r.Element(alias)
		if err != nil {
			return "", err
		}
		return r.Page.Text(el)
	}}
}

func AssertTextContains(src Source, needle string) Step {
	return NewStep(fmt.Sprintf("assert %s contains %q", src.Name, needle), func(r *Run) error {
		haystack, err := src.Read(r)
		if err != nil {
			return err
		}
		if !strings.Contains(haystack, needle) {
			return assertionf(strconv.Quote(needle)+" present", "absent", "%s", src.Name)
		}
		return nil
	})
}

func AssertTextAbsent(src Source, needle string) Step {
	return NewStep(fmt.Sprintf("assert %s lacks %q", src.Name, needle), func(r *Run) error {
		haystack, err := src.Read(r)
		if err != nil {
			return err
		}
		if strings.Contains(haystack, needle) {
			return assertionf(strconv.Quote(needle)+" absent", "present", "%s", src.Name)
		}
		return nil
	})
}

// AssertAny passes when at least one of steps passes. The last failure is
// reported otherwise.
func AssertAny(steps ...Step) Step {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name()
	}
	return NewStep("any of ["+strings.Join(names, "; ")+"]", func(r *Run) error {
		var lastErr error
		for _, s := range steps {
			if lastErr = s.Execute(r); lastErr == nil {
				return nil
			}
		}
		return lastErr
	})
}

// CountElements records how many elements match sel under key
func CountElements(key string, sel browser.Selector) Step {
	return NewStep(fmt.Sprintf("count %s as %s", sel, key), func(r *Run) error {
		n, err := r.Page.Count(sel)
		if err != nil {
			return err
		}
		r.counts[key] = n
		r.Logger.Debug().Str("key", key).Int("count", n).Msg("Counted elements")
		return nil
	})
}

func AssertCountAtLeast(sel browser.Selector, min int) Step {
	return NewStep(fmt.Sprintf("assert at least %d of %s", min, sel), func(r *Run) error {
		n, err := r.Page.Count(sel)
		if err != nil {
			return err
		}
		if n < min {
			return assertionf(fmt.Sprintf(">= %d", min), strconv.Itoa(n), "count of %s", sel)
		}
		return nil
	})
}

// AssertCountDelta waits up to the settle timeout for the number of elements
// matching sel to equal the count recorded under key plus delta
func AssertCountDelta(key string, sel browser.Selector, delta int) Step {
	return NewStep(fmt.Sprintf("assert count of %s is %s%+d", sel, key, delta), func(r *Run) error {
		before, ok := r.counts[key]
		if !ok {
			return fmt.Errorf("no count recorded as %q", key)
		}
		want := before + delta
		return common.Poll(r.Settle, r.PollInterval, func() error {
			n, err := r.Page.Count(sel)
			if err != nil {
				return err
			}
			if n != want {
				return assertionf(strconv.Itoa(want), strconv.Itoa(n), "count of %s", sel)
			}
			return nil
		})
	})
}

// AssertHeaderTexts parses the page source and checks that the table head
// holds a cell for every wanted text
func AssertHeaderTexts(want ...string) Step {
	return NewStep("assert table headers "+strings.Join(want, ", "), func(r *Run) error {
		source, err := r.Page.PageSource()
		if err != nil {
			return err
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
		if err != nil {
			return fmt.Errorf("failed to parse page source: %w", err)
		}

		var headers []string
		doc.Find("thead th").Each(func(_ int, s *goquery.Selection) {
			headers = append(headers, strings.TrimSpace(s.Text()))
		})

		if len(headers) < len(want) {
			return assertionf(fmt.Sprintf(">= %d headers", len(want)), strconv.Itoa(len(headers)), "table header count")
		}
		for _, w := range want {
			found := false
			for _, h := range headers {
				if h == w {
					found = true
					break
				}
			}
			if !found {
				return assertionf(strconv.Quote(w), strings.Join(headers, ", "), "table headers")
			}
		}
		return nil
	})
}

// Eventually retries inner until it passes or the settle timeout elapses. It
// replaces fixed sleeps after state-changing submissions.
func Eventually(inner Step) Step {
	return NewStep("eventually "+inner.Name(), func(r *Run) error {
		return common.Poll(r.Settle, r.PollInterval, func() error {
			return inner.Execute(r)
		})
	})
}
