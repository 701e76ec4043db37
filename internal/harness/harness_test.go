package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/emsuite/internal/browser"
	"github.com/ternarybob/emsuite/internal/common"
	"github.com/ternarybob/emsuite/internal/employees"
	"github.com/ternarybob/emsuite/internal/scenario"
)

// nullPage satisfies scenario.Page; the test scenarios drive it only through
// custom steps
type nullPage struct {
	screenshots []string
}

func (p *nullPage) Navigate(string) error { return nil }
func (p *nullPage) Reload() error         { return nil }
func (p *nullPage) Locate(sel browser.Selector, _ time.Duration) (browser.Element, error) {
	return browser.Element{Selector: sel}, nil
}
func (p *nullPage) Count(browser.Selector) (int, error)      { return 0, nil }
func (p *nullPage) Clear(browser.Element) error              { return nil }
func (p *nullPage) Type(browser.Element, string) error       { return nil }
func (p *nullPage) Click(browser.Element) error              { return nil }
func (p *nullPage) IsVisible(browser.Element) (bool, error)  { return true, nil }
func (p *nullPage) IsEnabled(browser.Element) (bool, error)  { return true, nil }
func (p *nullPage) IsSelected(browser.Element) (bool, error) { return false, nil }
func (p *nullPage) Value(browser.Element) (string, error)    { return "", nil }
func (p *nullPage) Text(browser.Element) (string, error)     { return "", nil }
func (p *nullPage) URL() (string, error)                     { return "", nil }
func (p *nullPage) Title() (string, error)                   { return "", nil }
func (p *nullPage) PageSource() (string, error)              { return "", nil }
func (p *nullPage) Screenshot(path string) error {
	p.screenshots = append(p.screenshots, path)
	return nil
}

// fakeProvider counts leases and fails the acquisitions listed in failOn
// (1-based call numbers)
type fakeProvider struct {
	mu       sync.Mutex
	calls    int
	released int
	failOn   map[int]error
	pages    []*nullPage
}

func (f *fakeProvider) Acquire(ctx context.Context) (*Lease, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.failOn[f.calls]; ok {
		return nil, err
	}
	page := &nullPage{}
	f.pages = append(f.pages, page)
	return &Lease{
		ID:   fmt.Sprintf("session-%d", f.calls),
		Page: page,
		Release: func() {
			f.mu.Lock()
			f.released++
			f.mu.Unlock()
		},
	}, nil
}

func def(name string, steps ...scenario.Step) employees.Definition {
	return employees.Definition{
		Name: name,
		Build: func(employees.Env) scenario.Scenario {
			return scenario.Scenario{Name: name, Steps: steps}
		},
	}
}

func pass() scenario.Step {
	return scenario.NewStep("pass", func(*scenario.Run) error { return nil })
}

func fail(msg string) scenario.Step {
	return scenario.NewStep("fail", func(*scenario.Run) error { return errors.New(msg) })
}

func testConfig(t *testing.T) *common.Config {
	config := common.NewDefaultConfig()
	config.Output.ResultsDir = t.TempDir()
	return config
}

func TestRun_ReleasesEverySession(t *testing.T) {
	provider := &fakeProvider{}
	h := New(testConfig(t), arbor.NewLogger(), provider)

	results, err := h.Run(context.Background(), []employees.Definition{
		def("passes", pass()),
		def("fails", fail("boom")),
		def("panics", scenario.NewStep("panic", func(*scenario.Run) error { panic("unexpected") })),
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)
	assert.False(t, results[2].Passed)
	assert.Equal(t, scenario.KindUnexpected, results[2].FailureKind)
	assert.Equal(t, 3, provider.calls)
	assert.Equal(t, 3, provider.released)
	assert.Equal(t, "session-1", results[0].SessionID)
}

func TestRun_PanickingBuildStillReleases(t *testing.T) {
	provider := &fakeProvider{}
	h := New(testConfig(t), arbor.NewLogger(), provider)

	broken := employees.Definition{Name: "broken", Build: func(employees.Env) scenario.Scenario { panic("bad build") }}
	results, err := h.Run(context.Background(), []employees.Definition{broken})
	require.NoError(t, err)

	assert.False(t, results[0].Passed)
	assert.Contains(t, results[0].FailureReason, "bad build")
	assert.Equal(t, 1, provider.released)
}

func TestRun_ScreenshotOnFailure(t *testing.T) {
	provider := &fakeProvider{}
	config := testConfig(t)
	h := New(config, arbor.NewLogger(), provider)

	results, err := h.Run(context.Background(), []employees.Definition{def("fails", fail("boom")), def("passes", pass())})
	require.NoError(t, err)

	assert.NotEmpty(t, results[0].Screenshot)
	assert.Contains(t, results[0].Screenshot, config.Output.ResultsDir)
	assert.Len(t, provider.pages[0].screenshots, 1)
	assert.Empty(t, provider.pages[1].screenshots)
	assert.Empty(t, results[1].Screenshot)
}

func TestRun_ProvisionFailureIsIsolated(t *testing.T) {
	launchErr := &browser.ProvisionError{Kind: browser.LaunchFailed, Err: errors.New("chrome exited")}
	provider := &fakeProvider{failOn: map[int]error{2: launchErr}}
	h := New(testConfig(t), arbor.NewLogger(), provider)

	results, err := h.Run(context.Background(), []employees.Definition{
		def("first", pass()), def("second", pass()), def("third", pass()),
	})
	require.NoError(t, err)

	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)
	assert.Equal(t, scenario.KindProvisionFailed, results[1].FailureKind)
	assert.True(t, results[2].Passed, "next scenario gets a fresh provisioning attempt")
	assert.Equal(t, 3, provider.calls)
	assert.Equal(t, 2, provider.released)
}

func TestRun_RemoteUnavailableOnFirstScenarioAbortsRun(t *testing.T) {
	remoteErr := &browser.ProvisionError{Kind: browser.RemoteUnavailable, Attempts: 30, Err: errors.New("connection refused")}
	provider := &fakeProvider{failOn: map[int]error{1: remoteErr}}
	h := New(testConfig(t), arbor.NewLogger(), provider)

	results, err := h.Run(context.Background(), []employees.Definition{def("first", pass()), def("second", pass())})
	require.ErrorIs(t, err, ErrRemoteUnavailable)

	assert.Len(t, results, 1)
	assert.False(t, results[0].Passed)
	assert.Equal(t, 1, provider.calls)
}

func TestRun_RemoteUnavailableLaterIsNotFatal(t *testing.T) {
	remoteErr := &browser.ProvisionError{Kind: browser.RemoteUnavailable, Attempts: 30, Err: errors.New("connection refused")}
	provider := &fakeProvider{failOn: map[int]error{2: remoteErr}}
	h := New(testConfig(t), arbor.NewLogger(), provider)

	results, err := h.Run(context.Background(), []employees.Definition{def("first", pass()), def("second", pass()), def("third", pass())})
	require.NoError(t, err)

	assert.Len(t, results, 3)
	assert.False(t, results[1].Passed)
	assert.True(t, results[2].Passed)
}

func TestRun_ParallelRespectsLimitAndSequentialRunsAlone(t *testing.T) {
	config := testConfig(t)
	config.Runner.Parallel = 3
	provider := &fakeProvider{}
	h := New(config, arbor.NewLogger(), provider)

	var active, peak int32
	var sequentialSawOthers atomic.Bool

	track := func(name string) scenario.Step {
		return scenario.NewStep("track "+name, func(*scenario.Run) error {
			n := atomic.AddInt32(&active, 1)
			defer atomic.AddInt32(&active, -1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			return nil
		})
	}

	defs := []employees.Definition{def("first", pass())}
	for i := 0; i < 8; i++ {
		defs = append(defs, def(fmt.Sprintf("parallel-%d", i), track("p")))
	}
	sequential := def("sequential", scenario.NewStep("alone", func(*scenario.Run) error {
		if atomic.LoadInt32(&active) != 0 {
			sequentialSawOthers.Store(true)
		}
		return nil
	}))
	sequential.Sequential = true
	defs = append(defs[:3], append([]employees.Definition{sequential}, defs[3:]...)...)

	results, err := h.Run(context.Background(), defs)
	require.NoError(t, err)

	for i, r := range results {
		assert.True(t, r.Passed, r.FailureReason)
		assert.Equal(t, defs[i].Name, r.Name, "results keep definition order")
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.False(t, sequentialSawOthers.Load())
	assert.Equal(t, len(defs), provider.released)
}

func TestRun_CancelledContextFailsRemaining(t *testing.T) {
	provider := &fakeProvider{}
	h := New(testConfig(t), arbor.NewLogger(), provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := h.Run(ctx, []employees.Definition{def("first", pass()), def("second", pass())})
	require.NoError(t, err)
	assert.False(t, results[0].Passed)
	assert.False(t, results[1].Passed)
	assert.Zero(t, provider.calls)
}
