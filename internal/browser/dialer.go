package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// Conn is an established browser connection
type Conn struct {
	Ctx      context.Context
	Teardown func() error
}

// Dialer brings up the browser described by a LaunchSpec. One call is one
// connection attempt; retrying is the provisioner's job.
type Dialer interface {
	Dial(spec LaunchSpec, connectTimeout time.Duration) (Conn, error)
}

// ChromeDialer launches or attaches to Chrome over the DevTools protocol
type ChromeDialer struct {
	logger arbor.ILogger
}

func NewChromeDialer(logger arbor.ILogger) *ChromeDialer {
	return &ChromeDialer{logger: logger}
}

func (d *ChromeDialer) Dial(spec LaunchSpec, connectTimeout time.Duration) (Conn, error) {
	switch spec.Mode {
	case ModeRemote:
		return d.dialRemote(spec, connectTimeout)
	default:
		return d.launchLocal(spec, connectTimeout)
	}
}

func (d *ChromeDialer) launchLocal(spec LaunchSpec, connectTimeout time.Duration) (Conn, error) {
	if spec.BinaryPath != "" {
		if _, err := os.Stat(spec.BinaryPath); err != nil {
			return Conn{}, fmt.Errorf("browser binary %s: %w", spec.BinaryPath, err)
		}
	}
	if spec.DriverPath != "" {
		// DevTools needs no driver process; the path is only checked so a bad
		// deployment is reported instead of silently ignored
		if _, err := os.Stat(spec.DriverPath); err != nil {
			return Conn{}, fmt.Errorf("driver binary %s: %w", spec.DriverPath, err)
		}
		d.logger.Debug().Str("driver_path", spec.DriverPath).Msg("Driver path not used by DevTools sessions")
	}

	opts := make([]chromedp.ExecAllocatorOption, 0, len(spec.Flags)+1)
	for _, f := range spec.Flags {
		if f.Value == "" {
			opts = append(opts, chromedp.Flag(f.Name, true))
		} else {
			opts = append(opts, chromedp.Flag(f.Name, f.Value))
		}
	}
	if spec.BinaryPath != "" {
		opts = append(opts, chromedp.ExecPath(spec.BinaryPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	if err := startBrowser(browserCtx, cancelBrowser, connectTimeout); err != nil {
		cancelBrowser()
		cancelAlloc()
		return Conn{}, err
	}

	d.logger.Debug().Strs("flags", spec.Args()).Msg("Local browser started")
	return Conn{Ctx: browserCtx, Teardown: closer(browserCtx, cancelBrowser, cancelAlloc)}, nil
}

func (d *ChromeDialer) dialRemote(spec LaunchSpec, connectTimeout time.Duration) (Conn, error) {
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(context.Background(), spec.Endpoint)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Launch flags belong to whoever started the remote browser; only the
	// window size can be applied from here
	if err := startBrowser(browserCtx, cancelBrowser, connectTimeout,
		chromedp.EmulateViewport(int64(spec.Window.Width), int64(spec.Window.Height)),
	); err != nil {
		cancelBrowser()
		cancelAlloc()
		return Conn{}, err
	}

	d.logger.Debug().Str("endpoint", spec.Endpoint).Msg("Attached to remote browser")
	return Conn{Ctx: browserCtx, Teardown: closer(browserCtx, cancelBrowser, cancelAlloc)}, nil
}

// startBrowser runs the first action set, which is what actually allocates the
// browser and opens a target. The attempt is abandoned after timeout.
func startBrowser(ctx context.Context, cancel context.CancelFunc, timeout time.Duration, actions ...chromedp.Action) error {
	timer := time.AfterFunc(timeout, cancel)
	err := chromedp.Run(ctx, actions...)
	if !timer.Stop() {
		return fmt.Errorf("browser not ready within %s: %w", timeout, context.DeadlineExceeded)
	}
	return err
}

// closer closes the browser gracefully, then releases both contexts
func closer(browserCtx context.Context, cancelBrowser, cancelAlloc context.CancelFunc) func() error {
	return func() error {
		err := chromedp.Cancel(browserCtx)
		cancelBrowser()
		cancelAlloc()
		return err
	}
}
