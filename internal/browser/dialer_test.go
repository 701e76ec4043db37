package browser

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/emsuite/internal/common"
)

func remoteSpec(endpoint string) LaunchSpec {
	return LaunchSpec{
		Mode:     ModeRemote,
		Endpoint: endpoint,
		Window:   common.WindowSize{Width: 1280, Height: 720},
	}
}

func TestChromeDialer_RemoteAttemptIsBoundedByConnectTimeout(t *testing.T) {
	release := make(chan struct{})
	// Accepts the connection but never answers the DevTools discovery request
	grid := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer grid.Close()
	defer close(release)

	timeout := 300 * time.Millisecond
	start := time.Now()
	_, err := NewChromeDialer(arbor.NewLogger()).Dial(remoteSpec(grid.URL), timeout)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, timeout+2*time.Second)
}

func TestChromeDialer_RefusedRemoteFailsFast(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	endpoint := "http://" + ln.Addr().String()
	require.NoError(t, ln.Close())

	timeout := 5 * time.Second
	start := time.Now()
	_, err = NewChromeDialer(arbor.NewLogger()).Dial(remoteSpec(endpoint), timeout)

	require.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), timeout)
}

func TestChromeDialer_LocalMissingBinary(t *testing.T) {
	spec := LaunchSpec{
		Mode:       ModeLocal,
		BinaryPath: filepath.Join(t.TempDir(), "chrome"),
	}

	_, err := NewChromeDialer(arbor.NewLogger()).Dial(spec, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser binary")
}

func TestChromeDialer_LocalMissingDriver(t *testing.T) {
	spec := LaunchSpec{
		Mode:       ModeLocal,
		DriverPath: filepath.Join(t.TempDir(), "chromedriver"),
	}

	_, err := NewChromeDialer(arbor.NewLogger()).Dial(spec, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver binary")
}
