package browser

import (
	"fmt"
	"strings"

	"github.com/ternarybob/emsuite/internal/common"
)

// Mode selects how a session's browser is obtained
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// Flag is a single Chrome command-line switch. An empty Value means a bare
// boolean switch.
type Flag struct {
	Name  string
	Value string
}

// String renders the switch as it appears on the command line
func (f Flag) String() string {
	if f.Value == "" {
		return "--" + f.Name
	}
	return "--" + f.Name + "=" + f.Value
}

// LaunchSpec is everything needed to bring up one browser. It is rebuilt for
// every session and never reused.
type LaunchSpec struct {
	Mode       Mode
	Endpoint   string // remote mode only
	Flags      []Flag
	BinaryPath string
	DriverPath string
	Window     common.WindowSize
}

// Args returns the flags in command-line form, in composition order
func (s LaunchSpec) Args() []string {
	args := make([]string, 0, len(s.Flags))
	for _, f := range s.Flags {
		args = append(args, f.String())
	}
	return args
}

// HasFlag reports whether the named switch is present
func (s LaunchSpec) HasFlag(name string) bool {
	for _, f := range s.Flags {
		if f.Name == name {
			return true
		}
	}
	return false
}

// containerFlags are required to run Chrome as an unprivileged container user
var containerFlags = []Flag{
	{Name: "no-sandbox"},
	{Name: "disable-dev-shm-usage"},
	{Name: "disable-gpu"},
	{Name: "disable-extensions"},
	{Name: "disable-blink-features", Value: "AutomationControlled"},
	{Name: "no-first-run"},
	{Name: "no-default-browser-check"},
}

// BuildLaunchSpec derives the launch spec from config. It has no side effects:
// the same config always yields the same spec. A configured remote URL selects
// remote mode; anything else launches locally.
func BuildLaunchSpec(config *common.Config) (LaunchSpec, error) {
	window, err := config.Window()
	if err != nil {
		return LaunchSpec{}, err
	}

	spec := LaunchSpec{
		Mode:       ModeLocal,
		BinaryPath: strings.TrimSpace(config.Browser.BinaryPath),
		DriverPath: strings.TrimSpace(config.Browser.DriverPath),
		Window:     window,
	}

	if remote := strings.TrimSpace(config.Browser.RemoteURL); remote != "" {
		u, err := common.ParseRemoteURL(remote)
		if err != nil {
			return LaunchSpec{}, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
		}
		spec.Mode = ModeRemote
		spec.Endpoint = u.String()
	}

	if config.Browser.Headless {
		spec.Flags = append(spec.Flags, Flag{Name: "headless"})
	}
	spec.Flags = append(spec.Flags, containerFlags...)
	spec.Flags = append(spec.Flags, Flag{
		Name:  "window-size",
		Value: fmt.Sprintf("%d,%d", window.Width, window.Height),
	})

	return spec, nil
}
