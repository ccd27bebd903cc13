package simulator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/devicelab-dev/device-doctor/pkg/command"
	"github.com/devicelab-dev/device-doctor/pkg/device"
	"github.com/devicelab-dev/device-doctor/pkg/logger"
	"github.com/devicelab-dev/device-doctor/pkg/retry"
)

// New builds an IOSDevice for a known UDID. List is the usual entry
// point; New exists for callers that already hold simctl metadata.
func New(udid, name string, opts Options) *IOSDevice {
	d := &IOSDevice{
		udid:            udid,
		name:            name,
		kind:            device.KindPhone,
		exe:             opts.Executor,
		bootTimeout:     opts.BootTimeout,
		shutdownTimeout: opts.ShutdownTimeout,
		pollInterval:    opts.PollInterval,
		state:           device.StateNotBooted,
	}
	if d.exe == nil {
		d.exe = command.NewShell(2 * time.Minute)
	}
	if d.bootTimeout == 0 {
		d.bootTimeout = 2 * time.Minute
	}
	if d.shutdownTimeout == 0 {
		d.shutdownTimeout = 30 * time.Second
	}
	if d.pollInterval == 0 {
		d.pollInterval = time.Second
	}
	return d
}

// List enumerates the available simulators from simctl.
func List(ctx context.Context, opts Options) ([]*IOSDevice, error) {
	exe := opts.Executor
	if exe == nil {
		exe = command.NewShell(2 * time.Minute)
	}

	out, err := exe.Run(ctx, "xcrun", "simctl", "list", "devices", "available", "-j")
	if err != nil {
		return nil, fmt.Errorf("failed to list simulators: %w", err)
	}

	var devices []*IOSDevice
	gjson.Parse(out).Get("devices").ForEach(func(runtime, arr gjson.Result) bool {
		osVersion := runtimeVersion(runtime.String())
		arr.ForEach(func(_, dev gjson.Result) bool {
			if !dev.Get("isAvailable").Bool() {
				return true
			}
			d := New(dev.Get("udid").String(), dev.Get("name").String(), opts)
			d.runtime = runtime.String()
			d.osVersion = osVersion
			d.dataPath = dev.Get("dataPath").String()
			d.kind = kindFromIdentifier(dev.Get("deviceTypeIdentifier").String())
			if dev.Get("state").String() == "Booted" {
				d.state = device.StateBooted
			}
			devices = append(devices, d)
			return true
		})
		return true
	})

	logger.Debug("found %d available simulators", len(devices))
	return devices, nil
}

// runtimeVersion extracts the version from a runtime identifier like
// "com.apple.CoreSimulator.SimRuntime.iOS-17-2".
func runtimeVersion(runtime string) string {
	for _, prefix := range []string{"iOS-", "watchOS-", "tvOS-", "xrOS-"} {
		if idx := strings.LastIndex(runtime, prefix); idx != -1 {
			return strings.ReplaceAll(runtime[idx+len(prefix):], "-", ".")
		}
	}
	return ""
}

// kindFromIdentifier maps a device-type identifier to a device kind.
func kindFromIdentifier(id string) device.Kind {
	switch {
	case strings.Contains(id, "iPad"):
		return device.KindTablet
	case strings.Contains(id, "Watch"):
		return device.KindWatch
	case strings.Contains(id, "TV"):
		return device.KindTV
	default:
		return device.KindPhone
	}
}

// simctl runs a simctl subcommand.
func (d *IOSDevice) simctl(ctx context.Context, args ...string) (string, error) {
	return d.exe.Run(ctx, "xcrun", append([]string{"simctl"}, args...)...)
}

// stateIs reports whether simctl currently lists this device in the
// given state.
func (d *IOSDevice) stateIs(ctx context.Context, want string) (bool, error) {
	out, err := d.exe.Run(ctx, "xcrun", "simctl", "list", "devices", "-j")
	if err != nil {
		return false, err
	}

	found := false
	match := false
	gjson.Parse(out).Get("devices").ForEach(func(_, arr gjson.Result) bool {
		arr.ForEach(func(_, dev gjson.Result) bool {
			if dev.Get("udid").String() == d.udid {
				found = true
				match = dev.Get("state").String() == want
				return false
			}
			return true
		})
		return !found
	})
	if !found {
		return false, fmt.Errorf("simulator %s not listed by simctl", d.udid)
	}
	return match, nil
}

// Boot starts the simulator. Simulators have no writable-system concept;
// requesting it is a policy violation, refused before anything runs.
func (d *IOSDevice) Boot(ctx context.Context, opts device.BootOptions) error {
	if d.state == device.StateBooted {
		logger.Debug("simulator %s already booted", d.udid)
		return nil
	}

	if opts.WritableSystem {
		return &device.PolicyError{
			DeviceID: d.udid,
			Op:       "writable-system boot",
			Reason:   "iOS simulators have no writable system partition",
		}
	}

	logger.Info("booting simulator %s (%s)", d.name, d.udid)
	d.state = device.StateBooting

	if _, err := d.simctl(ctx, "boot", d.udid); err != nil {
		if !alreadyInState(err, "Booted") {
			d.state = device.StateNotBooted
			return fmt.Errorf("boot of simulator %s failed: %w", d.udid, err)
		}
		logger.Debug("simulator %s reported already booted", d.udid)
	}

	if !opts.WaitForBoot {
		return nil
	}

	what := fmt.Sprintf("boot of simulator %s", d.udid)
	err := retry.Poll(ctx, what, d.pollInterval, d.bootTimeout, func() (bool, error) {
		return d.stateIs(ctx, "Booted")
	})
	if err != nil {
		d.state = device.StateNotBooted
		return err
	}

	d.state = device.StateBooted
	return nil
}

// Reboot restarts the simulator; on a cold device it degrades to Boot.
func (d *IOSDevice) Reboot(ctx context.Context, wait bool) error {
	if d.state == device.StateNotBooted {
		logger.Debug("reboot of cold simulator %s degrades to boot", d.udid)
		return d.Boot(ctx, device.BootOptions{WaitForBoot: wait})
	}

	d.state = device.StateRebooting
	if err := d.Shutdown(ctx); err != nil {
		d.state = device.StateBooted
		return fmt.Errorf("reboot of simulator %s: %w", d.udid, err)
	}
	return d.Boot(ctx, device.BootOptions{WaitForBoot: wait})
}

// Shutdown stops the simulator. On a cold device the stop command is
// still issued; simctl no-ops safely.
func (d *IOSDevice) Shutdown(ctx context.Context) error {
	cold := d.state == device.StateNotBooted
	if !cold {
		d.state = device.StateShuttingDown
	}

	logger.Info("shutting down simulator %s", d.udid)
	if _, err := d.simctl(ctx, "shutdown", d.udid); err != nil {
		if !alreadyInState(err, "Shutdown") {
			if cold {
				logger.Warn("simctl shutdown for cold %s: %v", d.udid, err)
			} else {
				d.state = device.StateBooted
				return fmt.Errorf("shutdown of simulator %s failed: %w", d.udid, err)
			}
		}
	}

	if cold {
		return nil
	}

	what := fmt.Sprintf("shutdown of simulator %s", d.udid)
	err := retry.Poll(ctx, what, d.pollInterval, d.shutdownTimeout, func() (bool, error) {
		return d.stateIs(ctx, "Shutdown")
	})
	if err != nil {
		d.state = device.StateBooted
		return err
	}

	d.state = device.StateNotBooted
	return nil
}

// alreadyInState matches simctl's "Unable to ... current state: X"
// complaint, which means the device is already where we want it.
func alreadyInState(err error, state string) bool {
	var exitErr *command.ExitError
	if errors.As(err, &exitErr) {
		return strings.Contains(exitErr.Stderr, "current state: "+state)
	}
	return false
}

// OpenURL opens a URL in the simulator's default handler.
func (d *IOSDevice) OpenURL(ctx context.Context, url string) error {
	if _, err := d.simctl(ctx, "openurl", d.udid, url); err != nil {
		return fmt.Errorf("open url on %s: %w", d.udid, err)
	}
	return nil
}

// HasApp reports whether a bundle is installed. simctl exits non-zero
// for an unknown bundle, which is a negative answer, not a failure.
func (d *IOSDevice) HasApp(ctx context.Context, bundleID string) (bool, error) {
	_, err := d.simctl(ctx, "get_app_container", d.udid, bundleID)
	if err != nil {
		var exitErr *command.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, fmt.Errorf("query app on %s: %w", d.udid, err)
	}
	return true, nil
}

// InstallApp installs an .app bundle.
func (d *IOSDevice) InstallApp(ctx context.Context, path string) error {
	if _, err := d.simctl(ctx, "install", d.udid, path); err != nil {
		return fmt.Errorf("install %s on %s: %w", path, d.udid, err)
	}
	return nil
}

// LaunchApp launches a bundle with optional arguments.
func (d *IOSDevice) LaunchApp(ctx context.Context, target string, args ...string) error {
	cmdArgs := append([]string{"launch", d.udid, target}, args...)
	if _, err := d.simctl(ctx, cmdArgs...); err != nil {
		return fmt.Errorf("launch %s on %s: %w", target, d.udid, err)
	}
	return nil
}
