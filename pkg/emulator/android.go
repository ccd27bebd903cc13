package emulator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/devicelab-dev/device-doctor/pkg/device"
	"github.com/devicelab-dev/device-doctor/pkg/logger"
	"github.com/devicelab-dev/device-doctor/pkg/retry"
	"github.com/devicelab-dev/device-doctor/pkg/sdk"
)

// Serial returns the adb serial for the active session, or "" when not
// booted.
func (d *AndroidDevice) Serial() string {
	if d.consolePort == 0 {
		return ""
	}
	return "emulator-" + strconv.Itoa(d.consolePort)
}

// adb runs an adb command against the active session.
func (d *AndroidDevice) adb(ctx context.Context, args ...string) (string, error) {
	cmdArgs := make([]string, 0, len(args)+2)
	if serial := d.Serial(); serial != "" {
		cmdArgs = append(cmdArgs, "-s", serial)
	}
	cmdArgs = append(cmdArgs, args...)
	return d.exe.Run(ctx, d.adbPath, cmdArgs...)
}

// Boot starts the emulator. A writable-system boot on a store-certified
// image is refused by policy before any process is spawned.
func (d *AndroidDevice) Boot(ctx context.Context, opts device.BootOptions) error {
	if d.state == device.StateBooted {
		logger.Debug("emulator %s already booted", d.avdName)
		return nil
	}

	if opts.WritableSystem && d.playStore {
		return &device.PolicyError{
			DeviceID: d.avdName,
			Op:       "writable-system boot",
			Reason:   "store-certified images lock the system partition",
		}
	}

	binary, err := sdk.EmulatorPath()
	if err != nil {
		return err
	}

	port := d.port
	args := []string{
		"-avd", d.avdName,
		"-port", strconv.Itoa(port),
		"-netdelay", "none",
		"-netspeed", "full",
		"-no-boot-anim",
		"-no-snapshot-load",
	}
	if opts.WritableSystem {
		args = append(args, "-writable-system")
	}

	logger.Info("booting emulator %s on port %d", d.avdName, port)
	d.state = device.StateBooting
	d.consolePort = port

	if err := d.spawn(ctx, binary, args...); err != nil {
		d.consolePort = 0
		d.state = device.StateNotBooted
		return fmt.Errorf("boot of %s failed: %w", d.avdName, err)
	}

	if !opts.WaitForBoot {
		return nil
	}

	if err := d.waitForBoot(ctx); err != nil {
		// Best-effort stop of the half-booted process before reporting.
		if _, stopErr := d.adb(ctx, "emu", "kill"); stopErr != nil {
			logger.Warn("stop after failed boot of %s: %v", d.avdName, stopErr)
		}
		d.consolePort = 0
		d.state = device.StateNotBooted
		return err
	}

	d.state = device.StateBooted
	logger.Info("emulator %s booted (%s)", d.avdName, d.Serial())
	return nil
}

// waitForBoot polls the 3-stage readiness check until the deadline.
func (d *AndroidDevice) waitForBoot(ctx context.Context) error {
	what := fmt.Sprintf("boot of %s", d.avdName)
	return retry.Poll(ctx, what, d.pollInterval, d.bootTimeout, func() (bool, error) {
		return d.bootReady(ctx)
	})
}

// bootReady checks device state, the boot-completed property, and package
// manager readiness. Stages mirror what the emulator reports during a
// cold boot, in order.
func (d *AndroidDevice) bootReady(ctx context.Context) (bool, error) {
	out, err := d.adb(ctx, "get-state")
	if err != nil || strings.TrimSpace(out) != "device" {
		return false, err
	}

	out, err = d.adb(ctx, "shell", "getprop", "sys.boot_completed")
	if err != nil || strings.TrimSpace(out) != "1" {
		return false, err
	}

	if _, err := d.adb(ctx, "shell", "pm", "get-max-users"); err != nil {
		return false, nil
	}
	return true, nil
}

// Reboot restarts a booted emulator. On a cold device it degrades to
// Boot: there is no distinct reboot for a device that is not running, and
// the call is always safe.
func (d *AndroidDevice) Reboot(ctx context.Context, wait bool) error {
	if d.state == device.StateNotBooted || d.consolePort == 0 {
		logger.Debug("reboot of cold emulator %s degrades to boot", d.avdName)
		return d.Boot(ctx, device.BootOptions{WaitForBoot: wait})
	}

	logger.Info("rebooting emulator %s", d.Serial())
	d.state = device.StateRebooting
	if _, err := d.adb(ctx, "reboot"); err != nil {
		d.state = device.StateBooted
		return fmt.Errorf("reboot of %s failed: %w", d.avdName, err)
	}

	if !wait {
		return nil
	}
	if err := d.waitForBoot(ctx); err != nil {
		return err
	}
	d.state = device.StateBooted
	return nil
}

// Shutdown stops the emulator. On a cold device the stop command is still
// issued best-effort; the tool no-ops safely.
func (d *AndroidDevice) Shutdown(ctx context.Context) error {
	cold := d.consolePort == 0
	if cold {
		// No session handle; address the configured port so the external
		// tool can no-op.
		d.consolePort = d.port
		defer func() { d.consolePort = 0 }()
	} else {
		d.state = device.StateShuttingDown
	}

	logger.Info("shutting down emulator %s", d.Serial())
	if _, err := d.adb(ctx, "emu", "kill"); err != nil {
		logger.Warn("adb emu kill for %s: %v", d.Serial(), err)
	}

	if cold {
		return nil
	}

	what := fmt.Sprintf("shutdown of %s", d.avdName)
	gone := func() (bool, error) {
		// The serial disappearing from adb confirms shutdown.
		if _, err := d.adb(ctx, "get-state"); err != nil {
			return true, nil
		}
		return false, nil
	}
	if err := retry.Poll(ctx, what, d.pollInterval, d.shutdownTimeout, gone); err != nil {
		// The console channel did not take; power off through the OS.
		logger.Warn("emu kill did not stop %s, forcing power off", d.Serial())
		if _, killErr := d.adb(ctx, "shell", "reboot", "-p"); killErr != nil {
			logger.Warn("force power off for %s: %v", d.Serial(), killErr)
		}
		if err := retry.Poll(ctx, what, d.pollInterval, d.shutdownTimeout, gone); err != nil {
			d.state = device.StateBooted
			return fmt.Errorf("shutdown of %s did not complete: %w", d.avdName, err)
		}
	}

	d.consolePort = 0
	d.state = device.StateNotBooted
	return nil
}

// OpenURL opens a URL in the device's default handler.
func (d *AndroidDevice) OpenURL(ctx context.Context, url string) error {
	if _, err := d.adb(ctx, "shell", "am", "start", "-a", "android.intent.action.VIEW", "-d", url); err != nil {
		return fmt.Errorf("open url on %s: %w", d.avdName, err)
	}
	return nil
}

// HasApp reports whether a package is installed.
func (d *AndroidDevice) HasApp(ctx context.Context, bundleID string) (bool, error) {
	out, err := d.adb(ctx, "shell", "pm", "list", "packages", bundleID)
	if err != nil {
		return false, fmt.Errorf("query packages on %s: %w", d.avdName, err)
	}
	return strings.Contains(out, "package:"+bundleID), nil
}

// InstallApp installs an APK, replacing an existing install and granting
// runtime permissions.
func (d *AndroidDevice) InstallApp(ctx context.Context, path string) error {
	if _, err := d.adb(ctx, "install", "-r", "-g", path); err != nil {
		return fmt.Errorf("install %s on %s: %w", path, d.avdName, err)
	}
	return nil
}

// LaunchApp launches an app by package name, or by explicit
// package/activity component when the target contains "/".
func (d *AndroidDevice) LaunchApp(ctx context.Context, target string, args ...string) error {
	var cmdArgs []string
	if strings.Contains(target, "/") {
		cmdArgs = append([]string{"shell", "am", "start", "-n", target}, args...)
	} else {
		cmdArgs = []string{"shell", "monkey", "-p", target, "-c", "android.intent.category.LAUNCHER", "1"}
	}
	if _, err := d.adb(ctx, cmdArgs...); err != nil {
		return fmt.Errorf("launch %s on %s: %w", target, d.avdName, err)
	}
	return nil
}
