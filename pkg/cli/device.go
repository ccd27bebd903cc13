package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/device-doctor/pkg/command"
	"github.com/devicelab-dev/device-doctor/pkg/config"
	"github.com/devicelab-dev/device-doctor/pkg/device"
	"github.com/devicelab-dev/device-doctor/pkg/emulator"
	"github.com/devicelab-dev/device-doctor/pkg/logger"
	"github.com/devicelab-dev/device-doctor/pkg/simulator"
)

var devicesCommand = &cli.Command{
	Name:  "devices",
	Usage: "List the virtual devices defined on this machine",
	Description: `List Android virtual devices and available iOS simulators.

Examples:
  device-doctor devices
  device-doctor -p ios devices`,
	Action: runDevices,
}

var bootCommand = &cli.Command{
	Name:      "boot",
	Usage:     "Boot a virtual device",
	ArgsUsage: "<device-id-or-name>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-wait",
			Usage: "Return without waiting for the device to finish booting",
		},
		&cli.BoolFlag{
			Name:  "writable-system",
			Usage: "Boot with a writable system partition (Android, non-store images)",
		},
	},
	Action: runBoot,
}

var rebootCommand = &cli.Command{
	Name:      "reboot",
	Usage:     "Reboot a virtual device (boots it when not running)",
	ArgsUsage: "<device-id-or-name>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-wait",
			Usage: "Return without waiting for the device to come back",
		},
	},
	Action: runReboot,
}

var shutdownCommand = &cli.Command{
	Name:      "shutdown",
	Usage:     "Shut down a virtual device",
	ArgsUsage: "<device-id-or-name>",
	Action:    runShutdown,
}

var openURLCommand = &cli.Command{
	Name:      "open-url",
	Usage:     "Open a URL on a booted device",
	ArgsUsage: "<device-id-or-name> <url>",
	Action:    runOpenURL,
}

var installAppCommand = &cli.Command{
	Name:      "install-app",
	Usage:     "Install an app binary on a booted device",
	ArgsUsage: "<device-id-or-name> <apk-or-app-path>",
	Action:    runInstallApp,
}

var launchAppCommand = &cli.Command{
	Name:      "launch-app",
	Usage:     "Launch an app on a booted device",
	ArgsUsage: "<device-id-or-name> <package-or-bundle-id> [args...]",
	Action:    runLaunchApp,
}

// deviceEnv bundles what every device command needs after setup.
type deviceEnv struct {
	cfg      *config.Config
	platform string
	exe      command.Executor
}

func deviceSetup(c *cli.Context) (*deviceEnv, error) {
	cfg, err := setup(c)
	if err != nil {
		return nil, err
	}
	platform, err := resolvePlatform(c, cfg)
	if err != nil {
		return nil, err
	}
	return &deviceEnv{
		cfg:      cfg,
		platform: platform,
		exe:      command.NewShell(cfg.CommandTimeout()),
	}, nil
}

func (e *deviceEnv) emulatorOptions() emulator.Options {
	return emulator.Options{
		Executor:        e.exe,
		BootTimeout:     e.cfg.BootTimeout(),
		ShutdownTimeout: e.cfg.ShutdownTimeout(),
		PollInterval:    e.cfg.PollInterval(),
	}
}

func (e *deviceEnv) simulatorOptions() simulator.Options {
	return simulator.Options{
		Executor:        e.exe,
		BootTimeout:     e.cfg.BootTimeout(),
		ShutdownTimeout: e.cfg.ShutdownTimeout(),
		PollInterval:    e.cfg.PollInterval(),
	}
}

// listDevices enumerates devices for the selected platform, or both
// when no platform is set. A platform whose toolchain is missing
// contributes nothing instead of failing the other one.
func (e *deviceEnv) listDevices(ctx context.Context) ([]device.Device, error) {
	var out []device.Device

	if e.platform == "" || e.platform == "android" {
		avds, err := emulator.List(ctx, e.emulatorOptions())
		if err != nil {
			if e.platform == "android" {
				return nil, err
			}
			logger.Debug("skipping Android devices: %v", err)
		}
		for _, d := range avds {
			out = append(out, d)
		}
	}

	if e.platform == "" || e.platform == "ios" {
		sims, err := simulator.List(ctx, e.simulatorOptions())
		if err != nil {
			if e.platform == "ios" {
				return nil, err
			}
			logger.Debug("skipping iOS simulators: %v", err)
		}
		for _, d := range sims {
			out = append(out, d)
		}
	}

	return out, nil
}

// findDevice resolves a device by ID first, then by display name.
func (e *deviceEnv) findDevice(ctx context.Context, target string) (device.Device, error) {
	devices, err := e.listDevices(ctx)
	if err != nil {
		return nil, err
	}

	for _, d := range devices {
		if d.ID() == target {
			return d, nil
		}
	}
	for _, d := range devices {
		if strings.EqualFold(d.Name(), target) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no device %q found (run: device-doctor devices)", target)
}

func runDevices(c *cli.Context) error {
	env, err := deviceSetup(c)
	if err != nil {
		return err
	}
	defer logger.Close()

	devices, err := env.listDevices(c.Context)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No virtual devices found.")
		return nil
	}

	fmt.Printf("%-40s %-8s %-8s %-10s %s\n", "ID", "OS", "Version", "Kind", "State")
	for _, d := range devices {
		fmt.Printf("%-40s %-8s %-8s %-10s %s\n",
			d.ID(), d.OS(), d.OSVersion(), d.Kind(), d.State())
	}
	return nil
}

// targetArg returns the required device argument.
func targetArg(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", fmt.Errorf("a device ID or name is required")
	}
	return c.Args().First(), nil
}

func runBoot(c *cli.Context) error {
	env, err := deviceSetup(c)
	if err != nil {
		return err
	}
	defer logger.Close()

	target, err := targetArg(c)
	if err != nil {
		return err
	}
	d, err := env.findDevice(c.Context, target)
	if err != nil {
		return err
	}

	opts := device.BootOptions{
		WaitForBoot:    !c.Bool("no-wait"),
		WritableSystem: c.Bool("writable-system"),
	}
	if err := d.Boot(c.Context, opts); err != nil {
		return err
	}

	fmt.Printf("Booted %s (%s)\n", d.Name(), d.ID())
	return nil
}

func runReboot(c *cli.Context) error {
	env, err := deviceSetup(c)
	if err != nil {
		return err
	}
	defer logger.Close()

	target, err := targetArg(c)
	if err != nil {
		return err
	}
	d, err := env.findDevice(c.Context, target)
	if err != nil {
		return err
	}

	if err := d.Reboot(c.Context, !c.Bool("no-wait")); err != nil {
		return err
	}
	fmt.Printf("Rebooted %s (%s)\n", d.Name(), d.ID())
	return nil
}

func runShutdown(c *cli.Context) error {
	env, err := deviceSetup(c)
	if err != nil {
		return err
	}
	defer logger.Close()

	target, err := targetArg(c)
	if err != nil {
		return err
	}
	d, err := env.findDevice(c.Context, target)
	if err != nil {
		return err
	}

	if err := d.Shutdown(c.Context); err != nil {
		return err
	}
	fmt.Printf("Shut down %s (%s)\n", d.Name(), d.ID())
	return nil
}

func runOpenURL(c *cli.Context) error {
	env, err := deviceSetup(c)
	if err != nil {
		return err
	}
	defer logger.Close()

	if c.NArg() < 2 {
		return fmt.Errorf("usage: open-url <device> <url>")
	}
	d, err := env.findDevice(c.Context, c.Args().Get(0))
	if err != nil {
		return err
	}
	return d.OpenURL(c.Context, c.Args().Get(1))
}

func runInstallApp(c *cli.Context) error {
	env, err := deviceSetup(c)
	if err != nil {
		return err
	}
	defer logger.Close()

	if c.NArg() < 2 {
		return fmt.Errorf("usage: install-app <device> <apk-or-app-path>")
	}
	d, err := env.findDevice(c.Context, c.Args().Get(0))
	if err != nil {
		return err
	}
	path := c.Args().Get(1)
	if err := d.InstallApp(c.Context, path); err != nil {
		return err
	}
	fmt.Printf("Installed %s on %s\n", path, d.ID())
	return nil
}

func runLaunchApp(c *cli.Context) error {
	env, err := deviceSetup(c)
	if err != nil {
		return err
	}
	defer logger.Close()

	if c.NArg() < 2 {
		return fmt.Errorf("usage: launch-app <device> <package-or-bundle-id> [args...]")
	}
	d, err := env.findDevice(c.Context, c.Args().Get(0))
	if err != nil {
		return err
	}
	appID := c.Args().Get(1)
	extra := c.Args().Slice()[2:]
	return d.LaunchApp(c.Context, appID, extra...)
}
