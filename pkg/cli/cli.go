// Package cli provides the command-line interface for device-doctor.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/device-doctor/pkg/config"
	"github.com/devicelab-dev/device-doctor/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "platform",
		Aliases: []string{"p"},
		Usage:   "Platform to target (android, ios)",
		EnvVars: []string{"DOCTOR_PLATFORM"},
	},
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to doctor.yaml",
		EnvVars: []string{"DOCTOR_CONFIG"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Mirror the log to stderr",
		EnvVars: []string{"DOCTOR_VERBOSE"},
	},
}

// Execute runs the CLI.
func Execute() {
	app := &cli.App{
		Name:    "device-doctor",
		Usage:   "Verify and drive Android emulators and iOS simulators",
		Version: Version,
		Description: `device-doctor checks that the mobile toolchains on this machine are
usable, boots and shuts down virtual devices, and installs proxy CA
certificates into their trust stores.

Examples:
  device-doctor doctor
  device-doctor doctor --fail-fast
  device-doctor devices
  device-doctor -p android boot Pixel_7_API_34
  device-doctor install-cert emulator-5554 ca.pem`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			doctorCommand,
			devicesCommand,
			bootCommand,
			rebootCommand,
			shutdownCommand,
			openURLCommand,
			installAppCommand,
			launchAppCommand,
			installCertCommand,
			checkCertCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalString reads a global flag from the current or parent context;
// when run as a subcommand the globals live in the parent.
func globalString(c *cli.Context, name string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	if len(c.Lineage()) > 1 && c.Lineage()[1] != nil {
		return c.Lineage()[1].String(name)
	}
	return c.String(name)
}

func globalBool(c *cli.Context, name string) bool {
	if c.IsSet(name) {
		return c.Bool(name)
	}
	if len(c.Lineage()) > 1 && c.Lineage()[1] != nil {
		return c.Lineage()[1].Bool(name)
	}
	return c.Bool(name)
}

// loadConfig resolves the workspace config: the --config path when
// given, otherwise doctor.yaml in the working directory, otherwise
// all defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := globalString(c, "config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}
	return config.LoadFromDir(".")
}

// setup loads the config and initializes logging. Every command action
// starts here.
func setup(c *cli.Context) (*config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	logPath := cfg.LogFile
	if logPath == "" {
		logPath = "device-doctor.log"
	}
	if err := logger.Init(logPath, globalBool(c, "verbose")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	return cfg, nil
}

// resolvePlatform returns the effective platform: flag first, then
// config, then empty (meaning both).
func resolvePlatform(c *cli.Context, cfg *config.Config) (string, error) {
	platform := globalString(c, "platform")
	if platform == "" {
		platform = cfg.Platform
	}
	switch platform {
	case "", "android", "ios":
		return platform, nil
	default:
		return "", fmt.Errorf("unsupported platform %q (android or ios)", platform)
	}
}
