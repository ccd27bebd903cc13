package checks

import (
	"context"
	"runtime"

	"github.com/devicelab-dev/device-doctor/pkg/command"
	"github.com/devicelab-dev/device-doctor/pkg/requirement"
	"github.com/devicelab-dev/device-doctor/pkg/sdk"
	"github.com/devicelab-dev/device-doctor/pkg/simulator"
	"github.com/devicelab-dev/device-doctor/pkg/version"
)

// MinXcode is the oldest Xcode whose simctl supports the keychain
// subcommand the trust installer relies on.
const MinXcode = "13.0.0"

func (o Options) minXcode() string {
	if o.MinXcode != "" {
		return o.MinXcode
	}
	return MinXcode
}

// hostOS is swapped in tests; nothing else writes it.
var hostOS = runtime.GOOS

// IOSGroup builds the iOS toolchain requirement group. Off macOS every
// check is skipped rather than failed: an absent Xcode on Linux is not
// a defect.
func IOSGroup(opts Options) requirement.Group {
	exe := opts.executor()
	minVersion := opts.minXcode()

	return requirement.Group{
		Title: "iOS",
		Requirements: []requirement.Requirement{
			{
				Title: "Xcode command-line tools",
				Check: darwinOnly(requirement.CheckError(func(ctx context.Context) (string, error) {
					return sdk.XcodePath(ctx, exe)
				})),
				SupplementalMessage: "xcode-select --install",
				Children: []requirement.Requirement{
					{
						Title: "xcrun",
						Check: darwinOnly(requirement.CheckError(func(_ context.Context) (string, error) {
							return sdk.XcrunPath()
						})),
					},
					{
						Title: "Xcode version",
						Check: darwinOnly(xcodeVersionCheck(exe, minVersion)),
					},
					{
						Title:               "simulators",
						Check:               darwinOnly(simulatorCheck(exe)),
						SupplementalMessage: "download a simulator runtime in Xcode settings",
					},
				},
			},
		},
	}
}

// darwinOnly wraps a check so it is skipped on non-macOS hosts.
func darwinOnly(check requirement.CheckFunc) requirement.CheckFunc {
	return func(ctx context.Context) requirement.Outcome {
		if hostOS != "darwin" {
			return requirement.Skipped("iOS tooling requires macOS")
		}
		return check(ctx)
	}
}

// xcodeVersionCheck verifies the installed Xcode release is at least
// the floor.
func xcodeVersionCheck(exe command.Executor, minVersion string) requirement.CheckFunc {
	return func(ctx context.Context) requirement.Outcome {
		installed, err := sdk.XcodeVersion(ctx, exe)
		if err != nil {
			return requirement.Unfulfilled("%v", err)
		}

		ok, err := version.SameOrNewer(installed, minVersion)
		if err != nil {
			return requirement.Unfulfilled("cannot compare Xcode %s against %s: %v",
				installed, minVersion, err)
		}
		if !ok {
			return requirement.Unfulfilled("Xcode %s is older than required %s",
				installed, minVersion)
		}
		return requirement.Fulfilled("%s", installed)
	}
}

// simulatorCheck verifies at least one simulator is available.
func simulatorCheck(exe command.Executor) requirement.CheckFunc {
	return func(ctx context.Context) requirement.Outcome {
		devices, err := simulator.List(ctx, simulator.Options{Executor: exe})
		if err != nil {
			return requirement.Unfulfilled("%v", err)
		}
		if len(devices) == 0 {
			return requirement.Unfulfilled("no simulators available")
		}
		return requirement.Fulfilled("%d simulator(s)", len(devices))
	}
}
