// Package checks assembles the built-in requirement groups that the
// doctor command evaluates: one group per platform toolchain.
package checks

import (
	"context"
	"time"

	"github.com/devicelab-dev/device-doctor/pkg/command"
	"github.com/devicelab-dev/device-doctor/pkg/emulator"
	"github.com/devicelab-dev/device-doctor/pkg/requirement"
	"github.com/devicelab-dev/device-doctor/pkg/sdk"
	"github.com/devicelab-dev/device-doctor/pkg/version"
)

// MinPlatformTools is the oldest platform-tools release whose adb
// behaves the way the device layer expects (incremental install, -g).
const MinPlatformTools = "34.0.0"

// Options configure group construction.
type Options struct {
	Executor command.Executor

	// MinPlatformTools and MinXcode override the default version floors.
	MinPlatformTools string
	MinXcode         string
}

func (o Options) executor() command.Executor {
	if o.Executor != nil {
		return o.Executor
	}
	return command.NewShell(2 * time.Minute)
}

func (o Options) minPlatformTools() string {
	if o.MinPlatformTools != "" {
		return o.MinPlatformTools
	}
	return MinPlatformTools
}

// AndroidGroup builds the Android toolchain requirement group. The SDK
// root is the parent; tool checks are its children so a missing SDK
// fails the whole subtree under fail-fast before any child runs.
func AndroidGroup(opts Options) requirement.Group {
	exe := opts.executor()
	minVersion := opts.minPlatformTools()

	return requirement.Group{
		Title: "Android",
		Requirements: []requirement.Requirement{
			{
				Title: "Android SDK",
				Check: requirement.CheckError(func(_ context.Context) (string, error) {
					return sdk.Root()
				}),
				SupplementalMessage: "install Android Studio or set ANDROID_HOME",
				Children: []requirement.Requirement{
					{
						Title: "adb",
						Check: requirement.CheckError(func(_ context.Context) (string, error) {
							return sdk.ADBPath()
						}),
						SupplementalMessage: "sdkmanager platform-tools",
					},
					{
						Title: "emulator",
						Check: requirement.CheckError(func(_ context.Context) (string, error) {
							return sdk.EmulatorPath()
						}),
						SupplementalMessage: "sdkmanager emulator",
					},
					{
						Title: "platform-tools version",
						Check: platformToolsCheck(minVersion),
					},
					{
						Title:               "sdk packages",
						Check:               packageCheck(exe),
						SupplementalMessage: "sdkmanager platform-tools",
					},
					{
						Title:               "virtual devices",
						Check:               avdCheck(exe),
						SupplementalMessage: "create an AVD in Android Studio's Device Manager",
					},
				},
			},
		},
	}
}

// platformToolsCheck verifies the installed platform-tools revision is
// at least the floor. A codename revision counts as newer than any
// numeric floor; two codenames cannot be ordered and fail the check.
func platformToolsCheck(minVersion string) requirement.CheckFunc {
	return func(_ context.Context) requirement.Outcome {
		installed, err := sdk.PlatformToolsVersion()
		if err != nil {
			return requirement.Unfulfilled("%v", err)
		}

		ok, err := version.SameOrNewer(installed, minVersion)
		if err != nil {
			return requirement.Unfulfilled("cannot compare platform-tools %s against %s: %v",
				installed, minVersion, err)
		}
		if !ok {
			return requirement.Unfulfilled("platform-tools %s is older than required %s",
				installed, minVersion)
		}
		return requirement.Fulfilled("platform-tools %s", installed)
	}
}

// packageCheck asks sdkmanager for the installed-package manifest and
// verifies platform-tools is present in it.
func packageCheck(exe command.Executor) requirement.CheckFunc {
	return func(ctx context.Context) requirement.Outcome {
		pkgs, err := sdk.InstalledPackages(ctx, exe)
		if err != nil {
			return requirement.Unfulfilled("%v", err)
		}
		if !sdk.HasPackage(pkgs, "platform-tools") {
			return requirement.Unfulfilled("platform-tools is not in the installed package list")
		}
		return requirement.Fulfilled("%d package(s) installed", len(pkgs))
	}
}

// avdCheck verifies at least one AVD is defined.
func avdCheck(exe command.Executor) requirement.CheckFunc {
	return func(ctx context.Context) requirement.Outcome {
		devices, err := emulator.List(ctx, emulator.Options{Executor: exe})
		if err != nil {
			return requirement.Unfulfilled("%v", err)
		}
		if len(devices) == 0 {
			return requirement.Unfulfilled("no Android virtual devices defined")
		}
		return requirement.Fulfilled("%d virtual device(s)", len(devices))
	}
}
