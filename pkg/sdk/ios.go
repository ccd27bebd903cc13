package sdk

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/devicelab-dev/device-doctor/pkg/command"
)

// XcodePath returns the active developer directory from xcode-select.
func XcodePath(ctx context.Context, exe command.Executor) (string, error) {
	out, err := exe.Run(ctx, "xcode-select", "-p")
	if err != nil {
		return "", fmt.Errorf("Xcode command-line tools not installed: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// XcrunPath verifies that xcrun is available.
func XcrunPath() (string, error) {
	p, err := exec.LookPath("xcrun")
	if err != nil {
		return "", fmt.Errorf("xcrun not found; run xcode-select --install")
	}
	return p, nil
}

// XcodeVersion parses the Xcode release out of `xcodebuild -version`,
// whose first line reads "Xcode 15.2".
func XcodeVersion(ctx context.Context, exe command.Executor) (string, error) {
	out, err := exe.Run(ctx, "xcodebuild", "-version")
	if err != nil {
		return "", fmt.Errorf("failed to query Xcode version: %w", err)
	}

	lines := strings.Split(out, "\n")
	if len(lines) == 0 {
		return "", fmt.Errorf("empty xcodebuild -version output")
	}
	fields := strings.Fields(lines[0])
	if len(fields) < 2 || fields[0] != "Xcode" {
		return "", fmt.Errorf("unexpected xcodebuild -version output: %q", lines[0])
	}
	return fields[1], nil
}
