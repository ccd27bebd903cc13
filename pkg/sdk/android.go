// Package sdk discovers the host's mobile toolchains: the Android SDK
// layout and the Xcode command-line tools.
package sdk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/devicelab-dev/device-doctor/pkg/command"
	"github.com/devicelab-dev/device-doctor/pkg/logger"
	"github.com/devicelab-dev/device-doctor/pkg/textmap"
)

// ErrNoSDKRoot means no Android SDK could be located. This is an
// unfulfilled requirement for callers, not a crash.
var ErrNoSDKRoot = errors.New("Android SDK root not found; set ANDROID_HOME")

// Root returns the Android SDK root from ANDROID_HOME, the legacy
// ANDROID_SDK_ROOT fallback, or well-known installation paths.
func Root() (string, error) {
	if root := os.Getenv("ANDROID_HOME"); root != "" {
		return root, nil
	}
	if root := os.Getenv("ANDROID_SDK_ROOT"); root != "" {
		return root, nil
	}

	for _, candidate := range wellKnownRoots() {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			logger.Debug("Android SDK found at well-known path: %s", candidate)
			return candidate, nil
		}
	}

	return "", ErrNoSDKRoot
}

// wellKnownRoots lists default SDK install locations per host OS.
func wellKnownRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	switch runtime.GOOS {
	case "darwin":
		return []string{filepath.Join(home, "Library", "Android", "sdk")}
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return []string{filepath.Join(local, "Android", "Sdk")}
		}
		return nil
	default:
		return []string{filepath.Join(home, "Android", "Sdk")}
	}
}

// ADBPath locates the adb binary under the SDK or on PATH.
func ADBPath() (string, error) {
	if root, err := Root(); err == nil {
		p := filepath.Join(root, "platform-tools", "adb")
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	if p, err := exec.LookPath("adb"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("adb not found; install Android SDK platform-tools")
}

// EmulatorPath locates the emulator binary, trying the new layout, the
// old tools layout, then PATH.
func EmulatorPath() (string, error) {
	if root, err := Root(); err == nil {
		for _, rel := range [][]string{{"emulator", "emulator"}, {"tools", "emulator"}} {
			p := filepath.Join(append([]string{root}, rel...)...)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	if p, err := exec.LookPath("emulator"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("emulator binary not found; set ANDROID_HOME or add emulator to PATH")
}

// SDKManagerPath locates sdkmanager, trying the cmdline-tools layout,
// the old tools layout, then PATH.
func SDKManagerPath() (string, error) {
	if root, err := Root(); err == nil {
		for _, rel := range [][]string{
			{"cmdline-tools", "latest", "bin", "sdkmanager"},
			{"tools", "bin", "sdkmanager"},
		} {
			p := filepath.Join(append([]string{root}, rel...)...)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	if p, err := exec.LookPath("sdkmanager"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("sdkmanager not found; install Android SDK command-line tools")
}

// AVDManagerPath locates avdmanager, trying the cmdline-tools layout,
// the old tools layout, then PATH.
func AVDManagerPath() (string, error) {
	if root, err := Root(); err == nil {
		for _, rel := range [][]string{
			{"cmdline-tools", "latest", "bin", "avdmanager"},
			{"tools", "bin", "avdmanager"},
		} {
			p := filepath.Join(append([]string{root}, rel...)...)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	if p, err := exec.LookPath("avdmanager"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("avdmanager not found; install Android SDK command-line tools")
}

// PlatformToolsVersion reads the installed platform-tools revision from
// the package's source.properties manifest (key=value, casing varies
// across SDK releases).
func PlatformToolsVersion() (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}

	propsPath := filepath.Join(root, "platform-tools", "source.properties")
	data, err := os.ReadFile(propsPath) //#nosec G304 -- path derived from SDK root
	if err != nil {
		return "", fmt.Errorf("platform-tools not installed: %w", err)
	}

	props := textmap.FromString(string(data))
	rev, ok := props.Get("Pkg.Revision")
	if !ok {
		return "", fmt.Errorf("no Pkg.Revision in %s", propsPath)
	}
	return rev, nil
}

// Package is one installed SDK package from sdkmanager.
type Package struct {
	Path    string
	Version string
}

// InstalledPackages lists installed SDK packages via sdkmanager.
func InstalledPackages(ctx context.Context, exe command.Executor) ([]Package, error) {
	sdkmanager, err := SDKManagerPath()
	if err != nil {
		return nil, err
	}

	out, err := exe.Run(ctx, sdkmanager, "--list_installed")
	if err != nil {
		return nil, fmt.Errorf("failed to list installed packages: %w", err)
	}
	return parsePackageList(out), nil
}

// parsePackageList parses sdkmanager's pipe-separated table, skipping the
// header and separator rows.
func parsePackageList(out string) []Package {
	var pkgs []Package
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "|") {
			continue
		}
		cols := strings.Split(line, "|")
		path := strings.TrimSpace(cols[0])
		if path == "" || path == "Path" || strings.HasPrefix(path, "---") {
			continue
		}
		pkg := Package{Path: path}
		if len(cols) > 1 {
			pkg.Version = strings.TrimSpace(cols[1])
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs
}

// HasPackage reports whether an installed package path is present.
func HasPackage(pkgs []Package, path string) bool {
	for _, p := range pkgs {
		if strings.EqualFold(p.Path, path) {
			return true
		}
	}
	return false
}
