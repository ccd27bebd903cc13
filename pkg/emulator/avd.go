package emulator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/devicelab-dev/device-doctor/pkg/command"
	"github.com/devicelab-dev/device-doctor/pkg/device"
	"github.com/devicelab-dev/device-doctor/pkg/logger"
	"github.com/devicelab-dev/device-doctor/pkg/sdk"
	"github.com/devicelab-dev/device-doctor/pkg/textmap"
)

// New builds an AndroidDevice for the named AVD. Missing options get
// working defaults; the AVD's config.ini (when readable) fills in kind,
// OS version and the store-image flag.
func New(avdName string, opts Options) *AndroidDevice {
	d := &AndroidDevice{
		avdName:         avdName,
		name:            avdName,
		kind:            device.KindPhone,
		exe:             opts.Executor,
		spawn:           opts.Spawn,
		adbPath:         opts.ADBPath,
		port:            opts.ConsolePort,
		consolePort:     0,
		bootTimeout:     opts.BootTimeout,
		shutdownTimeout: opts.ShutdownTimeout,
		pollInterval:    opts.PollInterval,
		state:           device.StateNotBooted,
	}

	if d.exe == nil {
		d.exe = command.NewShell(2 * time.Minute)
	}
	if d.spawn == nil {
		d.spawn = spawnProcess
	}
	if d.adbPath == "" {
		if p, err := sdk.ADBPath(); err == nil {
			d.adbPath = p
		} else {
			d.adbPath = "adb"
		}
	}
	if d.port == 0 {
		d.port = defaultConsolePort
	}
	if d.bootTimeout == 0 {
		d.bootTimeout = 5 * time.Minute
	}
	if d.shutdownTimeout == 0 {
		d.shutdownTimeout = 30 * time.Second
	}
	if d.pollInterval == 0 {
		d.pollInterval = time.Second
	}

	if cfg, err := readAVDConfig(avdName); err == nil {
		applyAVDConfig(d, cfg)
	} else {
		logger.Debug("no config.ini for AVD %s: %v", avdName, err)
	}

	return d
}

// List enumerates the defined AVDs as AndroidDevices. Emulators already
// running (booted by an earlier invocation) are attached to their AVD so
// they stay addressable.
func List(ctx context.Context, opts Options) ([]*AndroidDevice, error) {
	emulatorPath, err := sdk.EmulatorPath()
	if err != nil {
		return nil, err
	}

	exe := opts.Executor
	if exe == nil {
		exe = command.NewShell(2 * time.Minute)
	}
	out, err := exe.Run(ctx, emulatorPath, "-list-avds")
	if err != nil {
		return nil, fmt.Errorf("failed to list AVDs: %w", err)
	}

	var devices []*AndroidDevice
	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		// Recent emulators print an INFO banner before the names.
		if name == "" || strings.HasPrefix(name, "INFO") {
			continue
		}
		devices = append(devices, New(name, opts))
	}

	attachRunning(ctx, devices)

	logger.Debug("found %d AVDs", len(devices))
	return devices, nil
}

// attachRunning matches running emulator serials from `adb devices` to
// the enumerated AVDs, asking each session for its AVD name. A matched
// device takes over the session handle and reports Booted.
func attachRunning(ctx context.Context, devices []*AndroidDevice) {
	if len(devices) == 0 {
		return
	}
	exe := devices[0].exe
	adbPath := devices[0].adbPath

	out, err := exe.Run(ctx, adbPath, "devices")
	if err != nil {
		logger.Debug("cannot list running emulators: %v", err)
		return
	}

	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[1] != "device" || !strings.HasPrefix(fields[0], "emulator-") {
			continue
		}
		port, err := strconv.Atoi(strings.TrimPrefix(fields[0], "emulator-"))
		if err != nil {
			continue
		}

		// First output line is the AVD name; a trailing OK follows.
		name, err := exe.Run(ctx, adbPath, "-s", fields[0], "emu", "avd", "name")
		if err != nil {
			logger.Debug("cannot resolve AVD behind %s: %v", fields[0], err)
			continue
		}
		avdName := strings.TrimSpace(strings.SplitN(name, "\n", 2)[0])

		for _, d := range devices {
			if d.avdName == avdName {
				d.consolePort = port
				d.state = device.StateBooted
				logger.Debug("attached running emulator %s to AVD %s", fields[0], avdName)
				break
			}
		}
	}
}

// avdHome returns the AVD storage directory.
func avdHome() (string, error) {
	if dir := os.Getenv("ANDROID_AVD_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".android", "avd"), nil
}

// readAVDConfig parses the AVD's config.ini key=value block.
func readAVDConfig(avdName string) (*textmap.Map, error) {
	dir, err := avdHome()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, avdName+".avd", "config.ini")) //#nosec G304
	if err != nil {
		return nil, err
	}
	return textmap.FromString(string(data)), nil
}

// applyAVDConfig fills device attributes from config.ini keys.
func applyAVDConfig(d *AndroidDevice, cfg *textmap.Map) {
	if tag, ok := cfg.Get("tag.id"); ok {
		d.playStore = strings.EqualFold(tag, playStoreTag)
	}
	if name, ok := cfg.Get("avd.ini.displayname"); ok && name != "" {
		d.name = name
	}
	if hw, ok := cfg.Get("hw.device.name"); ok {
		d.kind = kindFromHardware(hw)
	}
	if sysdir, ok := cfg.Get("image.sysdir.1"); ok {
		if v := apiLevelFromSysdir(sysdir); v != "" {
			d.osVersion = v
		}
	}
}

// kindFromHardware maps the hardware profile name to a device kind.
func kindFromHardware(hw string) device.Kind {
	hw = strings.ToLower(hw)
	switch {
	case strings.Contains(hw, "tablet") || strings.Contains(hw, "pad"):
		return device.KindTablet
	case strings.Contains(hw, "wear"):
		return device.KindWatch
	case strings.Contains(hw, "tv"):
		return device.KindTV
	default:
		return device.KindPhone
	}
}

// apiLevelFromSysdir extracts the platform identifier from a system image
// path like "system-images/android-33/google_apis/x86_64/". Preview
// images carry a codename instead of a number ("android-Tiramisu").
func apiLevelFromSysdir(sysdir string) string {
	for _, part := range strings.Split(sysdir, "/") {
		if strings.HasPrefix(part, "android-") {
			return strings.TrimPrefix(part, "android-")
		}
	}
	return ""
}

// spawnProcess starts a long-running background process detached from the
// executor's capture pipeline.
func spawnProcess(_ context.Context, binary string, args ...string) error {
	cmd := exec.Command(binary, args...) //#nosec G204 -- binary resolved from SDK layout
	cmd.Stdout = logger.GetWriter()
	cmd.Stderr = logger.GetWriter()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start emulator process: %w", err)
	}
	logger.Info("emulator process started (pid %d)", cmd.Process.Pid)
	// The emulator outlives us; reap it in the background to avoid
	// zombies when it exits first.
	go func() { _ = cmd.Wait() }()
	return nil
}
