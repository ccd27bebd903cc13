// Package emulator implements the Android emulator device variant.
package emulator

import (
	"context"
	"time"

	"github.com/devicelab-dev/device-doctor/pkg/command"
	"github.com/devicelab-dev/device-doctor/pkg/device"
)

const (
	// defaultConsolePort is the first emulator console port (even numbers).
	defaultConsolePort = 5554

	// certDir is the system trust store directory on the device.
	certDir = "/system/etc/security/cacerts"

	// playStoreTag marks store-certified AVD images, which lock the
	// system partition.
	playStoreTag = "google_apis_playstore"
)

// SpawnFunc starts the emulator process in the background. Split out so
// tests can avoid launching real emulators.
type SpawnFunc func(ctx context.Context, binary string, args ...string) error

// Options configure an AndroidDevice.
type Options struct {
	Executor command.Executor
	Spawn    SpawnFunc

	// ConsolePort assigns the emulator console port (even numbers from
	// 5554). Devices booted concurrently need distinct ports.
	ConsolePort int

	BootTimeout     time.Duration
	ShutdownTimeout time.Duration
	PollInterval    time.Duration

	// ADBPath overrides adb resolution (tests leave it "adb").
	ADBPath string
}

// AndroidDevice is an Android emulator instance backed by one AVD.
//
// The console port is the session handle: zero means not booted, and it
// is only written by this device's own lifecycle methods. Concurrent
// callers must serialize externally.
type AndroidDevice struct {
	avdName   string
	name      string
	kind      device.Kind
	osVersion string
	playStore bool

	exe             command.Executor
	spawn           SpawnFunc
	adbPath         string
	port            int
	bootTimeout     time.Duration
	shutdownTimeout time.Duration
	pollInterval    time.Duration

	state       device.State
	consolePort int
}

// ID returns the AVD name, which identifies the device to the toolchain.
func (d *AndroidDevice) ID() string { return d.avdName }

// Name returns the display name.
func (d *AndroidDevice) Name() string { return d.name }

// Kind returns the device form factor.
func (d *AndroidDevice) Kind() device.Kind { return d.kind }

// OS returns OSAndroid.
func (d *AndroidDevice) OS() device.OSKind { return device.OSAndroid }

// OSVersion returns the API level or release codename of the image.
func (d *AndroidDevice) OSVersion() string { return d.osVersion }

// State returns the tracked lifecycle state.
func (d *AndroidDevice) State() device.State { return d.state }

// PlayStore reports whether the AVD uses a store-certified image.
func (d *AndroidDevice) PlayStore() bool { return d.playStore }
