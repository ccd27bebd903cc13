// Package simulator implements the iOS simulator device variant.
package simulator

import (
	"time"

	"github.com/devicelab-dev/device-doctor/pkg/command"
	"github.com/devicelab-dev/device-doctor/pkg/device"
)

// Options configure an IOSDevice.
type Options struct {
	Executor        command.Executor
	BootTimeout     time.Duration
	ShutdownTimeout time.Duration
	PollInterval    time.Duration
}

// IOSDevice is one CoreSimulator device.
//
// The booted-state flag is the session handle; only this instance's own
// lifecycle methods write it. Concurrent callers must serialize
// externally.
type IOSDevice struct {
	udid      string
	name      string
	kind      device.Kind
	osVersion string
	runtime   string
	dataPath  string

	exe             command.Executor
	bootTimeout     time.Duration
	shutdownTimeout time.Duration
	pollInterval    time.Duration

	state device.State
}

// ID returns the simulator UDID.
func (d *IOSDevice) ID() string { return d.udid }

// Name returns the display name (e.g. "iPhone 15 Pro").
func (d *IOSDevice) Name() string { return d.name }

// Kind returns the device form factor.
func (d *IOSDevice) Kind() device.Kind { return d.kind }

// OS returns OSIOS.
func (d *IOSDevice) OS() device.OSKind { return device.OSIOS }

// OSVersion returns the runtime version, e.g. "17.2".
func (d *IOSDevice) OSVersion() string { return d.osVersion }

// State returns the tracked lifecycle state.
func (d *IOSDevice) State() device.State { return d.state }

// Runtime returns the CoreSimulator runtime identifier.
func (d *IOSDevice) Runtime() string { return d.runtime }
