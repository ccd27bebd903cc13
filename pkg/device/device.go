// Package device defines the capability surface shared by emulated
// devices: lifecycle, app management and certificate trust management.
// Concrete variants live in pkg/emulator (Android) and pkg/simulator
// (iOS).
package device

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/device-doctor/pkg/cert"
)

// Kind classifies the device form factor.
type Kind int

const (
	KindGeneric Kind = iota
	KindPhone
	KindTablet
	KindWatch
	KindTV
)

// String returns the display name of the kind.
func (k Kind) String() string {
	switch k {
	case KindPhone:
		return "phone"
	case KindTablet:
		return "tablet"
	case KindWatch:
		return "watch"
	case KindTV:
		return "tv"
	case KindGeneric:
		return "generic"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// OSKind is the device operating system family.
type OSKind int

const (
	OSAndroid OSKind = iota
	OSIOS
)

// String returns the display name of the OS kind.
func (o OSKind) String() string {
	switch o {
	case OSAndroid:
		return "android"
	case OSIOS:
		return "ios"
	default:
		return fmt.Sprintf("os(%d)", int(o))
	}
}

// State is the lifecycle state of a device instance, tracked through its
// session handle.
type State int

const (
	StateNotBooted State = iota
	StateBooting
	StateBooted
	StateRebooting
	StateShuttingDown
)

// String returns the display name of the state.
func (s State) String() string {
	switch s {
	case StateNotBooted:
		return "not booted"
	case StateBooting:
		return "booting"
	case StateBooted:
		return "booted"
	case StateRebooting:
		return "rebooting"
	case StateShuttingDown:
		return "shutting down"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// BootOptions control a boot request.
type BootOptions struct {
	// WaitForBoot blocks until the device reports fully booted.
	WaitForBoot bool
	// WritableSystem mounts the system partition writable, required for
	// installing trust certificates on Android. Refused by policy on
	// store-certified images.
	WritableSystem bool
}

// DefaultBootOptions waits for boot and keeps the system partition
// read-only.
func DefaultBootOptions() BootOptions {
	return BootOptions{WaitForBoot: true}
}

// Device is the capability set shared by all emulated device variants.
//
// Callers targeting the same Device instance must serialize externally;
// the session handle is only written by the instance's own lifecycle
// methods and no internal lock is provided. Independent devices may be
// operated concurrently.
type Device interface {
	ID() string
	Name() string
	Kind() Kind
	OS() OSKind
	// OSVersion is a numeric version or a release codename.
	OSVersion() string
	State() State

	Boot(ctx context.Context, opts BootOptions) error
	// Reboot on a cold device degrades to Boot; it is always safe to call.
	Reboot(ctx context.Context, wait bool) error
	// Shutdown on a cold device still issues the stop command best-effort.
	Shutdown(ctx context.Context) error

	OpenURL(ctx context.Context, url string) error
	HasApp(ctx context.Context, bundleID string) (bool, error)
	InstallApp(ctx context.Context, path string) error
	LaunchApp(ctx context.Context, target string, args ...string) error

	// IsCertInstalled is a best-effort probe: any failure is treated as
	// "not installed", never propagated.
	IsCertInstalled(ctx context.Context, c *cert.Certificate) bool
	// InstallCert propagates failures; the caller needs to know trust
	// setup did not succeed.
	InstallCert(ctx context.Context, c *cert.Certificate) error
}

// PolicyError reports an operation refused before any process was
// spawned, e.g. a writable-system boot on a store-certified image.
type PolicyError struct {
	DeviceID string
	Op       string
	Reason   string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s refused for device %s: %s", e.Op, e.DeviceID, e.Reason)
}
