package emulator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/devicelab-dev/device-doctor/pkg/cert"
	"github.com/devicelab-dev/device-doctor/pkg/retry"
)

// IsCertInstalled probes the system trust store for the certificate's
// hash file. The probe is best-effort: an unrooted image, a missing
// directory or an unsupported command all read as "not installed".
func (d *AndroidDevice) IsCertInstalled(ctx context.Context, c *cert.Certificate) bool {
	what := fmt.Sprintf("cert probe on %s", d.avdName)
	return retry.BestEffort(what, func() (bool, error) {
		fileName, err := c.TrustStoreFileName()
		if err != nil {
			return false, err
		}
		if d.consolePort == 0 {
			return false, fmt.Errorf("device %s is not booted", d.avdName)
		}
		if _, err := d.adb(ctx, "root"); err != nil {
			return false, err
		}
		if _, err := d.adb(ctx, "shell", "ls", certDir+"/"+fileName); err != nil {
			return false, err
		}
		return true, nil
	})
}

// InstallCert pushes the certificate into the system trust store. Every
// step propagates on failure: the caller must know trust setup did not
// succeed. Requires a writable-system boot.
func (d *AndroidDevice) InstallCert(ctx context.Context, c *cert.Certificate) error {
	if d.consolePort == 0 {
		return fmt.Errorf("cannot install certificate: device %s is not booted", d.avdName)
	}

	fileName, err := c.TrustStoreFileName()
	if err != nil {
		return fmt.Errorf("install cert on %s: %w", d.avdName, err)
	}

	// Host-local staging file named by the hash; temp reaping cleans it
	// up, not us.
	hostPath := filepath.Join(os.TempDir(), fileName)
	if err := os.WriteFile(hostPath, []byte(c.PEM()), 0o644); err != nil {
		return fmt.Errorf("install cert on %s: stage file: %w", d.avdName, err)
	}

	if _, err := d.adb(ctx, "root"); err != nil {
		return fmt.Errorf("install cert on %s: escalate: %w", d.avdName, err)
	}
	// Remounting /system writable is privileged and slow; on some images
	// it triggers an internal reboot cycle before returning.
	if _, err := d.adb(ctx, "remount"); err != nil {
		return fmt.Errorf("install cert on %s: remount system: %w", d.avdName, err)
	}
	if _, err := d.adb(ctx, "push", hostPath, certDir+"/"+fileName); err != nil {
		return fmt.Errorf("install cert on %s: push: %w", d.avdName, err)
	}
	if _, err := d.adb(ctx, "shell", "chmod", "644", certDir+"/"+fileName); err != nil {
		return fmt.Errorf("install cert on %s: set permissions: %w", d.avdName, err)
	}

	return nil
}
