package simulator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devicelab-dev/device-doctor/pkg/cert"
	"github.com/devicelab-dev/device-doctor/pkg/retry"
)

// trustStorePath is the keychain trust database inside a simulator's
// data directory. Rows in its tsettings table are keyed by certificate
// SHA-1.
func (d *IOSDevice) trustStorePath() (string, error) {
	if d.dataPath == "" {
		return "", fmt.Errorf("no data path known for simulator %s", d.udid)
	}
	return filepath.Join(d.dataPath, "Library", "Keychains", "TrustStore.sqlite3"), nil
}

// IsCertInstalled probes the simulator's trust store for the
// certificate's fingerprint. Best-effort: a missing store, an absent
// sqlite3 tool or any query failure reads as "not installed".
func (d *IOSDevice) IsCertInstalled(ctx context.Context, c *cert.Certificate) bool {
	what := fmt.Sprintf("cert probe on %s", d.udid)
	return retry.BestEffort(what, func() (bool, error) {
		store, err := d.trustStorePath()
		if err != nil {
			return false, err
		}
		if _, err := os.Stat(store); err != nil {
			return false, err
		}
		out, err := d.exe.Run(ctx, "sqlite3", store, "SELECT hex(sha1) FROM tsettings")
		if err != nil {
			return false, err
		}
		return strings.Contains(strings.ToUpper(out), c.SHA1()), nil
	})
}

// InstallCert adds the certificate to the simulator's root trust store
// via simctl keychain. Failures propagate; the caller must know trust
// setup did not succeed.
func (d *IOSDevice) InstallCert(ctx context.Context, c *cert.Certificate) error {
	hash, err := c.SubjectHashOld()
	if err != nil {
		return fmt.Errorf("install cert on %s: %w", d.udid, err)
	}

	// Host-local staging file named by the hash; temp reaping cleans it
	// up, not us.
	hostPath := filepath.Join(os.TempDir(), hash+".pem")
	if err := os.WriteFile(hostPath, []byte(c.PEM()), 0o644); err != nil {
		return fmt.Errorf("install cert on %s: stage file: %w", d.udid, err)
	}

	if _, err := d.simctl(ctx, "keychain", d.udid, "add-root-cert", hostPath); err != nil {
		return fmt.Errorf("install cert on %s: %w", d.udid, err)
	}
	return nil
}
