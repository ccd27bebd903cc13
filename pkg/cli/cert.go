package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/device-doctor/pkg/cert"
	"github.com/devicelab-dev/device-doctor/pkg/logger"
)

var installCertCommand = &cli.Command{
	Name:      "install-cert",
	Usage:     "Install a CA certificate into a device's trust store",
	ArgsUsage: "<device-id-or-name> [cert-file]",
	Description: `Install a root certificate (PEM or DER) into the device trust store.
Android emulators need a writable system partition; boot them with
--writable-system first. Already-installed certificates are a no-op.

The certificate file defaults to certFile from doctor.yaml.

Examples:
  device-doctor install-cert Pixel_7_API_34 proxy-ca.pem
  device-doctor install-cert --cert proxy-ca.pem D5E60B32-...`,
	Flags:  certFlags,
	Action: runInstallCert,
}

var checkCertCommand = &cli.Command{
	Name:      "check-cert",
	Usage:     "Check whether a CA certificate is in a device's trust store",
	ArgsUsage: "<device-id-or-name> [cert-file]",
	Flags:     certFlags,
	Action:    runCheckCert,
}

var certFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "cert",
		Usage: "Certificate file (PEM or DER); overrides the positional argument",
	},
}

// loadCertArg resolves the certificate: --cert flag, then the second
// positional argument, then the configured default.
func loadCertArg(c *cli.Context, fallback string) (*cert.Certificate, error) {
	path := c.String("cert")
	if path == "" {
		path = c.Args().Get(1)
	}
	if path == "" {
		path = fallback
	}
	if path == "" {
		return nil, fmt.Errorf("a certificate file is required (argument or certFile in doctor.yaml)")
	}
	return cert.Load(path)
}

func runInstallCert(c *cli.Context) error {
	env, err := deviceSetup(c)
	if err != nil {
		return err
	}
	defer logger.Close()

	target, err := targetArg(c)
	if err != nil {
		return err
	}
	crt, err := loadCertArg(c, env.cfg.CertFile)
	if err != nil {
		return err
	}
	d, err := env.findDevice(c.Context, target)
	if err != nil {
		return err
	}

	subject, _ := crt.Subject()
	if d.IsCertInstalled(c.Context, crt) {
		fmt.Printf("Certificate already trusted on %s: %s\n", d.ID(), subject)
		return nil
	}

	if err := d.InstallCert(c.Context, crt); err != nil {
		return err
	}
	fmt.Printf("Installed certificate on %s: %s\n", d.ID(), subject)
	return nil
}

func runCheckCert(c *cli.Context) error {
	env, err := deviceSetup(c)
	if err != nil {
		return err
	}
	defer logger.Close()

	target, err := targetArg(c)
	if err != nil {
		return err
	}
	crt, err := loadCertArg(c, env.cfg.CertFile)
	if err != nil {
		return err
	}
	d, err := env.findDevice(c.Context, target)
	if err != nil {
		return err
	}

	subject, _ := crt.Subject()
	if d.IsCertInstalled(c.Context, crt) {
		fmt.Printf("Trusted on %s: %s\n", d.ID(), subject)
		return nil
	}

	fmt.Printf("Not trusted on %s: %s\n", d.ID(), subject)
	return cli.Exit("", 1)
}
