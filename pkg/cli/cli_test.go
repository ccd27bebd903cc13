package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

// writeConfig writes a doctor.yaml into a temp dir and returns its path.
// Points the log file at the same dir so tests don't litter the cwd.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	content := "logFile: " + filepath.Join(dir, "doctor.log") + "\n" + extra
	path := filepath.Join(dir, "doctor.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

// newApp builds an app with the global flags and the given commands,
// mirroring Execute.
func newApp(commands ...*cli.Command) *cli.App {
	return &cli.App{
		Name:     "device-doctor",
		Flags:    GlobalFlags,
		Commands: commands,
	}
}

// isolateHost points toolchain discovery away from any real SDK or
// Xcode installation.
func isolateHost(t *testing.T) {
	t.Helper()
	t.Setenv("ANDROID_HOME", "")
	t.Setenv("ANDROID_SDK_ROOT", "")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATH", t.TempDir())
}

func TestGlobalFlags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, f := range GlobalFlags {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	for _, name := range []string{"platform", "p", "config", "verbose"} {
		if !flagNames[name] {
			t.Errorf("expected global flag %q to be defined", name)
		}
	}
}

func TestResolvePlatform(t *testing.T) {
	tests := []struct {
		flag    string
		cfg     string
		want    string
		wantErr bool
	}{
		{"", "", "", false},
		{"android", "", "android", false},
		{"ios", "", "ios", false},
		{"", "android", "android", false},
		{"ios", "android", "ios", false}, // flag wins
		{"windows", "", "", true},
	}

	for _, tt := range tests {
		var got string
		var gotErr error
		app := newApp(&cli.Command{
			Name: "probe",
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				got, gotErr = resolvePlatform(c, cfg)
				return nil
			},
		})

		args := []string{"device-doctor"}
		if tt.cfg != "" {
			args = append(args, "--config", writeConfig(t, "platform: "+tt.cfg+"\n"))
		} else {
			args = append(args, "--config", writeConfig(t, ""))
		}
		if tt.flag != "" {
			args = append(args, "-p", tt.flag)
		}
		args = append(args, "probe")

		if err := app.Run(args); err != nil {
			t.Fatalf("app.Run(%v) error: %v", args, err)
		}
		if tt.wantErr {
			if gotErr == nil {
				t.Errorf("resolvePlatform(flag=%q) expected error", tt.flag)
			}
			continue
		}
		if gotErr != nil {
			t.Errorf("resolvePlatform(flag=%q, cfg=%q) error: %v", tt.flag, tt.cfg, gotErr)
		}
		if got != tt.want {
			t.Errorf("resolvePlatform(flag=%q, cfg=%q) = %q, want %q", tt.flag, tt.cfg, got, tt.want)
		}
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	app := newApp(&cli.Command{
		Name: "probe",
		Action: func(c *cli.Context) error {
			_, err := loadConfig(c)
			return err
		},
	})

	err := app.Run([]string{"device-doctor", "--config", "/nonexistent/doctor.yaml", "probe"})
	if err == nil {
		t.Error("expected error for a missing --config file")
	}
}

func TestDevicesCommand_NoToolchains(t *testing.T) {
	isolateHost(t)

	oldStdout := os.Stdout
	os.Stdout, _ = os.Open(os.DevNull)
	defer func() { os.Stdout = oldStdout }()

	app := newApp(devicesCommand)
	err := app.Run([]string{"device-doctor", "--config", writeConfig(t, ""), "devices"})
	if err != nil {
		t.Errorf("devices with no toolchains should degrade to an empty list, got: %v", err)
	}
}

func TestDevicesCommand_AndroidPlatformFailsWithoutSDK(t *testing.T) {
	isolateHost(t)

	app := newApp(devicesCommand)
	err := app.Run([]string{"device-doctor", "--config", writeConfig(t, ""), "-p", "android", "devices"})
	if err == nil {
		t.Error("explicit --platform android should surface the missing SDK")
	}
}

func TestBootCommand_NoArgs(t *testing.T) {
	app := newApp(bootCommand)
	err := app.Run([]string{"device-doctor", "--config", writeConfig(t, ""), "boot"})
	if err == nil {
		t.Error("boot without a device argument should fail")
	}
	if err != nil && !strings.Contains(err.Error(), "device ID or name") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBootCommand_UnknownDevice(t *testing.T) {
	isolateHost(t)

	app := newApp(bootCommand)
	err := app.Run([]string{"device-doctor", "--config", writeConfig(t, ""), "boot", "Nonexistent_AVD"})
	if err == nil {
		t.Error("boot of an unknown device should fail")
	}
	if err != nil && !strings.Contains(err.Error(), "no device") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestInstallCertCommand_NoCertFile(t *testing.T) {
	isolateHost(t)

	app := newApp(installCertCommand)
	err := app.Run([]string{"device-doctor", "--config", writeConfig(t, ""), "install-cert", "some-device"})
	if err == nil {
		t.Error("install-cert without a certificate should fail")
	}
	if err != nil && !strings.Contains(err.Error(), "certificate file is required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestInstallCertCommand_ConfigDefaultCert(t *testing.T) {
	isolateHost(t)

	// A configured certFile that doesn't exist surfaces the load error,
	// proving the config default is picked up.
	app := newApp(installCertCommand)
	cfgPath := writeConfig(t, "certFile: /nonexistent/ca.pem\n")
	err := app.Run([]string{"device-doctor", "--config", cfgPath, "install-cert", "some-device"})
	if err == nil {
		t.Error("expected error loading the configured certificate")
	}
	if err != nil && strings.Contains(err.Error(), "certificate file is required") {
		t.Error("configured certFile should be used as the default")
	}
}

func TestDoctorCommand_Flags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, f := range doctorCommand.Flags {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}
	if !flagNames["fail-fast"] {
		t.Error("doctor should define --fail-fast")
	}
}
