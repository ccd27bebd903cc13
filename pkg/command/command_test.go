package command

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestShell_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell utilities")
	}

	sh := NewShell(10 * time.Second)
	out, err := sh.Run(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out != "hello" {
		t.Errorf("Run() = %q, want %q", out, "hello")
	}
}

func TestShell_ExitError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell utilities")
	}

	sh := NewShell(10 * time.Second)
	_, err := sh.Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	if err == nil {
		t.Fatal("Run() should fail for non-zero exit")
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %T: %v", err, err)
	}
	if exitErr.Code != 3 {
		t.Errorf("Code = %d, want 3", exitErr.Code)
	}
	if exitErr.Stderr != "boom" {
		t.Errorf("Stderr = %q, want %q", exitErr.Stderr, "boom")
	}
	if !strings.Contains(exitErr.Error(), "sh -c") {
		t.Errorf("error should carry the command line, got: %v", exitErr)
	}
}

func TestShell_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell utilities")
	}

	sh := NewShell(100 * time.Millisecond)
	_, err := sh.Run(context.Background(), "sleep", "5")
	if err == nil {
		t.Fatal("Run() should time out")
	}

	var toErr *TimeoutError
	if !errors.As(err, &toErr) {
		t.Fatalf("expected *TimeoutError, got %T: %v", err, err)
	}
}

func TestFake_ScriptMatching(t *testing.T) {
	f := NewFake()
	f.Script("adb -s emulator-5554 get-state", FakeResult{Stdout: "device"})
	f.Script("adb", FakeResult{Stdout: "generic"})

	// Longest prefix wins.
	out, err := f.Run(context.Background(), "adb", "-s", "emulator-5554", "get-state")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out != "device" {
		t.Errorf("Run() = %q, want %q", out, "device")
	}

	out, _ = f.Run(context.Background(), "adb", "devices")
	if out != "generic" {
		t.Errorf("Run() = %q, want %q", out, "generic")
	}

	if !f.Called("adb -s emulator-5554") {
		t.Error("Called() should report recorded invocation")
	}
	if len(f.Calls) != 2 {
		t.Errorf("recorded %d calls, want 2", len(f.Calls))
	}
}
