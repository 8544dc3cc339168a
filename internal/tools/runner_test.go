package tools

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func writeScript(t *testing.T, body string) *ExecRunner {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-adb")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return NewExecRunner(&Env{Paths: map[string]string{ADB: path}})
}

func TestRunCapturesStdout(t *testing.T) {
	r := writeScript(t, `echo "List of devices attached"; echo "ABC123	device"`)

	res, err := r.Run(context.Background(), ADB, "devices")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if res.Stdout != "List of devices attached\nABC123\tdevice\n" {
		t.Errorf("unexpected stdout: %q", res.Stdout)
	}
}

func TestRunReportsExitError(t *testing.T) {
	r := writeScript(t, `echo "error: no devices/emulators found" >&2; exit 3`)

	res, err := r.Run(context.Background(), ADB, "reboot")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if exitErr.Code != 3 || res.ExitCode != 3 {
		t.Errorf("exit code = %d/%d, want 3", exitErr.Code, res.ExitCode)
	}
	if exitErr.Stderr != "error: no devices/emulators found\n" {
		t.Errorf("unexpected stderr: %q", exitErr.Stderr)
	}
}

func TestRunTimesOut(t *testing.T) {
	r := writeScript(t, `exec sleep 5`)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx, ADB, "install", "big.apk")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestRunMissingTool(t *testing.T) {
	r := NewExecRunner(&Env{Paths: map[string]string{Scrcpy: filepath.Join(t.TempDir(), "scrcpy")}})

	_, err := r.Run(context.Background(), Scrcpy)
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestStartStreamsLinesUntilCancelled(t *testing.T) {
	r := writeScript(t, `echo first; echo second; exec sleep 5`)

	ctx, cancel := context.WithCancel(context.Background())
	proc, err := r.Start(ctx, ADB, "logcat")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	scanner := bufio.NewScanner(proc.Stdout())
	var lines []string
	for len(lines) < 2 && scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 2 || lines[0] != "first" || lines[1] != "second" {
		t.Fatalf("unexpected lines: %v", lines)
	}

	cancel()
	done := make(chan struct{})
	go func() {
		for scanner.Scan() {
		}
		_ = proc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("process did not exit after cancel")
	}
}
