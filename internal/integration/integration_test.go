//go:build integration

package integration

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/buckleypaul/adbdeck/internal/coordinator"
	"github.com/buckleypaul/adbdeck/internal/dispatch"
	"github.com/buckleypaul/adbdeck/internal/tools"
)

// requireADB skips the test unless a real adb binary is on PATH.
func requireADB(t *testing.T) *coordinator.Coordinator {
	t.Helper()
	if _, err := exec.LookPath(tools.ADB); err != nil {
		t.Skip("adb not on PATH; skipping integration tests")
	}
	c := coordinator.New(tools.NewExecRunner(tools.DetectEnv(nil)), nil, coordinator.Options{
		Timeout: 30 * time.Second,
	})
	t.Cleanup(c.Close)
	return c
}

// TestIntegrationToolVersions checks that the real tools answer --version.
func TestIntegrationToolVersions(t *testing.T) {
	c := requireADB(t)

	for _, st := range c.CheckTools(context.Background()) {
		if st.Tool == tools.ADB && st.Err != nil {
			t.Fatalf("adb --version failed: %v", st.Err)
		}
		t.Logf("%s: %s (err=%v)", st.Tool, st.Version, st.Err)
	}
}

// TestIntegrationStartServerAndList starts the adb server and lists
// devices. It passes with no device attached.
func TestIntegrationStartServerAndList(t *testing.T) {
	c := requireADB(t)

	done := make(chan dispatch.Outcome, 1)
	if err := c.Dispatch(context.Background(), dispatch.StartServer(), func(o dispatch.Outcome) { done <- o }); err != nil {
		t.Fatalf("start-server rejected: %v", err)
	}
	select {
	case out := <-done:
		if !out.OK() {
			t.Fatalf("start-server failed: %s %v", out.Kind, out.Err)
		}
	case <-time.After(45 * time.Second):
		t.Fatal("start-server did not finish")
	}

	snap := c.Refresh(context.Background())
	t.Logf("%s", snap.Summary())
	for _, r := range snap.Records {
		if r.Serial == "" {
			t.Errorf("record with empty serial: %+v", r)
		}
	}
}

// TestIntegrationShellOnFirstDevice runs a read-only shell command when an
// authorized device is attached.
func TestIntegrationShellOnFirstDevice(t *testing.T) {
	c := requireADB(t)

	c.Refresh(context.Background())
	sel, ok := c.Selected()
	if !ok || !sel.Authorized() {
		t.Skip("no authorized ADB device attached")
	}

	done := make(chan dispatch.Outcome, 1)
	if err := c.Dispatch(context.Background(), dispatch.Shell("getprop ro.build.version.sdk"), func(o dispatch.Outcome) { done <- o }); err != nil {
		t.Fatal(err)
	}
	out := <-done
	if !out.OK() || out.Stdout == "" {
		t.Fatalf("unexpected outcome %+v", out)
	}
}
