package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/buckleypaul/adbdeck/internal/device"
)

// Probe is one titled read-only shell query.
type Probe struct {
	Title   string
	Command string
}

// ProbeSet groups probes that share a per-command timeout.
type ProbeSet struct {
	Name    string
	Timeout time.Duration
	Probes  []Probe
}

// ProbeResult is the rendered answer to one probe.
type ProbeResult struct {
	Title  string
	Output string
	OK     bool
}

// HardwareProbes queries service and hardware state through dumpsys and
// settings.
var HardwareProbes = ProbeSet{
	Name:    "Hardware and services",
	Timeout: 30 * time.Second,
	Probes: []Probe{
		{"Wi-Fi", "dumpsys wifi | grep -E 'Wi-Fi is|mNetworkInfo|mWifiInfo'"},
		{"Bluetooth", "dumpsys bluetooth_manager | grep 'State'"},
		{"Location", "settings get secure location_mode; echo -n 'providers: '; settings get secure location_providers_allowed"},
		{"Display", "dumpsys display | grep 'mScreenState'"},
		{"Battery", "dumpsys battery | grep -E 'level:|status:|AC powered|USB powered|temperature:'"},
		{"Camera service", "service list | grep camera"},
		{"Memory", "dumpsys meminfo | head -n 10"},
	},
}

// SystemProbes reads ro.* properties and a few system facts.
var SystemProbes = ProbeSet{
	Name:    "System properties",
	Timeout: 45 * time.Second,
	Probes: []Probe{
		{"Model / brand", "getprop ro.product.model; echo -n ' / '; getprop ro.product.brand"},
		{"Android version / API", "getprop ro.build.version.release; echo -n ' / API: '; getprop ro.build.version.sdk"},
		{"Build fingerprint", "getprop ro.build.fingerprint"},
		{"CPU ABI / platform", "getprop ro.product.cpu.abi; echo -n ' / '; getprop ro.board.platform"},
		{"Kernel", "uname -a"},
		{"Storage (/data)", "df -h /data"},
		{"adbd state", "getprop init.svc.adbd"},
	},
}

// RunProbes validates that sel can take shell commands, then runs every
// probe in order. A failing probe records its error and the rest still
// run.
func (d *Dispatcher) RunProbes(ctx context.Context, set ProbeSet, sel *device.Record) ([]ProbeResult, error) {
	if err := d.Validate(Shell(""), sel); err != nil {
		return nil, err
	}

	results := make([]ProbeResult, 0, len(set.Probes))
	for _, p := range set.Probes {
		results = append(results, d.probe(ctx, set.Timeout, p, sel))
	}
	return results, nil
}

func (d *Dispatcher) probe(ctx context.Context, timeout time.Duration, p Probe, sel *device.Record) ProbeResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := Shell(p.Command).Build(sel)
	res, err := d.exec.Run(ctx, cmd.Tool, cmd.Argv()...)

	out := Outcome{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}
	classify(&out, err)
	if out.OK() {
		return ProbeResult{Title: p.Title, Output: strings.TrimSpace(out.Stdout), OK: true}
	}

	msg := strings.TrimSpace(out.Stderr)
	if msg == "" && out.Err != nil {
		msg = out.Err.Error()
	}
	return ProbeResult{Title: p.Title, Output: "error: " + msg}
}

// RenderProbes formats results as titled blocks.
func RenderProbes(results []ProbeResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("[" + r.Title + "]\n")
		out := r.Output
		if out == "" {
			out = "(empty)"
		}
		b.WriteString(out + "\n")
	}
	return b.String()
}
