package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/buckleypaul/adbdeck/internal/device"
	"github.com/buckleypaul/adbdeck/internal/dispatch"
	"github.com/buckleypaul/adbdeck/internal/logcat"
	"github.com/buckleypaul/adbdeck/internal/logging"
	"github.com/buckleypaul/adbdeck/internal/tools"
)

// cliSession opens a session for a one-shot subcommand: console logging,
// a fresh device listing and the device named by --serial selected.
func cliSession(cmd *cobra.Command) (*session, error) {
	s, err := openSession()
	if err != nil {
		return nil, err
	}
	logging.Console(cmd.ErrOrStderr(), s.cfg.LogLevel)

	snap := s.deck.Refresh(cmd.Context())
	serial, _ := cmd.Flags().GetString("serial")
	if serial == "" {
		return s, nil
	}
	for _, r := range snap.Records {
		if r.Serial == serial {
			if _, err := s.deck.SelectByLabel(r.Label); err != nil {
				s.deck.Close()
				return nil, err
			}
			return s, nil
		}
	}
	s.deck.Close()
	return nil, errors.Wrapf(device.ErrNotFound, "serial %s", serial)
}

func addSerialFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("serial", "s", "", "device serial (default: last used, else first listed)")
}

func newDevicesCmd() *cobra.Command {
	var showTools bool
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List ADB, Fastboot and download-mode devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cliSession(cmd)
			if err != nil {
				return err
			}
			defer s.deck.Close()

			out := cmd.OutOrStdout()
			snap := s.deck.Snapshot()
			sel, hasSel := s.deck.Selected()
			for _, r := range snap.Records {
				mark := " "
				if hasSel && r.Label == sel.Label {
					mark = "*"
				}
				fmt.Fprintf(out, "%s %-9s %-24s %s\n", mark, r.Mode, r.Serial, r.Status)
			}
			fmt.Fprintln(out, snap.Summary())

			ports, err := s.deck.DownloadPorts()
			if err != nil {
				log.Warn().Err(err).Msg("serial port scan failed")
			}
			for _, p := range ports {
				fmt.Fprintf(out, "  %s\n", p.Label())
			}

			if showTools {
				for _, st := range s.deck.CheckTools(cmd.Context()) {
					if st.Err != nil {
						fmt.Fprintf(out, "%-9s %v\n", st.Tool, st.Err)
						continue
					}
					fmt.Fprintf(out, "%-9s %s\n", st.Tool, st.Version)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showTools, "tools", false, "also print adb and fastboot versions")
	return cmd
}

// rawRequest turns `adb reboot recovery` style arguments into a request
// for the selected device. Bootloader lock and unlock must go through
// their own commands so the confirmation phrase is checked.
func rawRequest(args []string) (dispatch.Request, error) {
	if len(args) == 0 {
		return dispatch.Request{}, errors.New("missing tool")
	}
	tool := args[0]
	switch tool {
	case tools.ADB, tools.Fastboot, tools.Scrcpy:
	default:
		return dispatch.Request{}, errors.Errorf("unsupported tool %q (want adb, fastboot or scrcpy)", tool)
	}
	if tool == tools.Fastboot && len(args) > 2 && args[1] == "flashing" && (args[2] == "lock" || args[2] == "unlock") {
		return dispatch.Request{}, errors.Errorf("use `adbdeck %s --confirm <phrase>` instead", args[2])
	}

	req := dispatch.Request{
		Tool:         tool,
		Args:         args[1:],
		Description:  "Run: " + strings.Join(args, " "),
		InjectDevice: true,
		NoTimeout:    tool == tools.Scrcpy,
	}
	switch {
	case req.ServerLifecycle():
		req.InjectDevice = false
	case tool == tools.ADB && len(args) > 1 && args[1] == "shell":
		req.Sink = dispatch.SinkShell
	}
	return req, nil
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run -- <adb|fastboot|scrcpy> [args...]",
		Short: "Run one command against the selected device",
		Example: "  adbdeck run -- adb reboot recovery\n" +
			"  adbdeck run -s ABC123 -- adb shell getprop ro.product.model",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := rawRequest(args)
			if err != nil {
				return err
			}
			s, err := cliSession(cmd)
			if err != nil {
				return err
			}
			defer s.deck.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			done := make(chan dispatch.Outcome, 1)
			if err := s.deck.Dispatch(ctx, req, func(o dispatch.Outcome) { done <- o }); err != nil {
				return err
			}
			return printOutcome(cmd, <-done)
		},
	}
	addSerialFlag(cmd)
	return cmd
}

func printOutcome(cmd *cobra.Command, o dispatch.Outcome) error {
	if o.Stdout != "" {
		io.WriteString(cmd.OutOrStdout(), o.Stdout)
	}
	if o.Stderr != "" {
		io.WriteString(cmd.ErrOrStderr(), o.Stderr)
	}
	if o.OK() {
		return nil
	}
	if o.Err != nil {
		return errors.Wrapf(o.Err, "%s: %s", o.Command, o.Kind)
	}
	return errors.Errorf("%s: %s", o.Command, o.Kind)
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "info <hardware|system>",
		Short:     "Query hardware state or system properties",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"hardware", "system"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var set dispatch.ProbeSet
			switch args[0] {
			case "hardware":
				set = dispatch.HardwareProbes
			case "system":
				set = dispatch.SystemProbes
			default:
				return errors.Errorf("unknown probe set %q", args[0])
			}

			s, err := cliSession(cmd)
			if err != nil {
				return err
			}
			defer s.deck.Close()

			done := make(chan []dispatch.ProbeResult, 1)
			if err := s.deck.Probe(cmd.Context(), set, func(r []dispatch.ProbeResult) { done <- r }); err != nil {
				return err
			}
			io.WriteString(cmd.OutOrStdout(), dispatch.RenderProbes(<-done))
			return nil
		},
	}
	addSerialFlag(cmd)
	return cmd
}

func newScreenshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screenshot",
		Short: "Capture the screen to the screenshot folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cliSession(cmd)
			if err != nil {
				return err
			}
			defer s.deck.Close()

			type result struct {
				out  dispatch.Outcome
				path string
			}
			done := make(chan result, 1)
			err = s.deck.Screenshot(cmd.Context(), func(o dispatch.Outcome, path string) {
				done <- result{o, path}
			})
			if err != nil {
				return err
			}
			r := <-done
			if err := printOutcome(cmd, r.out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), r.path)
			return nil
		},
	}
	addSerialFlag(cmd)
	return cmd
}

func newLogcatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logcat",
		Short: "Stream logcat until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cliSession(cmd)
			if err != nil {
				return err
			}
			defer s.deck.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			exited := make(chan logcat.Exit, 1)
			err = s.deck.StartLogcat(
				func(line string) { fmt.Fprintln(out, line) },
				func(e logcat.Exit) { exited <- e },
			)
			if err != nil {
				return err
			}

			select {
			case <-ctx.Done():
				s.deck.StopLogcat()
				return nil
			case e := <-exited:
				if e.Err != nil {
					return errors.Wrapf(e.Err, "logcat for %s ended", e.Serial)
				}
				return nil
			}
		},
	}
	addSerialFlag(cmd)
	return cmd
}

func newFlashingCmd(action string) *cobra.Command {
	var confirm string
	req := dispatch.FlashingLock()
	if action == "unlock" {
		req = dispatch.FlashingUnlock()
	}

	cmd := &cobra.Command{
		Use:   action,
		Short: req.Description,
		Long: fmt.Sprintf("Runs `fastboot flashing %s` on the selected Fastboot device. "+
			"The --confirm value must match the confirmation phrase exactly.", action),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cliSession(cmd)
			if err != nil {
				return err
			}
			defer s.deck.Close()

			done := make(chan dispatch.Outcome, 1)
			ok, err := s.deck.DispatchConfirmed(context.Background(), req, confirm, func(o dispatch.Outcome) { done <- o })
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "Cancelled. Pass --confirm %q to continue.\n", s.deck.ConfirmPhrase())
				return nil
			}
			return printOutcome(cmd, <-done)
		},
	}
	addSerialFlag(cmd)
	cmd.Flags().StringVar(&confirm, "confirm", "", "confirmation phrase")
	return cmd
}
