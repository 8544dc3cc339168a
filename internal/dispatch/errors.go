package dispatch

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/buckleypaul/adbdeck/internal/device"
	"github.com/buckleypaul/adbdeck/internal/tools"
)

var (
	// ErrNoDeviceSelected is returned when a device-bound action is
	// requested with nothing selected.
	ErrNoDeviceSelected = errors.New("no device selected")

	// ErrConfirmationRejected is returned when the confirmation text does
	// not match the required phrase.
	ErrConfirmationRejected = errors.New("confirmation text does not match; operation cancelled")

	// ErrConfirmationRequired is returned when a destructive request is
	// dispatched without going through the confirmation gate.
	ErrConfirmationRequired = errors.New("this operation requires confirmation")

	// ErrToolNotFound and ErrTimeout are re-exported so callers only need
	// this package to branch on outcomes.
	ErrToolNotFound = tools.ErrToolNotFound
	ErrTimeout      = tools.ErrTimeout
)

// ModeMismatchError means the tool cannot talk to a device in its
// current mode.
type ModeMismatchError struct {
	Tool string
	Want device.Mode
	Got  device.Mode
}

func (e *ModeMismatchError) Error() string {
	return fmt.Sprintf("%s commands need a device in %s mode; selected device is in %s mode", e.Tool, e.Want, e.Got)
}

// UnauthorizedError means the ADB device has not accepted the host key.
type UnauthorizedError struct {
	Serial string
	Status string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("device %s is %q; check that USB debugging is authorized", e.Serial, e.Status)
}

// ProcessError reports a command that exited non-zero.
type ProcessError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("command failed (exit code %d): %s", e.ExitCode, e.Stderr)
}
