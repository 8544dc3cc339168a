// Package serial finds phones that only show up as USB serial ports, such
// as Qualcomm EDL or MediaTek preloader mode, which adb and fastboot
// cannot list.
package serial

import (
	"strings"

	"github.com/pkg/errors"
	"go.bug.st/serial/enumerator"
)

// PortInfo holds details about a serial port.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
}

// DownloadMode is a USB identity a phone takes in a flashing mode.
type DownloadMode struct {
	VID  string
	PID  string
	Name string
}

// KnownModes lists the download modes recognised by DownloadPorts.
var KnownModes = []DownloadMode{
	{VID: "05C6", PID: "9008", Name: "Qualcomm EDL"},
	{VID: "0E8D", PID: "2000", Name: "MediaTek preloader"},
	{VID: "0E8D", PID: "0003", Name: "MediaTek BROM"},
	{VID: "04E8", PID: "685D", Name: "Samsung Download"},
}

// DownloadPort is a serial port that belongs to a phone in download mode.
type DownloadPort struct {
	Port         string
	Mode         DownloadMode
	SerialNumber string
}

// Label renders the port the way device records are labelled.
func (p DownloadPort) Label() string {
	return p.Mode.Name + ": " + p.Port
}

var listDetailed = enumerator.GetDetailedPortsList

// ListPorts returns available serial ports.
func ListPorts() ([]PortInfo, error) {
	ports, err := listDetailed()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate serial ports")
	}

	var result []PortInfo
	for _, p := range ports {
		result = append(result, PortInfo{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
		})
	}
	return result, nil
}

// DownloadPorts returns the ports of phones currently in a known download
// mode.
func DownloadPorts() ([]DownloadPort, error) {
	ports, err := ListPorts()
	if err != nil {
		return nil, err
	}
	return Match(ports), nil
}

// Match filters ports down to USB devices whose VID:PID is a known
// download mode. IDs compare case-insensitively.
func Match(ports []PortInfo) []DownloadPort {
	var found []DownloadPort
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		for _, m := range KnownModes {
			if strings.EqualFold(p.VID, m.VID) && strings.EqualFold(p.PID, m.PID) {
				found = append(found, DownloadPort{Port: p.Name, Mode: m, SerialNumber: p.SerialNumber})
				break
			}
		}
	}
	return found
}
