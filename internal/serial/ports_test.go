package serial

import (
	"testing"

	"github.com/pkg/errors"
	"go.bug.st/serial/enumerator"
)

func TestMatchKnownModes(t *testing.T) {
	ports := []PortInfo{
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "05c6", PID: "9008"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "2341", PID: "0043"},
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyACM1", IsUSB: true, VID: "0E8D", PID: "2000", SerialNumber: "MT1"},
	}

	found := Match(ports)
	if len(found) != 2 {
		t.Fatalf("expected 2 download ports, got %+v", found)
	}
	if found[0].Port != "/dev/ttyUSB0" || found[0].Mode.Name != "Qualcomm EDL" {
		t.Errorf("unexpected first port %+v", found[0])
	}
	if found[1].Label() != "MediaTek preloader: /dev/ttyACM1" || found[1].SerialNumber != "MT1" {
		t.Errorf("unexpected second port %+v", found[1])
	}
}

func TestMatchIgnoresNonUSB(t *testing.T) {
	found := Match([]PortInfo{{Name: "/dev/ttyS1", VID: "05C6", PID: "9008"}})
	if len(found) != 0 {
		t.Fatalf("non-USB ports must not match, got %+v", found)
	}
}

func TestDownloadPortsUsesEnumerator(t *testing.T) {
	saved := listDetailed
	defer func() { listDetailed = saved }()

	listDetailed = func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "COM7", IsUSB: true, VID: "04E8", PID: "685D"},
		}, nil
	}
	found, err := DownloadPorts()
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].Mode.Name != "Samsung Download" {
		t.Fatalf("unexpected ports %+v", found)
	}

	listDetailed = func() ([]*enumerator.PortDetails, error) {
		return nil, errors.New("permission denied")
	}
	if _, err := DownloadPorts(); err == nil {
		t.Fatal("expected enumerator error")
	}
}
