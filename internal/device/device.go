package device

import (
	"fmt"
	"strings"
	"time"
)

// Mode is the protocol state a device was discovered in.
type Mode int

const (
	ModeADB Mode = iota
	ModeFastboot
)

func (m Mode) String() string {
	switch m {
	case ModeADB:
		return "ADB"
	case ModeFastboot:
		return "Fastboot"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Status values reported by `adb devices`. Anything else is passed through.
const (
	StatusDevice       = "device"
	StatusUnauthorized = "unauthorized"
	StatusOffline      = "offline"
	StatusFastboot     = "fastboot"
)

// Record is one endpoint reported by adb or fastboot.
type Record struct {
	Serial string
	Mode   Mode
	Status string
	Label  string
}

// Authorized reports whether an ADB-mode record has accepted the host key.
func (r Record) Authorized() bool {
	return r.Mode == ModeADB && r.Status == StatusDevice
}

// NewRecord builds a record with its display label filled in.
func NewRecord(serial string, mode Mode, status string) Record {
	return Record{
		Serial: serial,
		Mode:   mode,
		Status: status,
		Label:  labelFor(serial, mode, status),
	}
}

func labelFor(serial string, mode Mode, status string) string {
	if mode == ModeFastboot {
		return fmt.Sprintf("Fastboot: %s (connected)", serial)
	}
	switch status {
	case StatusDevice:
		return fmt.Sprintf("ADB: %s (connected)", serial)
	case StatusUnauthorized:
		return fmt.Sprintf("ADB: %s (unauthorized)", serial)
	default:
		return fmt.Sprintf("ADB: %s (%s)", serial, status)
	}
}

// Snapshot is the result of one refresh. It is never mutated after it is
// published.
type Snapshot struct {
	Records []Record
	TakenAt time.Time
}

// Len returns the number of records.
func (s Snapshot) Len() int { return len(s.Records) }

// Find returns the record with the given label.
func (s Snapshot) Find(label string) (Record, bool) {
	for _, r := range s.Records {
		if r.Label == label {
			return r, true
		}
	}
	return Record{}, false
}

// Labels returns the display labels in list order.
func (s Snapshot) Labels() []string {
	labels := make([]string, 0, len(s.Records))
	for _, r := range s.Records {
		labels = append(labels, r.Label)
	}
	return labels
}

// Counts returns the number of ADB and Fastboot records.
func (s Snapshot) Counts() (adb, fastboot int) {
	for _, r := range s.Records {
		if r.Mode == ModeFastboot {
			fastboot++
		} else {
			adb++
		}
	}
	return adb, fastboot
}

// Summary renders the one-line status shown in the header.
func (s Snapshot) Summary() string {
	adb, fb := s.Counts()
	if adb+fb == 0 {
		return "No devices connected"
	}
	return fmt.Sprintf("%d device(s) connected (ADB: %d, Fastboot: %d)", adb+fb, adb, fb)
}

// ParseADBDevices parses `adb devices` output. The header line, daemon
// status lines (starting with "*") and lines with fewer than two fields
// are skipped.
func ParseADBDevices(out string) []Record {
	var records []Record
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "List") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		records = append(records, NewRecord(fields[0], ModeADB, fields[1]))
	}
	return records
}

// ParseFastbootDevices parses `fastboot devices` output. Every non-blank
// line names one device; the mode tag is ignored.
func ParseFastbootDevices(out string) []Record {
	var records []Record
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 1 {
			continue
		}
		records = append(records, NewRecord(fields[0], ModeFastboot, StatusFastboot))
	}
	return records
}

type recordKey struct {
	serial string
	mode   Mode
}

// dedupe keeps the first record for each serial and mode. Labels are
// derived from serial and mode, so they stay unique as well.
func dedupe(records []Record) []Record {
	seen := make(map[recordKey]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		k := recordKey{r.Serial, r.Mode}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
