package device

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/buckleypaul/adbdeck/internal/tools"
)

// ErrNotFound is returned when a label is not in the current snapshot.
var ErrNotFound = errors.New("device not found")

// DefaultListTimeout bounds each of the two listing commands.
const DefaultListTimeout = 15 * time.Second

// Registry polls adb and fastboot for devices and tracks which one is
// selected. Snapshots are swapped in whole; readers never see a partially
// built list.
type Registry struct {
	exec        tools.Executor
	listTimeout time.Duration

	mu       sync.RWMutex
	snapshot Snapshot
	selected string
}

// NewRegistry creates a registry that lists devices through exec.
func NewRegistry(exec tools.Executor) *Registry {
	return &Registry{
		exec:        exec,
		listTimeout: DefaultListTimeout,
	}
}

// Refresh lists ADB and Fastboot devices, publishes the combined snapshot
// and re-applies the selection policy. A failing tool contributes no
// records; it never aborts the other listing.
func (r *Registry) Refresh(ctx context.Context) Snapshot {
	var adbRecords, fbRecords []Record

	var g errgroup.Group
	g.Go(func() error {
		adbRecords = r.list(ctx, tools.ADB, ParseADBDevices)
		return nil
	})
	g.Go(func() error {
		fbRecords = r.list(ctx, tools.Fastboot, ParseFastbootDevices)
		return nil
	})
	_ = g.Wait()

	records := make([]Record, 0, len(adbRecords)+len(fbRecords))
	records = append(records, adbRecords...)
	records = append(records, fbRecords...)
	return r.Publish(records)
}

func (r *Registry) list(ctx context.Context, tool string, parse func(string) []Record) []Record {
	ctx, cancel := context.WithTimeout(ctx, r.listTimeout)
	defer cancel()

	res, err := r.exec.Run(ctx, tool, "devices")
	if err != nil {
		log.Warn().Err(err).Str("tool", tool).Msg("device listing failed")
		return nil
	}
	return parse(res.Stdout)
}

// Publish replaces the snapshot with records and applies the selection
// policy: keep the selected label if it is still present, otherwise pick
// the first record, otherwise select nothing.
func (r *Registry) Publish(records []Record) Snapshot {
	snap := Snapshot{
		Records: dedupe(records),
		TakenAt: time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.selected
	r.snapshot = snap
	if _, ok := snap.Find(prev); ok && prev != "" {
		return snap
	}
	if snap.Len() > 0 {
		r.selected = snap.Records[0].Label
	} else {
		r.selected = ""
	}
	if r.selected != prev {
		log.Debug().Str("from", prev).Str("to", r.selected).Msg("device selection changed")
	}
	return snap
}

// Snapshot returns the latest published snapshot.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Selected returns the selected record, if any.
func (r *Registry) Selected() (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.selected == "" {
		return Record{}, false
	}
	return r.snapshot.Find(r.selected)
}

// SelectByLabel makes label the selection.
func (r *Registry) SelectByLabel(label string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.snapshot.Find(label)
	if !ok {
		return Record{}, errors.Wrapf(ErrNotFound, "%q", label)
	}
	r.selected = label
	return rec, nil
}

// Restore seeds the selection with a remembered label before the first
// refresh. It only sticks if the next snapshot contains the label.
func (r *Registry) Restore(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = label
}

// Clear drops every record and the selection.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = Snapshot{TakenAt: time.Now()}
	r.selected = ""
}
