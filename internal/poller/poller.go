// Package poller runs the discovery and polling loop: on a fixed interval
// it enumerates devices, components, statuses, heartbeats and log sources
// from the store and projects them into an immutable snapshot.
package poller

import (
	"context"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/fleet-dashboard/backend/internal/history"
	"github.com/fleet-dashboard/backend/internal/models"
	"github.com/fleet-dashboard/backend/internal/store"
	"github.com/fleet-dashboard/backend/internal/view"
)

// Options tune the polling loop.
type Options struct {
	Interval   time.Duration
	StaleAfter time.Duration
	// LogTail bounds how many lines are pulled per log source each cycle.
	LogTail int
	// Archive, when non-nil, receives status transitions.
	Archive *history.Archive
}

// Poller polls the store and holds the latest snapshot. One poll runs at a
// time: the ticker cycle only starts a new poll after the previous one has
// completed, so polls never overlap.
type Poller struct {
	store store.Store
	opts  Options

	mu       sync.RWMutex
	snapshot *models.Snapshot

	// prevStatus tracks the last seen status per device/component for
	// transition detection. Not part of the view model.
	prevStatus map[string]models.Status

	// Subscribers get a notification per completed poll.
	subMu       sync.Mutex
	subscribers []chan *models.Snapshot
}

// New creates a Poller. It does not poll until Start or PollOnce is called;
// until then Snapshot returns an empty snapshot.
func New(s store.Store, opts Options) *Poller {
	return &Poller{
		store:      s,
		opts:       opts,
		snapshot:   models.EmptySnapshot(),
		prevStatus: make(map[string]models.Status),
	}
}

// Subscribe returns a channel receiving each completed snapshot. Slow
// subscribers miss snapshots rather than blocking the loop.
func (p *Poller) Subscribe() <-chan *models.Snapshot {
	ch := make(chan *models.Snapshot, 4)
	p.subMu.Lock()
	p.subscribers = append(p.subscribers, ch)
	p.subMu.Unlock()
	return ch
}

// Unsubscribe removes a channel returned by Subscribe and closes it.
// Subscribers are per-connection, so every Subscribe needs a matching
// Unsubscribe or emit would service dead channels forever.
func (p *Poller) Unsubscribe(ch <-chan *models.Snapshot) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	for i, sub := range p.subscribers {
		if ch == sub {
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Snapshot returns the latest snapshot.
func (p *Poller) Snapshot() *models.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Start runs the polling loop until ctx is canceled. Call in a goroutine.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	// Immediate first poll.
	p.PollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce performs a single poll-project cycle and swaps in the result.
func (p *Poller) PollOnce(ctx context.Context) {
	now := time.Now()

	names, err := p.store.List(ctx, store.DeviceListKey)
	if err != nil {
		// Store unavailable: keep serving the previous data, flagged.
		log.Printf("[poller] device list unavailable: %v", err)
		p.mu.Lock()
		degraded := *p.snapshot
		degraded.TakenAt = now
		degraded.StoreOK = false
		p.snapshot = &degraded
		p.mu.Unlock()
		p.emit(&degraded)
		return
	}

	snap := &models.Snapshot{
		TakenAt:  now,
		Devices:  []models.Device{},
		Logs:     []models.LogEntry{},
		Timeline: []models.PhaseSpan{},
		StoreOK:  true,
	}

	components := make(map[string]struct{})
	for _, name := range dedupe(names) {
		device := p.pollDevice(ctx, name, now)
		for _, c := range device.Components {
			components[c.Name] = struct{}{}
		}
		snap.Devices = append(snap.Devices, device)
	}

	snap.Logs = p.pollLogs(ctx)
	snap.Timeline = p.pollTimeline(ctx, components)

	p.recordTransitions(ctx, snap, now)

	p.mu.Lock()
	p.snapshot = snap
	p.mu.Unlock()
	p.emit(snap)
}

func (p *Poller) pollDevice(ctx context.Context, name string, now time.Time) models.Device {
	device := models.Device{Name: name, Components: []models.Component{}}

	raw, ok, err := p.store.Get(ctx, store.HeartbeatKey(name))
	if err != nil {
		log.Printf("[poller] heartbeat for %s unavailable: %v", name, err)
	} else if ok {
		// A malformed heartbeat string parses as absent, not as an error.
		device.Heartbeat, _ = view.ParseHeartbeat(raw)
	}
	device.LastSeen, device.Stale = view.LastSeen(device.Heartbeat, now, p.opts.StaleAfter)

	nodes, err := p.store.List(ctx, store.NodesKey(name))
	if err != nil {
		log.Printf("[poller] nodes for %s unavailable: %v", name, err)
		nodes = nil
	}
	for _, node := range dedupe(nodes) {
		device.Components = append(device.Components, p.pollComponent(ctx, name, node))
	}
	return device
}

func (p *Poller) pollComponent(ctx context.Context, device, name string) models.Component {
	component := models.Component{Name: name, Device: device, Status: models.StatusUnknown}

	raw, ok, err := p.store.Get(ctx, store.StatusKey(device, name))
	if err != nil {
		log.Printf("[poller] status for %s/%s unavailable: %v", device, name, err)
	} else if ok {
		component.Status = view.NormalizeStatus(raw)
	}
	component.Color = view.StatusColor(component.Status)

	if phase := view.Phase(name); phase != "" {
		component.Phase = phase
		component.PhaseColor, _ = view.PhaseColor(phase)
	}
	return component
}

// pollLogs rediscovers log sources by pattern every cycle. Discovery is a
// lazy re-scan, never a cached index: sources appear and disappear under
// external mutation and a stale source set is unacceptable.
func (p *Poller) pollLogs(ctx context.Context) []models.LogEntry {
	keys, err := p.store.Scan(ctx, "*"+store.LogSuffix)
	if err != nil {
		log.Printf("[poller] log source scan failed: %v", err)
		keys = nil
	}

	sources := map[string]struct{}{store.DashboardSource: {}}
	for _, key := range keys {
		if source, ok := store.LogSource(key); ok {
			sources[source] = struct{}{}
		}
	}

	names := make([]string, 0, len(sources))
	for source := range sources {
		names = append(names, source)
	}
	sort.Strings(names)

	entries := []models.LogEntry{}
	for _, source := range names {
		lines, err := p.store.ListTail(ctx, store.LogKey(source), p.opts.LogTail)
		if err != nil {
			log.Printf("[poller] logs for %s unavailable: %v", source, err)
			continue
		}
		for _, line := range lines {
			entries = append(entries, view.TagLogLine(source, line))
		}
	}
	view.SortLogEntries(entries)
	return entries
}

func (p *Poller) pollTimeline(ctx context.Context, components map[string]struct{}) []models.PhaseSpan {
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	spans := []models.PhaseSpan{}
	for _, name := range names {
		rawStart, ok, err := p.store.Get(ctx, store.StartExecutionKey(name))
		if err != nil || !ok {
			continue
		}
		start, ok := view.ParseHeartbeat(rawStart)
		if !ok {
			continue
		}

		span := models.PhaseSpan{Source: name, Start: float64(start), Color: view.ColorUnknown}
		if phase := view.Phase(name); phase != "" {
			span.Phase = phase
			span.Color, _ = view.PhaseColor(phase)
		}
		if rawDur, ok, err := p.store.Get(ctx, store.ExecutionTimeKey(name)); err == nil && ok {
			if dur, ok := parseSeconds(rawDur); ok {
				span.Duration = dur
			}
		}
		spans = append(spans, span)
	}
	return spans
}

func (p *Poller) recordTransitions(ctx context.Context, snap *models.Snapshot, now time.Time) {
	seen := make(map[string]models.Status)
	for _, d := range snap.Devices {
		for _, c := range d.Components {
			key := d.Name + "/" + c.Name
			seen[key] = c.Status
			prev, known := p.prevStatus[key]
			if known && prev != c.Status && p.opts.Archive != nil {
				p.opts.Archive.Record(history.Transition{
					Device:     d.Name,
					Component:  c.Name,
					From:       prev,
					To:         c.Status,
					ObservedAt: now.Unix(),
				})
			}
		}
	}
	p.prevStatus = seen

	if p.opts.Archive != nil {
		if err := p.opts.Archive.Flush(ctx); err != nil {
			log.Printf("[poller] history flush failed: %v", err)
		}
	}
}

func (p *Poller) emit(snap *models.Snapshot) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	for _, ch := range p.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop if the subscriber is behind; it gets the next one.
		}
	}
}

func parseSeconds(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0:0]
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
