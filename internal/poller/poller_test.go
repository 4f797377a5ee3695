package poller

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleet-dashboard/backend/internal/history"
	"github.com/fleet-dashboard/backend/internal/models"
	"github.com/fleet-dashboard/backend/internal/testutil"
)

func defaultOptions() Options {
	return Options{
		Interval:   50 * time.Millisecond,
		StaleAfter: 30 * time.Second,
		LogTail:    20,
	}
}

func seedDevice(mock *testutil.MockStore, device string, components ...string) {
	mock.SetList("devices:list", device)
	mock.SetValue(fmt.Sprintf("devices:%s:heartbeat", device), fmt.Sprintf("%d", time.Now().Unix()))
	mock.SetList(fmt.Sprintf("devices:%s:nodes", device), components...)
}

func TestPollOneDeviceOneComponent(t *testing.T) {
	mock := testutil.NewMockStore()
	seedDevice(mock, "robot1", "sensor")
	mock.SetValue("devices:robot1:sensor:status", "active")

	p := New(mock, defaultOptions())
	p.PollOnce(context.Background())

	snap := p.Snapshot()
	assert.True(t, snap.StoreOK)
	require.Len(t, snap.Devices, 1)

	device := snap.Devices[0]
	assert.Equal(t, "robot1", device.Name)
	assert.False(t, device.Stale)
	require.Len(t, device.Components, 1)
	assert.Equal(t, "sensor", device.Components[0].Name)
	assert.Equal(t, models.StatusActive, device.Components[0].Status)
	assert.Equal(t, "green", device.Components[0].Color)
}

func TestPollAbsentDeviceListYieldsEmptySet(t *testing.T) {
	mock := testutil.NewMockStore()

	p := New(mock, defaultOptions())
	p.PollOnce(context.Background())

	snap := p.Snapshot()
	assert.True(t, snap.StoreOK)
	assert.Empty(t, snap.Devices)
}

func TestPollAbsentStatusIsUnknown(t *testing.T) {
	mock := testutil.NewMockStore()
	seedDevice(mock, "robot1", "sensor")
	// No status key written.

	p := New(mock, defaultOptions())
	p.PollOnce(context.Background())

	component := p.Snapshot().Devices[0].Components[0]
	assert.Equal(t, models.StatusUnknown, component.Status)
	assert.Equal(t, "gray", component.Color)
}

func TestPollMalformedHeartbeatIsStaleNotFatal(t *testing.T) {
	mock := testutil.NewMockStore()
	mock.SetList("devices:list", "robot1")
	mock.SetValue("devices:robot1:heartbeat", "yesterday-ish")

	p := New(mock, defaultOptions())
	p.PollOnce(context.Background())

	device := p.Snapshot().Devices[0]
	assert.True(t, device.Stale)
	assert.Equal(t, "never", device.LastSeen)
}

func TestPollStaleHeartbeat(t *testing.T) {
	mock := testutil.NewMockStore()
	mock.SetList("devices:list", "robot1")
	old := time.Now().Add(-5 * time.Minute).Unix()
	mock.SetValue("devices:robot1:heartbeat", fmt.Sprintf("%d", old))

	p := New(mock, defaultOptions())
	p.PollOnce(context.Background())

	assert.True(t, p.Snapshot().Devices[0].Stale)
}

func TestPollDiscoversLogSources(t *testing.T) {
	mock := testutil.NewMockStore()
	mock.SetList("sensor:logs", "line one", "line two")
	mock.SetList("planner:logs", "planning")
	mock.SetList("dashboard:logs", "dashboard up")

	p := New(mock, defaultOptions())
	p.PollOnce(context.Background())

	bySource := map[string]int{}
	for _, e := range p.Snapshot().Logs {
		bySource[e.Source]++
	}
	assert.Equal(t, 2, bySource["sensor"])
	assert.Equal(t, 1, bySource["planner"])
	assert.Equal(t, 1, bySource["dashboard"])
}

func TestLogDiscoveryIsIdempotentWithinAPoll(t *testing.T) {
	mock := testutil.NewMockStore()
	mock.SetList("sensor:logs", "a", "b")

	p := New(mock, defaultOptions())
	first := p.pollLogs(context.Background())
	second := p.pollLogs(context.Background())
	assert.Equal(t, first, second)
	// Discovery really re-scanned both times rather than caching.
	assert.Equal(t, 2, mock.ScanCalls())
}

func TestPollBoundsLogTail(t *testing.T) {
	mock := testutil.NewMockStore()
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %03d", i)
	}
	mock.SetList("sensor:logs", lines...)

	opts := defaultOptions()
	opts.LogTail = 5
	p := New(mock, opts)
	p.PollOnce(context.Background())

	logs := p.Snapshot().Logs
	require.Len(t, logs, 5)
	// The tail is the most recent lines.
	assert.Equal(t, "line 095", logs[0].Line)
	assert.Equal(t, "line 099", logs[4].Line)
}

func TestPollStoreDownKeepsPreviousSnapshot(t *testing.T) {
	mock := testutil.NewMockStore()
	seedDevice(mock, "robot1", "sensor")
	mock.SetValue("devices:robot1:sensor:status", "active")

	p := New(mock, defaultOptions())
	p.PollOnce(context.Background())
	require.Len(t, p.Snapshot().Devices, 1)

	mock.FailAll = true
	mock.FailErr = errors.New("connection refused")
	p.PollOnce(context.Background())

	snap := p.Snapshot()
	assert.False(t, snap.StoreOK)
	// Last-known devices still render.
	require.Len(t, snap.Devices, 1)
	assert.Equal(t, "robot1", snap.Devices[0].Name)
}

func TestPollRemovesAbsentDevices(t *testing.T) {
	mock := testutil.NewMockStore()
	mock.SetList("devices:list", "robot1", "robot2")

	p := New(mock, defaultOptions())
	p.PollOnce(context.Background())
	require.Len(t, p.Snapshot().Devices, 2)

	// robot2 disappears from the list: gone on the next poll, no event.
	mock.SetList("devices:list", "robot1")
	p.PollOnce(context.Background())
	require.Len(t, p.Snapshot().Devices, 1)
	assert.Equal(t, "robot1", p.Snapshot().Devices[0].Name)
}

func TestPollTimelineSpans(t *testing.T) {
	mock := testutil.NewMockStore()
	seedDevice(mock, "robot1", "Monitor", "sensor")
	mock.SetValue("Monitor:start_execution", "1700000000.25")
	mock.SetValue("Monitor:execution_time", "0.734")

	p := New(mock, defaultOptions())
	p.PollOnce(context.Background())

	spans := p.Snapshot().Timeline
	require.Len(t, spans, 1)
	assert.Equal(t, "Monitor", spans[0].Source)
	assert.Equal(t, "Monitor", spans[0].Phase)
	assert.Equal(t, float64(1700000000), spans[0].Start)
	assert.InDelta(t, 0.734, spans[0].Duration, 1e-9)
	assert.NotEqual(t, "gray", spans[0].Color)
}

func TestPollRecordsStatusTransitions(t *testing.T) {
	mock := testutil.NewMockStore()
	seedDevice(mock, "robot1", "sensor")
	mock.SetValue("devices:robot1:sensor:status", "active")

	archive, err := history.Open(filepath.Join(t.TempDir(), "history.duckdb"))
	require.NoError(t, err)
	defer archive.Close()

	opts := defaultOptions()
	opts.Archive = archive
	p := New(mock, opts)

	ctx := context.Background()
	p.PollOnce(ctx)
	// First observation is not a transition.
	transitions, err := archive.Since(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, transitions)

	mock.SetValue("devices:robot1:sensor:status", "error")
	p.PollOnce(ctx)

	transitions, err = archive.Since(ctx, 0)
	require.NoError(t, err)
	require.Len(t, transitions, 1)
	assert.Equal(t, models.StatusActive, transitions[0].From)
	assert.Equal(t, models.StatusError, transitions[0].To)
}

func TestUnsubscribeRemovesAndClosesChannel(t *testing.T) {
	mock := testutil.NewMockStore()
	p := New(mock, defaultOptions())

	first := p.Subscribe()
	second := p.Subscribe()
	require.Len(t, p.subscribers, 2)

	p.Unsubscribe(first)
	require.Len(t, p.subscribers, 1)
	_, open := <-first
	assert.False(t, open)

	// Unsubscribing twice is a no-op.
	p.Unsubscribe(first)
	require.Len(t, p.subscribers, 1)

	p.Unsubscribe(second)
	assert.Empty(t, p.subscribers)

	// Polling with no subscribers left still works.
	p.PollOnce(context.Background())
	assert.NotNil(t, p.Snapshot())
}

func TestStartPollsOnInterval(t *testing.T) {
	mock := testutil.NewMockStore()
	mock.SetList("devices:list", "robot1")

	p := New(mock, defaultOptions())
	ch := p.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Start(ctx)

	var got int
	timeout := time.After(time.Second)
	for got < 2 {
		select {
		case snap := <-ch:
			assert.Len(t, snap.Devices, 1)
			got++
		case <-timeout:
			t.Fatalf("saw %d snapshots before timeout", got)
		}
	}
}
