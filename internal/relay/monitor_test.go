package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// evictingMonitor routes termination through the disconnect path instead of
// closing a live socket, which these clients do not have.
func evictingMonitor(rt *Router, reg *Registry) *Monitor {
	m := NewMonitor(reg, time.Minute)
	m.terminate = func(c *Client) {
		reg.Remove(c)
		rt.HandleDisconnect(context.Background(), c)
	}
	return m
}

func TestSweepEvictsAfterMissedHeartbeat(t *testing.T) {
	rt, reg, store := newTestRouter()
	m := evictingMonitor(rt, reg)

	alice := joinRoom(t, rt, reg, "r1", "alice")
	bob := joinRoom(t, rt, reg, "r1", "bob")
	drainFrames(alice)
	drainFrames(bob)

	// First sweep finds everyone alive from the initial grace flag and
	// rearms. Bob then pongs; Alice stays silent.
	m.sweep()
	bob.markAlive()

	m.sweep()

	assert.Equal(t, StateLeft, alice.State(), "silent connection is evicted on the second sweep")
	assert.Equal(t, StateJoined, bob.State())

	roster := decodeRoster(t, recvEnvelope(t, bob))
	require.Len(t, roster, 1)
	assert.Equal(t, "bob", roster[0].Username)
	assert.Zero(t, pendingFrames(bob), "eviction produces exactly one roster update")

	participants, err := store.ListRoomParticipants(context.Background(), "r1")
	require.NoError(t, err)
	assert.Len(t, participants, 1)
}

func TestSweepSparesRespondingConnections(t *testing.T) {
	rt, reg, _ := newTestRouter()
	m := evictingMonitor(rt, reg)

	alice := joinRoom(t, rt, reg, "r1", "alice")
	drainFrames(alice)

	for i := 0; i < 5; i++ {
		m.sweep()
		alice.markAlive()
	}

	assert.Equal(t, StateJoined, alice.State())
	assert.Equal(t, 1, reg.ConnCount())
}

func TestSweepEvictsUnjoinedConnections(t *testing.T) {
	rt, reg, _ := newTestRouter()
	m := evictingMonitor(rt, reg)

	c := newClient(nil)
	reg.Add(c)

	m.sweep()
	m.sweep()

	assert.Zero(t, reg.ConnCount(), "a connection that never joined is still swept")
}

func TestSweepEvictingLastParticipantDeletesRoom(t *testing.T) {
	rt, reg, store := newTestRouter()
	m := evictingMonitor(rt, reg)

	alice := joinRoom(t, rt, reg, "r1", "alice")
	drainFrames(alice)

	m.sweep()
	m.sweep()

	_, err := store.GetRoom(context.Background(), "r1")
	assert.Error(t, err, "room emptied by eviction is deleted")
	assert.Zero(t, reg.RoomSize("r1"))
}

func TestMonitorRunStopsOnContextCancel(t *testing.T) {
	_, reg, _ := newTestRouter()
	m := NewMonitor(reg, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after context cancellation")
	}
}
