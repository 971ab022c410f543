package relay

import (
	"sync"

	"github.com/tangytongues/WatchTogether/internal/metrics"
)

// Registry is the connection registry: every open connection (joined or
// not) for the liveness monitor, plus the participant->connection and
// room->connections indexes the router fans out through. Delivery is
// best-effort and never surfaces an error to the sender.
type Registry struct {
	mu      sync.RWMutex
	conns   map[*Client]struct{}          // every open connection
	clients map[string]*Client            // participantID -> connection
	rooms   map[string]map[string]*Client // roomID -> participantID -> connection
}

func NewRegistry() *Registry {
	return &Registry{
		conns:   make(map[*Client]struct{}),
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// Add tracks a freshly-accepted connection before it has joined anywhere.
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	r.conns[c] = struct{}{}
	r.mu.Unlock()
	metrics.Connections.Inc()
}

// Remove drops the connection from all indexes.
func (r *Registry) Remove(c *Client) {
	r.mu.Lock()
	if _, ok := r.conns[c]; ok {
		delete(r.conns, c)
		metrics.Connections.Dec()
	}
	r.mu.Unlock()
}

// Bind registers the connection as the unique handler for a participant id.
// Rebinding overwrites silently.
func (r *Registry) Bind(roomID, participantID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[participantID] = c
	room, ok := r.rooms[roomID]
	if !ok {
		room = make(map[string]*Client)
		r.rooms[roomID] = room
	}
	room[participantID] = c
}

// Unbind removes the participant binding; later deliveries to that id are
// no-ops.
func (r *Registry) Unbind(roomID, participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, participantID)
	if room, ok := r.rooms[roomID]; ok {
		delete(room, participantID)
		if len(room) == 0 {
			delete(r.rooms, roomID)
		}
	}
}

// Deliver sends to exactly one participant. False means unbound or not
// writable; the sender is never told.
func (r *Registry) Deliver(participantID string, frame []byte) bool {
	r.mu.RLock()
	c, ok := r.clients[participantID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return c.Deliver(frame)
}

// Broadcast delivers to every connection bound in the room, skipping
// excludeID when non-empty.
func (r *Registry) Broadcast(roomID string, frame []byte, excludeID string) {
	r.mu.RLock()
	targets := make([]*Client, 0, len(r.rooms[roomID]))
	for pid, c := range r.rooms[roomID] {
		if excludeID != "" && pid == excludeID {
			continue
		}
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		c.Deliver(frame)
	}
}

// EachConn snapshots all open connections for the liveness monitor.
func (r *Registry) EachConn(fn func(*Client)) {
	r.mu.RLock()
	conns := make([]*Client, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		fn(c)
	}
}

func (r *Registry) ConnCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// RoomSize reports how many connections are bound into a room.
func (r *Registry) RoomSize(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}
