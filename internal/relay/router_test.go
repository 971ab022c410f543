package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tangytongues/WatchTogether/internal/entity"
	"github.com/tangytongues/WatchTogether/internal/repo"
	"github.com/tangytongues/WatchTogether/internal/repo/memory"
)

func newTestRouter() (*Router, *Registry, *memory.Store) {
	store := memory.NewStore()
	reg := NewRegistry()
	return NewRouter(store, reg), reg, store
}

// inboundFrame builds the wire bytes a browser would send.
func inboundFrame(t *testing.T, typ string, payload any) []byte {
	t.Helper()
	frame, err := marshalFrame(typ, payload)
	require.NoError(t, err)
	return frame
}

// recvEnvelope pops the next queued outbound frame, failing if none is
// pending.
func recvEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case data := <-c.send:
		var env Envelope
		require.NoError(t, codec.Unmarshal(data, &env))
		return env
	default:
		t.Fatal("expected a queued frame, found none")
		return Envelope{}
	}
}

func pendingFrames(c *Client) int {
	return len(c.send)
}

func drainFrames(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

// joinRoom connects a fresh client and joins it, returning the client and
// its assigned participant id. The join snapshot is left queued.
func joinRoom(t *testing.T, rt *Router, reg *Registry, roomID, username string) *Client {
	t.Helper()
	c := newClient(nil)
	reg.Add(c)
	rt.HandleFrame(context.Background(), c, inboundFrame(t, TypeJoinRoom, JoinRoomPayload{
		RoomID:   roomID,
		Username: username,
	}))
	require.Equal(t, StateJoined, c.State(), "join should bind the connection")
	return c
}

func decodeJoined(t *testing.T, env Envelope) JoinedPayload {
	t.Helper()
	require.Equal(t, TypeJoinRoom, env.Type)
	var snap JoinedPayload
	require.NoError(t, codec.Unmarshal(env.Payload, &snap))
	return snap
}

func decodeRoster(t *testing.T, env Envelope) []entity.Participant {
	t.Helper()
	require.Equal(t, TypeParticipantUpdate, env.Type)
	var upd RosterPayload
	require.NoError(t, codec.Unmarshal(env.Payload, &upd))
	return upd.Participants
}

func TestJoinCreatesRoomWithDefaults(t *testing.T) {
	rt, reg, store := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	snap := decodeJoined(t, recvEnvelope(t, alice))

	require.NotNil(t, snap.Room)
	assert.Equal(t, "r1", snap.Room.ID)
	assert.Equal(t, "Room r1", snap.Room.Name, "missing room name falls back to a generated one")
	assert.Equal(t, "r1", snap.Room.HostID)
	assert.Equal(t, "default", snap.Room.Theme)
	assert.Equal(t, "grid", snap.Room.Layout)

	require.Len(t, snap.Participants, 1)
	assert.Equal(t, snap.ParticipantID, snap.Participants[0].ID)
	assert.Equal(t, "alice", snap.Participants[0].Username)
	assert.True(t, snap.Participants[0].IsHost, "first joiner becomes host")
	assert.Empty(t, snap.Messages)

	room, err := store.GetRoom(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "Room r1", room.Name)
}

func TestJoinUsesProvidedRoomName(t *testing.T) {
	rt, reg, _ := newTestRouter()

	c := newClient(nil)
	reg.Add(c)
	rt.HandleFrame(context.Background(), c, inboundFrame(t, TypeJoinRoom, JoinRoomPayload{
		RoomID:   "movie-night",
		Username: "alice",
		RoomName: "Friday Movie Night",
	}))

	snap := decodeJoined(t, recvEnvelope(t, c))
	assert.Equal(t, "Friday Movie Night", snap.Room.Name)
}

func TestJoinSecondParticipantIsNotHost(t *testing.T) {
	rt, reg, _ := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	drainFrames(alice)

	bob := joinRoom(t, rt, reg, "r1", "bob")
	snap := decodeJoined(t, recvEnvelope(t, bob))

	require.Len(t, snap.Participants, 2)
	hosts := 0
	for _, p := range snap.Participants {
		if p.IsHost {
			hosts++
			assert.Equal(t, "alice", p.Username)
		}
	}
	assert.Equal(t, 1, hosts, "a room has exactly one host")
}

func TestJoinBroadcastsRosterToOthersOnly(t *testing.T) {
	rt, reg, _ := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	drainFrames(alice)

	bob := joinRoom(t, rt, reg, "r1", "bob")

	roster := decodeRoster(t, recvEnvelope(t, alice))
	assert.Len(t, roster, 2)

	// Bob's only frame is his snapshot; the roster he already has is not
	// re-sent to him.
	decodeJoined(t, recvEnvelope(t, bob))
	assert.Zero(t, pendingFrames(bob))
}

func TestJoinIgnoredWhenAlreadyJoined(t *testing.T) {
	rt, reg, store := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	drainFrames(alice)

	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeJoinRoom, JoinRoomPayload{
		RoomID:   "r2",
		Username: "alice",
	}))

	assert.Zero(t, pendingFrames(alice), "second join is dropped without a reply")
	_, err := store.GetRoom(context.Background(), "r2")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestJoinValidation(t *testing.T) {
	rt, reg, _ := newTestRouter()

	for name, payload := range map[string]JoinRoomPayload{
		"missing room id":  {Username: "alice"},
		"missing username": {RoomID: "r1"},
	} {
		t.Run(name, func(t *testing.T) {
			c := newClient(nil)
			reg.Add(c)
			rt.HandleFrame(context.Background(), c, inboundFrame(t, TypeJoinRoom, payload))
			assert.Equal(t, StateUnjoined, c.State())
			assert.Zero(t, pendingFrames(c))
		})
	}
}

func TestChatEchoesToEveryoneAndPersists(t *testing.T) {
	rt, reg, store := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	bob := joinRoom(t, rt, reg, "r1", "bob")
	drainFrames(alice)
	drainFrames(bob)

	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeChatMessage, ChatMessagePayload{Content: "hello"}))

	for _, c := range []*Client{alice, bob} {
		env := recvEnvelope(t, c)
		require.Equal(t, TypeChatMessage, env.Type)
		var msg entity.ChatMessage
		require.NoError(t, codec.Unmarshal(env.Payload, &msg))
		assert.Equal(t, "hello", msg.Content)
		assert.Equal(t, "alice", msg.SenderUsername)
		assert.Equal(t, alice.ParticipantID(), msg.SenderID)
		assert.NotEmpty(t, msg.ID)
	}

	history, err := store.ListRoomMessages(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].Content)
}

func TestChatHistoryReplaysToLateJoiner(t *testing.T) {
	rt, reg, _ := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	drainFrames(alice)
	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeChatMessage, ChatMessagePayload{Content: "first"}))
	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeChatMessage, ChatMessagePayload{Content: "second"}))

	bob := joinRoom(t, rt, reg, "r1", "bob")
	snap := decodeJoined(t, recvEnvelope(t, bob))

	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "first", snap.Messages[0].Content)
	assert.Equal(t, "second", snap.Messages[1].Content)
}

func TestChatRequiresJoin(t *testing.T) {
	rt, reg, _ := newTestRouter()

	c := newClient(nil)
	reg.Add(c)
	rt.HandleFrame(context.Background(), c, inboundFrame(t, TypeChatMessage, ChatMessagePayload{Content: "hello"}))
	assert.Zero(t, pendingFrames(c))
}

func TestChatRejectsEmptyContent(t *testing.T) {
	rt, reg, store := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	drainFrames(alice)

	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeChatMessage, ChatMessagePayload{Content: ""}))

	assert.Zero(t, pendingFrames(alice))
	history, err := store.ListRoomMessages(context.Background(), "r1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestLeaveDeletesEmptyRoom(t *testing.T) {
	rt, reg, store := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	pid := alice.ParticipantID()
	drainFrames(alice)

	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeLeaveRoom, struct{}{}))

	assert.Equal(t, StateLeft, alice.State())
	_, err := store.GetRoom(context.Background(), "r1")
	assert.ErrorIs(t, err, repo.ErrNotFound, "room dies with its last participant")
	_, err = store.GetParticipant(context.Background(), pid)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.Zero(t, reg.RoomSize("r1"))
}

func TestRejoinAfterDeletionGetsFreshRoom(t *testing.T) {
	rt, reg, _ := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	drainFrames(alice)
	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeChatMessage, ChatMessagePayload{Content: "ephemeral"}))
	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeLeaveRoom, struct{}{}))

	c := newClient(nil)
	reg.Add(c)
	rt.HandleFrame(context.Background(), c, inboundFrame(t, TypeJoinRoom, JoinRoomPayload{
		RoomID:   "r1",
		Username: "bob",
		RoomName: "Second Life",
	}))

	snap := decodeJoined(t, recvEnvelope(t, c))
	assert.Equal(t, "Second Life", snap.Room.Name, "reusing the id creates a brand-new room")
	assert.Empty(t, snap.Messages, "old chat history dies with the old room")
	require.Len(t, snap.Participants, 1)
	assert.True(t, snap.Participants[0].IsHost)
}

func TestLeaveBroadcastsRosterToRemaining(t *testing.T) {
	rt, reg, store := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	bob := joinRoom(t, rt, reg, "r1", "bob")
	drainFrames(alice)
	drainFrames(bob)

	rt.HandleFrame(context.Background(), bob, inboundFrame(t, TypeLeaveRoom, struct{}{}))

	roster := decodeRoster(t, recvEnvelope(t, alice))
	require.Len(t, roster, 1)
	assert.Equal(t, "alice", roster[0].Username)

	_, err := store.GetRoom(context.Background(), "r1")
	assert.NoError(t, err, "room survives while occupied")
}

func TestHostIsNotReelectedAfterHostLeaves(t *testing.T) {
	rt, reg, _ := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	bob := joinRoom(t, rt, reg, "r1", "bob")
	drainFrames(alice)
	drainFrames(bob)

	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeLeaveRoom, struct{}{}))

	roster := decodeRoster(t, recvEnvelope(t, bob))
	require.Len(t, roster, 1)
	assert.Equal(t, "bob", roster[0].Username)
	assert.False(t, roster[0].IsHost, "host flag is never reassigned")
}

func TestDisconnectRunsDeparture(t *testing.T) {
	rt, reg, store := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	bob := joinRoom(t, rt, reg, "r1", "bob")
	drainFrames(alice)
	drainFrames(bob)

	rt.HandleDisconnect(context.Background(), bob)

	roster := decodeRoster(t, recvEnvelope(t, alice))
	assert.Len(t, roster, 1)

	participants, err := store.ListRoomParticipants(context.Background(), "r1")
	require.NoError(t, err)
	assert.Len(t, participants, 1)
}

func TestDepartureRunsExactlyOnce(t *testing.T) {
	rt, reg, _ := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	bob := joinRoom(t, rt, reg, "r1", "bob")
	drainFrames(alice)
	drainFrames(bob)

	// Explicit leave followed by the transport close both land here.
	rt.HandleFrame(context.Background(), bob, inboundFrame(t, TypeLeaveRoom, struct{}{}))
	rt.HandleDisconnect(context.Background(), bob)
	rt.HandleDisconnect(context.Background(), bob)

	assert.Equal(t, 1, pendingFrames(alice), "remaining peers see a single roster update")
}

func TestDisconnectBeforeJoinIsNoop(t *testing.T) {
	rt, reg, _ := newTestRouter()

	c := newClient(nil)
	reg.Add(c)
	rt.HandleDisconnect(context.Background(), c)
	assert.Equal(t, StateLeft, c.State())
}

func TestPresenceUpdateBroadcastsFullRoster(t *testing.T) {
	rt, reg, store := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	bob := joinRoom(t, rt, reg, "r1", "bob")
	drainFrames(alice)
	drainFrames(bob)

	muted := true
	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeParticipantUpdate, repo.ParticipantUpdate{IsMuted: &muted}))

	for _, c := range []*Client{alice, bob} {
		roster := decodeRoster(t, recvEnvelope(t, c))
		require.Len(t, roster, 2)
		for _, p := range roster {
			if p.ID == alice.ParticipantID() {
				assert.True(t, p.IsMuted)
			}
		}
	}

	stored, err := store.GetParticipant(context.Background(), alice.ParticipantID())
	require.NoError(t, err)
	assert.True(t, stored.IsMuted)
}

func TestPresenceUpdateFailureSkipsBroadcast(t *testing.T) {
	rt, reg, _ := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	bob := joinRoom(t, rt, reg, "r1", "bob")
	drainFrames(alice)
	drainFrames(bob)

	failing := &failingSessionStore{SessionStore: rt.store}
	rt.store = failing

	muted := true
	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeParticipantUpdate, repo.ParticipantUpdate{IsMuted: &muted}))

	assert.Zero(t, pendingFrames(alice), "state that did not persist is not announced")
	assert.Zero(t, pendingFrames(bob))
}

// failingSessionStore fails participant updates and passes everything else
// through.
type failingSessionStore struct {
	repo.SessionStore
}

func (f *failingSessionStore) UpdateParticipant(ctx context.Context, id string, upd repo.ParticipantUpdate) (*entity.Participant, error) {
	return nil, errors.New("storage down")
}

func TestMediaStateExcludesSender(t *testing.T) {
	rt, reg, _ := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	bob := joinRoom(t, rt, reg, "r1", "bob")
	drainFrames(alice)
	drainFrames(bob)

	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeMediaStateUpdate, map[string]any{
		"isPlaying":   true,
		"currentTime": 42.5,
	}))

	env := recvEnvelope(t, bob)
	assert.Equal(t, TypeMediaStateUpdate, env.Type)
	var body map[string]any
	require.NoError(t, codec.Unmarshal(env.Payload, &body))
	assert.Equal(t, true, body["isPlaying"])

	assert.Zero(t, pendingFrames(alice), "sender already applied the scrub locally")
}

func TestFileSharedEchoesToSender(t *testing.T) {
	rt, reg, _ := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	bob := joinRoom(t, rt, reg, "r1", "bob")
	drainFrames(alice)
	drainFrames(bob)

	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeFileShared, map[string]any{
		"fileName": "slides.pdf",
	}))

	for _, c := range []*Client{alice, bob} {
		env := recvEnvelope(t, c)
		assert.Equal(t, TypeFileShared, env.Type)
	}
}

func TestAnnotationAddedExcludesSenderClearedDoesNot(t *testing.T) {
	rt, reg, _ := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	bob := joinRoom(t, rt, reg, "r1", "bob")
	drainFrames(alice)
	drainFrames(bob)

	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeAnnotationAdded, map[string]any{"type": "stroke"}))
	assert.Zero(t, pendingFrames(alice))
	assert.Equal(t, TypeAnnotationAdded, recvEnvelope(t, bob).Type)

	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeAnnotationCleared, map[string]any{}))
	assert.Equal(t, TypeAnnotationCleared, recvEnvelope(t, alice).Type)
	assert.Equal(t, TypeAnnotationCleared, recvEnvelope(t, bob).Type)
}

func TestSignalingUnicastsToTargetOnly(t *testing.T) {
	rt, reg, _ := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	bob := joinRoom(t, rt, reg, "r1", "bob")
	carol := joinRoom(t, rt, reg, "r1", "carol")
	drainFrames(alice)
	drainFrames(bob)
	drainFrames(carol)

	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeWebRTCOffer, map[string]any{
		"targetParticipantId": bob.ParticipantID(),
		"sdp":                 "v=0 ...",
	}))

	env := recvEnvelope(t, bob)
	require.Equal(t, TypeWebRTCOffer, env.Type)
	var body map[string]any
	require.NoError(t, codec.Unmarshal(env.Payload, &body))
	assert.Equal(t, alice.ParticipantID(), body["fromParticipantId"])
	assert.NotContains(t, body, "targetParticipantId", "routing field is stripped before forwarding")
	assert.Equal(t, "v=0 ...", body["sdp"])

	assert.Zero(t, pendingFrames(alice))
	assert.Zero(t, pendingFrames(carol))
}

func TestSignalingWithoutTargetIsDropped(t *testing.T) {
	rt, reg, _ := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	bob := joinRoom(t, rt, reg, "r1", "bob")
	drainFrames(alice)
	drainFrames(bob)

	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeWebRTCICE, map[string]any{
		"candidate": "candidate:1",
	}))

	assert.Zero(t, pendingFrames(alice))
	assert.Zero(t, pendingFrames(bob))
}

func TestSignalingToUnknownTargetIsSilent(t *testing.T) {
	rt, reg, _ := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	drainFrames(alice)

	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeWebRTCAnswer, map[string]any{
		"targetParticipantId": "nobody",
		"sdp":                 "v=0 ...",
	}))

	assert.Zero(t, pendingFrames(alice))
}

func TestPointerMovedStampsSenderAndExcludesIt(t *testing.T) {
	rt, reg, _ := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	bob := joinRoom(t, rt, reg, "r1", "bob")
	drainFrames(alice)
	drainFrames(bob)

	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypePointerMoved, map[string]any{
		"x": 0.25,
		"y": 0.75,
	}))

	env := recvEnvelope(t, bob)
	require.Equal(t, TypePointerMoved, env.Type)
	var body map[string]any
	require.NoError(t, codec.Unmarshal(env.Payload, &body))
	assert.Equal(t, alice.ParticipantID(), body["participantId"])

	assert.Zero(t, pendingFrames(alice))
}

func TestRoomsAreIsolated(t *testing.T) {
	rt, reg, _ := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	bob := joinRoom(t, rt, reg, "r2", "bob")
	drainFrames(alice)
	drainFrames(bob)

	rt.HandleFrame(context.Background(), alice, inboundFrame(t, TypeChatMessage, ChatMessagePayload{Content: "hello r1"}))

	assert.Equal(t, 1, pendingFrames(alice))
	assert.Zero(t, pendingFrames(bob))
}

func TestMalformedAndUnknownFramesAreDropped(t *testing.T) {
	rt, reg, _ := newTestRouter()

	alice := joinRoom(t, rt, reg, "r1", "alice")
	drainFrames(alice)

	rt.HandleFrame(context.Background(), alice, []byte("{not json"))
	rt.HandleFrame(context.Background(), alice, []byte(`{"type":"TELEPORT","payload":{}}`))
	rt.HandleFrame(context.Background(), alice, []byte(`{"type":"CHAT_MESSAGE","payload":"not an object"}`))

	assert.Zero(t, pendingFrames(alice))
	assert.Equal(t, StateJoined, alice.State())
}
