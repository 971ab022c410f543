package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tangytongues/WatchTogether/internal/entity"
	"github.com/tangytongues/WatchTogether/internal/repo"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewStore(rdb), mr
}

func TestRoomRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetRoom(ctx, "r1")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	created, err := s.CreateRoom(ctx, &entity.Room{ID: "r1", Name: "Movie Night", HostID: "r1", Theme: "default", Layout: "grid"})
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Movie Night", got.Name)
	assert.Equal(t, "grid", got.Layout)
}

func TestUpdateRoomMergesFields(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateRoom(ctx, &entity.Room{ID: "r1", Name: "Old", Theme: "default", Layout: "grid"})
	require.NoError(t, err)

	theme := "space"
	updated, err := s.UpdateRoom(ctx, "r1", repo.RoomUpdate{Theme: &theme})
	require.NoError(t, err)
	assert.Equal(t, "space", updated.Theme)
	assert.Equal(t, "Old", updated.Name)

	name := "x"
	_, err = s.UpdateRoom(ctx, "ghost", repo.RoomUpdate{Name: &name})
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestRosterJoinOrderSurvivesCoarseClocks(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"alice", "bob", "carol"} {
		p, err := s.AddParticipant(ctx, &entity.Participant{RoomID: "r1", Username: name})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	roster, err := s.ListRoomParticipants(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, roster, 3)
	for i, p := range roster {
		assert.Equal(t, ids[i], p.ID, "roster keeps join order")
	}
}

func TestRemoveParticipant(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a, _ := s.AddParticipant(ctx, &entity.Participant{RoomID: "r1", Username: "alice"})
	_, _ = s.AddParticipant(ctx, &entity.Participant{RoomID: "r1", Username: "bob"})

	require.NoError(t, s.RemoveParticipant(ctx, a.ID))
	require.NoError(t, s.RemoveParticipant(ctx, a.ID), "removal is idempotent")

	roster, err := s.ListRoomParticipants(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "bob", roster[0].Username)

	_, err = s.GetParticipant(ctx, a.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestUpdateParticipantFlags(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	p, _ := s.AddParticipant(ctx, &entity.Participant{RoomID: "r1", Username: "alice"})

	muted := true
	updated, err := s.UpdateParticipant(ctx, p.ID, repo.ParticipantUpdate{IsMuted: &muted})
	require.NoError(t, err)
	assert.True(t, updated.IsMuted)

	got, err := s.GetParticipant(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsMuted)
	assert.Equal(t, "alice", got.Username)

	_, err = s.UpdateParticipant(ctx, "ghost", repo.ParticipantUpdate{IsMuted: &muted})
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestChatLogKeepsSendOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		m, err := s.AddMessage(ctx, &entity.ChatMessage{RoomID: "r1", SenderUsername: "alice", Content: content})
		require.NoError(t, err)
		assert.NotEmpty(t, m.ID)
	}

	msgs, err := s.ListRoomMessages(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "three", msgs[2].Content)
}

func TestDeleteRoomRemovesAllSessionKeys(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateRoom(ctx, &entity.Room{ID: "r1", Name: "Movie Night"})
	require.NoError(t, err)
	p, err := s.AddParticipant(ctx, &entity.Participant{RoomID: "r1", Username: "alice"})
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, &entity.ChatMessage{RoomID: "r1", Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteRoom(ctx, "r1"))

	_, err = s.GetRoom(ctx, "r1")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	_, err = s.GetParticipant(ctx, p.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	msgs, err := s.ListRoomMessages(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.False(t, mr.Exists("wt:room:r1:roster"))
	assert.False(t, mr.Exists("wt:room:r1:chat"))
}
