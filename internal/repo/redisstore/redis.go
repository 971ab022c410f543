package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tangytongues/WatchTogether/internal/entity"
	"github.com/tangytongues/WatchTogether/internal/repo"
)

// Store keeps the relay's session state (rooms, rosters, chat logs) in
// Redis. Rooms are ephemeral, so everything here is deleted with the room;
// nothing carries a TTL of its own. Roster order is a counter-scored sorted
// set, which keeps join order stable regardless of clock resolution.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

var _ repo.SessionStore = (*Store)(nil)

func roomKey(roomID string) string    { return "wt:room:" + roomID }
func rosterKey(roomID string) string  { return "wt:room:" + roomID + ":roster" }
func chatKey(roomID string) string    { return "wt:room:" + roomID + ":chat" }
func participantKey(id string) string { return "wt:participant:" + id }

const joinSeqKey = "wt:join_seq"

// --- rooms ---

func (s *Store) CreateRoom(ctx context.Context, room *entity.Room) (*entity.Room, error) {
	r := *room
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	data, err := json.Marshal(&r)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, roomKey(r.ID), data, 0).Err(); err != nil {
		return nil, fmt.Errorf("redis set room: %w", err)
	}
	return &r, nil
}

func (s *Store) GetRoom(ctx context.Context, roomID string) (*entity.Room, error) {
	data, err := s.rdb.Get(ctx, roomKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get room: %w", err)
	}
	var r entity.Room
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) UpdateRoom(ctx context.Context, roomID string, upd repo.RoomUpdate) (*entity.Room, error) {
	r, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		r.Name = *upd.Name
	}
	if upd.Theme != nil {
		r.Theme = *upd.Theme
	}
	if upd.Layout != nil {
		r.Layout = *upd.Layout
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, roomKey(roomID), data, 0).Err(); err != nil {
		return nil, fmt.Errorf("redis set room: %w", err)
	}
	return r, nil
}

func (s *Store) DeleteRoom(ctx context.Context, roomID string) error {
	ids, err := s.rdb.ZRange(ctx, rosterKey(roomID), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis roster range: %w", err)
	}
	keys := []string{roomKey(roomID), rosterKey(roomID), chatKey(roomID)}
	for _, id := range ids {
		keys = append(keys, participantKey(id))
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del room: %w", err)
	}
	return nil
}

// --- participants ---

func (s *Store) AddParticipant(ctx context.Context, p *entity.Participant) (*entity.Participant, error) {
	cp := *p
	cp.ID = uuid.New().String()
	cp.JoinedAt = time.Now()

	seq, err := s.rdb.Incr(ctx, joinSeqKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis join seq: %w", err)
	}
	data, err := json.Marshal(&cp)
	if err != nil {
		return nil, err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, participantKey(cp.ID), data, 0)
	pipe.ZAdd(ctx, rosterKey(cp.RoomID), redis.Z{Score: float64(seq), Member: cp.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis add participant: %w", err)
	}
	return &cp, nil
}

func (s *Store) GetParticipant(ctx context.Context, participantID string) (*entity.Participant, error) {
	data, err := s.rdb.Get(ctx, participantKey(participantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get participant: %w", err)
	}
	var p entity.Participant
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListRoomParticipants(ctx context.Context, roomID string) ([]entity.Participant, error) {
	ids, err := s.rdb.ZRange(ctx, rosterKey(roomID), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis roster range: %w", err)
	}
	out := make([]entity.Participant, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetParticipant(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *Store) UpdateParticipant(ctx context.Context, participantID string, upd repo.ParticipantUpdate) (*entity.Participant, error) {
	p, err := s.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if upd.IsMuted != nil {
		p.IsMuted = *upd.IsMuted
	}
	if upd.IsCameraOff != nil {
		p.IsCameraOff = *upd.IsCameraOff
	}
	if upd.IsSharingScreen != nil {
		p.IsSharingScreen = *upd.IsSharingScreen
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, participantKey(participantID), data, 0).Err(); err != nil {
		return nil, fmt.Errorf("redis set participant: %w", err)
	}
	return p, nil
}

func (s *Store) RemoveParticipant(ctx context.Context, participantID string) error {
	p, err := s.GetParticipant(ctx, participantID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.ZRem(ctx, rosterKey(p.RoomID), participantID)
	pipe.Del(ctx, participantKey(participantID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis remove participant: %w", err)
	}
	return nil
}

// --- chat ---

func (s *Store) AddMessage(ctx context.Context, m *entity.ChatMessage) (*entity.ChatMessage, error) {
	cp := *m
	cp.ID = uuid.New().String()
	cp.Timestamp = time.Now()
	data, err := json.Marshal(&cp)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.RPush(ctx, chatKey(cp.RoomID), data).Err(); err != nil {
		return nil, fmt.Errorf("redis push message: %w", err)
	}
	return &cp, nil
}

func (s *Store) ListRoomMessages(ctx context.Context, roomID string) ([]entity.ChatMessage, error) {
	raw, err := s.rdb.LRange(ctx, chatKey(roomID), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis chat range: %w", err)
	}
	out := make([]entity.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var m entity.ChatMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
