package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tangytongues/WatchTogether/internal/entity"
	"github.com/tangytongues/WatchTogether/internal/repo"
)

// Store keeps everything in process memory. It is the default backend and
// the double the relay tests run against. Per-room slices preserve
// insertion order, so roster and chat ordering do not depend on timestamp
// resolution.
type Store struct {
	mu sync.RWMutex

	rooms        map[string]*entity.Room
	participants map[string]*entity.Participant
	roster       map[string][]string // roomID -> participant ids in join order
	messages     map[string][]entity.ChatMessage

	users       map[string]*entity.User
	files       map[string][]entity.SharedFile
	media       map[string][]entity.SharedMedia
	themes      map[string]*entity.RoomTheme
	annotations map[string][]entity.Annotation
}

func NewStore() *Store {
	return &Store{
		rooms:        make(map[string]*entity.Room),
		participants: make(map[string]*entity.Participant),
		roster:       make(map[string][]string),
		messages:     make(map[string][]entity.ChatMessage),
		users:        make(map[string]*entity.User),
		files:        make(map[string][]entity.SharedFile),
		media:        make(map[string][]entity.SharedMedia),
		themes:       make(map[string]*entity.RoomTheme),
		annotations:  make(map[string][]entity.Annotation),
	}
}

var _ repo.Store = (*Store)(nil)

// --- rooms ---

func (s *Store) CreateRoom(_ context.Context, room *entity.Room) (*entity.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := *room
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.rooms[r.ID] = &r
	out := r
	return &out, nil
}

func (s *Store) GetRoom(_ context.Context, roomID string) (*entity.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	out := *r
	return &out, nil
}

func (s *Store) UpdateRoom(_ context.Context, roomID string, upd repo.RoomUpdate) (*entity.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return nil, repo.ErrNotFound
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
	out := *r
	return &out, nil
}

func (s *Store) DeleteRoom(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rooms, roomID)
	for _, pid := range s.roster[roomID] {
		delete(s.participants, pid)
	}
	delete(s.roster, roomID)
	delete(s.messages, roomID)
	delete(s.files, roomID)
	delete(s.media, roomID)
	delete(s.annotations, roomID)
	return nil
}

// --- participants ---

func (s *Store) AddParticipant(_ context.Context, p *entity.Participant) (*entity.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	cp.ID = uuid.New().String()
	cp.JoinedAt = time.Now()
	s.participants[cp.ID] = &cp
	s.roster[cp.RoomID] = append(s.roster[cp.RoomID], cp.ID)
	out := cp
	return &out, nil
}

func (s *Store) GetParticipant(_ context.Context, participantID string) (*entity.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participants[participantID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (s *Store) ListRoomParticipants(_ context.Context, roomID string) ([]entity.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.roster[roomID]
	out := make([]entity.Participant, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.participants[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *Store) UpdateParticipant(_ context.Context, participantID string, upd repo.ParticipantUpdate) (*entity.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok {
		return nil, repo.ErrNotFound
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
	out := *p
	return &out, nil
}

func (s *Store) RemoveParticipant(_ context.Context, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok {
		return nil
	}
	delete(s.participants, participantID)
	ids := s.roster[p.RoomID]
	for i, id := range ids {
		if id == participantID {
			s.roster[p.RoomID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(s.roster[p.RoomID]) == 0 {
		delete(s.roster, p.RoomID)
	}
	return nil
}

// --- chat ---

func (s *Store) AddMessage(_ context.Context, m *entity.ChatMessage) (*entity.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *m
	cp.ID = uuid.New().String()
	cp.Timestamp = time.Now()
	s.messages[cp.RoomID] = append(s.messages[cp.RoomID], cp)
	out := cp
	return &out, nil
}

func (s *Store) ListRoomMessages(_ context.Context, roomID string) ([]entity.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[roomID]
	out := make([]entity.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

// --- users ---

func (s *Store) CreateUser(_ context.Context, u *entity.User) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *u
	cp.ID = uuid.New().String()
	cp.CreatedAt = time.Now()
	s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *Store) GetUser(_ context.Context, userID string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, repo.ErrNotFound
}

// --- shared files / media ---

func (s *Store) AddSharedFile(_ context.Context, f *entity.SharedFile) (*entity.SharedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *f
	cp.ID = uuid.New().String()
	cp.UploadedAt = time.Now()
	s.files[cp.RoomID] = append(s.files[cp.RoomID], cp)
	out := cp
	return &out, nil
}

func (s *Store) ListRoomFiles(_ context.Context, roomID string) ([]entity.SharedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := s.files[roomID]
	// newest first, matching the REST contract
	out := make([]entity.SharedFile, 0, len(files))
	for i := len(files) - 1; i >= 0; i-- {
		out = append(out, files[i])
	}
	return out, nil
}

func (s *Store) AddSharedMedia(_ context.Context, m *entity.SharedMedia) (*entity.SharedMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *m
	cp.ID = uuid.New().String()
	cp.CreatedAt = time.Now()
	s.media[cp.RoomID] = append(s.media[cp.RoomID], cp)
	out := cp
	return &out, nil
}

func (s *Store) ListRoomMedia(_ context.Context, roomID string) ([]entity.SharedMedia, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	media := s.media[roomID]
	out := make([]entity.SharedMedia, 0, len(media))
	for i := len(media) - 1; i >= 0; i-- {
		out = append(out, media[i])
	}
	return out, nil
}

// --- themes ---

func (s *Store) CreateTheme(_ context.Context, t *entity.RoomTheme) (*entity.RoomTheme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *t
	cp.ID = uuid.New().String()
	cp.CreatedAt = time.Now()
	s.themes[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *Store) ListUserThemes(_ context.Context, userID string) ([]entity.RoomTheme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entity.RoomTheme
	for _, t := range s.themes {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sortThemes(out)
	return out, nil
}

func (s *Store) ListPublicThemes(_ context.Context) ([]entity.RoomTheme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entity.RoomTheme
	for _, t := range s.themes {
		if t.IsPublic {
			out = append(out, *t)
		}
	}
	sortThemes(out)
	return out, nil
}

func sortThemes(ts []entity.RoomTheme) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].CreatedAt.After(ts[j].CreatedAt) })
}

// --- annotations ---

func (s *Store) AddAnnotation(_ context.Context, a *entity.Annotation) (*entity.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	cp.ID = uuid.New().String()
	cp.CreatedAt = time.Now()
	s.annotations[cp.RoomID] = append(s.annotations[cp.RoomID], cp)
	out := cp
	return &out, nil
}

func (s *Store) ListRoomAnnotations(_ context.Context, roomID string) ([]entity.Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ann := s.annotations[roomID]
	out := make([]entity.Annotation, len(ann))
	copy(out, ann)
	return out, nil
}

func (s *Store) ClearRoomAnnotations(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.annotations, roomID)
	return nil
}
