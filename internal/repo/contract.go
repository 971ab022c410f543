package repo

import (
	"context"
	"errors"

	"github.com/tangytongues/WatchTogether/internal/entity"
)

// ErrNotFound is returned by lookups and partial updates when the target
// record does not exist. Deletes are idempotent and never return it.
var ErrNotFound = errors.New("record not found")

// RoomUpdate is a shallow merge of the room's mutable cosmetic fields.
// Nil means "leave unchanged".
type RoomUpdate struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=100"`
	Theme  *string `json:"theme" validate:"omitempty,max=50"`
	Layout *string `json:"layout" validate:"omitempty,max=50"`
}

// ParticipantUpdate carries the three independent presence flags.
type ParticipantUpdate struct {
	IsMuted         *bool `json:"isMuted"`
	IsCameraOff     *bool `json:"isCameraOff"`
	IsSharingScreen *bool `json:"isSharingScreen"`
}

type RoomStore interface {
	// CreateRoom persists the room as given; the caller supplies the id.
	CreateRoom(ctx context.Context, room *entity.Room) (*entity.Room, error)
	GetRoom(ctx context.Context, roomID string) (*entity.Room, error)
	UpdateRoom(ctx context.Context, roomID string, upd RoomUpdate) (*entity.Room, error)
	DeleteRoom(ctx context.Context, roomID string) error
}

type ParticipantStore interface {
	// AddParticipant assigns the id and join timestamp and returns the
	// full record.
	AddParticipant(ctx context.Context, p *entity.Participant) (*entity.Participant, error)
	GetParticipant(ctx context.Context, participantID string) (*entity.Participant, error)
	// ListRoomParticipants returns the roster ordered by join time.
	ListRoomParticipants(ctx context.Context, roomID string) ([]entity.Participant, error)
	UpdateParticipant(ctx context.Context, participantID string, upd ParticipantUpdate) (*entity.Participant, error)
	RemoveParticipant(ctx context.Context, participantID string) error
}

type ChatStore interface {
	// AddMessage assigns the id and timestamp and returns the full record.
	AddMessage(ctx context.Context, m *entity.ChatMessage) (*entity.ChatMessage, error)
	// ListRoomMessages returns the room's full history in send order.
	ListRoomMessages(ctx context.Context, roomID string) ([]entity.ChatMessage, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *entity.User) (*entity.User, error)
	GetUser(ctx context.Context, userID string) (*entity.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)
}

type FileStore interface {
	AddSharedFile(ctx context.Context, f *entity.SharedFile) (*entity.SharedFile, error)
	ListRoomFiles(ctx context.Context, roomID string) ([]entity.SharedFile, error)
}

type MediaStore interface {
	AddSharedMedia(ctx context.Context, m *entity.SharedMedia) (*entity.SharedMedia, error)
	ListRoomMedia(ctx context.Context, roomID string) ([]entity.SharedMedia, error)
}

type ThemeStore interface {
	CreateTheme(ctx context.Context, t *entity.RoomTheme) (*entity.RoomTheme, error)
	ListUserThemes(ctx context.Context, userID string) ([]entity.RoomTheme, error)
	ListPublicThemes(ctx context.Context) ([]entity.RoomTheme, error)
}

type AnnotationStore interface {
	AddAnnotation(ctx context.Context, a *entity.Annotation) (*entity.Annotation, error)
	ListRoomAnnotations(ctx context.Context, roomID string) ([]entity.Annotation, error)
	ClearRoomAnnotations(ctx context.Context, roomID string) error
}

// SessionStore is the slice of the store the relay's event router touches.
type SessionStore interface {
	RoomStore
	ParticipantStore
	ChatStore
}

// PeripheralStore covers the CRUD entities served over REST only.
type PeripheralStore interface {
	UserStore
	FileStore
	MediaStore
	ThemeStore
	AnnotationStore
}

type Store interface {
	SessionStore
	PeripheralStore
}

type splitStore struct {
	SessionStore
	PeripheralStore
}

// Split combines a session backend with a peripheral backend into one Store.
// Used when room/participant/chat state lives in Redis but the peripheral
// entities do not.
func Split(session SessionStore, peripheral PeripheralStore) Store {
	return &splitStore{SessionStore: session, PeripheralStore: peripheral}
}
