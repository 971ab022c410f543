package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tangytongues/WatchTogether/internal/entity"
	"github.com/tangytongues/WatchTogether/internal/repo"
)

// Store persists every entity through gorm. Room deletion cascades to the
// room-scoped tables the same way the original schema's foreign keys did.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Room{},
		&entity.Participant{},
		&entity.ChatMessage{},
		&entity.SharedFile{},
		&entity.SharedMedia{},
		&entity.RoomTheme{},
		&entity.Annotation{},
	); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return &Store{db: db}, nil
}

var _ repo.Store = (*Store)(nil)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	return err
}

// --- rooms ---

func (s *Store) CreateRoom(ctx context.Context, room *entity.Room) (*entity.Room, error) {
	r := *room
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetRoom(ctx context.Context, roomID string) (*entity.Room, error) {
	var r entity.Room
	if err := s.db.WithContext(ctx).First(&r, "id = ?", roomID).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *Store) UpdateRoom(ctx context.Context, roomID string, upd repo.RoomUpdate) (*entity.Room, error) {
	updates := map[string]any{}
	if upd.Name != nil {
		updates["name"] = *upd.Name
	}
	if upd.Theme != nil {
		updates["theme"] = *upd.Theme
	}
	if upd.Layout != nil {
		updates["layout"] = *upd.Layout
	}
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&entity.Room{}).Where("id = ?", roomID).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, repo.ErrNotFound
		}
	}
	return s.GetRoom(ctx, roomID)
}

func (s *Store) DeleteRoom(ctx context.Context, roomID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{
			&entity.Participant{},
			&entity.ChatMessage{},
			&entity.SharedFile{},
			&entity.SharedMedia{},
			&entity.Annotation{},
		} {
			if err := tx.Where("room_id = ?", roomID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&entity.Room{}, "id = ?", roomID).Error
	})
}

// --- participants ---

func (s *Store) AddParticipant(ctx context.Context, p *entity.Participant) (*entity.Participant, error) {
	cp := *p
	cp.ID = uuid.New().String()
	if err := s.db.WithContext(ctx).Create(&cp).Error; err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *Store) GetParticipant(ctx context.Context, participantID string) (*entity.Participant, error) {
	var p entity.Participant
	if err := s.db.WithContext(ctx).First(&p, "id = ?", participantID).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) ListRoomParticipants(ctx context.Context, roomID string) ([]entity.Participant, error) {
	var out []entity.Participant
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("joined_at asc").
		Find(&out).Error
	return out, err
}

func (s *Store) UpdateParticipant(ctx context.Context, participantID string, upd repo.ParticipantUpdate) (*entity.Participant, error) {
	updates := map[string]any{}
	if upd.IsMuted != nil {
		updates["is_muted"] = *upd.IsMuted
	}
	if upd.IsCameraOff != nil {
		updates["is_camera_off"] = *upd.IsCameraOff
	}
	if upd.IsSharingScreen != nil {
		updates["is_sharing_screen"] = *upd.IsSharingScreen
	}
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&entity.Participant{}).Where("id = ?", participantID).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, repo.ErrNotFound
		}
	}
	return s.GetParticipant(ctx, participantID)
}

func (s *Store) RemoveParticipant(ctx context.Context, participantID string) error {
	return s.db.WithContext(ctx).Delete(&entity.Participant{}, "id = ?", participantID).Error
}

// --- chat ---

func (s *Store) AddMessage(ctx context.Context, m *entity.ChatMessage) (*entity.ChatMessage, error) {
	cp := *m
	cp.ID = uuid.New().String()
	if err := s.db.WithContext(ctx).Create(&cp).Error; err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *Store) ListRoomMessages(ctx context.Context, roomID string) ([]entity.ChatMessage, error) {
	var out []entity.ChatMessage
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("timestamp asc").
		Find(&out).Error
	return out, err
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, u *entity.User) (*entity.User, error) {
	cp := *u
	cp.ID = uuid.New().String()
	if err := s.db.WithContext(ctx).Create(&cp).Error; err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	var u entity.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	var u entity.User
	if err := s.db.WithContext(ctx).First(&u, "username = ?", username).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// --- shared files / media ---

func (s *Store) AddSharedFile(ctx context.Context, f *entity.SharedFile) (*entity.SharedFile, error) {
	cp := *f
	cp.ID = uuid.New().String()
	if err := s.db.WithContext(ctx).Create(&cp).Error; err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *Store) ListRoomFiles(ctx context.Context, roomID string) ([]entity.SharedFile, error) {
	var out []entity.SharedFile
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("uploaded_at desc").
		Find(&out).Error
	return out, err
}

func (s *Store) AddSharedMedia(ctx context.Context, m *entity.SharedMedia) (*entity.SharedMedia, error) {
	cp := *m
	cp.ID = uuid.New().String()
	if err := s.db.WithContext(ctx).Create(&cp).Error; err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *Store) ListRoomMedia(ctx context.Context, roomID string) ([]entity.SharedMedia, error) {
	var out []entity.SharedMedia
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// --- themes ---

func (s *Store) CreateTheme(ctx context.Context, t *entity.RoomTheme) (*entity.RoomTheme, error) {
	cp := *t
	cp.ID = uuid.New().String()
	if err := s.db.WithContext(ctx).Create(&cp).Error; err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *Store) ListUserThemes(ctx context.Context, userID string) ([]entity.RoomTheme, error) {
	var out []entity.RoomTheme
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

func (s *Store) ListPublicThemes(ctx context.Context) ([]entity.RoomTheme, error) {
	var out []entity.RoomTheme
	err := s.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// --- annotations ---

func (s *Store) AddAnnotation(ctx context.Context, a *entity.Annotation) (*entity.Annotation, error) {
	cp := *a
	cp.ID = uuid.New().String()
	if err := s.db.WithContext(ctx).Create(&cp).Error; err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *Store) ListRoomAnnotations(ctx context.Context, roomID string) ([]entity.Annotation, error) {
	var out []entity.Annotation
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

func (s *Store) ClearRoomAnnotations(ctx context.Context, roomID string) error {
	return s.db.WithContext(ctx).Delete(&entity.Annotation{}, "room_id = ?", roomID).Error
}
