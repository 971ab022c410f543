package entity

import "time"

type UserPreferences struct {
	Theme            string `json:"theme,omitempty"`
	DefaultMuted     bool   `json:"defaultMuted,omitempty"`
	DefaultCameraOff bool   `json:"defaultCameraOff,omitempty"`
}

// User is a registered account. Joining a room does not require one;
// participants are anonymous identities bound to a connection.
type User struct {
	ID          string           `json:"id" gorm:"primaryKey;size:36"`
	Username    string           `json:"username" gorm:"uniqueIndex;not null;size:50"`
	Email       *string          `json:"email"`
	AvatarURL   *string          `json:"avatarUrl"`
	Preferences *UserPreferences `json:"preferences" gorm:"serializer:json"`
	CreatedAt   time.Time        `json:"createdAt" gorm:"autoCreateTime"`
}
