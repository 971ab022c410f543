package entity

import "time"

// Room is a named, ephemeral hangout session. It exists only while it has
// at least one participant; the relay deletes it the moment the roster
// empties.
type Room struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	Name      string    `json:"name" gorm:"not null;size:100"`
	HostID    string    `json:"hostId" gorm:"not null"`
	Theme     string    `json:"theme" gorm:"default:default"`
	Layout    string    `json:"layout" gorm:"default:grid"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// Participant is one live connection's identity inside a room. The server
// assigns the ID on join; the record is removed on leave or disconnect.
type Participant struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	RoomID          string    `json:"roomId" gorm:"index;not null;size:64"`
	UserID          *string   `json:"userId"`
	Username        string    `json:"username" gorm:"not null;size:50"`
	IsHost          bool      `json:"isHost" gorm:"not null"`
	IsMuted         bool      `json:"isMuted" gorm:"not null"`
	IsCameraOff     bool      `json:"isCameraOff" gorm:"not null"`
	IsSharingScreen bool      `json:"isSharingScreen" gorm:"not null"`
	JoinedAt        time.Time `json:"joinedAt" gorm:"autoCreateTime;index"`
}
