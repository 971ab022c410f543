package entity

import (
	"encoding/json"
	"time"
)

// Annotation is one drawing stroke (or similar canvas primitive) on the
// shared canvas. Data is opaque to the server.
type Annotation struct {
	ID        string          `json:"id" gorm:"primaryKey;size:36"`
	RoomID    string          `json:"roomId" gorm:"index;not null;size:64"`
	UserID    string          `json:"userId" gorm:"not null"`
	Username  string          `json:"username" gorm:"not null;size:50"`
	Type      string          `json:"type" gorm:"not null"`
	Data      json.RawMessage `json:"data" gorm:"type:jsonb"`
	CreatedAt time.Time       `json:"createdAt" gorm:"autoCreateTime;index"`
}
