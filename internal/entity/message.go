package entity

import "time"

// ChatMessage is immutable once created. SenderUsername is denormalized so
// the message stays attributable after the sender leaves the room.
type ChatMessage struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	RoomID         string    `json:"roomId" gorm:"index;not null;size:64"`
	SenderID       string    `json:"senderId" gorm:"not null"`
	SenderUsername string    `json:"senderUsername" gorm:"not null;size:50"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	Timestamp      time.Time `json:"timestamp" gorm:"autoCreateTime;index"`
}
