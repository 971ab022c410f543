package entity

import "time"

// SharedFile records a file announced to a room. The bytes themselves live
// wherever FileURL points; the relay only fans out the announcement.
type SharedFile struct {
	ID               string    `json:"id" gorm:"primaryKey;size:36"`
	RoomID           string    `json:"roomId" gorm:"index;not null;size:64"`
	UploaderID       string    `json:"uploaderId" gorm:"not null"`
	UploaderUsername string    `json:"uploaderUsername" gorm:"not null;size:50"`
	FileName         string    `json:"fileName" gorm:"not null"`
	FileURL          string    `json:"fileUrl" gorm:"not null"`
	FileType         string    `json:"fileType" gorm:"not null"`
	FileSize         int64     `json:"fileSize" gorm:"not null"`
	UploadedAt       time.Time `json:"uploadedAt" gorm:"autoCreateTime;index"`
}

// SharedMedia is a media link (video/audio) queued for synchronized playback.
type SharedMedia struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	RoomID    string    `json:"roomId" gorm:"index;not null;size:64"`
	UserID    string    `json:"userId" gorm:"not null"`
	Username  string    `json:"username" gorm:"not null;size:50"`
	MediaType string    `json:"mediaType" gorm:"not null"`
	MediaURL  string    `json:"mediaUrl" gorm:"not null"`
	Title     *string   `json:"title"`
	Thumbnail *string   `json:"thumbnail"`
	Duration  *int64    `json:"duration"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime;index"`
}
