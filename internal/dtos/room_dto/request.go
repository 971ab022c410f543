package room_dto

import "encoding/json"

// Request bodies for the room-scoped CRUD surface. Uploader/user identity
// travels in the body because participants are not authenticated accounts.

type ShareFileRequest struct {
	UploaderID       string `json:"uploaderId" validate:"required"`
	UploaderUsername string `json:"uploaderUsername" validate:"required,max=50"`
	FileName         string `json:"fileName" validate:"required,max=255"`
	FileURL          string `json:"fileUrl" validate:"required,url"`
	FileType         string `json:"fileType" validate:"required,max=100"`
	FileSize         int64  `json:"fileSize" validate:"gte=0"`
}

type ShareMediaRequest struct {
	UserID    string  `json:"userId" validate:"required"`
	Username  string  `json:"username" validate:"required,max=50"`
	MediaType string  `json:"mediaType" validate:"required,max=50"`
	MediaURL  string  `json:"mediaUrl" validate:"required,url"`
	Title     *string `json:"title" validate:"omitempty,max=255"`
	Thumbnail *string `json:"thumbnail" validate:"omitempty,url"`
	Duration  *int64  `json:"duration" validate:"omitempty,gte=0"`
}

type AddAnnotationRequest struct {
	UserID   string          `json:"userId" validate:"required"`
	Username string          `json:"username" validate:"required,max=50"`
	Type     string          `json:"type" validate:"required,max=50"`
	Data     json.RawMessage `json:"data" validate:"required"`
}
