package user_dto

import "github.com/tangytongues/WatchTogether/internal/entity"

type CreateUserRequest struct {
	Username    string                  `json:"username" validate:"required,min=1,max=50"`
	Email       *string                 `json:"email" validate:"omitempty,email"`
	AvatarURL   *string                 `json:"avatarUrl" validate:"omitempty,url"`
	Preferences *entity.UserPreferences `json:"preferences"`
}

type CreateThemeRequest struct {
	UserID          string `json:"userId" validate:"required"`
	Name            string `json:"name" validate:"required,min=1,max=100"`
	PrimaryColor    string `json:"primaryColor" validate:"required,hexcolor"`
	SecondaryColor  string `json:"secondaryColor" validate:"required,hexcolor"`
	BackgroundColor string `json:"backgroundColor" validate:"required,hexcolor"`
	TextColor       string `json:"textColor" validate:"required,hexcolor"`
	IsPublic        bool   `json:"isPublic"`
}
