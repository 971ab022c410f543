package entity

import "time"

// RoomTheme is a user-authored color scheme, optionally shared publicly.
type RoomTheme struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	UserID          string    `json:"userId" gorm:"index;not null;size:36"`
	Name            string    `json:"name" gorm:"not null;size:100"`
	PrimaryColor    string    `json:"primaryColor" gorm:"not null"`
	SecondaryColor  string    `json:"secondaryColor" gorm:"not null"`
	BackgroundColor string    `json:"backgroundColor" gorm:"not null"`
	TextColor       string    `json:"textColor" gorm:"not null"`
	IsPublic        bool      `json:"isPublic" gorm:"not null;index"`
	CreatedAt       time.Time `json:"createdAt" gorm:"autoCreateTime"`
}
