package models

import "time"

// Book is a file uploaded by a user. Name is the display filename supplied by
// the client; the blob itself lives at FilePath under an opaque StorageKey.
type Book struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"type:varchar(255);not null"`
	StorageKey string    `json:"-" gorm:"type:varchar(36);uniqueIndex;not null"`
	FilePath   string    `json:"-" gorm:"type:varchar(1024);not null"`
	Size       int64     `json:"size"`
	OwnerID    uint      `json:"owner_id" gorm:"index;not null"`
	Owner      *User     `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	CreatedAt  time.Time `json:"created_at"`
}

// BookSummary is the listing entry returned to clients.
type BookSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}
