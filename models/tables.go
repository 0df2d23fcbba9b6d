package models

import "time"

type User struct {
	ID           int    `gorm:"primary_key;autoIncrement" json:"id"`
	FirstName    string `gorm:"not null" json:"first_name"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"` // json:"-" prevents password from being exposed
}

type Entry struct {
	ID        uint      `gorm:"primary_key"`
	UserID    int       `gorm:"not null;index" json:"user_id"` // auto-filled from session
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Title     string    `gorm:"not null" json:"title"`
	Date      time.Time `gorm:"not null;index" json:"date"` // the day studied, not the day saved
	TimeSpent int       `json:"time_spent"`                 // minutes
	Material  string    `gorm:"type:text;not null" json:"material"`
	Resource  string    `gorm:"type:text;not null" json:"resource"`
	TagField  string    `gorm:"type:text" json:"tag_field"` // raw comma-separated input, kept verbatim
	Slug      string    `gorm:"unique;not null;index" json:"slug"`
}

type Tag struct {
	ID   uint   `gorm:"primary_key"`
	Name string `gorm:"unique;not null;index" json:"name"` // normalized: trimmed, lowercase
}

type EntryTag struct {
	ID      uint `gorm:"primary_key"`
	EntryID int  `gorm:"not null;index" json:"entry_id"`
	TagID   int  `gorm:"not null;index" json:"tag_id"`
}
