package models

import "time"

// Category groups posts under a URL slug. Managed by administrators only.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Slug        string    `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

// Location is an optional place a post refers to.
type Location struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}
