package models

import "time"

// Post is a publication written by a user.
// Deleting the author cascades; deleting the location or category nulls the reference.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	PubDate     time.Time `gorm:"index;not null" json:"pub_date"`
	Image       string    `gorm:"size:512" json:"image"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	AuthorID    uint      `gorm:"index;not null" json:"author_id"`
	LocationID  *uint     `gorm:"index" json:"location_id"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	Author      User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;" json:"author"`
	Location    *Location `gorm:"foreignKey:LocationID;constraint:OnDelete:SET NULL;" json:"location,omitempty"`
	Category    *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL;" json:"category,omitempty"`
	Comments    []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE;" json:"-"`
}

// PostCard is a listed post annotated with its comment count.
type PostCard struct {
	Post
	CommentCount int64 `json:"comment_count"`
}
