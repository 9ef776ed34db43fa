package models

import "time"

// Comment is a reply to a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;" json:"author"`
}
