package models

import "time"

// Post publication states. A post starts as a draft and may move to published
// exactly once; there is no way back.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// ValidPostStatus reports whether s is one of the allowed status choices.
func ValidPostStatus(s string) bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Post is a blog entry written by exactly one user under exactly one topic.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	TopicID   uint      `gorm:"index;not null" json:"topic_id"`
	Title     string    `gorm:"size:252;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Status    string    `gorm:"size:9;default:'draft';not null" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Topic     Topic     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"topic"`
}

// Published reports whether the post has left the draft state.
func (p *Post) Published() bool {
	return p.Status == PostStatusPublished
}
