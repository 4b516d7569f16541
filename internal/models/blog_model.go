package models

import "time"

type BlogStatus string

const (
	BlogDraft     BlogStatus = "draft"
	BlogPublished BlogStatus = "published"
	BlogArchived  BlogStatus = "archived"
)

type FlagReason string

const (
	FlagSpam          FlagReason = "Spam"
	FlagInappropriate FlagReason = "Inappropriate Content"
	FlagMisinfo       FlagReason = "Misinformation"
	FlagDuplicate     FlagReason = "Duplicate Content"
	FlagOther         FlagReason = "Other"
)

var FlagReasons = []FlagReason{FlagSpam, FlagInappropriate, FlagMisinfo, FlagDuplicate, FlagOther}

// Blog is a moderated content item. The flag columns are written together:
// IsFlagged is false exactly when every Flag* column is NULL.
type Blog struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	AuthorID    uint        `gorm:"index;not null" json:"author_id"`
	Title       string      `gorm:"size:200;not null" json:"title"`
	Body        string      `gorm:"type:text" json:"body"`
	Status      BlogStatus  `gorm:"size:20;index;not null" json:"status"`
	PublishedAt *time.Time  `json:"published_at,omitempty"`
	IsFeatured  bool        `gorm:"not null" json:"is_featured"`
	IsDeleted   bool        `gorm:"not null;index" json:"is_deleted"`
	IsFlagged   bool        `gorm:"not null" json:"is_flagged"`
	FlagReason  *FlagReason `gorm:"size:50" json:"flag_reason,omitempty"`
	FlagDetails *string     `gorm:"type:text" json:"flag_additional_details,omitempty"`
	FlaggedBy   *uint       `json:"flagged_by,omitempty"`
	FlaggedAt   *time.Time  `json:"flagged_at,omitempty"`
	Views       int         `gorm:"not null" json:"views"`
	Version     uint        `gorm:"not null" json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// BlogView is one entry of a blog's viewed-by set.
type BlogView struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BlogID     uint      `gorm:"not null;uniqueIndex:idx_blog_viewer" json:"blog_id"`
	Identifier string    `gorm:"size:128;not null;uniqueIndex:idx_blog_viewer" json:"identifier"`
	ViewedAt   time.Time `json:"viewed_at"`
}
