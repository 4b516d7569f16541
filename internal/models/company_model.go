package models

import "time"

type CompanyStatus string

const (
	CompanyPending  CompanyStatus = "pending"
	CompanyApproved CompanyStatus = "approved"
	CompanyRejected CompanyStatus = "rejected"
)

// Company carries a derived rating summary. RatingsAggregate and TotalReviews
// are written only by the rating engine; Version guards that write.
type Company struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	Name             string        `gorm:"size:150;not null" json:"name"`
	Description      string        `gorm:"type:text" json:"description"`
	Status           CompanyStatus `gorm:"size:20;index;not null" json:"status"`
	OperatorID       uint          `gorm:"index" json:"operator_id"`
	RatingsAggregate float64       `gorm:"not null" json:"ratings_aggregate"`
	TotalReviews     int           `gorm:"not null" json:"total_reviews"`
	Version          uint          `gorm:"not null" json:"-"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CompanyID uint      `gorm:"not null;uniqueIndex:idx_review_company_user" json:"company_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_review_company_user;index" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Title     string    `gorm:"size:200" json:"title"`
	Comment   string    `gorm:"type:text" json:"comment"`
	IsHidden  bool      `gorm:"not null" json:"is_hidden"`
	IsPinned  bool      `gorm:"not null" json:"is_pinned"`
	Version   uint      `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	MinRating = 1
	MaxRating = 5
)
