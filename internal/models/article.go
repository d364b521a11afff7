package models

import (
	"time"
)

type ArticleStatus string

const (
	StatusPending     ArticleStatus = "pending"
	StatusApproved    ArticleStatus = "approved"
	StatusDisapproved ArticleStatus = "disapproved"
)

// Valid reports whether s is one of the known moderation states.
func (s ArticleStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDisapproved:
		return true
	}
	return false
}

type Article struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	Title            string        `gorm:"size:100;not null" json:"title"`
	Content          string        `gorm:"type:text;not null" json:"content"`
	Author           string        `gorm:"size:100;not null" json:"author"`
	Email            string        `gorm:"size:120" json:"email"`
	Category         string        `gorm:"size:100;not null;default:'General';index" json:"category"`
	CoverImage       string        `gorm:"size:255" json:"cover_image"`       // storage reference
	DocumentFilename string        `gorm:"size:255" json:"document_filename"` // storage reference
	Status           ArticleStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Views            int           `gorm:"not null;default:0" json:"views"`
	Likes            int           `gorm:"not null;default:0" json:"likes"`
	SubmittedAt      time.Time     `gorm:"not null" json:"submitted_at"`
	PostedAt         time.Time     `gorm:"not null;index" json:"posted_at"`

	Comments []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Visits   []Visit   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// IsPublished is true once an admin has approved the article.
func (a *Article) IsPublished() bool {
	return a.Status == StatusApproved
}
