package models

import (
	"time"
)

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:120" json:"email"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	PostedAt  time.Time `gorm:"not null;index" json:"posted_at"`
	ArticleID uint      `gorm:"not null;index" json:"article_id"`
	ParentID  *uint     `gorm:"index" json:"parent_id"` // nil for top-level comments
	Parent    *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}
