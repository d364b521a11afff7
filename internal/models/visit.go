package models

import (
	"time"
)

// Visit is one read of an article, kept for traffic analytics.
type Visit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ArticleID uint      `gorm:"not null;index" json:"article_id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}
