package models

import (
	"time"
)

// Message is a contact-form submission. Rows are never updated.
type Message struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	Name    string    `gorm:"size:100;not null" json:"name"`
	Email   string    `gorm:"size:120;not null" json:"email"`
	Content string    `gorm:"column:message;type:text;not null" json:"message"`
	SentAt  time.Time `gorm:"not null;index" json:"sent_at"`
}
