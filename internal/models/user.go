package models

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email    string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:256;not null" json:"-"` // bcrypt hash
	IsAdmin  bool   `gorm:"default:false" json:"is_admin"`
}
