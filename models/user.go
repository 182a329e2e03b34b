package models

import "time"

// User is an administrator account for the console.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	Name         string
	PasswordHash string `gorm:"column:password_hash;not null"`
	LastLogin    *time.Time
	UpdatedAt    time.Time
}

func (u *User) TableName() string {
	return "users"
}
