package model

import "time"

// User is an account that owns tasks and day aggregates.
type User struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email          string    `gorm:"size:255;uniqueIndex" json:"email"`
	PasswordHash   string    `json:"-"`
	EmailConfirmed bool      `gorm:"default:false" json:"emailConfirmed"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
