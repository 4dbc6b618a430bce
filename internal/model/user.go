package model

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleHR       Role = "HR"
	RoleEmployee Role = "EMPLOYEE"
)

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Email        string         `json:"email" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string         `json:"-" gorm:"not null"`
	FirstName    string         `json:"first_name" gorm:"size:100;not null"`
	LastName     string         `json:"last_name" gorm:"size:100;not null"`
	Role         Role           `json:"role" gorm:"size:16;not null;index"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
