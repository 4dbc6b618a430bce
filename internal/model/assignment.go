package model

import (
	"time"
)

type TestAssignment struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	TestID       uint       `json:"test_id" gorm:"not null;uniqueIndex:idx_assignments_test_user"`
	Test         Test       `json:"test,omitempty" gorm:"foreignKey:TestID"`
	UserID       uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_assignments_test_user;index"`
	AssignedByID uint       `json:"assigned_by_id" gorm:"not null"`
	AssignedAt   time.Time  `json:"assigned_at" gorm:"not null"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	IsActive     bool       `json:"is_active" gorm:"not null;default:true"`
	IsCompleted  bool       `json:"is_completed" gorm:"not null;default:false"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Expired reports whether the deadline, if any, is already behind now.
func (a *TestAssignment) Expired(now time.Time) bool {
	return a.Deadline != nil && now.After(*a.Deadline)
}
