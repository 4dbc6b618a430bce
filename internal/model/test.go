package model

import (
	"time"

	"gorm.io/gorm"
)

type Test struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	Title            string         `json:"title" gorm:"size:200;not null"`
	Description      string         `json:"description,omitempty" gorm:"type:text"`
	TimeLimitMinutes int            `json:"time_limit_minutes" gorm:"not null"`
	PassingScore     int            `json:"passing_score" gorm:"not null"`
	IsActive         bool           `json:"is_active" gorm:"not null;default:true"`
	CreatedByID      uint           `json:"created_by_id" gorm:"not null;index"`
	Questions        []Question     `json:"questions,omitempty" gorm:"foreignKey:TestID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// MaxPossibleScore sums the max score of every loaded question.
func (t *Test) MaxPossibleScore() int {
	total := 0
	for _, q := range t.Questions {
		total += q.MaxScore
	}
	return total
}

// TimeLimit is the attempt duration granted by the test.
func (t *Test) TimeLimit() time.Duration {
	return time.Duration(t.TimeLimitMinutes) * time.Minute
}
