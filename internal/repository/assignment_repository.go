package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

type AssignmentRepository interface {
	WithTx(tx *gorm.DB) AssignmentRepository
	Save(ctx context.Context, assignment *model.TestAssignment) error
	FindByUserAndTest(ctx context.Context, userID, testID uint) (*model.TestAssignment, error)
	FindByUserAndTestForUpdate(ctx context.Context, userID, testID uint) (*model.TestAssignment, error)
	FindOpenByUser(ctx context.Context, userID uint, now time.Time) ([]model.TestAssignment, error)
	FindByTest(ctx context.Context, testID uint) ([]model.TestAssignment, error)
	MarkCompleted(ctx context.Context, userID, testID uint) error
}

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) WithTx(tx *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: tx}
}

func (r *assignmentRepository) Save(ctx context.Context, assignment *model.TestAssignment) error {
	return r.db.WithContext(ctx).Omit("Test").Save(assignment).Error
}

func (r *assignmentRepository) FindByUserAndTest(ctx context.Context, userID, testID uint) (*model.TestAssignment, error) {
	var a model.TestAssignment
	if err := r.db.WithContext(ctx).Where("user_id = ? AND test_id = ?", userID, testID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByUserAndTestForUpdate locks the assignment row, which serializes
// attempt starts for the same (user, test) on databases with row locks.
func (r *assignmentRepository) FindByUserAndTestForUpdate(ctx context.Context, userID, testID uint) (*model.TestAssignment, error) {
	var a model.TestAssignment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND test_id = ?", userID, testID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindOpenByUser returns active, uncompleted assignments whose deadline has
// not passed, with their tests.
func (r *assignmentRepository) FindOpenByUser(ctx context.Context, userID uint, now time.Time) ([]model.TestAssignment, error) {
	var assignments []model.TestAssignment
	err := r.db.WithContext(ctx).
		Preload("Test").
		Where("user_id = ? AND is_active = ? AND is_completed = ?", userID, true, false).
		Where("deadline IS NULL OR deadline > ?", now).
		Order("assigned_at DESC").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) FindByTest(ctx context.Context, testID uint) ([]model.TestAssignment, error) {
	var assignments []model.TestAssignment
	err := r.db.WithContext(ctx).Where("test_id = ?", testID).Order("assigned_at DESC").Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) MarkCompleted(ctx context.Context, userID, testID uint) error {
	return r.db.WithContext(ctx).Model(&model.TestAssignment{}).
		Where("user_id = ? AND test_id = ?", userID, testID).
		Update("is_completed", true).Error
}
