package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

// ErrStaleAttempt is returned when a conditional update on an attempt matched
// no row because another writer changed it first.
var ErrStaleAttempt = errors.New("attempt was modified concurrently")

type AttemptRepository interface {
	WithTx(tx *gorm.DB) AttemptRepository
	Create(ctx context.Context, attempt *model.Attempt) error
	FindByID(ctx context.Context, id uint) (*model.Attempt, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Attempt, error)
	FindInProgress(ctx context.Context, userID, testID uint) (*model.Attempt, error)
	ExistsForUserAndTest(ctx context.Context, userID, testID uint) (bool, error)
	ExistsForTest(ctx context.Context, testID uint) (bool, error)
	FindByUser(ctx context.Context, userID uint) ([]model.Attempt, error)
	FindByStatus(ctx context.Context, status model.AttemptStatus) ([]model.Attempt, error)
	FindDueForAutoSubmit(ctx context.Context, now time.Time, excludeIDs []uint, limit int) ([]model.Attempt, error)
	Transition(ctx context.Context, attempt *model.Attempt, from model.AttemptStatus) error
	UpdateScore(ctx context.Context, attempt *model.Attempt) error
	Touch(ctx context.Context, attempt *model.Attempt) error
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) WithTx(tx *gorm.DB) AttemptRepository {
	return &attemptRepository{db: tx}
}

// Create inserts the attempt and its blank answer rows.
func (r *attemptRepository) Create(ctx context.Context, attempt *model.Attempt) error {
	return r.db.WithContext(ctx).Omit("Test").Create(attempt).Error
}

func (r *attemptRepository) FindByID(ctx context.Context, id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	if err := r.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindInProgress(ctx context.Context, userID, testID uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND test_id = ? AND status = ?", userID, testID, model.AttemptStatusInProgress).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) ExistsForUserAndTest(ctx context.Context, userID, testID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Attempt{}).
		Where("user_id = ? AND test_id = ?", userID, testID).
		Count(&count).Error
	return count > 0, err
}

func (r *attemptRepository) ExistsForTest(ctx context.Context, testID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Attempt{}).Where("test_id = ?", testID).Count(&count).Error
	return count > 0, err
}

func (r *attemptRepository) FindByUser(ctx context.Context, userID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.WithContext(ctx).
		Preload("Test").
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) FindByStatus(ctx context.Context, status model.AttemptStatus) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.WithContext(ctx).
		Preload("Test").
		Where("status = ?", status).
		Order("completed_at DESC").
		Order("id DESC").
		Find(&attempts).Error
	return attempts, err
}

// FindDueForAutoSubmit returns in-progress attempts whose time limit ran out at
// or before now, earliest deadline first, leaving out excludeIDs.
func (r *attemptRepository) FindDueForAutoSubmit(ctx context.Context, now time.Time, excludeIDs []uint, limit int) ([]model.Attempt, error) {
	var attempts []model.Attempt
	q := r.db.WithContext(ctx).
		Where("status = ? AND auto_submit_at IS NOT NULL AND auto_submit_at <= ?", model.AttemptStatusInProgress, now)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	q = q.Order("auto_submit_at ASC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&attempts).Error
	return attempts, err
}

// Transition persists status, score and completion time, provided the row is
// still in status from at the version the caller read. The attempt's Version
// is advanced on success.
func (r *attemptRepository) Transition(ctx context.Context, attempt *model.Attempt, from model.AttemptStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Attempt{}).
		Where("id = ? AND status = ? AND version = ?", attempt.ID, from, attempt.Version).
		Updates(map[string]any{
			"status":       attempt.Status,
			"score":        attempt.Score,
			"completed_at": attempt.CompletedAt,
			"version":      gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleAttempt
	}
	attempt.Version++
	return nil
}

// UpdateScore persists the score if nobody changed the attempt since it was read.
func (r *attemptRepository) UpdateScore(ctx context.Context, attempt *model.Attempt) error {
	res := r.db.WithContext(ctx).Model(&model.Attempt{}).
		Where("id = ? AND version = ?", attempt.ID, attempt.Version).
		Updates(map[string]any{
			"score":   attempt.Score,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleAttempt
	}
	attempt.Version++
	return nil
}

// Touch bumps the version of an in-progress attempt. An answer write paired
// with Touch in one transaction cannot commit once the attempt has left
// IN_PROGRESS.
func (r *attemptRepository) Touch(ctx context.Context, attempt *model.Attempt) error {
	res := r.db.WithContext(ctx).Model(&model.Attempt{}).
		Where("id = ? AND status = ?", attempt.ID, model.AttemptStatusInProgress).
		Update("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleAttempt
	}
	attempt.Version++
	return nil
}
