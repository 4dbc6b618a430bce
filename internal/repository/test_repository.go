package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

type TestWithQuestionCount struct {
	model.Test
	QuestionCount int
}

type TestRepository interface {
	WithTx(tx *gorm.DB) TestRepository
	Create(ctx context.Context, test *model.Test) error
	FindByID(ctx context.Context, id uint) (*model.Test, error)
	FindByIDWithQuestions(ctx context.Context, id uint) (*model.Test, error)
	FindByCreatorWithQuestionCount(ctx context.Context, creatorID uint) ([]TestWithQuestionCount, error)
	FindByIDsWithQuestionCount(ctx context.Context, ids []uint) ([]TestWithQuestionCount, error)
	UpdateActive(ctx context.Context, id uint, active bool) error
}

type testRepository struct {
	db *gorm.DB
}

func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

func (r *testRepository) WithTx(tx *gorm.DB) TestRepository {
	return &testRepository{db: tx}
}

// Create inserts the test together with its questions and their options.
func (r *testRepository) Create(ctx context.Context, test *model.Test) error {
	return r.db.WithContext(ctx).Create(test).Error
}

func (r *testRepository) FindByID(ctx context.Context, id uint) (*model.Test, error) {
	var test model.Test
	if err := r.db.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

// FindByIDWithQuestions loads the test with questions and options, both in order.
func (r *testRepository) FindByIDWithQuestions(ctx context.Context, id uint) (*model.Test, error) {
	var test model.Test
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_index ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("answer_options.order_index ASC")
		}).
		First(&test, id).Error
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) withQuestionCount(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Test{}).
		Select("tests.*, (SELECT COUNT(*) FROM questions WHERE questions.test_id = tests.id) AS question_count").
		Where("tests.deleted_at IS NULL")
}

func (r *testRepository) FindByCreatorWithQuestionCount(ctx context.Context, creatorID uint) ([]TestWithQuestionCount, error) {
	var results []TestWithQuestionCount
	err := r.withQuestionCount(ctx).
		Where("tests.created_by_id = ?", creatorID).
		Order("tests.created_at DESC").
		Scan(&results).Error
	return results, err
}

func (r *testRepository) FindByIDsWithQuestionCount(ctx context.Context, ids []uint) ([]TestWithQuestionCount, error) {
	var results []TestWithQuestionCount
	if len(ids) == 0 {
		return results, nil
	}
	err := r.withQuestionCount(ctx).
		Where("tests.id IN ?", ids).
		Order("tests.created_at DESC").
		Scan(&results).Error
	return results, err
}

func (r *testRepository) UpdateActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&model.Test{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
