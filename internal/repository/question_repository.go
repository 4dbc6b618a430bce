package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

type QuestionRepository interface {
	WithTx(tx *gorm.DB) QuestionRepository
	Create(ctx context.Context, question *model.Question) error
	FindByID(ctx context.Context, id uint) (*model.Question, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Question, error)
	CountByTestID(ctx context.Context, testID uint) (int64, error)
	GetOptionsByIDs(ctx context.Context, ids []uint) ([]model.AnswerOption, error)
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) WithTx(tx *gorm.DB) QuestionRepository {
	return &questionRepository{db: tx}
}

func (r *questionRepository) Create(ctx context.Context, question *model.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var question model.Question
	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("answer_options.order_index ASC")
		}).
		First(&question, id).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Question, error) {
	var questions []model.Question
	if len(ids) == 0 {
		return questions, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error
	return questions, err
}

func (r *questionRepository) CountByTestID(ctx context.Context, testID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Question{}).Where("test_id = ?", testID).Count(&count).Error
	return count, err
}

// GetOptionsByIDs returns the options that exist among ids; missing ids are
// simply absent from the result.
func (r *questionRepository) GetOptionsByIDs(ctx context.Context, ids []uint) ([]model.AnswerOption, error) {
	var options []model.AnswerOption
	if len(ids) == 0 {
		return options, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&options).Error
	return options, err
}
