package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

type AnswerRepository interface {
	WithTx(tx *gorm.DB) AnswerRepository
	SaveAll(ctx context.Context, answers []model.Answer) error
	Update(ctx context.Context, answer *model.Answer) error
	FindByAttempt(ctx context.Context, attemptID uint) ([]model.Answer, error)
	FindByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*model.Answer, error)
	FindByID(ctx context.Context, id uint) (*model.Answer, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Answer, error)
	FindOpenForEvaluation(ctx context.Context) ([]model.Answer, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) WithTx(tx *gorm.DB) AnswerRepository {
	return &answerRepository{db: tx}
}

func (r *answerRepository) SaveAll(ctx context.Context, answers []model.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(&answers).Error
}

func (r *answerRepository) Update(ctx context.Context, answer *model.Answer) error {
	return r.db.WithContext(ctx).Save(answer).Error
}

func (r *answerRepository) FindByAttempt(ctx context.Context, attemptID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db.WithContext(ctx).Where("attempt_id = ?", attemptID).Order("id ASC").Find(&answers).Error
	return answers, err
}

func (r *answerRepository) FindByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*model.Answer, error) {
	var answer model.Answer
	err := r.db.WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&answer).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *answerRepository) FindByID(ctx context.Context, id uint) (*model.Answer, error) {
	var answer model.Answer
	if err := r.db.WithContext(ctx).First(&answer, id).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *answerRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Answer, error) {
	var answer model.Answer
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&answer, id).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

// FindOpenForEvaluation returns ungraded answers to open questions of attempts
// awaiting evaluation, oldest submission first. Never-submitted answers sort
// last on every dialect.
func (r *answerRepository) FindOpenForEvaluation(ctx context.Context) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db.WithContext(ctx).
		Joins("JOIN questions ON questions.id = answers.question_id").
		Joins("JOIN attempts ON attempts.id = answers.attempt_id").
		Where("questions.type = ?", model.QuestionTypeOpenAnswer).
		Where("answers.assigned_score IS NULL").
		Where("attempts.status = ?", model.AttemptStatusEvaluating).
		Order("CASE WHEN answers.answered_at IS NULL THEN 1 ELSE 0 END").
		Order("answers.answered_at ASC").
		Order("answers.id ASC").
		Find(&answers).Error
	return answers, err
}
