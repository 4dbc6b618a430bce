package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Legend8883/CompetencyTestingSystem/internal/apperror"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
	"github.com/Legend8883/CompetencyTestingSystem/internal/repository"
)

// AdminTestService is HR test authoring.
type AdminTestService interface {
	CreateTest(ctx context.Context, hrID uint, req dto.TestCreateDTO) (*dto.TestResponseDTO, error)
}

type adminTestService struct {
	testRepo repository.TestRepository
	db       *gorm.DB
}

func NewAdminTestService(testRepo repository.TestRepository, db *gorm.DB) AdminTestService {
	return &adminTestService{testRepo: testRepo, db: db}
}

func (s *adminTestService) CreateTest(ctx context.Context, hrID uint, req dto.TestCreateDTO) (*dto.TestResponseDTO, error) {
	title := strings.TrimSpace(req.Title)
	if n := utf8.RuneCountInString(title); n < 3 || n > 200 {
		return nil, apperror.Validation("title must be 3-200 characters")
	}
	if req.TimeLimitMinutes < 5 || req.TimeLimitMinutes > 180 {
		return nil, apperror.Validation("time limit must be between 5 and 180 minutes, got %d", req.TimeLimitMinutes)
	}
	if req.PassingScore < 0 {
		return nil, apperror.Validation("passing score cannot be negative")
	}
	if len(req.Questions) == 0 {
		return nil, apperror.Validation("a test needs at least one question")
	}

	orders, err := resolveOrder(len(req.Questions), func(i int) *int { return req.Questions[i].OrderIndex }, "question")
	if err != nil {
		return nil, err
	}

	testModel := model.Test{
		Title:            title,
		Description:      req.Description,
		TimeLimitMinutes: req.TimeLimitMinutes,
		PassingScore:     req.PassingScore,
		IsActive:         true,
		CreatedByID:      hrID,
		Questions:        make([]model.Question, 0, len(req.Questions)),
	}
	for i, qDto := range req.Questions {
		q, err := buildQuestion(qDto, orders[i])
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		testModel.Questions = append(testModel.Questions, q)
	}
	if maxScore := testModel.MaxPossibleScore(); req.PassingScore > maxScore {
		return nil, apperror.Validation("passing score %d exceeds the maximum possible score %d", req.PassingScore, maxScore)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.testRepo.WithTx(tx).Create(ctx, &testModel)
	})
	if err != nil {
		log.Error().Err(err).Uint("hrID", hrID).Msg("Failed to create test in database")
		return nil, fmt.Errorf("database error creating test: %w", err)
	}
	log.Info().Uint("testID", testModel.ID).Uint("hrID", hrID).Int("questions", len(testModel.Questions)).Msg("Test created")

	created, err := s.testRepo.FindByIDWithQuestions(ctx, testModel.ID)
	if err != nil {
		log.Error().Err(err).Uint("testID", testModel.ID).Msg("Failed to retrieve newly created test with questions for response")
		created = &testModel
	}
	return testResponse(created)
}

// buildQuestion validates a question definition and converts it to a model
// placed at order.
func buildQuestion(req dto.QuestionCreateDTO, order int) (model.Question, error) {
	qType := model.QuestionType(req.Type)
	if !qType.Valid() {
		return model.Question{}, apperror.Validation("unknown question type %q", req.Type)
	}
	text := strings.TrimSpace(req.Text)
	if n := utf8.RuneCountInString(text); n < 5 || n > 1000 {
		return model.Question{}, apperror.Validation("question text must be 5-1000 characters")
	}
	if req.MaxScore < 1 || req.MaxScore > 100 {
		return model.Question{}, apperror.Validation("max score must be between 1 and 100, got %d", req.MaxScore)
	}
	if req.ReferenceAnswer != nil && utf8.RuneCountInString(*req.ReferenceAnswer) > MaxOpenAnswerLength {
		return model.Question{}, apperror.Validation("reference answer exceeds %d characters", MaxOpenAnswerLength)
	}

	q := model.Question{
		Text:            text,
		Type:            qType,
		MaxScore:        req.MaxScore,
		ReferenceAnswer: req.ReferenceAnswer,
		OrderIndex:      order,
	}

	if !qType.IsChoice() {
		if len(req.Options) > 0 {
			return model.Question{}, apperror.Validation("open-answer questions cannot have options")
		}
		return q, nil
	}

	if len(req.Options) < 2 {
		return model.Question{}, apperror.Validation("choice questions need at least two options")
	}
	optOrders, err := resolveOrder(len(req.Options), func(i int) *int { return req.Options[i].OrderIndex }, "option")
	if err != nil {
		return model.Question{}, err
	}
	correct := 0
	for i, o := range req.Options {
		optText := strings.TrimSpace(o.Text)
		if optText == "" || utf8.RuneCountInString(optText) > 500 {
			return model.Question{}, apperror.Validation("option text must be 1-500 characters")
		}
		if o.IsCorrect {
			correct++
		}
		q.Options = append(q.Options, model.AnswerOption{Text: optText, IsCorrect: o.IsCorrect, OrderIndex: optOrders[i]})
	}
	if qType == model.QuestionTypeSingleChoice && correct != 1 {
		return model.Question{}, apperror.Validation("single-choice questions need exactly one correct option, got %d", correct)
	}
	return q, nil
}

// resolveOrder returns the order index of each of n items. Either every item
// gives its index, and together they form 0..n-1, or none does and the
// position in the list is used.
func resolveOrder(n int, indexOf func(i int) *int, what string) ([]int, error) {
	orders := make([]int, n)
	given := 0
	for i := 0; i < n; i++ {
		if indexOf(i) != nil {
			given++
		}
	}
	if given == 0 {
		for i := range orders {
			orders[i] = i
		}
		return orders, nil
	}
	if given != n {
		return nil, apperror.Validation("order_index must be set on every %s or on none", what)
	}

	seen := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		idx := *indexOf(i)
		if idx < 0 || idx >= n {
			return nil, apperror.Validation("%s order_index %d is outside 0..%d", what, idx, n-1)
		}
		if seen[idx] {
			return nil, apperror.Validation("duplicate %s order_index %d", what, idx)
		}
		seen[idx] = true
		orders[i] = idx
	}
	return orders, nil
}

func testResponse(test *model.Test) (*dto.TestResponseDTO, error) {
	var resp dto.TestResponseDTO
	if err := copier.Copy(&resp, test); err != nil {
		log.Error().Err(err).Msg("Failed to copy Test model to TestResponseDTO")
		return nil, fmt.Errorf("error preparing response data: %w", err)
	}
	resp.MaxPossibleScore = test.MaxPossibleScore()
	return &resp, nil
}
