package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Legend8883/CompetencyTestingSystem/internal/apperror"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

func TestCreateTest_PersistsQuestionsInOrder(t *testing.T) {
	e := newTestEnv(t)
	req := sampleTest()
	req.Questions[0].OrderIndex = intPtr(2)
	req.Questions[1].OrderIndex = intPtr(0)
	req.Questions[2].OrderIndex = intPtr(1)

	test := e.createTest(t, req)

	assert.Equal(t, 25, test.MaxPossibleScore)
	assert.True(t, test.IsActive)
	assert.Equal(t, e.hr.ID, test.CreatedByID)
	require.Len(t, test.Questions, 3)
	assert.Equal(t, string(model.QuestionTypeMultipleChoice), test.Questions[0].Type)
	assert.Equal(t, string(model.QuestionTypeOpenAnswer), test.Questions[1].Type)
	assert.Equal(t, string(model.QuestionTypeSingleChoice), test.Questions[2].Type)
	for i, q := range test.Questions {
		assert.Equal(t, i, q.OrderIndex)
	}
	require.Len(t, test.Questions[0].Options, 3)
	assert.True(t, test.Questions[0].Options[1].IsCorrect)
	assert.False(t, test.Questions[0].Options[2].IsCorrect)
}

func TestCreateTest_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(req *dto.TestCreateDTO)
	}{
		{"short title", func(r *dto.TestCreateDTO) { r.Title = "Go" }},
		{"time limit too short", func(r *dto.TestCreateDTO) { r.TimeLimitMinutes = 4 }},
		{"time limit too long", func(r *dto.TestCreateDTO) { r.TimeLimitMinutes = 181 }},
		{"passing score above max", func(r *dto.TestCreateDTO) { r.PassingScore = 26 }},
		{"no questions", func(r *dto.TestCreateDTO) { r.Questions = nil }},
		{"unknown type", func(r *dto.TestCreateDTO) { r.Questions[0].Type = "ESSAY" }},
		{"max score zero", func(r *dto.TestCreateDTO) { r.Questions[0].MaxScore = 0 }},
		{"single choice with two correct", func(r *dto.TestCreateDTO) { r.Questions[0].Options[1].IsCorrect = true }},
		{"single choice with none correct", func(r *dto.TestCreateDTO) { r.Questions[0].Options[0].IsCorrect = false }},
		{"choice with one option", func(r *dto.TestCreateDTO) { r.Questions[1].Options = r.Questions[1].Options[:1] }},
		{"open answer with options", func(r *dto.TestCreateDTO) {
			r.Questions[2].Options = []dto.OptionCreateDTO{{Text: "a"}, {Text: "b"}}
		}},
		{"partial order indexes", func(r *dto.TestCreateDTO) { r.Questions[0].OrderIndex = intPtr(0) }},
		{"duplicate order indexes", func(r *dto.TestCreateDTO) {
			r.Questions[0].OrderIndex = intPtr(0)
			r.Questions[1].OrderIndex = intPtr(0)
			r.Questions[2].OrderIndex = intPtr(1)
		}},
		{"gap in order indexes", func(r *dto.TestCreateDTO) {
			r.Questions[0].OrderIndex = intPtr(0)
			r.Questions[1].OrderIndex = intPtr(1)
			r.Questions[2].OrderIndex = intPtr(3)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)
			req := sampleTest()
			tc.mutate(&req)

			_, err := e.adminTests.CreateTest(e.ctx, e.hr.ID, req)
			assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)

			tests, err := e.tests.GetMyTests(e.ctx, e.hr.ID)
			require.NoError(t, err)
			assert.Empty(t, tests)
		})
	}
}

func TestResolveOrder(t *testing.T) {
	idx := func(vals ...int) func(i int) *int {
		return func(i int) *int { return &vals[i] }
	}

	orders, err := resolveOrder(3, func(int) *int { return nil }, "question")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, orders)

	orders, err = resolveOrder(3, idx(1, 2, 0), "question")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0}, orders)

	_, err = resolveOrder(2, idx(-1, 0), "option")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}
