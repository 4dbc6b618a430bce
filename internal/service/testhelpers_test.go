package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Legend8883/CompetencyTestingSystem/config"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
	"github.com/Legend8883/CompetencyTestingSystem/internal/repository"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeAssistant struct {
	feedback string
	score    int
	err      error
}

func (f *fakeAssistant) SuggestGrade(ctx context.Context, question *model.Question, answerText string) (string, int, error) {
	return f.feedback, f.score, f.err
}

// testEnv wires every service against a private in-memory database.
type testEnv struct {
	ctx   context.Context
	db    *gorm.DB
	clock *fakeClock

	userRepo       repository.UserRepository
	testRepo       repository.TestRepository
	questionRepo   repository.QuestionRepository
	assignmentRepo repository.AssignmentRepository
	attemptRepo    repository.AttemptRepository
	answerRepo     repository.AnswerRepository

	adminTests  AdminTestService
	tests       TestService
	assignments *assignmentService
	userTests   *userTestService
	attempts    *attemptService
	evaluation  *evaluationService
	sweeper     *AutoSubmitSweeper
	assistant   *fakeAssistant

	hr       model.User
	employee model.User
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Test{},
		&model.Question{},
		&model.AnswerOption{},
		&model.TestAssignment{},
		&model.Attempt{},
		&model.Answer{},
	))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	cfg := &config.Config{
		Attempts: config.Attempts{EnforceAssignment: true, AutoSubmitSchedule: "@every 1m", AutoSubmitBatch: 50},
	}
	clock := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}

	e := &testEnv{
		ctx:            context.Background(),
		db:             db,
		clock:          clock,
		userRepo:       repository.NewUserRepository(db),
		testRepo:       repository.NewTestRepository(db),
		questionRepo:   repository.NewQuestionRepository(db),
		assignmentRepo: repository.NewAssignmentRepository(db),
		attemptRepo:    repository.NewAttemptRepository(db),
		answerRepo:     repository.NewAnswerRepository(db),
		assistant:      &fakeAssistant{},
	}
	scores := NewScoreConverterService()

	e.adminTests = NewAdminTestService(e.testRepo, db)
	e.tests = NewTestService(e.testRepo, e.questionRepo, e.attemptRepo, db)
	e.assignments = NewAssignmentService(e.testRepo, e.assignmentRepo, e.attemptRepo, e.userRepo, db).(*assignmentService)
	e.assignments.now = clock.Now
	e.userTests = NewUserTestService(e.testRepo, e.assignmentRepo, cfg).(*userTestService)
	e.userTests.now = clock.Now
	e.attempts = NewAttemptService(e.testRepo, e.questionRepo, e.assignmentRepo, e.attemptRepo, e.answerRepo, scores, db, cfg).(*attemptService)
	e.attempts.now = clock.Now
	e.evaluation = NewEvaluationService(e.testRepo, e.questionRepo, e.attemptRepo, e.answerRepo, e.userRepo, scores, e.assistant, db).(*evaluationService)
	e.evaluation.now = clock.Now
	e.sweeper = NewAutoSubmitSweeper(e.attemptRepo, e.attempts, cfg)
	e.sweeper.now = clock.Now

	e.hr = e.createUser(t, "hr@example.com", model.RoleHR)
	e.employee = e.createUser(t, "employee@example.com", model.RoleEmployee)
	return e
}

func (e *testEnv) createUser(t *testing.T, email string, role model.Role) model.User {
	t.Helper()
	u := model.User{Email: email, PasswordHash: "x", FirstName: "Test", LastName: string(role), Role: role}
	require.NoError(t, e.userRepo.Create(e.ctx, &u))
	return u
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// sampleTest has three questions worth 25 points in total:
// a single-choice worth 5 (first option correct), a multiple-choice worth 10
// (first two options correct) and an open answer worth 10.
func sampleTest() dto.TestCreateDTO {
	return dto.TestCreateDTO{
		Title:            "Go fundamentals",
		Description:      "Basic language knowledge",
		TimeLimitMinutes: 30,
		PassingScore:     15,
		Questions: []dto.QuestionCreateDTO{
			{
				Text:     "Which keyword starts a goroutine?",
				Type:     string(model.QuestionTypeSingleChoice),
				MaxScore: 5,
				Options: []dto.OptionCreateDTO{
					{Text: "go", IsCorrect: true},
					{Text: "async"},
				},
			},
			{
				Text:     "Which types are reference-like?",
				Type:     string(model.QuestionTypeMultipleChoice),
				MaxScore: 10,
				Options: []dto.OptionCreateDTO{
					{Text: "map", IsCorrect: true},
					{Text: "slice", IsCorrect: true},
					{Text: "int"},
				},
			},
			{
				Text:            "Explain how a select statement behaves.",
				Type:            string(model.QuestionTypeOpenAnswer),
				MaxScore:        10,
				ReferenceAnswer: strPtr("It waits on several channel operations."),
			},
		},
	}
}

// choiceOnlyTest drops the open question from sampleTest.
func choiceOnlyTest() dto.TestCreateDTO {
	req := sampleTest()
	req.Questions = req.Questions[:2]
	req.PassingScore = 10
	return req
}

func (e *testEnv) createTest(t *testing.T, req dto.TestCreateDTO) *dto.TestResponseDTO {
	t.Helper()
	test, err := e.adminTests.CreateTest(e.ctx, e.hr.ID, req)
	require.NoError(t, err)
	return test
}

func (e *testEnv) assign(t *testing.T, testID uint, employeeIDs ...uint) {
	t.Helper()
	if len(employeeIDs) == 0 {
		employeeIDs = []uint{e.employee.ID}
	}
	_, err := e.assignments.AssignTest(e.ctx, e.hr.ID, testID, dto.AssignTestDTO{UserIDs: employeeIDs})
	require.NoError(t, err)
}

// startSample creates, assigns and starts the test for the default employee.
func (e *testEnv) startSample(t *testing.T, req dto.TestCreateDTO) (*dto.TestResponseDTO, *dto.TestProgressDTO) {
	t.Helper()
	test := e.createTest(t, req)
	e.assign(t, test.ID)
	progress, err := e.attempts.StartAttempt(e.ctx, e.employee.ID, test.ID)
	require.NoError(t, err)
	return test, progress
}

func (e *testEnv) answerChoice(t *testing.T, attemptID uint, q dto.QuestionResponseDTO, optionIdx ...int) *dto.TestProgressDTO {
	t.Helper()
	ids := make([]uint, 0, len(optionIdx))
	for _, i := range optionIdx {
		ids = append(ids, q.Options[i].ID)
	}
	progress, err := e.attempts.SubmitAnswer(e.ctx, attemptID, e.employee.ID, dto.SubmitAnswerDTO{QuestionID: q.ID, SelectedOptionIDs: ids})
	require.NoError(t, err)
	return progress
}

func (e *testEnv) answerOpen(t *testing.T, attemptID uint, q dto.QuestionResponseDTO, text string) {
	t.Helper()
	_, err := e.attempts.SubmitAnswer(e.ctx, attemptID, e.employee.ID, dto.SubmitAnswerDTO{QuestionID: q.ID, OpenAnswerText: &text})
	require.NoError(t, err)
}

func (e *testEnv) answerFor(t *testing.T, attemptID, questionID uint) *model.Answer {
	t.Helper()
	a, err := e.answerRepo.FindByAttemptAndQuestion(e.ctx, attemptID, questionID)
	require.NoError(t, err)
	return a
}
