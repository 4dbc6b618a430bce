package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/Legend8883/CompetencyTestingSystem/config"
	"github.com/Legend8883/CompetencyTestingSystem/database"
	_ "github.com/Legend8883/CompetencyTestingSystem/docs" // Swagger docs
	adminctrl "github.com/Legend8883/CompetencyTestingSystem/internal/controller/admin"
	authctrl "github.com/Legend8883/CompetencyTestingSystem/internal/controller/auth"
	userctrl "github.com/Legend8883/CompetencyTestingSystem/internal/controller/user"
	"github.com/Legend8883/CompetencyTestingSystem/internal/auth"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/logger"
	"github.com/Legend8883/CompetencyTestingSystem/internal/middleware"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
	"github.com/Legend8883/CompetencyTestingSystem/internal/repository"
	"github.com/Legend8883/CompetencyTestingSystem/internal/service"
)

// @title Competency Testing System API
// @version 1.0
// @description HR competency testing: test authoring, timed attempts, scoring and evaluation of open answers.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			auth.NewTokenManager,
			NewGinEngine,
		),

		// Repositories
		fx.Provide(
			repository.NewUserRepository,
			repository.NewTestRepository,
			repository.NewQuestionRepository,
			repository.NewAssignmentRepository,
			repository.NewAttemptRepository,
			repository.NewAnswerRepository,
		),

		// Services
		fx.Provide(
			service.NewScoreConverterService,
			service.NewGeminiLLMService,
			service.NewAuthService,
			service.NewUserService,
			service.NewAdminTestService,
			service.NewTestService,
			service.NewAssignmentService,
			service.NewUserTestService,
			service.NewAttemptService,
			service.NewEvaluationService,
			service.NewAutoSubmitSweeper,
		),

		// Controllers
		fx.Provide(
			authctrl.NewAuthController,
			adminctrl.NewAdminTestController,
			adminctrl.NewEmployeeController,
			adminctrl.NewEvaluationController,
			userctrl.NewUserTestController,
		),

		fx.Invoke(logger.Configure),
		fx.Invoke(AutoMigrateDB),
		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(StartAutoSubmitSweeper),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func NewGinEngine(cfg *config.Config) (*gin.Engine, error) {
	gin.SetMode(cfg.Server.GinMode)

	if err := dto.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigin,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: !allowsAnyOrigin(cfg.CORSOrigin),
		MaxAge:           12 * time.Hour,
	}))

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r, nil
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	tokens *auth.TokenManager,
	authCtrl *authctrl.AuthController,
	adminTestCtrl *adminctrl.AdminTestController,
	employeeCtrl *adminctrl.EmployeeController,
	evaluationCtrl *adminctrl.EvaluationController,
	userTestCtrl *userctrl.UserTestController,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.MessageResponse{Message: "ok"})
	})

	api := router.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authCtrl.Register)
		authGroup.POST("/register-hr", authCtrl.RegisterHR)
		authGroup.POST("/login", authCtrl.Login)
	}

	employee := api.Group("/employee", middleware.Authenticate(tokens), middleware.RequireRole(model.RoleEmployee))
	{
		employee.GET("/tests/available", userTestCtrl.GetAvailableTests)
		employee.GET("/tests/:test_id", userTestCtrl.GetTestDetails)
		employee.POST("/tests/:test_id/start", userTestCtrl.StartAttempt)

		employee.GET("/attempts", userTestCtrl.GetMyAttempts)
		employee.GET("/attempts/:attempt_id/progress", userTestCtrl.GetProgress)
		employee.GET("/attempts/:attempt_id/questions", userTestCtrl.GetAttemptQuestions)
		employee.GET("/attempts/:attempt_id/questions/:question_id", userTestCtrl.GetAttemptQuestion)
		employee.POST("/attempts/:attempt_id/answers", userTestCtrl.SubmitAnswer)
		employee.POST("/attempts/:attempt_id/go-to-question", userTestCtrl.GoToQuestion)
		employee.POST("/attempts/:attempt_id/complete", userTestCtrl.CompleteAttempt)
		employee.GET("/attempts/:attempt_id/results", userTestCtrl.GetAttemptResult)
	}

	hr := api.Group("/hr", middleware.Authenticate(tokens), middleware.RequireRole(model.RoleHR))
	{
		tests := hr.Group("/tests")
		tests.POST("", adminTestCtrl.CreateTest)
		tests.GET("", adminTestCtrl.GetMyTests)
		tests.GET("/:test_id", adminTestCtrl.GetTest)
		tests.PATCH("/:test_id/activate", adminTestCtrl.ActivateTest)
		tests.PATCH("/:test_id/deactivate", adminTestCtrl.DeactivateTest)
		tests.POST("/:test_id/questions", adminTestCtrl.AddQuestion)
		tests.POST("/:test_id/assign", adminTestCtrl.AssignTest)
		tests.GET("/:test_id/assignments", adminTestCtrl.GetTestAssignments)

		hr.GET("/employees", employeeCtrl.ListEmployees)
		hr.GET("/employees/search", employeeCtrl.SearchEmployees)

		evaluation := hr.Group("/evaluation")
		evaluation.GET("/open-answers", evaluationCtrl.ListOpenAnswers)
		evaluation.POST("/answers/:answer_id", evaluationCtrl.GradeAnswer)
		evaluation.GET("/answers/:answer_id/suggestion", evaluationCtrl.SuggestGrade)
		evaluation.GET("/attempts", evaluationCtrl.ListAttemptsForEvaluation)
		evaluation.POST("/attempts/:attempt_id/complete", evaluationCtrl.CloseEvaluation)

		hr.GET("/attempts", evaluationCtrl.ListAttempts)
		hr.GET("/attempts/:attempt_id", evaluationCtrl.GetAttemptReview)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Competency testing API starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			return server.Shutdown(ctx)
		},
	})
}

func StartAutoSubmitSweeper(lc fx.Lifecycle, sweeper *service.AutoSubmitSweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return sweeper.Start()
		},
		OnStop: func(ctx context.Context) error {
			return sweeper.Stop(ctx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Test{},
		&model.Question{},
		&model.AnswerOption{},
		&model.TestAssignment{},
		&model.Attempt{},
		&model.Answer{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
