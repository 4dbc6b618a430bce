package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Legend8883/CompetencyTestingSystem/config"
	"github.com/Legend8883/CompetencyTestingSystem/internal/apperror"
	"github.com/Legend8883/CompetencyTestingSystem/internal/repository"
)

// SweepResult counts the outcome of one sweep.
type SweepResult struct {
	Submitted int
	Skipped   int
	Failed    int
}

// AutoSubmitSweeper finalizes in-progress attempts whose time limit has run
// out. It runs on a cron schedule; a tick that overlaps a running sweep is
// skipped.
type AutoSubmitSweeper struct {
	attemptRepo    repository.AttemptRepository
	attemptService AttemptService
	schedule       string
	batch          int
	now            func() time.Time

	cron *cron.Cron
}

func NewAutoSubmitSweeper(attemptRepo repository.AttemptRepository, attemptService AttemptService, cfg *config.Config) *AutoSubmitSweeper {
	batch := cfg.Attempts.AutoSubmitBatch
	if batch <= 0 {
		batch = 100
	}
	schedule := cfg.Attempts.AutoSubmitSchedule
	if schedule == "" {
		schedule = "@every 30s"
	}
	return &AutoSubmitSweeper{
		attemptRepo:    attemptRepo,
		attemptService: attemptService,
		schedule:       schedule,
		batch:          batch,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Sweep submits every attempt due at the current time, reading them in pages
// of the configured batch size. A failure on one attempt is logged and the
// sweep moves on; the attempt is picked up again at the next tick. Attempts
// finished by their owner in the meantime are counted as skipped.
func (s *AutoSubmitSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := s.now()
	var handled []uint
	for {
		due, err := s.attemptRepo.FindDueForAutoSubmit(ctx, now, handled, s.batch)
		if err != nil {
			return res, fmt.Errorf("failed to load due attempts: %w", err)
		}

		for _, a := range due {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			handled = append(handled, a.ID)
			summary, err := s.attemptService.AutoSubmit(ctx, a.ID)
			switch {
			case err == nil:
				res.Submitted++
				log.Info().Uint("attemptID", a.ID).Str("status", summary.Status).Int("score", summary.Score).Msg("Attempt auto-submitted")
			case apperror.Is(err, apperror.KindState):
				res.Skipped++
				log.Debug().Uint("attemptID", a.ID).Err(err).Msg("Attempt already finished, skipping")
			default:
				res.Failed++
				log.Error().Err(err).Uint("attemptID", a.ID).Msg("Auto-submit failed")
			}
		}
		if len(due) < s.batch {
			return res, nil
		}
	}
}

// Start schedules the sweep.
func (s *AutoSubmitSweeper) Start() error {
	cronLogger := cronLogAdapter{logger: log.With().Str("component", "auto-submit").Logger()}
	s.cron = cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		res, err := s.Sweep(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Auto-submit sweep aborted")
			return
		}
		if res.Submitted+res.Skipped+res.Failed > 0 {
			log.Info().Int("submitted", res.Submitted).Int("skipped", res.Skipped).Int("failed", res.Failed).Msg("Auto-submit sweep finished")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid auto-submit schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Int("batch", s.batch).Msg("Auto-submit sweeper started")
	return nil
}

// Stop waits for a running sweep to finish or ctx to end.
func (s *AutoSubmitSweeper) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	select {
	case <-s.cron.Stop().Done():
		log.Info().Msg("Auto-submit sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogAdapter routes cron's logr-style messages to zerolog.
type cronLogAdapter struct {
	logger zerolog.Logger
}

func (l cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
