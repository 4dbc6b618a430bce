package service

import (
	"fmt"
	"math"

	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

type ScoreSummary struct {
	Percentage float64
	// Passed is nil while the score can still change through grading.
	Passed *bool
}

type ScoreConverterService interface {
	ConvertToPercentage(rawScore, maxPossible int) (float64, error)
	Summarize(rawScore, maxPossible, passingScore int, status model.AttemptStatus) ScoreSummary
}

type scoreConverterServiceImpl struct{}

func NewScoreConverterService() ScoreConverterService {
	return &scoreConverterServiceImpl{}
}

// ConvertToPercentage maps a raw score onto 0-100, rounded to two decimals.
// A test without points converts to 0.
func (s *scoreConverterServiceImpl) ConvertToPercentage(rawScore, maxPossible int) (float64, error) {
	if maxPossible <= 0 {
		return 0, nil
	}
	if rawScore < 0 || rawScore > maxPossible {
		return 0, fmt.Errorf("raw score %d is out of valid range (0-%d)", rawScore, maxPossible)
	}
	pct := float64(rawScore) / float64(maxPossible) * 100
	return math.Round(pct*100) / 100, nil
}

func (s *scoreConverterServiceImpl) Summarize(rawScore, maxPossible, passingScore int, status model.AttemptStatus) ScoreSummary {
	pct, err := s.ConvertToPercentage(rawScore, maxPossible)
	if err != nil {
		// Questions can be appended after an attempt was scored; clamp instead of failing the view.
		pct = 100
	}
	summary := ScoreSummary{Percentage: pct}
	if status.Final() {
		passed := rawScore >= passingScore
		summary.Passed = &passed
	}
	return summary
}
