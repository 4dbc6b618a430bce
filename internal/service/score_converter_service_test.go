package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

func TestConvertToPercentage(t *testing.T) {
	sc := NewScoreConverterService()

	tests := []struct {
		name     string
		raw, max int
		want     float64
		wantErr  bool
	}{
		{"half", 5, 10, 50, false},
		{"thirds round to cents", 1, 3, 33.33, false},
		{"full", 7, 7, 100, false},
		{"no points in test", 0, 0, 0, false},
		{"negative", -1, 10, 0, true},
		{"over max", 11, 10, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sc.ConvertToPercentage(tt.raw, tt.max)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestSummarizePassedOnlyWhenFinal(t *testing.T) {
	sc := NewScoreConverterService()

	pending := sc.Summarize(8, 10, 7, model.AttemptStatusEvaluating)
	assert.Nil(t, pending.Passed)

	done := sc.Summarize(8, 10, 7, model.AttemptStatusEvaluated)
	require.NotNil(t, done.Passed)
	assert.True(t, *done.Passed)

	failed := sc.Summarize(6, 10, 7, model.AttemptStatusCompleted)
	require.NotNil(t, failed.Passed)
	assert.False(t, *failed.Passed)
	assert.InDelta(t, 60, failed.Percentage, 0.001)
}
