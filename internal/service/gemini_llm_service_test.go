package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

func TestParseScoreAndFeedback(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantScore    string
		wantFeedback string
		wantErr      bool
	}{
		{
			name:         "strict format",
			raw:          "Score: 7\nFeedback:\nCovers the main points but misses edge cases.",
			wantScore:    "7",
			wantFeedback: "Covers the main points but misses edge cases.",
		},
		{
			name:         "preamble and trailing words",
			raw:          "Here is my grade.\nScore: 4 points\nFeedback: Too short.",
			wantScore:    "4",
			wantFeedback: "Too short.",
		},
		{
			name:         "feedback without prefix",
			raw:          "Score: 2\nMostly off topic.",
			wantScore:    "2",
			wantFeedback: "Mostly off topic.",
		},
		{
			name:    "no score",
			raw:     "I cannot grade this.",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, feedback, err := parseScoreAndFeedback(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantFeedback, feedback)
		})
	}
}

func TestParseSuggestedScoreClamps(t *testing.T) {
	got, err := parseSuggestedScore("12", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, got)

	got, err = parseSuggestedScore("7.5/10", 10)
	require.NoError(t, err)
	assert.Equal(t, 8, got)

	got, err = parseSuggestedScore("-3", 10)
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	_, err = parseSuggestedScore("seven", 10)
	assert.Error(t, err)
}

func TestSuggestGradeWithoutClient(t *testing.T) {
	svc := &geminiLLMService{}
	_, _, err := svc.SuggestGrade(context.Background(), &model.Question{MaxScore: 5}, "answer")
	assert.ErrorIs(t, err, ErrAssistantUnavailable)
}
