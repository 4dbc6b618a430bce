package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/Legend8883/CompetencyTestingSystem/config"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

// GeminiLLMService proposes a grade for an open answer. HR makes the final call.
type GeminiLLMService interface {
	SuggestGrade(ctx context.Context, question *model.Question, answerText string) (feedback string, score int, err error)
}

type geminiLLMService struct {
	client *genai.GenerativeModel
}

func NewGeminiLLMService(cfg *config.Config) (GeminiLLMService, error) {
	if cfg.Gemini.ApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Grade suggestions are disabled.")
		return &geminiLLMService{}, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.Gemini.ApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	return &geminiLLMService{client: client.GenerativeModel(cfg.Gemini.Model)}, nil
}

func (s *geminiLLMService) SuggestGrade(ctx context.Context, question *model.Question, answerText string) (string, int, error) {
	if s.client == nil {
		return "", 0, ErrAssistantUnavailable
	}
	if strings.TrimSpace(answerText) == "" {
		return "The employee did not write an answer.", 0, nil
	}

	resp, err := s.client.GenerateContent(ctx, genai.Text(buildGradingPrompt(question, answerText)))
	if err != nil {
		log.Error().Err(err).Uint("questionID", question.ID).Msg("Gemini API error during grade suggestion")
		return "", 0, fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", 0, fmt.Errorf("gemini returned no content")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}

	scoreStr, feedback, err := parseScoreAndFeedback(text.String())
	if err != nil {
		log.Warn().Err(err).Str("rawResponse", text.String()).Msg("Failed to parse Gemini grade suggestion")
		return "", 0, err
	}
	score, err := parseSuggestedScore(scoreStr, question.MaxScore)
	if err != nil {
		return feedback, 0, err
	}
	return feedback, score, nil
}

func buildGradingPrompt(q *model.Question, answerText string) string {
	var b strings.Builder
	b.WriteString("You are assisting an HR specialist who grades an employee competency test.\n")
	b.WriteString("Evaluate the employee's answer to the open question below.\n\n")
	b.WriteString("Question:\n---\n")
	b.WriteString(q.Text)
	b.WriteString("\n---\n\n")
	if q.ReferenceAnswer != nil && strings.TrimSpace(*q.ReferenceAnswer) != "" {
		b.WriteString("Reference answer written by HR (a guide, not the only acceptable answer):\n---\n")
		b.WriteString(*q.ReferenceAnswer)
		b.WriteString("\n---\n\n")
	}
	b.WriteString("Employee's answer:\n---\n")
	b.WriteString(answerText)
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, `Grade correctness and completeness with a whole number from 0 to %d.
Format your response strictly as:
Score: [whole number]
Feedback:
[Two or three sentences explaining the score]
`, q.MaxScore)
	return b.String()
}

func parseScoreAndFeedback(rawResponse string) (scoreStr string, feedbackStr string, err error) {
	const scorePrefix = "Score:"
	const feedbackPrefix = "Feedback:"

	scoreIndex := strings.Index(rawResponse, scorePrefix)
	if scoreIndex == -1 {
		return "", rawResponse, fmt.Errorf("response does not contain %q prefix", scorePrefix)
	}

	rest := rawResponse[scoreIndex+len(scorePrefix):]
	line := rest
	if nl := strings.Index(rest, "\n"); nl != -1 {
		line = rest[:nl]
		rest = rest[nl+1:]
	} else {
		rest = ""
	}
	if fields := strings.Fields(line); len(fields) > 0 {
		scoreStr = fields[0]
	}

	if fi := strings.Index(rest, feedbackPrefix); fi != -1 {
		feedbackStr = strings.TrimSpace(rest[fi+len(feedbackPrefix):])
	} else {
		feedbackStr = strings.TrimSpace(rest)
	}
	return scoreStr, feedbackStr, nil
}

// parseSuggestedScore accepts "7", "7.5" or "7/10" and clamps to 0..maxScore.
func parseSuggestedScore(scoreStr string, maxScore int) (int, error) {
	if slash := strings.Index(scoreStr, "/"); slash != -1 {
		scoreStr = scoreStr[:slash]
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(scoreStr), 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse score value %q: %w", scoreStr, err)
	}
	score := int(math.Round(parsed))
	if score > maxScore {
		score = maxScore
	}
	if score < 0 {
		score = 0
	}
	return score, nil
}
