// Package scoring computes per-answer and per-attempt scores. Everything here
// is a pure function of model values.
package scoring

import (
	"math"

	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

// AutoScore scores a choice submission against the question's options.
// Repeated option ids count once, so a single-choice submission of the same
// correct id twice still earns full marks. Open-answer questions always auto-score 0; their real score is assigned by HR.
func AutoScore(q *model.Question, selected []uint) int {
	switch q.Type {
	case model.QuestionTypeSingleChoice:
		return singleChoice(q, Distinct(selected))
	case model.QuestionTypeMultipleChoice:
		return multipleChoice(q, Distinct(selected))
	default:
		return 0
	}
}

func singleChoice(q *model.Question, selected []uint) int {
	if len(selected) != 1 {
		return 0
	}
	for _, o := range q.Options {
		if o.ID == selected[0] {
			if o.IsCorrect {
				return q.MaxScore
			}
			return 0
		}
	}
	return 0
}

func multipleChoice(q *model.Question, selected []uint) int {
	correct := make(map[uint]struct{})
	for _, id := range q.CorrectOptionIDs() {
		correct[id] = struct{}{}
	}
	if len(correct) == 0 {
		return 0
	}

	hits, misses := 0, 0
	for _, id := range selected {
		if _, ok := correct[id]; ok {
			hits++
		} else {
			misses++
		}
	}
	net := hits - misses
	if net <= 0 {
		return 0
	}
	return int(math.Round(float64(net) / float64(len(correct)) * float64(q.MaxScore)))
}

// Distinct drops repeated ids and keeps first-seen order.
func Distinct(ids []uint) []uint {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// AttemptTotal sums the resolved score of every answer.
func AttemptTotal(answers []model.Answer) int {
	total := 0
	for i := range answers {
		total += Resolve(&answers[i]).Points()
	}
	return total
}

// PendingManualGrading counts answers to open-answer questions that have no
// assigned score yet. questions is keyed by question id.
func PendingManualGrading(questions map[uint]*model.Question, answers []model.Answer) int {
	pending := 0
	for i := range answers {
		q, ok := questions[answers[i].QuestionID]
		if !ok || q.Type != model.QuestionTypeOpenAnswer {
			continue
		}
		if answers[i].AssignedScore == nil {
			pending++
		}
	}
	return pending
}
