package scoring

import (
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

type Source int

const (
	SourceNone Source = iota
	SourceAuto
	SourceAssigned
)

func (s Source) String() string {
	switch s {
	case SourceAuto:
		return "AUTO"
	case SourceAssigned:
		return "ASSIGNED"
	default:
		return "NONE"
	}
}

// ScoreSource is the score an answer currently counts for, tagged with where
// it came from.
type ScoreSource struct {
	source Source
	points int
}

func Assigned(points int) ScoreSource { return ScoreSource{source: SourceAssigned, points: points} }
func Auto(points int) ScoreSource     { return ScoreSource{source: SourceAuto, points: points} }
func None() ScoreSource               { return ScoreSource{source: SourceNone} }

func (s ScoreSource) Source() Source { return s.source }

// Points is 0 for SourceNone.
func (s ScoreSource) Points() int { return s.points }

// Resolve applies the precedence assigned, then auto, then none.
func Resolve(a *model.Answer) ScoreSource {
	switch {
	case a.AssignedScore != nil:
		return Assigned(*a.AssignedScore)
	case a.AutoScore != nil:
		return Auto(*a.AutoScore)
	default:
		return None()
	}
}
