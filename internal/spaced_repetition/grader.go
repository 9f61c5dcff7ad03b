package spaced_repetition

import (
	"fmt"
	"time"

	"github.com/example/vocabpack/pkg/models"
)

// SessionGaps maps each grade to the number of sessions until the item is due again
type SessionGaps struct {
	Known   int
	Unsure  int
	Unknown int
}

// NewSessionGaps returns the default gaps: known 10, unsure 3, unknown 1
func NewSessionGaps() SessionGaps {
	return SessionGaps{
		Known:   10,
		Unsure:  3,
		Unknown: 1,
	}
}

// Gap returns the gap of g
func (sg SessionGaps) Gap(g models.Grade) (int, error) {
	switch g {
	case models.GradeKnown:
		return sg.Known, nil
	case models.GradeUnsure:
		return sg.Unsure, nil
	case models.GradeUnknown:
		return sg.Unknown, nil
	}
	return 0, fmt.Errorf("%w: grade %s", models.ErrInvalidArgument, g)
}

// Grader applies review outcomes to progress records
type Grader struct {
	Gaps SessionGaps
	now  func() time.Time
}

// NewGrader creates a grader. nil now means time.Now.
func NewGrader(gaps SessionGaps, now func() time.Time) *Grader {
	if now == nil {
		now = time.Now
	}
	return &Grader{Gaps: gaps, now: now}
}

// Grade records outcome for id at the current session of store
func (g *Grader) Grade(store *ProgressStore, id string, outcome models.Grade) error {
	gap, err := g.Gaps.Gap(outcome)
	if err != nil {
		return err
	}

	session := store.Session()
	p := store.GetOrCreate(id)
	p.Status = models.StatusLearning
	p.LastGrade = outcome
	p.SeenCount++
	p.LastSeenSession = session
	p.NextDueSession = session + gap
	p.LastUpdatedAt = g.now()
	return nil
}
