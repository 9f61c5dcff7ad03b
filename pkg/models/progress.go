package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// NeverSeen is the LastSeenSession value of an item that was never graded
const NeverSeen = -1

// Status is the learning status of a single item
type Status uint8

const (
	// StatusNew means the item has never been graded
	StatusNew Status = iota
	// StatusLearning means the item was graded at least once
	StatusLearning
)

// ParseStatus converts the persisted text form of a status
func ParseStatus(s string) (Status, error) {
	switch s {
	case "new":
		return StatusNew, nil
	case "learning":
		return StatusLearning, nil
	}
	return 0, fmt.Errorf("%w: status %q", ErrInvalidArgument, s)
}

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusLearning:
		return "learning"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case StatusNew, StatusLearning:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("%w: status %d", ErrInvalidArgument, uint8(s))
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Status) UnmarshalText(text []byte) error {
	v, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Grade is the learner's self-assessment of a card
type Grade uint8

const (
	// GradeUnset is the zero value, held by items that were never graded
	GradeUnset Grade = iota
	GradeKnown
	GradeUnsure
	GradeUnknown
)

// Grades lists every grade a learner can give, in display order
var Grades = []Grade{GradeKnown, GradeUnsure, GradeUnknown}

// ParseGrade converts "known", "unsure" or "unknown" into a Grade.
// Anything else, including the empty string, is rejected.
func ParseGrade(s string) (Grade, error) {
	switch s {
	case "known":
		return GradeKnown, nil
	case "unsure":
		return GradeUnsure, nil
	case "unknown":
		return GradeUnknown, nil
	}
	return GradeUnset, fmt.Errorf("%w: grade %q", ErrInvalidArgument, s)
}

// Valid reports whether g is one of the three outcomes a learner can give
func (g Grade) Valid() bool {
	switch g {
	case GradeKnown, GradeUnsure, GradeUnknown:
		return true
	}
	return false
}

func (g Grade) String() string {
	switch g {
	case GradeUnset:
		return "unset"
	case GradeKnown:
		return "known"
	case GradeUnsure:
		return "unsure"
	case GradeUnknown:
		return "unknown"
	}
	return fmt.Sprintf("Grade(%d)", uint8(g))
}

// MarshalJSON encodes an unset grade as null
func (g Grade) MarshalJSON() ([]byte, error) {
	if g == GradeUnset {
		return []byte("null"), nil
	}
	if !g.Valid() {
		return nil, fmt.Errorf("%w: grade %d", ErrInvalidArgument, uint8(g))
	}
	return json.Marshal(g.String())
}

// UnmarshalJSON accepts null or one of the grade names
func (g *Grade) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*g = GradeUnset
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: grade %s", ErrInvalidArgument, data)
	}
	v, err := ParseGrade(s)
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// Progress tracks the review state of one item
type Progress struct {
	Status          Status
	LastGrade       Grade
	NextDueSession  int // Session at/after which the item is due; meaningless while new
	SeenCount       int // Number of times graded
	LastSeenSession int // Session of the last grading, NeverSeen if never graded
	LastUpdatedAt   time.Time
}

// NewProgress returns the record of an item that was never graded
func NewProgress(now time.Time) *Progress {
	return &Progress{
		Status:          StatusNew,
		LastGrade:       GradeUnset,
		NextDueSession:  0,
		SeenCount:       0,
		LastSeenSession: NeverSeen,
		LastUpdatedAt:   now,
	}
}

// progressJSON is the persisted layout; timestamps are Unix milliseconds
type progressJSON struct {
	Status          Status `json:"status"`
	LastGrade       Grade  `json:"lastGrade"`
	NextDueSession  int    `json:"nextDueSession"`
	SeenCount       int    `json:"seenCount"`
	LastSeenSession int    `json:"lastSeenSession"`
	LastUpdatedAt   int64  `json:"lastUpdatedAt"`
}

// MarshalJSON implements json.Marshaler
func (p Progress) MarshalJSON() ([]byte, error) {
	return json.Marshal(progressJSON{
		Status:          p.Status,
		LastGrade:       p.LastGrade,
		NextDueSession:  p.NextDueSession,
		SeenCount:       p.SeenCount,
		LastSeenSession: p.LastSeenSession,
		LastUpdatedAt:   p.LastUpdatedAt.UnixMilli(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. Missing fields take the values
// of a fresh record.
func (p *Progress) UnmarshalJSON(data []byte) error {
	raw := progressJSON{Status: StatusNew, LastSeenSession: NeverSeen}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.SeenCount < 0 {
		return fmt.Errorf("%w: negative seenCount %d", ErrInvalidArgument, raw.SeenCount)
	}
	// a record is new exactly while it was never graded
	if (raw.Status == StatusNew) != (raw.SeenCount == 0) {
		return fmt.Errorf("%w: status %s with seenCount %d", ErrInvalidArgument, raw.Status, raw.SeenCount)
	}
	*p = Progress{
		Status:          raw.Status,
		LastGrade:       raw.LastGrade,
		NextDueSession:  raw.NextDueSession,
		SeenCount:       raw.SeenCount,
		LastSeenSession: raw.LastSeenSession,
		LastUpdatedAt:   time.UnixMilli(raw.LastUpdatedAt),
	}
	return nil
}
