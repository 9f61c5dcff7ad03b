package spaced_repetition

import (
	"time"

	"github.com/example/vocabpack/pkg/models"
)

// ProgressStore provides access to the progress records of one language
type ProgressStore struct {
	lang *models.LanguageState
	now  func() time.Time
}

// NewProgressStore wraps the state of a single language.
// now stamps records on creation; nil means time.Now.
func NewProgressStore(lang *models.LanguageState, now func() time.Time) *ProgressStore {
	if now == nil {
		now = time.Now
	}
	if lang.Progress == nil {
		lang.Progress = make(map[string]*models.Progress)
	}
	return &ProgressStore{lang: lang, now: now}
}

// GetOrCreate returns the record of id, inserting a new one if absent
func (s *ProgressStore) GetOrCreate(id string) *models.Progress {
	p, ok := s.lang.Progress[id]
	if !ok || p == nil {
		p = models.NewProgress(s.now())
		s.lang.Progress[id] = p
	}
	return p
}

// Lookup returns the record of id without creating it
func (s *ProgressStore) Lookup(id string) (*models.Progress, bool) {
	p, ok := s.lang.Progress[id]
	return p, ok && p != nil
}

// Session returns the current session of the language
func (s *ProgressStore) Session() int {
	return s.lang.Session
}

// Len returns the number of records
func (s *ProgressStore) Len() int {
	return len(s.lang.Progress)
}

// Each calls fn for every record, in no particular order
func (s *ProgressStore) Each(fn func(id string, p *models.Progress)) {
	for id, p := range s.lang.Progress {
		if p != nil {
			fn(id, p)
		}
	}
}
