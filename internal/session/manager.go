package session

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/example/vocabpack/internal/spaced_repetition"
	"github.com/example/vocabpack/pkg/models"
)

// Persister writes full state snapshots to durable storage
type Persister interface {
	Save(ctx context.Context, state *models.State) error
	Reset(ctx context.Context) error
}

// Options tunes a Manager. Zero values select the defaults.
type Options struct {
	PackSize int
	Gaps     spaced_repetition.SessionGaps
	Now      func() time.Time
}

// Entry is an item together with a copy of its progress
type Entry struct {
	Item     models.Item
	Progress models.Progress
}

// Counts summarizes the progress of one language
type Counts struct {
	Language models.Language
	Session  int
	Total    int
	Due      int
	New      int
	ByGrade  map[models.Grade]int
}

// CardRef identifies one position of one pack
type CardRef struct {
	Language models.Language
	Session  int
	Idx      int
}

// Manager owns the state container, the session counters and the open
// packs. Every mutating call persists the full state before returning.
type Manager struct {
	mu        sync.Mutex
	state     *models.State
	items     map[models.Language][]models.Item
	index     map[models.Language]map[string]int
	persister Persister
	builder   *spaced_repetition.PackBuilder
	grader    *spaced_repetition.Grader
	now       func() time.Time
}

// NewManager creates a manager over state and the master items of each
// language. persister may be nil, in which case nothing is written.
func NewManager(state *models.State, items map[models.Language][]models.Item, persister Persister, opts Options) *Manager {
	if state == nil {
		state = models.DefaultState()
	}
	if opts.Gaps == (spaced_repetition.SessionGaps{}) {
		opts.Gaps = spaced_repetition.NewSessionGaps()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := &Manager{
		state:     state,
		items:     make(map[models.Language][]models.Item, len(items)),
		index:     make(map[models.Language]map[string]int, len(items)),
		persister: persister,
		builder:   spaced_repetition.NewPackBuilder(opts.PackSize),
		grader:    spaced_repetition.NewGrader(opts.Gaps, opts.Now),
		now:       opts.Now,
	}
	for lang, list := range items {
		m.items[lang] = list
		idx := make(map[string]int, len(list))
		for i, it := range list {
			idx[it.ID] = i
		}
		m.index[lang] = idx
	}
	return m
}

// PackSize returns the target pack length
func (m *Manager) PackSize() int {
	return m.builder.Size
}

// Gaps returns the configured session gaps
func (m *Manager) Gaps() spaced_repetition.SessionGaps {
	return m.grader.Gaps
}

// ActiveLanguage returns the language being studied
func (m *Manager) ActiveLanguage() models.Language {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ActiveLang
}

// Items returns the master items of lang
func (m *Manager) Items(lang models.Language) []models.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[lang]
}

// Snapshot returns a deep copy of the current state
func (m *Manager) Snapshot() *models.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// SetActiveLanguage switches the studied language. Other languages keep
// their sessions, progress and open packs untouched.
func (m *Manager) SetActiveLanguage(ctx context.Context, lang models.Language) error {
	if !lang.Supported() {
		return fmt.Errorf("%w: %q", models.ErrUnknownLanguage, lang)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.ActiveLang = lang
	m.state.Lang(lang)
	return m.persist(ctx, "set language")
}

// OpenNewPack advances the session of the active language and replaces its
// open pack with a freshly built one. A short or empty pack means there is
// nothing more to study right now.
func (m *Manager) OpenNewPack(ctx context.Context) (models.Pack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lang := m.state.ActiveLang
	ls := m.state.Active()
	ls.Session++
	store := spaced_repetition.NewProgressStore(ls, m.now)
	ids := m.builder.Build(lang, store, m.items[lang])
	ls.Pack = &models.Pack{Session: ls.Session, IDs: ids, Idx: 0}

	pack := copyPack(ls.Pack)
	return pack, m.persist(ctx, "open pack")
}

// OpenPack returns a copy of the open pack of the active language
func (m *Manager) OpenPack() (models.Pack, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.state.Active().Pack
	if p == nil {
		return models.Pack{}, false
	}
	return copyPack(p), true
}

// CurrentCard returns the card under the cursor. Ids no longer present in
// the master list come back with only ID set.
func (m *Manager) CurrentCard() (models.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.currentID()
	if !ok {
		return models.Item{}, false
	}
	if it, ok := m.lookup(m.state.ActiveLang, id); ok {
		return it, true
	}
	return models.Item{ID: id}, true
}

// CurrentRef returns the position of the card under the cursor
func (m *Manager) CurrentRef() (CardRef, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.currentID(); !ok {
		return CardRef{}, false
	}
	p := m.state.Active().Pack
	return CardRef{Language: m.state.ActiveLang, Session: p.Session, Idx: p.Idx}, true
}

// GradeCurrent grades the card under the cursor and advances the cursor.
// A card missing from the master list is skipped without grading.
func (m *Manager) GradeCurrent(ctx context.Context, outcome models.Grade) error {
	if _, err := m.grader.Gaps.Gap(outcome); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gradeCurrent(ctx, outcome)
}

// GradeAt grades the card at ref. It fails with ErrStaleCard unless ref is
// still the card under the cursor, so a repeated answer for a card that was
// already graded never lands on the next one.
func (m *Manager) GradeAt(ctx context.Context, ref CardRef, outcome models.Grade) error {
	if _, err := m.grader.Gaps.Gap(outcome); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.state.Active().Pack
	if ref.Language != m.state.ActiveLang || p == nil || p.Session != ref.Session || p.Idx != ref.Idx {
		return ErrStaleCard
	}
	return m.gradeCurrent(ctx, outcome)
}

func (m *Manager) gradeCurrent(ctx context.Context, outcome models.Grade) error {
	id, ok := m.currentID()
	if !ok {
		return ErrNoOpenCard
	}
	lang := m.state.ActiveLang
	ls := m.state.Active()
	if _, known := m.lookup(lang, id); known {
		store := spaced_repetition.NewProgressStore(ls, m.now)
		if err := m.grader.Grade(store, id, outcome); err != nil {
			return err
		}
	}
	ls.Pack.Idx++
	return m.persist(ctx, "grade")
}

// Advance moves the cursor of the open pack by one card
func (m *Manager) Advance(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.currentID(); !ok {
		return ErrNoOpenCard
	}
	m.state.Active().Pack.Idx++
	return m.persist(ctx, "advance")
}

// ListItems returns the graded items of the active language whose last
// grade is one of grades (all graded items when grades is empty), most
// recently updated first.
func (m *Manager) ListItems(grades ...models.Grade) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := make(map[models.Grade]bool, len(grades))
	for _, g := range grades {
		want[g] = true
	}

	store := spaced_repetition.NewProgressStore(m.state.Active(), m.now)
	var out []Entry
	for _, it := range m.items[m.state.ActiveLang] {
		p, ok := store.Lookup(it.ID)
		if !ok || p.Status == models.StatusNew {
			continue
		}
		if len(want) > 0 && !want[p.LastGrade] {
			continue
		}
		out = append(out, Entry{Item: it, Progress: *p})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Progress.LastUpdatedAt.After(out[j].Progress.LastUpdatedAt)
	})
	return out
}

// Counts summarizes the active language
func (m *Manager) Counts() Counts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts(m.state.ActiveLang)
}

// CountsFor summarizes lang without changing the active language
func (m *Manager) CountsFor(lang models.Language) Counts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts(lang)
}

func (m *Manager) counts(lang models.Language) Counts {
	ls := m.state.Lang(lang)
	due := spaced_repetition.NewDueCalculator(spaced_repetition.NewProgressStore(ls, m.now))
	items := m.items[lang]

	c := Counts{
		Language: lang,
		Session:  ls.Session,
		Total:    len(items),
		Due:      due.CountDue(items),
		New:      due.CountNew(items),
		ByGrade:  make(map[models.Grade]int, len(models.Grades)),
	}
	for _, g := range models.Grades {
		c.ByGrade[g] = due.CountByGrade(g)
	}
	return c
}

// ResetProgress discards all sessions, progress and packs of every
// language and returns to the default state. Item data is kept.
func (m *Manager) ResetProgress(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = models.DefaultState()
	if m.persister == nil {
		return nil
	}
	if err := m.persister.Reset(ctx); err != nil {
		log.Printf("Error resetting stored state: %v", err)
		return &PersistenceError{Op: "reset", Err: err}
	}
	return nil
}

// currentID returns the id under the cursor of the active pack
func (m *Manager) currentID() (string, bool) {
	p := m.state.Active().Pack
	if p == nil {
		return "", false
	}
	return p.Current()
}

func (m *Manager) lookup(lang models.Language, id string) (models.Item, bool) {
	i, ok := m.index[lang][id]
	if !ok {
		return models.Item{}, false
	}
	return m.items[lang][i], true
}

func (m *Manager) persist(ctx context.Context, op string) error {
	if m.persister == nil {
		return nil
	}
	if err := m.persister.Save(ctx, m.state); err != nil {
		log.Printf("Error saving state after %s: %v", op, err)
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}

func copyPack(p *models.Pack) models.Pack {
	return models.Pack{
		Session: p.Session,
		IDs:     append([]string(nil), p.IDs...),
		Idx:     p.Idx,
	}
}
