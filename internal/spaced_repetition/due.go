package spaced_repetition

import "github.com/example/vocabpack/pkg/models"

// DueCalculator answers eligibility questions about the items of one language
type DueCalculator struct {
	store *ProgressStore
}

// NewDueCalculator creates a calculator over store
func NewDueCalculator(store *ProgressStore) *DueCalculator {
	return &DueCalculator{store: store}
}

// IsDue reports whether id was graded before and its due session was reached
func (d *DueCalculator) IsDue(id string) bool {
	return isDue(d.store.GetOrCreate(id), d.store.Session())
}

func isDue(p *models.Progress, session int) bool {
	return p.Status != models.StatusNew && p.NextDueSession <= session
}

// CountDue counts the master items that are due. Unlike IsDue it never
// creates records, which does not change the result: a missing record is new.
func (d *DueCalculator) CountDue(items []models.Item) int {
	n := 0
	for _, it := range items {
		if p, ok := d.store.Lookup(it.ID); ok && isDue(p, d.store.Session()) {
			n++
		}
	}
	return n
}

// CountNew counts the master items never graded
func (d *DueCalculator) CountNew(items []models.Item) int {
	learned := 0
	for _, it := range items {
		if p, ok := d.store.Lookup(it.ID); ok && p.Status != models.StatusNew {
			learned++
		}
	}
	return max(0, len(items)-learned)
}

// CountByGrade counts graded records whose last grade is g
func (d *DueCalculator) CountByGrade(g models.Grade) int {
	n := 0
	d.store.Each(func(_ string, p *models.Progress) {
		if p.Status != models.StatusNew && p.LastGrade == g {
			n++
		}
	})
	return n
}
