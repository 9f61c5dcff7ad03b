package spaced_repetition

import (
	"fmt"

	"github.com/example/vocabpack/pkg/models"
)

// DefaultPackSize is the number of cards in a full pack
const DefaultPackSize = 20

// PackBuilder assembles the ordered batch of ids studied in one session
type PackBuilder struct {
	// Size is the target pack length
	Size int
}

// NewPackBuilder creates a builder with the given target size.
// Non-positive sizes fall back to DefaultPackSize.
func NewPackBuilder(size int) *PackBuilder {
	if size <= 0 {
		size = DefaultPackSize
	}
	return &PackBuilder{Size: size}
}

// PackSeed derives the RNG seed of a pack
func PackSeed(lang models.Language, session, masterLen int) string {
	return fmt.Sprintf("pack|%s|%d|%d", lang, session, masterLen)
}

// Build returns at most b.Size ids for the current session of store.
//
// Priority is unknown-due > unsure-due > new > known-due. When the due
// backlog alone fills the pack, no new items are introduced. Every bucket
// is shuffled with one generator in a fixed order so the result depends
// only on (lang, session, len(items)) and the stored progress.
func (b *PackBuilder) Build(lang models.Language, store *ProgressStore, items []models.Item) []string {
	session := store.Session()
	rnd := SeededRandom(PackSeed(lang, session, len(items)))

	var dueUnknown, dueUnsure, dueKnown []string
	for _, it := range items {
		p := store.GetOrCreate(it.ID)
		if !isDue(p, session) {
			continue
		}
		switch p.LastGrade {
		case models.GradeUnknown:
			dueUnknown = append(dueUnknown, it.ID)
		case models.GradeUnsure:
			dueUnsure = append(dueUnsure, it.ID)
		default:
			dueKnown = append(dueKnown, it.ID)
		}
	}

	dueUnknown = Shuffle(dueUnknown, rnd)
	dueUnsure = Shuffle(dueUnsure, rnd)
	dueKnown = Shuffle(dueKnown, rnd)

	totalDue := len(dueUnknown) + len(dueUnsure) + len(dueKnown)
	pack := make([]string, 0, b.Size)
	fill := func(ids []string) {
		for _, id := range ids {
			if len(pack) >= b.Size {
				return
			}
			pack = append(pack, id)
		}
	}

	if totalDue >= b.Size {
		fill(dueUnknown)
		fill(dueUnsure)
		fill(dueKnown)
		return pack
	}

	fill(dueUnknown)
	fill(dueUnsure)
	if len(pack) < b.Size {
		var fresh []string
		for _, it := range items {
			if store.GetOrCreate(it.ID).Status == models.StatusNew {
				fresh = append(fresh, it.ID)
			}
		}
		fill(Shuffle(fresh, rnd))
	}
	fill(dueKnown)

	if len(pack) > b.Size {
		pack = pack[:b.Size]
	}
	return pack
}
