package spaced_repetition

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference values come from the xmur3/mulberry32 pair as published.
func TestSeededRandomReferenceSequence(t *testing.T) {
	tests := []struct {
		seed string
		want []float64
	}{
		{"pack|en|1|5", []float64{0.7444509721826762, 0.5119188725948334, 0.5212491261772811}},
		{"", []float64{0.9757088038604707, 0.6221915907226503}},
		{"안녕|ja", []float64{0.5993862266186625, 0.29011004278436303}},
	}
	for _, tt := range tests {
		t.Run(tt.seed, func(t *testing.T) {
			rnd := SeededRandom(tt.seed)
			for i, want := range tt.want {
				assert.Equal(t, want, rnd(), "value %d", i)
			}
		})
	}
}

func TestSeededRandomDeterministicAndInRange(t *testing.T) {
	a := SeededRandom("seed")
	b := SeededRandom("seed")
	c := SeededRandom("seed2")
	same := 0
	for i := 0; i < 1000; i++ {
		x, y, z := a(), b(), c()
		require.Equal(t, x, y)
		require.GreaterOrEqual(t, x, 0.0)
		require.Less(t, x, 1.0)
		if x == z {
			same++
		}
	}
	assert.Less(t, same, 5)
}

func TestShuffleReference(t *testing.T) {
	got := Shuffle([]string{"w1", "w2", "w3", "w4", "w5"}, SeededRandom("pack|en|1|5"))
	assert.Equal(t, []string{"w5", "w1", "w2", "w3", "w4"}, got)
}

func TestShuffleIsPermutationAndCopies(t *testing.T) {
	in := make([]string, 50)
	for i := range in {
		in[i] = fmt.Sprintf("id%d", i)
	}
	orig := append([]string(nil), in...)

	out := Shuffle(in, SeededRandom("x"))
	assert.Equal(t, orig, in, "input must not be modified")

	sorted := append([]string(nil), out...)
	sort.Strings(sorted)
	want := append([]string(nil), orig...)
	sort.Strings(want)
	assert.Equal(t, want, sorted)
}

func TestShuffleShortInputDoesNotConsumeGenerator(t *testing.T) {
	calls := 0
	rnd := func() float64 {
		calls++
		return 0.5
	}
	assert.Empty(t, Shuffle(nil, rnd))
	assert.Equal(t, []string{"only"}, Shuffle([]string{"only"}, rnd))
	assert.Zero(t, calls)

	Shuffle([]string{"a", "b", "c"}, rnd)
	assert.Equal(t, 2, calls)
}
