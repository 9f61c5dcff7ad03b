package spaced_repetition

import (
	"math"
	"math/bits"
	"unicode/utf16"
)

// Generator returns floats in [0,1)
type Generator func() float64

// SeededRandom returns a generator whose sequence depends only on seed.
// The seed is hashed with xmur3 over its UTF-16 code units and the result
// drives a mulberry32 generator, so sequences match other implementations
// of the same pair bit for bit.
func SeededRandom(seed string) Generator {
	return mulberry32(xmur3(seed))
}

// xmur3 hashes s into a 32-bit seed
func xmur3(s string) uint32 {
	units := utf16.Encode([]rune(s))
	h := uint32(1779033703) ^ uint32(len(units))
	for _, c := range units {
		h = (h ^ uint32(c)) * 3432918353
		h = bits.RotateLeft32(h, 13)
	}
	h = (h ^ h>>16) * 2246822507
	h = (h ^ h>>13) * 3266489909
	h ^= h >> 16
	return h
}

func mulberry32(a uint32) Generator {
	return func() float64 {
		a += 0x6D2B79F5
		t := a
		t = (t ^ t>>15) * (t | 1)
		t ^= t + (t^t>>7)*(t|61)
		return float64(t^t>>14) / 4294967296
	}
}

// Shuffle returns a shuffled copy of ids (Fisher-Yates from the last index
// down). Inputs shorter than two elements never call rnd.
func Shuffle(ids []string, rnd Generator) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	for i := len(out) - 1; i > 0; i-- {
		j := int(math.Floor(rnd() * float64(i+1)))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
