package vocab

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/example/vocabpack/pkg/models"
)

// Record is an item as found in a source file, before validation
type Record struct {
	ID        *string
	Word      string
	IPA       string
	KoPron    string
	MeaningKo string
	Example   string
}

// looseString accepts JSON strings, numbers and booleans; null reads as absent
type looseString struct {
	Value string
	Set   bool
}

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = looseString{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString{Value: v, Set: true}
		return nil
	}
	// numbers are written the way JavaScript prints them, so 1.0 and 1e3
	// become "1" and "1000"; booleans keep their literal text
	if f, err := strconv.ParseFloat(string(data), 64); err == nil {
		*s = looseString{Value: strconv.FormatFloat(f, 'f', -1, 64), Set: true}
		return nil
	}
	*s = looseString{Value: string(data), Set: true}
	return nil
}

type jsonRecord struct {
	ID        looseString `json:"id"`
	Word      looseString `json:"word"`
	IPA       looseString `json:"ipa"`
	KoPron    looseString `json:"koPron"`
	MeaningKo looseString `json:"meaningKo"`
	Example   looseString `json:"example"`
}

func (r jsonRecord) record() Record {
	rec := Record{
		Word:      r.Word.Value,
		IPA:       r.IPA.Value,
		KoPron:    r.KoPron.Value,
		MeaningKo: r.MeaningKo.Value,
		Example:   r.Example.Value,
	}
	if r.ID.Set {
		id := r.ID.Value
		rec.ID = &id
	}
	return rec
}

// Normalize turns the concatenated records of one language into items.
// Text is trimmed, records without a word or an example are dropped, a
// missing id is synthesized from the record position and the word, and the
// first occurrence of an id wins.
func Normalize(lang models.Language, records []Record) []models.Item {
	items := make([]models.Item, 0, len(records))
	seen := make(map[string]bool, len(records))
	for pos, r := range records {
		word := strings.TrimSpace(r.Word)
		example := strings.TrimSpace(r.Example)
		if word == "" || example == "" {
			continue
		}
		id := AutoID(lang, pos, word)
		if r.ID != nil {
			id = *r.ID
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		items = append(items, models.Item{
			ID:        id,
			Word:      word,
			IPA:       strings.TrimSpace(r.IPA),
			KoPron:    strings.TrimSpace(r.KoPron),
			MeaningKo: strings.TrimSpace(r.MeaningKo),
			Example:   example,
		})
	}
	return items
}

// AutoID builds the stable id of a record that has none
func AutoID(lang models.Language, position int, word string) string {
	return string(lang) + "_auto_" + strconv.Itoa(position) + "_" + hashID(word)
}

// hashID is the 31-multiplier string hash over UTF-16 code units, wrapped to
// 32 bits, made non-negative and written in base 36
func hashID(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}
