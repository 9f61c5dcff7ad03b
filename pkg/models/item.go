package models

// Item represents a vocabulary card from the master item files of one language
type Item struct {
	ID        string `json:"id"`
	Word      string `json:"word"`
	IPA       string `json:"ipa"`       // Phonetic spelling, may be empty
	KoPron    string `json:"koPron"`    // Korean pronunciation aid, may be empty
	MeaningKo string `json:"meaningKo"` // Korean gloss
	Example   string `json:"example"`
}
