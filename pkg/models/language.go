package models

import "fmt"

// Language is the code of a supported vocabulary language
type Language string

const (
	English  Language = "en"
	Japanese Language = "ja"
	Spanish  Language = "es"
)

// DefaultLanguage is active on a fresh state
const DefaultLanguage = English

// SupportedLanguages lists every language in display order
var SupportedLanguages = []Language{English, Japanese, Spanish}

// ParseLanguage validates a language code
func ParseLanguage(code string) (Language, error) {
	l := Language(code)
	if !l.Supported() {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}
	return l, nil
}

// Supported reports whether l is one of SupportedLanguages
func (l Language) Supported() bool {
	switch l {
	case English, Japanese, Spanish:
		return true
	}
	return false
}

// Label returns the language name in that language
func (l Language) Label() string {
	switch l {
	case English:
		return "English"
	case Japanese:
		return "日本語"
	case Spanish:
		return "Español"
	}
	return string(l)
}
