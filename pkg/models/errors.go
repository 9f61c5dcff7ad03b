package models

import "errors"

var (
	// ErrInvalidArgument is returned when a caller passes a value outside the
	// enumerated domain of an operation (an unknown grade, for example).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownLanguage is returned for language codes that are not supported.
	ErrUnknownLanguage = errors.New("unknown language")
)
