package database

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/vocabpack/pkg/models"
)

// ErrInvalidState is wrapped by every decoding failure
var ErrInvalidState = errors.New("invalid persisted state")

// ParseResult is the outcome of decoding a persisted state.
// Exactly one of State and Err is set.
type ParseResult struct {
	State *models.State
	Err   error
}

// OK reports whether decoding succeeded
func (r ParseResult) OK() bool {
	return r.Err == nil && r.State != nil
}

// StateOrDefault returns the decoded state, or a fresh one if decoding failed
func (r ParseResult) StateOrDefault() *models.State {
	if r.OK() {
		return r.State
	}
	return models.DefaultState()
}

type rawState struct {
	Schema     *int                       `json:"schema"`
	ActiveLang *string                    `json:"activeLang"`
	Langs      map[string]json.RawMessage `json:"langs"`
}

type rawLangState struct {
	Session  *int                        `json:"session"`
	Progress map[string]*models.Progress `json:"progress"`
	Pack     *models.Pack                `json:"pack"`
}

// DecodeState parses a persisted state. A wrong type anywhere or a missing
// or mismatched schema fails the whole record; missing per-language fields
// are defaulted one by one.
func DecodeState(payload []byte) ParseResult {
	var raw rawState
	if err := json.Unmarshal(payload, &raw); err != nil {
		return ParseResult{Err: fmt.Errorf("%w: %v", ErrInvalidState, err)}
	}
	if raw.Schema == nil || *raw.Schema != models.SchemaVersion {
		return ParseResult{Err: fmt.Errorf("%w: schema mismatch", ErrInvalidState)}
	}

	state := models.DefaultState()
	if raw.ActiveLang != nil {
		if l, err := models.ParseLanguage(*raw.ActiveLang); err == nil {
			state.ActiveLang = l
		}
	}

	for _, l := range models.SupportedLanguages {
		data, ok := raw.Langs[string(l)]
		if !ok || string(data) == "null" {
			continue
		}
		var rl rawLangState
		if err := json.Unmarshal(data, &rl); err != nil {
			return ParseResult{Err: fmt.Errorf("%w: language %s: %v", ErrInvalidState, l, err)}
		}
		ls := state.Lang(l)
		if rl.Session != nil {
			if *rl.Session < 0 {
				return ParseResult{Err: fmt.Errorf("%w: language %s: negative session", ErrInvalidState, l)}
			}
			ls.Session = *rl.Session
		}
		for id, p := range rl.Progress {
			if p != nil {
				ls.Progress[id] = p
			}
		}
		if rl.Pack != nil && rl.Pack.Idx >= 0 && rl.Pack.Idx <= len(rl.Pack.IDs) {
			ls.Pack = rl.Pack
		}
	}

	return ParseResult{State: state}
}

// EncodeState serializes state in the persisted layout
func EncodeState(state *models.State) ([]byte, error) {
	b, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return b, nil
}
