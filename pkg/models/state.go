package models

// SchemaVersion is the version of the persisted state layout
const SchemaVersion = 1

// Pack is the batch of item ids opened for one session.
// Idx is the cursor of the next card to grade.
type Pack struct {
	Session int      `json:"session"`
	IDs     []string `json:"ids"`
	Idx     int      `json:"idx"`
}

// Complete reports whether every card of the pack was graded
func (p *Pack) Complete() bool {
	return p.Idx >= len(p.IDs)
}

// Current returns the id under the cursor
func (p *Pack) Current() (string, bool) {
	if p.Idx < 0 || p.Idx >= len(p.IDs) {
		return "", false
	}
	return p.IDs[p.Idx], true
}

// LanguageState holds the session counter, progress and open pack of one language
type LanguageState struct {
	Session  int                  `json:"session"`
	Progress map[string]*Progress `json:"progress"`
	Pack     *Pack                `json:"pack"`
}

// NewLanguageState returns the state of a language nobody studied yet
func NewLanguageState() *LanguageState {
	return &LanguageState{
		Session:  0,
		Progress: make(map[string]*Progress),
	}
}

// State is the root of everything that gets persisted
type State struct {
	Schema     int                         `json:"schema"`
	ActiveLang Language                    `json:"activeLang"`
	Langs      map[Language]*LanguageState `json:"langs"`
}

// DefaultState returns a freshly initialized state
func DefaultState() *State {
	s := &State{
		Schema:     SchemaVersion,
		ActiveLang: DefaultLanguage,
		Langs:      make(map[Language]*LanguageState, len(SupportedLanguages)),
	}
	for _, l := range SupportedLanguages {
		s.Langs[l] = NewLanguageState()
	}
	return s
}

// Lang returns the state of l, creating it if it is missing
func (s *State) Lang(l Language) *LanguageState {
	ls, ok := s.Langs[l]
	if !ok || ls == nil {
		ls = NewLanguageState()
		s.Langs[l] = ls
	}
	return ls
}

// Active returns the state of the active language
func (s *State) Active() *LanguageState {
	return s.Lang(s.ActiveLang)
}

// Clone returns a deep copy of the state
func (s *State) Clone() *State {
	c := &State{
		Schema:     s.Schema,
		ActiveLang: s.ActiveLang,
		Langs:      make(map[Language]*LanguageState, len(s.Langs)),
	}
	for l, ls := range s.Langs {
		if ls == nil {
			continue
		}
		cl := &LanguageState{
			Session:  ls.Session,
			Progress: make(map[string]*Progress, len(ls.Progress)),
		}
		for id, p := range ls.Progress {
			cp := *p
			cl.Progress[id] = &cp
		}
		if ls.Pack != nil {
			cl.Pack = &Pack{
				Session: ls.Pack.Session,
				IDs:     append([]string(nil), ls.Pack.IDs...),
				Idx:     ls.Pack.Idx,
			}
		}
		c.Langs[l] = cl
	}
	return c
}
