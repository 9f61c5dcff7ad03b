package vocab

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/vocabpack/internal/excel"
	"github.com/example/vocabpack/pkg/models"
)

var (
	// ErrNotArray is returned for item files or source lists that are not JSON arrays
	ErrNotArray = errors.New("not a JSON array")

	// ErrUnsupportedFormat is returned for item files with an unknown extension
	ErrUnsupportedFormat = errors.New("unsupported item file format")
)

// Sources maps every language to its item files
type Sources map[models.Language][]string

// Loader reads the master item lists
type Loader struct {
	// Root is the directory item file paths are resolved against
	Root string
	// SourcesPath is the language-to-file index, relative to Root
	SourcesPath string
	// Sheet describes the columns of spreadsheet item files
	Sheet excel.ImportConfig
}

// NewLoader creates a loader with the default spreadsheet layout
func NewLoader(root, sourcesPath string) *Loader {
	return &Loader{
		Root:        root,
		SourcesPath: sourcesPath,
		Sheet:       excel.DefaultImportConfig(),
	}
}

// ReadSources parses the sources index. Every supported language must list
// its files as an array of paths.
func (l *Loader) ReadSources() (Sources, error) {
	path := l.resolve(l.SourcesPath)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DataLoadError{Path: path, Err: err}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DataLoadError{Path: path, Err: err}
	}

	sources := make(Sources, len(models.SupportedLanguages))
	for _, lang := range models.SupportedLanguages {
		var files []string
		entry, ok := raw[string(lang)]
		if !ok || json.Unmarshal(entry, &files) != nil || files == nil {
			return nil, &DataLoadError{Lang: lang, Path: path, Err: fmt.Errorf("file list: %w", ErrNotArray)}
		}
		sources[lang] = files
	}
	return sources, nil
}

// LoadAll loads the items of every supported language
func (l *Loader) LoadAll() (map[models.Language][]models.Item, error) {
	sources, err := l.ReadSources()
	if err != nil {
		return nil, err
	}

	all := make(map[models.Language][]models.Item, len(sources))
	for _, lang := range models.SupportedLanguages {
		items, err := l.LoadLanguage(lang, sources[lang])
		if err != nil {
			return nil, err
		}
		log.Printf("Loaded %d %s items from %d files", len(items), lang, len(sources[lang]))
		all[lang] = items
	}
	return all, nil
}

// LoadLanguage loads and normalizes the items of lang from files, in order
func (l *Loader) LoadLanguage(lang models.Language, files []string) ([]models.Item, error) {
	var records []Record
	for _, f := range files {
		path := l.resolve(f)
		recs, err := l.readFile(path)
		if err != nil {
			return nil, &DataLoadError{Lang: lang, Path: path, Err: err}
		}
		records = append(records, recs...)
	}
	return Normalize(lang, records), nil
}

func (l *Loader) readFile(path string) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return readJSON(path)
	case ".xlsx", ".xlsm", ".csv":
		cfg := l.Sheet
		cfg.FilePath = path
		rows, err := excel.ReadRows(cfg)
		if err != nil {
			return nil, err
		}
		return fromRows(rows), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

func (l *Loader) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.Root, p)
}

func readJSON(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil || elems == nil {
		return nil, ErrNotArray
	}

	records := make([]Record, len(elems))
	for i, e := range elems {
		var jr jsonRecord
		// Entries that are not objects keep their position but have no
		// word, so Normalize drops them.
		if err := json.Unmarshal(e, &jr); err == nil {
			records[i] = jr.record()
		}
	}
	return records, nil
}

func fromRows(rows []excel.Row) []Record {
	records := make([]Record, len(rows))
	for i, r := range rows {
		records[i] = Record{
			Word:      r.Word,
			IPA:       r.IPA,
			KoPron:    r.KoPron,
			MeaningKo: r.MeaningKo,
			Example:   r.Example,
		}
		if id := strings.TrimSpace(r.ID); id != "" {
			records[i].ID = &id
		}
	}
	return records
}
