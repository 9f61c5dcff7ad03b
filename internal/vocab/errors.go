package vocab

import (
	"fmt"

	"github.com/example/vocabpack/pkg/models"
)

// DataLoadError reports master data that could not be loaded. A language
// whose data fails to load has no items; it is never replaced by an empty list.
type DataLoadError struct {
	Lang models.Language // empty when the sources index itself failed
	Path string
	Err  error
}

func (e *DataLoadError) Error() string {
	if e.Lang == "" {
		return fmt.Sprintf("load vocabulary %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("load %s vocabulary %s: %v", e.Lang, e.Path, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}
