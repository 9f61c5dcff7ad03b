package session

import (
	"errors"
	"fmt"
)

// ErrNoOpenCard is returned when grading or advancing without an open,
// unfinished pack
var ErrNoOpenCard = errors.New("no open card")

// ErrStaleCard is returned when a grade targets a card that is no longer
// under the cursor of the open pack
var ErrStaleCard = errors.New("card is no longer current")

// PersistenceError reports that a mutation was applied in memory but the
// snapshot could not be written. The change stays in effect for the rest of
// the process lifetime; it is lost on restart.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist after %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
