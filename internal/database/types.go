package database

import "time"

// stateRowID is the key of the single state record
const stateRowID = 1

// StateRow is the persisted snapshot of the whole application state
type StateRow struct {
	ID            int       `db:"id"`
	SchemaVersion int       `db:"schema_version"`
	Payload       string    `db:"payload"`
	UpdatedAt     time.Time `db:"updated_at"`
}
