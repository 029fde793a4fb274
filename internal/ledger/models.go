package ledger

import "errors"

// Collection is the record store collection ledger entries live in.
const Collection = "users"

// ErrMissingName is returned when an upsert payload carries no name.
var ErrMissingName = errors.New("name is required")

// Entry is the fixed schema of one ledger row: cumulative totals for a
// single participant. Extra fields set through upserts are preserved in
// the stored record but are not part of the typed view.
type Entry struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	CO2    int    `json:"co2"`
}

// Standing is one leaderboard row.
type Standing struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	CO2    int    `json:"co2"`
}
