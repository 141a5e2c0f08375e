package models

// Group is a set of members sharing expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Code is the 6-digit number members type in to join (100000-999999).
	Code int

	// Name is the display name of the group (e.g., "Roommates").
	Name string

	// Description is optional free text.
	Description string

	// LedgerVersion is bumped by every new transaction and by a reset.
	// Callers pass it back to SettleGroup to detect a stale plan.
	LedgerVersion int64

	// Members is populated by GetGroup, ordered by user ID.
	Members []User

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// MinGroupCode and MaxGroupCode bound the 6-digit join code.
const (
	MinGroupCode = 100000
	MaxGroupCode = 999999
)

// ValidGroupCode reports whether code is a 6-digit join code.
func ValidGroupCode(code int) bool {
	return code >= MinGroupCode && code <= MaxGroupCode
}
