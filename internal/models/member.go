package models

import "time"

// Member represents one registered attendee on the drawing roster.
// A member who has won is never eligible; a fresh import creates members
// that are eligible and have not won.
type Member struct {
	ID           int64     `json:"id"`
	BadgeID      string    `json:"badgeId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Organization string    `json:"organization"`
	Email        string    `json:"email"`
	Eligible     bool      `json:"eligible"`
	Won          bool      `json:"won"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FullName returns the display name of the member.
func (m Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// Outcome is the result recorded for a drawn member.
type Outcome string

const (
	OutcomeClaimed Outcome = "claimed"
	OutcomeNotHere Outcome = "not_here"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	return o == OutcomeClaimed || o == OutcomeNotHere
}

// Label returns the operator-facing wording of the outcome.
func (o Outcome) Label() string {
	switch o {
	case OutcomeClaimed:
		return "Claimed"
	case OutcomeNotHere:
		return "Not here"
	}
	return string(o)
}

// AuditEntry is one row of the append-only drawing history. Member fields are
// copied at resolution time so the history survives later roster changes.
type AuditEntry struct {
	ID           int64     `json:"id"`
	BadgeID      string    `json:"badgeId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Organization string    `json:"organization"`
	Outcome      Outcome   `json:"outcome"`
	RecordedAt   time.Time `json:"recordedAt"`
}

// FullName returns the display name captured in the entry.
func (e AuditEntry) FullName() string {
	return e.FirstName + " " + e.LastName
}

// PendingDraw is a drawn member awaiting resolution. Nothing is persisted for
// a pending draw; it lives in the operator session until resolved.
type PendingDraw struct {
	BadgeID      string    `json:"badgeId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Organization string    `json:"organization"`
	DrawnAt      time.Time `json:"drawnAt"`
}

// FullName returns the display name of the drawn member.
func (p PendingDraw) FullName() string {
	return p.FirstName + " " + p.LastName
}

// RosterStats summarizes the roster.
type RosterStats struct {
	Total    int `json:"total"`
	Eligible int `json:"eligible"`
	Won      int `json:"won"`
}
