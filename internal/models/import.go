package models

// MalformedRow describes a roster row that was skipped because a required
// value was empty.
type MalformedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportSummary reports what a roster import did.
type ImportSummary struct {
	Added            int            `json:"added"`
	SkippedExisting  int            `json:"skippedExisting"`
	SkippedNonMember int            `json:"skippedNonMember"`
	Malformed        []MalformedRow `json:"malformed"`
}

// Skipped returns the number of rows that were not inserted.
func (s ImportSummary) Skipped() int {
	return s.SkippedExisting + s.SkippedNonMember + len(s.Malformed)
}

// FlashLevel categorizes an operator message.
type FlashLevel string

const (
	FlashSuccess FlashLevel = "success"
	FlashInfo    FlashLevel = "info"
	FlashWarning FlashLevel = "warning"
	FlashDanger  FlashLevel = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   FlashLevel `json:"level"`
	Message string     `json:"message"`
}
