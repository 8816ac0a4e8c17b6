package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"prizedraw/internal/models"
)

// Roster CSV column names as exported by the registration system.
const (
	ColumnBadgeID      = "Registration_Badge_ID"
	ColumnFirstName    = "First_Name"
	ColumnLastName     = "Last_Name"
	ColumnOrganization = "Organization"
	ColumnIsMember     = "Is_Member?"
	ColumnEmail        = "Work Email Address Do not use personal"

	// MemberToken is the only Is_Member? value that admits a row.
	MemberToken = "Yes"
)

var requiredColumns = []string{
	ColumnBadgeID,
	ColumnFirstName,
	ColumnLastName,
	ColumnOrganization,
	ColumnIsMember,
}

// ErrMissingColumn is returned when the roster header lacks a required column.
var ErrMissingColumn = errors.New("roster is missing a required column")

const utf8BOM = "\ufeff"

// parseRoster reads a roster CSV and returns the member rows that should be
// offered to the store. Guest rows and rows with empty required values are
// counted in the summary. Any structural problem (unreadable CSV, ragged rows,
// missing header columns) fails the whole import.
func parseRoster(r io.Reader) ([]models.Member, models.ImportSummary, error) {
	var summary models.ImportSummary

	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, summary, fmt.Errorf("roster is empty")
	}
	if err != nil {
		return nil, summary, fmt.Errorf("read roster header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.TrimSpace(name)
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, summary, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	field := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var members []models.Member
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, summary, fmt.Errorf("read roster: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if field(record, ColumnIsMember) != MemberToken {
			summary.SkippedNonMember++
			continue
		}

		m := models.Member{
			BadgeID:      field(record, ColumnBadgeID),
			FirstName:    field(record, ColumnFirstName),
			LastName:     field(record, ColumnLastName),
			Organization: field(record, ColumnOrganization),
			Email:        field(record, ColumnEmail),
		}
		if missing := missingValues(m); len(missing) > 0 {
			summary.Malformed = append(summary.Malformed, models.MalformedRow{
				Line:   line,
				Reason: "missing " + strings.Join(missing, ", "),
			})
			continue
		}
		members = append(members, m)
	}
	return members, summary, nil
}

func missingValues(m models.Member) []string {
	var missing []string
	if m.BadgeID == "" {
		missing = append(missing, ColumnBadgeID)
	}
	if m.FirstName == "" {
		missing = append(missing, ColumnFirstName)
	}
	if m.LastName == "" {
		missing = append(missing, ColumnLastName)
	}
	return missing
}
