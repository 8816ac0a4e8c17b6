package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoster(t *testing.T) {
	t.Run("maps columns by header name", func(t *testing.T) {
		input := "Is_Member?,Organization,Last_Name,First_Name,Registration_Badge_ID,Shirt Size\n" +
			"Yes, Acme , Doe ,John,B100,L\n"
		members, summary, err := parseRoster(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "B100", members[0].BadgeID)
		assert.Equal(t, "John", members[0].FirstName)
		assert.Equal(t, "Doe", members[0].LastName)
		assert.Equal(t, "Acme", members[0].Organization)
		assert.Empty(t, members[0].Email)
		assert.Zero(t, summary.Skipped())
	})

	t.Run("byte order mark on first header", func(t *testing.T) {
		input := "\ufeff" + rosterHeader + "B1,Ada,Lovelace,Engines,ada@example.com,Yes\n"
		members, _, err := parseRoster(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "B1", members[0].BadgeID)
		assert.Equal(t, "ada@example.com", members[0].Email)
	})

	t.Run("membership marker is exact", func(t *testing.T) {
		input := rosterHeader +
			"B1,A,A,Org,,Yes\n" +
			"B2,B,B,Org,,yes\n" +
			"B3,C,C,Org,,YES\n" +
			"B4,D,D,Org,,No\n" +
			"B5,E,E,Org,,\n" +
			"B6,F,F,Org,, Yes \n"
		members, summary, err := parseRoster(strings.NewReader(input))
		require.NoError(t, err)
		var ids []string
		for _, m := range members {
			ids = append(ids, m.BadgeID)
		}
		assert.Equal(t, []string{"B1", "B6"}, ids)
		assert.Equal(t, 4, summary.SkippedNonMember)
	})

	t.Run("rows missing values are reported", func(t *testing.T) {
		input := rosterHeader +
			",Ann,Able,Org,,Yes\n" +
			"B2,,Baker,Org,,Yes\n" +
			"B3,Cat,,,,Yes\n" +
			"B4,Dan,Dale,,,Yes\n"
		members, summary, err := parseRoster(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "B4", members[0].BadgeID)
		require.Len(t, summary.Malformed, 3)
		assert.Equal(t, 2, summary.Malformed[0].Line)
		assert.Contains(t, summary.Malformed[0].Reason, ColumnBadgeID)
		assert.Contains(t, summary.Malformed[1].Reason, ColumnFirstName)
		assert.Equal(t, 4, summary.Malformed[2].Line)
		assert.Contains(t, summary.Malformed[2].Reason, ColumnLastName)
	})

	t.Run("guest rows are not reported as malformed", func(t *testing.T) {
		input := rosterHeader + ",,,,,No\n"
		_, summary, err := parseRoster(strings.NewReader(input))
		require.NoError(t, err)
		assert.Empty(t, summary.Malformed)
		assert.Equal(t, 1, summary.SkippedNonMember)
	})

	t.Run("missing required column", func(t *testing.T) {
		input := "Registration_Badge_ID,First_Name,Last_Name,Is_Member?\nB1,A,B,Yes\n"
		_, _, err := parseRoster(strings.NewReader(input))
		assert.ErrorIs(t, err, ErrMissingColumn)
		assert.Contains(t, err.Error(), ColumnOrganization)
	})

	t.Run("empty input", func(t *testing.T) {
		_, _, err := parseRoster(strings.NewReader(""))
		assert.Error(t, err)
	})

	t.Run("ragged row fails closed", func(t *testing.T) {
		input := rosterHeader + "B1,A,A,Org,,Yes\nB2,B\n"
		members, _, err := parseRoster(strings.NewReader(input))
		assert.Error(t, err)
		assert.Nil(t, members)
	})

	t.Run("header only", func(t *testing.T) {
		members, summary, err := parseRoster(strings.NewReader(rosterHeader))
		require.NoError(t, err)
		assert.Empty(t, members)
		assert.Zero(t, summary.Skipped())
	})
}
