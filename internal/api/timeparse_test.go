package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/thinkchat/internal/models"
)

func TestParseServerTime(t *testing.T) {
	want := time.Date(2025, 3, 1, 12, 30, 5, 0, time.UTC)
	cases := map[string]time.Time{
		"2025-03-01T12:30:05":        want,
		"2025-03-01 12:30:05":        want,
		"2025-03-01T12:30:05.000000": want,
		"2025-03-01T12:30:05Z":       want,
		"2025-03-01T14:30:05+02:00":  want,
		"2025-03-01T12:30:05.250":    want.Add(250 * time.Millisecond),
		"  2025-03-01T12:30:05  ":    want,
		"2025-03-01T12:30":           want.Add(-5 * time.Second),
	}
	for input, expected := range cases {
		got, err := ParseServerTime(input)
		require.NoError(t, err, input)
		require.True(t, expected.Equal(got), "%s: got %s", input, got)
		require.Equal(t, time.UTC, got.Location(), input)
	}

	for _, bad := range []string{"", "yesterday", "2025-13-01T00:00:00"} {
		_, err := ParseServerTime(bad)
		require.Error(t, err, bad)
	}
}

func TestFormatServerTimeRoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 30, 5, 123456000, time.FixedZone("x", 3600))
	got, err := ParseServerTime(FormatServerTime(at))
	require.NoError(t, err)
	require.True(t, at.Equal(got))
}

func TestDecodeMessagesStableSort(t *testing.T) {
	rows := []WireMessage{
		{ID: 3, Message: "c", From: "Parent", Created: "2025-03-01T12:01:00"},
		{ID: 1, Message: "a", From: "Student", Created: "2025-03-01T12:00:00"},
		{ID: 2, Message: "b", From: "Parent", Created: "2025-03-01T12:00:00"},
	}
	msgs, err := decodeMessages(rows)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, []int64{msgs[0].ID, msgs[1].ID, msgs[2].ID})

	_, err = decodeMessages([]WireMessage{{ID: 1, Message: "x", From: "Teacher", Created: "2025-03-01T12:00:00"}})
	require.ErrorIs(t, err, models.ErrInvalidSender)
}

func TestDecodeMessagesRejectsBlankText(t *testing.T) {
	_, err := decodeMessages([]WireMessage{{ID: 7, Message: "  ", From: "Student", Created: "2025-03-01T12:00:00"}})
	require.ErrorIs(t, err, models.ErrEmptyMessage)

	var validation *models.ValidationErrors
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "text", validation.Errors[0].Field)
	require.Contains(t, err.Error(), "message 7")
}
