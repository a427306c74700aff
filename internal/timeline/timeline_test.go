package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/thinkchat/internal/models"
)

var base = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

func msg(id int64, sender models.Sender, offset time.Duration) models.Message {
	return models.Message{ID: id, Text: "m", Sender: sender, CreatedAt: base.Add(offset)}
}

func flags(entries []Entry) []bool {
	out := make([]bool, len(entries))
	for i, e := range entries {
		out[i] = e.ShowTimestamp
	}
	return out
}

func TestAnnotateEmpty(t *testing.T) {
	require.Empty(t, Annotate(nil))
	require.Empty(t, Annotate([]models.Message{}))
}

func TestAnnotateSingleMessageShown(t *testing.T) {
	require.Equal(t, []bool{true}, flags(Annotate([]models.Message{msg(1, models.SenderSelf, 0)})))
}

func TestAnnotateGroupsSameSenderWithinWindow(t *testing.T) {
	msgs := []models.Message{
		msg(1, models.SenderSelf, 0),
		msg(2, models.SenderSelf, 0),
		msg(3, models.SenderSelf, 2*time.Minute),
	}
	require.Equal(t, []bool{false, true, true}, flags(Annotate(msgs)))
}

func TestAnnotateSenderChangeBreaksGroup(t *testing.T) {
	msgs := []models.Message{
		msg(1, models.SenderCounterparty, 0),
		msg(2, models.SenderSelf, 10*time.Second),
		msg(3, models.SenderSelf, 20*time.Second),
	}
	require.Equal(t, []bool{true, false, true}, flags(Annotate(msgs)))
}

func TestAnnotateGapTruncatedToWholeMinutes(t *testing.T) {
	cases := []struct {
		name string
		gap  time.Duration
		show bool
	}{
		{"under a minute", 59 * time.Second, false},
		{"exactly one minute", time.Minute, false},
		{"one minute fifty nine", time.Minute + 59*time.Second, false},
		{"two minutes", 2 * time.Minute, true},
		{"an hour", time.Hour, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msgs := []models.Message{msg(1, models.SenderSelf, 0), msg(2, models.SenderSelf, tc.gap)}
			require.Equal(t, []bool{tc.show, true}, flags(Annotate(msgs)))
		})
	}
}

func TestAnnotateLastAlwaysShownAndOrderPreserved(t *testing.T) {
	msgs := []models.Message{
		msg(5, models.SenderSelf, 0),
		msg(3, models.SenderSelf, time.Second),
		msg(9, models.SenderCounterparty, 2*time.Second),
		msg(1, models.SenderCounterparty, 3*time.Second),
	}
	before := models.CloneMessages(msgs)
	entries := Annotate(msgs)

	require.True(t, entries[len(entries)-1].ShowTimestamp)
	for i := range msgs {
		require.Equal(t, msgs[i], entries[i].Message)
	}
	require.Equal(t, before, msgs)
}

func TestAnnotateWithinCustomWindow(t *testing.T) {
	msgs := []models.Message{msg(1, models.SenderSelf, 0), msg(2, models.SenderSelf, 4*time.Minute)}
	require.Equal(t, []bool{false, true}, flags(AnnotateWithin(msgs, 5*time.Minute)))
	require.Equal(t, []bool{true, true}, flags(AnnotateWithin(msgs, 0)))
}

func TestGroupsEndAtVisibleTimestamp(t *testing.T) {
	msgs := []models.Message{
		msg(1, models.SenderSelf, 0),
		msg(2, models.SenderSelf, 0),
		msg(3, models.SenderCounterparty, time.Second),
	}
	groups := Groups(Annotate(msgs))
	require.Len(t, groups, 2)
	require.Equal(t, models.SenderSelf, groups[0].Sender)
	require.Len(t, groups[0].Entries, 2)
	require.Equal(t, models.SenderCounterparty, groups[1].Sender)
}

func TestLabelFormatsInLocation(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	require.Equal(t, "7:00 AM", Label(base, "", loc))
	require.Equal(t, "12:00", Label(base, "15:04", time.UTC))
}
